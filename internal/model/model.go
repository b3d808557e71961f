// Package model contains the domain types shared across the sync engine.
package model

import (
	"path"
	"strings"
	"time"
)

// Namespace is a top-level storage partition. Files in different
// namespaces never share a folder tree.
type Namespace string

const (
	NamespaceGeneral Namespace = "general"
	NamespaceMedia   Namespace = "media"
	NamespaceVideo   Namespace = "video"
	NamespaceAudio   Namespace = "audio"
)

// Namespaces lists every storage namespace in display order.
func Namespaces() []Namespace {
	return []Namespace{NamespaceGeneral, NamespaceMedia, NamespaceVideo, NamespaceAudio}
}

// Valid reports whether ns is a known storage namespace.
func (ns Namespace) Valid() bool {
	switch ns {
	case NamespaceGeneral, NamespaceMedia, NamespaceVideo, NamespaceAudio:
		return true
	}
	return false
}

// Kind is a coarse content-type classification derived from a file
// extension.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindArchive  Kind = "archive"
	KindOther    Kind = "other"
)

var kindByExt = map[string]Kind{
	".jpg": KindImage, ".jpeg": KindImage, ".png": KindImage, ".gif": KindImage,
	".webp": KindImage, ".heic": KindImage, ".bmp": KindImage, ".svg": KindImage,
	".mp4": KindVideo, ".mkv": KindVideo, ".mov": KindVideo, ".avi": KindVideo,
	".webm": KindVideo,
	".mp3": KindAudio, ".flac": KindAudio, ".wav": KindAudio, ".ogg": KindAudio,
	".m4a": KindAudio, ".aac": KindAudio,
	".pdf": KindDocument, ".txt": KindDocument, ".md": KindDocument,
	".doc": KindDocument, ".docx": KindDocument, ".odt": KindDocument,
	".zip": KindArchive, ".tar": KindArchive, ".gz": KindArchive, ".7z": KindArchive,
	".rar": KindArchive,
}

// KindOf classifies a file name by extension.
func KindOf(name string) Kind {
	if k, ok := kindByExt[strings.ToLower(path.Ext(name))]; ok {
		return k
	}
	return KindOther
}

// NamespaceFor maps a file name to its destination namespace for uploads.
// Everything not recognized as media lands in the general namespace.
func NamespaceFor(name string) Namespace {
	switch KindOf(name) {
	case KindImage:
		return NamespaceMedia
	case KindVideo:
		return NamespaceVideo
	case KindAudio:
		return NamespaceAudio
	}
	return NamespaceGeneral
}

// Tag marks items that belong to a virtual view rather than a plain
// folder listing.
type Tag string

const (
	TagNone   Tag = ""
	TagShared Tag = "shared"
	TagTrash  Tag = "trash"
)

// Item represents one file or folder as currently known to the client.
// Items are superseded, never mutated in place, when their partition is
// refetched.
type Item struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsFolder   bool      `json:"is_folder"`
	Namespace  Namespace `json:"namespace"`
	ParentID   string    `json:"parent_id"` // "" at the namespace root
	ModifiedAt time.Time `json:"modified_at"`
	SizeBytes  int64     `json:"size_bytes,omitempty"` // files only
	Kind       Kind      `json:"kind"`
	ItemCount  int       `json:"item_count,omitempty"` // folders only, best effort
	URL        string    `json:"url,omitempty"`
	Tag        Tag       `json:"tag,omitempty"`
}

// UploadStatus is the lifecycle state of one upload task.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadDone      UploadStatus = "done"
	UploadError     UploadStatus = "error"
)

// Terminal reports whether the status is final.
func (s UploadStatus) Terminal() bool {
	return s == UploadDone || s == UploadError
}

// UploadTask tracks one file within an upload batch. Progress only moves
// forward.
type UploadTask struct {
	ID       string       `json:"id"`
	FileName string       `json:"file_name"`
	FileSize int64        `json:"file_size"`
	Progress int          `json:"progress"` // 0-100
	Status   UploadStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
}

// RecentEntry is a flattened, namespace-tagged projection of a recently
// touched item. Recent entries carry their own id space, distinct from
// codec-managed identifiers.
type RecentEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Namespace  Namespace `json:"namespace"`
	Path       string    `json:"path"`
	IsFolder   bool      `json:"is_folder"`
	Kind       Kind      `json:"kind"`
	AccessedAt time.Time `json:"accessed_at"`
}
