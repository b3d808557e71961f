// Package protocol defines the request/response types of the remote
// storage API.
package protocol

import "time"

// FolderEntry is one folder in a listing response.
type FolderEntry struct {
	Name      string `json:"name"`
	MTimeMs   int64  `json:"mtime_ms"`
	ItemCount int    `json:"item_count,omitempty"`
}

// FileEntry is one file in a listing response.
type FileEntry struct {
	Name      string `json:"name"`
	MTimeMs   int64  `json:"mtime_ms"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// ListResponse is returned by GET /api/v1/list.
type ListResponse struct {
	Folders []FolderEntry `json:"folders"`
	Files   []FileEntry   `json:"files"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// MkdirRequest is the body for POST /api/v1/mkdir. Path includes the new
// folder's name.
type MkdirRequest struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

// MoveRequest is the body for POST /api/v1/move, used for both rename
// and move.
type MoveRequest struct {
	Namespace  string `json:"namespace"`
	SourcePath string `json:"source_path"`
	TargetPath string `json:"target_path"`
}

// TrashRequest is the body for POST /api/v1/trash (soft delete).
type TrashRequest struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

// UploadResponse is returned by POST /api/v1/upload.
type UploadResponse struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
}

// ClassifyRenameRequest is the body for POST /api/v1/classify-rename.
type ClassifyRenameRequest struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

// RenameSuggestion is returned by POST /api/v1/classify-rename when the
// server renamed an uploaded image.
type RenameSuggestion struct {
	Renamed bool   `json:"renamed"`
	NewName string `json:"new_name,omitempty"`
}

// TrackRecentRequest is the body for POST /api/v1/recent.
type TrackRecentRequest struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	IsFolder  bool   `json:"is_folder"`
}

// RecentItem is one entry in a recent-access listing.
type RecentItem struct {
	ID         string    `json:"id"`
	Namespace  string    `json:"namespace"`
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	IsFolder   bool      `json:"is_folder"`
	AccessedAt time.Time `json:"accessed_at"`
}

// RecentResponse is returned by GET /api/v1/recent.
type RecentResponse struct {
	Items []RecentItem `json:"items"`
}
