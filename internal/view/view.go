// Package view projects the mirror store and navigation state into the
// folder and file lists to display. Compute is a pure function: identical
// inputs always yield identical, stably ordered output.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
)

// Tab identifies what the user is looking at: one of the storage
// namespaces, or a virtual tab that flattens across them.
type Tab string

const (
	TabOverview Tab = "overview"
	TabShared   Tab = "shared"
	TabTrash    Tab = "trash"
)

// Virtual reports whether the tab bypasses the parent-folder filter.
func (t Tab) Virtual() bool {
	switch t {
	case TabOverview, TabShared, TabTrash:
		return true
	}
	return false
}

// Namespace returns the storage namespace a non-virtual tab maps to.
func (t Tab) Namespace() (model.Namespace, bool) {
	ns := model.Namespace(t)
	if ns.Valid() {
		return ns, true
	}
	return "", false
}

// Nav is the navigation state: the active tab and the folder being
// browsed. FolderID "" denotes the namespace root. Mutated only by
// explicit navigation actions.
type Nav struct {
	Tab      Tab
	FolderID string
}

// CurrentPath recovers the browsed path from the folder identifier.
func (n Nav) CurrentPath() string {
	if n.FolderID == "" {
		return ""
	}
	_, path, ok := codec.Decode(n.FolderID)
	if !ok {
		return ""
	}
	return path
}

// SortKey selects the ordering of the computed lists.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
	SortBySize SortKey = "size"
)

// collator is shared: locale-aware, case-insensitive name ordering.
var collator = collate.New(language.Und, collate.IgnoreCase)

// Compute filters and orders the items in scope for nav, returning the
// folders and files to display. Search filters files (not folders) by
// case-insensitive substring match on name.
func Compute(items []model.Item, nav Nav, search string, key SortKey) (folders, files []model.Item) {
	// Map iteration order must not leak into the result: fix a
	// deterministic base order before the stable sorts below.
	base := make([]model.Item, len(items))
	copy(base, items)
	sort.Slice(base, func(i, j int) bool { return base[i].ID < base[j].ID })

	search = strings.ToLower(strings.TrimSpace(search))

	for _, item := range base {
		if !inScope(item, nav) {
			continue
		}
		if item.IsFolder {
			folders = append(folders, item)
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		files = append(files, item)
	}

	sortItems(folders, key)
	sortItems(files, key)
	return folders, files
}

// inScope applies the tab's filter. Virtual tabs bypass the parent filter
// entirely and match on namespace/tag only; namespace tabs filter to the
// browsed folder.
func inScope(item model.Item, nav Nav) bool {
	switch nav.Tab {
	case TabOverview:
		return item.Tag == model.TagNone
	case TabShared:
		return item.Tag == model.TagShared
	case TabTrash:
		return item.Tag == model.TagTrash
	}
	ns, ok := nav.Tab.Namespace()
	if !ok {
		return false
	}
	return item.Tag == model.TagNone && item.Namespace == ns && item.ParentID == nav.FolderID
}

func sortItems(items []model.Item, key SortKey) {
	switch key {
	case SortByDate:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ModifiedAt.After(items[j].ModifiedAt)
		})
	case SortBySize:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].SizeBytes > items[j].SizeBytes
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			if c := collator.CompareString(items[i].Name, items[j].Name); c != 0 {
				return c < 0
			}
			return items[i].ID < items[j].ID
		})
	}
}
