package storage

import (
	"strings"
	"time"
)

// Kind classifies an entry. Folders are containers; the three file kinds
// are the quota accounting buckets.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindPDF      Kind = "pdf"
)

// FileKinds lists the non-folder kinds, i.e. the quota buckets.
var FileKinds = []Kind{KindImage, KindDocument, KindPDF}

// KindFromContentType derives the quota bucket from a MIME content type.
// Anything that is neither an image nor a PDF counts as a document.
func KindFromContentType(contentType string) Kind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case ct == "application/pdf":
		return KindPDF
	default:
		return KindDocument
	}
}

// IsFolder returns true for the folder kind.
func (k Kind) IsFolder() bool {
	return k == KindFolder
}

// Valid returns true for one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFolder, KindImage, KindDocument, KindPDF:
		return true
	}
	return false
}

// RootID is the parent id of top-level entries. The root itself has no row.
const RootID = ""

// Entry represents a file or folder metadata record.
type Entry struct {
	ID         string
	OwnerID    string
	ParentID   string // RootID for top-level entries
	Name       string
	Kind       Kind
	Size       int64  // 0 for folders
	BlobRef    string // empty for folders
	IsFavorite bool
	IsDeleted  bool
	DeletedAt  time.Time // zero while live
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsFolder returns true if the entry is a folder.
func (e *Entry) IsFolder() bool {
	return e.Kind.IsFolder()
}

// ListedEntry is an Entry annotated with its resolved parent name
// (empty at root), as returned by listing queries.
type ListedEntry struct {
	Entry
	ParentName string
}

// ListFilter narrows ListEntries results. Zero-value fields are ignored;
// ParentID distinguishes "any parent" (nil) from "root only" (pointer to
// RootID).
type ListFilter struct {
	Kind          Kind
	ParentID      *string
	FavoritesOnly bool
}

// QuotaSnapshot is a pure read of an owner's ledger.
type QuotaSnapshot struct {
	Limit     int64
	Used      int64
	Available int64
	ByKind    map[Kind]int64
}
