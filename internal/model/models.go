package model

import (
	"fmt"
	"net/url"
	"time"
)

// FolderMimeType is the MIME type the remote service uses to mark folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Listing IDs for the listitems table. There is no table of listing IDs;
// these two reserved values are the only listings the CLI maintains.
const (
	// ListingLastPrint holds the document list most recently printed by the
	// CLI, enabling positional ("%N") references.
	ListingLastPrint = 0

	// ListingCWD holds the virtual current directory. It contains at most
	// one row.
	ListingCWD = 1
)

// Doc is a document mirrored from the remote drive.
type Doc struct {
	// ID is the remote service's stable identifier. It never changes but
	// means nothing to a user.
	ID string

	// Name is the document's current name. It can change.
	Name string

	// MimeType is the document's MIME type. FolderMimeType marks a folder.
	MimeType string

	// ModifiedTime is the last modification time, in UTC.
	ModifiedTime time.Time

	// Starred reports whether the user starred this document.
	Starred bool

	// Trashed reports whether this document is in the trash.
	Trashed bool
}

// IsFolder reports whether the document is a folder.
func (d Doc) IsFolder() bool {
	return d.MimeType == FolderMimeType
}

// OpenURL returns a URL that opens this document in a browser.
func (d Doc) OpenURL() string {
	return "https://drive.google.com/open?id=" + url.QueryEscape(d.ID)
}

// Account is a logged-in account. The bulk of account state lives in the
// credential store; this row exists so documents can reference accounts by
// integer instead of repeating an email address per row.
type Account struct {
	// ID is the local surrogate key. It has no meaning outside the database.
	ID int64

	// Email is the address associated with this account.
	Email string
}

// Link is one parent/child relationship between two documents, as seen
// through one account. The same child may have different parent sets per
// account, so account_id is part of the key.
type Link struct {
	AccountID int64
	ParentID  string
	ChildID   string
}

// AccountAssociation ties a document to an account that can see it. Shared
// documents may be associated with more than one account.
type AccountAssociation struct {
	DocID     string
	AccountID int64
}

// ListItem is one row of a recorded listing (see ListingLastPrint and
// ListingCWD). Position is 0-based.
type ListItem struct {
	ListingID int
	Position  int
	DocID     string
}

// DocumentRecord is a document as reported by the remote listing adapter.
// Fields other than ID may be absent; DocFromRecord applies defaults.
type DocumentRecord struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime string // RFC 3339
	Starred      bool
	Trashed      bool
	Parents      []string
}

// ChangeRecord is one entry from the remote change feed. FileID may be
// absent; such records carry no usable information and are skipped. Doc is
// nil when Removed is set.
type ChangeRecord struct {
	FileID  string
	Removed bool
	Doc     *DocumentRecord
}

// DocFromRecord converts a remote document record into a Doc row. The record
// must carry an ID and a parseable modification time; a missing name becomes
// a placeholder and a missing MIME type becomes empty.
func DocFromRecord(rec DocumentRecord) (Doc, error) {
	if rec.ID == "" {
		return Doc{}, fmt.Errorf("no ID provided with file record")
	}

	if rec.ModifiedTime == "" {
		return Doc{}, fmt.Errorf("no modifiedTime provided with file record %s", rec.ID)
	}
	mt, err := time.Parse(time.RFC3339, rec.ModifiedTime)
	if err != nil {
		return Doc{}, fmt.Errorf("parsing modifiedTime of file record %s: %w", rec.ID, err)
	}

	name := rec.Name
	if name == "" {
		name = "???"
	}

	return Doc{
		ID:           rec.ID,
		Name:         name,
		MimeType:     rec.MimeType,
		ModifiedTime: mt.UTC(),
		Starred:      rec.Starred,
		Trashed:      rec.Trashed,
	}, nil
}
