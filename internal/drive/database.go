package drive

import (
	"errors"

	"driveway/internal/model"
)

// ErrNotFound is returned by lookups whose subject does not exist.
var ErrNotFound = errors.New("not found")

// Database is the local mirror of the remote document store: documents,
// per-account parent/child links, account associations, and the recorded
// listings that back "." and "%N" references.
type Database interface {
	// Account operations

	// UpsertAccount returns the account row for the given email, creating
	// it if necessary. Accounts are never deleted.
	UpsertAccount(email string) (model.Account, error)

	// ListAccounts returns all known accounts ordered by email.
	ListAccounts() ([]model.Account, error)

	// AccountsForDoc returns every account associated with the document.
	AccountsForDoc(docID string) ([]model.Account, error)

	// Document operations

	// UpsertDoc inserts or fully replaces a document row.
	UpsertDoc(doc model.Doc) error

	// GetDoc returns the document with the given id, or ErrNotFound.
	GetDoc(id string) (model.Doc, error)

	// ListDocs returns every mirrored document.
	ListDocs() ([]model.Doc, error)

	// FindDocsByName returns documents whose name contains the fragment
	// (case-sensitive SQL LIKE semantics).
	FindDocsByName(fragment string) ([]model.Doc, error)

	// DeleteDoc removes a document row. Deleting an absent row is a no-op.
	DeleteDoc(id string) error

	// Link operations

	// UpsertLink inserts a parent/child edge. Duplicate edges are absorbed
	// by the primary key.
	UpsertLink(link model.Link) error

	// ListLinks returns every edge owned by the account.
	ListLinks(accountID int64) ([]model.Link, error)

	// DeleteLinksByChild removes every edge of the account where the given
	// document is the child.
	DeleteLinksByChild(accountID int64, childID string) error

	// DeleteLinksByParent removes every edge of the account where the given
	// document is the parent.
	DeleteLinksByParent(accountID int64, parentID string) error

	// ListChildren returns the documents the account's links place directly
	// inside the given parent.
	ListChildren(accountID int64, parentID string) ([]model.Doc, error)

	// Association operations

	// UpsertAssociation records that a document is visible to an account.
	UpsertAssociation(assn model.AccountAssociation) error

	// DeleteAssociationsForDoc removes the document's associations for all
	// accounts.
	DeleteAssociationsForDoc(docID string) error

	// Listing operations

	// ReplaceListing atomically replaces the listing's rows with the given
	// document ids, positions assigned in order.
	ReplaceListing(listingID int, docIDs []string) error

	// ListingDocs returns the listing's documents in position order.
	ListingDocs(listingID int) ([]model.Doc, error)

	// ListingDoc returns the document at the given 0-based position of the
	// listing, or ErrNotFound.
	ListingDoc(listingID, position int) (model.Doc, error)

	// Close closes the database connection.
	Close() error
}
