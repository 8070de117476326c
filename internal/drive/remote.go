package drive

import (
	"context"

	"driveway/internal/model"
)

// Remote is the listing side of the remote drive API. Implementations hide
// pagination: the list methods drain every page internally, invoking the
// callback once per record in server-delivered order. A callback error stops
// the walk and is returned unchanged.
//
// Implementations may refresh the account's Credential blob as a side
// effect; callers are responsible for persisting the updated state.
type Remote interface {
	// StartPageToken returns a fresh change-feed cursor marking "now".
	StartPageToken(ctx context.Context, st *AccountState) (string, error)

	// GetDocument fetches a single document record. The id "root" resolves
	// to the account's root folder.
	GetDocument(ctx context.Context, st *AccountState, id string) (model.DocumentRecord, error)

	// ListAll walks every document visible to the account. The sequence is
	// not restartable mid-walk; on failure the caller must start over.
	ListAll(ctx context.Context, st *AccountState, fn func(model.DocumentRecord) error) error

	// ListChanges walks every change since the given token and returns the
	// token to persist: either a continuation token or, once the account is
	// fully caught up, a fresh start token. The returned token is only
	// meaningful when err is nil.
	ListChanges(ctx context.Context, st *AccountState, sinceToken string, fn func(model.ChangeRecord) error) (string, error)
}
