package testutil

import (
	"context"
	"fmt"

	"driveway/internal/drive"
	"driveway/internal/model"
)

// FakeRemote is a scripted drive.Remote: tests load it with the records the
// server should report and optional error injections.
type FakeRemote struct {
	// RootRecord is returned by GetDocument("root").
	RootRecord model.DocumentRecord

	// Records maps document ids to records for GetDocument.
	Records map[string]model.DocumentRecord

	// Listing is what ListAll walks over.
	Listing []model.DocumentRecord

	// Changes is what ListChanges walks over; FinalToken is the token it
	// returns on success.
	Changes    []model.ChangeRecord
	FinalToken string

	// StartToken is returned by StartPageToken.
	StartToken string

	// Err, when set, is returned by every method after its callbacks ran.
	Err error

	// ListChangesCalls counts ListChanges invocations.
	ListChangesCalls int
}

var _ drive.Remote = (*FakeRemote)(nil)

func (f *FakeRemote) StartPageToken(ctx context.Context, st *drive.AccountState) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.StartToken, nil
}

func (f *FakeRemote) GetDocument(ctx context.Context, st *drive.AccountState, id string) (model.DocumentRecord, error) {
	if f.Err != nil {
		return model.DocumentRecord{}, f.Err
	}
	if id == "root" {
		return f.RootRecord, nil
	}
	rec, ok := f.Records[id]
	if !ok {
		return model.DocumentRecord{}, fmt.Errorf("no such document: %s", id)
	}
	return rec, nil
}

func (f *FakeRemote) ListAll(ctx context.Context, st *drive.AccountState, fn func(model.DocumentRecord) error) error {
	for _, rec := range f.Listing {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return f.Err
}

func (f *FakeRemote) ListChanges(ctx context.Context, st *drive.AccountState, sinceToken string, fn func(model.ChangeRecord) error) (string, error) {
	f.ListChangesCalls++
	for _, ch := range f.Changes {
		if err := fn(ch); err != nil {
			return "", err
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.FinalToken, nil
}
