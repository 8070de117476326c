package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"driveway/internal/config"
	"driveway/internal/drive"
	"driveway/internal/model"
)

const listPageSize = 1000

// GoogleDrive implements drive.Remote against the Google Drive v3 API.
type GoogleDrive struct {
	oauth        *oauth2.Config
	fileFields   string
	changeFields string
}

var _ drive.Remote = (*GoogleDrive)(nil)

// NewGoogleDriveFromConfig creates a GoogleDrive adapter: the OAuth client
// config comes from the client secret file, and the field selectors for
// file and change listings come from the config.
func NewGoogleDriveFromConfig(cfg config.RemoteConfig) (*GoogleDrive, error) {
	oauth, err := LoadOAuthConfig(cfg.ClientSecretPath)
	if err != nil {
		return nil, err
	}

	return &GoogleDrive{
		oauth:        oauth,
		fileFields:   strings.Join(cfg.FileFields, ","),
		changeFields: strings.Join(cfg.ChangeFields, ","),
	}, nil
}

// service builds an API client from the account's stored credential. If the
// token source refreshed the token, the fresh token is written back into
// the account state so the caller can persist it.
func (g *GoogleDrive) service(ctx context.Context, st *drive.AccountState) (*drivev3.Service, func() error, error) {
	var token oauth2.Token
	if err := json.Unmarshal(st.Credential, &token); err != nil {
		return nil, nil, fmt.Errorf("decoding credential for %s: %w", st.Email, err)
	}

	source := g.oauth.TokenSource(ctx, &token)
	svc, err := drivev3.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, nil, fmt.Errorf("creating drive client for %s: %w", st.Email, err)
	}

	writeback := func() error {
		fresh, err := source.Token()
		if err != nil {
			return fmt.Errorf("reading refreshed token for %s: %w", st.Email, err)
		}
		if fresh.AccessToken == token.AccessToken {
			return nil
		}
		blob, err := json.Marshal(fresh)
		if err != nil {
			return fmt.Errorf("encoding refreshed token for %s: %w", st.Email, err)
		}
		st.Credential = blob
		return nil
	}

	return svc, writeback, nil
}

// AccountEmail fetches the email address of the authenticated user.
func (g *GoogleDrive) AccountEmail(ctx context.Context, st *drive.AccountState) (string, error) {
	svc, writeback, err := g.service(ctx, st)
	if err != nil {
		return "", err
	}

	about, err := svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("fetching account information: %w", err)
	}
	if about.User == nil {
		return "", fmt.Errorf("server returned no user information")
	}
	if err := writeback(); err != nil {
		return "", err
	}
	return about.User.EmailAddress, nil
}

// StartPageToken returns a fresh change-feed cursor marking "now".
func (g *GoogleDrive) StartPageToken(ctx context.Context, st *drive.AccountState) (string, error) {
	svc, writeback, err := g.service(ctx, st)
	if err != nil {
		return "", err
	}

	resp, err := svc.Changes.GetStartPageToken().SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("fetching start page token: %w", err)
	}
	if err := writeback(); err != nil {
		return "", err
	}
	return resp.StartPageToken, nil
}

// GetDocument fetches a single document record by id.
func (g *GoogleDrive) GetDocument(ctx context.Context, st *drive.AccountState, id string) (model.DocumentRecord, error) {
	svc, writeback, err := g.service(ctx, st)
	if err != nil {
		return model.DocumentRecord{}, err
	}

	f, err := svc.Files.Get(id).
		Fields(googleapiFields(g.fileFields)).
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return model.DocumentRecord{}, fmt.Errorf("fetching document %s: %w", id, err)
	}
	if err := writeback(); err != nil {
		return model.DocumentRecord{}, err
	}
	return recordFromFile(f), nil
}

// ListAll walks every document visible to the account, draining all pages.
func (g *GoogleDrive) ListAll(ctx context.Context, st *drive.AccountState, fn func(model.DocumentRecord) error) error {
	svc, writeback, err := g.service(ctx, st)
	if err != nil {
		return err
	}

	pageToken := ""
	for {
		call := svc.Files.List().
			PageSize(listPageSize).
			Spaces("drive").
			IncludeItemsFromAllDrives(true).
			SupportsAllDrives(true).
			Fields(googleapiFields(fmt.Sprintf("nextPageToken, files(%s)", g.fileFields))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
		if page.Files == nil {
			return fmt.Errorf("document listing response has no files field")
		}
		if len(page.Files) == 0 && page.NextPageToken != "" {
			return fmt.Errorf("empty page in the midst of the document listing")
		}

		for _, f := range page.Files {
			if err := fn(recordFromFile(f)); err != nil {
				return err
			}
		}

		if page.NextPageToken == "" {
			return writeback()
		}
		pageToken = page.NextPageToken
	}
}

// ListChanges walks every change since the given token. The returned token
// is the fresh start token the server hands out once the walk catches up.
func (g *GoogleDrive) ListChanges(ctx context.Context, st *drive.AccountState, sinceToken string, fn func(model.ChangeRecord) error) (string, error) {
	svc, writeback, err := g.service(ctx, st)
	if err != nil {
		return "", err
	}

	pageToken := sinceToken
	for {
		page, err := svc.Changes.List(pageToken).
			PageSize(listPageSize).
			Spaces("drive").
			IncludeItemsFromAllDrives(true).
			SupportsAllDrives(true).
			IncludeRemoved(true).
			IncludeCorpusRemovals(true).
			Fields(googleapiFields(fmt.Sprintf("nextPageToken, newStartPageToken, changes(%s)", g.changeFields))).
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("listing changes: %w", err)
		}
		if page.Changes == nil && page.NewStartPageToken == "" {
			return "", fmt.Errorf("change listing response has no changes field")
		}

		for _, ch := range page.Changes {
			rec := model.ChangeRecord{FileID: ch.FileId, Removed: ch.Removed}
			if ch.File != nil {
				doc := recordFromFile(ch.File)
				rec.Doc = &doc
			}
			if err := fn(rec); err != nil {
				return "", err
			}
		}

		switch {
		case page.NextPageToken != "":
			pageToken = page.NextPageToken
		case page.NewStartPageToken != "":
			if err := writeback(); err != nil {
				return "", err
			}
			return page.NewStartPageToken, nil
		default:
			return "", fmt.Errorf("change listing provided neither a next page nor a new start token")
		}
	}
}

func googleapiFields(s string) googleapi.Field {
	return googleapi.Field(s)
}

func recordFromFile(f *drivev3.File) model.DocumentRecord {
	return model.DocumentRecord{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Starred:      f.Starred,
		Trashed:      f.Trashed,
		Parents:      f.Parents,
	}
}
