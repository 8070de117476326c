package app

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/browser"
	"golang.org/x/term"

	"driveway/internal/config"
	"driveway/internal/credstore"
	"driveway/internal/database"
	"driveway/internal/drive"
	"driveway/internal/model"
	"driveway/internal/remote"
)

// App is the application layer between the CLI and the sync engine.
// It constructs all dependencies from config and manages their lifecycle on
// Close.
type App struct {
	cfg     *config.Config
	db      drive.Database
	creds   drive.CredentialStore
	remote  *remote.GoogleDrive
	service *drive.Service
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// The caller must call Close when done.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	creds, err := credstore.NewStoreFromConfig(cfg.Credentials, promptPassphrase)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating credential store: %w", err)
	}

	gd, err := remote.NewGoogleDriveFromConfig(cfg.Remote)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating remote client: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := drive.NewService(db, creds, gd, &slogAdapter{l: logger}, drive.RealClock{}, cfg.Sync.Interval.Duration)

	return &App{
		cfg:     cfg,
		db:      db,
		creds:   creds,
		remote:  gd,
		service: svc,
		logFile: logFile,
	}, nil
}

// Service exposes the sync engine for read commands.
func (a *App) Service() *drive.Service { return a.service }

// Login runs the OAuth consent flow for a new (or re-authorizing) account
// and initializes its local mirror: fresh change token first, then a full
// import.
func (a *App) Login(ctx context.Context) error {
	oauth, err := remote.LoadOAuthConfig(a.cfg.Remote.ClientSecretPath)
	if err != nil {
		return err
	}

	blob, err := remote.Authorize(ctx, oauth, os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("authorizing account: %w", err)
	}

	// The email is only known after the first authenticated call.
	st := &drive.AccountState{Credential: blob}
	email, err := a.remote.AccountEmail(ctx, st)
	if err != nil {
		return fmt.Errorf("identifying account: %w", err)
	}
	st.Email = email

	acct, err := a.db.UpsertAccount(email)
	if err != nil {
		return fmt.Errorf("registering account %s: %w", email, err)
	}
	st.AccountID = acct.ID

	if err := a.creds.Save(st); err != nil {
		return fmt.Errorf("saving account state for %s: %w", email, err)
	}

	fmt.Printf("Logged in as %s. Importing documents, this can take a while...\n", email)

	if err := a.service.AcquireChangePageToken(ctx, st); err != nil {
		return err
	}
	if err := a.service.ImportDocuments(ctx, st); err != nil {
		return err
	}

	fmt.Println("Done.")
	return nil
}

// Sync runs an incremental sync over every account per the sync mode.
func (a *App) Sync(ctx context.Context, mode drive.SyncMode) error {
	return a.service.MaybeSyncAll(ctx, mode)
}

// Resync re-initializes every account: fresh change token plus full import.
func (a *App) Resync(ctx context.Context) error {
	return a.service.ResyncAll(ctx)
}

// Accounts returns the stored per-account state, in stable order.
func (a *App) Accounts() ([]*drive.AccountState, error) {
	return a.creds.List()
}

// OpenDoc resolves the specifier to a single document and opens it in the
// default browser.
func (a *App) OpenDoc(spec string) (model.Doc, error) {
	doc, err := a.service.ResolveOne(spec)
	if err != nil {
		return model.Doc{}, err
	}
	if err := browser.OpenURL(doc.OpenURL()); err != nil {
		return model.Doc{}, fmt.Errorf("opening %s in browser: %w", doc.Name, err)
	}
	return doc, nil
}

// Close releases all resources.
func (a *App) Close() error {
	var firstErr error

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// promptPassphrase reads the credential store passphrase from the terminal
// without echoing it.
func promptPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "Credential store passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}
