package drive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driveway/internal/model"
)

// ErrNoChangeToken indicates an account has no stored change-paging token,
// meaning it was never initialized with AcquireChangePageToken.
var ErrNoChangeToken = errors.New("no change-paging token")

// SyncMode controls whether read commands synchronize with the remote
// servers before running.
type SyncMode int

const (
	// SyncAuto synchronizes an account when its last sync is older than the
	// configured interval (or it has never synced).
	SyncAuto SyncMode = iota

	// SyncNo never synchronizes.
	SyncNo

	// SyncYes always synchronizes.
	SyncYes
)

// ParseSyncMode parses "auto", "no" or "yes".
func ParseSyncMode(s string) (SyncMode, error) {
	switch s {
	case "auto":
		return SyncAuto, nil
	case "no":
		return SyncNo, nil
	case "yes":
		return SyncYes, nil
	default:
		return SyncAuto, fmt.Errorf("invalid sync mode %q (want auto, no or yes)", s)
	}
}

// Service is the synchronization engine: it brings the local mirror up to
// date with the remote drive, account by account, and offers the graph and
// specifier lookups built on top of the mirror.
type Service struct {
	db         Database
	creds      CredentialStore
	remote     Remote
	logger     Logger
	clock      Clock
	resyncWait time.Duration
}

// NewService creates a Service with the provided dependencies. resyncWait is
// the minimum interval between automatic incremental syncs of one account.
func NewService(db Database, creds CredentialStore, remote Remote, logger Logger, clock Clock, resyncWait time.Duration) *Service {
	return &Service{
		db:         db,
		creds:      creds,
		remote:     remote,
		logger:     logger,
		clock:      clock,
		resyncWait: resyncWait,
	}
}

// Database exposes the underlying mirror store for read-side callers.
func (s *Service) Database() Database { return s.db }

// AcquireChangePageToken fetches a fresh change-feed start token and
// persists it in the account's state. Run at login before the first full
// import: the change window missed between import and first incremental
// sync is smaller that way.
func (s *Service) AcquireChangePageToken(ctx context.Context, st *AccountState) error {
	token, err := s.remote.StartPageToken(ctx, st)
	if err != nil {
		return fmt.Errorf("acquiring change page token for %s: %w", st.Email, err)
	}

	st.ChangePageToken = token
	if err := s.creds.Save(st); err != nil {
		return fmt.Errorf("saving account state for %s: %w", st.Email, err)
	}
	return nil
}

// ImportDocuments fills the mirror with records for every document the
// account can see. The pass is additive: it makes no effort to delete links
// that no longer hold remotely; later incremental syncs (or a resync)
// correct that staleness.
func (s *Service) ImportDocuments(ctx context.Context, st *AccountState) error {
	// The root folder does not necessarily appear in the general listing,
	// so fetch it explicitly first.
	rootRec, err := s.remote.GetDocument(ctx, st, "root")
	if err != nil {
		return fmt.Errorf("fetching root folder for %s: %w", st.Email, err)
	}

	root, err := s.applyRecord(st.AccountID, rootRec)
	if err != nil {
		return err
	}

	count := 0
	err = s.remote.ListAll(ctx, st, func(rec model.DocumentRecord) error {
		if _, err := s.applyRecord(st.AccountID, rec); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("importing documents for %s: %w", st.Email, err)
	}

	st.RootFolderID = root.ID
	now := s.clock.Now().UTC()
	st.LastSync = &now
	if err := s.creds.Save(st); err != nil {
		return fmt.Errorf("saving account state for %s: %w", st.Email, err)
	}

	s.logger.Info("import complete", "account", st.Email, "documents", count)
	return nil
}

// applyRecord upserts one listed document, its account association, and an
// edge for each reported parent.
func (s *Service) applyRecord(accountID int64, rec model.DocumentRecord) (model.Doc, error) {
	doc, err := model.DocFromRecord(rec)
	if err != nil {
		return model.Doc{}, err
	}

	if err := s.db.UpsertDoc(doc); err != nil {
		return model.Doc{}, fmt.Errorf("storing document %s: %w", doc.ID, err)
	}
	if err := s.db.UpsertAssociation(model.AccountAssociation{DocID: doc.ID, AccountID: accountID}); err != nil {
		return model.Doc{}, fmt.Errorf("storing account association for %s: %w", doc.ID, err)
	}
	for _, parent := range rec.Parents {
		link := model.Link{AccountID: accountID, ParentID: parent, ChildID: doc.ID}
		if err := s.db.UpsertLink(link); err != nil {
			return model.Doc{}, fmt.Errorf("storing link %s -> %s: %w", parent, doc.ID, err)
		}
	}

	return doc, nil
}

// SyncAccount applies the remote change feed to the mirror and persists the
// advanced change-page token. The token is saved only after the whole page
// walk succeeds: partial progress is safer to re-attempt than to silently
// skip unprocessed changes.
func (s *Service) SyncAccount(ctx context.Context, st *AccountState) error {
	if st.ChangePageToken == "" {
		return fmt.Errorf("%w for %s", ErrNoChangeToken, st.Email)
	}

	token, err := s.remote.ListChanges(ctx, st, st.ChangePageToken, func(ch model.ChangeRecord) error {
		return s.applyChange(st.AccountID, ch)
	})
	if err != nil {
		return fmt.Errorf("syncing changes for %s: %w", st.Email, err)
	}

	st.ChangePageToken = token
	if err := s.creds.Save(st); err != nil {
		return fmt.Errorf("saving account state for %s: %w", st.Email, err)
	}
	return nil
}

// applyChange applies a single change-feed record, in server-delivered
// order.
func (s *Service) applyChange(accountID int64, ch model.ChangeRecord) error {
	// Change entries with no file id show up in practice with every field
	// unset. Their meaning is unclear; ignoring them works fine.
	if ch.FileID == "" {
		return nil
	}

	if ch.Removed {
		// Only permanent deletion or loss of access produces a removal
		// record; plain trashing does not. Delete whatever is present.
		if err := s.db.DeleteLinksByParent(accountID, ch.FileID); err != nil {
			return fmt.Errorf("deleting parent links of %s: %w", ch.FileID, err)
		}
		if err := s.db.DeleteLinksByChild(accountID, ch.FileID); err != nil {
			return fmt.Errorf("deleting child links of %s: %w", ch.FileID, err)
		}
		if err := s.db.DeleteAssociationsForDoc(ch.FileID); err != nil {
			return fmt.Errorf("deleting associations of %s: %w", ch.FileID, err)
		}
		if err := s.db.DeleteDoc(ch.FileID); err != nil {
			return fmt.Errorf("deleting document %s: %w", ch.FileID, err)
		}
		s.logger.Debug("document removed", "id", ch.FileID)
		return nil
	}

	if ch.Doc == nil {
		return fmt.Errorf("server reported a change to %s but did not provide its information", ch.FileID)
	}

	doc, err := model.DocFromRecord(*ch.Doc)
	if err != nil {
		return err
	}
	if err := s.db.UpsertDoc(doc); err != nil {
		return fmt.Errorf("storing document %s: %w", doc.ID, err)
	}
	if err := s.db.UpsertAssociation(model.AccountAssociation{DocID: doc.ID, AccountID: accountID}); err != nil {
		return fmt.Errorf("storing account association for %s: %w", doc.ID, err)
	}

	// The change record's parent list is authoritative: replace the
	// document's inbound edges wholesale.
	if err := s.db.DeleteLinksByChild(accountID, doc.ID); err != nil {
		return fmt.Errorf("clearing links of %s: %w", doc.ID, err)
	}
	for _, parent := range ch.Doc.Parents {
		link := model.Link{AccountID: accountID, ParentID: parent, ChildID: doc.ID}
		if err := s.db.UpsertLink(link); err != nil {
			return fmt.Errorf("storing link %s -> %s: %w", parent, doc.ID, err)
		}
	}

	return nil
}

// MaybeSyncAll runs an incremental sync over every account, subject to the
// sync mode. Accounts are processed strictly sequentially in the credential
// store's enumeration order; the first failure aborts the whole operation.
func (s *Service) MaybeSyncAll(ctx context.Context, mode SyncMode) error {
	states, err := s.creds.List()
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	announced := false
	for _, st := range states {
		now := s.clock.Now().UTC()

		var should bool
		switch mode {
		case SyncNo:
			should = false
		case SyncYes:
			should = true
		case SyncAuto:
			should = st.LastSync == nil || now.Sub(*st.LastSync) > s.resyncWait
		}
		if !should {
			continue
		}

		if !announced {
			s.logger.Info("synchronizing accounts")
			announced = true
		}

		st.LastSync = &now
		if err := s.SyncAccount(ctx, st); err != nil {
			return err
		}
	}

	return nil
}

// ResyncAll redoes the login-time initialization for every account: a fresh
// change-feed start token followed by a full import.
func (s *Service) ResyncAll(ctx context.Context) error {
	states, err := s.creds.List()
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	for _, st := range states {
		s.logger.Info("re-initializing account", "account", st.Email)
		if err := s.AcquireChangePageToken(ctx, st); err != nil {
			return err
		}
		if err := s.ImportDocuments(ctx, st); err != nil {
			return err
		}
	}

	return nil
}

// SetCWD records the document as the virtual current directory. Only
// folders may become the CWD.
func (s *Service) SetCWD(doc model.Doc) error {
	if !doc.IsFolder() {
		return fmt.Errorf("cannot set virtual CWD to non-folder %q", doc.Name)
	}
	if err := s.db.ReplaceListing(model.ListingCWD, []string{doc.ID}); err != nil {
		return fmt.Errorf("recording virtual CWD: %w", err)
	}
	return nil
}

// RecordListing saves the printed document list so the user can refer to
// entries positionally ("%N") in the next invocation. An empty listing is
// not recorded: the previous one stays valid.
func (s *Service) RecordListing(docs []model.Doc) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	if err := s.db.ReplaceListing(model.ListingLastPrint, ids); err != nil {
		return fmt.Errorf("recording listing: %w", err)
	}
	return nil
}

// Children returns the documents directly inside the given folder, merged
// across every account the folder is associated with and ordered most
// recently modified first.
func (s *Service) Children(doc model.Doc) ([]model.Doc, error) {
	accounts, err := s.db.AccountsForDoc(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("finding accounts of %s: %w", doc.ID, err)
	}

	seen := make(map[string]bool)
	var children []model.Doc
	for _, acct := range accounts {
		docs, err := s.db.ListChildren(acct.ID, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", doc.ID, err)
		}
		for _, d := range docs {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			children = append(children, d)
		}
	}

	sortDocsByModTime(children)
	return children, nil
}

// AccountPaths holds the folder paths of one document as seen by one
// account. Each path is ordered outermost folder first and excludes the
// document itself; an empty set means the document is shared but tethered
// to nothing in that account's tree.
type AccountPaths struct {
	Account model.Account
	Paths   [][]model.Doc
}

// FolderPaths computes, for every account the document is associated with,
// every acyclic folder path from the document up to that account's root.
func (s *Service) FolderPaths(doc model.Doc) ([]AccountPaths, error) {
	accounts, err := s.db.AccountsForDoc(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("finding accounts of %s: %w", doc.ID, err)
	}

	var out []AccountPaths
	for _, acct := range accounts {
		graph, err := s.LoadLinkageGraph(acct.ID, true)
		if err != nil {
			return nil, err
		}

		var paths [][]model.Doc
		for _, idPath := range graph.FindParentPaths(doc.ID) {
			path, err := s.idsToDocs(idPath)
			if err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}

		out = append(out, AccountPaths{Account: acct, Paths: paths})
	}

	return out, nil
}

// idsToDocs resolves document ids against the mirror, preserving order.
func (s *Service) idsToDocs(ids []string) ([]model.Doc, error) {
	docs := make([]model.Doc, 0, len(ids))
	for _, id := range ids {
		doc, err := s.db.GetDoc(id)
		if err != nil {
			return nil, fmt.Errorf("looking up document %s: %w", id, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
