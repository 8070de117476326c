package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"driveway/internal/drive"
	"driveway/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the drive.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// Compile-time check that SQLiteDatabase implements drive.Database.
var _ drive.Database = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite connection with the
// appropriate PRAGMAs. Exported for tools and tests that need a properly
// configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite ships with foreign keys off for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// Account operations

func (s *SQLiteDatabase) UpsertAccount(email string) (model.Account, error) {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO accounts (email) VALUES (?)`, email); err != nil {
		return model.Account{}, fmt.Errorf("inserting account: %w", err)
	}

	var acct model.Account
	err := s.db.QueryRow(`SELECT id, email FROM accounts WHERE email = ?`, email).
		Scan(&acct.ID, &acct.Email)
	if err != nil {
		return model.Account{}, fmt.Errorf("reading back account: %w", err)
	}
	return acct, nil
}

func (s *SQLiteDatabase) ListAccounts() ([]model.Account, error) {
	rows, err := s.db.Query(`SELECT id, email FROM accounts ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var acct model.Account
		if err := rows.Scan(&acct.ID, &acct.Email); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *SQLiteDatabase) AccountsForDoc(docID string) ([]model.Account, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.email
		FROM accounts a
		JOIN account_associations aa ON aa.account_id = a.id
		WHERE aa.doc_id = ?
		ORDER BY a.email`, docID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts for doc: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var acct model.Account
		if err := rows.Scan(&acct.ID, &acct.Email); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// Document operations

const docColumns = `id, name, mime_type, modified_time, starred, trashed`

func scanDoc(row interface{ Scan(...any) error }) (model.Doc, error) {
	var doc model.Doc
	var modified time.Time
	err := row.Scan(&doc.ID, &doc.Name, &doc.MimeType, &modified, &doc.Starred, &doc.Trashed)
	if err != nil {
		return model.Doc{}, err
	}
	doc.ModifiedTime = modified.UTC()
	return doc, nil
}

func (s *SQLiteDatabase) UpsertDoc(doc model.Doc) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO docs (id, name, mime_type, modified_time, starred, trashed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.MimeType, doc.ModifiedTime.UTC(), doc.Starred, doc.Trashed)
	if err != nil {
		return fmt.Errorf("upserting doc: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetDoc(id string) (model.Doc, error) {
	doc, err := scanDoc(s.db.QueryRow(`SELECT `+docColumns+` FROM docs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Doc{}, drive.ErrNotFound
	}
	if err != nil {
		return model.Doc{}, fmt.Errorf("getting doc: %w", err)
	}
	return doc, nil
}

func (s *SQLiteDatabase) ListDocs() ([]model.Doc, error) {
	return s.queryDocs(`SELECT ` + docColumns + ` FROM docs`)
}

func (s *SQLiteDatabase) FindDocsByName(fragment string) ([]model.Doc, error) {
	return s.queryDocs(`SELECT `+docColumns+` FROM docs WHERE name LIKE ?`,
		"%"+fragment+"%")
}

func (s *SQLiteDatabase) DeleteDoc(id string) error {
	if _, err := s.db.Exec(`DELETE FROM docs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting doc: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) queryDocs(query string, args ...any) ([]model.Doc, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying docs: %w", err)
	}
	defer rows.Close()

	var docs []model.Doc
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning doc: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Link operations

func (s *SQLiteDatabase) UpsertLink(link model.Link) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO links (account_id, parent_id, child_id)
		VALUES (?, ?, ?)`,
		link.AccountID, link.ParentID, link.ChildID)
	if err != nil {
		return fmt.Errorf("upserting link: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListLinks(accountID int64) ([]model.Link, error) {
	rows, err := s.db.Query(`
		SELECT account_id, parent_id, child_id
		FROM links WHERE account_id = ?`, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.AccountID, &l.ParentID, &l.ChildID); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *SQLiteDatabase) DeleteLinksByChild(accountID int64, childID string) error {
	_, err := s.db.Exec(`DELETE FROM links WHERE account_id = ? AND child_id = ?`,
		accountID, childID)
	if err != nil {
		return fmt.Errorf("deleting links by child: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteLinksByParent(accountID int64, parentID string) error {
	_, err := s.db.Exec(`DELETE FROM links WHERE account_id = ? AND parent_id = ?`,
		accountID, parentID)
	if err != nil {
		return fmt.Errorf("deleting links by parent: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListChildren(accountID int64, parentID string) ([]model.Doc, error) {
	return s.queryDocs(`
		SELECT d.id, d.name, d.mime_type, d.modified_time, d.starred, d.trashed
		FROM docs d
		JOIN links l ON l.child_id = d.id
		WHERE l.account_id = ? AND l.parent_id = ?`,
		accountID, parentID)
}

// Association operations

func (s *SQLiteDatabase) UpsertAssociation(assn model.AccountAssociation) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO account_associations (doc_id, account_id)
		VALUES (?, ?)`,
		assn.DocID, assn.AccountID)
	if err != nil {
		return fmt.Errorf("upserting association: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteAssociationsForDoc(docID string) error {
	if _, err := s.db.Exec(`DELETE FROM account_associations WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("deleting associations: %w", err)
	}
	return nil
}

// Listing operations

func (s *SQLiteDatabase) ReplaceListing(listingID int, docIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM listitems WHERE listing_id = ?`, listingID); err != nil {
		return fmt.Errorf("clearing listing: %w", err)
	}
	for i, id := range docIDs {
		_, err := tx.Exec(`INSERT INTO listitems (listing_id, position, doc_id) VALUES (?, ?, ?)`,
			listingID, i, id)
		if err != nil {
			return fmt.Errorf("inserting listing item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing listing: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListingDocs(listingID int) ([]model.Doc, error) {
	return s.queryDocs(`
		SELECT d.id, d.name, d.mime_type, d.modified_time, d.starred, d.trashed
		FROM docs d
		JOIN listitems li ON li.doc_id = d.id
		WHERE li.listing_id = ?
		ORDER BY li.position`,
		listingID)
}

func (s *SQLiteDatabase) ListingDoc(listingID, position int) (model.Doc, error) {
	doc, err := scanDoc(s.db.QueryRow(`
		SELECT d.id, d.name, d.mime_type, d.modified_time, d.starred, d.trashed
		FROM docs d
		JOIN listitems li ON li.doc_id = d.id
		WHERE li.listing_id = ? AND li.position = ?`,
		listingID, position))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Doc{}, drive.ErrNotFound
	}
	if err != nil {
		return model.Doc{}, fmt.Errorf("getting listing doc: %w", err)
	}
	return doc, nil
}
