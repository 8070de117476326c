package database

// Schema creates all tables at the latest version in one shot. Tests apply
// it to in-memory databases instead of running migrations.
//
// Keep this in sync with the migration files under migrations/files/.
const Schema = `
CREATE TABLE accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE
);

CREATE TABLE docs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    modified_time TIMESTAMP NOT NULL,
    starred BOOLEAN NOT NULL DEFAULT FALSE,
    trashed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE links (
    account_id INTEGER NOT NULL,
    parent_id TEXT NOT NULL,
    child_id TEXT NOT NULL,
    PRIMARY KEY (account_id, parent_id, child_id)
);

CREATE INDEX idx_links_child ON links (account_id, child_id);

CREATE TABLE account_associations (
    doc_id TEXT NOT NULL,
    account_id INTEGER NOT NULL,
    PRIMARY KEY (doc_id, account_id)
);

CREATE TABLE listitems (
    listing_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    doc_id TEXT NOT NULL,
    PRIMARY KEY (listing_id, position)
);
`
