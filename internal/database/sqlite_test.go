package database_test

import (
	"errors"
	"testing"
	"time"

	"driveway/internal/drive"
	"driveway/internal/model"
	"driveway/internal/testutil"
)

func testDoc(id, name string) model.Doc {
	return model.Doc{
		ID:           id,
		Name:         name,
		MimeType:     "text/plain",
		ModifiedTime: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestAccounts(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDatabase(t)

	acct, err := db.UpsertAccount("a@example.com")
	if err != nil {
		t.Fatalf("upserting account: %v", err)
	}
	if acct.ID == 0 {
		t.Error("account got no id")
	}

	again, err := db.UpsertAccount("a@example.com")
	if err != nil {
		t.Fatalf("re-upserting account: %v", err)
	}
	if again.ID != acct.ID {
		t.Errorf("re-upsert changed id: %d != %d", again.ID, acct.ID)
	}

	if _, err := db.UpsertAccount("b@example.com"); err != nil {
		t.Fatalf("upserting second account: %v", err)
	}
	accounts, err := db.ListAccounts()
	if err != nil {
		t.Fatalf("listing accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("got %d accounts, want 2", len(accounts))
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDatabase(t)

	doc := testDoc("doc1", "Quarterly Report")
	doc.Starred = true
	if err := db.UpsertDoc(doc); err != nil {
		t.Fatalf("upserting doc: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		got, err := db.GetDoc("doc1")
		if err != nil {
			t.Fatalf("getting doc: %v", err)
		}
		if got != doc {
			t.Errorf("got %+v, want %+v", got, doc)
		}
	})

	t.Run("upsert replaces", func(t *testing.T) {
		updated := doc
		updated.Name = "Quarterly Report v2"
		if err := db.UpsertDoc(updated); err != nil {
			t.Fatalf("updating doc: %v", err)
		}
		got, err := db.GetDoc("doc1")
		if err != nil {
			t.Fatalf("getting doc: %v", err)
		}
		if got.Name != "Quarterly Report v2" {
			t.Errorf("got name %q after update", got.Name)
		}
	})

	t.Run("missing doc is ErrNotFound", func(t *testing.T) {
		_, err := db.GetDoc("missing")
		if !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("substring search", func(t *testing.T) {
		if err := db.UpsertDoc(testDoc("doc2", "meeting minutes")); err != nil {
			t.Fatalf("upserting doc: %v", err)
		}
		docs, err := db.FindDocsByName("eting")
		if err != nil {
			t.Fatalf("searching docs: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "doc2" {
			t.Errorf("got %v, want [doc2]", docs)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := db.DeleteDoc("doc1"); err != nil {
			t.Fatalf("deleting doc: %v", err)
		}
		if _, err := db.GetDoc("doc1"); !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("doc still present after delete: %v", err)
		}
		// Deleting again is not an error.
		if err := db.DeleteDoc("doc1"); err != nil {
			t.Errorf("re-deleting doc: %v", err)
		}
	})
}

func TestLinks(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDatabase(t)

	for _, l := range []model.Link{
		{AccountID: 1, ParentID: "root", ChildID: "a"},
		{AccountID: 1, ParentID: "root", ChildID: "b"},
		{AccountID: 1, ParentID: "a", ChildID: "c"},
		{AccountID: 2, ParentID: "root", ChildID: "a"},
	} {
		if err := db.UpsertLink(l); err != nil {
			t.Fatalf("upserting link: %v", err)
		}
	}
	// Duplicate insert is a no-op.
	if err := db.UpsertLink(model.Link{AccountID: 1, ParentID: "root", ChildID: "a"}); err != nil {
		t.Fatalf("re-upserting link: %v", err)
	}

	links, err := db.ListLinks(1)
	if err != nil {
		t.Fatalf("listing links: %v", err)
	}
	if len(links) != 3 {
		t.Errorf("got %d links for account 1, want 3", len(links))
	}

	if err := db.DeleteLinksByParent(1, "root"); err != nil {
		t.Fatalf("deleting by parent: %v", err)
	}
	links, err = db.ListLinks(1)
	if err != nil {
		t.Fatalf("listing links: %v", err)
	}
	if len(links) != 1 || links[0].ChildID != "c" {
		t.Errorf("got %v after parent delete, want only a -> c", links)
	}

	if err := db.DeleteLinksByChild(1, "c"); err != nil {
		t.Fatalf("deleting by child: %v", err)
	}
	links, err = db.ListLinks(1)
	if err != nil {
		t.Fatalf("listing links: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("links remain after child delete: %v", links)
	}

	// Account 2 was untouched throughout.
	links, err = db.ListLinks(2)
	if err != nil {
		t.Fatalf("listing links: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("account 2 links disturbed: %v", links)
	}
}

func TestListChildren(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDatabase(t)

	if err := db.UpsertDoc(testDoc("child", "Child")); err != nil {
		t.Fatalf("upserting doc: %v", err)
	}
	if err := db.UpsertLink(model.Link{AccountID: 1, ParentID: "folder", ChildID: "child"}); err != nil {
		t.Fatalf("upserting link: %v", err)
	}
	// A link whose child has no doc row yields nothing.
	if err := db.UpsertLink(model.Link{AccountID: 1, ParentID: "folder", ChildID: "ghost"}); err != nil {
		t.Fatalf("upserting link: %v", err)
	}

	docs, err := db.ListChildren(1, "folder")
	if err != nil {
		t.Fatalf("listing children: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "child" {
		t.Errorf("got %v, want [child]", docs)
	}
}

func TestAssociations(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDatabase(t)

	acct, err := db.UpsertAccount("a@example.com")
	if err != nil {
		t.Fatalf("upserting account: %v", err)
	}
	if err := db.UpsertAssociation(model.AccountAssociation{DocID: "doc", AccountID: acct.ID}); err != nil {
		t.Fatalf("upserting association: %v", err)
	}
	if err := db.UpsertAssociation(model.AccountAssociation{DocID: "doc", AccountID: acct.ID}); err != nil {
		t.Fatalf("re-upserting association: %v", err)
	}

	accounts, err := db.AccountsForDoc("doc")
	if err != nil {
		t.Fatalf("listing accounts for doc: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Email != "a@example.com" {
		t.Errorf("got %v, want [a@example.com]", accounts)
	}

	if err := db.DeleteAssociationsForDoc("doc"); err != nil {
		t.Fatalf("deleting associations: %v", err)
	}
	accounts, err = db.AccountsForDoc("doc")
	if err != nil {
		t.Fatalf("listing accounts for doc: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("associations remain: %v", accounts)
	}
}

func TestListings(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDatabase(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := db.UpsertDoc(testDoc(id, "Doc "+id)); err != nil {
			t.Fatalf("upserting doc: %v", err)
		}
	}

	if err := db.ReplaceListing(model.ListingLastPrint, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("replacing listing: %v", err)
	}

	t.Run("positions preserved", func(t *testing.T) {
		docs, err := db.ListingDocs(model.ListingLastPrint)
		if err != nil {
			t.Fatalf("reading listing: %v", err)
		}
		if len(docs) != 3 || docs[0].ID != "a" || docs[2].ID != "c" {
			t.Errorf("got %v, want a, b, c in order", docs)
		}
	})

	t.Run("single position lookup", func(t *testing.T) {
		doc, err := db.ListingDoc(model.ListingLastPrint, 1)
		if err != nil {
			t.Fatalf("reading position: %v", err)
		}
		if doc.ID != "b" {
			t.Errorf("got %s at position 1, want b", doc.ID)
		}

		if _, err := db.ListingDoc(model.ListingLastPrint, 7); !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("got %v for missing position, want ErrNotFound", err)
		}
	})

	t.Run("replace clears previous entries", func(t *testing.T) {
		if err := db.ReplaceListing(model.ListingLastPrint, []string{"c"}); err != nil {
			t.Fatalf("replacing listing: %v", err)
		}
		docs, err := db.ListingDocs(model.ListingLastPrint)
		if err != nil {
			t.Fatalf("reading listing: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "c" {
			t.Errorf("got %v after replace, want [c]", docs)
		}
	})

	t.Run("listings are independent", func(t *testing.T) {
		if err := db.ReplaceListing(model.ListingCWD, []string{"a"}); err != nil {
			t.Fatalf("replacing CWD listing: %v", err)
		}
		docs, err := db.ListingDocs(model.ListingLastPrint)
		if err != nil {
			t.Fatalf("reading listing: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "c" {
			t.Errorf("CWD replace disturbed last-print listing: %v", docs)
		}
	})
}
