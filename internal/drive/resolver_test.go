package drive_test

import (
	"errors"
	"fmt"
	"testing"

	"driveway/internal/drive"
	"driveway/internal/model"
	"driveway/internal/testutil"
)

func seedDoc(t *testing.T, svc *drive.Service, r model.DocumentRecord) model.Doc {
	t.Helper()
	d, err := model.DocFromRecord(r)
	if err != nil {
		t.Fatalf("building doc: %v", err)
	}
	if err := svc.Database().UpsertDoc(d); err != nil {
		t.Fatalf("seeding doc: %v", err)
	}
	return d
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("exact id wins over name match", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		// A document named after another document's id.
		seedDoc(t, svc, rec("X", "report"))
		seedDoc(t, svc, rec("other", "X"))

		docs, err := svc.Resolve("X", false)
		if err != nil {
			t.Fatalf("resolving: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "X" {
			t.Errorf("got %v, want the document with id X", docs)
		}
	})

	t.Run("dot resolves the virtual CWD", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		folder := seedDoc(t, svc, folderRec("folder", "Projects"))
		if err := svc.SetCWD(folder); err != nil {
			t.Fatalf("setting CWD: %v", err)
		}

		docs, err := svc.Resolve(".", false)
		if err != nil {
			t.Fatalf("resolving: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "folder" {
			t.Errorf("got %v, want [folder]", docs)
		}
	})

	t.Run("dot without CWD fails", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})

		if _, err := svc.Resolve(".", false); err == nil {
			t.Error("expected error when CWD is undefined")
		}
	})

	t.Run("dotdot resolves parents of the CWD", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		db := svc.Database()

		acct, err := db.UpsertAccount("a@example.com")
		if err != nil {
			t.Fatalf("creating account: %v", err)
		}
		seedDoc(t, svc, folderRec("root", "My Drive"))
		seedDoc(t, svc, folderRec("parent", "Parent", "root"))
		cwd := seedDoc(t, svc, folderRec("cwd", "Current", "parent"))
		mustLink(t, svc, acct.ID, "root", "parent")
		mustLink(t, svc, acct.ID, "parent", "cwd")
		if err := db.UpsertAssociation(model.AccountAssociation{DocID: "cwd", AccountID: acct.ID}); err != nil {
			t.Fatalf("seeding association: %v", err)
		}
		if err := svc.SetCWD(cwd); err != nil {
			t.Fatalf("setting CWD: %v", err)
		}

		docs, err := svc.Resolve("..", false)
		if err != nil {
			t.Fatalf("resolving: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "parent" {
			t.Errorf("got %v, want [parent]", docs)
		}
	})

	t.Run("percent reference into last listing", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		docA := seedDoc(t, svc, rec("a", "A"))
		docB := seedDoc(t, svc, rec("b", "B"))
		if err := svc.RecordListing([]model.Doc{docA, docB}); err != nil {
			t.Fatalf("recording listing: %v", err)
		}

		docs, err := svc.Resolve("%2", false)
		if err != nil {
			t.Fatalf("resolving: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "b" {
			t.Errorf("got %v, want [b]", docs)
		}
	})

	t.Run("percent out of range fails", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		docA := seedDoc(t, svc, rec("a", "A"))
		if err := svc.RecordListing([]model.Doc{docA}); err != nil {
			t.Fatalf("recording listing: %v", err)
		}

		if _, err := svc.Resolve("%5", false); err == nil {
			t.Error("expected error for out-of-range reference")
		}
	})

	t.Run("percent with garbage does not fall through to search", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		seedDoc(t, svc, rec("a", "%foo"))

		if _, err := svc.Resolve("%foo", false); err == nil {
			t.Errorf("expected parse error for %%foo")
		}
	})

	t.Run("substring search, newest first", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		older := rec("old", "meeting notes")
		older.ModifiedTime = "2024-01-01T00:00:00Z"
		newer := rec("new", "notes on syncing")
		newer.ModifiedTime = "2024-02-01T00:00:00Z"
		seedDoc(t, svc, older)
		seedDoc(t, svc, newer)
		seedDoc(t, svc, rec("unrelated", "shopping list"))

		docs, err := svc.Resolve("notes", false)
		if err != nil {
			t.Fatalf("resolving: %v", err)
		}
		if len(docs) != 2 {
			t.Fatalf("got %d docs, want 2", len(docs))
		}
		if docs[0].ID != "new" || docs[1].ID != "old" {
			t.Errorf("got order %s, %s; want new, old", docs[0].ID, docs[1].ID)
		}
	})

	t.Run("zero matches", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})

		if _, err := svc.Resolve("nothing", false); err == nil {
			t.Error("expected error for zero matches")
		}

		docs, err := svc.Resolve("nothing", true)
		if err != nil {
			t.Fatalf("resolving with zeroOK: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("got %v, want empty", docs)
		}
	})
}

func TestResolveOne(t *testing.T) {
	t.Parallel()

	t.Run("single match", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		seedDoc(t, svc, rec("doc", "unique name"))

		doc, err := svc.ResolveOne("unique")
		if err != nil {
			t.Fatalf("resolving: %v", err)
		}
		if doc.ID != "doc" {
			t.Errorf("got %s, want doc", doc.ID)
		}
	})

	t.Run("ambiguous match caps candidates", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t, &testutil.FakeRemote{})
		for i := 0; i < 25; i++ {
			r := rec(fmt.Sprintf("doc%02d", i), fmt.Sprintf("draft %02d", i))
			r.ModifiedTime = fmt.Sprintf("2024-01-%02dT00:00:00Z", i+1)
			seedDoc(t, svc, r)
		}

		_, err := svc.ResolveOne("draft")
		var ambiguous *drive.AmbiguousSpecError
		if !errors.As(err, &ambiguous) {
			t.Fatalf("got %v, want AmbiguousSpecError", err)
		}
		if ambiguous.Total != 25 {
			t.Errorf("got total %d, want 25", ambiguous.Total)
		}
		if len(ambiguous.Candidates) != 20 {
			t.Errorf("got %d candidates, want 20", len(ambiguous.Candidates))
		}
		// Candidates are the newest matches.
		if ambiguous.Candidates[0].ID != "doc24" {
			t.Errorf("got first candidate %s, want doc24", ambiguous.Candidates[0].ID)
		}
	})
}
