package model_test

import (
	"testing"
	"time"

	"driveway/internal/model"
)

func TestDocFromRecord(t *testing.T) {
	t.Parallel()

	t.Run("full record", func(t *testing.T) {
		t.Parallel()
		doc, err := model.DocFromRecord(model.DocumentRecord{
			ID:           "abc",
			Name:         "Report",
			MimeType:     "text/plain",
			ModifiedTime: "2024-03-05T08:30:00+02:00",
			Starred:      true,
		})
		if err != nil {
			t.Fatalf("converting record: %v", err)
		}
		if doc.Name != "Report" || !doc.Starred {
			t.Errorf("fields lost: %+v", doc)
		}
		want := time.Date(2024, 3, 5, 6, 30, 0, 0, time.UTC)
		if !doc.ModifiedTime.Equal(want) || doc.ModifiedTime.Location() != time.UTC {
			t.Errorf("got modified time %v, want %v in UTC", doc.ModifiedTime, want)
		}
	})

	t.Run("missing id fails", func(t *testing.T) {
		t.Parallel()
		_, err := model.DocFromRecord(model.DocumentRecord{ModifiedTime: "2024-03-05T08:30:00Z"})
		if err == nil {
			t.Error("expected error for missing id")
		}
	})

	t.Run("missing modified time fails", func(t *testing.T) {
		t.Parallel()
		_, err := model.DocFromRecord(model.DocumentRecord{ID: "abc"})
		if err == nil {
			t.Error("expected error for missing modified time")
		}
	})

	t.Run("bad modified time fails", func(t *testing.T) {
		t.Parallel()
		_, err := model.DocFromRecord(model.DocumentRecord{ID: "abc", ModifiedTime: "yesterday"})
		if err == nil {
			t.Error("expected error for unparseable modified time")
		}
	})

	t.Run("missing name becomes placeholder", func(t *testing.T) {
		t.Parallel()
		doc, err := model.DocFromRecord(model.DocumentRecord{ID: "abc", ModifiedTime: "2024-03-05T08:30:00Z"})
		if err != nil {
			t.Fatalf("converting record: %v", err)
		}
		if doc.Name != "???" {
			t.Errorf("got name %q, want placeholder", doc.Name)
		}
	})
}

func TestIsFolder(t *testing.T) {
	t.Parallel()

	if !(model.Doc{MimeType: model.FolderMimeType}).IsFolder() {
		t.Error("folder MIME type not recognized")
	}
	if (model.Doc{MimeType: "text/plain"}).IsFolder() {
		t.Error("text file treated as folder")
	}
}

func TestOpenURL(t *testing.T) {
	t.Parallel()

	doc := model.Doc{ID: "a b&c"}
	got := doc.OpenURL()
	want := "https://drive.google.com/open?id=a+b%26c"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
