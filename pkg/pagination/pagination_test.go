package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(original))
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) || parsed.ID != original.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", parsed, original)
	}

	empty, err := ParseCursor("  ")
	if err != nil || empty != nil {
		t.Fatalf("blank cursor should parse to nil, got %+v err=%v", empty, err)
	}
	if _, err := ParseCursor("not-base64!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(500) != MaxLimit || NormalizeLimit(10) != 10 {
		t.Fatal("unexpected limit normalization")
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatal("expected buffer of one")
	}
}

type row struct {
	id      uuid.UUID
	created time.Time
}

func TestPage(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{id: uuid.New(), created: base.Add(3 * time.Minute)},
		{id: uuid.New(), created: base.Add(2 * time.Minute)},
		{id: uuid.New(), created: base.Add(time.Minute)},
	}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.created, ID: r.id} }

	page, next := Page(rows, 2, cursorOf)
	if len(page) != 2 || next == "" {
		t.Fatalf("expected 2 rows and a cursor, got %d %q", len(page), next)
	}
	decoded, err := ParseCursor(next)
	if err != nil || decoded.ID != rows[1].id {
		t.Fatalf("next cursor should point at last returned row, got %+v err=%v", decoded, err)
	}

	page, next = Page(rows, 5, cursorOf)
	if len(page) != 3 || next != "" {
		t.Fatalf("expected full page without cursor, got %d %q", len(page), next)
	}
}
