package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 6, 3, 9, 10, 14, 0, time.UTC), ID: 42}
	s, err := EncodeCursor(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	if c, err := DecodeCursor(""); c != nil || err != nil {
		t.Fatalf("empty cursor should be nil, nil; got %v, %v", c, err)
	}
	for _, s := range []string{"%%%", "bm90LWpzb24", "e30"} { // garbage, "not-json", "{}"
		if _, err := DecodeCursor(s); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("DecodeCursor(%q) err = %v, want ErrInvalidCursor", s, err)
		}
	}
}

func TestMapPgError(t *testing.T) {
	if err := mapPgError(&pgconn.PgError{Code: pgUniqueViolation}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("unique violation -> %v", err)
	}
	if err := mapPgError(&pgconn.PgError{Code: pgForeignKeyViolation}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("fk violation -> %v", err)
	}
	other := errors.New("conn reset")
	if err := mapPgError(other); err != other {
		t.Fatalf("unknown errors must pass through, got %v", err)
	}
}

func TestReverse(t *testing.T) {
	ms := []domain.Message{{ID: 3}, {ID: 2}, {ID: 1}}
	reverse(ms)
	if ms[0].ID != 1 || ms[2].ID != 3 {
		t.Fatalf("reverse: %+v", ms)
	}
}

func TestNextCursor(t *testing.T) {
	t0 := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	page := []domain.Message{
		{ID: 9, CreatedAt: t0.Add(2 * time.Minute)},
		{ID: 8, CreatedAt: t0.Add(time.Minute)},
		{ID: 7, CreatedAt: t0},
	}

	if s, err := nextCursor(page, 5); err != nil || s != "" {
		t.Fatalf("short page: cursor=%q err=%v", s, err)
	}
	if s, err := nextCursor(nil, 1); err != nil || s != "" {
		t.Fatalf("empty page: cursor=%q err=%v", s, err)
	}

	s, err := nextCursor(page, 3)
	if err != nil {
		t.Fatalf("full page: %v", err)
	}
	c, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ID != 7 || !c.CreatedAt.Equal(t0) {
		t.Fatalf("cursor = %+v, want oldest row", c)
	}
}
