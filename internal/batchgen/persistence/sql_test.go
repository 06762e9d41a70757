package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStore_RoundTrip(t *testing.T) {
	s := openTestSQLStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "alice", []byte(`{"1": 1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(b) != `{"1": 1}` {
		t.Fatalf("Get returned %q", b)
	}
}

func TestSQLStore_UpsertReplaces(t *testing.T) {
	s := openTestSQLStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "s", []byte("v1")); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	if err := s.Put(ctx, "s", []byte("v2")); err != nil {
		t.Fatalf("Put v2: %v", err)
	}
	b, err := s.Get(ctx, "s")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(b) != "v2" {
		t.Fatalf("expected v2, got %q", b)
	}
}

func TestSQLStore_Missing(t *testing.T) {
	s := openTestSQLStore(t)
	if _, err := s.Get(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLStore_DeleteIdempotent(t *testing.T) {
	s := openTestSQLStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, "s", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "s"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "s"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := s.Get(ctx, "s"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLStore_SeparateSessions(t *testing.T) {
	s := openTestSQLStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, "a", []byte("A")); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := s.Put(ctx, "b", []byte("B")); err != nil {
		t.Fatalf("Put b: %v", err)
	}
	if b, _ := s.Get(ctx, "a"); string(b) != "A" {
		t.Fatalf("session a returned %q", b)
	}
	if b, _ := s.Get(ctx, "b"); string(b) != "B" {
		t.Fatalf("session b returned %q", b)
	}
}

func TestNewSQLStore_NilDB(t *testing.T) {
	if _, err := NewSQLStore(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}
