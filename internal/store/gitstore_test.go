package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
)

func TestGitStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewGitStore(t.TempDir(), "tester")

	if _, _, err := s.Fetch(ctx, testFilePath, "main"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first commit, got %v", err)
	}

	first := catalog.Document{
		{Group: "Chest", Items: []catalog.Exercise{{ID: "bench-press", Name: "Bench Press"}}},
	}
	token1, err := s.Commit(ctx, testFilePath, "main", first, "", "Add exercise \"Bench Press\"")
	if err != nil {
		t.Fatalf("initial commit: %v", err)
	}

	doc, token, err := s.Fetch(ctx, testFilePath, "main")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if token != token1 {
		t.Errorf("fetch token %s does not match commit token %s", token, token1)
	}
	if doc[0].Items[0].ID != "bench-press" {
		t.Errorf("unexpected document: %+v", doc)
	}

	second := catalog.Document{
		{Group: "Chest", Items: []catalog.Exercise{
			{ID: "bench-press", Name: "Bench Press"},
			{ID: "dips", Name: "Dips"},
		}},
	}
	token2, err := s.Commit(ctx, testFilePath, "main", second, token1, "Add exercise \"Dips\"")
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if token2 == token1 {
		t.Errorf("expected a new token after content change")
	}

	// Writing with the superseded token must fail and leave the
	// stored document unchanged.
	if _, err := s.Commit(ctx, testFilePath, "main", first, token1, "stale write"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	doc, token, err = s.Fetch(ctx, testFilePath, "main")
	if err != nil {
		t.Fatalf("fetch after conflict: %v", err)
	}
	if token != token2 || len(doc[0].Items) != 2 {
		t.Errorf("document changed despite conflict: token=%s doc=%+v", token, doc)
	}
}

func TestGitStoreHistory(t *testing.T) {
	ctx := context.Background()
	s := NewGitStore(t.TempDir(), "tester")

	doc := catalog.Document{
		{Group: "Legs", Items: []catalog.Exercise{{ID: "squat", Name: "Squat"}}},
	}
	token, err := s.Commit(ctx, testFilePath, "main", doc, "", "Add exercise \"Squat\"")
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}

	doc[0].Items = append(doc[0].Items, catalog.Exercise{ID: "lunge", Name: "Lunge"})
	if _, err := s.Commit(ctx, testFilePath, "main", doc, token, "Add exercise \"Lunge\""); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	revisions, err := s.History(ctx, testFilePath, "main", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(revisions) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revisions))
	}
	if revisions[0].Message != "Add exercise \"Lunge\"" {
		t.Errorf("history not newest-first: %+v", revisions)
	}
	if revisions[0].Author != "tester" {
		t.Errorf("author lost: %+v", revisions[0])
	}
}

func TestGitStoreNoOpCommit(t *testing.T) {
	ctx := context.Background()
	s := NewGitStore(t.TempDir(), "tester")

	doc := catalog.Document{
		{Group: "Back", Items: []catalog.Exercise{{ID: "row", Name: "Row"}}},
	}
	token, err := s.Commit(ctx, testFilePath, "main", doc, "", "Add exercise \"Row\"")
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}

	same, err := s.Commit(ctx, testFilePath, "main", doc, token, "no change")
	if err != nil {
		t.Fatalf("identical commit: %v", err)
	}
	if same != token {
		t.Errorf("no-op commit should keep the token: %s != %s", same, token)
	}

	revisions, err := s.History(ctx, testFilePath, "main", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(revisions) != 1 {
		t.Errorf("no-op commit must not create a revision, got %d", len(revisions))
	}
}
