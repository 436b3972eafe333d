package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
)

// GitStore keeps the catalog in a plain git repository on disk. It is
// the offline/dev backend: same token semantics as the GitHub backend
// (git blob sha of the file), one commit per successful save.
type GitStore struct {
	dir    string
	author string
	mu     sync.Mutex
}

func NewGitStore(dir, author string) *GitStore {
	if author == "" {
		author = "fitracker-editor"
	}
	return &GitStore{dir: dir, author: author}
}

func (s *GitStore) Fetch(ctx context.Context, path, branch string) (catalog.Document, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open repo: %w", err)
	}

	file, err := fileAtBranch(repo, branch, path)
	if err != nil {
		return nil, "", err
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := DecodeDocument([]byte(contents))
	if err != nil {
		return nil, "", err
	}
	return doc, file.Hash.String(), nil
}

func (s *GitStore) Commit(ctx context.Context, path, branch string, doc catalog.Document, expectedToken, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := MarshalDocument(doc)
	if err != nil {
		return "", err
	}

	repo, created, err := s.openOrInit()
	if err != nil {
		return "", err
	}

	current := ""
	if !created {
		if file, err := fileAtBranch(repo, branch, path); err == nil {
			current = file.Hash.String()
		} else if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	if current != expectedToken {
		return "", fmt.Errorf("%w: expected %s, store has %s", ErrConflict, shortToken(expectedToken), shortToken(current))
	}

	newToken := BlobSHA(payload)
	if newToken == current {
		// Nothing changed; skip the empty commit.
		return current, nil
	}

	if !created {
		if err := checkoutBranch(repo, branch); err != nil {
			return "", err
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}

	target := filepath.Join(s.dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create content dir: %w", err)
	}
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := worktree.Add(path); err != nil {
		return "", fmt.Errorf("git add %s: %w", path, err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.author,
			Email: fmt.Sprintf("%s@local.fitracker.dev", s.author),
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit %s: %w", path, err)
	}

	if created {
		// A fresh init commits onto the unborn default branch; point
		// the configured branch and HEAD at the new commit.
		branchRef := plumbing.NewBranchReferenceName(branch)
		if err := repo.Storer.SetReference(plumbing.NewHashReference(branchRef, hash)); err != nil {
			return "", fmt.Errorf("set branch ref: %w", err)
		}
		if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)); err != nil {
			return "", fmt.Errorf("set HEAD: %w", err)
		}
	}
	return newToken, nil
}

func (s *GitStore) History(ctx context.Context, path, branch string, limit int) ([]Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	revisions := make([]Revision, 0, limit)
	err = iter.ForEach(func(commitObj *object.Commit) error {
		revisions = append(revisions, Revision{
			SHA:       commitObj.Hash.String(),
			Message:   commitObj.Message,
			Author:    commitObj.Author.Name,
			CreatedAt: commitObj.Author.When,
		})
		if limit > 0 && len(revisions) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return revisions, nil
}

func (s *GitStore) Ping(ctx context.Context) error {
	_, err := git.PlainOpen(s.dir)
	if err != nil && !errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("open repo: %w", err)
	}
	return nil
}

func (s *GitStore) openOrInit() (*git.Repository, bool, error) {
	repo, err := git.PlainOpen(s.dir)
	if err == nil {
		return repo, false, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, false, fmt.Errorf("open repo: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(s.dir, false)
	if err != nil {
		return nil, false, fmt.Errorf("init repo: %w", err)
	}
	return repo, true, nil
}

func fileAtBranch(repo *git.Repository, branch, path string) (*object.File, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("load commit object: %w", err)
	}
	file, err := commitObj.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %s from commit: %w", path, err)
	}
	return file, nil
}

func checkoutBranch(repo *git.Repository, branch string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(branchRef, true); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			if err := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Create: true}); err != nil {
				return fmt.Errorf("create branch checkout %s: %w", branch, err)
			}
			return nil
		}
		return fmt.Errorf("resolve branch %s: %w", branch, err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		return fmt.Errorf("checkout branch %s: %w", branch, err)
	}
	return nil
}

func shortToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) > 7 {
		return token[:7]
	}
	return token
}
