package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
	"github.com/Quicexo28/Fitracker-editor/internal/config"
	"github.com/Quicexo28/Fitracker-editor/internal/store"
)

type contentStore interface {
	Fetch(ctx context.Context, path, branch string) (catalog.Document, string, error)
	Commit(ctx context.Context, path, branch string, doc catalog.Document, expectedToken, message string) (string, error)
	History(ctx context.Context, path, branch string, limit int) ([]store.Revision, error)
	Ping(ctx context.Context) error
}

type imageUploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}

// Service orchestrates one edit request: re-read the live document,
// check the version token, validate the submitted tree, merge and
// commit. No document state survives between requests.
type Service struct {
	cfg    config.Config
	store  contentStore
	media  imageUploader
	locale language.Tag
}

func New(cfg config.Config, contentStore contentStore, media imageUploader) *Service {
	return &Service{
		cfg:    cfg,
		store:  contentStore,
		media:  media,
		locale: catalog.ParseLocale(cfg.Locale),
	}
}

// Submission is one parsed write request.
type Submission struct {
	EditMode   bool
	OriginalID string
	FileSHA    string
	Group      string
	Exercise   catalog.FormNode
}

// LoadCatalog returns the current document and its version token. A
// missing file reads as an empty catalog with an empty token, so the
// first save creates the file.
func (s *Service) LoadCatalog(ctx context.Context) (catalog.Document, string, error) {
	doc, token, err := s.store.Fetch(ctx, s.cfg.FilePath, s.cfg.Branch)
	if errors.Is(err, store.ErrNotFound) {
		return catalog.Document{}, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		doc = catalog.Document{}
	}
	return doc, token, nil
}

// SaveExercise runs the full write protocol and returns the new
// version token. The commit is the only side-effecting step and only
// happens after validation succeeds in full.
func (s *Service) SaveExercise(ctx context.Context, sub Submission) (string, error) {
	group := strings.TrimSpace(sub.Group)
	if group == "" {
		return "", &catalog.ValidationError{Code: catalog.CodeEmptyName, Message: "group name is required"}
	}

	doc, liveToken, err := s.LoadCatalog(ctx)
	if err != nil {
		return "", err
	}

	// Reject before validating: if the document moved on since the
	// form was loaded, nothing about this submission can be trusted.
	if liveToken != sub.FileSHA {
		return "", fmt.Errorf("%w: the catalog changed since the form was loaded", store.ErrConflict)
	}

	seen := map[string]struct{}{}
	doc.CollectIDs(seen)

	originalID := strings.TrimSpace(sub.OriginalID)
	if sub.EditMode {
		// The entry being replaced does not count against itself:
		// every id of its subtree is excluded, at all levels.
		if gi, ii, ok := doc.FindExercise(originalID); ok {
			own := map[string]struct{}{}
			doc[gi].Items[ii].CollectIDs(own)
			for id := range own {
				delete(seen, id)
			}
		}
	}

	exercise, err := catalog.NormalizeExercise(sub.Exercise, seen)
	if err != nil {
		return "", err
	}

	collator := catalog.NewCollator(s.locale)
	next, err := catalog.Apply(doc, catalog.Intent{
		Edit:       sub.EditMode,
		OriginalID: originalID,
		GroupName:  group,
		Exercise:   exercise,
	}, collator)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Add exercise %q", exercise.Name)
	if sub.EditMode {
		message = fmt.Sprintf("Update exercise %q", exercise.Name)
	}
	return s.store.Commit(ctx, s.cfg.FilePath, s.cfg.Branch, next, liveToken, message)
}

// History lists recent revisions of the catalog file.
func (s *Service) History(ctx context.Context, limit int) ([]store.Revision, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	revisions, err := s.store.History(ctx, s.cfg.FilePath, s.cfg.Branch, limit)
	if errors.Is(err, store.ErrNotFound) {
		return []store.Revision{}, nil
	}
	return revisions, err
}

// UploadImage stores one image and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	if s.media == nil {
		return "", domainError(http.StatusServiceUnavailable, "MEDIA_DISABLED", "image storage is not configured")
	}
	return s.media.Upload(ctx, filename, contentType, r, size)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
