// Package store persists the exercise catalog as one JSON document in
// a version-controlled content store. Every backend speaks the same
// optimistic-concurrency contract: reads return the document together
// with a version token, and a write only applies when the store still
// holds the token the writer presents.
package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
)

var (
	// ErrNotFound means the path/branch does not exist in the store.
	ErrNotFound = errors.New("document not found")
	// ErrConflict means the store's current token no longer matches
	// the token the writer read: someone else wrote first.
	ErrConflict = errors.New("version conflict")
	// ErrUnauthorized means the store rejected the credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDecode means the stored bytes are not a valid catalog
	// document.
	ErrDecode = errors.New("document decode failed")
)

// Revision is one entry of the store's history for the catalog file.
type Revision struct {
	SHA       string    `json:"sha"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentStore is the document store adapter contract.
type ContentStore interface {
	// Fetch returns the current document and its version token.
	Fetch(ctx context.Context, path, branch string) (catalog.Document, string, error)
	// Commit writes the document conditioned on expectedToken and
	// returns the new token. An empty expectedToken means the file is
	// being created.
	Commit(ctx context.Context, path, branch string, doc catalog.Document, expectedToken, message string) (string, error)
	// History lists recent revisions of the file, newest first.
	History(ctx context.Context, path, branch string, limit int) ([]Revision, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// MarshalDocument serializes the catalog in the durable on-disk shape:
// a 2-space indented JSON array of groups with a trailing newline.
// Other consumers read this file, so the shape is a contract.
func MarshalDocument(doc catalog.Document) ([]byte, error) {
	if doc == nil {
		doc = catalog.Document{}
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(payload, '\n'), nil
}

// DecodeDocument parses stored bytes back into a document.
func DecodeDocument(data []byte) (catalog.Document, error) {
	var doc catalog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return doc, nil
}

// BlobSHA computes the git blob hash of file content. All backends use
// it as the version token so tokens agree with GitHub's file sha.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
