package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
)

const defaultAPIBase = "https://api.github.com"

// GitHub persists the catalog through the GitHub contents API. The
// file sha returned by the API is the version token; a PUT carrying a
// stale sha is rejected by GitHub with 409, which surfaces here as
// ErrConflict.
type GitHub struct {
	httpClient *http.Client
	baseURL    string
	token      string
	owner      string
	repo       string
}

func NewGitHub(owner, repo, token string) *GitHub {
	return &GitHub{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultAPIBase,
		token:      token,
		owner:      owner,
		repo:       repo,
	}
}

type githubContent struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (g *GitHub) Fetch(ctx context.Context, path, branch string) (catalog.Document, string, error) {
	endpoint := fmt.Sprintf("%s?ref=%s", g.contentsURL(path), url.QueryEscape(branch))
	resp, err := g.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, "", err
	}

	var content githubContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, "", fmt.Errorf("decode contents response: %w", err)
	}
	if content.Encoding != "base64" {
		return nil, "", fmt.Errorf("unexpected content encoding %q", content.Encoding)
	}
	raw, err := base64.StdEncoding.DecodeString(stripWhitespace(content.Content))
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 content: %w", err)
	}

	doc, err := DecodeDocument(raw)
	if err != nil {
		return nil, "", err
	}
	return doc, content.SHA, nil
}

func (g *GitHub) Commit(ctx context.Context, path, branch string, doc catalog.Document, expectedToken, message string) (string, error) {
	payload, err := MarshalDocument(doc)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(payload),
		"branch":  branch,
	}
	if expectedToken != "" {
		body["sha"] = expectedToken
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal commit request: %w", err)
	}

	resp, err := g.do(ctx, http.MethodPut, g.contentsURL(path), bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}

	var result struct {
		Content githubContent `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode commit response: %w", err)
	}
	return result.Content.SHA, nil
}

func (g *GitHub) History(ctx context.Context, path, branch string, limit int) ([]Revision, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?path=%s&sha=%s&per_page=%d",
		g.baseURL, g.owner, g.repo, url.QueryEscape(path), url.QueryEscape(branch), limit)
	resp, err := g.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var commits []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return nil, fmt.Errorf("decode commits response: %w", err)
	}

	revisions := make([]Revision, 0, len(commits))
	for _, c := range commits {
		revisions = append(revisions, Revision{
			SHA:       c.SHA,
			Message:   c.Commit.Message,
			Author:    c.Commit.Author.Name,
			CreatedAt: c.Commit.Author.Date,
		})
	}
	return revisions, nil
}

func (g *GitHub) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", g.baseURL, g.owner, g.repo)
	resp, err := g.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.StatusOK)
}

func (g *GitHub) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.baseURL, g.owner, g.repo, escapePath(path))
}

func (g *GitHub) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, allowed ...int) error {
	for _, status := range allowed {
		if resp.StatusCode == status {
			return nil
		}
	}
	detail := readErrorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case http.StatusUnprocessableEntity:
		// GitHub reports a mismatched sha on PUT as 422 in some API
		// versions.
		if strings.Contains(strings.ToLower(detail), "sha") {
			return fmt.Errorf("%w: %s", ErrConflict, detail)
		}
		return fmt.Errorf("github rejected request: %s", detail)
	default:
		return fmt.Errorf("github returned %d: %s", resp.StatusCode, detail)
	}
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(raw))
}

// escapePath escapes each path segment while keeping separators.
func escapePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
}
