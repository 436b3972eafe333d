package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Quicexo28/Fitracker-editor/internal/auth"
	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
	"github.com/Quicexo28/Fitracker-editor/internal/store"
)

const maxImageSize = 10 << 20

type HTTPServer struct {
	service    *Service
	cred       *auth.Credential
	corsOrigin string
}

func NewHTTPServer(service *Service, cred *auth.Credential, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, cred: cred, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"store": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/exercises" {
		s.handleGetExercises(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/exercises" {
		if !s.requireAuth(w, r) {
			return
		}
		s.handleSaveExercise(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/history" {
		if !s.requireAuth(w, r) {
			return
		}
		s.handleHistory(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/images" {
		if !s.requireAuth(w, r) {
			return
		}
		s.handleUploadImage(w, r)
		return
	}

	if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/static/") {
		staticHandler().ServeHTTP(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/" {
		s.renderPage(w, "index", nil)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleGetExercises(w http.ResponseWriter, r *http.Request) {
	doc, sha, err := s.service.LoadCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LOAD_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exercises": doc,
		"sha":       sha,
	})
}

func (s *HTTPServer) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderFragment(w, http.StatusBadRequest, "save_error", fragmentData{Message: "could not parse form submission"})
		return
	}

	editMode := r.PostFormValue("editMode") == "true"
	originalID := strings.TrimSpace(r.PostFormValue("originalBaseId"))
	if editMode && originalID == "" {
		s.renderFragment(w, http.StatusBadRequest, "save_error", fragmentData{Message: "originalBaseId is required when editing"})
		return
	}

	variations, err := parseVariations(r.PostForm)
	if err != nil {
		s.renderFragment(w, http.StatusBadRequest, "save_error", fragmentData{Message: err.Error()})
		return
	}

	token, err := s.service.SaveExercise(r.Context(), Submission{
		EditMode:   editMode,
		OriginalID: originalID,
		FileSHA:    r.PostFormValue("fileSha"),
		Group:      r.PostFormValue("group"),
		Exercise: catalog.FormNode{
			ID:       r.PostFormValue("baseId"),
			Name:     r.PostFormValue("baseName"),
			Children: variations,
		},
	})

	var validation *catalog.ValidationError
	switch {
	case errors.As(err, &validation):
		s.renderFragment(w, http.StatusBadRequest, "save_error", fragmentData{Message: validation.Message})
	case errors.Is(err, store.ErrConflict):
		s.renderFragment(w, http.StatusConflict, "save_conflict", fragmentData{})
	case errors.Is(err, catalog.ErrExerciseNotFound):
		s.renderFragment(w, http.StatusBadRequest, "save_error", fragmentData{
			Message: "the exercise being edited no longer exists; reload the catalog and try again",
		})
	case err != nil:
		s.renderFragment(w, http.StatusInternalServerError, "save_error", fragmentData{Message: err.Error()})
	default:
		name := strings.TrimSpace(r.PostFormValue("baseName"))
		s.renderFragment(w, http.StatusOK, "save_success", fragmentData{Message: name, SHA: token})
	}
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer")
			return
		}
		limit = parsed
	}
	revisions, err := s.service.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "HISTORY_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": revisions})
}

func (s *HTTPServer) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "could not parse upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "image field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "only image uploads are accepted")
		return
	}

	url, err := s.service.UploadImage(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		var domain *DomainError
		if errors.As(err, &domain) {
			writeError(w, domain.Status, domain.Code, domain.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": url})
}

func (s *HTTPServer) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	if !s.cred.Enabled() {
		return true
	}
	_, password, ok := r.BasicAuth()
	if !ok || !s.cred.Match(password) {
		w.Header().Set("WWW-Authenticate", `Basic realm="fitracker-editor"`)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return false
	}
	return true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, origin string) {
	if origin == "" {
		return
	}
	header.Set("Access-Control-Allow-Origin", origin)
	header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":  code,
		"error": message,
	})
}
