package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Quicexo28/Fitracker-editor/internal/app"
	"github.com/Quicexo28/Fitracker-editor/internal/auth"
	"github.com/Quicexo28/Fitracker-editor/internal/config"
	"github.com/Quicexo28/Fitracker-editor/internal/media"
	"github.com/Quicexo28/Fitracker-editor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration failed: %v", err)
	}
	ctx := context.Background()

	contentStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store setup failed: %v", err)
	}

	var uploader *media.Service
	if cfg.S3Endpoint != "" {
		uploader, err = media.New(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicBaseURL, cfg.S3UseSSL)
		if err != nil {
			log.Fatalf("object storage setup failed: %v", err)
		}
		if err := uploader.EnsureBucket(ctx); err != nil {
			log.Printf("WARNING: could not ensure image bucket (uploads may fail): %v", err)
		}
	}

	cred := auth.NewCredential(cfg.EditorPasswordHash, cfg.EditorPassword)
	if !cred.Enabled() {
		log.Printf("WARNING: no editor credential configured; write endpoints are unauthenticated")
	}

	var service *app.Service
	if uploader != nil {
		service = app.New(cfg, contentStore, uploader)
	} else {
		service = app.New(cfg, contentStore, nil)
	}

	httpServer := app.NewHTTPServer(service, cred, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Fitracker editor listening on %s (store=%s, file=%s, branch=%s)",
			cfg.Addr, cfg.StoreBackend, cfg.FilePath, cfg.Branch)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (store.ContentStore, error) {
	switch cfg.StoreBackend {
	case "git":
		return store.NewGitStore(cfg.RepoDir, cfg.CommitAuthor), nil
	case "postgres":
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(db, cfg.CommitAuthor)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	default:
		if cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
			log.Printf("WARNING: GITHUB_OWNER/GITHUB_REPO not set; falling back to the local git store at %s", cfg.RepoDir)
			return store.NewGitStore(cfg.RepoDir, cfg.CommitAuthor), nil
		}
		return store.NewGitHub(cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubToken), nil
	}
}
