package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"truststack/api/internal/app"
	"truststack/api/internal/authpw"
	"truststack/api/internal/config"
	"truststack/api/internal/evidence"
	"truststack/api/internal/export"
	"truststack/api/internal/mapping"
	"truststack/api/internal/packs"
	"truststack/api/internal/search"
	"truststack/api/internal/session"
	"truststack/api/internal/snapshot"
	"truststack/api/internal/store"
	"truststack/api/internal/taxonomy"
)

type evidenceBackend interface {
	Save(ctx context.Context, projectID, itemID, filename string, data []byte) (store.EvidenceFile, error)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.SnapshotsDir, 0o755); err != nil {
		log.Fatalf("failed to create snapshots dir: %v", err)
	}

	catalog, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		log.Fatalf("taxonomy load failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	accounts := authpw.NewService(dataStore)
	loader := packs.NewLoader(cfg.PacksDir)
	generator := mapping.NewGenerator(cfg.GeneratorVersion)
	snapshots := snapshot.New(cfg.SnapshotsDir)
	exporter := export.NewService()

	var evidenceStore evidenceBackend
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		log.Printf("Using MinIO for evidence storage")
		minioStore, err := evidence.NewMinioStore(ctx, evidence.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
		evidenceStore = minioStore
	} else {
		log.Printf("Using local disk for evidence storage")
		if err := os.MkdirAll(cfg.EvidenceDir, 0o755); err != nil {
			log.Fatalf("failed to create evidence dir: %v", err)
		}
		evidenceStore = evidence.NewFSStore(cfg.EvidenceDir)
	}

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		searchService.ReindexAllFromPG(ctx)
	}

	redisStore, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisStore.Close()

	service := app.New(cfg, dataStore, accounts, redisStore, catalog, loader, generator, evidenceStore, snapshots, searchService, exporter)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("TrustStack API listening on %s", cfg.Addr)
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
