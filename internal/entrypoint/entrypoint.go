package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/syncstore"
	http_controllers "github.com/foliolib/folio/internal/http"
	"github.com/foliolib/folio/internal/quota"
	"github.com/foliolib/folio/internal/scheduler"
	"github.com/foliolib/folio/internal/syncclient"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Folio v%s", version)

	if cfg.Auth.Secret == "" {
		log.Fatalf("AUTH_SECRET is not set. The sync endpoints require an HMAC secret to verify Bearer tokens.")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Optional background sync against an upstream server, with the
	// local database as the replica.
	var syncLoop *scheduler.SyncLoop
	if cfg.Sync.Enabled {
		switch {
		case cfg.Sync.ServerURL == "":
			log.Printf("WARNING: SYNC_ENABLED is set but SYNC_SERVER_URL is empty, background sync disabled")
		case cfg.Sync.Token == "":
			log.Printf("WARNING: SYNC_ENABLED is set but SYNC_TOKEN is empty, background sync disabled")
		case cfg.Sync.UserID == "":
			log.Printf("WARNING: SYNC_ENABLED is set but SYNC_USER_ID is empty, background sync disabled")
		default:
			tokens := func(context.Context) (string, error) {
				return cfg.Sync.Token, nil
			}
			client := syncclient.NewClient(cfg.Sync.ServerURL, tokens)
			if cfg.Quota.LedgerURL != "" {
				client = client.WithUsageTracker(quota.NewTracker(cfg.Quota.LedgerURL, quota.TokenSource(tokens)))
			}
			store := scheduler.NewReplicaStore(syncstore.NewRepository(db.DB), cfg.Sync.UserID)
			syncLoop = scheduler.NewSyncLoop(client, store, cfg.Sync.Schedule)
			if err := syncLoop.Start(context.Background()); err != nil {
				log.Fatalf("Failed to start sync loop: %v", err)
			}
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		DB:         db,
		AuthSecret: []byte(cfg.Auth.Secret),
		Version:    version,
	})

	onShutdown := func(ctx context.Context) {
		if syncLoop != nil {
			syncLoop.Stop()
		}
	}

	Serve(router, cfg, onShutdown)
}
