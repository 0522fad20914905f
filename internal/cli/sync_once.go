package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/syncstore"
	"github.com/foliolib/folio/internal/quota"
	"github.com/foliolib/folio/internal/scheduler"
	"github.com/foliolib/folio/internal/syncclient"
)

// SyncCommand runs a single pull/merge/push cycle against a sync server
// using the local database as the replica.
type SyncCommand struct {
	ServerURL    string
	Token        string
	UserID       string
	DatabasePath string
	LedgerURL    string
}

func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.ServerURL, "server", "", "Sync server base URL (required)")
	fs.StringVar(&cmd.Token, "token", os.Getenv("SYNC_TOKEN"), "Access token (default: SYNC_TOKEN env var)")
	fs.StringVar(&cmd.UserID, "user", os.Getenv("SYNC_USER_ID"), "Replica user identity (default: SYNC_USER_ID env var)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local replica database")
	fs.StringVar(&cmd.LedgerURL, "ledger", os.Getenv("QUOTA_LEDGER_URL"), "Usage ledger base URL for storage reporting (default: QUOTA_LEDGER_URL env var)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync -server <url> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run one pull/merge/push cycle against a sync server.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ServerURL == "" {
		return fmt.Errorf("required flag -server not provided")
	}
	if cmd.Token == "" {
		return fmt.Errorf("no access token: pass -token or set SYNC_TOKEN")
	}
	if cmd.UserID == "" {
		return fmt.Errorf("no user identity: pass -user or set SYNC_USER_ID")
	}

	return nil
}

func (cmd *SyncCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	tokens := func(context.Context) (string, error) {
		return cmd.Token, nil
	}
	client := syncclient.NewClient(cmd.ServerURL, tokens)
	if cmd.LedgerURL != "" {
		client = client.WithUsageTracker(quota.NewTracker(cmd.LedgerURL, quota.TokenSource(tokens)))
	}
	store := scheduler.NewReplicaStore(syncstore.NewRepository(db.DB), cmd.UserID)

	loop := scheduler.NewSyncLoop(client, store, "* * * * *")
	loop.RunCycle(context.Background())

	fmt.Printf("Sync cycle finished (watermark: %d)\n", loop.LastSyncedAt())
	return nil
}
