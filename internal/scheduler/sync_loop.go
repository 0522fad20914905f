package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/syncclient"
)

// Store is the local side of a sync cycle: it hands out records that
// still need pushing and absorbs whatever the server returns. Pulled
// records and push echoes arrive through different methods because only
// a push echo proves a record reached the server; treating pulled
// records as pushed would let a newer pulled timestamp mask older local
// edits forever.
type Store interface {
	PendingChanges(ctx context.Context) (*entities.SyncData, error)
	ApplyRemote(ctx context.Context, result *entities.SyncResult) error
	MarkPushed(ctx context.Context, result *entities.SyncResult) error
}

// SyncLoop runs periodic pull/merge/push cycles against a sync server.
// Cycles never overlap; a tick that fires while a cycle is still in
// flight is skipped. Failed cycles are logged and left for the next
// tick, there is no in-loop retry.
type SyncLoop struct {
	client   *syncclient.Client
	store    Store
	schedule string

	cron    *cron.Cron
	entryID cron.EntryID

	mu           sync.RWMutex
	isRunning    bool
	isSyncing    bool
	lastSyncedAt int64
	cancelFunc   context.CancelFunc
}

// NewSyncLoop creates a sync loop with a standard five-field cron
// schedule.
func NewSyncLoop(client *syncclient.Client, store Store, schedule string) *SyncLoop {
	return &SyncLoop{
		client:   client,
		store:    store,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins scheduling sync cycles.
func (s *SyncLoop) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunCycle(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Sync loop: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops scheduling and waits for a running cycle to finish.
func (s *SyncLoop) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Sync loop: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *SyncLoop) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a cycle is currently in flight.
func (s *SyncLoop) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// LastSyncedAt returns the watermark of the newest record pulled from
// the server, in Unix milliseconds. Zero until a cycle first pulls
// something.
func (s *SyncLoop) LastSyncedAt() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncedAt
}

// NextRunTime returns when the next cycle will fire, or nil when the
// loop is stopped.
func (s *SyncLoop) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunCycle performs one pull/merge/push cycle. It returns without doing
// anything when another cycle is already running.
func (s *SyncLoop) RunCycle(ctx context.Context) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Sync loop: cycle skipped (already syncing)")
		return
	}
	s.isSyncing = true
	since := s.lastSyncedAt
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	start := time.Now()

	pulled, err := s.client.PullChanges(ctx, since, "", "", "")
	if err != nil {
		log.Printf("Sync loop: pull failed: %v", err)
		return
	}
	if err := s.store.ApplyRemote(ctx, pulled); err != nil {
		log.Printf("Sync loop: failed to apply pulled records: %v", err)
		return
	}

	pending, err := s.store.PendingChanges(ctx)
	if err != nil {
		log.Printf("Sync loop: failed to collect pending records: %v", err)
		return
	}

	var pushedCount int
	if !isEmpty(pending) {
		pushed, err := s.client.PushChanges(ctx, pending)
		if err != nil {
			log.Printf("Sync loop: push failed: %v", err)
			return
		}
		if err := s.store.MarkPushed(ctx, pushed); err != nil {
			log.Printf("Sync loop: failed to apply push response: %v", err)
			return
		}
		pushedCount = recordCount(pushed)
	}
	// The pull watermark only advances on pulled records. Push echoes may
	// carry timestamps newer than concurrent pushes from other devices;
	// advancing past those would skip them on the next pull.
	s.advanceWatermark(pulled)

	log.Printf("Sync loop: cycle done in %v (pulled %d, pushed %d records)",
		time.Since(start).Round(time.Millisecond), recordCount(pulled), pushedCount)
}

// advanceWatermark moves lastSyncedAt forward to the newest updated_at
// in the result. It never moves backwards.
func (s *SyncLoop) advanceWatermark(result *entities.SyncResult) {
	newest := newestTimestamp(result)

	s.mu.Lock()
	if newest > s.lastSyncedAt {
		s.lastSyncedAt = newest
	}
	s.mu.Unlock()
}

func newestTimestamp(result *entities.SyncResult) int64 {
	var newest int64
	for _, b := range result.Books {
		if b.UpdatedAt > newest {
			newest = b.UpdatedAt
		}
	}
	for _, c := range result.Configs {
		if c.UpdatedAt > newest {
			newest = c.UpdatedAt
		}
	}
	for _, n := range result.Notes {
		if n.UpdatedAt > newest {
			newest = n.UpdatedAt
		}
	}
	return newest
}

func isEmpty(data *entities.SyncData) bool {
	return data == nil || (len(data.Books) == 0 && len(data.Configs) == 0 && len(data.Notes) == 0)
}

func recordCount(result *entities.SyncResult) int {
	return len(result.Books) + len(result.Configs) + len(result.Notes)
}
