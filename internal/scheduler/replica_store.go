package scheduler

import (
	"context"
	"sync"

	"github.com/foliolib/folio/internal/database/syncstore"
	"github.com/foliolib/folio/internal/entities"
)

// ReplicaStore backs a sync loop with a local SQLite database. Local
// edits land in the same store through syncstore's merge rules, and the
// store keeps a push watermark so each record stops being offered
// upstream once the server has echoed it back.
//
// The watermark only moves on push echoes, never on pull application: a
// pulled record can carry a timestamp newer than an older local edit,
// and advancing on pulls would hide that edit from PendingChanges for
// good. The cost is that a pulled record is offered upstream once more
// on the next cycle; the server's merge treats it as a no-op.
type ReplicaStore struct {
	repo   *syncstore.Repository
	userID string

	mu       sync.Mutex
	pushedAt int64
}

func NewReplicaStore(repo *syncstore.Repository, userID string) *ReplicaStore {
	return &ReplicaStore{repo: repo, userID: userID}
}

// PendingChanges returns local records modified after the last
// acknowledged push.
func (r *ReplicaStore) PendingChanges(ctx context.Context) (*entities.SyncData, error) {
	r.mu.Lock()
	since := r.pushedAt
	r.mu.Unlock()

	result, err := r.repo.PullSince(r.userID, since, syncstore.PullFilter{})
	if err != nil {
		return nil, err
	}
	return &entities.SyncData{
		Books:   result.Books,
		Notes:   result.Notes,
		Configs: result.Configs,
	}, nil
}

// ApplyRemote merges pulled server records into the local store.
func (r *ReplicaStore) ApplyRemote(ctx context.Context, result *entities.SyncResult) error {
	return r.merge(result)
}

// MarkPushed merges the server's push response into the local store and
// moves the push watermark past the echoed records, so losers of the
// merge converge locally and winners stop being re-offered.
func (r *ReplicaStore) MarkPushed(ctx context.Context, result *entities.SyncResult) error {
	if err := r.merge(result); err != nil {
		return err
	}

	newest := newestTimestamp(result)
	r.mu.Lock()
	if newest > r.pushedAt {
		r.pushedAt = newest
	}
	r.mu.Unlock()
	return nil
}

func (r *ReplicaStore) merge(result *entities.SyncResult) error {
	if result == nil {
		return nil
	}
	data := &entities.SyncData{
		Books:   result.Books,
		Notes:   result.Notes,
		Configs: result.Configs,
	}
	_, err := r.repo.Push(r.userID, data)
	return err
}
