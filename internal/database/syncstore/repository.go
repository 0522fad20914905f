// Package syncstore implements the server side of the sync protocol:
// incremental since-queries and last-writer-wins merge per record.
//
// Merge rules: the record with the later updated_at wins; equal
// timestamps keep the stored record, so re-pushing an already-merged
// record is a no-op. Deletions are tombstones: deleted_at is only ever
// written when the incoming value is non-null, and tombstoned records
// keep flowing through pulls so every replica converges.
package syncstore

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliolib/folio/internal/entities"
)

// Repository handles sync reads and merges for all three collections.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PullFilter narrows a pull to one collection and optionally one book.
type PullFilter struct {
	Type     string // "books", "configs", "notes" or "" for all
	BookHash string
	MetaHash string
}

// PullSince returns the user's records modified strictly after since
// (Unix milliseconds), ordered by updated_at. Collections excluded by
// the filter stay nil in the result.
func (r *Repository) PullSince(userID string, since int64, filter PullFilter) (*entities.SyncResult, error) {
	result := &entities.SyncResult{}

	wants := func(typ string) bool {
		return filter.Type == "" || filter.Type == typ
	}

	if wants("books") {
		q := r.scoped(userID, since, filter)
		if err := q.Order("updated_at").Find(&result.Books).Error; err != nil {
			return nil, fmt.Errorf("pull books: %w", err)
		}
	}
	if wants("configs") {
		q := r.scoped(userID, since, filter)
		if err := q.Order("updated_at").Find(&result.Configs).Error; err != nil {
			return nil, fmt.Errorf("pull configs: %w", err)
		}
	}
	if wants("notes") {
		q := r.scoped(userID, since, filter)
		if err := q.Order("updated_at").Find(&result.Notes).Error; err != nil {
			return nil, fmt.Errorf("pull notes: %w", err)
		}
	}
	return result, nil
}

func (r *Repository) scoped(userID string, since int64, filter PullFilter) *gorm.DB {
	q := r.db.Where("user_id = ? AND updated_at > ?", userID, since)
	if filter.BookHash != "" {
		q = q.Where("book_hash = ?", filter.BookHash)
	}
	if filter.MetaHash != "" {
		q = q.Where("meta_hash = ?", filter.MetaHash)
	}
	return q
}

// Push merges the client's dirty records and returns the server's view
// of each affected record after the merge. The whole push is one
// transaction: any failure aborts it with no partial application.
func (r *Repository) Push(userID string, data *entities.SyncData) (*entities.SyncResult, error) {
	result := &entities.SyncResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, book := range data.Books {
			merged, err := mergeBook(tx, userID, book)
			if err != nil {
				return err
			}
			result.Books = append(result.Books, *merged)
		}
		for _, config := range data.Configs {
			merged, err := mergeConfig(tx, userID, config)
			if err != nil {
				return err
			}
			result.Configs = append(result.Configs, *merged)
		}
		for _, note := range data.Notes {
			merged, err := mergeNote(tx, userID, note)
			if err != nil {
				return err
			}
			result.Notes = append(result.Notes, *merged)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func mergeBook(tx *gorm.DB, userID string, incoming entities.Book) (*entities.Book, error) {
	var existing entities.Book
	err := tx.Where("user_id = ? AND book_hash = ?", userID, incoming.BookHash).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		incoming.ID = 0
		incoming.UserID = userID
		if err := tx.Create(&incoming).Error; err != nil {
			return nil, fmt.Errorf("create book %s: %w", incoming.BookHash, err)
		}
		return &incoming, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", incoming.BookHash, err)
	}

	if incoming.UpdatedAt <= existing.UpdatedAt {
		return &existing, nil
	}

	incoming.ID = existing.ID
	incoming.UserID = userID
	if incoming.CreatedAt == 0 {
		incoming.CreatedAt = existing.CreatedAt
	}
	if incoming.DeletedAt == nil {
		incoming.DeletedAt = existing.DeletedAt
	}
	if incoming.UploadedAt == nil {
		incoming.UploadedAt = existing.UploadedAt
	}
	if err := tx.Save(&incoming).Error; err != nil {
		return nil, fmt.Errorf("update book %s: %w", incoming.BookHash, err)
	}
	return &incoming, nil
}

func mergeConfig(tx *gorm.DB, userID string, incoming entities.BookConfig) (*entities.BookConfig, error) {
	var existing entities.BookConfig
	err := tx.Where("user_id = ? AND book_hash = ?", userID, incoming.BookHash).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		incoming.ID = 0
		incoming.UserID = userID
		if err := tx.Create(&incoming).Error; err != nil {
			return nil, fmt.Errorf("create config %s: %w", incoming.BookHash, err)
		}
		return &incoming, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", incoming.BookHash, err)
	}

	if incoming.UpdatedAt <= existing.UpdatedAt {
		return &existing, nil
	}

	incoming.ID = existing.ID
	incoming.UserID = userID
	if err := tx.Save(&incoming).Error; err != nil {
		return nil, fmt.Errorf("update config %s: %w", incoming.BookHash, err)
	}
	return &incoming, nil
}

func mergeNote(tx *gorm.DB, userID string, incoming entities.BookNote) (*entities.BookNote, error) {
	if incoming.NoteID == "" {
		incoming.NoteID = uuid.NewString()
	}

	var existing entities.BookNote
	err := tx.Where("user_id = ? AND note_id = ?", userID, incoming.NoteID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		incoming.ID = 0
		incoming.UserID = userID
		if err := tx.Create(&incoming).Error; err != nil {
			return nil, fmt.Errorf("create note %s: %w", incoming.NoteID, err)
		}
		return &incoming, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load note %s: %w", incoming.NoteID, err)
	}

	if incoming.UpdatedAt <= existing.UpdatedAt {
		return &existing, nil
	}

	incoming.ID = existing.ID
	incoming.UserID = userID
	if incoming.CreatedAt == 0 {
		incoming.CreatedAt = existing.CreatedAt
	}
	if incoming.DeletedAt == nil {
		incoming.DeletedAt = existing.DeletedAt
	}
	if err := tx.Save(&incoming).Error; err != nil {
		return nil, fmt.Errorf("update note %s: %w", incoming.NoteID, err)
	}
	return &incoming, nil
}
