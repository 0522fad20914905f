// Package entities defines the syncable record types shared by the sync
// client, the sync server store and the HTTP wire format.
//
// All timestamps are Unix milliseconds. DeletedAt is a tombstone: a nil
// value means "live", a non-nil value propagates the deletion to every
// replica. Only non-nil tombstones are ever written back to storage.
package entities

// Book is the library-level record for one book, keyed by the content
// hash of the book file.
type Book struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"size:64;uniqueIndex:idx_books_user_hash" json:"-"`

	BookHash string `gorm:"size:64;uniqueIndex:idx_books_user_hash" json:"book_hash"`
	MetaHash string `gorm:"size:64;index" json:"meta_hash,omitempty"`

	Format      string   `gorm:"size:16" json:"format,omitempty"`
	Title       string   `gorm:"size:512" json:"title"`
	SourceTitle string   `gorm:"size:512" json:"source_title,omitempty"`
	Author      string   `gorm:"size:512" json:"author,omitempty"`
	GroupID     string   `gorm:"size:64" json:"group_id,omitempty"`
	GroupName   string   `gorm:"size:256" json:"group_name,omitempty"`
	Tags        []string `gorm:"serializer:json" json:"tags,omitempty"`
	Progress    string   `gorm:"size:256" json:"progress,omitempty"`
	Metadata    string   `gorm:"type:text" json:"metadata,omitempty"`

	CreatedAt  int64  `json:"created_at,omitempty"`
	UpdatedAt  int64  `gorm:"index" json:"updated_at"`
	DeletedAt  *int64 `json:"deleted_at,omitempty"`
	UploadedAt *int64 `json:"uploaded_at,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// BookConfig carries per-book reading state: position, view settings and
// search configuration. Exactly one config exists per (user, book_hash).
type BookConfig struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"size:64;uniqueIndex:idx_configs_user_hash" json:"-"`

	BookHash string `gorm:"size:64;uniqueIndex:idx_configs_user_hash" json:"book_hash"`
	MetaHash string `gorm:"size:64;index" json:"meta_hash,omitempty"`

	Location     string `gorm:"size:512" json:"location,omitempty"`
	XPointer     string `gorm:"size:512" json:"xpointer,omitempty"`
	Progress     string `gorm:"type:text" json:"progress,omitempty"`
	SearchConfig string `gorm:"type:text" json:"search_config,omitempty"`
	ViewSettings string `gorm:"type:text" json:"view_settings,omitempty"`

	UpdatedAt int64 `gorm:"index" json:"updated_at"`
}

func (BookConfig) TableName() string {
	return "book_configs"
}

// BookNote is a highlight, bookmark or annotation within a book.
type BookNote struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"size:64;uniqueIndex:idx_notes_user_note" json:"-"`

	NoteID   string `gorm:"size:64;uniqueIndex:idx_notes_user_note" json:"id"`
	BookHash string `gorm:"size:64;index" json:"book_hash"`
	MetaHash string `gorm:"size:64;index" json:"meta_hash,omitempty"`

	Type  string `gorm:"size:32" json:"type,omitempty"`
	CFI   string `gorm:"size:512" json:"cfi,omitempty"`
	Text  string `gorm:"type:text" json:"text,omitempty"`
	Style string `gorm:"size:32" json:"style,omitempty"`
	Color string `gorm:"size:32" json:"color,omitempty"`
	Note  string `gorm:"type:text" json:"note,omitempty"`

	CreatedAt int64  `json:"created_at,omitempty"`
	UpdatedAt int64  `gorm:"index" json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

func (BookNote) TableName() string {
	return "book_notes"
}

// SyncResult is the server's view of the affected collections after a
// pull or a push. Collections that were not touched stay nil.
type SyncResult struct {
	Books   []Book       `json:"books"`
	Notes   []BookNote   `json:"notes"`
	Configs []BookConfig `json:"configs"`
}

// SyncData is the payload of a push: the locally dirty records per
// collection. Empty collections are omitted from the wire format.
type SyncData struct {
	Books   []Book       `json:"books,omitempty"`
	Notes   []BookNote   `json:"notes,omitempty"`
	Configs []BookConfig `json:"configs,omitempty"`
}
