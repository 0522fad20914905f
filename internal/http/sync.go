package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/database/syncstore"
	"github.com/foliolib/folio/internal/entities"
)

// SyncController serves the /sync endpoint: incremental pulls and
// last-writer-wins pushes. Both operations are whole-call: a pull or
// push either succeeds entirely or fails with no partial application.
type SyncController struct {
	store *syncstore.Repository
}

func NewSyncController(store *syncstore.Repository) *SyncController {
	return &SyncController{store: store}
}

// Pull handles GET /sync?since=<ms>&type=&book=&meta_hash=.
// since is exclusive: only records with updated_at strictly after it
// are returned.
func (s *SyncController) Pull(c *gin.Context) {
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid since timestamp"})
		return
	}

	typ := c.Query("type")
	switch typ {
	case "", "books", "configs", "notes":
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid type filter"})
		return
	}

	result, err := s.store.PullSince(GetUserID(c), since, syncstore.PullFilter{
		Type:     typ,
		BookHash: c.Query("book"),
		MetaHash: c.Query("meta_hash"),
	})
	if err != nil {
		log.Printf("[SYNC] pull failed for %s: %v", GetUserID(c), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "pull failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Push handles POST /sync with a {books?, notes?, configs?} payload.
func (s *SyncController) Push(c *gin.Context) {
	var payload entities.SyncData
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed sync payload"})
		return
	}

	for _, book := range payload.Books {
		if book.BookHash == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "book record missing book_hash"})
			return
		}
	}
	for _, config := range payload.Configs {
		if config.BookHash == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "config record missing book_hash"})
			return
		}
	}
	for _, note := range payload.Notes {
		if note.BookHash == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "note record missing book_hash"})
			return
		}
	}

	result, err := s.store.Push(GetUserID(c), &payload)
	if err != nil {
		log.Printf("[SYNC] push failed for %s: %v", GetUserID(c), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "push failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
