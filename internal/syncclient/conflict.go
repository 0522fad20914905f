package syncclient

import (
	"time"

	"github.com/foliolib/folio/internal/diff"
)

// PositionRange is a half-open [Start, End) interval locating a reading
// progress marker within a book's linear text.
type PositionRange struct {
	Start int64
	End   int64
}

// Contains reports whether r fully contains other.
func (r PositionRange) Contains(other PositionRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Progress is one device's report of where the user is in a book.
type Progress struct {
	Range     PositionRange
	Preview   string
	Raw       string
	Device    string
	UpdatedAt int64
}

// ConflictSide is one side of a surfaced conflict.
type ConflictSide struct {
	Preview string `json:"preview"`
	Raw     string `json:"raw"`
	Device  string `json:"device,omitempty"`
}

// Conflict is a transient divergence between the local and a remote
// reading position. It is never persisted: it exists only to be shown to
// the user, whose choice becomes a fresh local mutation.
type Conflict struct {
	Local  ConflictSide `json:"local"`
	Remote ConflictSide `json:"remote"`
	// Diff is a line diff of the two previews for display, empty when
	// either preview is blank.
	Diff string `json:"diff,omitempty"`
}

// DetectConflict compares a local and a remote progress marker. The
// positions conflict when neither range contains the other; containment
// in either direction means one device has simply read further along
// the same path, which merges cleanly.
func DetectConflict(local, remote Progress) *Conflict {
	if local.Range.Contains(remote.Range) || remote.Range.Contains(local.Range) {
		return nil
	}
	c := &Conflict{
		Local:  ConflictSide{Preview: local.Preview, Raw: local.Raw},
		Remote: ConflictSide{Preview: remote.Preview, Raw: remote.Raw, Device: remote.Device},
	}
	if local.Preview != "" && remote.Preview != "" {
		c.Diff = diff.Diff(local.Preview, remote.Preview)
	}
	return c
}

// Resolve applies the user's explicit choice and returns the winning
// progress stamped with a fresh UpdatedAt, making the next push
// authoritative under last-writer-wins.
func Resolve(local, remote Progress, keepRemote bool) Progress {
	winner := local
	if keepRemote {
		winner = remote
	}
	winner.UpdatedAt = time.Now().UnixMilli()
	return winner
}
