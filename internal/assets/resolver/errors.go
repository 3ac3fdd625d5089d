package resolver

import (
	"errors"
	"fmt"

	"github.com/ramonehamilton/PTCGO-Assets/internal/catalog"
)

// ErrSkipped matches every SkipError.
var ErrSkipped = errors.New("item skipped")

// SkipReason explains why an item produces no source image.
type SkipReason string

const (
	SkipNotCard          SkipReason = "not a card"
	SkipLeagueAlternate  SkipReason = "league alternate"
	SkipInvalidExpansion SkipReason = "invalid expansion"
)

// SkipError is returned by Resolve for items that have no source image of
// their own.
type SkipError struct {
	Item   catalog.Item
	Reason SkipReason
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("item %d skipped: %s", e.Item.ID, e.Reason)
}

// Is makes errors.Is(err, ErrSkipped) hold for every SkipError.
func (e *SkipError) Is(target error) bool {
	return target == ErrSkipped
}

// ConflictError is returned when two items resolve to the same identity but
// to different source URLs.
type ConflictError struct {
	Identity    string
	ExistingURL string
	ExistingID  int
	URL         string
	ItemID      int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting sources for %s: %s (item %d) => %s (item %d)",
		e.Identity, e.ExistingURL, e.ExistingID, e.URL, e.ItemID)
}
