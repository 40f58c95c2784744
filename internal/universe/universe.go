// Package universe decides which instruments are tradable on a given day.
//
// An instrument is excluded when any flag is set: ST designation,
// trading suspension, limit-up at the open (un-buyable), or too-recent
// listing. The combined mask is what selection sees.
package universe

import (
	"context"
	"time"

	"github.com/wonny/feval/internal/contracts"
)

// Flags holds the per-(day, code) exclusion flags
type Flags struct {
	ST            bool
	Suspended     bool
	LimitUpAtOpen bool
	NewlyListed   bool
}

// Tradable reports whether no exclusion applies
// ⭐ SSOT: 거래 가능 판정 규칙은 이 함수 하나
func (f Flags) Tradable() bool {
	return !f.ST && !f.Suspended && !f.LimitUpAtOpen && !f.NewlyListed
}

// FlagSource supplies raw exclusion flags per (day, code)
type FlagSource interface {
	Flags(ctx context.Context, date time.Time) (map[string]Flags, error)
}

// Builder composes a FlagSource into the UniverseSource contract
type Builder struct {
	source FlagSource
}

var _ contracts.UniverseSource = (*Builder)(nil)

// NewBuilder creates a universe builder over a flag source
func NewBuilder(source FlagSource) *Builder {
	return &Builder{source: source}
}

// Tradable returns the set of codes with no exclusion flag on date.
// Codes absent from the flag data are treated as tradable: flags mark
// exceptions, not membership.
func (b *Builder) Tradable(ctx context.Context, date time.Time) (map[string]bool, error) {
	flags, err := b.source.Flags(ctx, contracts.Day(date))
	if err != nil {
		return nil, err
	}

	tradable := make(map[string]bool, len(flags))
	for code, f := range flags {
		tradable[code] = f.Tradable()
	}
	return tradable, nil
}
