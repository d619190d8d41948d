package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dm/stockwatch/internal/client"
	"github.com/dm/stockwatch/internal/model"
)

// SeedError reports which parts of the initial bulk fetch failed. A part
// that succeeded has already been loaded into the store.
type SeedError struct {
	Latest  error
	History error
}

func (e *SeedError) Error() string {
	var parts []string
	if e.Latest != nil {
		parts = append(parts, e.Latest.Error())
	}
	if e.History != nil {
		parts = append(parts, e.History.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *SeedError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Latest, e.History} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Reachable reports whether every failed request still got an answer from
// the service (a non-2xx status). Transport and decode failures are not.
func (e *SeedError) Reachable() bool {
	for _, err := range e.Unwrap() {
		var se *client.StatusError
		if !errors.As(err, &se) {
			return false
		}
	}
	return true
}

// Seed fetches the latest snapshot and the history concurrently and loads
// each one that succeeded into store. ErrNoResults from the latest endpoint
// is not an error; the latest pointer is then left unset. A failed part
// leaves its side of the store untouched and is reported in a *SeedError.
func Seed(ctx context.Context, src client.Source, store *model.Store) error {
	var (
		latest  *model.Snapshot
		history []*model.Snapshot
		seedErr SeedError
	)

	// A plain group: one failed request must not cancel the other.
	var g errgroup.Group

	g.Go(func() error {
		s, err := src.LatestResults(ctx)
		switch {
		case errors.Is(err, client.ErrNoResults):
		case err != nil:
			seedErr.Latest = fmt.Errorf("Seed latest: %w", err)
		default:
			latest = s
		}
		return nil
	})

	g.Go(func() error {
		h, err := src.History(ctx)
		if err != nil {
			seedErr.History = fmt.Errorf("Seed history: %w", err)
			return nil
		}
		if h == nil {
			h = []*model.Snapshot{}
		}
		history = h
		return nil
	})

	_ = g.Wait()

	store.Seed(latest, history)
	if seedErr.Latest != nil || seedErr.History != nil {
		return &seedErr
	}
	return nil
}
