// Package roster derives the client's read-only views of ledger state:
// the roster owned by one identity and the bounded full-population scan.
package roster

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eakarabulut/warriors-dapp/internal/ledger"
	"github.com/eakarabulut/warriors-dapp/internal/warrior"
)

// DefaultProbeLimit bounds the population scan.
const DefaultProbeLimit = 100

type Fetcher struct {
	ledger     ledger.Ledger
	log        *zap.Logger
	probeLimit int
}

func NewFetcher(l ledger.Ledger, log *zap.Logger, probeLimit int) *Fetcher {
	if probeLimit <= 0 {
		probeLimit = DefaultProbeLimit
	}
	return &Fetcher{ledger: l, log: log, probeLimit: probeLimit}
}

// Roster fetches the full attribute snapshot for every warrior owned by
// owner. Per-id fetches fan out concurrently; any single failure fails the
// whole call so a snapshot is never partially stale. Zero owned warriors is
// an empty slice, not an error.
func (f *Fetcher) Roster(ctx context.Context, owner string) ([]warrior.Warrior, error) {
	ids, err := f.ledger.MyWarriors(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("fetch owned ids: %w", err)
	}

	out := make([]warrior.Warrior, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			w, err := f.ledger.Warrior(ctx, id)
			if err != nil {
				return fmt.Errorf("fetch warrior %d: %w", id, err)
			}
			uri, err := f.ledger.TokenURI(ctx, id)
			if err != nil {
				return fmt.Errorf("fetch token uri %d: %w", id, err)
			}
			w.TokenURI = uri
			out[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.log.Debug("roster fetched", zap.String("owner", owner), zap.Int("count", len(out)))
	return out, nil
}

// Population probes ids sequentially from 0, stopping at the first id that
// fails to resolve or at the probe limit. Each probe must finish before the
// next starts: the failure IS the termination signal. Assumes dense,
// zero-based id assignment; sparse assignment truncates the view.
func (f *Fetcher) Population(ctx context.Context, self string) ([]warrior.Owned, error) {
	out := []warrior.Owned{}
	for id := uint64(0); id < uint64(f.probeLimit); id++ {
		w, err := f.ledger.Warrior(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			break
		}
		owner, err := f.ledger.OwnerOf(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			break
		}
		out = append(out, warrior.Owned{
			Warrior: w,
			Owner:   owner,
			IsOwned: warrior.SameOwner(owner, self),
		})
	}

	f.log.Debug("population fetched", zap.Int("count", len(out)))
	return out, nil
}
