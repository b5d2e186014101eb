// Package engine is the pure core of action orchestration: it validates a
// command against the current snapshots and produces a plan naming the
// remote operation and the refetches owed after confirmation. No remote
// calls, no clocks of its own.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/eakarabulut/warriors-dapp/internal/warrior"
)

var ErrMissingField = errors.New("all warrior fields are required")
var ErrUnknownClass = errors.New("unknown warrior class")
var ErrNotOwned = errors.New("warrior is not in your roster")
var ErrSelfBattle = errors.New("a warrior cannot battle itself")
var ErrNotReady = errors.New("warrior is not ready")

type Kind string

const (
	KindCreate  Kind = "create"
	KindLevelUp Kind = "level_up"
	KindBattle  Kind = "battle"
)

// Phase tracks one pending action through its lifecycle. Terminal phases
// return to Idle when the next action starts.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseSubmitted  Phase = "submitted"
	PhaseConfirming Phase = "confirming"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

type CreateParams struct {
	Name     string `json:"name"`
	Class    string `json:"class"`
	Power    uint64 `json:"power"`
	Defense  uint64 `json:"defense"`
	TokenURI string `json:"token_uri"`
}

// Command is one user intent, discriminated by Kind.
type Command struct {
	Kind     Kind         `json:"kind"`
	Create   CreateParams `json:"create,omitempty"`
	TargetID uint64       `json:"target_id,omitempty"` // level-up
	AllyID   uint64       `json:"ally_id,omitempty"`   // battle
	EnemyID  uint64       `json:"enemy_id,omitempty"`  // battle
}

// Refetch names the snapshots invalidated by a confirmed action.
type Refetch struct {
	Roster     bool
	Population bool
}

// Plan is a validated command plus its post-confirmation obligations.
type Plan struct {
	Cmd            Command
	Refetch        Refetch
	SwitchToRoster bool
}

// Pending is the transient record of the in-flight action. At most one
// exists at a time; it is never persisted.
type Pending struct {
	Kind  Kind   `json:"kind"`
	Phase Phase  `json:"phase"`
	Error string `json:"error,omitempty"`
}

// PlanCommand runs the local precondition checks for cmd against the
// current roster snapshot and wall clock. A returned error means no remote
// call may be issued; the checks are an optimistic pre-filter only, and the
// ledger re-validates everything authoritatively.
func PlanCommand(roster []warrior.Warrior, cmd Command, now time.Time) (Plan, error) {
	switch cmd.Kind {
	case KindCreate:
		p := cmd.Create
		if p.Name == "" || p.Class == "" || p.TokenURI == "" || p.Power == 0 || p.Defense == 0 {
			return Plan{}, ErrMissingField
		}
		if !warrior.ValidClass(p.Class) {
			return Plan{}, fmt.Errorf("%w: %q", ErrUnknownClass, p.Class)
		}
		// Power/defense bounds are enforced server-side; the client does
		// not hard-block on range.
		return Plan{
			Cmd:            cmd,
			Refetch:        Refetch{Roster: true},
			SwitchToRoster: true,
		}, nil

	case KindLevelUp:
		if _, ok := warrior.FindByID(roster, cmd.TargetID); !ok {
			return Plan{}, fmt.Errorf("%w: id %d", ErrNotOwned, cmd.TargetID)
		}
		// Population is deliberately left stale after a level-up; the user
		// refreshes it explicitly.
		return Plan{
			Cmd:     cmd,
			Refetch: Refetch{Roster: true},
		}, nil

	case KindBattle:
		if cmd.AllyID == cmd.EnemyID {
			return Plan{}, ErrSelfBattle
		}
		// The ally is looked up if present; an ally missing from the
		// snapshot is left for the ledger to reject.
		if ally, ok := warrior.FindByID(roster, cmd.AllyID); ok {
			if !warrior.IsReady(ally.ReadyAt, now) {
				wait := warrior.FormatWait(warrior.TimeUntilReady(ally.ReadyAt, now))
				return Plan{}, fmt.Errorf("%w: ready in %s", ErrNotReady, wait)
			}
		}
		return Plan{
			Cmd:     cmd,
			Refetch: Refetch{Roster: true, Population: true},
		}, nil

	default:
		return Plan{}, fmt.Errorf("unsupported command kind %q", cmd.Kind)
	}
}
