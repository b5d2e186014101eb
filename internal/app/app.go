// Package app owns all client-side mutable state: the session info, the
// roster and population snapshots, the busy flag, and the active view.
// Everything is mutated on a single loop goroutine; remote work runs in
// spawned goroutines and re-enters the loop as completion messages, so no
// snapshot is ever written mid-fetch.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eakarabulut/warriors-dapp/internal/engine"
	"github.com/eakarabulut/warriors-dapp/internal/ledger"
	"github.com/eakarabulut/warriors-dapp/internal/roster"
	"github.com/eakarabulut/warriors-dapp/internal/session"
	"github.com/eakarabulut/warriors-dapp/internal/warrior"
)

var ErrBusy = errors.New("another operation is in flight")
var ErrNotConnected = errors.New("not connected")

type View string

const (
	ViewRoster View = "roster"
	ViewCreate View = "create"
	ViewBattle View = "battle"
)

type Msg interface{ isAppMsg() }

type Join struct {
	ClientID string
	Outbox   chan Snapshot
}

type Leave struct{ ClientID string }

// ConnectCmd starts session establishment. Reply carries the immediate
// accept/reject; the outcome arrives as a snapshot broadcast.
type ConnectCmd struct{ Reply chan error }

// Do runs one orchestrated action. Reply carries local validation or busy
// rejections; acceptance means the action is in flight.
type Do struct {
	Cmd   engine.Command
	Reply chan error
}

// Refresh re-fetches a snapshot on explicit user request.
type Refresh struct {
	Population bool
	Reply      chan error
}

// SwitchView changes the active view. Switching to the battle view also
// refreshes the population, matching the view's dependency on it.
type SwitchView struct{ View View }

// GetState reflects current state without data races; used by tests and
// the one-shot HTTP read.
type GetState struct{ Reply chan Snapshot }

type Shutdown struct{}

func (Join) isAppMsg()       {}
func (Leave) isAppMsg()      {}
func (ConnectCmd) isAppMsg() {}
func (Do) isAppMsg()         {}
func (Refresh) isAppMsg()    {}
func (SwitchView) isAppMsg() {}
func (GetState) isAppMsg()   {}
func (Shutdown) isAppMsg()   {}

// Internal completion messages. Each carries the generation it was spawned
// under; a session reset bumps the generation and strands stale results.
type connectDone struct {
	gen       int
	sess      *session.Session
	roster    []warrior.Warrior
	rosterErr error
	err       error
}

type actionPhase struct {
	gen   int
	phase engine.Phase
}

type actionDone struct {
	gen        int
	plan       engine.Plan
	err        error // submit or confirmation failure
	refetchErr error // action confirmed, refetch failed
	roster     []warrior.Warrior
	population []warrior.Owned
}

type fetchDone struct {
	gen        int
	forPop     bool
	roster     []warrior.Warrior
	population []warrior.Owned
	err        error
}

func (connectDone) isAppMsg() {}
func (actionPhase) isAppMsg() {}
func (actionDone) isAppMsg()  {}
func (fetchDone) isAppMsg()   {}

// Snapshot is the versioned view-state pushed to every subscriber.
type Snapshot struct {
	Version    int               `json:"version"`
	Session    *session.Info     `json:"session,omitempty"`
	Roster     []warrior.Warrior `json:"roster"`
	Population []warrior.Owned   `json:"population"`
	Busy       bool              `json:"busy"`
	View       View              `json:"view"`
	Pending    *engine.Pending   `json:"pending,omitempty"`
	LastError  string            `json:"last_error,omitempty"`
}

type App struct {
	inbox   chan Msg
	clients map[string]chan Snapshot

	mgr     *session.Manager
	fetcher *roster.Fetcher
	log     *zap.Logger

	sess       *session.Session
	roster     []warrior.Warrior
	population []warrior.Owned
	busy       bool
	view       View
	pending    *engine.Pending
	lastError  string
	version    int
	gen        int

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, mgr *session.Manager, fetcher *roster.Fetcher, log *zap.Logger) *App {
	ctx, cancel := context.WithCancel(parent)
	a := &App{
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan Snapshot),
		mgr:     mgr,
		fetcher: fetcher,
		log:     log,
		view:    ViewRoster,
		ctx:     ctx,
		cancel:  cancel,
	}
	go a.loop()
	return a
}

func (a *App) Inbox() chan<- Msg { return a.inbox }

func (a *App) loop() {
	for {
		select {
		case <-a.ctx.Done():
			a.shutdown()
			return

		case change := <-a.mgr.Invalidated():
			a.reset(change)

		case m := <-a.inbox:
			switch msg := m.(type) {
			case Join:
				a.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- a.snapshot()

			case Leave:
				delete(a.clients, msg.ClientID)

			case ConnectCmd:
				a.handleConnect(msg)

			case Do:
				a.handleDo(msg)

			case Refresh:
				a.handleRefresh(msg)

			case SwitchView:
				a.handleSwitchView(msg)

			case GetState:
				msg.Reply <- a.snapshot()

			case connectDone:
				a.handleConnectDone(msg)

			case actionPhase:
				if msg.gen == a.gen && a.pending != nil {
					a.pending.Phase = msg.phase
					a.broadcast()
				}

			case actionDone:
				a.handleActionDone(msg)

			case fetchDone:
				a.handleFetchDone(msg)

			case Shutdown:
				a.shutdown()
				return
			}
		}
	}
}

func (a *App) handleConnect(msg ConnectCmd) {
	if a.busy {
		msg.Reply <- ErrBusy
		return
	}
	a.busy = true
	a.lastError = ""
	msg.Reply <- nil
	a.broadcast()

	gen := a.gen
	go func() {
		reply := make(chan session.Result, 1)
		a.mgr.Inbox() <- session.Connect{Reply: reply}
		var res session.Result
		select {
		case res = <-reply:
		case <-a.ctx.Done():
			return
		}
		if res.Err != nil {
			a.send(connectDone{gen: gen, err: res.Err})
			return
		}
		// Mirror of the first roster load: connecting lands the user on
		// their roster, so fetch it eagerly. A fetch failure is reported
		// but does not tear the session down.
		ros, err := a.fetcher.Roster(a.ctx, res.Session.Info.Account)
		a.send(connectDone{gen: gen, sess: res.Session, roster: ros, rosterErr: err})
	}()
}

func (a *App) handleConnectDone(msg connectDone) {
	if msg.gen != a.gen {
		return
	}
	a.busy = false
	if msg.err != nil {
		a.lastError = msg.err.Error()
		a.broadcast()
		return
	}
	a.sess = msg.sess
	if msg.rosterErr != nil {
		a.lastError = fmt.Sprintf("fetch roster: %v", msg.rosterErr)
	} else {
		a.roster = msg.roster
	}
	a.broadcast()
}

func (a *App) handleDo(msg Do) {
	if a.sess == nil {
		msg.Reply <- ErrNotConnected
		return
	}
	if a.busy {
		msg.Reply <- ErrBusy
		return
	}

	// Local validation with the freshest wall clock. Rejection costs no
	// remote call and changes no state.
	plan, err := engine.PlanCommand(a.roster, msg.Cmd, time.Now())
	if err != nil {
		msg.Reply <- err
		return
	}
	msg.Reply <- nil

	a.busy = true
	a.lastError = ""
	a.pending = &engine.Pending{Kind: plan.Cmd.Kind, Phase: engine.PhaseSubmitted}
	a.broadcast()

	gen := a.gen
	sess := a.sess
	go a.runAction(gen, sess, plan)
}

func (a *App) runAction(gen int, sess *session.Session, plan engine.Plan) {
	tx, err := a.submit(sess.Ledger, plan.Cmd)
	if err != nil {
		a.send(actionDone{gen: gen, plan: plan, err: err})
		return
	}
	a.send(actionPhase{gen: gen, phase: engine.PhaseConfirming})

	// Once submitted the client commits to a terminal outcome; there is no
	// timeout-driven abandonment.
	if err := tx.Wait(a.ctx); err != nil {
		a.send(actionDone{gen: gen, plan: plan, err: err})
		return
	}

	done := actionDone{gen: gen, plan: plan}
	if plan.Refetch.Roster {
		ros, err := a.fetcher.Roster(a.ctx, sess.Info.Account)
		if err != nil {
			done.refetchErr = err
			a.send(done)
			return
		}
		done.roster = ros
	}
	if plan.Refetch.Population {
		pop, err := a.fetcher.Population(a.ctx, sess.Info.Account)
		if err != nil {
			done.refetchErr = err
			a.send(done)
			return
		}
		done.population = pop
	}
	a.send(done)
}

func (a *App) submit(l ledger.Ledger, cmd engine.Command) (ledger.PendingTx, error) {
	switch cmd.Kind {
	case engine.KindCreate:
		p := cmd.Create
		return l.CreateWarrior(a.ctx, p.Name, warrior.Class(p.Class), p.Power, p.Defense, p.TokenURI)
	case engine.KindLevelUp:
		return l.LevelUpWithFee(a.ctx, cmd.TargetID, ledger.LevelUpFee)
	case engine.KindBattle:
		return l.Battle(a.ctx, cmd.AllyID, cmd.EnemyID)
	default:
		return nil, fmt.Errorf("unsupported command kind %q", cmd.Kind)
	}
}

func (a *App) handleActionDone(msg actionDone) {
	if msg.gen != a.gen {
		return
	}
	a.busy = false
	switch {
	case msg.err != nil:
		a.pending.Phase = engine.PhaseFailed
		a.pending.Error = translateError(msg.plan.Cmd.Kind, msg.err)
		a.lastError = a.pending.Error
		a.log.Warn("action failed",
			zap.String("kind", string(msg.plan.Cmd.Kind)),
			zap.Error(msg.err))

	case msg.refetchErr != nil:
		// The action itself confirmed; only the refetch failed. Keep the
		// prior snapshots rather than overwrite them with nothing.
		a.pending.Phase = engine.PhaseSucceeded
		a.lastError = fmt.Sprintf("refresh after %s: %v", msg.plan.Cmd.Kind, msg.refetchErr)

	default:
		a.pending.Phase = engine.PhaseSucceeded
		if msg.plan.Refetch.Roster {
			a.roster = msg.roster
		}
		if msg.plan.Refetch.Population {
			a.population = msg.population
		}
		if msg.plan.SwitchToRoster {
			a.view = ViewRoster
		}
	}
	a.broadcast()
}

func (a *App) handleRefresh(msg Refresh) {
	if a.sess == nil {
		msg.Reply <- ErrNotConnected
		return
	}
	if a.busy {
		msg.Reply <- ErrBusy
		return
	}
	msg.Reply <- nil
	a.startFetch(msg.Population)
}

func (a *App) handleSwitchView(msg SwitchView) {
	a.view = msg.View
	// The battle arena depends on the population view, so entering it
	// refreshes the view as a side effect of the switch itself.
	if msg.View == ViewBattle && a.sess != nil && !a.busy {
		a.startFetch(true)
		return
	}
	a.broadcast()
}

func (a *App) startFetch(population bool) {
	a.busy = true
	a.broadcast()

	gen := a.gen
	sess := a.sess
	go func() {
		if population {
			pop, err := a.fetcher.Population(a.ctx, sess.Info.Account)
			a.send(fetchDone{gen: gen, forPop: true, population: pop, err: err})
			return
		}
		ros, err := a.fetcher.Roster(a.ctx, sess.Info.Account)
		a.send(fetchDone{gen: gen, roster: ros, err: err})
	}()
}

func (a *App) handleFetchDone(msg fetchDone) {
	if msg.gen != a.gen {
		return
	}
	a.busy = false
	if msg.err != nil {
		// Prior snapshots stay intact on a failed refetch.
		a.lastError = msg.err.Error()
	} else if msg.forPop {
		a.population = msg.population
	} else {
		a.roster = msg.roster
	}
	a.broadcast()
}

// reset performs the full-reload equivalent of a wallet change: every piece
// of derived state is dropped before anything may be refetched under the
// new identity.
func (a *App) reset(change ledger.Change) {
	a.log.Info("resetting client state", zap.String("change", string(change.Kind)))
	a.gen++
	a.sess = nil
	a.roster = nil
	a.population = nil
	a.pending = nil
	a.busy = false
	a.lastError = ""
	a.view = ViewRoster
	a.broadcast()
}

// send delivers an internal message unless the app is shutting down.
func (a *App) send(m Msg) {
	select {
	case a.inbox <- m:
	case <-a.ctx.Done():
	}
}

func (a *App) snapshot() Snapshot {
	s := Snapshot{
		Version:    a.version,
		Roster:     a.roster,
		Population: a.population,
		Busy:       a.busy,
		View:       a.view,
		LastError:  a.lastError,
	}
	if a.sess != nil {
		info := a.sess.Info
		s.Session = &info
	}
	if a.pending != nil {
		p := *a.pending
		s.Pending = &p
	}
	return s
}

// broadcast bumps the state version and fans the snapshot out to every
// subscriber, dropping any that cannot keep up.
func (a *App) broadcast() {
	a.version++
	snap := a.snapshot()
	for id, ch := range a.clients {
		select {
		case ch <- snap:
		default:
			// Slow or dead subscriber; drop it.
			close(ch)
			delete(a.clients, id)
		}
	}
}

func (a *App) shutdown() {
	for id, ch := range a.clients {
		close(ch)
		delete(a.clients, id)
	}
	a.cancel()
}

// translateError maps a remote failure to its user-facing message. A
// reverted battle almost always means the ally's cooldown had not elapsed
// on-chain, whatever the local gate thought; the true revert reason is not
// structurally available, so this is best effort.
func translateError(kind engine.Kind, err error) string {
	if kind == engine.KindBattle && ledger.IsReverted(err) {
		return "battle failed: your warrior may not be ready yet"
	}
	return err.Error()
}
