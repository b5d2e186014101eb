package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/eakarabulut/warriors-dapp/internal/app"
	"github.com/eakarabulut/warriors-dapp/internal/engine"
	"github.com/eakarabulut/warriors-dapp/pkg/types"
)

var errUnknownType = errors.New("unknown type")

// Handler upgrades a UI client to a websocket, subscribes it to state
// snapshots, and relays its commands into the app loop.
func Handler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan app.Snapshot, 8)
		clientID := uuid.NewString()

		a.Inbox() <- app.Join{ClientID: clientID, Outbox: out}
		defer func() { a.Inbox() <- app.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, Snapshot: &snap}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			if err := dispatch(r.Context(), a, cm); err != nil {
				writeError(r.Context(), conn, err.Error())
			}
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

// dispatch turns one wire message into an app message and waits for the
// immediate accept/reject. Terminal outcomes arrive via snapshots.
func dispatch(ctx context.Context, a *app.App, cm types.ClientMessage) error {
	switch cm.Type {
	case "Connect":
		reply := make(chan error, 1)
		a.Inbox() <- app.ConnectCmd{Reply: reply}
		return await(ctx, reply)

	case "Refresh":
		reply := make(chan error, 1)
		a.Inbox() <- app.Refresh{Population: cm.Population, Reply: reply}
		return await(ctx, reply)

	case "SwitchView":
		a.Inbox() <- app.SwitchView{View: app.View(cm.View)}
		return nil

	case "CreateWarrior", "LevelUp", "Battle":
		cmd, ok := toCommand(cm)
		if !ok {
			return errUnknownType
		}
		reply := make(chan error, 1)
		a.Inbox() <- app.Do{Cmd: cmd, Reply: reply}
		return await(ctx, reply)

	default:
		return errUnknownType
	}
}

func toCommand(cm types.ClientMessage) (engine.Command, bool) {
	switch cm.Type {
	case "CreateWarrior":
		return engine.Command{Kind: engine.KindCreate, Create: engine.CreateParams{
			Name:     cm.Name,
			Class:    cm.Class,
			Power:    cm.Power,
			Defense:  cm.Defense,
			TokenURI: cm.TokenURI,
		}}, true
	case "LevelUp":
		return engine.Command{Kind: engine.KindLevelUp, TargetID: cm.WarriorID}, true
	case "Battle":
		return engine.Command{Kind: engine.KindBattle, AllyID: cm.AllyID, EnemyID: cm.EnemyID}, true
	default:
		return engine.Command{}, false
	}
}

func await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
