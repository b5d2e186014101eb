package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eakarabulut/warriors-dapp/internal/app"
)

// Connect starts session establishment. The reply only says whether the
// attempt was accepted; the outcome is observed through /state or the
// websocket snapshots.
func Connect(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan error, 1)
		a.Inbox() <- app.ConnectCmd{Reply: reply}

		select {
		case err := <-reply:
			if errors.Is(err, app.ErrBusy) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		case <-r.Context().Done():
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
		}{Status: "connecting"})
	}
}

// State returns the current snapshot without subscribing.
func State(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan app.Snapshot, 1)
		a.Inbox() <- app.GetState{Reply: reply}

		select {
		case snap := <-reply:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(snap)
		case <-r.Context().Done():
		}
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
