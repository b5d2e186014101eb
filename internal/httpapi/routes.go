package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eakarabulut/warriors-dapp/internal/app"
	"github.com/eakarabulut/warriors-dapp/internal/ws"
)

func SetupRoutes(a *app.App) http.Handler {
	r := chi.NewRouter()

	r.Post("/connect", Connect(a))
	r.Get("/state", State(a))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(a))
	return r
}
