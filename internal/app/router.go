package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/YujeongSon/AccountSystem/internal/account"
	"github.com/YujeongSon/AccountSystem/internal/observability"
	"github.com/YujeongSon/AccountSystem/internal/transaction"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config             *Config
	AccountHandler     *account.Handler
	TransactionHandler *transaction.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router for the account API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	if params.AccountHandler != nil {
		params.AccountHandler.MountRoutes(r)
	}
	if params.TransactionHandler != nil {
		params.TransactionHandler.MountRoutes(r)
	}

	return r
}
