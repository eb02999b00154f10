package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// PageRoutes registers the server rendered pages on the root router.
type PageRoutes interface {
	Register(r *mux.Router)
}

type RouterConfig struct {
	Reservations   *ReservationHandler
	Pages          PageRoutes
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()

	if cfg.Reservations != nil {
		r.HandleFunc("/healthz", cfg.Reservations.Health).Methods(http.MethodGet)

		apiRouter := r.PathPrefix("/api").Subrouter()
		apiRouter.Use(func(next http.Handler) http.Handler {
			return handlers.ContentTypeHandler(next, "application/json")
		})
		apiRouter.HandleFunc("/reservations", cfg.Reservations.ListReservations).Methods(http.MethodGet)
		apiRouter.HandleFunc("/reservations", cfg.Reservations.CreateReservation).Methods(http.MethodPost)
		apiRouter.HandleFunc("/reservations/{id}", cfg.Reservations.UpdateReservation).Methods(http.MethodPut)
		apiRouter.HandleFunc("/reservations/{id}", cfg.Reservations.DeleteReservation).Methods(http.MethodDelete)
		apiRouter.HandleFunc("/reservations/{id}/status", cfg.Reservations.UpdateStatus).Methods(http.MethodPatch)
	}

	if cfg.Pages != nil {
		cfg.Pages.Register(r)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
	)

	// The request logger wraps the whole router so unmatched routes (404, 405)
	// are logged and tagged too.
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)
	return RequestLogger(logger)(recovery(cors(r)))
}
