package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isdelr/tasker-be/internal/api/handlers"
	"github.com/isdelr/tasker-be/internal/services"
	"github.com/isdelr/tasker-be/internal/websocket"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Users    services.UserServiceProvider
	Tasks    services.TaskServiceProvider
	Sessions handlers.SessionIssuer
	// Guard rejects requests without a valid session.
	Guard func(http.Handler) http.Handler
	// Credentials re-checks the session a websocket feed was opened with.
	Credentials handlers.SessionResolver
	Hub         *websocket.Hub
	DB          handlers.Pinger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{handlers.SessionStatusHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var feeds handlers.FeedCloser
	if deps.Hub != nil {
		feeds = deps.Hub
	}

	userHandler := handlers.NewUserHandler(deps.Users, deps.Sessions, feeds)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Credentials, deps.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r.Get("/healthz", healthHandler.Serve)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(deps.Guard)
				r.Get("/refresh", userHandler.Refresh)
				r.Post("/refresh", userHandler.Refresh)
				r.Post("/logout", userHandler.Logout)
				r.Get("/me", userHandler.GetMe)
				r.Patch("/update/info", userHandler.UpdateInformation)
				r.Patch("/update/pass", userHandler.UpdatePassword)
				r.Delete("/delete", userHandler.Delete)
			})
		})

		r.Route("/task", func(r chi.Router) {
			r.Use(deps.Guard)
			r.Get("/", taskHandler.GetAll)
			r.Post("/create", taskHandler.Create)
			r.Get("/ws", wsHandler.Serve)
			r.Get("/{id}", taskHandler.Get)
			r.Patch("/update/{id}", taskHandler.Update)
			r.Delete("/delete/{id}", taskHandler.Delete)
		})
	})

	return r
}
