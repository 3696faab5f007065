// Package httpapi exposes the authorization and workflow core over HTTP.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fusionhub.org/internal/auth"
	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/obs"
	"fusionhub.org/internal/project"
	"fusionhub.org/internal/sprint"
	"fusionhub.org/internal/stream"
)

// ReadyProbe checks the backing database, when there is one.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	router     chi.Router
	auth       *auth.Service
	projects   *project.Engine
	feedback   *feedback.Engine
	sprints    *sprint.Engine
	stream     *stream.Stream
	readyProbe ReadyProbe
	version    string
}

// New wires the services into a router.
func New(authSvc *auth.Service, pj *project.Engine, fb *feedback.Engine, sp *sprint.Engine, events *stream.Stream, rp ReadyProbe, version string) *API {
	a := &API{
		router:     chi.NewRouter(),
		auth:       authSvc,
		projects:   pj,
		feedback:   fb,
		sprints:    sp,
		stream:     events,
		readyProbe: rp,
		version:    version,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Handle("/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", a.Info)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", a.handleLogin)
			r.Post("/register", a.handleRegister)
			r.Post("/refresh", a.handleRefresh)
			r.Post("/logout", a.handleLogout)
			r.Get("/me", a.handleMe)
			r.Post("/change-password", a.handleChangePassword)
			r.Post("/check-permission", a.handleCheckPermission)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", a.handleProjectCreate)
			r.Get("/", a.handleProjectList)
			r.Get("/{projectID}", a.handleProjectGet)
			r.Patch("/{projectID}", a.handleProjectUpdate)
			r.Get("/{projectID}/sprints", a.handleSprintsByProject)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/", a.handleFeedbackCreate)
			r.Get("/", a.handleFeedbackList)
			r.Get("/{id}", a.handleFeedbackGet)
			r.Patch("/{id}", a.handleFeedbackUpdate)
			r.Delete("/{id}", a.handleFeedbackDelete)
			r.Post("/{id}/convert", a.handleFeedbackConvert)
		})

		r.Route("/sprints", func(r chi.Router) {
			r.Post("/", a.handleSprintCreate)
			r.Get("/{id}", a.handleSprintGet)
			r.Patch("/{id}", a.handleSprintUpdate)
			r.Post("/{id}/start", a.handleSprintStart)
			r.Post("/{id}/close", a.handleSprintClose)
			r.Post("/{id}/tasks", a.handleSprintAssignTask)
			r.Get("/{id}/tasks", a.handleSprintTasks)
		})

		r.Get("/events", a.Stream)
	})
}

// Handler assembles the middleware chain around the router.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- operational handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "fusionhub-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "fusionhub-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
