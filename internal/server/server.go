package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"StockDashboard/internal/dashboard"
	"StockDashboard/internal/model"
	"StockDashboard/internal/registry"
	"StockDashboard/internal/render"
)

// SessionCookie identifies a viewer across render passes.
const SessionCookie = "dashboard_session"

// DashboardServer serves the dashboard page and its JSON API.
type DashboardServer struct {
	registry   *registry.Registry
	sessions   *dashboard.Sessions
	defaultSel model.Selection
	provider   string
}

// NewDashboardServer creates a new dashboard HTTP server.
func NewDashboardServer(reg *registry.Registry, sessions *dashboard.Sessions, defaultSel model.Selection, provider string) *DashboardServer {
	return &DashboardServer{
		registry:   reg,
		sessions:   sessions,
		defaultSel: defaultSel,
		provider:   provider,
	}
}

// Routes builds the router with request id, real ip, access log and panic
// recovery middleware.
func (s *DashboardServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/companies", s.handleCompanies)
	})
	return r
}

// NewHTTPServer wraps the router in an http.Server.
func (s *DashboardServer) NewHTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        s.Routes(),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseSelection reads the sidebar form from the query string. A request
// without a query shows the default selection; submitted=1 means the
// company list is exactly what was sent, possibly empty.
func (s *DashboardServer) parseSelection(r *http.Request) (model.Selection, error) {
	q := r.URL.Query()
	if len(q) == 0 {
		return s.defaultSel, nil
	}

	sel := model.Selection{Companies: q["company"]}
	if len(sel.Companies) == 0 && q.Get("submitted") != "1" {
		sel.Companies = s.defaultSel.Companies
	}

	p, err := model.ParsePeriod(q.Get("period"))
	if err != nil {
		return model.Selection{}, err
	}
	sel.Period = p

	if v := q.Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.Selection{}, fmt.Errorf("window %q is not a number", v)
		}
		sel.Window = n
	}
	return sel, nil
}

// session returns the caller's session, issuing a cookie on first visit.
func (s *DashboardServer) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return s.sessions.Get(c.Value)
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.sessions.Get(id)
}

// run parses the selection and executes a pass in the caller's session.
// It writes the error response itself and returns nil on failure.
func (s *DashboardServer) run(w http.ResponseWriter, r *http.Request) *render.Page {
	sel, err := s.parseSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	page, err := s.session(w, r).Run(r.Context(), sel)
	switch {
	case err == nil:
		return page
	case errors.Is(err, dashboard.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dashboard.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case r.Context().Err() != nil:
		log.Printf("[INFO] client went away: %v", err)
	default:
		log.Printf("[ERROR] render pass: %v", err)
		writeError(w, http.StatusInternalServerError, "render failed")
	}
	return nil
}

func (s *DashboardServer) handlePage(w http.ResponseWriter, r *http.Request) {
	page := s.run(w, r)
	if page == nil {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WritePage(w, page); err != nil {
		log.Printf("[ERROR] %v", err)
	}
}

func (s *DashboardServer) handleView(w http.ResponseWriter, r *http.Request) {
	if page := s.run(w, r); page != nil {
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *DashboardServer) handleCompanies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Entries())
}

func (s *DashboardServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": s.provider})
}
