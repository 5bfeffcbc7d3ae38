// Package web implements the HTTP server and HTML dashboard for ledgerdash.
// Each page corresponds to a navigator route: loading a page pushes its
// route, which mounts the view, and the view's snapshot is rendered.
// Mutating forms call the active view and redirect to wherever the
// navigator ended up.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"ledgerdash.mini/ldm/internal/docs"
	"ledgerdash.mini/ldm/internal/jsonx"
	"ledgerdash.mini/ldm/internal/ledgerapi"
	"ledgerdash.mini/ldm/internal/logger"
	"ledgerdash.mini/ldm/internal/metrics"
	"ledgerdash.mini/ldm/internal/navigator"
	"ledgerdash.mini/ldm/internal/types"
	"ledgerdash.mini/ldm/internal/views"
)

// Router is what the server needs from the navigator: route changes plus
// access to the mounted view.
type Router interface {
	navigator.Navigator
	Active() (navigator.Route, navigator.View)
}

// Options configures the server.
type Options struct {
	Port         int
	APIURL       string
	PollInterval time.Duration
	// RenderWait bounds how long a page render waits for the view's first
	// load before showing the loading state.
	RenderWait time.Duration
}

// TemplateData holds the data to be passed to the HTML templates.
type TemplateData struct {
	Route          navigator.Route
	Links          []navLink
	CurrentVersion string
	BuildTime      string
	APIURL         string
	PollInterval   time.Duration
	Notice         *logger.Message

	Wallet   *views.WalletState
	Chain    *views.ChainState
	Composer *views.ComposerState
	Pool     *views.PoolState

	DocList    []string
	DocContent template.HTML
	CurrentDoc string
}

type navLink struct {
	Route navigator.Route
	Label string
}

// noticeTTL is how long the latest notification stays on rendered pages.
const noticeTTL = 15 * time.Second

var menu = []navLink{
	{navigator.RouteHome, "Home"},
	{navigator.RouteChain, "Blockchain"},
	{navigator.RouteCompose, "Conduct a Transaction"},
	{navigator.RoutePool, "Transactions Pool"},
}

// Server is the web server for the dashboard and API.
type Server struct {
	nav        Router
	notes      *logger.Logger
	docService *docs.Service
	templates  *template.Template
	opts       Options
	httpServer *http.Server
}

// NewServer creates a new web server.
func NewServer(nav Router, notes *logger.Logger, docService *docs.Service, opts Options) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		nav:        nav,
		notes:      notes,
		docService: docService,
		templates:  templates,
		opts:       opts,
	}
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: s.Handler(),
	}
	return s, nil
}

// Handler returns the dashboard's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Page routes
	mux.HandleFunc("/", s.handlePage(navigator.RouteHome))
	mux.HandleFunc("/blockchain", s.handlePage(navigator.RouteChain))
	mux.HandleFunc("/blockchain/toggle", s.handleToggleBlock)
	mux.HandleFunc("/transact", s.handleTransact)
	mux.HandleFunc("/transactions-pool", s.handlePage(navigator.RoutePool))
	mux.HandleFunc("/transactions-pool/refresh", s.handleRefreshPool)
	mux.HandleFunc("/transactions-pool/mine", s.handleMine)
	mux.HandleFunc("/docs", s.handleDocs)

	// API routes
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/state", s.handleState)
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket routes
	mux.HandleFunc("/ws/pool", s.handlePoolWS)
	mux.HandleFunc("/ws/status", s.handleStatusWS)

	return mux
}

// Start runs the web server in the background.
func (s *Server) Start() <-chan error {
	log.Printf("Web UI: Starting dashboard on http://localhost:%d", s.opts.Port)

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
		close(errCh)
	}()

	return errCh
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// @Title: Page
// @Route: GET / | /blockchain | /transactions-pool
// @Description: Navigates to the route and renders its view
// @Response: HTML page
func (s *Server) handlePage(route navigator.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != string(route) {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.nav.Push(route)
		s.render(w, r, http.StatusOK)
	}
}

// @Title: Toggle Block
// @Route: POST /blockchain/toggle
// @Description: Expands or collapses one block's transactions
// @Response: 303 to /blockchain
func (s *Server) handleToggleBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.nav.Push(navigator.RouteChain)
	_, view := s.nav.Active()
	chain, ok := view.(*views.ChainView)
	if !ok {
		http.Error(w, "Chain view unavailable", http.StatusConflict)
		return
	}

	hash := r.FormValue("hash")
	if !chain.Toggle(hash) {
		log.Printf("web: toggle for unknown block %q ignored", hash)
	}
	http.Redirect(w, r, string(navigator.RouteChain)+"#block-"+hash, http.StatusSeeOther)
}

// @Title: Transact
// @Route: GET /transact | POST /transact
// @Description: Renders the composer, or submits recipient and amount from the form
// @Response: HTML page, or 303 to the route the composer navigated to
func (s *Server) handleTransact(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.nav.Push(navigator.RouteCompose)
		s.render(w, r, http.StatusOK)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.nav.Push(navigator.RouteCompose)
	_, view := s.nav.Active()
	composer, ok := view.(*views.ComposerView)
	if !ok {
		http.Error(w, "Composer unavailable", http.StatusConflict)
		return
	}

	composer.SetRecipient(r.FormValue("recipient"))
	composer.SetAmount(r.FormValue("amount"))
	if err := composer.Submit(r.Context()); err != nil {
		s.render(w, r, failureStatus(err))
		return
	}
	http.Redirect(w, r, string(s.nav.CurrentRoute()), http.StatusSeeOther)
}

// @Title: Refresh Pool
// @Route: POST /transactions-pool/refresh
// @Description: Polls the transaction pool immediately
// @Response: 303 to /transactions-pool
func (s *Server) handleRefreshPool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.nav.Push(navigator.RoutePool)
	_, view := s.nav.Active()
	if pool, ok := view.(*views.PoolView); ok {
		if err := pool.Refresh(); err != nil {
			log.Printf("web: pool refresh: %v", err)
		}
	}
	http.Redirect(w, r, string(navigator.RoutePool), http.StatusSeeOther)
}

// @Title: Mine
// @Route: POST /transactions-pool/mine
// @Description: Mines the pending pool into a new block
// @Response: 303 to /blockchain, or the pool page with the error
func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.nav.Push(navigator.RoutePool)
	_, view := s.nav.Active()
	pool, ok := view.(*views.PoolView)
	if !ok {
		http.Error(w, "Pool view unavailable", http.StatusConflict)
		return
	}

	if err := pool.Mine(r.Context()); err != nil {
		s.render(w, r, failureStatus(err))
		return
	}
	http.Redirect(w, r, string(s.nav.CurrentRoute()), http.StatusSeeOther)
}

// @Title: Docs
// @Route: GET /docs?doc=guide.adoc
// @Description: Renders a bundled guide page
// @Response: HTML page
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	docName := r.URL.Query().Get("doc")
	docList, err := s.docService.ListDocs()
	if err != nil {
		log.Printf("web: listing docs: %v", err)
	}
	if docName == "" && len(docList) > 0 {
		docName = docList[0]
	}

	var docContent string
	if docName != "" {
		content, err := s.docService.GetDoc(r.Context(), docName)
		if err != nil {
			s.notes.Warning(fmt.Sprintf("Failed to load doc %s: %v", docName, err))
		} else {
			docContent = content
		}
	}

	data := s.baseData(s.nav.CurrentRoute())
	data.DocList = docList
	data.DocContent = template.HTML(docContent)
	data.CurrentDoc = docName
	s.execute(w, http.StatusOK, data)
}

// @Title: Get Health
// @Route: GET /api/health
// @Description: Returns dashboard health status
// @Response: {"status": "ok"}
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// @Title: Get State
// @Route: GET /api/state
// @Description: Returns the current route and the active view's snapshot
// @Response: {"route": "/", "view": {...}}
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	route, view := s.nav.Active()
	writeJSON(w, http.StatusOK, stateMessage{Route: string(route), View: viewMessage(view)})
}

// render executes the layout for the active view. It waits up to
// RenderWait for the view's first load so a page load usually shows data.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int) {
	route, view := s.nav.Active()
	s.waitSettled(r.Context(), view)

	data := s.baseData(route)
	switch v := view.(type) {
	case *views.WalletView:
		snap := v.Snapshot()
		data.Wallet = &snap
	case *views.ChainView:
		snap := v.Snapshot()
		data.Chain = &snap
	case *views.ComposerView:
		snap := v.Snapshot()
		data.Composer = &snap
	case *views.PoolView:
		snap := v.Snapshot()
		data.Pool = &snap
	}
	s.execute(w, status, data)
}

type settler interface {
	Settled() <-chan struct{}
}

func (s *Server) waitSettled(ctx context.Context, view navigator.View) {
	sv, ok := view.(settler)
	if !ok || s.opts.RenderWait <= 0 {
		return
	}
	t := time.NewTimer(s.opts.RenderWait)
	defer t.Stop()

	select {
	case <-sv.Settled():
	case <-t.C:
	case <-ctx.Done():
	}
}

func (s *Server) baseData(route navigator.Route) TemplateData {
	data := TemplateData{
		Route:          route,
		Links:          menu,
		CurrentVersion: types.Version,
		BuildTime:      types.BuildTime,
		APIURL:         s.opts.APIURL,
		PollInterval:   s.opts.PollInterval,
	}
	if msg, ok := s.notes.Latest(); ok && time.Since(msg.Timestamp) < noticeTTL {
		data.Notice = &msg
	}
	return data
}

func (s *Server) execute(w http.ResponseWriter, status int, data TemplateData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		log.Printf("Error executing layout template: %s", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.setCacheHeaders(w)
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// failureStatus maps an action error onto the status of the re-rendered page.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, views.ErrBusy):
		return http.StatusConflict
	case ledgerapi.IsNetwork(err):
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

// setCacheHeaders sets cache-busting headers so every page load reflects
// the current view state.
func (s *Server) setCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonx.NewEncoder(w).Encode(data); err != nil {
		log.Printf("web: encoding response: %v", err)
	}
}
