// Package api serves the sdinode REST and SSE API with huma.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/sdinode/internal/events"
	"github.com/smazurov/sdinode/internal/led"
	"github.com/smazurov/sdinode/internal/logging"
	"github.com/smazurov/sdinode/internal/receiver"
	"github.com/smazurov/sdinode/internal/systemd"
)

const authRealm = `Basic realm="sdinode API"`

// Receiver is the receiver service as seen by the API.
type Receiver interface {
	Status() receiver.Status
	SetInterruptMask(lock, unlock bool)
	InterruptMask() (lock, unlock bool)
}

// ServiceManager controls the systemd unit sdinode runs under.
type ServiceManager interface {
	Unit() string
	Status(ctx context.Context) (systemd.UnitStatus, error)
	Restart(ctx context.Context) error
}

// Options configures the API server. Nil optional dependencies disable
// their routes.
type Options struct {
	AuthUsername string
	AuthPassword string

	Receiver          Receiver
	EventBus          *events.Bus
	LEDController     led.Controller   // Optional
	ServiceManager    ServiceManager   // Optional
	PrometheusHandler http.Handler     // Optional, served at /metrics without auth
	History           *logging.History // Optional, defaults to logging.GetHistory()
}

// Server is the huma API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	mu         sync.Mutex
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	history    *logging.History
	logger     *slog.Logger
}

// NewServer creates the API server and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("sdinode API", "1.0.0")
	config.Info.Description = "SDI receiver lock state, detected format and interrupt control"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	history := opts.History
	if history == nil {
		history = logging.GetHistory()
	}

	s := &Server{
		api:      api,
		mux:      mux,
		options:  opts,
		eventBus: opts.EventBus,
		history:  history,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(s.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	if s.eventBus != nil {
		bus := s.eventBus
		history.OnAppend(func(e logging.Entry) { bus.Publish(LogEntryEvent(e)) })
	}

	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// API returns the huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	ln, err := s.listen(addr)
	if err != nil {
		return err
	}
	return s.serve(ln)
}

// Stop closes the listener and all connections, SSE streams included.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		return srv.Close()
	}
	return nil
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := s.listen(addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.Stop(); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	s.logger.Info("Starting API server", "addr", ln.Addr().String())
	s.logger.Info("OpenAPI documentation available", "url", "http://"+ln.Addr().String()+"/docs")
	return ln, nil
}

func (s *Server) serve(ln net.Listener) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	return srv.Serve(ln)
}

func (s *Server) registerRoutes() {
	s.registerSystemRoutes()
	s.registerReceiverRoutes()
	s.registerFormatRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerLEDRoutes()
	s.registerSystemdRoutes()
}

// basicAuthMiddleware checks credentials on operations that declare a
// security requirement. EventSource clients cannot set headers, so the
// base64 credentials are also accepted in the "auth" query parameter.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		user, pass, problem := credentials(ctx)
		if problem != "" {
			ctx.SetHeader("WWW-Authenticate", authRealm)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, problem)
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !userOK || !passOK {
			ctx.SetHeader("WWW-Authenticate", authRealm)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

// credentials extracts the basic auth pair. problem describes why none
// could be read.
func credentials(ctx huma.Context) (user, pass, problem string) {
	encoded := ctx.Query("auth")
	if header := ctx.Header("Authorization"); header != "" {
		const prefix = "Basic "
		if !strings.HasPrefix(header, prefix) {
			return "", "", "Invalid authentication type"
		}
		encoded = header[len(prefix):]
	}
	if encoded == "" {
		return "", "", "Authentication required"
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", "Invalid credentials format"
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", "Invalid credentials format"
	}
	return user, pass, ""
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}

// noAuth marks an operation as public.
func noAuth() []map[string][]string {
	return []map[string][]string{}
}
