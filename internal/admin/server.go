package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/slipmux/internal/link"
	"github.com/danmuck/slipmux/internal/logging"
	"github.com/danmuck/slipmux/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options configures the admin surface. A non-empty Token is required as a
// bearer token on mutating routes.
type Options struct {
	CorsOrigins []string
	Token       string
}

// Server exposes health, link counters, a send hook, and metrics over HTTP.
type Server struct {
	name    string
	mux     *link.Multiplexer
	router  *gin.Engine
	started time.Time
	token   string
}

func New(name string, mux *link.Multiplexer, opts Options) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logging.Logger()))
	r.Use(observability.RequestMetricsMiddleware(name))
	if len(opts.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		name:    name,
		mux:     mux,
		router:  r,
		started: time.Now(),
		token:   opts.Token,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Infof("admin.Server listening addr=%q", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
