package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/openapi"
)

// shutdownTimeout bounds the graceful shutdown of the document server.
const shutdownTimeout = 10 * time.Second

// newServeHandler routes the OpenAPI document, the metrics of reg and a
// health check.
func newServeHandler(doc *openapi.Document, reg *prometheus.Registry, logger meta.Logger) (http.Handler, error) {
	docs, err := openapi.Handler(doc)
	if err != nil {
		return nil, err
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/", docs)
	return r, nil
}

// requestLogger logs every request at debug level.
func requestLogger(logger meta.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func newServeCommand(root *rootFlags) *cobra.Command {
	var (
		addr   string
		routes []string
	)
	cmd := &cobra.Command{
		Use:   "serve <declarations>",
		Short: "Serve the OpenAPI document over HTTP",
		Long: `Assembles the OpenAPI document once and serves it at /openapi.json and
/openapi.yaml, with Prometheus metrics at /metrics and a health check at
/healthz. Stops gracefully on SIGINT or SIGTERM.`,
		Example: `  dtoapi serve declarations.yaml --addr :9090`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd, root, args[0])
			if err != nil {
				return err
			}
			doc, err := buildDocument(e, routes)
			if err != nil {
				return err
			}
			e.metrics.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			handler, err := newServeHandler(doc, e.metrics, e.logger)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			return listenAndServe(cmd.Context(), srv, e.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringArrayVarP(&routes, "route", "r", nil, `bind an operation, as "METHOD /path=operation" (repeatable)`)
	return cmd
}

// listenAndServe runs srv until ctx is canceled, then shuts it down.
func listenAndServe(ctx context.Context, srv *http.Server, logger meta.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("serving OpenAPI document", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
