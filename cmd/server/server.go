package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/geometry"
	"github.com/Simplici0/pouchquote/internal/logger"
	"github.com/Simplici0/pouchquote/internal/metrics"
	"github.com/Simplici0/pouchquote/internal/pricing"
)

const requestIDHeader = "X-Request-ID"

// engineBuilder turns stored reference data into a pricing engine.
type engineBuilder func(catalog.Catalog, pricing.RateCard) (*pricing.Engine, error)

type server struct {
	engine        atomic.Pointer[pricing.Engine]
	db            *sql.DB
	logger        *logger.Logger
	metrics       *metrics.QuoteMetrics
	defaultFXRate float64

	// Admin routes are mounted only when db, buildEngine and adminToken are set.
	buildEngine engineBuilder
	adminToken  string
	adminMu     sync.Mutex
}

func (s *server) routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID(s.logger))
	r.Use(requestLogging(s.logger))
	r.Use(recoverer(s.logger))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/materials", s.handleMaterials)
	r.Get("/rates", s.handleRates)
	r.Post("/quotes", s.handleQuote)
	r.Post("/quotes/text", s.handleQuoteText)
	if s.db != nil && s.buildEngine != nil && s.adminToken != "" {
		r.Route("/admin", s.adminRoutes)
	}
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			writeError(r.Context(), s.logger, w, fmt.Errorf("ping database: %w", err))
			return
		}
	}
	writeSuccess(w, map[string]string{"status": "ok"})
}

func (s *server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, newMaterialResponses(s.engine.Load().Catalog().Presets()))
}

func (s *server) handleRates(w http.ResponseWriter, r *http.Request) {
	engine := s.engine.Load()
	opts := engine.Options()
	writeSuccess(w, ratesResponse{
		PrintMode:     string(opts.PrintMode),
		FixedCostMode: string(opts.FixedCostMode),
		Rates:         engine.Rates(),
	})
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.quote(r)
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	writeSuccess(w, quote)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	quote, err := s.quote(r)
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(quoteText(quote)))
}

// quote decodes, prices and records one quote request.
func (s *server) quote(r *http.Request) (quoteResponse, error) {
	req, err := decodeQuoteRequest(r)
	if err != nil {
		s.metrics.IncRejected("")
		return quoteResponse{}, err
	}
	label := bagTypeLabel(req.Bag.Type)

	order, err := req.toOrder(s.defaultFXRate)
	if err != nil {
		s.metrics.IncRejected(label)
		return quoteResponse{}, err
	}
	engine := s.engine.Load()
	res, err := engine.Quote(order)
	if err != nil {
		s.metrics.IncRejected(label)
		return quoteResponse{}, err
	}

	s.metrics.ObserveQuote(label, res.Totals.UnitTotal)
	if s.logger != nil {
		s.logger.Debug(r.Context(), "quote.computed", map[string]any{
			"bag_type":   label,
			"quantity":   order.Quantity,
			"unit_total": res.Totals.UnitTotal,
		})
	}
	return newQuoteResponse(order, res, engine.Rates().Currency), nil
}

// bagTypeLabel keeps metric label values within the known bag types.
func bagTypeLabel(raw string) string {
	t, err := geometry.ParseBagType(raw)
	if err != nil {
		return ""
	}
	return string(t)
}

func requestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				})
			}

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			if logg != nil {
				logg.Info(ctx, "request.complete", map[string]any{
					"status":      rec.status,
					"duration_ms": time.Since(start).Milliseconds(),
				})
			}
		})
	}
}

func recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					writeError(r.Context(), logg, w, err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
