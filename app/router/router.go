package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"print-area-pricing/app/controller"
	"print-area-pricing/logger"
)

type Controllers struct {
	Pricing *controller.PricingController
	Config  *controller.ConfigController
}

// Options configures the router
type Options struct {
	Metrics        http.Handler // served on /metrics when set
	AdminToken     string       // admin routes answer 403 while empty
	RequestTimeout time.Duration
	Log            *zap.Logger
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// New builds the HTTP handler of the service
func New(controllers *Controllers, opts Options) http.Handler {
	log := logger.OrNop(opts.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/ping", pingHandler)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/pricing", func(r chi.Router) {
			r.Post("/objects", controllers.Pricing.PriceObject)
			r.Post("/sides", controllers.Pricing.PriceSide)
			r.Post("/summary", controllers.Pricing.PriceSummary)
			r.Post("/manifest", controllers.Pricing.Manifest)
			r.Post("/quote-sheet", controllers.Pricing.QuoteSheet)
			r.Get("/config", controllers.Config.GetConfig)
		})

		r.Get("/products/{productID}/sides", controllers.Pricing.ProductSides)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth(opts.AdminToken))
			r.Put("/pricing/config", controllers.Config.UpdateConfig)
		})
	})

	return r
}

// adminAuth accepts "Authorization: Bearer <token>"
func adminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, "admin routes are disabled", http.StatusForbidden)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(started)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Error("request", fields...)
				return
			}
			log.Info("request", fields...)
		})
	}
}
