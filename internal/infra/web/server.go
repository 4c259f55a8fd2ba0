package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ecommerce-payments/internal/config"
	"ecommerce-payments/internal/domain/ports/repository"
	"ecommerce-payments/internal/usecase"
)

// IdempotencyStore is what the charge endpoint needs from the redis-backed
// store; declared here so tests can use an in-memory fake.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key string, response []byte) error
	Lookup(ctx context.Context, key string) (response string, inFlight bool, found bool, err error)
	Release(ctx context.Context, key string) error
}

type Server struct {
	processor usecase.PaymentProcessor
	responses repository.ProcessorResponseRepository
	idem      IdempotencyStore
	auth      *AuthManager
	apiKey    string
	log       *zerolog.Logger
	srv       *http.Server
}

func NewServer(
	cfg *config.ServerConfig,
	processor usecase.PaymentProcessor,
	responses repository.ProcessorResponseRepository,
	idem IdempotencyStore,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		processor: processor,
		responses: responses,
		idem:      idem,
		auth:      NewAuthManager(cfg.JWTSecret, cfg.JWTTTL),
		apiKey:    cfg.APIKey,
		log:       logger,
	}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Router(),
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIKey)
			r.Post("/charges", s.handleCharge)
			r.Post("/refunds", s.handleRefund)
			r.Post("/auth/token", s.handleMintToken)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireReconToken)
			r.Get("/responses", s.handleListResponses)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// requireAPIKey guards the service-to-service endpoints with a static bearer key.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("server api key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		hdr := r.Header.Get("Authorization")
		parts := strings.SplitN(hdr, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if parts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireReconToken guards the reconciliation surface with short-lived JWTs.
func (s *Server) requireReconToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
