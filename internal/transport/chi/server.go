package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/request"
	"github.com/kailas-cloud/qubitchat/internal/metrics"
	chatuc "github.com/kailas-cloud/qubitchat/internal/usecase/chat"
	documentuc "github.com/kailas-cloud/qubitchat/internal/usecase/document"
	healthuc "github.com/kailas-cloud/qubitchat/internal/usecase/health"
	searchuc "github.com/kailas-cloud/qubitchat/internal/usecase/search"
	usageuc "github.com/kailas-cloud/qubitchat/internal/usecase/usage"
)

// DefaultMaxBodyBytes caps request bodies; ingestion adds the text limit on top.
const DefaultMaxBodyBytes = 1 << 20

// Server holds the HTTP handlers of the API.
type Server struct {
	documents     *documentuc.Service
	search        *searchuc.Service
	chat          *chatuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler

	maxBodyBytes int64
	defaultTopK  int
	maxTopK      int
	version      string
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	search *searchuc.Service,
	chat *chatuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		documents:     documents,
		search:        search,
		chat:          chat,
		usage:         usage,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
		maxBodyBytes:  DefaultMaxBodyBytes + documentuc.DefaultMaxTextBytes,
		defaultTopK:   request.DefaultTopK,
		maxTopK:       request.MaxTopK,
		version:       "dev",
	}
}

// WithMaxBodyBytes limits the size of request bodies.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// WithTopK sets the default and maximum top_k for POST /query.
func (s *Server) WithTopK(def, maxK int) *Server {
	if maxK > 0 && maxK <= request.MaxTopK {
		s.maxTopK = maxK
	}
	if def > 0 && def <= s.maxTopK {
		s.defaultTopK = def
	}
	return s
}

// WithVersion sets the version reported by /health.
func (s *Server) WithVersion(v string) *Server {
	s.version = v
	return s
}

// RouterConfig configures the middleware stack.
type RouterConfig struct {
	APIKeys []string
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.IngestDocument)
		r.Get("/", s.ListDocuments)
		r.Delete("/", s.ClearDocuments)
		r.Get("/stats", s.DocumentStats)
		r.Get("/{id}", s.GetDocument)
		r.Delete("/{id}", s.DeleteDocument)
	})

	r.Post("/query", s.Query)
	r.Get("/similar/{id}", s.Similar)
	r.Get("/search/stats", s.SearchStats)
	r.Get("/quantum/stats", s.QuantumStats)

	r.Post("/chat", s.Chat)
	r.Get("/chat/{session}/history", s.ChatHistory)
	r.Delete("/chat/{session}", s.DeleteChatSession)

	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// decodeJSON reads a JSON body. It writes the error response itself and returns false on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, err //nolint:wrapcheck // reported as a 400 by the caller
	}
	return v, true, nil
}
