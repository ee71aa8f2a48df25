package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/method"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	"github.com/kailas-cloud/qubitchat/internal/logger"
)

// Request limits and defaults.
const (
	MaxMessageLength         = 2000
	DefaultMaxContextResults = 3
	MaxContextResults        = 10
	DefaultTemperature       = 0.7
	DefaultContextThreshold  = 0.3
	DefaultHistoryWindow     = 10
	DefaultMaxTokens         = 4000
)

const sessionMetaKey = "session_id"

// Request is one user message.
type Request struct {
	Message           string
	SessionID         string
	UseContext        bool
	ForceGeneral      bool
	MaxContextResults int
	// Temperature is nil when the caller did not set one.
	Temperature *float64
}

// Reply is the assistant answer with the context it was grounded on.
type Reply struct {
	Response    string
	SessionID   string
	ContextUsed bool
	Sources     []result.Result
	Method      method.Method
	Model       string
	Temperature float64
	Fallback    bool
	Duration    time.Duration
}

// Config tunes the chat pipeline.
type Config struct {
	Model             string
	Temperature       float64
	MaxTokens         int
	HistoryWindow     int
	ContextThreshold  float64
	MaxContextResults int
}

// Service answers user messages, optionally grounded on stored documents.
type Service struct {
	store     Store
	embed     Embedder
	quantum   Quantum
	completer domain.ChatCompleter
	history   History
	cfg       Config
}

// New creates a chat service. A nil completer leaves chat unconfigured and a nil
// history disables persistence of turns.
func New(
	store Store, embed Embedder, q Quantum,
	completer domain.ChatCompleter, history History, cfg Config,
) *Service {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.HistoryWindow < 0 {
		cfg.HistoryWindow = 0
	}
	if cfg.ContextThreshold == 0 {
		cfg.ContextThreshold = DefaultContextThreshold
	}
	if cfg.MaxContextResults <= 0 || cfg.MaxContextResults > MaxContextResults {
		cfg.MaxContextResults = DefaultMaxContextResults
	}
	return &Service{store: store, embed: embed, quantum: q, completer: completer, history: history, cfg: cfg}
}

// Configured reports whether a chat model is available.
func (s *Service) Configured() bool { return s.completer != nil }

// Reply answers a message and records both turns in the session history.
func (s *Service) Reply(ctx context.Context, req Request) (Reply, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if s.completer == nil {
		return Reply{}, domain.ErrChatNotConfigured
	}
	req, temperature, err := s.normalize(req)
	if err != nil {
		return Reply{}, err
	}

	out := Reply{
		SessionID:   req.SessionID,
		Sources:     []result.Result{},
		Method:      method.None,
		Model:       s.cfg.Model,
		Temperature: temperature,
	}

	if req.UseContext && !req.ForceGeneral {
		hits, m, err := s.retrieve(ctx, req)
		if err != nil {
			log.Warn("Context search failed, proceeding without context",
				zap.String("session_id", req.SessionID), zap.Error(err))
		} else if len(hits) > 0 {
			out.Sources = hits
			out.ContextUsed = true
			out.Method = m
		}
	}

	messages := []domain.ChatMessage{{Role: domain.RoleSystem, Content: systemPrompt(out.ContextUsed)}}
	messages = append(messages, s.recentTurns(ctx, req.SessionID)...)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: userPrompt(req.Message, contextText(out.Sources)),
	})

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Messages:    messages,
		Temperature: float32(temperature),
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, fmt.Errorf("chat completion: %w", err)
		}
		log.Error("Chat completion failed, using fallback reply",
			zap.String("session_id", req.SessionID), zap.Error(err))
		out.Response = FallbackReply
		out.Fallback = true
	} else {
		out.Response = res.Content
		if res.Model != "" {
			out.Model = res.Model
		}
	}

	now := time.Now()
	s.persist(ctx, []domain.Turn{
		{SessionID: req.SessionID, Role: domain.RoleUser, Content: req.Message, CreatedAt: now},
		{SessionID: req.SessionID, Role: domain.RoleAssistant, Content: out.Response, CreatedAt: now},
	})

	out.Duration = time.Since(start)
	log.Info("Chat reply generated",
		zap.String("session_id", req.SessionID),
		zap.Bool("context_used", out.ContextUsed),
		zap.Int("context_documents", len(out.Sources)),
		zap.String("method", string(out.Method)),
		zap.Bool("fallback", out.Fallback),
		zap.Duration("duration", out.Duration),
	)
	return out, nil
}

// History returns every stored turn of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if s.history == nil {
		return nil, domain.ErrSessionNotFound
	}
	turns, err := s.history.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	if len(turns) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return turns, nil
}

// DeleteSession removes the history of a session.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	if s.history == nil {
		return 0, domain.ErrSessionNotFound
	}
	n, err := s.history.DeleteSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return 0, domain.ErrSessionNotFound
	}
	return n, nil
}

func (s *Service) normalize(req Request) (Request, float64, error) {
	n := utf8.RuneCountInString(req.Message)
	if n == 0 || n > MaxMessageLength {
		return req, 0, fmt.Errorf("message must be 1..%d characters: %w", MaxMessageLength, domain.ErrInvalidRequest)
	}
	if req.MaxContextResults == 0 {
		req.MaxContextResults = s.cfg.MaxContextResults
	}
	if req.MaxContextResults < 1 || req.MaxContextResults > MaxContextResults {
		return req, 0, fmt.Errorf("max_context_results must be 1..%d: %w", MaxContextResults, domain.ErrInvalidRequest)
	}
	temperature := s.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 1 {
		return req, 0, fmt.Errorf("temperature must be in [0,1]: %w", domain.ErrInvalidRequest)
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return req, temperature, nil
}

// retrieve finds context chunks. Documents uploaded in the session are preferred;
// a session without its own documents searches the whole store.
func (s *Service) retrieve(ctx context.Context, req Request) ([]result.Result, method.Method, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("count documents: %w", err)
	}
	if total == 0 {
		return nil, method.None, nil
	}

	emb, err := s.embed.Embed(ctx, req.Message)
	if err != nil {
		return nil, "", fmt.Errorf("embed message: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	sessionFilter := map[string]string{sessionMetaKey: req.SessionID}

	if total > s.quantum.MaxSearchable() {
		hits, err := s.store.SimilaritySearch(ctx, emb.Embedding, req.MaxContextResults, sessionFilter)
		if err != nil {
			return nil, "", fmt.Errorf("classical context search: %w", err)
		}
		if len(hits) == 0 {
			hits, err = s.store.SimilaritySearch(ctx, emb.Embedding, req.MaxContextResults, nil)
			if err != nil {
				return nil, "", fmt.Errorf("classical context search: %w", err)
			}
		}
		return hits, method.Classical, nil
	}

	pool, err := s.contextPool(ctx, sessionFilter)
	if err != nil {
		return nil, "", err
	}

	p := s.quantum.Defaults()
	p.Threshold = s.cfg.ContextThreshold
	p.TopK = req.MaxContextResults
	outcome, hits, err := s.quantum.Search(ctx, emb.Embedding, pool, p)
	if err != nil {
		return nil, "", fmt.Errorf("quantum context search: %w", err)
	}
	return hits, outcome.Method(), nil
}

func (s *Service) contextPool(ctx context.Context, sessionFilter map[string]string) ([]domdoc.Record, error) {
	pool, err := s.store.All(ctx, sessionFilter)
	if err != nil {
		return nil, fmt.Errorf("load session documents: %w", err)
	}
	if len(pool) > 0 {
		return pool, nil
	}
	pool, err = s.store.All(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return pool, nil
}

func (s *Service) recentTurns(ctx context.Context, sessionID string) []domain.ChatMessage {
	if s.history == nil || s.cfg.HistoryWindow == 0 {
		return nil
	}
	turns, err := s.history.Recent(ctx, sessionID, s.cfg.HistoryWindow)
	if err != nil {
		logger.FromContext(ctx).Warn("Load chat history failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	msgs := make([]domain.ChatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, domain.ChatMessage{Role: t.Role, Content: t.Content})
	}
	return msgs
}

func (s *Service) persist(ctx context.Context, turns []domain.Turn) {
	if s.history == nil {
		return
	}
	// The reply is already generated; a cancelled request should still be recorded.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.history.Append(pctx, turns...); err != nil && !errors.Is(err, context.Canceled) {
		logger.FromContext(ctx).Warn("Persist chat turns failed",
			zap.String("session_id", turns[0].SessionID), zap.Error(err))
	}
}
