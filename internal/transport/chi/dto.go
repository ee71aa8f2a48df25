package chi

import (
	"time"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	chatuc "github.com/kailas-cloud/qubitchat/internal/usecase/chat"
	"github.com/kailas-cloud/qubitchat/internal/usecase/quantum"
	searchuc "github.com/kailas-cloud/qubitchat/internal/usecase/search"
)

// IngestRequest is the body of POST /documents.
type IngestRequest struct {
	Source    string            `json:"source"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
}

// IngestResponse reports the stored chunks of one source.
type IngestResponse struct {
	Success     bool     `json:"success"`
	Source      string   `json:"source"`
	ContentHash string   `json:"content_hash"`
	DocumentIDs []string `json:"document_ids"`
	Chunks      int      `json:"chunks"`
	TotalTokens int      `json:"total_tokens"`
}

// DocumentResponse is one stored chunk.
type DocumentResponse struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
}

// DocumentListResponse wraps GET /documents.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

// DeleteResponse reports how many records were removed.
type DeleteResponse struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

// StoreStatsResponse describes the vector store.
type StoreStatsResponse struct {
	TotalDocuments     int      `json:"total_documents"`
	HasData            bool     `json:"has_data"`
	SampleMetadataKeys []string `json:"sample_metadata_keys"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query               string            `json:"query"`
	TopK                *int              `json:"top_k,omitempty"`
	SimilarityThreshold *float64          `json:"similarity_threshold,omitempty"`
	UseQuantum          *bool             `json:"use_quantum,omitempty"`
	FilterMetadata      map[string]string `json:"filter_metadata,omitempty"`
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	ID                 string            `json:"id"`
	Document           string            `json:"document"`
	Metadata           map[string]string `json:"metadata"`
	SimilarityScore    float64           `json:"similarity_score"`
	QuantumProbability *float64          `json:"quantum_probability,omitempty"`
	EnhancedScore      float64           `json:"enhanced_score"`
	SearchMethod       string            `json:"search_method"`
}

// QueryResponse is the answer to POST /query.
type QueryResponse struct {
	Success             bool               `json:"success"`
	Query               string             `json:"query"`
	Results             []SearchResultItem `json:"results"`
	TotalResults        int                `json:"total_results"`
	SearchMethod        string             `json:"search_method"`
	QuantumOutcome      string             `json:"quantum_outcome,omitempty"`
	QuantumEnabled      bool               `json:"quantum_enabled"`
	TotalDocuments      int                `json:"total_documents"`
	SimilarityThreshold float64            `json:"similarity_threshold"`
	EmbeddingModel      string             `json:"embedding_model,omitempty"`
	ProcessingTimeMs    float64            `json:"processing_time_ms"`
	Message             string             `json:"message,omitempty"`
}

// SimilarResponse is the answer to GET /similar/{id}.
type SimilarResponse struct {
	Success          bool               `json:"success"`
	DocumentID       string             `json:"document_id"`
	SimilarDocuments []SearchResultItem `json:"similar_documents"`
	TotalFound       int                `json:"total_found"`
}

// QuantumStatsResponse describes the quantum search configuration.
type QuantumStatsResponse struct {
	Service            string  `json:"service"`
	Algorithm          string  `json:"algorithm"`
	Simulator          string  `json:"simulator"`
	MaxQubits          int     `json:"max_qubits"`
	Shots              int     `json:"shots"`
	MaxSearchableItems int     `json:"max_searchable_items"`
	MinIterations      int     `json:"min_iterations"`
	MaxIterations      int     `json:"max_iterations"`
	BoostFactor        float64 `json:"boost_factor"`
	Threshold          float64 `json:"similarity_threshold"`
	Status             string  `json:"status"`
}

// SearchStatsResponse combines store, quantum and pipeline information.
type SearchStatsResponse struct {
	VectorStore struct {
		TotalDocuments int  `json:"total_documents"`
		HasData        bool `json:"has_data"`
	} `json:"vector_store"`
	QuantumSearch    QuantumStatsResponse `json:"quantum_search"`
	EmbeddingService struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
	} `json:"embedding_service"`
	SearchCapabilities struct {
		MaxQuantumDocuments int `json:"max_quantum_documents"`
		MaxResultsPerQuery  int `json:"max_results_per_query"`
	} `json:"search_capabilities"`
	Performance struct {
		ChunkSize    int     `json:"chunk_size"`
		ChunkOverlap int     `json:"chunk_overlap"`
		BoostFactor  float64 `json:"quantum_boost_factor"`
	} `json:"performance"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message           string   `json:"message"`
	SessionID         string   `json:"session_id,omitempty"`
	UseContext        *bool    `json:"use_context,omitempty"`
	ForceGeneral      bool     `json:"force_general,omitempty"`
	MaxContextResults int      `json:"max_context_results,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
}

// ChatMetadata describes how a reply was produced.
type ChatMetadata struct {
	Model            string    `json:"model"`
	Temperature      float64   `json:"temperature"`
	ContextDocuments int       `json:"context_documents"`
	SearchMethod     string    `json:"search_method"`
	Fallback         bool      `json:"fallback"`
	Timestamp        time.Time `json:"timestamp"`
}

// ChatResponse is the answer to POST /chat.
type ChatResponse struct {
	Success          bool               `json:"success"`
	Response         string             `json:"response"`
	SessionID        string             `json:"session_id"`
	ContextUsed      bool               `json:"context_used"`
	ContextSources   []SearchResultItem `json:"context_sources"`
	ProcessingTimeMs float64            `json:"processing_time_ms"`
	Metadata         ChatMetadata       `json:"metadata"`
}

// TurnResponse is one stored chat message.
type TurnResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse lists a session's messages.
type HistoryResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []TurnResponse `json:"turns"`
}

// UsageResponse is the answer to GET /usage.
type UsageResponse struct {
	Period        string    `json:"period"`
	PeriodStartAt time.Time `json:"period_start_at"`
	PeriodEndAt   time.Time `json:"period_end_at"`
	Usage         struct {
		EmbeddingRequests int64 `json:"embedding_requests"`
		Tokens            int64 `json:"tokens"`
	} `json:"usage"`
	Budget struct {
		TokensLimit     int64     `json:"tokens_limit"`
		TokensRemaining int64     `json:"tokens_remaining"`
		IsExhausted     bool      `json:"is_exhausted"`
		ResetsAt        time.Time `json:"resets_at"`
	} `json:"budget"`
}

// HealthResponse is the answer to GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

func documentToDTO(rec *domdoc.Record) DocumentResponse {
	meta := rec.Metadata()
	if meta == nil {
		meta = map[string]string{}
	}
	return DocumentResponse{ID: rec.ID(), Document: rec.Text(), Metadata: meta}
}

func resultsToDTO(rs []result.Result) []SearchResultItem {
	out := make([]SearchResultItem, len(rs))
	for i := range rs {
		out[i] = resultToDTO(&rs[i])
	}
	return out
}

func resultToDTO(r *result.Result) SearchResultItem {
	meta := r.Metadata()
	if meta == nil {
		meta = map[string]string{}
	}
	item := SearchResultItem{
		ID:              r.ID(),
		Document:        r.Text(),
		Metadata:        meta,
		SimilarityScore: r.ClassicalSimilarity(),
		EnhancedScore:   r.EnhancedScore(),
		SearchMethod:    string(r.Method()),
	}
	if p, ok := r.QuantumProbability(); ok {
		item.QuantumProbability = &p
	}
	return item
}

func queryToDTO(resp *searchuc.Response) QueryResponse {
	return QueryResponse{
		Success:             true,
		Query:               resp.Query,
		Results:             resultsToDTO(resp.Results),
		TotalResults:        len(resp.Results),
		SearchMethod:        string(resp.Method),
		QuantumOutcome:      string(resp.Outcome),
		QuantumEnabled:      resp.QuantumEnabled,
		TotalDocuments:      resp.TotalDocuments,
		SimilarityThreshold: resp.Threshold,
		EmbeddingModel:      resp.Model,
		ProcessingTimeMs:    millis(resp.Duration),
		Message:             resp.Message,
	}
}

func quantumStatsToDTO(st quantum.Stats) QuantumStatsResponse {
	return QuantumStatsResponse{
		Service:            st.Service,
		Algorithm:          st.Algorithm,
		Simulator:          st.Simulator,
		MaxQubits:          st.MaxQubits,
		Shots:              st.Shots,
		MaxSearchableItems: st.MaxSearchableItems,
		MinIterations:      st.MinIterations,
		MaxIterations:      st.MaxIterations,
		BoostFactor:        st.BoostFactor,
		Threshold:          st.Threshold,
		Status:             st.Status,
	}
}

func searchStatsToDTO(st *searchuc.Stats) SearchStatsResponse {
	var resp SearchStatsResponse
	resp.VectorStore.TotalDocuments = st.TotalDocuments
	resp.VectorStore.HasData = st.HasData
	resp.QuantumSearch = quantumStatsToDTO(st.Quantum)
	resp.EmbeddingService.Provider = st.Settings.Provider
	resp.EmbeddingService.Model = st.Settings.Model
	resp.SearchCapabilities.MaxQuantumDocuments = st.Quantum.MaxSearchableItems
	resp.SearchCapabilities.MaxResultsPerQuery = st.MaxTopK
	resp.Performance.ChunkSize = st.Settings.ChunkSize
	resp.Performance.ChunkOverlap = st.Settings.ChunkOverlap
	resp.Performance.BoostFactor = st.Quantum.BoostFactor
	return resp
}

func chatToDTO(r *chatuc.Reply) ChatResponse {
	return ChatResponse{
		Success:          true,
		Response:         r.Response,
		SessionID:        r.SessionID,
		ContextUsed:      r.ContextUsed,
		ContextSources:   resultsToDTO(r.Sources),
		ProcessingTimeMs: millis(r.Duration),
		Metadata: ChatMetadata{
			Model:            r.Model,
			Temperature:      r.Temperature,
			ContextDocuments: len(r.Sources),
			SearchMethod:     string(r.Method),
			Fallback:         r.Fallback,
			Timestamp:        time.Now().UTC(),
		},
	}
}

func historyToDTO(sessionID string, turns []domain.Turn) HistoryResponse {
	out := HistoryResponse{SessionID: sessionID, Turns: make([]TurnResponse, len(turns))}
	for i, t := range turns {
		out.Turns[i] = TurnResponse{Role: string(t.Role), Content: t.Content, CreatedAt: t.CreatedAt}
	}
	return out
}

// millis rounds a duration to milliseconds with two decimals.
func millis(d time.Duration) float64 {
	return float64(d.Microseconds()/10) / 100
}
