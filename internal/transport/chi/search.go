package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/request"
)

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var body QueryRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	req, err := s.searchRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, req)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryToDTO(&resp))
}

func (s *Server) searchRequest(body QueryRequest) (request.Request, error) {
	topK := s.defaultTopK
	if body.TopK != nil {
		if *body.TopK <= 0 || *body.TopK > s.maxTopK {
			return request.Request{}, fmt.Errorf("top_k must be between 1 and %d", s.maxTopK)
		}
		topK = *body.TopK
	}

	req, err := request.New(body.Query, topK, body.SimilarityThreshold, body.UseQuantum, body.FilterMetadata)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return req, nil
}

// Similar handles GET /similar/{id}?top_k=N.
func (s *Server) Similar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	topK, _, err := queryInt(r, "top_k")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must be an integer")
		return
	}

	results, err := s.search.Similar(r.Context(), id, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SimilarResponse{
		Success:          true,
		DocumentID:       id,
		SimilarDocuments: resultsToDTO(results),
		TotalFound:       len(results),
	})
}

// SearchStats handles GET /search/stats.
func (s *Server) SearchStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.search.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchStatsToDTO(&st))
}

// QuantumStats handles GET /quantum/stats.
func (s *Server) QuantumStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.search.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quantumStatsToDTO(st.Quantum))
}
