package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	documentuc "github.com/kailas-cloud/qubitchat/internal/usecase/document"
)

// IngestDocument handles POST /documents.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "source is required")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.documents.Ingest(ctx, documentuc.Source{
		Name:      req.Source,
		Text:      req.Text,
		Metadata:  req.Metadata,
		SessionID: req.SessionID,
	})
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		Success:     true,
		Source:      res.Source,
		ContentHash: res.ContentHash,
		DocumentIDs: res.DocumentIDs,
		Chunks:      len(res.DocumentIDs),
		TotalTokens: res.TotalTokens,
	})
}

// ListDocuments handles GET /documents. Query parameters filter on metadata.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var filter map[string]string
	if q := r.URL.Query(); len(q) > 0 {
		filter = make(map[string]string, len(q))
		for k, v := range q {
			filter[k] = v[0]
		}
	}

	recs, err := s.documents.List(r.Context(), filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DocumentResponse, len(recs))
	for i := range recs {
		items[i] = documentToDTO(&recs[i])
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	rec, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&rec))
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	n, err := s.documents.Delete(r.Context(), []string{chi.URLParam(r, "id")})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if n == 0 {
		s.handleDomainError(w, domain.ErrDocumentNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearDocuments handles DELETE /documents.
func (s *Server) ClearDocuments(w http.ResponseWriter, r *http.Request) {
	n, err := s.documents.Clear(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Deleted: n})
}

// DocumentStats handles GET /documents/stats.
func (s *Server) DocumentStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.documents.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	keys := st.SampleMetadataKeys
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, StoreStatsResponse{
		TotalDocuments:     st.TotalDocuments,
		HasData:            st.HasData,
		SampleMetadataKeys: keys,
	})
}
