package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleCollectionInfo reports the active collection and its point count.
func (s *Server) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.VectorStore()
	count, err := store.Count(r.Context())
	if err != nil {
		jsonError(w, "failed to count points: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"collection": store.Collection(),
		"points":     count,
	})
}

// handleDeleteDocument removes every stored point belonging to a document.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if docID == "" {
		jsonError(w, "docID is required", http.StatusBadRequest)
		return
	}

	store := s.orchestrator.VectorStore()
	if err := store.DeleteDocument(r.Context(), docID); err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	remaining, err := store.Count(r.Context())
	if err != nil {
		s.log.Warn("count after delete failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":           docID,
		"deleted":          true,
		"points_remaining": remaining,
	})
}
