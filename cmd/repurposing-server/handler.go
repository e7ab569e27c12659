// Command repurposing-server exposes the drug-repurposing decision-support
// workflow over HTTP: POST /query plus four read-back endpoints.
// Deliberately thin — routing is the only concern here; authentication,
// authorization, and session management are named out-of-scope collaborators
// this handler assumes run in front of it (a gateway or sidecar).
// Grounded on cmd/workflow-service/main_test.go's
// createWorkflowHTTPHandler(service, logger) shape.
package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/orchestrator"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

type server struct {
	orch   *orchestrator.Orchestrator
	logger *logrus.Logger
}

func newHandler(orch *orchestrator.Orchestrator, logger *logrus.Logger) http.Handler {
	s := &server{orch: orch, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/query", s.handleQuery)
	r.Get("/reports/{id}/audit", s.handleAudit)
	r.Get("/reports/{id}/graph", s.handleGraph)
	r.Get("/reports/{id}/citations", s.handleCitations)
	r.Get("/reports/{id}/pdf", s.handlePDF)

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

type queryRequest struct {
	Text                string  `json:"text"`
	MaxCandidates       int     `json:"max_candidates"`
	MinConfidence       float64 `json:"min_confidence"`
	IncludeExperimental bool    `json:"include_experimental"`
	DrugHint            string  `json:"drug_hint"`
	DiseaseHint         string  `json:"disease_hint"`
	UserID              string  `json:"user_id"`
	RequestID           string  `json:"request_id"`
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text must not be empty")
		return
	}
	if req.MaxCandidates <= 0 {
		req.MaxCandidates = 10
	}

	query := domain.Query{
		Text:                req.Text,
		MaxCandidates:       req.MaxCandidates,
		MinConfidence:       req.MinConfidence,
		IncludeExperimental: req.IncludeExperimental,
		DrugHint:            req.DrugHint,
		DiseaseHint:         req.DiseaseHint,
	}

	state, err := s.orch.Run(r.Context(), query, req.UserID, req.RequestID)
	if err != nil {
		s.writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQueryResponse(state))
}

func (s *server) handleAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, ok := s.orch.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown report id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request_id":    state.RequestID,
		"stage_history": state.StageHistory,
		"errors":        state.Errors,
		"approved":      state.WorkflowApproved,
		"safety_result": state.SafetyResult,
	})
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, ok := s.orch.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown report id")
		return
	}
	writeJSON(w, http.StatusOK, graphProjection(state))
}

func (s *server) handleCitations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, ok := s.orch.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown report id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"citations": state.LiteratureCitations})
}

func (s *server) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, ok := s.orch.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown report id")
		return
	}
	// PDF rendering is an out-of-scope collaborator; this
	// endpoint reports that the report exists and is renderable rather
	// than generating a document itself.
	writeJSON(w, http.StatusOK, map[string]interface{}{"request_id": id, "renderable": true})
}

func (s *server) writeCoreError(w http.ResponseWriter, err error) {
	switch coreerrors.KindOf(err) {
	case coreerrors.KindInputInvalid:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case coreerrors.KindCancelled:
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case coreerrors.KindStageInputMissing, coreerrors.KindStageOutputMissing:
		if s.logger != nil {
			s.logger.WithError(err).Error("programming error in stage pipeline")
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
