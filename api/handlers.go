package api

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"

	"mixaudit/domain/analysis"
	"mixaudit/domain/feed"
	"mixaudit/internal/errors"

	"mixaudit/app"
)

// AnalyzeRequest carries one analysis run over the wire. Optional knobs
// fall back to the server's configured defaults when omitted.
type AnalyzeRequest struct {
	Table          feed.RawTable          `json:"table"`
	Columns        *feed.ColumnSchema     `json:"columns,omitempty"`
	Filter         feed.FilterParams      `json:"filter"`
	Weights        feed.RelativeWeightMap `json:"weights,omitempty"`
	Threshold      *float64               `json:"threshold,omitempty"`
	BucketStep     *float64               `json:"bucket_step,omitempty"`
	ExclusionMode  string                 `json:"exclusion_mode,omitempty"`
	RemoveOutliers bool                   `json:"remove_outliers"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDefaults reports the server's analysis profile so clients can
// mirror the defaults the UI applies.
func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns":  s.cfg.Columns,
		"analysis": s.cfg.Analysis,
		"slider":   s.cfg.Slider,
	})
}

// handleAnalyze runs one analysis over a JSON-supplied table and
// returns the full result, warnings included.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if req.Table.IsEmpty() && len(req.Table.Headers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "table is required"})
		return
	}

	schema := s.cfg.Columns
	if req.Columns != nil {
		schema = *req.Columns
	}
	threshold := s.cfg.Analysis.ToleranceThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	bucketStep := s.cfg.Analysis.BucketStep
	if req.BucketStep != nil {
		bucketStep = *req.BucketStep
	}
	mode := analysis.ExclusionMode(req.ExclusionMode)
	if !mode.Valid() {
		mode = s.cfg.Analysis.Mode()
	}

	result, err := s.service.Run(r.Context(), app.AnalysisRequest{
		Table:          req.Table,
		Schema:         schema,
		Filter:         req.Filter,
		Weights:        req.Weights,
		Threshold:      threshold,
		BucketStep:     bucketStep,
		Mode:           mode,
		RemoveOutliers: req.RemoveOutliers,
	})
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeRunError maps pipeline failures onto HTTP statuses: missing
// columns and bad input are client errors, anything else is a 500.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	var missing *analysis.MissingColumnError
	if stderrors.As(err, &missing) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   missing.Error(),
			Columns: missing.Columns,
		})
		return
	}
	if code := errors.GetCode(err); code == errors.CodeInvalidInput {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: code})
		return
	}
	log.Printf("[handleAnalyze] Run failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
