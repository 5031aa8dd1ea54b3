package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/Topsis/internal/evaluation"
	"github.com/MikeSquared-Agency/Topsis/internal/topsis"
)

// CalculateHandler scores a table posted as JSON without storing it.
type CalculateHandler struct {
	svc     *evaluation.Service
	maxBody int64
}

func NewCalculateHandler(svc *evaluation.Service, maxBody int64) *CalculateHandler {
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	return &CalculateHandler{svc: svc, maxBody: maxBody}
}

type CalculateRequest struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Weights string     `json:"weights"`
	Impacts string     `json:"impacts"`
}

type CalculateResponse struct {
	Columns         []string    `json:"columns"`
	Rows            []ScoredRow `json:"rows"`
	IdealBest       []float64   `json:"ideal_best"`
	IdealWorst      []float64   `json:"ideal_worst"`
	SeparationBest  []float64   `json:"separation_best"`
	SeparationWorst []float64   `json:"separation_worst"`
}

func (h *CalculateHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	st, err := h.svc.Calculate(topsis.DecisionTable{Columns: req.Columns, Rows: req.Rows}, req.Weights, req.Impacts)
	if err != nil {
		kind, _ := topsis.KindOf(err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error(), "kind": string(kind)})
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{
		Columns:         st.Header(),
		Rows:            scoredRows(st),
		IdealBest:       st.IdealBest,
		IdealWorst:      st.IdealWorst,
		SeparationBest:  st.SeparationBest,
		SeparationWorst: st.SeparationWorst,
	})
}
