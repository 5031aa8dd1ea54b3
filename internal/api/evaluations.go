package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Topsis/internal/evaluation"
	"github.com/MikeSquared-Agency/Topsis/internal/store"
	"github.com/MikeSquared-Agency/Topsis/internal/topsis"
)

type EvaluationsHandler struct {
	svc       *evaluation.Service
	maxUpload int64
	logger    *slog.Logger
}

func NewEvaluationsHandler(svc *evaluation.Service, maxUpload int64, logger *slog.Logger) *EvaluationsHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &EvaluationsHandler{svc: svc, maxUpload: maxUpload, logger: logger}
}

type ScoredRow struct {
	Label         string   `json:"label"`
	Values        []string `json:"values"`
	Score         float64  `json:"score"`
	Rank          int      `json:"rank"`
	ParetoOptimal bool     `json:"pareto_optimal"`
}

type EvaluationResponse struct {
	*store.Evaluation
	Rows    []ScoredRow `json:"rows,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Create accepts a multipart form with fields file, weights, impacts and an
// optional email.
func (h *EvaluationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file part"})
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no selected file"})
		return
	}

	res, err := h.svc.Submit(r.Context(), evaluation.Submission{
		Filename: header.Filename,
		Body:     file,
		Weights:  r.FormValue("weights"),
		Impacts:  r.FormValue("impacts"),
		Email:    r.FormValue("email"),
	})
	switch {
	case errors.Is(err, evaluation.ErrUnsupportedFile):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil && res != nil:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":         err.Error(),
			"kind":          res.Evaluation.ErrorKind,
			"evaluation_id": res.Evaluation.ID.String(),
		})
		return
	case err != nil:
		h.logger.Error("evaluation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp := EvaluationResponse{
		Evaluation: res.Evaluation,
		Rows:       scoredRows(res.Table),
		Message:    deliveryMessage(res.Evaluation),
	}
	w.Header().Set("Location", "/api/v1/evaluations/"+res.Evaluation.ID.String())
	writeJSON(w, http.StatusCreated, resp)
}

func deliveryMessage(e *store.Evaluation) string {
	switch {
	case e.Email == "":
		return "Success! Result generated."
	case e.Delivered:
		return fmt.Sprintf("Success! Result sent to %s", e.Email)
	default:
		return fmt.Sprintf("Success! Result generated, but email failed: %s", e.DeliveryError)
	}
}

func (h *EvaluationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EvaluationFilter{Email: q.Get("email")}
	if s := q.Get("status"); s != "" {
		status := store.EvaluationStatus(s)
		filter.Status = &status
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		filter.Offset = n
	}

	evals, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if evals == nil {
		evals = []*store.Evaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}

func (h *EvaluationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	eval, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

// Result streams the scored table as a CSV attachment.
func (h *EvaluationsHandler) Result(w http.ResponseWriter, r *http.Request) {
	eval, ok := h.load(w, r)
	if !ok {
		return
	}
	if eval.Status != store.StatusCompleted {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "evaluation has no result", "status": string(eval.Status)})
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "result_"+eval.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(eval.Result)
}

func (h *EvaluationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *EvaluationsHandler) load(w http.ResponseWriter, r *http.Request) (*store.Evaluation, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid evaluation id"})
		return nil, false
	}
	eval, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if eval == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "evaluation not found"})
		return nil, false
	}
	return eval, true
}

func scoredRows(st *topsis.ScoredTable) []ScoredRow {
	if st == nil {
		return nil
	}
	rows := make([]ScoredRow, len(st.Rows))
	for _, i := range st.Frontier() {
		rows[i].ParetoOptimal = true
	}
	for i, row := range st.Rows {
		rows[i].Label = row[0]
		rows[i].Values = row[1:]
		rows[i].Score = st.Scores[i]
		rows[i].Rank = st.Ranks[i]
	}
	return rows
}

// writeJSON encodes before writing the header so an unencodable value
// (a NaN, say) becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
