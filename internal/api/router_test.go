package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Topsis/internal/config"
	"github.com/MikeSquared-Agency/Topsis/internal/evaluation"
	"github.com/MikeSquared-Agency/Topsis/internal/store"
)

const modelsCSV = "Model,Accuracy,Latency\nbert,0.91,120\nt5,0.88,95\nllama,0.95,300\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter(token string) (http.Handler, *store.MemoryStore) {
	st := store.NewMemoryStore()
	svc := evaluation.NewService(st, nil, nil, "", discardLogger())
	cfg := config.ServerConfig{APIToken: token, MaxUploadBytes: 1 << 20}
	return NewRouter(svc, cfg, discardLogger()), st
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "-" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/evaluations", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateEvaluation_Success(t *testing.T) {
	router, _ := setupTestRouter("")

	req := uploadRequest(t, "models.csv", modelsCSV, map[string]string{"weights": "1,1", "impacts": "+,-"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Location"))

	var resp struct {
		ID      uuid.UUID   `json:"evaluation_id"`
		Status  string      `json:"status"`
		Rows    []ScoredRow `json:"rows"`
		Message string      `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, "bert", resp.Rows[0].Label)
	assert.Equal(t, "Success! Result generated.", resp.Message)
	for _, row := range resp.Rows {
		assert.GreaterOrEqual(t, row.Score, 0.0)
		assert.LessOrEqual(t, row.Score, 1.0)
	}

	// download the CSV
	req = httptest.NewRequest("GET", "/api/v1/evaluations/"+resp.ID.String()+"/result", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "result_models.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Model,Accuracy,Latency,Topsis Score,Rank\n"))
}

func TestCreateEvaluation_EmailWithoutMailer(t *testing.T) {
	router, _ := setupTestRouter("")

	req := uploadRequest(t, "models.csv", modelsCSV, map[string]string{
		"weights": "1,1", "impacts": "+,-", "email": "analyst@example.com",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp["message"], "email failed")
	assert.Equal(t, false, resp["delivered"])
}

func TestCreateEvaluation_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		weights string
		impacts string
		kind    string
	}{
		{"two columns", "Model,a\nx,1\n", "1", "+", "insufficient_columns"},
		{"non numeric", "Model,a,b\nx,1,abc\n", "1,1", "+,+", "non_numeric_data"},
		{"bad weights", modelsCSV, "1,w", "+,+", "invalid_weights"},
		{"count mismatch", modelsCSV, "1,1,1", "+,+", "cardinality_mismatch"},
		{"bad impact", modelsCSV, "1,1", "+,x", "invalid_impact"},
		{"empty file", "", "1,1", "+,+", evaluation.KindEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, st := setupTestRouter("")
			req := uploadRequest(t, "data.csv", tt.csv, map[string]string{"weights": tt.weights, "impacts": tt.impacts})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			var resp map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.kind, resp["kind"])
			assert.NotEmpty(t, resp["error"])

			id, err := uuid.Parse(resp["evaluation_id"])
			require.NoError(t, err)
			stored, _ := st.GetEvaluation(req.Context(), id)
			require.NotNil(t, stored)
			assert.Equal(t, store.StatusFailed, stored.Status)
		})
	}
}

func TestCreateEvaluation_BadUploads(t *testing.T) {
	router, _ := setupTestRouter("")

	t.Run("missing file", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "-", "", map[string]string{"weights": "1"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no file part")
	})

	t.Run("wrong extension", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "data.txt", modelsCSV, map[string]string{"weights": "1,1", "impacts": "+,+"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), ".csv")
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/evaluations", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateEvaluation_TooLarge(t *testing.T) {
	st := store.NewMemoryStore()
	svc := evaluation.NewService(st, nil, nil, "", discardLogger())
	router := NewRouter(svc, config.ServerConfig{MaxUploadBytes: 64}, discardLogger())

	big := "Model,a,b\n" + strings.Repeat("x,1,2\n", 100)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "big.csv", big, map[string]string{"weights": "1,1", "impacts": "+,+"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCalculateEndpoint_BodyTooLarge(t *testing.T) {
	svc := evaluation.NewService(store.NewMemoryStore(), nil, nil, "", discardLogger())
	router := NewRouter(svc, config.ServerConfig{MaxUploadBytes: 64}, discardLogger())

	body := `{"columns":["Model","a","b"],"rows":[` + strings.Repeat(`["x","1","2"],`, 20) + `["y","3","4"]],"weights":"1,1","impacts":"+,+"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/topsis", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCalculateEndpoint_SubnormalCells(t *testing.T) {
	router, _ := setupTestRouter("")

	body := `{"columns":["Model","a","b"],"rows":[["A","0","1"],["B","1e-310","2"],["C","2e-310","3"]],"weights":"1,1","impacts":"+,+"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/topsis", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CalculateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Rows, 3)
	assert.InDelta(t, 0.5, resp.Rows[1].Score, 1e-9)
	assert.Equal(t, 1, resp.Rows[2].Rank)
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]float64{"score": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to encode response")
}

func TestGetAndListEvaluations(t *testing.T) {
	router, _ := setupTestRouter("")

	for _, impacts := range []string{"+,-", "+,?"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "models.csv", modelsCSV, map[string]string{"weights": "1,1", "impacts": impacts}))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/evaluations", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var all []store.Evaluation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&all))
	require.Len(t, all, 2)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/evaluations?status=failed", nil))
	var failed []store.Evaluation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&failed))
	require.Len(t, failed, 1)
	assert.Equal(t, "invalid_impact", failed[0].ErrorKind)

	// failed evaluations have no result to download
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/evaluations/"+failed[0].ID.String()+"/result", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/evaluations/"+failed[0].ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/evaluations/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/evaluations/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/evaluations?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var stats store.EvaluationStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalCompleted)
	assert.Equal(t, 1, stats.TotalFailed)
}

func TestCalculateEndpoint(t *testing.T) {
	router, st := setupTestRouter("")

	body := `{"columns":["Model","a","b"],"rows":[["A","1","1"],["B","2","2"],["C","3","3"]],"weights":"1,1","impacts":"+,+"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/topsis", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CalculateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"Model", "a", "b", "Topsis Score", "Rank"}, resp.Columns)
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, 3, resp.Rows[0].Rank)
	assert.Equal(t, 1, resp.Rows[2].Rank)
	assert.Len(t, resp.IdealBest, 2)
	assert.True(t, resp.Rows[2].ParetoOptimal)
	assert.False(t, resp.Rows[0].ParetoOptimal)

	all, _ := st.ListEvaluations(httptest.NewRequest("GET", "/", nil).Context(), store.EvaluationFilter{})
	assert.Empty(t, all)

	w = httptest.NewRecorder()
	bad := `{"columns":["Model","a","b"],"rows":[["A","1","1"]],"weights":"1,1,1","impacts":"+,+"}`
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/topsis", strings.NewReader(bad)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "cardinality_mismatch")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/topsis", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenAuth(t *testing.T) {
	router, _ := setupTestRouter("test-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsRouter(t *testing.T) {
	router := NewMetricsRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
