package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/exactmatch"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/patternml"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/rules"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/validator"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

func newTestEngine(t *testing.T) (*gin.Engine, *PredictionHandler, *SystemHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	index := exactmatch.NewIndex(nil)
	index.Train([]rxn.Record{
		{Reactants: []string{"H", "H"}, Products: []string{"H2"}},
		{Reactants: []string{"Na", "Cl"}, Products: []string{"NaCl"}},
	})
	classifier := patternml.NewClassifier(nil)
	router := prediction.NewRouter(prediction.RouterConfig{PatternThreshold: 70},
		index, classifier, nil, rules.NewEngine(), nil, nil)
	svc := prediction.NewService(router, validator.New(nil), nil)
	trainer := prediction.NewTrainer(index, classifier, "", nil)

	ph := NewPredictionHandler(svc, trainer, nil)
	sh := NewSystemHandler("test")

	r := gin.New()
	r.GET("/healthz", sh.Liveness)
	r.GET("/readyz", sh.Readiness)
	api := r.Group("/api/v1")
	api.GET("/elements", sh.Elements)
	api.POST("/predict", ph.Predict)
	api.POST("/validate", ph.Validate)
	api.GET("/stats", ph.Stats)
	api.POST("/train", ph.Train)
	api.DELETE("/cache", ph.ClearCache)
	return r, ph, sh
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestPredictEndpoint(t *testing.T) {
	r, _, _ := newTestEngine(t)

	w := postJSON(t, r, "/api/v1/predict", PredictRequest{Reactants: []string{"H", "H"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp prediction.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "H2", resp.Prediction.TopProduct())
	assert.Equal(t, rxn.MethodExactMatch, resp.Prediction.Method)
	require.NotNil(t, resp.Validation)
	assert.False(t, resp.Cached)
}

func TestPredictRejectsUnknownElement(t *testing.T) {
	r, _, _ := newTestEngine(t)

	w := postJSON(t, r, "/api/v1/predict", PredictRequest{Reactants: []string{"Zz"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "RXN_002", errResp.Code)
}

func TestPredictRejectsMalformedBody(t *testing.T) {
	r, _, _ := newTestEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateEndpoint(t *testing.T) {
	r, _, _ := newTestEngine(t)

	w := postJSON(t, r, "/api/v1/validate", ValidateRequest{
		Reactants: []string{"H", "H"},
		Prediction: &rxn.PredictionResult{
			Products:   []rxn.ProductCandidate{{Formula: "H2", Probability: 1.0}},
			Confidence: 95,
			Method:     rxn.MethodExactMatch,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var report rxn.ValidationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, rxn.VerdictLikelyCorrect, report.Verdict)
	assert.Equal(t, report.ChecksTotal, report.ChecksPassed)
}

func TestStatsEndpoint(t *testing.T) {
	r, _, _ := newTestEngine(t)

	postJSON(t, r, "/api/v1/predict", PredictRequest{Reactants: []string{"Na", "Cl"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats prediction.ServiceStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Router.TotalPredictions)
	assert.Equal(t, int64(1), stats.Router.Level1Hits)
}

func TestTrainEndpoint(t *testing.T) {
	r, _, _ := newTestEngine(t)

	corpus := rxn.Corpus{
		Reactions: []rxn.Record{
			{Reactants: []string{"H", "O"}, Products: []string{"OH"}},
			{Reactants: []string{"H", "H", "O"}, Products: []string{"H2O"}},
		},
	}
	corpus.Count = len(corpus.Reactions)
	raw, err := json.Marshal(corpus)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	w := postJSON(t, r, "/api/v1/train", TrainRequest{CorpusPath: path})
	require.Equal(t, http.StatusOK, w.Code)

	var summary prediction.TrainingSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Reactions)
}

func TestTrainWithoutTrainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	index := exactmatch.NewIndex(nil)
	router := prediction.NewRouter(prediction.RouterConfig{PatternThreshold: 70},
		index, patternml.NewClassifier(nil), nil, rules.NewEngine(), nil, nil)
	svc := prediction.NewService(router, validator.New(nil), nil)
	ph := NewPredictionHandler(svc, nil, nil)

	r := gin.New()
	r.POST("/api/v1/train", ph.Train)

	w := postJSON(t, r, "/api/v1/train", TrainRequest{CorpusPath: "corpus.json"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestElementsEndpoint(t *testing.T) {
	r, _, _ := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/elements", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ElementsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Elements), resp.Count)
	assert.Contains(t, resp.Elements, "H")
	assert.Contains(t, resp.Elements, "Na")
}

func TestLivenessEndpoint(t *testing.T) {
	r, _, _ := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                      { return s.name }
func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestReadinessAggregatesCheckers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sh := NewSystemHandler("test",
		stubChecker{name: "cache"},
		stubChecker{name: "database", err: errors.New("connection refused")})
	r := gin.New()
	r.GET("/readyz", sh.Readiness)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "healthy", resp.Components["cache"].Status)
	assert.Equal(t, "unhealthy", resp.Components["database"].Status)
	assert.Contains(t, resp.Components["database"].Error, "connection refused")
}
