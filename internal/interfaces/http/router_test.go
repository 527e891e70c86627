package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/exactmatch"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/patternml"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/rules"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/validator"
	"github.com/turtacn/ChemReact-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/ChemReact-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/ChemReact-Intelligence/internal/testutil"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

func testRouterConfig(t *testing.T) RouterConfig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	index := exactmatch.NewIndex(nil)
	index.Train([]rxn.Record{
		{Reactants: []string{"H", "H"}, Products: []string{"H2"}},
	})
	router := prediction.NewRouter(prediction.RouterConfig{PatternThreshold: 70},
		index, patternml.NewClassifier(nil), nil, rules.NewEngine(), nil, nil)
	svc := prediction.NewService(router, validator.New(nil), nil)

	corsCfg := middleware.DefaultCORSConfig()
	return RouterConfig{
		PredictionHandler: handlers.NewPredictionHandler(svc, nil, nil),
		SystemHandler:     handlers.NewSystemHandler("test"),
		CORS:              &corsCfg,
		Logger:            testutil.NewMockLogger(),
	}
}

func TestRouterRouteTree(t *testing.T) {
	r := NewRouter(testRouterConfig(t))

	for _, tc := range []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/api/v1/elements", http.StatusOK},
		{http.MethodGet, "/api/v1/stats", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterAppliesCORS(t *testing.T) {
	r := NewRouter(testRouterConfig(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerLifecycle(t *testing.T) {
	cfg := config.ServerConfig{
		Port:            0,
		Mode:            "test",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: time.Second,
	}
	srv := NewServer(cfg, testRouterConfig(t), testutil.NewMockLogger())
	require.NotNil(t, srv.Handler())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp handlers.LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
}
