package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

func chatEnvelope(content string) string {
	envelope := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(envelope)
	return string(raw)
}

func testConfig(baseURL string, retries int) config.ReasoningConfig {
	return config.ReasoningConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "test-model",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
	}
}

func TestPredictParsesStructuredAnswer(t *testing.T) {
	answer := "```json\n" + `{
		"products": [
			{"formula": "O2", "name": "Oxygen", "probability": 0.15},
			{"formula": "H2O", "name": "Water", "probability": 0.85}
		],
		"mechanism": "radical recombination",
		"thermodynamics": "Feasible, exothermic.",
		"confidence": 85,
		"reasoning": "VQE energy -1.137 Hartree favours water."
	}` + "\n```"

	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		fmt.Fprint(w, chatEnvelope(answer))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig(srv.URL, 1), nil)
	result, err := engine.Predict(context.Background(), []string{"H", "H", "O"}, nil, 3)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)

	require.Len(t, result.Products, 2)
	assert.Equal(t, "H2O", result.Products[0].Formula)
	assert.InDelta(t, 0.85, result.Products[0].Probability, 1e-9)
	assert.Equal(t, "O2", result.Products[1].Formula)

	assert.Equal(t, rxn.MethodExternalReasoning, result.Method)
	assert.Equal(t, rxn.SpeedSlow, result.Speed)
	assert.InDelta(t, 85.0, result.Confidence, 1e-9)
	assert.Equal(t, "radical recombination", result.Mechanism)
	assert.Contains(t, result.Reasoning, "VQE energy")
	assert.Contains(t, result.Reasoning, "Thermodynamics: Feasible")
}

func TestPredictRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, chatEnvelope(`{"products":[{"formula":"NaCl","name":"Salt","probability":1.0}],"mechanism":"ionic","thermodynamics":"","confidence":90,"reasoning":"ok"}`))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig(srv.URL, 3), nil)
	result, err := engine.Predict(context.Background(), []string{"Cl", "Na"}, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, "NaCl", result.TopProduct())
}

func TestPredictExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := NewEngine(testConfig(srv.URL, 3), nil)
	result, err := engine.Predict(context.Background(), []string{"H", "H"}, nil, 3)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, int64(3), calls.Load())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReasoningCallFailed))
}

func TestPredictReportsParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatEnvelope("the reaction probably yields water"))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig(srv.URL, 2), nil)
	_, err := engine.Predict(context.Background(), []string{"H", "O"}, nil, 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReasoningParseFailed))
}

func TestPredictWithoutAPIKey(t *testing.T) {
	cfg := testConfig("http://unused", 1)
	cfg.APIKey = ""
	engine := NewEngine(cfg, nil)

	assert.False(t, engine.Ready())
	_, err := engine.Predict(context.Background(), []string{"H", "H"}, nil, 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeModelNotAvailable))
}

func TestPredictTruncatesToTopK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatEnvelope(`{"products":[
			{"formula":"A","name":"a","probability":0.1},
			{"formula":"B","name":"b","probability":0.4},
			{"formula":"C","name":"c","probability":0.3},
			{"formula":"D","name":"d","probability":0.2}
		],"mechanism":"","thermodynamics":"","confidence":50,"reasoning":""}`))
	}))
	defer srv.Close()

	engine := NewEngine(testConfig(srv.URL, 1), nil)
	result, err := engine.Predict(context.Background(), []string{"X", "Y"}, nil, 2)
	require.NoError(t, err)
	require.Len(t, result.Products, 2)
	assert.Equal(t, "B", result.Products[0].Formula)
	assert.Equal(t, "C", result.Products[1].Formula)
}

func TestPredictIncludesQuantumContext(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotPrompt = req.Messages[1].Content
		fmt.Fprint(w, chatEnvelope(`{"products":[{"formula":"H2","name":"Hydrogen","probability":1.0}],"mechanism":"","thermodynamics":"","confidence":95,"reasoning":""}`))
	}))
	defer srv.Close()

	quantum := &rxn.QuantumRecord{
		VQEEnergy:    -1.137270,
		HFEnergy:     -1.116759,
		NumElectrons: 2,
		NumAtoms:     2,
		BondLengths:  map[string]float64{"H-H": 0.74},
	}
	engine := NewEngine(testConfig(srv.URL, 1), nil)
	_, err := engine.Predict(context.Background(), []string{"H", "H"}, quantum, 3)
	require.NoError(t, err)

	assert.Contains(t, gotPrompt, "REACTANTS: H + H")
	assert.Contains(t, gotPrompt, "-1.137270")
	assert.Contains(t, gotPrompt, "H-H")
}

func TestFlexFloatAcceptsPercentStrings(t *testing.T) {
	cases := map[string]float64{
		`{"confidence": 85}`:      85,
		`{"confidence": "85"}`:    85,
		`{"confidence": "85%"}`:   85,
		`{"confidence": " 72 %"}`: 72,
	}
	for input, want := range cases {
		var payload struct {
			Confidence flexFloat `json:"confidence"`
		}
		require.NoError(t, json.Unmarshal([]byte(input), &payload), input)
		assert.InDelta(t, want, float64(payload.Confidence), 1e-9, input)
	}
}

func TestToResultScalesFractionalConfidence(t *testing.T) {
	engine := NewEngine(testConfig("http://unused", 1), nil)
	payload := &responsePayload{
		Products:   []productPayload{{Formula: "H2O", Name: "Water", Probability: 1.0}},
		Confidence: 0.9,
	}
	result := engine.toResult(payload, 3)
	assert.InDelta(t, 90.0, result.Confidence, 1e-9)
}

func TestExtractJSONHandlesFencesAndProse(t *testing.T) {
	raw, ok := extractJSON("Sure! Here you go:\n```json\n{\"a\":1}\n```\nHope that helps.")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, raw)

	_, ok = extractJSON("no structured data here")
	assert.False(t, ok)
}
