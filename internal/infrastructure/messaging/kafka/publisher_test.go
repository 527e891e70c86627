package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishPrediction(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewPublisherWithWriter(writer, "chemreact.predictions", nil)

	event := &PredictionEvent{
		Reactants:  []string{"O", "H", "H"},
		Products:   []rxn.ProductCandidate{{Formula: "H2O", Name: "Water", Probability: 1.0}},
		Method:     rxn.MethodExactMatch,
		Confidence: 100,
	}
	require.NoError(t, pub.PublishPrediction(context.Background(), event))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "H,H,O", string(msg.Key))
	assert.False(t, msg.Time.IsZero())

	var decoded PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "H,H,O", decoded.CanonicalKey)
	assert.Equal(t, rxn.MethodExactMatch, decoded.Method)
	require.Len(t, decoded.Products, 1)
	assert.Equal(t, "H2O", decoded.Products[0].Formula)

	sent, failed := pub.Metrics()
	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(0), failed)
}

func TestPublishPredictionFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unreachable")}
	pub := NewPublisherWithWriter(writer, "chemreact.predictions", nil)

	err := pub.PublishPrediction(context.Background(), &PredictionEvent{
		Reactants: []string{"H", "H"},
	})
	require.Error(t, err)

	sent, failed := pub.Metrics()
	assert.Equal(t, int64(0), sent)
	assert.Equal(t, int64(1), failed)
}

func TestPublisherClose(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewPublisherWithWriter(writer, "chemreact.predictions", nil)

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)

	// Publishing after close is rejected; closing twice is a no-op.
	err := pub.PublishPrediction(context.Background(), &PredictionEvent{Reactants: []string{"H"}})
	require.Error(t, err)
	require.NoError(t, pub.Close())
}
