package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// PredictionHandler serves the prediction API: predict, validate, stats,
// train and cache management.
type PredictionHandler struct {
	service *prediction.Service
	trainer *prediction.Trainer
	logger  logging.Logger
}

// NewPredictionHandler creates a PredictionHandler. The trainer is optional;
// without it the train endpoint reports the model as unavailable.
func NewPredictionHandler(service *prediction.Service, trainer *prediction.Trainer, logger logging.Logger) *PredictionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PredictionHandler{
		service: service,
		trainer: trainer,
		logger:  logger,
	}
}

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	Reactants []string           `json:"reactants" binding:"required"`
	Quantum   *rxn.QuantumRecord `json:"quantum_data,omitempty"`
}

// Predict handles POST /api/v1/predict.
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.service.Predict(c.Request.Context(), req.Reactants, req.Quantum)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateRequest is the body of POST /api/v1/validate. It carries a
// prediction obtained elsewhere together with the reactants it claims to
// answer.
type ValidateRequest struct {
	Reactants  []string              `json:"reactants" binding:"required"`
	Prediction *rxn.PredictionResult `json:"prediction" binding:"required"`
	Quantum    *rxn.QuantumRecord    `json:"quantum_data,omitempty"`
}

// Validate handles POST /api/v1/validate.
func (h *PredictionHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	report := h.service.Validate(req.Reactants, req.Prediction, req.Quantum)
	c.JSON(http.StatusOK, report)
}

// Stats handles GET /api/v1/stats.
func (h *PredictionHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Stats(c.Request.Context()))
}

// TrainRequest is the body of POST /api/v1/train.
type TrainRequest struct {
	CorpusPath string `json:"corpus_path" binding:"required"`
}

// Train handles POST /api/v1/train. Training is synchronous; the corpus
// sizes this engine works with fit comfortably in one request cycle.
func (h *PredictionHandler) Train(c *gin.Context) {
	if h.trainer == nil {
		respondError(c, errors.New(errors.ErrCodeModelNotAvailable, "no trainer configured"))
		return
	}

	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	summary, err := h.trainer.TrainFromFile(c.Request.Context(), req.CorpusPath)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("retrained from corpus",
		logging.String("path", req.CorpusPath),
		logging.Int("reactions", summary.Reactions))
	c.JSON(http.StatusOK, summary)
}

// ClearCache handles DELETE /api/v1/cache.
func (h *PredictionHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
