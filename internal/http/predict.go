package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/heartcheck/internal/auth"
	"github.com/mrlokans/heartcheck/internal/predict"
)

// PredictionAuditor records served predictions. audit.Service implements it.
type PredictionAuditor interface {
	LogPrediction(userID uint, ipAddr string, err error)
}

// PredictController serves the heart disease classifier.
type PredictController struct {
	model *predict.Model
	audit PredictionAuditor
}

// NewPredictController creates a PredictController. A nil model answers
// every request with 503.
func NewPredictController(model *predict.Model, auditor PredictionAuditor) *PredictController {
	return &PredictController{
		model: model,
		audit: auditor,
	}
}

// Predict classifies one patient record.
// POST /predict
func (pc *PredictController) Predict(c *gin.Context) {
	if pc.model == nil {
		respondError(c, http.StatusServiceUnavailable, "prediction model not loaded")
		return
	}

	var input predict.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "all 13 features are required",
			Details: predict.Features,
		})
		return
	}

	result, err := pc.model.Predict(input)
	if pc.audit != nil {
		pc.audit.LogPrediction(auth.GetUserID(c), c.ClientIP(), err)
	}
	if err != nil {
		respondInternalError(c, err, "predict")
		return
	}

	c.JSON(http.StatusOK, result)
}
