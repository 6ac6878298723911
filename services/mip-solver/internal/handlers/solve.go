package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aristath/sentinel/services/mip-solver/internal/solver"
)

// defaultBudget bounds a single solve attempt when NewSolveHandler is
// given a non-positive budget. Requests carry no budget of their own;
// every solve on a handler uses that handler's budget.
const defaultBudget = 60 * time.Second

// HealthCheck handles GET /api/v1/health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": "1.0.0"})
}

// SolveHandler handles POST /api/v1/solve: the body is LP text
// (Content-Type: text/plain), as rendered by the optimizer's model
// builder.
type SolveHandler struct {
	budget time.Duration
}

// NewSolveHandler builds a handler that bounds each solve to budget.
func NewSolveHandler(budget time.Duration) *SolveHandler {
	if budget <= 0 {
		budget = defaultBudget
	}
	return &SolveHandler{budget: budget}
}

func (h *SolveHandler) Solve(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body: " + err.Error()})
		return
	}

	problem, err := solver.Parse(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse LP text: " + err.Error()})
		return
	}

	result := solver.Solve(problem, h.budget)
	c.JSON(http.StatusOK, result.ToResponse())
}
