package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/simulator"
)

// SimulatorHandler controls the synthetic traffic generator.
type SimulatorHandler struct {
	simulator *simulator.Simulator
}

func NewSimulatorHandler(s *simulator.Simulator) *SimulatorHandler {
	return &SimulatorHandler{simulator: s}
}

func (h *SimulatorHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.simulator.Status())
}

func (h *SimulatorHandler) Start(c *gin.Context) {
	h.simulator.Start()
	c.JSON(http.StatusOK, h.simulator.Status())
}

func (h *SimulatorHandler) Stop(c *gin.Context) {
	h.simulator.Stop()
	c.JSON(http.StatusOK, h.simulator.Status())
}
