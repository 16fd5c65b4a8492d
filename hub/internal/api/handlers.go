package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doniyusdinar/scanfleet/hub/internal/events"
	"github.com/doniyusdinar/scanfleet/hub/internal/history"
	"github.com/doniyusdinar/scanfleet/hub/internal/registry"
	"github.com/doniyusdinar/scanfleet/pkg/logger"
	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// DefaultScanPath is scanned when a trigger request names no path
const DefaultScanPath = "/tmp"

type Handler struct {
	registry        *registry.Registry
	history         history.Store
	publisher       events.Publisher
	defaultScanPath string
	newCommandID    func() string
}

func NewHandler(reg *registry.Registry, store history.Store, publisher events.Publisher, defaultScanPath string) *Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if defaultScanPath == "" {
		defaultScanPath = DefaultScanPath
	}
	return &Handler{
		registry:        reg,
		history:         store,
		publisher:       publisher,
		defaultScanPath: defaultScanPath,
		newCommandID:    commandID,
	}
}

// commandID derives a command id from the current time in nanoseconds
func commandID() string {
	return fmt.Sprintf("cmd-%d", time.Now().UnixNano())
}

// GetAgents godoc
// @Summary List agents
// @Description Point-in-time snapshot of every registered agent
// @Tags agents
// @Produce json
// @Success 200 {array} models.Agent
// @Router /api/agents [get]
func (h *Handler) GetAgents(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.List())
}

// GetScans godoc
// @Summary List scan history
// @Description All reported scan outcomes, newest first
// @Tags scans
// @Produce json
// @Success 200 {array} models.ScanRecord
// @Router /api/scans [get]
func (h *Handler) GetScans(c *gin.Context) {
	scans, err := h.history.Scans(c.Request.Context(), 0)
	if err != nil {
		logger.Log.Errorf("Failed to get scans: %v", err)
		c.JSON(http.StatusOK, gin.H{"error": "Failed to get scans"})
		return
	}

	c.JSON(http.StatusOK, scans)
}

// GetLogs godoc
// @Summary List hub logs
// @Description Operational log records, newest first
// @Tags logs
// @Produce json
// @Success 200 {array} models.LogRecord
// @Router /api/logs [get]
func (h *Handler) GetLogs(c *gin.Context) {
	logs, err := h.history.Logs(c.Request.Context(), 0)
	if err != nil {
		logger.Log.Errorf("Failed to get logs: %v", err)
		c.JSON(http.StatusOK, gin.H{"error": "Failed to get logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// TriggerScan godoc
// @Summary Trigger a scan
// @Description Queue a recursive scan for the agent; it is delivered on the agent's next heartbeat.
// @Description Unknown agents and paths starting with "-" get an error payload with status 200.
// @Tags agents
// @Accept json
// @Produce json
// @Param id path string true "Agent ID"
// @Param request body models.TriggerScanRequest false "Scan target"
// @Success 200 {object} models.TriggerScanResponse
// @Failure 400 {object} map[string]string
// @Router /api/agents/{id}/scan [post]
func (h *Handler) TriggerScan(c *gin.Context) {
	agentID := c.Param("id")

	var req models.TriggerScanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Log.Errorf("Invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	path := req.Path
	if path == "" {
		path = h.defaultScanPath
	}
	// The scanner takes the path as its last argument; a leading dash would
	// be read as an option.
	if strings.HasPrefix(path, "-") {
		logger.Log.Warnf("Rejected scan path %q for agent %s", path, agentID)
		c.JSON(http.StatusOK, gin.H{"error": "Invalid scan path"})
		return
	}

	cmd := models.NewScanCommand(h.newCommandID(), path, true)
	if err := h.registry.TriggerScan(agentID, cmd); err != nil {
		if errors.Is(err, registry.ErrAgentNotFound) {
			logger.Log.Warnf("Scan requested for unknown agent: %s", agentID)
			c.JSON(http.StatusOK, gin.H{"error": "Agent not found"})
			return
		}
		logger.Log.Errorf("Failed to queue scan: %v", err)
		c.JSON(http.StatusOK, gin.H{"error": "Failed to queue scan"})
		return
	}

	logger.Log.Infof("Scan of %s queued for agent %s (%d pending)", path, agentID, h.registry.Pending(agentID))

	ctx := c.Request.Context()
	now := h.registry.Now()
	message := fmt.Sprintf("Scan triggered for agent: %s", agentID)
	if err := h.history.AppendLog(ctx, history.NewLog(models.LevelInfo, message, now)); err != nil {
		logger.Log.Errorf("Failed to record log entry: %v", err)
	}
	events.Emit(ctx, h.publisher, events.Event{
		Type:      events.ScanTriggered,
		AgentID:   agentID,
		CommandID: cmd.ID,
		Message:   path,
		Timestamp: now,
	})

	c.JSON(http.StatusOK, models.TriggerScanResponse{Status: "queued", AgentID: agentID})
}

// HealthCheck godoc
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
