package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/integra"
	"github.com/muurk/integra-bridge/internal/protocol"
)

// ZonesResponse is the body of GET /api/zones
type ZonesResponse struct {
	Sensors      []accessory.SensorState `json:"sensors"`
	Unconfigured []int                   `json:"unconfigured"`
}

// ViolatedResponse is the body of GET /api/zones/violated
type ViolatedResponse struct {
	Zones protocol.ZoneStates `json:"zones"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status     string        `json:"status"`
	Controller string        `json:"controller"`
	Stats      integra.Stats `json:"stats"`
	WSClients  int           `json:"ws_clients"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth)
	router.GET("/ws", s.handleWebSocket)

	api := router.Group("/api")
	{
		api.GET("/info", s.handleInfo)
		api.GET("/zones", s.handleZones)
		api.GET("/zones/violated", s.handleViolated)
	}
}

// handleInfo serves the cached system info, querying the controller when
// nothing is cached yet or ?refresh=true is given.
func (s *Server) handleInfo(c *gin.Context) {
	if c.Query("refresh") != "true" {
		if info, ok := s.source.Info(); ok {
			c.JSON(http.StatusOK, info)
			return
		}
	}

	info, err := s.source.ReadInfo(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleZones(c *gin.Context) {
	violated, ok := s.source.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "zone states not read yet"})
		return
	}

	resp := ZonesResponse{
		Sensors:      s.zones.States(violated),
		Unconfigured: s.zones.Unconfigured(violated),
	}
	if resp.Unconfigured == nil {
		resp.Unconfigured = []int{}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleViolated(c *gin.Context) {
	violated, ok := s.source.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "zone states not read yet"})
		return
	}
	c.JSON(http.StatusOK, ViolatedResponse{Zones: violated})
}

// handleHealth reports "ok" once a zone poll has succeeded recently. A
// successful system info query alone does not count.
func (s *Server) handleHealth(c *gin.Context) {
	stats := s.source.Stats()
	resp := HealthResponse{
		Status:     "ok",
		Controller: s.source.Addr(),
		Stats:      stats,
		WSClients:  s.GetActiveConnections(),
	}

	status := http.StatusOK
	if stats.LastZonePoll.IsZero() {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	} else if time.Since(stats.LastZonePoll) > staleAfter {
		resp.Status = "stale"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// staleAfter marks the controller unreachable for health checks
const staleAfter = 30 * time.Second

func writeError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusBadGateway

	var cmdErr *integra.CommandError
	if errors.As(err, &cmdErr) {
		resp.ErrorType = cmdErr.Type.String()
		if cmdErr.Type == integra.ErrTypeTimeout {
			status = http.StatusGatewayTimeout
		}
	}
	if errors.Is(err, integra.ErrClientStopped) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
