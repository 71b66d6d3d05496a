package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/rs/zerolog"

	"prosimcorp.com/alerting/internal/config"
	"prosimcorp.com/alerting/internal/history"
	"prosimcorp.com/alerting/internal/ruleset"
	"prosimcorp.com/alerting/internal/scheduler"
	"prosimcorp.com/alerting/internal/state"
)

// Server is the management HTTP API: rule listing/status, manual
// triggers, history queries, reload, and health endpoints.
type Server struct {
	app *fiber.App
}

// Dependencies the API handlers need, gathered from the service graph
// cmd/alertingd wires together.
type Dependencies struct {
	Config    *config.Settings
	Loader    *ruleset.Loader
	States    *state.Manager
	Recorder  *history.Recorder
	Scheduler *scheduler.Scheduler
	OSClient  *opensearch.Client
	Logger    zerolog.Logger
}

// NewServer builds the fiber app and registers every route.
func NewServer(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		AppName:      deps.Config.AppName,
		ErrorHandler: errorHandler,
	})

	registerHealthRoutes(app, deps)
	registerAlertRoutes(app, deps)

	return &Server{app: app}
}

// Listen starts serving on addr (host:port), blocking until the server
// stops or errors.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{"status": "error", "detail": err.Error()})
}

func registerHealthRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", func(c *fiber.Ctx) error {
		osStatus, osHealthy := clusterHealth(c.Context(), deps.OSClient)
		schedulerRunning := deps.Scheduler != nil

		status := "degraded"
		if osHealthy && schedulerRunning {
			status = "healthy"
		}

		return c.JSON(fiber.Map{
			"status":       status,
			"version":      deps.Config.AppVersion,
			"environment":  deps.Config.Environment,
			"opensearch":   osStatus,
			"rules_loaded": len(deps.Loader.All()),
		})
	})

	app.Get("/health/liveness", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/readiness", func(c *fiber.Ctx) error {
		_, osHealthy := clusterHealth(c.Context(), deps.OSClient)
		if !osHealthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not_ready", "reason": "opensearch unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})
}

func clusterHealth(ctx context.Context, client *opensearch.Client) (fiber.Map, bool) {
	healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := opensearchapi.ClusterHealthRequest{}.Do(healthCtx, client)
	if err != nil {
		return nil, false
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, false
	}

	var body struct {
		Status        string `json:"status"`
		NumberOfNodes int    `json:"number_of_nodes"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, false
	}

	return fiber.Map{"status": body.Status, "nodes": body.NumberOfNodes}, true
}
