package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"prosimcorp.com/alerting/internal/history"
)

// registerAlertRoutes wires the rule/status/trigger/history/reload
// surface described in the original alerts router, under the same
// "/api/v1/alerts" prefix main.py mounted it at.
func registerAlertRoutes(app *fiber.App, deps Dependencies) {
	api := app.Group("/api/v1/alerts")

	api.Get("/rules", requireAuth(deps.Config), func(c *fiber.Ctx) error {
		rules := deps.Loader.All()
		data := make([]fiber.Map, 0, len(rules))
		for name, rule := range rules {
			record := deps.States.Get(name)
			var lastChecked *string
			if record.LastChecked != nil {
				formatted := record.LastChecked.Format(timeFormat)
				lastChecked = &formatted
			}
			data = append(data, fiber.Map{
				"name":         name,
				"description":  rule.Description,
				"enabled":      rule.Enabled,
				"schedule":     rule.Schedule.Interval,
				"severity":     rule.Metadata.Severity,
				"state":        record.State,
				"last_checked": lastChecked,
			})
		}
		return c.JSON(fiber.Map{"status": "success", "data": data})
	})

	api.Get("/rules/:name/status", requireAuth(deps.Config), func(c *fiber.Ctx) error {
		name := c.Params("name")
		rule, ok := deps.Loader.Get(name)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "rule '"+name+"' not found")
		}
		record := deps.States.Get(name)

		return c.JSON(fiber.Map{
			"status": "success",
			"data": fiber.Map{
				"rule": fiber.Map{
					"name":        rule.Name,
					"description": rule.Description,
					"enabled":     rule.Enabled,
					"schedule":    rule.Schedule.Interval,
					"condition": fiber.Map{
						"operator": rule.Condition.Operator,
						"value":    rule.Condition.Value,
					},
					"severity": rule.Metadata.Severity,
				},
				"state": record,
			},
		})
	})

	api.Post("/rules/:name/trigger", requireAdmin(deps.Config), func(c *fiber.Ctx) error {
		name := c.Params("name")
		event := deps.Scheduler.TriggerManual(c.Context(), name)
		if event == nil {
			return fiber.NewError(fiber.StatusNotFound, "rule '"+name+"' not found")
		}
		return c.JSON(fiber.Map{"status": "success", "data": event})
	})

	api.Get("/history", requireAuth(deps.Config), func(c *fiber.Ctx) error {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}

		events := deps.Recorder.History(c.Context(), history.Query{
			RuleName: c.Query("rule_name"),
			Limit:    limit,
			TimeFrom: c.Query("time_from"),
		})
		return c.JSON(fiber.Map{"status": "success", "data": events})
	})

	api.Post("/rules/reload", requireAdmin(deps.Config), func(c *fiber.Ctx) error {
		deps.Scheduler.Reload(c.Context())
		count := len(deps.Loader.GetEnabled())
		return c.JSON(fiber.Map{"status": "success", "message": "reloaded " + strconv.Itoa(count) + " enabled rules"})
	})
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
