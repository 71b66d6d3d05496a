package ruleset

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"prosimcorp.com/alerting/internal/alertmodel"
)

var structValidator = validator.New()

// validateRule runs struct-tag validation (required fields, operator
// enum, webhook method enum, ...) and then the cross-field invariants
// spec.md §3 calls out that a single field tag can't express: interval
// must parse, threshold must be finite, and aggregation rules must carry
// aggregation_field while count rules must not.
func validateRule(r *alertmodel.Rule) error {
	if err := structValidator.Struct(r); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if _, _, err := r.Schedule.ParsedInterval(); err != nil {
		return err
	}

	if math.IsNaN(r.Condition.Value) || math.IsInf(r.Condition.Value, 0) {
		return fmt.Errorf("condition.value must be finite, got %v", r.Condition.Value)
	}

	hasAgg := len(r.Query.Aggregation) > 0
	hasAggField := r.Condition.AggregationField != ""
	if hasAgg && !hasAggField {
		return fmt.Errorf("rule has query.aggregation but no condition.aggregation_field")
	}
	if !hasAgg && hasAggField {
		return fmt.Errorf("rule has condition.aggregation_field but no query.aggregation")
	}

	return nil
}
