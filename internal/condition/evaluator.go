// Package condition evaluates a rule's threshold condition against a
// query result, directly porting the OPERATORS table from the original
// condition_evaluator.py and the switch-based evaluation shape from the
// teacher's evaluateCondition (internal/controller/searchrule_sync.go).
package condition

import (
	"fmt"

	"prosimcorp.com/alerting/internal/alertmodel"
)

// operators maps the condition operator strings accepted by rule files to
// comparison functions, mirroring Python's OPERATORS dict.
var operators = map[string]func(actual, threshold float64) bool{
	"gt":  func(actual, threshold float64) bool { return actual > threshold },
	"gte": func(actual, threshold float64) bool { return actual >= threshold },
	"lt":  func(actual, threshold float64) bool { return actual < threshold },
	"lte": func(actual, threshold float64) bool { return actual <= threshold },
	"eq":  func(actual, threshold float64) bool { return actual == threshold },
}

// Evaluate compares result against rule.Condition. An operator outside the
// known set is not met rather than an error — a malformed rule should not
// bring down an evaluation tick, and the rule loader already rejects
// unknown operators at load time via the struct "oneof" tag.
func Evaluate(rule *alertmodel.Rule, result alertmodel.QueryResult) alertmodel.EvaluationResult {
	cmp, ok := operators[rule.Condition.Operator]
	if !ok {
		return alertmodel.EvaluationResult{
			ConditionMet: false,
			ActualValue:  result.Value,
			Threshold:    rule.Condition.Value,
			Operator:     rule.Condition.Operator,
			Message:      fmt.Sprintf("unknown condition operator %q", rule.Condition.Operator),
		}
	}

	met := cmp(result.Value, rule.Condition.Value)
	return alertmodel.EvaluationResult{
		ConditionMet: met,
		ActualValue:  result.Value,
		Threshold:    rule.Condition.Value,
		Operator:     rule.Condition.Operator,
		Message:      message(rule, result.Value, met),
	}
}

func message(rule *alertmodel.Rule, actual float64, met bool) string {
	verb := "did not meet"
	if met {
		verb = "met"
	}
	return fmt.Sprintf("value %v %s threshold (%s %v)", actual, verb, rule.Condition.Operator, rule.Condition.Value)
}
