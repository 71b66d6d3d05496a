package condition

import (
	"testing"

	"prosimcorp.com/alerting/internal/alertmodel"
)

func rule(operator string, threshold float64, aggField string) *alertmodel.Rule {
	return &alertmodel.Rule{
		Condition: alertmodel.Condition{Operator: operator, Value: threshold, AggregationField: aggField},
	}
}

func TestEvaluateOperators(t *testing.T) {
	cases := []struct {
		operator  string
		actual    float64
		threshold float64
		want      bool
	}{
		{"gt", 10, 5, true},
		{"gt", 5, 10, false},
		{"gte", 5, 5, true},
		{"lt", 4, 5, true},
		{"lt", 5, 5, false},
		{"lte", 5, 5, true},
		{"eq", 5, 5, true},
		{"eq", 5, 6, false},
	}

	for _, c := range cases {
		r := rule(c.operator, c.threshold, "")
		got := Evaluate(r, alertmodel.QueryResult{Value: c.actual, Success: true})
		if got.ConditionMet != c.want {
			t.Errorf("%s(%v,%v): expected %v, got %v", c.operator, c.actual, c.threshold, c.want, got.ConditionMet)
		}
	}
}

func TestEvaluateUnknownOperatorIsNotMet(t *testing.T) {
	r := rule("between", 5, "")
	got := Evaluate(r, alertmodel.QueryResult{Value: 10, Success: true})
	if got.ConditionMet {
		t.Fatalf("expected unknown operator to never meet the condition")
	}
	if got.Message == "" {
		t.Fatalf("expected a diagnostic message for an unknown operator")
	}
}
