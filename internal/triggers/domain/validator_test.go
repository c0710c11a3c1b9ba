package triggers

import (
	"strings"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestValidateGreater(t *testing.T) {
	cases := []struct {
		name    string
		value   float64
		outcome Outcome
	}{
		{"well above", 10.5, OutcomePass},
		{"well below", 9.5, OutcomeFail},
		{"exactly threshold", 10.0, OutcomeIndeterminate},
		{"upper band edge", 10.05, OutcomeIndeterminate},
		{"lower band edge", 9.95, OutcomeIndeterminate},
		{"just above band", 10.06, OutcomePass},
		{"just below band", 9.94, OutcomeFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := Validate(FuncGreater, f(10), nil, tc.value)
			if verdict.Outcome != tc.outcome {
				t.Fatalf("value %.2f: expected %s, got %s", tc.value, tc.outcome, verdict.Outcome)
			}
			if verdict.Message == "" {
				t.Fatalf("value %.2f: empty message", tc.value)
			}
		})
	}
}

func TestValidateLess(t *testing.T) {
	cases := []struct {
		name    string
		value   float64
		outcome Outcome
	}{
		{"well below", 9.5, OutcomePass},
		{"well above", 10.5, OutcomeFail},
		{"exactly threshold", 10.0, OutcomeIndeterminate},
		{"just below band", 9.94, OutcomePass},
		{"just above band", 10.06, OutcomeFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := Validate(FuncLess, f(10), nil, tc.value)
			if verdict.Outcome != tc.outcome {
				t.Fatalf("value %.2f: expected %s, got %s", tc.value, tc.outcome, verdict.Outcome)
			}
		})
	}
}

func TestValidateEqualExact(t *testing.T) {
	if v := Validate(FuncEqual, f(10), nil, 10.0); v.Outcome != OutcomePass {
		t.Fatalf("expected pass, got %s", v.Outcome)
	}
	// Equality has no tolerance band.
	if v := Validate(FuncEqual, f(10), nil, 10.01); v.Outcome != OutcomeFail {
		t.Fatalf("expected fail, got %s", v.Outcome)
	}
}

func TestValidateNotEqualExact(t *testing.T) {
	if v := Validate(FuncNotEqual, f(10), nil, 10.01); v.Outcome != OutcomePass {
		t.Fatalf("expected pass, got %s", v.Outcome)
	}
	if v := Validate(FuncNotEqual, f(10), nil, 10.0); v.Outcome != OutcomeFail {
		t.Fatalf("expected fail, got %s", v.Outcome)
	}
}

func TestValidateBand(t *testing.T) {
	cases := []struct {
		name    string
		value   float64
		outcome Outcome
	}{
		{"center", 15.0, OutcomePass},
		{"below range", 9.0, OutcomeFail},
		{"above range", 21.0, OutcomeFail},
		{"on lower edge", 10.0, OutcomeIndeterminate},
		{"on upper edge", 20.0, OutcomeIndeterminate},
		{"inside lower tolerance", 10.02, OutcomeIndeterminate},
		{"inside upper tolerance", 19.98, OutcomeIndeterminate},
		{"just inside band", 10.06, OutcomePass},
		{"just outside band", 9.94, OutcomeFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := Validate(FuncBand, f(10), f(20), tc.value)
			if verdict.Outcome != tc.outcome {
				t.Fatalf("value %.2f: expected %s, got %s", tc.value, tc.outcome, verdict.Outcome)
			}
		})
	}
}

func TestValidateMissingParameter(t *testing.T) {
	for _, fn := range []Function{FuncGreater, FuncLess, FuncEqual, FuncNotEqual, FuncBand} {
		verdict := Validate(fn, nil, nil, 1.0)
		if verdict.Outcome != OutcomeIndeterminate {
			t.Fatalf("%s: expected indeterminate, got %s", fn, verdict.Outcome)
		}
		if verdict.Reason != ReasonMissingParam {
			t.Fatalf("%s: expected missing_parameter reason, got %s", fn, verdict.Reason)
		}
		if !verdict.ConfigError() {
			t.Fatalf("%s: expected config error", fn)
		}
	}
	// Band needs both parameters.
	verdict := Validate(FuncBand, f(10), nil, 1.0)
	if verdict.Reason != ReasonMissingParam {
		t.Fatalf("expected missing_parameter reason, got %s", verdict.Reason)
	}
}

func TestValidateUnknownFunction(t *testing.T) {
	verdict := Validate(Function("??"), f(10), nil, 1.0)
	if verdict.Outcome != OutcomeIndeterminate {
		t.Fatalf("expected indeterminate, got %s", verdict.Outcome)
	}
	if verdict.Reason != ReasonUnknownFunction {
		t.Fatalf("expected unknown_function reason, got %s", verdict.Reason)
	}
	if !strings.Contains(verdict.Message, "??") {
		t.Fatalf("message should name the function: %q", verdict.Message)
	}
}

func TestValidateBoundaryIsNotConfigError(t *testing.T) {
	verdict := Validate(FuncGreater, f(10), nil, 10.0)
	if verdict.Reason != ReasonBoundary {
		t.Fatalf("expected boundary reason, got %s", verdict.Reason)
	}
	if verdict.ConfigError() {
		t.Fatal("boundary verdicts are not config errors")
	}
}

func TestFunctionValid(t *testing.T) {
	for _, fn := range []Function{FuncGreater, FuncLess, FuncEqual, FuncNotEqual, FuncBand} {
		if !fn.Valid() {
			t.Fatalf("%s should be valid", fn)
		}
	}
	if Function("x").Valid() {
		t.Fatal("unexpected valid function")
	}
}
