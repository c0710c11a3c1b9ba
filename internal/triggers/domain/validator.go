package triggers

import "fmt"

// Validate evaluates a sensor value against a validation function and its
// parameters. Threshold comparisons apply the Delta tolerance band: values
// strictly inside the band are indeterminate. Equality checks are exact.
func Validate(fn Function, param1, param2 *float64, value float64) Verdict {
	switch fn {
	case FuncGreater:
		if param1 == nil {
			return missingParam(fn)
		}
		p := *param1
		switch {
		case value > p+Delta:
			return Verdict{
				Outcome: OutcomePass,
				Message: fmt.Sprintf("expected sensor value > %.2f. Got sensor value = %.2f", p+Delta, value),
			}
		case value < p-Delta:
			return Verdict{
				Outcome: OutcomeFail,
				Message: fmt.Sprintf("expected sensor value > %.2f. Got sensor value = %.2f", p-Delta, value),
			}
		default:
			return boundary(value, p)
		}
	case FuncLess:
		if param1 == nil {
			return missingParam(fn)
		}
		p := *param1
		switch {
		case value < p-Delta:
			return Verdict{
				Outcome: OutcomePass,
				Message: fmt.Sprintf("expected sensor value < %.2f. Got sensor value = %.2f", p-Delta, value),
			}
		case value > p+Delta:
			return Verdict{
				Outcome: OutcomeFail,
				Message: fmt.Sprintf("expected sensor value < %.2f. Got sensor value = %.2f", p+Delta, value),
			}
		default:
			return boundary(value, p)
		}
	case FuncEqual:
		if param1 == nil {
			return missingParam(fn)
		}
		p := *param1
		message := fmt.Sprintf("expected value == %.2f. Got %.2f", p, value)
		if value == p {
			return Verdict{Outcome: OutcomePass, Message: message}
		}
		return Verdict{Outcome: OutcomeFail, Message: message}
	case FuncNotEqual:
		if param1 == nil {
			return missingParam(fn)
		}
		p := *param1
		message := fmt.Sprintf("expected value != %.2f. Got %.2f", p, value)
		if value != p {
			return Verdict{Outcome: OutcomePass, Message: message}
		}
		return Verdict{Outcome: OutcomeFail, Message: message}
	case FuncBand:
		if param1 == nil || param2 == nil {
			return missingParam(fn)
		}
		lo, hi := *param1, *param2
		switch {
		case value > lo+Delta && value < hi-Delta:
			return Verdict{
				Outcome: OutcomePass,
				Message: fmt.Sprintf("expected %.2f < sensor value < %.2f. Got sensor value = %.2f", lo+Delta, hi-Delta, value),
			}
		case value < lo-Delta || value > hi+Delta:
			return Verdict{
				Outcome: OutcomeFail,
				Message: fmt.Sprintf("sensor value %.2f is < %.2f or > %.2f", value, lo-Delta, hi+Delta),
			}
		default:
			return Verdict{
				Outcome: OutcomeIndeterminate,
				Reason:  ReasonBoundary,
				Message: fmt.Sprintf("sensor value %.2f is inside the tolerance band of [%.2f, %.2f]", value, lo, hi),
			}
		}
	default:
		return Verdict{
			Outcome: OutcomeIndeterminate,
			Reason:  ReasonUnknownFunction,
			Message: fmt.Sprintf("unknown validation function %q", string(fn)),
		}
	}
}

func missingParam(fn Function) Verdict {
	return Verdict{
		Outcome: OutcomeIndeterminate,
		Reason:  ReasonMissingParam,
		Message: fmt.Sprintf("cannot validate with %q: required parameter missing", string(fn)),
	}
}

func boundary(value, threshold float64) Verdict {
	return Verdict{
		Outcome: OutcomeIndeterminate,
		Reason:  ReasonBoundary,
		Message: fmt.Sprintf("sensor value %.2f is inside the tolerance band around %.2f", value, threshold),
	}
}
