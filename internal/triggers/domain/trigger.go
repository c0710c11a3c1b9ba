package triggers

// Function identifies the validation rule bound to one sensor on one node.
type Function string

const (
	FuncGreater  Function = ">"
	FuncLess     Function = "<"
	FuncEqual    Function = "=="
	FuncNotEqual Function = "!="
	FuncBand     Function = "b"
)

// Valid returns true when the function is a supported comparison.
func (f Function) Valid() bool {
	switch f {
	case FuncGreater, FuncLess, FuncEqual, FuncNotEqual, FuncBand:
		return true
	default:
		return false
	}
}

// Delta is the tolerance band applied around numeric thresholds. A reading
// inside the band is neither a pass nor a failure, so a value hovering at the
// threshold cannot flip notification state on every check-in.
const Delta = 0.05

// Trigger binds one sensor id on one node to a validation function and up to
// two numeric parameters. Rows are configured out of band; this service only
// reads them and flips the Notified flag.
type Trigger struct {
	ID                int64
	NodeID            int64
	SensorID          string
	MonitoringEnabled bool
	// Notified is the edge-detection flag: true iff the most recent
	// evaluation failed and a failure notice was sent.
	Notified bool
	Function Function
	Param1   *float64
	Param2   *float64
}

// Outcome classifies a validation verdict.
type Outcome string

const (
	OutcomePass          Outcome = "pass"
	OutcomeFail          Outcome = "fail"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// IndeterminateReason says why a verdict could not be decided.
type IndeterminateReason string

const (
	ReasonNone            IndeterminateReason = ""
	ReasonBoundary        IndeterminateReason = "boundary"
	ReasonMissingParam    IndeterminateReason = "missing_parameter"
	ReasonUnknownFunction IndeterminateReason = "unknown_function"
)

// Verdict is the result of evaluating one sensor reading against one trigger.
// Message is always populated so it can be carried into notification bodies
// and audit logs regardless of the outcome.
type Verdict struct {
	Outcome Outcome
	Reason  IndeterminateReason
	Message string
}

// ConfigError reports whether the verdict is indeterminate because of a
// trigger configuration problem rather than a boundary reading.
func (v Verdict) ConfigError() bool {
	return v.Reason == ReasonMissingParam || v.Reason == ReasonUnknownFunction
}
