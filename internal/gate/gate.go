// Package gate holds the routing predicates that pick the next branch of a run.
package gate

import "github.com/sells-group/merchant-ops/internal/blackboard"

// MaxSchemaRetries is how many catalog re-processing attempts the schema
// gate allows before declaring the catalog invalid.
const MaxSchemaRetries = 2

// SafetyVerdict is the safety gate's routing decision.
type SafetyVerdict string

const (
	Safe   SafetyVerdict = "safe"
	Unsafe SafetyVerdict = "unsafe"
)

// SchemaVerdict is the schema gate's routing decision.
type SchemaVerdict string

const (
	SchemaValid   SchemaVerdict = "valid"
	SchemaRetry   SchemaVerdict = "retry"
	SchemaInvalid SchemaVerdict = "invalid"
)

// SafetyGate routes to the throttler when a complaint spike was detected.
func SafetyGate(s *blackboard.State) SafetyVerdict {
	if s.ComplaintSpikeDetected {
		return Unsafe
	}
	return Safe
}

// SchemaGate reports whether catalog normalization passed, may be retried,
// or has exhausted its retries.
func SchemaGate(s *blackboard.State) SchemaVerdict {
	switch {
	case s.SchemaValidationPassed:
		return SchemaValid
	case s.RetryCount < MaxSchemaRetries:
		return SchemaRetry
	default:
		return SchemaInvalid
	}
}
