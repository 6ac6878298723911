package territory

import "fmt"

// ConfigurationInvalidError reports a Configuration that fails validation
// before a solve is attempted at all (§7): a mode other than waterfall or
// relaxed, or, in waterfall mode, an enabled priority step whose id is
// unknown or repeated. Axis weights are not validated; they are
// normalized instead.
type ConfigurationInvalidError struct {
	Reason string
}

func (e *ConfigurationInvalidError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// InputInvariantViolationError reports a snapshot that violates one of
// the data-model invariants a solve depends on (§3): a dangling parent
// reference, a duplicate account or rep id, or similar.
type InputInvariantViolationError struct {
	AccountID string
	Reason    string
}

func (e *InputInvariantViolationError) Error() string {
	return fmt.Sprintf("input invariant violated for %s: %s", e.AccountID, e.Reason)
}
