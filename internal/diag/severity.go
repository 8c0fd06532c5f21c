package diag

// Severity ranks how serious a diagnostic is. Only SevError fails a
// checking run; lower severities are advisory.
type Severity uint8

const (
	// SevInfo is purely informational output.
	SevInfo Severity = iota
	// SevWarning flags a problem that does not fail the run.
	SevWarning
	// SevError flags a failure. Checking continues past it, but the run
	// reports failure.
	SevError
)

// String returns the upper-case label the diagnostic printer uses.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
