// Package answer holds the grounded-generation result types.
package answer

// Reason is the closed set of generation failure causes.
type Reason string

const (
	// ReasonNotConfigured means no generation backend (credential or model) is available.
	ReasonNotConfigured Reason = "not_configured"
	// ReasonTimeout means the backend did not answer before the deadline.
	ReasonTimeout Reason = "timeout"
	// ReasonBackendError covers quota, network and malformed-response failures.
	ReasonBackendError Reason = "backend_error"
)

// Failure describes why generation degraded. Cause is the stringified backend error.
type Failure struct {
	Reason Reason
	Cause  string
}

func (f *Failure) Error() string {
	if f.Cause == "" {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Cause
}

// Source is a document cited by an answer.
// On the degraded path only DocID is populated.
type Source struct {
	DocID   string
	Score   *float64
	Excerpt *string
}

// Answer is the outcome of a grounded generation call. Failure is nil on success.
type Answer struct {
	Text       string
	Sources    []Source
	NumSources int
	Failure    *Failure
}

// Degraded reports whether the answer is a fallback.
func (a *Answer) Degraded() bool { return a.Failure != nil }

// Summary is the outcome of a short summarization call.
type Summary struct {
	Text    string
	Failure *Failure
}
