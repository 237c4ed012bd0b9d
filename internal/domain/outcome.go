package domain

import (
	"fmt"
	"strings"
)

// Response is a completed HTTP response for one candidate.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Charset     string
	Body        []byte
}

// StatusOK is the only status code a candidate can be accepted with.
const StatusOK = 200

// AttemptKind classifies the result of fetching one candidate.
type AttemptKind string

const (
	AttemptAccepted AttemptKind = "accepted"
	AttemptRejected AttemptKind = "rejected"
	AttemptFailed   AttemptKind = "failed"
)

// Attempt is the typed result of fetching one candidate.
type Attempt struct {
	URL      string
	Kind     AttemptKind
	Response *Response
	Err      error
}

// AttemptFailure records a transport failure for one candidate.
type AttemptFailure struct {
	URL string
	Err error
}

func (f AttemptFailure) String() string {
	return fmt.Sprintf("%s: %v", f.URL, f.Err)
}

// Accepted is the winning response of a row.
type Accepted struct {
	SourceURL string
	Payload   []byte
	// Encoding is the declared charset of the payload, empty if unknown.
	Encoding string
}

// FetchOutcome is the result of resolving a row's candidates.
type FetchOutcome struct {
	Winner   *Accepted
	Failures []AttemptFailure
	Attempts []Attempt
}

// FailureSeparator joins failure details in a report entry.
const FailureSeparator = " ; AND ; "

// JoinFailures renders failures as a single report cell.
func JoinFailures(failures []AttemptFailure) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, FailureSeparator)
}
