package domain

import (
	"context"
	"strings"
	"time"
)

// Resolver tries a row's candidates and picks the winning response.
type Resolver struct {
	fetcher  Fetcher
	filetype string
	timeout  time.Duration
}

// NewResolver creates a resolver accepting responses whose content type
// contains filetype.
func NewResolver(fetcher Fetcher, filetype string, timeout time.Duration) *Resolver {
	return &Resolver{fetcher: fetcher, filetype: filetype, timeout: timeout}
}

// Resolve attempts every candidate in order. It does not stop at the first
// acceptable response: the last acceptable candidate wins, so later link
// columns override earlier ones. Transport failures are collected and never
// abort the row.
func (r *Resolver) Resolve(ctx context.Context, candidates []string) FetchOutcome {
	var out FetchOutcome
	for _, url := range candidates {
		attempt := r.attempt(ctx, url)
		out.Attempts = append(out.Attempts, attempt)
		switch attempt.Kind {
		case AttemptFailed:
			out.Failures = append(out.Failures, AttemptFailure{URL: url, Err: attempt.Err})
		case AttemptAccepted:
			out.Winner = &Accepted{
				SourceURL: attempt.Response.URL,
				Payload:   attempt.Response.Body,
				Encoding:  attempt.Response.Charset,
			}
		}
	}
	return out
}

func (r *Resolver) attempt(ctx context.Context, url string) Attempt {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return Attempt{URL: url, Kind: AttemptFailed, Err: err}
	}
	if !r.Accepts(resp) {
		return Attempt{URL: url, Kind: AttemptRejected, Response: resp}
	}
	return Attempt{URL: url, Kind: AttemptAccepted, Response: resp}
}

// Accepts reports whether resp is a 200 whose content type contains the
// filetype token. This is a substring match, not a MIME comparison.
func (r *Resolver) Accepts(resp *Response) bool {
	return resp.StatusCode == StatusOK && strings.Contains(resp.ContentType, r.filetype)
}
