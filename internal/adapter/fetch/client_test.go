package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", ua, DefaultUserAgent)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	resp, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.ContentType != "application/pdf" {
		t.Errorf("expected content-type application/pdf, got %s", resp.ContentType)
	}
	if string(resp.Body) != "%PDF-1.7" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if resp.Charset != "" {
		t.Errorf("expected no charset, got %q", resp.Charset)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("moved"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := NewClient(DefaultOptions()).Fetch(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.URL != server.URL+"/new" {
		t.Errorf("expected final URL %s/new, got %s", server.URL, resp.URL)
	}
}

func TestFetchNonOKIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resp, err := NewClient(DefaultOptions()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(DefaultOptions()).Fetch(ctx, server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestFetchMalformedURL(t *testing.T) {
	_, err := NewClient(DefaultOptions()).Fetch(context.Background(), "://nope")
	if err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestFetchMaxBodyBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxBodyBytes = 10
	_, err := NewClient(opts).Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestCharsetOf(t *testing.T) {
	tests := map[string]string{
		"text/html; charset=utf-8":         "utf-8",
		"text/html":                        "ISO-8859-1",
		"application/pdf":                  "",
		"application/json; charset=UTF-16": "UTF-16",
		"":                                 "",
		"text/html; charset":               "",
	}
	for ct, want := range tests {
		if got := charsetOf(ct); got != want {
			t.Errorf("charsetOf(%q) = %q, want %q", ct, got, want)
		}
	}
}
