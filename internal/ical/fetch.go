// Package ical fetches iCal/ICS feeds and gates them before AI extraction.
package ical

import (
	"context"
	"io"
	"net/http"
	"time"
)

// UserAgent identifies the dashboard to upstream feed hosts.
const UserAgent = "ThermoAI-iCal-Parser/1.1"

// Fetcher downloads raw feed bodies over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a feed fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch issues a GET for the feed URL and returns the response body as text.
// Feeds are public unauthenticated URLs; no credentials or caching headers
// are sent. A non-2xx status or transport failure returns a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{Cause: err}
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Cause: err}
	}

	return string(body), nil
}
