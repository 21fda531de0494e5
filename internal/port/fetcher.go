package port

import "context"

// FetchResult is the locally materialized audio artifact produced by a
// fetch, plus the media title used to name the transcript.
type FetchResult struct {
	Path  string
	Title string
}

type Fetcher interface {
	Fetch(ctx context.Context, locator string) (FetchResult, error)
}
