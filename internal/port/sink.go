package port

// TranscriptSink persists transcript text under a sanitized title. Append
// reuses an existing file rather than truncating it and returns the path
// written to.
type TranscriptSink interface {
	Append(title, text string) (string, error)
}
