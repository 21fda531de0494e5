package port

import "context"

type Transcriber interface {
	// LoadModel prepares the speech model. Implementations resolve it at
	// most once per transcriber lifetime; repeat calls are cheap.
	LoadModel(ctx context.Context) error
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
