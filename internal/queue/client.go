package queue

import "context"

// Client delivers ingest tasks to whatever backend carries them: SQS in
// deployment, the in-process client in development.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
