package queue

import (
	"context"
	"sync"
)

// MemoryClient runs the ingest handler in-process, for development without
// SQS. Send blocks only long enough to hand off to a goroutine.
type MemoryClient struct {
	// Handle processes one message; failures are the handler's to record.
	Handle func(ctx context.Context, msg Message)

	wg sync.WaitGroup
}

// Send dispatches the message to the handler on a fresh goroutine with a
// detached context.
func (c *MemoryClient) Send(ctx context.Context, msg Message) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Handle(context.WithoutCancel(ctx), msg)
	}()
	return nil
}

// Wait blocks until all dispatched messages finish. Tests use it to avoid
// racing the background handler.
func (c *MemoryClient) Wait() {
	c.wg.Wait()
}

var _ Client = (*MemoryClient)(nil)
