package adapter

import "context"

// ResultStore publishes generated image bytes to durable object storage and
// returns a public URL for the stored object.
type ResultStore interface {
	Publish(ctx context.Context, key string, data []byte, contentType string) (publicURL string, err error)
}
