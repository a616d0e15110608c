package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureBucket returns the conversation key-value bucket, creating it with
// file storage when it does not exist. History is kept at one revision and
// entries never expire.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) (jetstream.KeyValue, error) {
	kv, err := c.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Conversation message logs keyed by conversation id",
		History:     1,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure key-value bucket %q: %w", bucket, err)
	}
	return kv, nil
}
