package contents

import (
	"context"

	"github.com/nbhub/contents_sdk_go/pkg/deferred"
)

// Async variants run the corresponding operation in its own goroutine and
// hand the caller a deferred value settled exactly once with the outcome.
// Callers that issue several operations concurrently are responsible for
// serializing writes that must not race.

func (c *Client) GetAsync(ctx context.Context, path string, opts *Options) *deferred.Deferred[*ContentItem] {
	return deferred.Run(func() (*ContentItem, error) { return c.Get(ctx, path, opts) })
}

func (c *Client) ListAsync(ctx context.Context, path string) *deferred.Deferred[*ContentItem] {
	return deferred.Run(func() (*ContentItem, error) { return c.List(ctx, path) })
}

func (c *Client) NewUntitledAsync(ctx context.Context, path string, opts *Options) *deferred.Deferred[*ContentItem] {
	return deferred.Run(func() (*ContentItem, error) { return c.NewUntitled(ctx, path, opts) })
}

func (c *Client) SaveAsync(ctx context.Context, path string, model *ContentItem) *deferred.Deferred[*ContentItem] {
	return deferred.Run(func() (*ContentItem, error) { return c.Save(ctx, path, model) })
}

func (c *Client) RenameAsync(ctx context.Context, path, newPath string) *deferred.Deferred[*ContentItem] {
	return deferred.Run(func() (*ContentItem, error) { return c.Rename(ctx, path, newPath) })
}

func (c *Client) CopyAsync(ctx context.Context, fromPath, toDir string) *deferred.Deferred[*ContentItem] {
	return deferred.Run(func() (*ContentItem, error) { return c.Copy(ctx, fromPath, toDir) })
}

func (c *Client) DeleteAsync(ctx context.Context, path string) *deferred.Deferred[struct{}] {
	return deferred.Run(func() (struct{}, error) { return struct{}{}, c.Delete(ctx, path) })
}

func (c *Client) CreateCheckpointAsync(ctx context.Context, path string) *deferred.Deferred[*Checkpoint] {
	return deferred.Run(func() (*Checkpoint, error) { return c.CreateCheckpoint(ctx, path) })
}

func (c *Client) ListCheckpointsAsync(ctx context.Context, path string) *deferred.Deferred[[]Checkpoint] {
	return deferred.Run(func() ([]Checkpoint, error) { return c.ListCheckpoints(ctx, path) })
}

func (c *Client) RestoreCheckpointAsync(ctx context.Context, path, checkpointID string) *deferred.Deferred[struct{}] {
	return deferred.Run(func() (struct{}, error) { return struct{}{}, c.RestoreCheckpoint(ctx, path, checkpointID) })
}

func (c *Client) DeleteCheckpointAsync(ctx context.Context, path, checkpointID string) *deferred.Deferred[struct{}] {
	return deferred.Run(func() (struct{}, error) { return struct{}{}, c.DeleteCheckpoint(ctx, path, checkpointID) })
}
