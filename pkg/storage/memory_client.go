package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryClient is an in-process S3Client for tests and local runs.
type MemoryClient struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryClient creates an empty in-memory store
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: make(map[string]memoryObject)}
}

func (c *MemoryClient) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

func (c *MemoryClient) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (c *MemoryClient) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, key)
	return nil
}

func (c *MemoryClient) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int(expiration.Seconds())), nil
}

// ContentType returns the content type an object was uploaded with.
func (c *MemoryClient) ContentType(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.objects[key].contentType
}
