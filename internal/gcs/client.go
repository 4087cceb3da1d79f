package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client is the concrete implementation of ObjectStore backed by
// Google Cloud Storage. It assumes Application Default Credentials unless
// client options say otherwise.
type Client struct {
	client *storage.Client
}

// NewClient creates a storage client.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Client{client: client}, nil
}

// Close closes the storage client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Read downloads an object and reports its generation.
func (c *Client) Read(ctx context.Context, bucket, object string) ([]byte, int64, error) {
	r, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, fmt.Errorf("gs://%s/%s: %w", bucket, object, ErrNotFound)
		}
		return nil, 0, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read GCS object: %w", err)
	}

	return data, r.Attrs.Generation, nil
}

// Write uploads data, conditioned on the object's generation.
func (c *Client) Write(ctx context.Context, bucket, object string, data []byte, generation int64) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := c.client.Bucket(bucket).Object(object)
	if generation == 0 {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	} else {
		obj = obj.If(storage.Conditions{GenerationMatch: generation})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object: %w", err)
	}

	// Close finalizes the upload and reports precondition failures
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 412 {
			return fmt.Errorf("gs://%s/%s: %w", bucket, object, ErrPreconditionFailed)
		}
		return fmt.Errorf("finalize upload: %w", err)
	}

	return nil
}

// List returns the names of objects under prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := c.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}
