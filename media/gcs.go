package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const remoteTimeout = 50 * time.Second

// GCSStore keeps images in a Google Cloud Storage bucket under a prefix.
// Without a credentials file the client falls back to application default
// credentials.
type GCSStore struct {
	cl         *storage.Client
	bucketName string
	uploadPath string
}

func NewGCSStore(ctx context.Context, bucketName, uploadPath, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{cl: client, bucketName: bucketName, uploadPath: uploadPath}, nil
}

func (c *GCSStore) object(name string) (*storage.ObjectHandle, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return c.cl.Bucket(c.bucketName).Object(c.uploadPath + name), nil
}

func (c *GCSStore) Save(ctx context.Context, name, contentType string, r io.Reader) error {
	obj, err := c.object(name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}
	return nil
}

func (c *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := c.object(name)
	if err != nil {
		return nil, err
	}

	rc, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return rc, nil
}

func (c *GCSStore) Delete(ctx context.Context, name string) error {
	obj, err := c.object(name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	if err := obj.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete %s: %w", name, fs.ErrNotExist)
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (c *GCSStore) Close() error {
	return c.cl.Close()
}
