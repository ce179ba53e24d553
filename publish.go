package obras2pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Publisher uploads a written report and returns its remote location.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
	Close() error
}

// objectStore opens writers for objects in one bucket (abstracted for testing).
type objectStore interface {
	NewWriter(ctx context.Context, object, contentType string) io.WriteCloser
}

// gcsBucket implements objectStore with Cloud Storage.
type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b gcsBucket) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

var _ Publisher = (*GCSPublisher)(nil)

// GCSPublisher uploads reports to gs://<bucket>/<prefix>/<file>.
type GCSPublisher struct {
	bucket  string
	prefix  string
	objects objectStore
	client  *storage.Client // nil when objects is injected
}

// NewGCSPublisher connects to Cloud Storage. Without options the client uses
// application default credentials.
func NewGCSPublisher(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSPublisher, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("%w: empty bucket name", ErrPublish)
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating storage client: %v", ErrPublish, err)
	}
	return &GCSPublisher{
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		objects: gcsBucket{handle: client.Bucket(bucket)},
		client:  client,
	}, nil
}

// ObjectName returns the object key for a local report file.
func (p *GCSPublisher) ObjectName(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}

// Publish streams the file to the bucket. The object is committed on Close;
// a failed copy cancels the writer's context first, so nothing is committed.
func (p *GCSPublisher) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath) // #nosec G304 -- path of a report this run wrote
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer func() { _ = f.Close() }()

	name := p.ObjectName(localPath)
	uri := "gs://" + p.bucket + "/" + name

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := p.objects.NewWriter(wctx, name, "application/pdf")
	if _, err := io.Copy(w, f); err != nil {
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("%w: writing %s: %v", ErrPublish, uri, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: finalizing %s: %v", ErrPublish, uri, err)
	}
	return uri, nil
}

// Close releases the storage client.
func (p *GCSPublisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
