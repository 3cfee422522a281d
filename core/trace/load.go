package trace

import (
	"context"
	"fmt"
	"io"
	"os"

	"presence-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// Load reads and parses the trace file at path.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadObject downloads and parses a trace stored as object in bucket.
func LoadObject(ctx context.Context, client storage.Client, bucket, object string) (*Trace, error) {
	obj, err := client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get trace %s/%s: %w", bucket, object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace %s/%s: %w", bucket, object, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", bucket, object, err)
	}
	return t, nil
}
