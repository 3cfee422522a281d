// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a narrow read-only Client interface, which is
// all the trace loader and the traces command need. Both AWS S3 and self-hosted MinIO
// instances are supported.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the trace bucket.
//   - GetObject: Retrieves a trace as a stream.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//   - ListKeys: Collects object names under a prefix.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	keys, err := storage.ListKeys(ctx, client, cfg.Storage.Bucket, "lobby/")
package storage
