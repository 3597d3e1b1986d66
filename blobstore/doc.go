// Package blobstore provides the storage abstraction behind the second-tier
// facet term cache.
//
// Blobs are small immutable payloads addressed by name. Names are built by
// the caller as "<datatype>/<field>/<digest>" so a prefix listing finds every
// entry a record update invalidates.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, used by tests and single-node setups
//   - LocalStore: one file per blob under a root directory
//   - s3.Store: Amazon S3, multipart uploads via the transfer manager
//   - minio.Store: MinIO and other S3-compatible services
//
// Implementations must be safe for concurrent use.
package blobstore
