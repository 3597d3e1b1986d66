// Package s3 implements blobstore.Store on Amazon S3.
//
// Small blobs are written with a single PutObject call. Blobs at or above
// the configured part size go through the transfer manager, which splits
// them into concurrent multipart uploads.
package s3
