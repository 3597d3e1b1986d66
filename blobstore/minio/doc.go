// Package minio implements blobstore.Store on MinIO and other S3-compatible
// object stores.
//
// Example:
//
//	client, _ := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := minio.NewStore(client, "facet-cache", "prod/")
package minio
