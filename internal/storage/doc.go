// Package storage provides the blob store the restaurant dataset lives in.
//
// It supports:
//   - memory: in-process map (tests, dry runs)
//   - file:   one file per key under a directory, replaced atomically
//   - sqlite: a single-table blob store (modernc.org/sqlite)
//   - gcs:    Google Cloud Storage bucket
//   - s3:     Amazon S3 bucket
package storage
