// Package storage keeps bank snapshots (YAML exports) as named blobs.
package storage

import "io"

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	List() ([]string, error) // keys, sorted
}
