// Package blob provides the object storage abstraction the model store
// reads serialized model documents from. Three backends are supported:
// process memory (tests), a local directory (development) and S3/MinIO
// (production).
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

// Supported blob drivers.
const (
	// DriverMemory is the in-memory implementation used in tests.
	DriverMemory Driver = "memory"
	// DriverFilesystem stores objects under a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 targets an S3 or MinIO compatible service.
	DriverS3 Driver = "s3"
)

// Info describes a stored object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the minimal object storage surface the model store depends on.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("blob: object not found")

// OpenFromEnv selects a backend using environment variables, defaulting to
// the filesystem driver.
//
//	FLUXCORE_BLOB_DRIVER: memory|fs|s3 (default fs)
//	FLUXCORE_BLOB_FS_ROOT: directory for the fs driver (default ./modeldata)
//	FLUXCORE_BLOB_S3_BUCKET / _REGION / _ENDPOINT / _PATH_STYLE: s3 driver
func OpenFromEnv(ctx context.Context) (Store, error) {
	driver := os.Getenv("FLUXCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("FLUXCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return NewS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
