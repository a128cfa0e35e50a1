package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"path"
	"strconv"
	"strings"
)

// ErrNotFound is wrapped by Get when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Storage is the interface for object storage (OSS/Local/Memory)
type Storage interface {
	// Put stores data with the given key
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves data by key
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes data by key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if key exists
	Exists(ctx context.Context, key string) (bool, error)

	// List lists all keys with the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// MakeDocKey returns the key of one document of a table
	MakeDocKey(table string, id int64) string

	// TablePrefix returns the prefix shared by every document key of a table
	TablePrefix(table string) string

	// RedisPrefix namespaces Redis keys (sequences, cache) for this storage
	RedisPrefix() string
}

// encodeTablePath encodes a table name following OSS best practices.
// Hex keeps case sensitivity on case-insensitive backends, and the md5
// prefix spreads tables across md5[0:shardSize] directories.
//
//	"users" (shardSize 4) -> "9bc6/7573657273"
func encodeTablePath(table string, shardSize int) string {
	hash := md5.Sum([]byte(table))
	return hex.EncodeToString(hash[:])[0:shardSize] + "/" + hex.EncodeToString([]byte(table))
}

// ParseDocKey extracts the document id from a key produced by MakeDocKey.
func ParseDocKey(key string) (int64, bool) {
	base := path.Base(key)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	id, err := strconv.ParseInt(base, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
