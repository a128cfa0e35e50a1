package storage

/*
Directory layout (file storage):

Structure: {md5[0:2]}/{hex(table)}/{hash1}/{hash2}/{id}.dat
Example:   9b/7573657273/00/2a/42.dat

  - md5[0:2]: 256 dirs, keeps any one directory from holding every table
  - hex(table): table directory, case preserving on any filesystem
  - hash1/hash2: low 16 bits of the id, 65,536 leaf dirs per table

A table with 100M documents holds ~1.5k files per leaf directory.
*/

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hkloudou/lakeops/internal/encrypt"
)

// fileStorage implements Storage interface for local file system
type fileStorage struct {
	name     string
	basePath string // Base directory path for storage
	aesKey   []byte // AES encryption key
	mu       sync.RWMutex
}

// FileConfig holds file storage configuration
type FileConfig struct {
	Name     string // Storage name
	BasePath string // Base directory path (e.g., "/data/lakeops" or "./storage")
	AESKey   string // AES encryption key, empty disables encryption
}

// NewFileStorage creates a new file storage instance
func NewFileStorage(cfg FileConfig) (*fileStorage, error) {
	basePath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &fileStorage{
		name:     cfg.Name,
		basePath: basePath,
		aesKey:   []byte(cfg.AESKey),
	}, nil
}

// Put stores data with the given key (with compression and AES encryption)
func (s *fileStorage) Put(ctx context.Context, key string, data []byte) error {
	s.mu.RLock()
	aesKey := s.aesKey
	basePath := s.basePath
	s.mu.RUnlock()

	sealed, err := encrypt.Seal(data, aesKey)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// write to a uniquely named temp file then rename, so concurrent writers
	// of the same key never interleave
	tmpFile := fullPath + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmpFile, sealed, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpFile, fullPath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get retrieves data by key (with AES decryption and decompression)
func (s *fileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	aesKey := s.aesKey
	basePath := s.basePath
	s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(basePath, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return encrypt.Open(data, aesKey)
}

// Delete removes data by key
func (s *fileStorage) Delete(ctx context.Context, key string) error {
	s.mu.RLock()
	basePath := s.basePath
	s.mu.RUnlock()

	if err := os.Remove(filepath.Join(basePath, filepath.FromSlash(key))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if key exists
func (s *fileStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	basePath := s.basePath
	s.mu.RUnlock()

	_, err := os.Stat(filepath.Join(basePath, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// List lists all keys under the given prefix directory
func (s *fileStorage) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	basePath := s.basePath
	s.mu.RUnlock()

	var keys []string
	err := filepath.WalkDir(filepath.Join(basePath, filepath.FromSlash(prefix)), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		relPath, err := filepath.Rel(basePath, path)
		if err != nil {
			return err
		}
		// forward slashes, like OSS
		keys = append(keys, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *fileStorage) RedisPrefix() string {
	return fmt.Sprintf("%s:%s", "file", s.name)
}

// MakeDocKey format: {md5[0:2]}/{hex(table)}/{hash1}/{hash2}/{id}.dat
func (s *fileStorage) MakeDocKey(table string, id int64) string {
	hash1, hash2 := getIDHash(id)
	return fmt.Sprintf("%s%s/%s/%d.dat", s.TablePrefix(table), hash1, hash2, id)
}

func (s *fileStorage) TablePrefix(table string) string {
	return encodeTablePath(table, 2) + "/"
}
