package storage

/*
OSS object layout: {md5[0:4]}/{hex(table)}/{id}.json

OSS has no directories to balance; the md5 prefix only spreads request
load across partitions. Keys within a table are flat so a single prefix
listing returns every document.
*/

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/hkloudou/lakeops/internal/encrypt"
)

// ossStorage implements Storage interface for Aliyun OSS
type ossStorage struct {
	client   *oss.Client
	bucket   *oss.Bucket
	name     string
	endpoint string
	aesKey   []byte // AES encryption key
	mu       sync.RWMutex
}

// OSSConfig holds OSS configuration
type OSSConfig struct {
	Name      string // Storage name
	Endpoint  string // OSS endpoint (e.g., "oss-cn-hangzhou")
	Bucket    string // Bucket name
	AccessKey string // Access key
	SecretKey string // Secret key
	AESKey    string // AES encryption key
	Internal  bool   // Use internal endpoint
}

// NewOSSStorage creates a new OSS storage instance
func NewOSSStorage(cfg OSSConfig) (*ossStorage, error) {
	endpoint := ossEndpoint(cfg.Endpoint, cfg.Internal)

	client, err := oss.New(endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Bucket
	}
	return &ossStorage{
		client:   client,
		bucket:   bucket,
		name:     name,
		endpoint: endpoint,
		aesKey:   []byte(cfg.AESKey),
	}, nil
}

func ossEndpoint(endpoint string, internal bool) string {
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	if internal {
		endpoint += "-internal"
	}
	return fmt.Sprintf("https://%s.aliyuncs.com", endpoint)
}

// Put stores data with the given key (with compression and AES encryption)
func (s *ossStorage) Put(ctx context.Context, key string, data []byte) error {
	s.mu.RLock()
	bucket := s.bucket
	aesKey := s.aesKey
	s.mu.RUnlock()

	sealed, err := encrypt.Seal(data, aesKey)
	if err != nil {
		return err
	}
	return bucket.PutObject(key, bytes.NewReader(sealed), oss.WithContext(ctx))
}

// Get retrieves data by key (with AES decryption and decompression)
func (s *ossStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	bucket := s.bucket
	aesKey := s.aesKey
	s.mu.RUnlock()

	reader, err := bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		var serviceErr oss.ServiceError
		if errors.As(err, &serviceErr) && serviceErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return encrypt.Open(data, aesKey)
}

// Delete removes data by key
func (s *ossStorage) Delete(ctx context.Context, key string) error {
	s.mu.RLock()
	bucket := s.bucket
	s.mu.RUnlock()

	return bucket.DeleteObject(key, oss.WithContext(ctx))
}

// Exists checks if key exists
func (s *ossStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	bucket := s.bucket
	s.mu.RUnlock()

	exists, err := bucket.IsObjectExist(key, oss.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

// List lists all keys with the given prefix
func (s *ossStorage) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	bucket := s.bucket
	s.mu.RUnlock()

	var keys []string
	marker := ""
	for {
		result, err := bucket.ListObjects(oss.Prefix(prefix), oss.Marker(marker), oss.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range result.Objects {
			keys = append(keys, obj.Key)
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}
	return keys, nil
}

func (s *ossStorage) RedisPrefix() string {
	return fmt.Sprintf("%s:%s", "oss", s.name)
}

// MakeDocKey format: {md5[0:4]}/{hex(table)}/{id}.json
func (s *ossStorage) MakeDocKey(table string, id int64) string {
	return fmt.Sprintf("%s%d.json", s.TablePrefix(table), id)
}

func (s *ossStorage) TablePrefix(table string) string {
	return encodeTablePath(table, 4) + "/"
}
