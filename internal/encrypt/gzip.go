package encrypt

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Seal compresses data and, when aesKey is set, encrypts the result.
func Seal(data []byte, aesKey []byte) ([]byte, error) {
	var compressedBuf bytes.Buffer
	gzipWriter, err := gzip.NewWriterLevel(&compressedBuf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := gzipWriter.Write(data); err != nil {
		gzipWriter.Close()
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	if len(aesKey) == 0 {
		return compressedBuf.Bytes(), nil
	}
	encrypted, err := AesGcmEncrypt(compressedBuf.Bytes(), aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}
	return encrypted, nil
}

// Open reverses Seal.
func Open(data []byte, aesKey []byte) ([]byte, error) {
	compressed := data
	if len(aesKey) > 0 {
		decrypted, err := AesGcmDecrypt(data, aesKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt data: %w", err)
		}
		compressed = decrypted
	}

	gzipReader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	out, err := io.ReadAll(gzipReader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	return out, nil
}
