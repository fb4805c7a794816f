package repository

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// CacheSchemaVersion defines the current schema version for cache entry files
	CacheSchemaVersion = "1.0.0"
	// CacheFilePermissions defines the permissions for cache entry files
	CacheFilePermissions = 0600
	// CacheDirPermissions defines the permissions for cache directories
	CacheDirPermissions = 0700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// CacheMetadata describes a stored cache entry.
type CacheMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	Key           string    `json:"key"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// CacheWrapper wraps the value with metadata
type CacheWrapper struct {
	Metadata CacheMetadata   `json:"metadata"`
	Value    json.RawMessage `json:"value"`
}

// FileCache implements CacheRepository with one JSON file per entry.
// Lock files rely on OS file locks, so fs must be backed by the OS filesystem.
type FileCache struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileCache creates a file-backed cache rooted at dir.
func NewFileCache(fs afero.Fs, dir string, logger *zap.Logger) *FileCache {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "tgit-cache")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCache{
		fs:     fs,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Set writes the entry atomically under an exclusive lock.
func (c *FileCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return fmt.Errorf("cache value for %s is not valid JSON: %w", namespace, err)
	}
	value = compact.Bytes()
	if err := c.fs.MkdirAll(c.namespaceDir(namespace), CacheDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %w", err)
	}
	filename := c.entryFilename(namespace, key)
	lock := flock.New(c.lockFilename(namespace, key))
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := acquireLockWithContext(lockCtx, lock.TryLock)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire lock within timeout")
	}
	defer c.unlock(lock)
	now := c.now()
	wrapper := CacheWrapper{
		Metadata: CacheMetadata{
			SchemaVersion: CacheSchemaVersion,
			Checksum:      calculateChecksum(value),
			Key:           key,
			CreatedAt:     now,
			ExpiresAt:     expiryFor(now, ttl),
		},
		Value: json.RawMessage(value),
	}
	data, err := json.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("failed to marshal cache wrapper: %w", err)
	}
	tempFile := filename + ".tmp"
	if err := afero.WriteFile(c.fs, tempFile, data, CacheFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := c.fs.Rename(tempFile, filename); err != nil {
		if removeErr := c.fs.Remove(tempFile); removeErr != nil {
			c.logger.Warn("Failed to remove temp cache file", zap.String("file", tempFile), zap.Error(removeErr))
		}
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// Get reads the entry under a shared lock. Missing, expired, corrupted and
// incompatible entries are reported as misses.
func (c *FileCache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	filename := c.entryFilename(namespace, key)
	if _, err := c.fs.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to check cache file: %w", err)
	}
	lock := flock.New(c.lockFilename(namespace, key))
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := acquireLockWithContext(lockCtx, lock.TryRLock)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire shared lock: %w", err)
	}
	if !locked {
		return nil, false, fmt.Errorf("could not acquire shared lock within timeout")
	}
	defer c.unlock(lock)
	data, err := afero.ReadFile(c.fs, filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	var wrapper CacheWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		c.logger.Debug("Discarding unreadable cache entry", zap.String("file", filename), zap.Error(err))
		return nil, false, nil
	}
	switch {
	case wrapper.Metadata.SchemaVersion != CacheSchemaVersion:
		c.logger.Debug("Discarding cache entry with incompatible schema",
			zap.String("file", filename), zap.String("schema_version", wrapper.Metadata.SchemaVersion))
		return nil, false, nil
	case wrapper.Metadata.Key != key:
		return nil, false, nil
	case wrapper.Metadata.Checksum != calculateChecksum(wrapper.Value):
		c.logger.Debug("Discarding cache entry with checksum mismatch", zap.String("file", filename))
		return nil, false, nil
	case expired(c.now(), wrapper.Metadata.ExpiresAt):
		return nil, false, nil
	}
	return []byte(wrapper.Value), true, nil
}

// Purge removes every entry of namespace.
func (c *FileCache) Purge(_ context.Context, namespace string) error {
	if err := c.fs.RemoveAll(c.namespaceDir(namespace)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to purge cache namespace %s: %w", namespace, err)
	}
	return nil
}

func (c *FileCache) unlock(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		c.logger.Warn("Failed to unlock cache file", zap.String("file", lock.Path()), zap.Error(err))
	}
}

func (c *FileCache) namespaceDir(namespace string) string {
	return filepath.Join(c.dir, calculateChecksum([]byte(namespace))[:16])
}

func (c *FileCache) entryFilename(namespace, key string) string {
	return filepath.Join(c.namespaceDir(namespace), calculateChecksum([]byte(key))+".json")
}

func (c *FileCache) lockFilename(namespace, key string) string {
	return filepath.Join(c.namespaceDir(namespace), "."+calculateChecksum([]byte(key))+".lock")
}

// acquireLockWithContext polls try until the lock is held or ctx is done.
func acquireLockWithContext(ctx context.Context, try func() (bool, error)) (bool, error) {
	if locked, err := try(); err != nil || locked {
		return locked, err
	}
	ticker := time.NewTicker(LockRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
			locked, err := try()
			if err != nil {
				return false, err
			}
			if locked {
				return true, nil
			}
		}
	}
}

// calculateChecksum calculates SHA-256 checksum of data
func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
