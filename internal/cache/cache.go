// Package cache memoizes per-file, per-analyzer partial results so
// unchanged files are not re-scanned. Entries are content-addressed:
// the key is derived from the analyzed file's own bytes, never from
// mtime or path, so a cache hit guarantees byte-identical inputs.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pierrec/lz4/v4"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/observability"
)

const (
	dirPerm = 0o750

	tmpExtension = ".tmp"

	// compressThreshold is the marshaled-entry size above which stored
	// bytes are lz4-compressed before the atomic write.
	compressThreshold = 8 * 1024

	lz4Magic byte = 0xA5
	rawMagic byte = 0x00
)

// ErrMiss is returned by Lookup when no valid entry is found.
var ErrMiss = errors.New("cache: miss")

// Stats is an in-memory, per-process accounting of cache activity.
// It is never persisted: a fresh process starts at zero, matching the
// source's explicit non-decision against a time-based TTL.
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	TotalEntries int64 `json:"total_entries"`
	Bytes        int64 `json:"bytes"`
}

// Cache is a content-addressed, file-backed memo store rooted at one
// ".air/cache" directory, shared safely across concurrent readers and
// writers (including multiple OS processes, per spec: "last-rename
// wins, both results are equivalent by construction").
type Cache struct {
	rootDir         string
	softwareVersion string

	// Metrics, if set, records hit/miss counts as OTel instruments.
	// Nil is a valid zero value (CacheMetrics' methods no-op on a nil
	// receiver), so callers that don't care about metrics can skip it.
	Metrics *observability.CacheMetrics

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Cache rooted at rootDir (typically "<workspace>/.air/cache").
func New(rootDir, softwareVersion string) *Cache {
	return &Cache{rootDir: rootDir, softwareVersion: softwareVersion}
}

// Lookup computes repoPath's and fileBytes' content hashes and returns
// the stored entry for (repo, file, analyzerName), or ErrMiss if none
// exists or the stored entry's software version is stale.
func (c *Cache) Lookup(repoPath string, fileBytes []byte, analyzerName string) (model.CacheEntry, error) {
	entryPath := c.entryPath(repoPath, fileBytes, analyzerName)

	data, readErr := os.ReadFile(entryPath) //nolint:gosec // entryPath is derived from a content hash, not user input.
	if readErr != nil {
		c.recordMiss()

		return model.CacheEntry{}, ErrMiss
	}

	raw, decodeErr := decodeStored(data)
	if decodeErr != nil {
		c.recordMiss()

		return model.CacheEntry{}, ErrMiss
	}

	var entry model.CacheEntry

	if unmarshalErr := json.Unmarshal(raw, &entry); unmarshalErr != nil {
		c.recordMiss()

		return model.CacheEntry{}, ErrMiss
	}

	if entry.SoftwareVersion != c.softwareVersion {
		c.recordMiss()

		return model.CacheEntry{}, ErrMiss
	}

	c.recordHit()

	return entry, nil
}

func (c *Cache) recordHit() {
	c.hits.Add(1)
	c.Metrics.RecordHit(context.Background())
}

func (c *Cache) recordMiss() {
	c.misses.Add(1)
	c.Metrics.RecordMiss(context.Background())
}

// Store writes entry for (repo, file, analyzerName), atomically:
// write to a tmp file in the same directory, then rename.
func (c *Cache) Store(repoPath string, fileBytes []byte, analyzerName string, entry model.CacheEntry) error {
	entry.SoftwareVersion = c.softwareVersion

	marshaled, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		return fmt.Errorf("cache store marshal: %w", marshalErr)
	}

	stored := encodeStored(marshaled)

	entryPath := c.entryPath(repoPath, fileBytes, analyzerName)

	if err := AtomicWriteFile(entryPath, stored); err != nil {
		return fmt.Errorf("cache store: %w", err)
	}

	return nil
}

// AtomicWriteFile writes data to path by creating a sibling tmp file in
// the same directory, fsyncing it, then renaming it over path — so
// concurrent readers never observe a partially written file. It is
// shared by the Cache's own entry writes and by any other component
// that needs crash-safe last-writer-wins semantics, such as the
// Orchestrator's findings-artifact writes.
func AtomicWriteFile(path string, data []byte) error {
	if mkErr := os.MkdirAll(filepath.Dir(path), dirPerm); mkErr != nil {
		return fmt.Errorf("mkdir: %w", mkErr)
	}

	tmpPath := path + tmpExtension

	fd, createErr := os.Create(tmpPath) //nolint:gosec // path is derived from operator-supplied repo/analyzer names or a content hash.
	if createErr != nil {
		return fmt.Errorf("create: %w", createErr)
	}

	if _, writeErr := fd.Write(data); writeErr != nil {
		fd.Close()

		return fmt.Errorf("write: %w", writeErr)
	}

	if syncErr := fd.Sync(); syncErr != nil {
		fd.Close()

		return fmt.Errorf("sync: %w", syncErr)
	}

	if closeErr := fd.Close(); closeErr != nil {
		return fmt.Errorf("close: %w", closeErr)
	}

	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		return fmt.Errorf("rename: %w", renameErr)
	}

	return nil
}

// Clear deletes the cache partition for repoPath, or the whole cache
// directory when repoPath is empty.
func (c *Cache) Clear(repoPath string) error {
	if repoPath == "" {
		if err := os.RemoveAll(c.rootDir); err != nil {
			return fmt.Errorf("cache clear all: %w", err)
		}

		return nil
	}

	partition := filepath.Join(c.rootDir, repoHash(repoPath))

	if err := os.RemoveAll(partition); err != nil {
		return fmt.Errorf("cache clear %s: %w", repoPath, err)
	}

	return nil
}

// Stats returns hit/miss counters plus the on-disk entry count and
// total byte size under rootDir, computed fresh from the filesystem
// (entries are not tracked incrementally in memory, only hit/miss is).
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}

	walkErr := filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort stats walk.
		}

		if info.IsDir() || filepath.Ext(path) == tmpExtension {
			return nil
		}

		stats.TotalEntries++
		stats.Bytes += info.Size()

		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return Stats{}, fmt.Errorf("cache stats: %w", walkErr)
	}

	return stats, nil
}

func (c *Cache) entryPath(repoPath string, fileBytes []byte, analyzerName string) string {
	fileHash := sha256.Sum256(fileBytes)
	fileHashHex := hex.EncodeToString(fileHash[:])

	return filepath.Join(c.rootDir, repoHash(repoPath), fileHashHex+"-"+analyzerName+".json")
}

func repoHash(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		abs = repoPath
	}

	sum := sha256.Sum256([]byte(abs))

	return hex.EncodeToString(sum[:])
}

// encodeStored prefixes marshaled JSON with a one-byte format tag,
// compressing with lz4 when the payload exceeds compressThreshold.
func encodeStored(marshaled []byte) []byte {
	if len(marshaled) < compressThreshold {
		return append([]byte{rawMagic}, marshaled...)
	}

	var compressed bytes.Buffer

	compressed.WriteByte(lz4Magic)

	writer := lz4.NewWriter(&compressed)
	if _, err := writer.Write(marshaled); err != nil {
		return append([]byte{rawMagic}, marshaled...)
	}

	if err := writer.Close(); err != nil {
		return append([]byte{rawMagic}, marshaled...)
	}

	return compressed.Bytes()
}

func decodeStored(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("cache decode: empty entry")
	}

	magic, body := stored[0], stored[1:]

	switch magic {
	case rawMagic:
		return body, nil
	case lz4Magic:
		var out bytes.Buffer

		if _, err := io.Copy(&out, lz4.NewReader(bytes.NewReader(body))); err != nil {
			return nil, fmt.Errorf("cache decode lz4: %w", err)
		}

		return out.Bytes(), nil
	default:
		return nil, fmt.Errorf("cache decode: unrecognized format byte %x", magic)
	}
}
