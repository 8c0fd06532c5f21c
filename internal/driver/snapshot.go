package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Schema version for the snapshot payload; bump when the format changes.
const snapshotSchemaVersion uint16 = 1

// Digest keys a snapshot by the content of the declaration bundle that
// produced it.
type Digest [sha256.Size]byte

// DigestOf hashes an encoded declaration bundle.
func DigestOf(encodedBundle []byte) Digest {
	return sha256.Sum256(encodedBundle)
}

// Snapshot records the observable result of a checking run so an unchanged
// bundle can skip re-checking.
type Snapshot struct {
	Schema     uint16
	Structs    []string // finalized struct names, sorted
	Functions  []string // finalized function names, sorted
	ErrorCount int
	HasErrors  bool
}

// SnapshotOf summarizes a checking output.
func SnapshotOf(out *Output) *Snapshot {
	snap := &Snapshot{
		Schema:     snapshotSchemaVersion,
		ErrorCount: out.Bag.Len(),
		HasErrors:  out.Bag.HasErrors(),
	}
	for _, st := range out.Structs {
		snap.Structs = append(snap.Structs, st.Data.Name)
	}
	for _, fn := range out.Functions {
		snap.Functions = append(snap.Functions, fn.Data.Name)
	}
	return snap
}

// SnapshotCache stores snapshots keyed by bundle digest on disk.
// Safe for concurrent use.
type SnapshotCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenSnapshotCache initializes the cache at the standard location.
func OpenSnapshotCache(app string) (*SnapshotCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &SnapshotCache{dir: dir}, nil
}

func (c *SnapshotCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a snapshot.
func (c *SnapshotCache) Put(key Digest, snap *Snapshot) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	snap.Schema = snapshotSchemaVersion
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}
	tmp := c.pathFor(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.pathFor(key))
}

// Get reads a snapshot; ok is false on a miss or a stale schema.
func (c *SnapshotCache) Get(key Digest) (*Snapshot, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, err := os.ReadFile(c.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false, err
	}
	if snap.Schema != snapshotSchemaVersion {
		return nil, false, nil
	}
	return &snap, true, nil
}
