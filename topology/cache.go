package topology

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/tidwall/buntdb"
	"golang.org/x/crypto/blake2b"

	"github.com/nereusdb/ndbc/cos"
)

// Cache persists a cluster's last-known seed list and mode (direct /
// replica-set / sharded) keyed by a hash of the seed list (KeyFor), so a process
// that restarts can skip straight to the last-known primary instead of
// replaying full discovery against every seed. Backed by an embedded
// buntdb, which the rest of the example pack uses as its go-to embedded
// key/value store.
type Cache struct {
	db *buntdb.DB
}

// Open opens (creating if needed) a buntdb file at path. path == ":memory:"
// gives an in-process cache with no persistence, useful for tests.
func Open(path string) (*Cache, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, cos.Wrap(err, "open topology cache %s", path)
	}
	return &Cache{db: db}, nil
}

// KeyFor hashes a normalized seed list into a stable cache key.
func KeyFor(seeds []string) string {
	joined := strings.Join(seeds, ",")
	sum := blake2b.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:8])
}

// Entry is what's persisted per cluster key.
type Entry struct {
	Mode        string   `json:"mode"`
	PrimaryHost string   `json:"primary_host"`
	Seeds       []string `json:"seeds"`
}

func (c *Cache) Put(key string, e Entry, ttl time.Duration) error {
	b, err := marshalEntry(e)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *buntdb.Tx) error {
		opts := &buntdb.SetOptions{Expires: ttl > 0, TTL: ttl}
		_, _, err := tx.Set(key, string(b), opts)
		return err
	})
}

func (c *Cache) Get(key string) (Entry, bool, error) {
	var e Entry
	var raw string
	err := c.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err == buntdb.ErrNotFound {
		return e, false, nil
	}
	if err != nil {
		return e, false, cos.Wrap(err, "topology cache get %s", key)
	}
	if err := unmarshalEntry(raw, &e); err != nil {
		return e, false, err
	}
	return e, true, nil
}

func (c *Cache) Close() error { return c.db.Close() }
