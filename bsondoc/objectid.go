package bsondoc

import (
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ObjectID is the 12-byte (4-byte timestamp, 5-byte random, 3-byte counter)
// identifier used for GridFS file ids and for tests, following the layout
// the original `mongoc-gridfs-file.c` expects of a document's `_id`.
type ObjectID [12]byte

var oidCounter uint32

// per-process random component, sourced once from a UUID (5 bytes of it) so
// concurrently constructed clients don't collide on machine/pid-derived
// randomness the way the legacy C driver's ObjectID generator does.
var oidRandom = func() [5]byte {
	var r [5]byte
	u := uuid.New()
	copy(r[:], u[:5])
	return r
}()

func NewObjectID() ObjectID {
	var id ObjectID
	now := uint32(time.Now().Unix())
	id[0], id[1], id[2], id[3] = byte(now>>24), byte(now>>16), byte(now>>8), byte(now)
	copy(id[4:9], oidRandom[:])
	c := atomic.AddUint32(&oidCounter, 1)
	id[9], id[10], id[11] = byte(c>>16), byte(c>>8), byte(c)
	return id
}

func (id ObjectID) Hex() string { return hex.EncodeToString(id[:]) }

func (id ObjectID) IsZero() bool {
	var z ObjectID
	return id == z
}
