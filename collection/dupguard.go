package collection

import (
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/nereusdb/ndbc/bsondoc"
)

// dupGuard is an optional client-side best-effort duplicate filter for bulk
// inserts: a cuckoo filter sized for the batch flags objects whose "_id"
// has already been seen in this call, so a caller that accidentally submits
// the same document twice in one InsertBulk gets a clear local error instead
// of relying on the server's unique index to reject it later.
type dupGuard struct {
	mu     sync.Mutex
	filter *cuckoo.Filter
}

func newDupGuard(expectedN int) *dupGuard {
	return &dupGuard{filter: cuckoo.NewFilter(uint(nextPow2(expectedN)))}
}

func (g *dupGuard) seen(id []byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.filter.Lookup(id) {
		return true
	}
	g.filter.Insert(id)
	return false
}

func nextPow2(n int) int {
	if n < 1024 {
		n = 1024
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// idBytes extracts a document's "_id" field as a comparable byte key, or
// nil if the document has none (in which case the dup guard can't help).
func idBytes(d bsondoc.Doc) []byte {
	v, ok := d.Lookup("_id")
	if !ok {
		return nil
	}
	switch v.Type {
	case bsondoc.TypeObjectID:
		b := v.OID
		return b[:]
	case bsondoc.TypeString:
		return []byte(v.Str)
	case bsondoc.TypeInt64:
		return []byte{byte(v.I64), byte(v.I64 >> 8), byte(v.I64 >> 16), byte(v.I64 >> 24)}
	default:
		return nil
	}
}
