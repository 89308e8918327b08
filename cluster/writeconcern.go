package cluster

import "github.com/nereusdb/ndbc/bsondoc"

// WriteConcern describes how strongly a write must be acknowledged before
// Insert/Update/Delete return, per spec §4.8's "insert(flags, doc,
// write_concern)" and §2's "if the operation is a write and the
// write-concern demands acknowledgement, the cluster appends a follow-up
// getLastError query".
type WriteConcern struct {
	// W is the acknowledgement level. nil (the zero value) means
	// unacknowledged, no getLastError round-trip at all, unless Journal or
	// WTimeoutMS is set, in which case the concern is acknowledged and the
	// getLastError command carries only those fields. An int is the
	// replica-set acknowledgement count; a string ("majority", a tag-set
	// name) is passed through verbatim.
	W          interface{}
	Journal    bool
	WTimeoutMS int
}

// Unacknowledged is the zero-value "fire and forget" concern.
var Unacknowledged = WriteConcern{}

// Acked builds an acknowledged concern requesting w acknowledgements (an
// int) or a named concern such as "majority" (a string).
func Acked(w interface{}) WriteConcern { return WriteConcern{W: w} }

// Acknowledged reports whether this concern requires a getLastError
// round-trip after the preceding write.
func (wc WriteConcern) Acknowledged() bool {
	switch w := wc.W.(type) {
	case nil:
		return wc.Journal || wc.WTimeoutMS > 0
	case int:
		return w != 0
	case int32:
		return w != 0
	case string:
		return w != ""
	default:
		return true
	}
}

// GetLastErrorCommand builds the {getLastError:1, w, j, wtimeout} selector
// end-to-end scenario 2 requires, folding in only the fields this concern
// actually sets.
func (wc WriteConcern) GetLastErrorCommand() bsondoc.Doc {
	b := bsondoc.NewBuilder().AppendInt32("getLastError", 1)
	switch w := wc.W.(type) {
	case int:
		b.AppendInt32("w", int32(w))
	case int32:
		b.AppendInt32("w", w)
	case string:
		b.AppendString("w", w)
	}
	if wc.Journal {
		b.AppendBool("j", true)
	}
	if wc.WTimeoutMS > 0 {
		b.AppendInt32("wtimeout", int32(wc.WTimeoutMS))
	}
	return b.Finish()
}
