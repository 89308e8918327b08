package bsondoc

import "testing"

func TestBuildAndIterateRoundTrip(t *testing.T) {
	sub := NewBuilder().AppendInt32("w", 1).Finish()
	doc := NewBuilder().
		AppendString("name", "alice").
		AppendInt32("age", 30).
		AppendInt64("big", 1<<40).
		AppendBool("active", true).
		AppendNull("deleted").
		AppendDocument("concern", sub).
		Finish()

	if doc.Len() != int32(len(doc.Bytes())) {
		t.Fatalf("Len()=%d != byte length %d", doc.Len(), len(doc.Bytes()))
	}

	got := map[string]Value{}
	it := doc.Iterator()
	for it.Next() {
		got[it.Key()] = it.Value()
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate error: %v", err)
	}

	if got["name"].Str != "alice" {
		t.Errorf("name = %q, want alice", got["name"].Str)
	}
	if got["age"].I32 != 30 {
		t.Errorf("age = %d, want 30", got["age"].I32)
	}
	if got["big"].I64 != 1<<40 {
		t.Errorf("big = %d, want %d", got["big"].I64, int64(1)<<40)
	}
	if !got["active"].Bool {
		t.Errorf("active = false, want true")
	}
	if got["deleted"].Type != TypeNull {
		t.Errorf("deleted type = 0x%02x, want null", got["deleted"].Type)
	}
	w, ok := got["concern"].Doc.Lookup("w")
	if !ok || w.I32 != 1 {
		t.Errorf("concern.w = %+v, ok=%v, want 1", w, ok)
	}
}

func TestFromBytesRejectsShortOrOversizedLength(t *testing.T) {
	if _, err := FromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for too-short buffer")
	}
	oversized := []byte{0xff, 0xff, 0xff, 0x7f, 0}
	if _, err := FromBytes(oversized); err == nil {
		t.Fatal("expected error for declared length exceeding buffer")
	}
}

func TestFromJSONBuildsLookupableDoc(t *testing.T) {
	doc, err := FromJSON([]byte(`{"getLastError":1,"w":1}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	v, ok := doc.Lookup("getLastError")
	if !ok || v.F64 != 1 {
		t.Errorf("getLastError = %+v, ok=%v", v, ok)
	}
}

func TestObjectIDMonotonicCounter(t *testing.T) {
	a := NewObjectID()
	b := NewObjectID()
	if a == b {
		t.Fatal("two ObjectIDs generated back-to-back must differ")
	}
	if a.IsZero() || b.IsZero() {
		t.Fatal("generated ObjectID must not be zero")
	}
}
