package collection

import (
	"testing"

	"github.com/nereusdb/ndbc/bsondoc"
)

func TestValidateKeyRejectsDotAndDollar(t *testing.T) {
	if err := validateKey("a.b"); err == nil {
		t.Error("expected error for key containing '.'")
	}
	if err := validateKey("$set"); err == nil {
		t.Error("expected error for key starting with '$'")
	}
	if err := validateKey("name"); err != nil {
		t.Errorf("unexpected error for plain key: %v", err)
	}
}

func TestValidateTopLevelKeysAllowsKnownUpdateOperators(t *testing.T) {
	update := bsondoc.NewBuilder().
		AppendDocument("$set", bsondoc.NewBuilder().AppendString("name", "x").Finish()).
		Finish()
	if err := validateTopLevelKeys(update, true); err != nil {
		t.Errorf("known operator should be allowed: %v", err)
	}

	bogus := bsondoc.NewBuilder().AppendInt32("$bogus", 1).Finish()
	if err := validateTopLevelKeys(bogus, true); err == nil {
		t.Error("expected error for unknown update operator")
	}
}

func TestDupGuardFlagsRepeatWithinBatch(t *testing.T) {
	g := newDupGuard(4)
	id := []byte("abc")
	if g.seen(id) {
		t.Fatal("first sighting should not be flagged as seen")
	}
	if !g.seen(id) {
		t.Fatal("second sighting of the same id should be flagged")
	}
}

func TestIDBytesExtractsKnownTypes(t *testing.T) {
	d := bsondoc.NewBuilder().AppendString("_id", "x1").Finish()
	if b := idBytes(d); string(b) != "x1" {
		t.Fatalf("idBytes = %q, want x1", b)
	}
	noID := bsondoc.NewBuilder().AppendInt32("n", 1).Finish()
	if b := idBytes(noID); b != nil {
		t.Fatalf("expected nil for document without _id, got %v", b)
	}
}
