package topology

import "testing"

func TestCachePutGetRoundTrip(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	key := KeyFor([]string{"a:27017", "b:27017"})
	in := Entry{Mode: "replica-set", PrimaryHost: "a:27017", Seeds: []string{"a:27017", "b:27017"}}
	if err := c.Put(key, in, 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	out, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if out.Mode != in.Mode || out.PrimaryHost != in.PrimaryHost || len(out.Seeds) != 2 {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestCacheGetMissing(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	_, ok, err := c.Get("nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing key")
	}
}

func TestKeyForStable(t *testing.T) {
	a := KeyFor([]string{"x:1", "y:2"})
	b := KeyFor([]string{"x:1", "y:2"})
	if a != b {
		t.Fatalf("KeyFor not stable: %q != %q", a, b)
	}
}
