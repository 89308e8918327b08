package cluster

import "testing"

func TestWriteConcernAcknowledged(t *testing.T) {
	cases := []struct {
		name string
		wc   WriteConcern
		want bool
	}{
		{"zero value", WriteConcern{}, false},
		{"Unacknowledged", Unacknowledged, false},
		{"w=0", WriteConcern{W: 0}, false},
		{"w=1", WriteConcern{W: 1}, true},
		{"w=majority", WriteConcern{W: "majority"}, true},
		{"w=empty string", WriteConcern{W: ""}, false},
		{"Acked(1)", Acked(1), true},
		{"Acked(int32)", WriteConcern{W: int32(2)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.wc.Acknowledged(); got != tc.want {
				t.Errorf("Acknowledged() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetLastErrorCommandFoldsOptionalFields(t *testing.T) {
	wc := WriteConcern{W: "majority", Journal: true, WTimeoutMS: 500}
	cmd := wc.GetLastErrorCommand()

	if v, ok := cmd.Lookup("getLastError"); !ok || v.I32 != 1 {
		t.Fatalf("getLastError = %v, %v; want 1, true", v, ok)
	}
	if v, ok := cmd.Lookup("w"); !ok || v.Str != "majority" {
		t.Fatalf("w = %v, %v; want majority, true", v, ok)
	}
	if v, ok := cmd.Lookup("j"); !ok || !v.Bool {
		t.Fatalf("j = %v, %v; want true, true", v, ok)
	}
	if v, ok := cmd.Lookup("wtimeout"); !ok || v.I32 != 500 {
		t.Fatalf("wtimeout = %v, %v; want 500, true", v, ok)
	}
}

func TestGetLastErrorCommandOmitsUnsetFields(t *testing.T) {
	cmd := Acked(1).GetLastErrorCommand()
	if _, ok := cmd.Lookup("j"); ok {
		t.Error("j should be omitted when Journal is false")
	}
	if _, ok := cmd.Lookup("wtimeout"); ok {
		t.Error("wtimeout should be omitted when WTimeoutMS is 0")
	}
	if v, ok := cmd.Lookup("w"); !ok || v.I32 != 1 {
		t.Fatalf("w = %v, %v; want 1, true", v, ok)
	}
}
