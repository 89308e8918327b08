package ndbc

import (
	"testing"

	"github.com/nereusdb/ndbc/cluster"
	"github.com/nereusdb/ndbc/config"
)

func TestDeduceMode(t *testing.T) {
	cases := []struct {
		name string
		uri  string
		want cluster.Mode
	}{
		{"direct", "ndb://host1", cluster.ModeDirect},
		{"sharded-by-host-count", "ndb://host1,host2", cluster.ModeSharded},
		{"replica-set-by-option", "ndb://host1,host2,host3?replicaSet=rs0", cluster.ModeReplicaSet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := config.ParseURI(tc.uri)
			if err != nil {
				t.Fatalf("ParseURI: %v", err)
			}
			if got := deduceMode(u); got != tc.want {
				t.Errorf("deduceMode(%s) = %s, want %s", tc.uri, got, tc.want)
			}
		})
	}
}

func TestNewClientDoesNotDial(t *testing.T) {
	c, err := New("ndb://127.0.0.1:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.connected {
		t.Fatal("New must not connect eagerly")
	}
	if c.ID == "" {
		t.Fatal("expected a non-empty client id")
	}
}

func TestGetDatabaseDefaultsToURIDatabase(t *testing.T) {
	c, err := New("ndb://127.0.0.1:1/mydb")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.GetDatabase("").Name(); got != "mydb" {
		t.Fatalf("GetDatabase(\"\").Name() = %q, want mydb", got)
	}
	if got := c.GetDatabase("other").Name(); got != "other" {
		t.Fatalf("GetDatabase(\"other\").Name() = %q, want other", got)
	}
}

func TestWriteConcernFromURI(t *testing.T) {
	cases := []struct {
		name   string
		uri    string
		wantAck bool
		wantW  interface{}
		wantJ  bool
		wantWT int
	}{
		{"no options", "ndb://host1", false, nil, false, 0},
		{"numeric w", "ndb://host1?w=2", true, 2, false, 0},
		{"majority w", "ndb://host1?w=majority", true, "majority", false, 0},
		{"journal only", "ndb://host1?journal=true", true, nil, true, 0},
		{"wtimeout only", "ndb://host1?wtimeoutMS=500", true, nil, false, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := config.ParseURI(tc.uri)
			if err != nil {
				t.Fatalf("ParseURI: %v", err)
			}
			wc := writeConcernFromURI(u)
			if got := wc.Acknowledged(); got != tc.wantAck {
				t.Errorf("Acknowledged() = %v, want %v", got, tc.wantAck)
			}
			if wc.W != tc.wantW {
				t.Errorf("W = %v, want %v", wc.W, tc.wantW)
			}
			if wc.Journal != tc.wantJ {
				t.Errorf("Journal = %v, want %v", wc.Journal, tc.wantJ)
			}
			if wc.WTimeoutMS != tc.wantWT {
				t.Errorf("WTimeoutMS = %v, want %v", wc.WTimeoutMS, tc.wantWT)
			}
		})
	}
}

func TestCloseWithoutConnectIsNoop(t *testing.T) {
	c, err := New("ndb://127.0.0.1:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on unconnected client: %v", err)
	}
}
