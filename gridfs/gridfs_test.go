package gridfs

import (
	"testing"

	"github.com/nereusdb/ndbc/bsondoc"
)

func TestHexMatchesStandardEncoding(t *testing.T) {
	got := hex([]byte{0x00, 0x1f, 0xa0, 0xff})
	want := "001fa0ff"
	if got != want {
		t.Fatalf("hex = %q, want %q", got, want)
	}
}

func TestFileFromDocExtractsMetadata(t *testing.T) {
	id := bsondoc.NewObjectID()
	d := bsondoc.NewBuilder().
		AppendObjectID("_id", id).
		AppendString("filename", "report.pdf").
		AppendInt64("length", 12345).
		AppendInt32("chunkSize", DefaultChunkSize).
		AppendString("md5", "deadbeef").
		Finish()

	f, err := fileFromDoc(d)
	if err != nil {
		t.Fatalf("fileFromDoc: %v", err)
	}
	if f.Filename != "report.pdf" {
		t.Errorf("Filename = %q, want report.pdf", f.Filename)
	}
	if f.Length != 12345 {
		t.Errorf("Length = %d, want 12345", f.Length)
	}
	if f.ChunkSize != DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", f.ChunkSize, DefaultChunkSize)
	}
	if f.MD5 != "deadbeef" {
		t.Errorf("MD5 = %q, want deadbeef", f.MD5)
	}
	if f.ID != id {
		t.Errorf("ID = %v, want %v", f.ID, id)
	}
}

func TestChunkReaderEOFWhenNoChunks(t *testing.T) {
	r := &chunkReader{total: 0}
	buf := make([]byte, 16)
	n, err := r.Read(buf)
	if n != 0 || err == nil {
		t.Fatalf("Read on empty chunk reader = (%d, %v), want (0, EOF)", n, err)
	}
}
