package netio

import (
	"net"
	"testing"
	"time"
)

func TestBufferedStreamReadTypedAcrossWrites(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Write([]byte("hello"))
		server.Write([]byte("world!!"))
	}()

	bs := NewBufferedStream(NewRawStream(client))
	client.SetDeadline(time.Now().Add(2 * time.Second))

	got, err := bs.ReadTyped(5)
	if err != nil {
		t.Fatalf("ReadTyped(5): %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
	got, err = bs.ReadTyped(7)
	if err != nil {
		t.Fatalf("ReadTyped(7): %v", err)
	}
	if string(got) != "world!!" {
		t.Fatalf("got %q, want world!!", got)
	}
	<-done
}

func TestBufferedStreamCorkBatchesWrites(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	bs := NewBufferedStream(NewRawStream(client))
	if err := bs.Cork(); err != nil {
		t.Fatalf("Cork: %v", err)
	}
	if _, err := bs.Writev(net.Buffers{[]byte("ab")}); err != nil {
		t.Fatalf("Writev while corked: %v", err)
	}

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 4)
		n, _ := server.Read(buf)
		readDone <- buf[:n]
	}()

	time.Sleep(20 * time.Millisecond) // corked write must not have reached the peer yet
	select {
	case got := <-readDone:
		t.Fatalf("unexpected data before Uncork: %q", got)
	default:
	}

	if _, err := bs.Writev(net.Buffers{[]byte("cd")}); err != nil {
		t.Fatalf("Writev while corked (2): %v", err)
	}
	client.SetDeadline(time.Now().Add(2 * time.Second))
	if err := bs.Uncork(); err != nil {
		t.Fatalf("Uncork: %v", err)
	}

	got := <-readDone
	if string(got) != "abcd" {
		t.Fatalf("got %q, want abcd", got)
	}
}
