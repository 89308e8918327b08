// Package gridfs implements chunked file storage atop two collections
// ("fs.files" metadata, "fs.chunks" data), grounded on the original
// mongoc-gridfs-file.c: each file is split into fixed-size chunks keyed by
// (files_id, n), with a files-collection document carrying length,
// chunkSize, and an md5 of the whole file.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package gridfs

import (
	"crypto/md5"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/karrick/godirwalk"

	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cluster"
	"github.com/nereusdb/ndbc/collection"
	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/nlog"
)

// DefaultChunkSize matches the original driver's "2 << 17" constant.
const DefaultChunkSize = 256 * 1024

// FS is a GridFS bucket rooted at prefix (conventionally "fs").
type FS struct {
	files  *collection.Collection
	chunks *collection.Collection
	prefix string
	wc     cluster.WriteConcern
}

func Open(cl *cluster.Cluster, db, prefix string) *FS {
	if prefix == "" {
		prefix = "fs"
	}
	// Chunk/metadata writes need an acknowledged round-trip to know a file
	// actually landed; fall back to w:1 when the URI configured none at all
	// rather than silently going fire-and-forget for file data.
	wc := cl.DefaultWriteConcern
	if !wc.Acknowledged() {
		wc = cluster.Acked(1)
	}
	fs := &FS{
		files:  collection.New(cl, db, prefix+".files"),
		chunks: collection.New(cl, db, prefix+".chunks"),
		prefix: prefix,
		wc:     wc,
	}
	// best-effort: an existing index is not an error, and a bucket that
	// never calls EnsureIndexes still works, just without the speedup.
	if err := fs.EnsureIndexes(); err != nil {
		nlog.Warningf("gridfs: ensure indexes on %s: %v", prefix, err)
	}
	return fs
}

// EnsureIndexes creates the (files_id, n) index on the chunks collection
// that mongoc-gridfs-file.c relies on for ordered chunk retrieval.
func (fs *FS) EnsureIndexes() error {
	keys := bsondoc.NewBuilder().
		AppendInt32("files_id", 1).
		AppendInt32("n", 1).
		Finish()
	return fs.chunks.EnsureIndex(keys, fs.prefix+"_files_id_n", true)
}

// File is an open GridFS file's metadata after Put or a successful Lookup.
type File struct {
	ID        bsondoc.ObjectID
	Filename  string
	Length    int64
	ChunkSize int32
	MD5       string
	UploadAt  time.Time
}

// Put streams r into the bucket under filename, chunked at DefaultChunkSize.
func (fs *FS) Put(filename string, r io.Reader, contentType string) (*File, error) {
	id := bsondoc.NewObjectID()
	hasher := md5.New()
	buf := make([]byte, DefaultChunkSize)
	var n int32
	var total int64
	for {
		read, err := io.ReadFull(r, buf)
		if read > 0 {
			hasher.Write(buf[:read])
			chunk := bsondoc.NewBuilder().
				AppendObjectID("files_id", id).
				AppendInt32("n", n).
				AppendBinary("data", append([]byte(nil), buf[:read]...)).
				Finish()
			if err := fs.chunks.Insert(chunk, fs.wc); err != nil {
				return nil, cos.Wrap(err, "write chunk %d of %s", n, filename)
			}
			total += int64(read)
			n++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, cos.Wrap(err, "read source for %s", filename)
		}
	}

	f := &File{ID: id, Filename: filename, Length: total, ChunkSize: DefaultChunkSize, MD5: hex(hasher.Sum(nil)), UploadAt: time.Now()}
	meta := bsondoc.NewBuilder().
		AppendObjectID("_id", f.ID).
		AppendString("filename", f.Filename).
		AppendInt64("length", f.Length).
		AppendInt32("chunkSize", f.ChunkSize).
		AppendString("md5", f.MD5).
		AppendString("contentType", contentType).
		Finish()
	if err := fs.files.Insert(meta, fs.wc); err != nil {
		return nil, cos.Wrap(err, "write file metadata for %s", filename)
	}
	return f, nil
}

func hex(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xf]
	}
	return string(out)
}

// chunkReader is an io.ReadCloser that streams a file's chunks back in
// ascending "n" order, re-issuing Find for each chunk the way
// mongoc-gridfs-file.c's mongoc_gridfs_file_readv walks the chunks
// collection rather than materializing the whole file in memory.
type chunkReader struct {
	fs    *FS
	id    bsondoc.ObjectID
	n     int32
	total int32
	cur   []byte
	pos   int
}

func (fs *FS) Lookup(filename string) (*File, error) {
	query := bsondoc.NewBuilder().AppendString("filename", filename).Finish()
	cur, err := fs.files.Find(query, bsondoc.Doc{}, 0, 1, false)
	if err != nil {
		return nil, cos.Wrap(err, "lookup %s", filename)
	}
	defer cur.Close()
	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return nil, cos.NewErr(cos.DomainNamespace, cos.CodeNamespaceInvalid, "no such gridfs file %q", filename)
	}
	return fileFromDoc(cur.Current())
}

func fileFromDoc(d bsondoc.Doc) (*File, error) {
	f := &File{}
	if v, ok := d.Lookup("_id"); ok {
		f.ID = v.OID
	}
	if v, ok := d.Lookup("filename"); ok {
		f.Filename = v.Str
	}
	if v, ok := d.Lookup("length"); ok {
		f.Length = v.I64
	}
	if v, ok := d.Lookup("chunkSize"); ok {
		f.ChunkSize = v.I32
	}
	if v, ok := d.Lookup("md5"); ok {
		f.MD5 = v.Str
	}
	return f, nil
}

// Get opens a sequential reader over a previously Put file's chunk stream.
func (fs *FS) Get(f *File) io.ReadCloser {
	nChunks := int32(0)
	if f.ChunkSize > 0 {
		nChunks = int32((f.Length + int64(f.ChunkSize) - 1) / int64(f.ChunkSize))
	}
	return &chunkReader{fs: fs, id: f.ID, total: nChunks}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for r.pos >= len(r.cur) {
		if r.n >= r.total {
			return 0, io.EOF
		}
		if err := r.fetchChunk(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.cur[r.pos:])
	r.pos += n
	return n, nil
}

func (r *chunkReader) fetchChunk() error {
	selector := bsondoc.NewBuilder().
		AppendObjectID("files_id", r.id).
		AppendInt32("n", r.n).
		Finish()
	cur, err := r.fs.chunks.Find(selector, bsondoc.Doc{}, 0, 1, false)
	if err != nil {
		return cos.Wrap(err, "read chunk %d", r.n)
	}
	defer cur.Close()
	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return err
		}
		return cos.NewErr(cos.DomainNamespace, cos.CodeNamespaceInvalid, "missing chunk %d", r.n)
	}
	v, ok := cur.Current().Lookup("data")
	if !ok || v.Type != bsondoc.TypeBinary {
		return cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "chunk %d has no binary data field", r.n)
	}
	r.cur = v.Bin
	r.pos = 0
	r.n++
	return nil
}

func (r *chunkReader) Close() error { return nil }

// PutDir uploads every regular file under root, named by its path relative
// to root, walked with godirwalk the way the rest of the pack's bulk-upload
// tooling does rather than filepath.Walk.
func (fs *FS) PutDir(root string) (int, error) {
	n := 0
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return cos.Wrap(err, "relativize %s", path)
			}
			f, err := os.Open(path)
			if err != nil {
				return cos.Wrap(err, "open %s", path)
			}
			defer f.Close()
			if _, err := fs.Put(rel, f, ""); err != nil {
				return cos.Wrap(err, "put %s", rel)
			}
			n++
			return nil
		},
		Unsorted: false,
	})
	if err != nil {
		return n, cos.Wrap(err, "walk %s", root)
	}
	return n, nil
}
