package cos

// DynArray is a growable buffer of fixed-size elements with amortized O(1)
// append, per spec §4.1. It backs netio.BufferedStream's read buffer.
type DynArray struct {
	elemSize int
	buf      []byte
	n        int // number of elements currently stored
}

const dynArrayMinCap = 128

// Init sizes the array for elements of elemSize bytes each.
func (d *DynArray) Init(elemSize int) {
	d.elemSize = elemSize
	d.buf = d.buf[:0]
	d.n = 0
}

// Append copies n elements out of data (len(data) must be n*elemSize).
func (d *DynArray) Append(data []byte, n int) {
	need := (d.n + n) * d.elemSize
	if need > cap(d.buf) {
		d.grow(need)
	}
	d.buf = d.buf[:need]
	copy(d.buf[d.n*d.elemSize:need], data)
	d.n += n
}

func (d *DynArray) grow(need int) {
	newCap := dynArrayMinCap
	if newCap < cap(d.buf) {
		newCap = cap(d.buf)
	}
	for newCap < need {
		newCap *= 2
	}
	nb := make([]byte, len(d.buf), newCap)
	copy(nb, d.buf)
	d.buf = nb
}

// Clear resets length to zero without releasing capacity.
func (d *DynArray) Clear() {
	d.buf = d.buf[:0]
	d.n = 0
}

// Destroy releases the backing storage.
func (d *DynArray) Destroy() {
	d.buf = nil
	d.n = 0
}

func (d *DynArray) Len() int { return d.n }

// Bytes returns the live byte range; valid until the next Append/grow.
func (d *DynArray) Bytes() []byte { return d.buf }
