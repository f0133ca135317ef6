package datalink

// BitHistory is a shift register of the most recent bits, newest in bit 0.
type BitHistory struct {
	history uint64
}

func (h *BitHistory) Push(bit uint8) {
	h.history = (h.history << 1) | uint64(bit&1)
}

// Match reports whether the newest length bits equal pattern exactly.
func (h *BitHistory) Match(pattern uint64, length int) bool {
	mask := ^uint64(0)
	if length < 64 {
		mask = (uint64(1) << length) - 1
	}
	return h.history&mask == pattern&mask
}

// BitWriter packs bits MSB-first into a caller supplied buffer.
type BitWriter struct {
	buffer []byte
	count  int
	cache  byte
}

func NewBitWriter(buffer []byte) *BitWriter {
	return &BitWriter{buffer: buffer}
}

func (w *BitWriter) Push(bit uint8) {
	w.cache = (w.cache << 1) | (bit & 1)
	w.count++
	if w.count&7 == 0 {
		w.flush()
	}
}

// Close flushes a partial final byte, left aligned so bit positions stay MSB-first.
func (w *BitWriter) Close() {
	if rem := w.count & 7; rem != 0 {
		w.cache <<= 8 - rem
		w.flush()
	}
}

// Size is the number of bits pushed so far.
func (w *BitWriter) Size() int {
	return w.count
}

func (w *BitWriter) Bytes() []byte {
	return w.buffer[:(w.count+7)/8]
}

func (w *BitWriter) flush() {
	w.buffer[(w.count-1)>>3] = w.cache
	w.cache = 0
}

// Extract reads length bits (at most 64) starting at bit start, MSB-first.
func Extract(buffer []byte, start int, length int) uint64 {
	var result uint64
	for n := start; n < start+length; n++ {
		result = (result << 1) | uint64((buffer[n>>3]>>((n&7)^7))&1)
	}
	return result
}

// BitReader walks a buffer one bit at a time, MSB-first.
type BitReader struct {
	buffer   []byte
	position int
}

func NewBitReader(buffer []byte) *BitReader {
	return &BitReader{buffer: buffer}
}

func (r *BitReader) Read() uint8 {
	bit := (r.buffer[r.position>>3] >> ((r.position & 7) ^ 7)) & 1
	r.position++
	return bit
}

func (r *BitReader) Remaining() int {
	return len(r.buffer)*8 - r.position
}
