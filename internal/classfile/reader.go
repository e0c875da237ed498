package classfile

import (
	"encoding/binary"
	"io"
)

// byteReader wraps a sequential-read byte source with the u1/u2/u4
// primitives the classfile format is built from. It never seeks
// backward, matching §4.1's "decoder never seeks backward within a
// classfile" input constraint; every method translates io.EOF /
// io.ErrUnexpectedEOF into ErrTruncated so callers never have to special-
// case the two separately.
type byteReader struct {
	r   io.Reader
	buf [8]byte
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: r}
}

func (b *byteReader) fill(n int) ([]byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:n]); err != nil {
		return nil, ErrTruncated
	}
	return b.buf[:n], nil
}

func (b *byteReader) u1() (uint8, error) {
	buf, err := b.fill(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *byteReader) u2() (uint16, error) {
	buf, err := b.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (b *byteReader) u4() (uint32, error) {
	buf, err := b.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (b *byteReader) u8() (uint64, error) {
	buf, err := b.fill(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

// bytes reads n bytes and returns a fresh copy (the internal buf is too
// small to reuse for bulk reads).
func (b *byteReader) bytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(b.r, out); err != nil {
		return nil, ErrTruncated
	}
	return out, nil
}

// skip discards n bytes without materializing them, the "skipped by
// declared length" behavior §4.1 requires for attributes the decoder
// doesn't recognize.
func (b *byteReader) skip(n int) error {
	if n == 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, b.r, int64(n)); err != nil {
		return ErrTruncated
	}
	return nil
}
