package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Chunks are laid out as a 4-byte little-endian id, a 4-byte little-endian
// payload length, the payload bytes, and zero padding up to the next 4-byte
// boundary. The length field counts payload bytes only, not padding.

// maxPayloadSize bounds a single chunk payload. A corrupt length field must
// not drive a multi-gigabyte allocation.
const maxPayloadSize = 64 << 20

// ErrTruncated is returned when the data ends mid-chunk.
var ErrTruncated = errors.New("truncated chunk data")

// ErrTooLarge is returned when a chunk header claims a payload larger than
// maxPayloadSize.
var ErrTooLarge = errors.New("chunk payload too large")

// Chunk is one id-tagged payload from a chunk stream.
type Chunk struct {
	ID      uint32
	Payload []byte
}

// Writer appends chunks to an underlying writer.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer emitting chunks to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write emits one chunk with the given id and payload.
func (cw *Writer) Write(id uint32, payload []byte) error {
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("chunk 0x%08X: %w (%d bytes)", id, ErrTooLarge, len(payload))
	}

	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], id)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	if _, err := cw.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write chunk header: %w", err)
	}
	if _, err := cw.w.Write(payload); err != nil {
		return fmt.Errorf("write chunk payload: %w", err)
	}
	if pad := padLen(len(payload)); pad > 0 {
		var zeros [3]byte
		if _, err := cw.w.Write(zeros[:pad]); err != nil {
			return fmt.Errorf("write chunk padding: %w", err)
		}
	}
	return nil
}

// padLen returns the number of padding bytes after a payload of n bytes.
func padLen(n int) int {
	return (4 - n%4) % 4
}

// Reader iterates over a chunk stream.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader consuming chunks from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next chunk. It returns io.EOF when the stream ends
// cleanly on a chunk boundary and ErrTruncated when it ends mid-chunk.
func (cr *Reader) Next() (Chunk, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
		if err == io.EOF {
			return Chunk{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Chunk{}, ErrTruncated
		}
		return Chunk{}, fmt.Errorf("read chunk header: %w", err)
	}

	id := binary.LittleEndian.Uint32(hdr[0:4])
	size := binary.LittleEndian.Uint32(hdr[4:8])
	if size > maxPayloadSize {
		return Chunk{}, fmt.Errorf("chunk 0x%08X: %w (%d bytes)", id, ErrTooLarge, size)
	}

	buf := make([]byte, int(size)+padLen(int(size)))
	if _, err := io.ReadFull(cr.r, buf); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return Chunk{}, ErrTruncated
		}
		return Chunk{}, fmt.Errorf("read chunk payload: %w", err)
	}
	return Chunk{ID: id, Payload: buf[:size]}, nil
}

// ReadAll consumes the stream and returns every chunk in order.
func ReadAll(r io.Reader) ([]Chunk, error) {
	cr := NewReader(r)
	var chunks []Chunk
	for {
		c, err := cr.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
}
