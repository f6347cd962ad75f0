package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the fixed size of the frame header: a u32 payload length
// followed by a u64 tag, both little-endian.
const HeaderSize = 4 + 8

// MaxPayloadSize bounds a single frame's payload to guard against a
// malformed or hostile length prefix driving an unbounded allocation.
const MaxPayloadSize = 16 << 20 // 16 MiB

// Header is the bit-exact 12-byte preamble of every frame.
type Header struct {
	PayloadLen uint32
	Tag        Tag
}

// WriteHeader serializes h in the wire's fixed layout.
func WriteHeader(w io.Writer, h Header) error {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.PayloadLen)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(h.Tag))
	_, err := w.Write(buf[:])
	return err
}

// ReadHeader reads exactly HeaderSize bytes and decodes them.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("wire: read header: %w", err)
	}
	return Header{
		PayloadLen: binary.LittleEndian.Uint32(buf[0:4]),
		Tag:        Tag(binary.LittleEndian.Uint64(buf[4:12])),
	}, nil
}

// Send writes one frame: header then payload. It fails only on I/O error.
func Send(w io.Writer, tag Tag, payload []byte) error {
	if err := WriteHeader(w, Header{PayloadLen: uint32(len(payload)), Tag: tag}); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// Recv reads exactly one frame: a header, then exactly PayloadLen more
// bytes. It fails on a short read, a malformed header, or an implausible
// payload length.
func Recv(r io.Reader) (Tag, []byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return 0, nil, err
	}
	if h.PayloadLen > MaxPayloadSize {
		return 0, nil, fmt.Errorf("wire: payload length %d exceeds maximum %d", h.PayloadLen, MaxPayloadSize)
	}
	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, fmt.Errorf("wire: read payload: %w", err)
		}
	}
	return h.Tag, payload, nil
}
