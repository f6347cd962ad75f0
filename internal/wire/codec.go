package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// Encoder builds a payload buffer with the scheme's primitives: fixed-width
// little-endian integers and length-prefixed strings/sequences. Every
// method's argument/result tuple is encoded by calling these in the order
// the method signature lists its fields — no padding, nothing implicit.
type Encoder struct {
	buf bytes.Buffer
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *Encoder) U8(v uint8)   { e.buf.WriteByte(v) }
func (e *Encoder) U16(v uint16) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) U32(v uint32) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) U64(v uint64) { _ = binary.Write(&e.buf, binary.LittleEndian, v) }
func (e *Encoder) I32(v int32)  { _ = binary.Write(&e.buf, binary.LittleEndian, v) }

// Str writes a u32 byte-length prefix followed by the raw UTF-8 bytes.
func (e *Encoder) Str(s string) {
	e.U32(uint32(len(s)))
	e.buf.WriteString(s)
}

// Addr encodes a "host:port" endpoint as a length-prefixed string. The
// protocol treats notification/listener endpoints as opaque strings; it
// never interprets them beyond dialing.
func (e *Encoder) Addr(addr string) { e.Str(addr) }

// Decoder unpacks a payload buffer written by Encoder, failing fast on
// short reads so a truncated or malformed payload surfaces as Api("invalid
// data") rather than a panic.
type Decoder struct {
	r   *bytes.Reader
	err error
}

func NewDecoder(payload []byte) *Decoder {
	return &Decoder{r: bytes.NewReader(payload)}
}

// Err returns the first decode error encountered, if any. Callers should
// check it once after decoding every field of a tuple.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) Bool() bool {
	b, err := d.r.ReadByte()
	if err != nil {
		d.fail(fmt.Errorf("wire: decode bool: %w", err))
		return false
	}
	return b != 0
}

func (d *Decoder) U8() uint8 {
	b, err := d.r.ReadByte()
	if err != nil {
		d.fail(fmt.Errorf("wire: decode u8: %w", err))
		return 0
	}
	return b
}

func (d *Decoder) U16() uint16 {
	var v uint16
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		d.fail(fmt.Errorf("wire: decode u16: %w", err))
	}
	return v
}

func (d *Decoder) U32() uint32 {
	var v uint32
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		d.fail(fmt.Errorf("wire: decode u32: %w", err))
	}
	return v
}

func (d *Decoder) U64() uint64 {
	var v uint64
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		d.fail(fmt.Errorf("wire: decode u64: %w", err))
	}
	return v
}

func (d *Decoder) I32() int32 {
	var v int32
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		d.fail(fmt.Errorf("wire: decode i32: %w", err))
	}
	return v
}

// MaxStrLen bounds a single decoded string to guard against a corrupt
// length prefix requesting an unreasonable allocation.
const MaxStrLen = 1 << 20

func (d *Decoder) Str() string {
	if d.err != nil {
		return ""
	}
	n := d.U32()
	if d.err != nil {
		return ""
	}
	if n > MaxStrLen {
		d.fail(fmt.Errorf("wire: string length %d exceeds maximum %d", n, MaxStrLen))
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.fail(fmt.Errorf("wire: decode str: %w", err))
		return ""
	}
	return string(buf)
}

func (d *Decoder) Addr() string { return d.Str() }

// SplitHostPort is a small helper used by handlers that need to validate an
// endpoint string without fully resolving it.
func SplitHostPort(addr string) (host, port string, err error) {
	host, port, err = net.SplitHostPort(addr)
	if err != nil {
		return "", "", err
	}
	if _, convErr := strconv.Atoi(port); convErr != nil {
		return "", "", fmt.Errorf("wire: invalid port %q", port)
	}
	return host, port, nil
}

// JoinHostPort mirrors net.JoinHostPort, kept here so callers only need to
// import the wire package for endpoint plumbing.
func JoinHostPort(host, port string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return net.JoinHostPort(host, port)
}
