package wire

import "io"

// RespondSuccess writes a Success frame carrying payload. Every handler's
// response goes through this or RespondError so the wire-level framing of
// a result is defined in exactly one place.
func RespondSuccess(w io.Writer, payload []byte) error {
	return Send(w, TagSuccess, payload)
}

// RespondError writes an Error frame carrying err's flattened wire message
// (§7): internal causes never leave this process.
func RespondError(w io.Writer, err *ServerError) error {
	e := NewEncoder()
	e.Str(err.WireMessage())
	return Send(w, TagError, e.Bytes())
}
