package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// CodecError wraps framing-level failures: short reads, malformed JSON,
// or a partial write. Per SPEC_FULL.md §7 these terminate the reader
// goroutine but are not by themselves fatal to the actor.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("protocol: %s: %v", e.Op, e.Err) }
func (e *CodecError) Unwrap() error  { return e.Err }

// SendMsg wraps msg in an Envelope, JSON-encodes it, and writes a
// 4-byte big-endian length prefix followed by the payload.
func SendMsg(w io.Writer, msg Message) error {
	payload, err := json.Marshal(Envelope{Version: Version, Message: msg})
	if err != nil {
		return &CodecError{Op: "encode", Err: err}
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return &CodecError{Op: "write length", Err: err}
	}
	if _, err := w.Write(payload); err != nil {
		return &CodecError{Op: "write payload", Err: err}
	}
	return nil
}

// RecvMsg reads one frame and returns its decoded Message.
func RecvMsg(r io.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Message{}, &CodecError{Op: "read length", Err: err}
	}
	n := binary.BigEndian.Uint32(lenBuf[:])

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, &CodecError{Op: "read payload", Err: err}
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Message{}, &CodecError{Op: "decode", Err: err}
	}
	if env.Version != Version {
		return Message{}, &CodecError{Op: "decode", Err: fmt.Errorf("unsupported envelope version %d", env.Version)}
	}
	return env.Message, nil
}
