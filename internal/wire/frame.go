// Package wire implements the length-prefixed text frame transport shared by
// every process in the system: a 32-bit unsigned network-order length
// followed by exactly that many bytes of ASCII payload, no terminator.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/mukuyev/elevator-control/internal/domain"
)

// MaxFrameLength bounds the payload size accepted by ReceiveFrame, guarding
// against a corrupt or hostile length prefix driving an unbounded
// allocation.
const MaxFrameLength = 1 << 20

// SendFrame writes a length-prefixed ASCII frame to w. It loops until every
// byte is written, mirroring the original's send_looped: a partial write
// returned by the underlying writer is not an error on its own, only a
// terminal write error is.
func SendFrame(w io.Writer, payload string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if err := writeLooped(w, lenBuf[:]); err != nil {
		return domain.NewExternalError("failed to write frame length", err)
	}
	if err := writeLooped(w, []byte(payload)); err != nil {
		return domain.NewExternalError("failed to write frame payload", err)
	}
	return nil
}

// ReceiveFrame reads one length-prefixed ASCII frame from r, looping until
// the full length and payload have arrived. A short read mid-frame (the
// peer closing early) surfaces as the underlying io error.
func ReceiveFrame(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxFrameLength {
		return "", domain.NewValidationError(
			fmt.Sprintf("frame length %d exceeds maximum %d", length, MaxFrameLength), nil)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", err
	}
	return string(payload), nil
}

func writeLooped(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// Fields splits a frame payload on single spaces, the free-form ASCII
// convention every command in §6 of the protocol uses.
func Fields(payload string) []string {
	return strings.Split(payload, " ")
}

// Join is the inverse of Fields: it joins command words with single spaces
// to build an outgoing payload.
func Join(words ...string) string {
	return strings.Join(words, " ")
}
