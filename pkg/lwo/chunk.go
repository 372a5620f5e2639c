package lwo

import (
	"bytes"
	"encoding/binary"
	"io"
)

// fileChunk is one fully generated top-level chunk awaiting assembly.
type fileChunk struct {
	tag     string
	payload []byte
}

// writeChunk writes one top-level chunk: 4-byte ASCII tag, 32-bit big-endian
// payload length, payload.
func writeChunk(w io.Writer, tag string, payload []byte) error {
	if _, err := io.WriteString(w, tag); err != nil {
		return err
	}
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(payload)))
	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// formSize returns the size stored in the FORM header: every chunk
// contributes its payload plus an 8-byte tag+length header, and the 4-byte
// format id after the header counts as well.
func formSize(chunks []fileChunk) uint32 {
	total := uint32(len(formatID))
	for _, c := range chunks {
		total += uint32(len(c.payload)) + 8
	}
	return total
}

// writeFormHeader writes "FORM", the aggregate size and the format id. It
// must only run once every chunk payload has reached its final length.
func writeFormHeader(w io.Writer, chunks []fileChunk) error {
	if _, err := io.WriteString(w, formTag); err != nil {
		return err
	}
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], formSize(chunks))
	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, formatID)
	return err
}

// appendSubChunk writes a surface sub-chunk. Unlike top-level chunks these
// carry a 16-bit length.
func appendSubChunk(buf *bytes.Buffer, tag string, payload []byte) {
	buf.WriteString(tag)
	appendU16(buf, uint16(len(payload)))
	buf.Write(payload)
}
