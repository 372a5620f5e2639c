package lwo

import (
	"bytes"
	"encoding/binary"
)

// appendName writes s null-terminated and padded so the total written length
// is always even: an even-length s gets two null bytes, an odd-length s gets
// one. Every stored identifier goes through this.
func appendName(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	if len(s)%2 == 0 {
		buf.WriteString("\x00\x00")
	} else {
		buf.WriteByte(0)
	}
}

// appendIndex writes a variable-width vertex or polygon index. Values below
// 0xFF00 pack as unsigned 16-bit; larger values pack as unsigned 32-bit with
// the top byte forced to 0xFF so readers can tell the widths apart.
func appendIndex(buf *bytes.Buffer, index int) {
	if index < wideIndexThreshold {
		appendU16(buf, uint16(index))
		return
	}
	appendU32(buf, uint32(index)|0xFF000000)
}

func appendU16(buf *bytes.Buffer, v uint16) {
	binary.Write(buf, binary.BigEndian, v)
}

func appendU32(buf *bytes.Buffer, v uint32) {
	binary.Write(buf, binary.BigEndian, v)
}

func appendI16(buf *bytes.Buffer, v int16) {
	binary.Write(buf, binary.BigEndian, v)
}

func appendF32(buf *bytes.Buffer, v float32) {
	binary.Write(buf, binary.BigEndian, v)
}
