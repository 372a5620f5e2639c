package lwo

// Minimal chunk-stream decoding used by the tests to inspect generated
// output. Kept test-side on purpose: reading LWO files is out of scope for
// the package itself.

import (
	"encoding/binary"
	"math"
	"testing"
)

type decodedChunk struct {
	tag     string
	payload []byte
}

// decodeForm splits a whole file into its FORM size and chunk list and
// verifies the container framing.
func decodeForm(t *testing.T, data []byte) (uint32, []decodedChunk) {
	t.Helper()
	if len(data) < 12 {
		t.Fatalf("file too short: %d bytes", len(data))
	}
	if string(data[:4]) != "FORM" {
		t.Fatalf("bad form tag %q", data[:4])
	}
	size := binary.BigEndian.Uint32(data[4:8])
	if string(data[8:12]) != "LWO2" {
		t.Fatalf("bad format id %q", data[8:12])
	}
	if int(size)+8 != len(data) {
		t.Fatalf("form size %d + 8 != file length %d", size, len(data))
	}
	return size, decodeChunkStream(t, data[12:])
}

func decodeChunkStream(t *testing.T, data []byte) []decodedChunk {
	t.Helper()
	var chunks []decodedChunk
	for pos := 0; pos < len(data); {
		if pos+8 > len(data) {
			t.Fatalf("truncated chunk header at offset %d", pos)
		}
		tag := string(data[pos : pos+4])
		size := int(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
		if pos+size > len(data) {
			t.Fatalf("chunk %s payload overruns file", tag)
		}
		chunks = append(chunks, decodedChunk{tag: tag, payload: data[pos : pos+size]})
		pos += size
	}
	return chunks
}

// decodeSubChunks splits a SURF-style payload of 16-bit-length sub-chunks.
func decodeSubChunks(t *testing.T, data []byte) []decodedChunk {
	t.Helper()
	var chunks []decodedChunk
	for pos := 0; pos < len(data); {
		if pos+6 > len(data) {
			t.Fatalf("truncated sub-chunk header at offset %d", pos)
		}
		tag := string(data[pos : pos+4])
		size := int(binary.BigEndian.Uint16(data[pos+4 : pos+6]))
		pos += 6
		if pos+size > len(data) {
			t.Fatalf("sub-chunk %s payload overruns block", tag)
		}
		chunks = append(chunks, decodedChunk{tag: tag, payload: data[pos : pos+size]})
		pos += size
	}
	return chunks
}

// readName consumes a null-terminated even-padded name and returns it with
// the new offset.
func readName(t *testing.T, data []byte, pos int) (string, int) {
	t.Helper()
	for i := pos; i < len(data); i++ {
		if data[i] == 0 {
			consumed := i - pos + 1
			if consumed%2 == 1 {
				consumed++
			}
			return string(data[pos:i]), pos + consumed
		}
	}
	t.Fatalf("unterminated name at offset %d", pos)
	return "", 0
}

// readIndex consumes one variable-width index.
func readIndex(t *testing.T, data []byte, pos int) (int, int) {
	t.Helper()
	if pos+2 > len(data) {
		t.Fatalf("truncated index at offset %d", pos)
	}
	if data[pos] == 0xFF {
		if pos+4 > len(data) {
			t.Fatalf("truncated wide index at offset %d", pos)
		}
		v := binary.BigEndian.Uint32(data[pos:pos+4]) & 0x00FFFFFF
		return int(v), pos + 4
	}
	return int(binary.BigEndian.Uint16(data[pos : pos+2])), pos + 2
}

func u16At(data []byte, off int) uint16 {
	return binary.BigEndian.Uint16(data[off : off+2])
}

func f32At(data []byte, off int) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(data[off : off+4]))
}
