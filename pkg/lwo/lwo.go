// Package lwo encodes polygonal scene snapshots into the LightWave LWO2
// object format.
//
// An LWO2 file is a stream of self-describing chunks: a 4-byte ASCII tag, a
// 32-bit big-endian payload length, and the payload. The whole stream is
// wrapped in a FORM header whose size field is computed after every chunk
// payload has been generated, so encoding is a single buffered pass: build
// all payloads in memory, then write header and chunks sequentially.
package lwo

const (
	// DefaultSurfaceName is the reserved surface assigned to meshes that
	// carry no materials and no vertex colors.
	DefaultSurfaceName = "Blender Default"

	// VertexColorSurfaceName is the reserved pseudo-surface assigned to
	// meshes that have vertex colors but no materials.
	VertexColorSurfaceName = "Per-Face Vertex Colors"

	// FileExtension is appended to output names that lack it.
	FileExtension = ".lwo"
)

const (
	formTag  = "FORM"
	formatID = "LWO2"
)

// Indices below this threshold are packed as 16 bits; anything larger is
// packed as 32 bits with the top byte forced to 0xFF.
const wideIndexThreshold = 0xFF00
