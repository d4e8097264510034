// Package frame defines the data carrier handed from the camera boundary to
// the classification core. The core never acquires frames itself.
package frame

// CompressedFrame is one compressed camera capture. The byte slice is owned by
// the caller for the duration of a single classification call and is never
// retained by the core.
type CompressedFrame struct {
	Data   []byte
	Width  int
	Height int
	Format string // "jpeg" or "png"
}
