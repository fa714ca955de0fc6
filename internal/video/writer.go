package video

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/icza/mjpeg"

	"robotviz/internal/logging"
)

const jpegQuality = 85

// Writer writes an MJPEG AVI file frame by frame. The codec is fixed to
// MJPG; the frame rate is rounded to the container's integer rate.
type Writer struct {
	avi    mjpeg.AviWriter
	path   string
	w, h   int
	frames int
}

// NewWriter creates the file immediately. Every frame must match the
// given size exactly.
func NewWriter(path string, fps float64, w, h int) (*Writer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("video: frame size %dx%d invalid", w, h)
	}
	rate := int32(math.Round(fps))
	if rate < 1 {
		rate = 1
	}
	avi, err := mjpeg.New(path, int32(w), int32(h), rate)
	if err != nil {
		return nil, fmt.Errorf("video: create %s: %w", path, err)
	}
	return &Writer{avi: avi, path: path, w: w, h: h}, nil
}

// EncodeFrame JPEG-encodes a frame for AddEncoded. Encoding ahead of the
// writer lets several frames encode concurrently.
func EncodeFrame(frame *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("video: encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// AddFrame JPEG-encodes one frame and appends it.
func (wr *Writer) AddFrame(frame *image.NRGBA) error {
	b := frame.Bounds()
	if b.Dx() != wr.w || b.Dy() != wr.h {
		return fmt.Errorf("video: frame size %dx%d, want %dx%d", b.Dx(), b.Dy(), wr.w, wr.h)
	}
	data, err := EncodeFrame(frame)
	if err != nil {
		return fmt.Errorf("video: frame %d: %w", wr.frames, err)
	}
	return wr.AddEncoded(data)
}

// AddEncoded appends an already-encoded JPEG frame. The image must match
// the writer's frame size; no check is possible here.
func (wr *Writer) AddEncoded(data []byte) error {
	if err := wr.avi.AddFrame(data); err != nil {
		return fmt.Errorf("video: write frame %d: %w", wr.frames, err)
	}
	wr.frames++
	return nil
}

// Frames reports how many frames have been written.
func (wr *Writer) Frames() int { return wr.frames }

// Close finalizes the AVI indexes. The file is not playable before Close.
func (wr *Writer) Close() error {
	if err := wr.avi.Close(); err != nil {
		return fmt.Errorf("video: close %s: %w", wr.path, err)
	}
	logging.Logger().Info("video written", "path", wr.path, "frames", wr.frames)
	return nil
}
