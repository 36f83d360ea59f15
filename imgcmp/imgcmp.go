// Package imgcmp loads, crops and compares the images a replay writes out.
package imgcmp

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ErrUnknownFormat is returned for a path whose extension is not an image
// format this package reads or writes.
var ErrUnknownFormat = errors.New("imgcmp: unknown image format")

type codec struct {
	decode func(io.Reader) (image.Image, error)
	encode func(io.Writer, image.Image) error
}

var codecs = map[string]codec{
	".png":  {png.Decode, png.Encode},
	".bmp":  {bmp.Decode, bmp.Encode},
	".tif":  {tiff.Decode, encodeTIFF},
	".tiff": {tiff.Decode, encodeTIFF},
	".jpg":  {jpeg.Decode, encodeJPEG},
	".jpeg": {jpeg.Decode, encodeJPEG},
}

func encodeTIFF(w io.Writer, m image.Image) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
}

func encodeJPEG(w io.Writer, m image.Image) error {
	return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
}

func codecFor(path string) (codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := codecs[ext]
	if !ok {
		return codec{}, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
	return c, nil
}

// Load decodes the image at path, choosing the decoder by file extension.
func Load(path string) (image.Image, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := c.decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("imgcmp: decode %s: %w", path, err)
	}
	return img, nil
}

// Save encodes img to path, choosing the encoder by file extension.
func Save(path string, img image.Image) (err error) {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := c.encode(bw, img); err != nil {
		return fmt.Errorf("imgcmp: encode %s: %w", path, err)
	}
	return bw.Flush()
}

// Crop copies the part of img inside r into a new image whose bounds start
// at the origin. r is clipped to the bounds of img.
func Crop(img image.Image, r image.Rectangle) *image.NRGBA {
	r = r.Intersect(img.Bounds())
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// CropFile crops the image at src to r and saves the result to dst.
func CropFile(src, dst string, r image.Rectangle) error {
	img, err := Load(src)
	if err != nil {
		return err
	}
	return Save(dst, Crop(img, r))
}

// Compare reports whether the images at pathA and pathB have the same
// dimensions and no channel differs by more than tolerance (0-255).
func Compare(pathA, pathB string, tolerance int) (bool, error) {
	a, err := Load(pathA)
	if err != nil {
		return false, err
	}
	b, err := Load(pathB)
	if err != nil {
		return false, err
	}
	delta, _ := Difference(a, b)
	return delta >= 0 && delta <= tolerance, nil
}

// Difference returns the largest per-channel difference between a and b and
// an image of the absolute differences. Images of different sizes return
// -1 and a nil image.
func Difference(a, b image.Image) (maxDelta int, diff *image.NRGBA) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return -1, nil
	}

	diff = image.NewNRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := color.NRGBAModel.Convert(a.At(ab.Min.X+x, ab.Min.Y+y)).(color.NRGBA)
			cb := color.NRGBAModel.Convert(b.At(bb.Min.X+x, bb.Min.Y+y)).(color.NRGBA)
			dr := absDiff(ca.R, cb.R)
			dg := absDiff(ca.G, cb.G)
			db := absDiff(ca.B, cb.B)
			da := absDiff(ca.A, cb.A)
			maxDelta = max(maxDelta, int(dr), int(dg), int(db), int(da))
			// Alpha differences show up as grey so they stay visible.
			diff.SetNRGBA(x, y, color.NRGBA{R: max(dr, da), G: max(dg, da), B: max(db, da), A: 255})
		}
	}
	return maxDelta, diff
}

// WriteDiff writes the difference image of the files at pathA and pathB to
// dst and returns the largest channel difference.
func WriteDiff(pathA, pathB, dst string) (int, error) {
	a, err := Load(pathA)
	if err != nil {
		return 0, err
	}
	b, err := Load(pathB)
	if err != nil {
		return 0, err
	}
	delta, diff := Difference(a, b)
	if diff == nil {
		return delta, fmt.Errorf("imgcmp: %s is %v, %s is %v", pathA, a.Bounds().Size(), pathB, b.Bounds().Size())
	}
	return delta, Save(dst, diff)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
