package replay

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/replaycheck/capture"
	"github.com/gogpu/replaycheck/internal/raster"
)

// FileType selects the encoding SaveTexture writes.
type FileType int

const (
	FilePNG FileType = iota
	FileBMP
	FileTIFF
	FileJPG
)

var fileTypeNames = [...]string{"PNG", "BMP", "TIFF", "JPG"}

func (t FileType) String() string {
	if t >= 0 && int(t) < len(fileTypeNames) {
		return fileTypeNames[t]
	}
	return fmt.Sprintf("FileType(%d)", int(t))
}

// Extension returns the conventional file extension, including the dot.
func (t FileType) Extension() string {
	return "." + strings.ToLower(t.String())
}

// FileTypeFromPath infers the file type from the extension of path.
func FileTypeFromPath(path string) (FileType, bool) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return 0, false
	}
	switch strings.ToLower(path[i+1:]) {
	case "png":
		return FilePNG, true
	case "bmp":
		return FileBMP, true
	case "tif", "tiff":
		return FileTIFF, true
	case "jpg", "jpeg":
		return FileJPG, true
	}
	return 0, false
}

// TextureDescription describes an image resource of the capture.
type TextureDescription struct {
	ResourceID capture.ResourceID
	Name       string
	Width      uint32
	Height     uint32
	Depth      uint32
	MSSamp     uint32
	Format     string
}

// SampleSelection picks which samples of a multisampled texture are saved.
//
// By default the single sample SampleIndex is written. MapToArray writes
// every sample side by side, left to right. ResolveSamples averages all
// samples into one image and takes precedence over SampleIndex.
type SampleSelection struct {
	MapToArray     bool
	SampleIndex    uint32
	ResolveSamples bool
}

// TextureSave describes a SaveTexture request.
type TextureSave struct {
	ResourceID capture.ResourceID
	DestType   FileType
	Sample     SampleSelection

	// JPEGQuality is used for FileJPG; zero means the encoder default.
	JPEGQuality int
}

func (ts TextureSave) selectPixels(t *raster.Target) (*raster.Pixmap, error) {
	switch {
	case ts.Sample.MapToArray:
		return t.Array(), nil
	case ts.Sample.ResolveSamples:
		return t.Resolve(), nil
	}
	if int(ts.Sample.SampleIndex) >= t.Samples() {
		return nil, fmt.Errorf("%w: sample %d of %d", ErrSampleOutOfRange, ts.Sample.SampleIndex, t.Samples())
	}
	p, err := t.Sample(int(ts.Sample.SampleIndex))
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func encodeImage(w io.Writer, img image.Image, ts TextureSave) error {
	switch ts.DestType {
	case FilePNG:
		return png.Encode(w, img)
	case FileBMP:
		return bmp.Encode(w, img)
	case FileTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FileJPG:
		var opts *jpeg.Options
		if ts.JPEGQuality > 0 {
			opts = &jpeg.Options{Quality: ts.JPEGQuality}
		}
		return jpeg.Encode(w, img, opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, ts.DestType)
	}
}

func writeImageFile(path string, img image.Image, ts TextureSave) (err error) {
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
	if err := encodeImage(bw, img, ts); err != nil {
		return err
	}
	return bw.Flush()
}
