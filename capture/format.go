package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrBadMagic is returned when decoding data that is not a capture.
	ErrBadMagic = errors.New("capture: not a capture file")

	// ErrUnsupportedVersion is returned for captures written by a newer
	// or incompatible format version.
	ErrUnsupportedVersion = errors.New("capture: unsupported format version")

	// ErrUnknownCommand is returned for command types this build does not know.
	ErrUnknownCommand = errors.New("capture: unknown command")
)

// magic identifies capture files.
var magic = [8]byte{'R', 'C', 'C', 'A', 'P', 'T', 'U', 'R'}

// FormatVersion is the version of the capture format written by Encode.
const FormatVersion uint32 = 1

// FileExtension is the conventional extension of capture files.
const FileExtension = ".rcap"

// chunk is the serialized form of a command.
type chunk struct {
	Type    CommandType     `cbor:"1,keyasint"`
	Payload cbor.RawMessage `cbor:"2,keyasint"`
}

// document is the serialized form of a capture.
type document struct {
	Header       Header             `cbor:"1,keyasint"`
	Images       []*ImageDesc       `cbor:"2,keyasint"`
	Shaders      []*ShaderModule    `cbor:"3,keyasint"`
	RenderPasses []*RenderPassDesc  `cbor:"4,keyasint"`
	Framebuffers []*FramebufferDesc `cbor:"5,keyasint"`
	Pipelines    []*PipelineDesc    `cbor:"6,keyasint"`
	Initial      []chunk            `cbor:"7,keyasint"`
	Frame        []chunk            `cbor:"8,keyasint"`
}

// Encode writes c to w in the capture file format.
func Encode(w io.Writer, c *Capture) error {
	doc := document{
		Header:       c.header,
		Images:       c.resources.images,
		Shaders:      c.resources.shaders,
		RenderPasses: c.resources.passes,
		Framebuffers: c.resources.framebuffers,
		Pipelines:    c.resources.pipelines,
	}
	var err error
	if doc.Initial, err = encodeChunks(c.initial); err != nil {
		return err
	}
	if doc.Frame, err = encodeChunks(c.frame); err != nil {
		return err
	}

	raw, err := cbor.Marshal(doc)
	if err != nil {
		return fmt.Errorf("capture: encode: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("capture: encode: %w", err)
	}
	defer func() {
		_ = enc.Close()
	}()
	compressed := enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))

	var hdr [12]byte
	copy(hdr[:8], magic[:])
	binary.LittleEndian.PutUint32(hdr[8:], FormatVersion)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

// Decode reads a capture in the capture file format from r.
func Decode(r io.Reader) (*Capture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 12 || !bytes.Equal(data[:8], magic[:]) {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(data[8:12]); v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("capture: decode: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data[12:], nil)
	if err != nil {
		return nil, fmt.Errorf("capture: decompress: %w", err)
	}

	var doc document
	if err := cbor.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("capture: decode: %w", err)
	}

	c := &Capture{
		header: doc.Header,
		resources: &ResourcePool{
			images:       doc.Images,
			shaders:      doc.Shaders,
			passes:       doc.RenderPasses,
			framebuffers: doc.Framebuffers,
			pipelines:    doc.Pipelines,
		},
	}
	if c.initial, err = decodeChunks(doc.Initial); err != nil {
		return nil, err
	}
	if c.frame, err = decodeChunks(doc.Frame); err != nil {
		return nil, err
	}
	return c, nil
}

// WriteFile encodes c into the named file.
func WriteFile(path string, c *Capture) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := Encode(f, c); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the named capture file.
func ReadFile(path string) (*Capture, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f)
}

func encodeChunks(cmds []Command) ([]chunk, error) {
	out := make([]chunk, 0, len(cmds))
	for _, cmd := range cmds {
		payload, err := cbor.Marshal(cmd)
		if err != nil {
			return nil, fmt.Errorf("capture: encode %s: %w", cmd.Type(), err)
		}
		out = append(out, chunk{Type: cmd.Type(), Payload: payload})
	}
	return out, nil
}

func decodeChunks(chunks []chunk) ([]Command, error) {
	out := make([]Command, 0, len(chunks))
	for i, ch := range chunks {
		cmd, err := decodeCommand(ch)
		if err != nil {
			return nil, fmt.Errorf("capture: chunk %d: %w", i, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

// decodeCommand decodes a chunk payload into the concrete command type.
func decodeCommand(ch chunk) (Command, error) {
	switch ch.Type {
	case CmdCreateImage:
		return decodeInto[CreateImageCommand](ch.Payload)
	case CmdCreateShaderModule:
		return decodeInto[CreateShaderModuleCommand](ch.Payload)
	case CmdCreateRenderPass:
		return decodeInto[CreateRenderPassCommand](ch.Payload)
	case CmdCreateFramebuffer:
		return decodeInto[CreateFramebufferCommand](ch.Payload)
	case CmdCreatePipeline:
		return decodeInto[CreatePipelineCommand](ch.Payload)
	case CmdBeginRenderPass:
		return decodeInto[BeginRenderPassCommand](ch.Payload)
	case CmdEndRenderPass:
		return decodeInto[EndRenderPassCommand](ch.Payload)
	case CmdBindPipeline:
		return decodeInto[BindPipelineCommand](ch.Payload)
	case CmdSetSampleLocations:
		return decodeInto[SetSampleLocationsCommand](ch.Payload)
	case CmdSetViewport:
		return decodeInto[SetViewportCommand](ch.Payload)
	case CmdDraw:
		return decodeInto[DrawCommand](ch.Payload)
	case CmdSetMarker:
		return decodeInto[SetMarkerCommand](ch.Payload)
	case CmdPushMarker:
		return decodeInto[PushMarkerCommand](ch.Payload)
	case CmdPopMarker:
		return decodeInto[PopMarkerCommand](ch.Payload)
	case CmdPresent:
		return decodeInto[PresentCommand](ch.Payload)
	default:
		return nil, fmt.Errorf("%w: type %d", ErrUnknownCommand, ch.Type)
	}
}

func decodeInto[T Command](payload []byte) (Command, error) {
	var cmd T
	if err := cbor.Unmarshal(payload, &cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
