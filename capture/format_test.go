package capture

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var cmpCapture = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig, err := recordFrames(t, 3, 2).FinishRecording()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, orig); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RCCAPTUR")) {
		t.Fatalf("missing magic, got %q", buf.Bytes()[:8])
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff(orig.Header(), got.Header()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig.InitialState(), got.InitialState(), cmpCapture...); diff != "" {
		t.Errorf("initial state mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig.Commands(), got.Commands(), cmpCapture...); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig.Resources(), got.Resources(), cmpCapture...); diff != "" {
		t.Errorf("resources mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	c, err := recordFrames(t, 1, 1).FinishRecording()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		t.Fatal(err)
	}
	valid := buf.Bytes()

	badVersion := append([]byte(nil), valid...)
	badVersion[8] = 0xFF

	truncated := append([]byte(nil), valid[:len(valid)/2]...)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadMagic},
		{"wrong magic", []byte("NOTACAPTUREFILE!"), ErrBadMagic},
		{"bad version", badVersion, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Decode(bytes.NewReader(truncated)); err == nil {
		t.Error("Decode(truncated) should fail")
	}
}

func TestDecodeUnknownCommand(t *testing.T) {
	_, err := decodeCommand(chunk{Type: CommandType(99)})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("decodeCommand() error = %v, want ErrUnknownCommand", err)
	}
}

func TestWriteReadFile(t *testing.T) {
	c, err := recordFrames(t, 2, 2).FinishRecording()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "frame"+FileExtension)
	if err := WriteFile(path, c); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Header().ID != c.Header().ID {
		t.Errorf("ID = %q, want %q", got.Header().ID, c.Header().ID)
	}
	if got.EventCount() != c.EventCount() {
		t.Errorf("EventCount = %d, want %d", got.EventCount(), c.EventCount())
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.rcap")); err == nil {
		t.Error("ReadFile of missing file should fail")
	}
}

func TestCompileShader(t *testing.T) {
	words, err := CompileShader(`
@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos.x, pos.y, pos.z, 1.0);
}
`)
	if err != nil {
		t.Fatalf("CompileShader: %v", err)
	}
	if !IsSPIRV(words) {
		t.Errorf("output does not start with the SPIR-V magic: %#x", words[0])
	}
	if IsSPIRV(nil) {
		t.Error("IsSPIRV(nil) = true")
	}

	if _, err := CompileShader("fn broken("); err == nil {
		t.Error("CompileShader of invalid source should fail")
	}
}
