package replay

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gogpu/replaycheck/capture"
)

func openScene(t *testing.T) *Controller {
	t.Helper()
	ctrl, err := Open(context.Background(), recordScene(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(ctrl.Shutdown)
	return ctrl
}

func drawcallNames(ds []*Drawcall) []string {
	var names []string
	for _, d := range ds {
		names = append(names, d.Name)
	}
	return names
}

func TestDrawcallTree(t *testing.T) {
	ctrl := openScene(t)

	roots := ctrl.Drawcalls()
	wantRoots := []string{"Scene", "Rotated", "vkCmdDraw(3, 1)", "vkQueuePresentKHR()"}
	if diff := cmp.Diff(wantRoots, drawcallNames(roots)); diff != "" {
		t.Errorf("root drawcalls mismatch (-want +got):\n%s", diff)
	}

	scene := roots[0]
	if scene.Flags != FlagPushMarker || scene.EventID != evPushScene {
		t.Errorf("Scene = %v flags %v", scene, scene.Flags)
	}
	if diff := cmp.Diff([]string{"Degenerate", "vkCmdDraw(3, 1)"}, drawcallNames(scene.Children)); diff != "" {
		t.Errorf("Scene children mismatch (-want +got):\n%s", diff)
	}
	for _, child := range scene.Children {
		if child.Parent != scene {
			t.Errorf("%v has parent %v, want Scene", child, child.Parent)
		}
	}

	var eids []uint32
	for _, d := range ctrl.FlatDrawcalls() {
		eids = append(eids, d.EventID)
	}
	want := []uint32{evPushScene, evDegenerate, evDegenerateDraw, evRotated, evRotatedDraw, evPresent}
	if diff := cmp.Diff(want, eids); diff != "" {
		t.Errorf("flattened event IDs mismatch (-want +got):\n%s", diff)
	}

	degenerate := scene.Children[0]
	if degenerate.Next == nil || degenerate.Next.EventID != evDegenerateDraw {
		t.Errorf("Degenerate.Next = %v, want the draw at %d", degenerate.Next, evDegenerateDraw)
	}
	if degenerate.Next.Previous != degenerate {
		t.Error("Next/Previous links are not symmetric")
	}
	dc := degenerate.Next
	if dc.Flags != FlagDrawcall || dc.NumVertices != 3 || dc.NumInstances != 1 {
		t.Errorf("draw = %+v", dc)
	}
	if last := ctrl.FlatDrawcalls()[len(ctrl.FlatDrawcalls())-1]; last.Next != nil || last.Flags != FlagPresent {
		t.Errorf("last drawcall = %v flags %v next %v", last, last.Flags, last.Next)
	}
}

func TestDrawFlagsString(t *testing.T) {
	tests := []struct {
		f    DrawFlags
		want string
	}{
		{0, "NoFlags"},
		{FlagDrawcall, "Drawcall"},
		{FlagSetMarker | FlagPresent, "SetMarker|Present"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("DrawFlags(%d).String() = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestOpenStartsAtLastEvent(t *testing.T) {
	ctrl := openScene(t)
	if got := ctrl.CurrentEvent(); got != sceneEventCount {
		t.Errorf("CurrentEvent() = %d, want %d", got, sceneEventCount)
	}
	ps, err := ctrl.PipelineState()
	if err != nil {
		t.Fatal(err)
	}
	if ps.CurrentPass.Renderpass.ResourceID != capture.NullResource {
		t.Errorf("render pass still active after present: %+v", ps.CurrentPass)
	}
}

func TestPipelineStateAtDraws(t *testing.T) {
	ctrl := openScene(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		event uint32
		want  []FloatVector
	}{
		{"degenerate", evDegenerateDraw, toFloatVectors(degenerateLocations.Locations)},
		{"rotated", evRotatedDraw, toFloatVectors(rotatedLocations.Locations)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ctrl.SetFrameEvent(ctx, tt.event, true); err != nil {
				t.Fatalf("SetFrameEvent(%d): %v", tt.event, err)
			}
			ps, err := ctrl.PipelineState()
			if err != nil {
				t.Fatal(err)
			}

			want := Multisample{
				RasterSamples:    4,
				SampleShading:    true,
				MinSampleShading: 1,
				SampleMask:       0xFFFFFFFF,
				SampleLocations: SampleLocations{
					GridWidth:       1,
					GridHeight:      1,
					CustomLocations: tt.want,
				},
			}
			if diff := cmp.Diff(want, ps.Multisample); diff != "" {
				t.Errorf("Multisample mismatch (-want +got):\n%s", diff)
			}
			if ps.EventID != tt.event || ps.PipelineName != scenePipelineName {
				t.Errorf("EventID = %d, PipelineName = %q", ps.EventID, ps.PipelineName)
			}
		})
	}
}

func TestPipelineStateCurrentPass(t *testing.T) {
	ctrl := openScene(t)
	if err := ctrl.SetFrameEvent(context.Background(), evRotatedDraw, false); err != nil {
		t.Fatal(err)
	}
	ps, err := ctrl.PipelineState()
	if err != nil {
		t.Fatal(err)
	}

	id, ok := ps.CurrentPass.ColorAttachmentImage(0)
	if !ok {
		t.Fatalf("no colour attachment in %+v", ps.CurrentPass)
	}

	var found *TextureDescription
	for _, tex := range ctrl.Textures() {
		if tex.ResourceID == id {
			found = &tex
		}
	}
	if found == nil {
		t.Fatalf("attachment %s not in Textures()", id)
	}
	want := TextureDescription{
		ResourceID: id, Name: sceneImageName,
		Width: sceneWidth, Height: sceneHeight, Depth: 1, MSSamp: 4,
		Format: "R8G8B8A8_UNORM",
	}
	if diff := cmp.Diff(want, *found); diff != "" {
		t.Errorf("texture mismatch (-want +got):\n%s", diff)
	}

	if _, ok := ps.CurrentPass.ColorAttachmentImage(1); ok {
		t.Error("ColorAttachmentImage(1) should not exist")
	}
}

func TestPipelineStateShaders(t *testing.T) {
	ctrl := openScene(t)
	if err := ctrl.SetFrameEvent(context.Background(), evDegenerateDraw, false); err != nil {
		t.Fatal(err)
	}
	ps, err := ctrl.PipelineState()
	if err != nil {
		t.Fatal(err)
	}

	if ps.VertexShader.EntryPoint != "vs_main" || ps.FragmentShader.EntryPoint != "fs_main" {
		t.Errorf("entry points = %q, %q", ps.VertexShader.EntryPoint, ps.FragmentShader.EntryPoint)
	}
	wantEPs := []EntryPoint{{Name: "vs_main", Stage: "Vertex"}, {Name: "fs_main", Stage: "Fragment"}}
	if diff := cmp.Diff(wantEPs, ps.VertexShader.EntryPoints,
		cmpopts.SortSlices(func(a, b EntryPoint) bool { return a.Name < b.Name })); diff != "" {
		t.Errorf("reflected entry points mismatch (-want +got):\n%s", diff)
	}
	if ps.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("Topology = %v", ps.Primitive.Topology)
	}
}

func TestPipelineStateIsSnapshot(t *testing.T) {
	ctrl := openScene(t)
	ctx := context.Background()
	if err := ctrl.SetFrameEvent(ctx, evDegenerateDraw, false); err != nil {
		t.Fatal(err)
	}
	ps, _ := ctrl.PipelineState()
	ps.Multisample.SampleLocations.CustomLocations[0] = FloatVector{X: 9}

	again, _ := ctrl.PipelineState()
	if again.Multisample.SampleLocations.CustomLocations[0].X == 9 {
		t.Error("PipelineState shares sample locations with the controller")
	}

	if err := ctrl.SetFrameEvent(ctx, evRotatedDraw, false); err != nil {
		t.Fatal(err)
	}
	if ps.Multisample.SampleLocations.CustomLocations[1] != (FloatVector{X: 0.25, Y: 0.25}) {
		t.Error("old snapshot changed after moving to another event")
	}
}

func TestPipelineStateBeforePipelineBound(t *testing.T) {
	ctrl := openScene(t)
	if err := ctrl.SetFrameEvent(context.Background(), evBeginPass, false); err != nil {
		t.Fatal(err)
	}
	ps, _ := ctrl.PipelineState()
	if ps.Pipeline != capture.NullResource || ps.Multisample.RasterSamples != 0 {
		t.Errorf("unexpected pipeline at event %d: %+v", evBeginPass, ps)
	}
	if len(ps.Multisample.SampleLocations.CustomLocations) != 0 {
		t.Error("custom locations reported with no pipeline bound")
	}
}

func TestSetFrameEventErrors(t *testing.T) {
	ctrl := openScene(t)
	ctx := context.Background()

	for _, ev := range []uint32{0, sceneEventCount + 1} {
		if err := ctrl.SetFrameEvent(ctx, ev, true); !errors.Is(err, ErrNoSuchEvent) {
			t.Errorf("SetFrameEvent(%d) = %v, want ErrNoSuchEvent", ev, err)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := ctrl.SetFrameEvent(cancelled, evDegenerateDraw, true); !errors.Is(err, context.Canceled) {
		t.Errorf("SetFrameEvent with cancelled context = %v", err)
	}
	// Already at the requested event, nothing to replay.
	if err := ctrl.SetFrameEvent(cancelled, sceneEventCount, false); err != nil {
		t.Errorf("SetFrameEvent at current event without force = %v", err)
	}
}

func colourAttachment(t *testing.T, ctrl *Controller) capture.ResourceID {
	t.Helper()
	for _, tex := range ctrl.Textures() {
		if tex.Name == sceneImageName {
			return tex.ResourceID
		}
	}
	t.Fatal("scene image not found")
	return capture.NullResource
}

func loadPNG(t *testing.T, path string) *image.NRGBA {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	// Opaque images come back as *image.RGBA.
	n := image.NewNRGBA(img.Bounds())
	draw.Draw(n, n.Bounds(), img, img.Bounds().Min, draw.Src)
	return n
}

// cropPix returns the pixels of img inside r, row by row without the
// stride padding a SubImage keeps.
func cropPix(img *image.NRGBA, r image.Rectangle) []byte {
	r = r.Intersect(img.Bounds())
	out := make([]byte, 0, r.Dx()*r.Dy()*4)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		out = append(out, img.Pix[i:i+r.Dx()*4]...)
	}
	return out
}

func TestCropPix(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := range 2 {
		for x := range 4 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	left := cropPix(img, image.Rect(0, 0, 2, 2))
	if len(left) != 2*2*4 {
		t.Fatalf("left half has %d bytes, want %d", len(left), 2*2*4)
	}
	for i := 0; i < len(left); i += 4 {
		if left[i] > 1 {
			t.Errorf("left half contains pixel from column %d", left[i])
		}
	}

	right := cropPix(img, image.Rect(2, 0, 4, 2))
	want := []byte{2, 0, 0, 255, 3, 0, 0, 255, 2, 1, 0, 255, 3, 1, 0, 255}
	if !bytes.Equal(right, want) {
		t.Errorf("right half = %v, want %v", right, want)
	}
}

func TestSaveTextureSamples(t *testing.T) {
	ctrl := openScene(t)
	dir := t.TempDir()
	id := colourAttachment(t, ctrl)

	left := image.Rect(0, 0, sceneWidth/2, sceneHeight)
	right := image.Rect(sceneWidth/2, 0, sceneWidth, sceneHeight)

	var degenerate, rotated [4][]byte
	for s := range 4 {
		path := filepath.Join(dir, "sample.png")
		err := ctrl.SaveTexture(TextureSave{
			ResourceID: id,
			DestType:   FilePNG,
			Sample:     SampleSelection{SampleIndex: uint32(s)},
		}, path)
		if err != nil {
			t.Fatalf("SaveTexture sample %d: %v", s, err)
		}
		img := loadPNG(t, path)
		if img.Bounds().Dx() != sceneWidth || img.Bounds().Dy() != sceneHeight {
			t.Fatalf("sample %d is %v", s, img.Bounds())
		}
		degenerate[s] = cropPix(img, left)
		rotated[s] = cropPix(img, right)
	}

	if !bytes.Equal(degenerate[0], degenerate[1]) {
		t.Error("degenerate samples 0 and 1 differ")
	}
	if !bytes.Equal(degenerate[2], degenerate[3]) {
		t.Error("degenerate samples 2 and 3 differ")
	}
	if bytes.Equal(degenerate[1], degenerate[2]) {
		t.Error("degenerate samples 1 and 2 are identical")
	}
	for a := range 4 {
		for b := a + 1; b < 4; b++ {
			if bytes.Equal(rotated[a], rotated[b]) {
				t.Errorf("rotated samples %d and %d are identical", a, b)
			}
		}
	}
}

func TestSaveTextureBeforeDraw(t *testing.T) {
	ctrl := openScene(t)
	if err := ctrl.SetFrameEvent(context.Background(), evBeginPass, false); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "clear.png")
	err := ctrl.SaveTexture(TextureSave{ResourceID: colourAttachment(t, ctrl), DestType: FilePNG}, path)
	if err != nil {
		t.Fatal(err)
	}
	img := loadPNG(t, path)
	want := [4]uint8{51, 51, 51, 255}
	for i := 0; i < len(img.Pix); i += 4 {
		if [4]uint8(img.Pix[i:i+4]) != want {
			t.Fatalf("pixel %d = %v, want clear colour %v", i/4, img.Pix[i:i+4], want)
		}
	}
}

func TestSaveTextureLayouts(t *testing.T) {
	ctrl := openScene(t)
	dir := t.TempDir()
	id := colourAttachment(t, ctrl)

	tests := []struct {
		name   string
		sample SampleSelection
		w, h   int
	}{
		{"array", SampleSelection{MapToArray: true}, sceneWidth * 4, sceneHeight},
		{"resolve", SampleSelection{ResolveSamples: true}, sceneWidth, sceneHeight},
		{"single", SampleSelection{SampleIndex: 3}, sceneWidth, sceneHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".png")
			if err := ctrl.SaveTexture(TextureSave{ResourceID: id, DestType: FilePNG, Sample: tt.sample}, path); err != nil {
				t.Fatal(err)
			}
			img := loadPNG(t, path)
			if img.Bounds().Dx() != tt.w || img.Bounds().Dy() != tt.h {
				t.Errorf("bounds = %v, want %dx%d", img.Bounds(), tt.w, tt.h)
			}
		})
	}
}

func TestSaveTextureFileTypes(t *testing.T) {
	ctrl := openScene(t)
	dir := t.TempDir()
	id := colourAttachment(t, ctrl)

	for _, ft := range []FileType{FilePNG, FileBMP, FileTIFF, FileJPG} {
		t.Run(ft.String(), func(t *testing.T) {
			path := filepath.Join(dir, "tex"+ft.Extension())
			if err := ctrl.SaveTexture(TextureSave{ResourceID: id, DestType: ft}, path); err != nil {
				t.Fatal(err)
			}
			fi, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if fi.Size() == 0 {
				t.Error("empty file written")
			}
			if got, ok := FileTypeFromPath(path); !ok || got != ft {
				t.Errorf("FileTypeFromPath(%q) = %v, %v", path, got, ok)
			}
		})
	}
}

func TestSaveTextureErrors(t *testing.T) {
	ctrl := openScene(t)
	dir := t.TempDir()
	id := colourAttachment(t, ctrl)

	tests := []struct {
		name string
		ts   TextureSave
		want error
	}{
		{"unknown resource", TextureSave{ResourceID: 1, DestType: FilePNG}, ErrNoSuchResource},
		{"sample out of range", TextureSave{ResourceID: id, Sample: SampleSelection{SampleIndex: 4}}, ErrSampleOutOfRange},
		{"bad file type", TextureSave{ResourceID: id, DestType: FileType(42)}, ErrUnsupportedFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ctrl.SaveTexture(tt.ts, filepath.Join(dir, "x.png"))
			if !errors.Is(err, tt.want) {
				t.Errorf("SaveTexture() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestShutdown(t *testing.T) {
	ctrl, err := Open(context.Background(), recordScene(t))
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Shutdown()
	ctrl.Shutdown()

	if _, err := ctrl.PipelineState(); !errors.Is(err, ErrShutdown) {
		t.Errorf("PipelineState after Shutdown = %v", err)
	}
	if err := ctrl.SetFrameEvent(context.Background(), 1, true); !errors.Is(err, ErrShutdown) {
		t.Errorf("SetFrameEvent after Shutdown = %v", err)
	}
	save := TextureSave{ResourceID: colourAttachment(t, ctrl), DestType: FilePNG}
	if err := ctrl.SaveTexture(save, filepath.Join(t.TempDir(), "x.png")); !errors.Is(err, ErrShutdown) {
		t.Errorf("SaveTexture after Shutdown = %v", err)
	}

	// Capture metadata stays available.
	if len(ctrl.Drawcalls()) == 0 || len(ctrl.FlatDrawcalls()) == 0 {
		t.Error("drawcalls dropped by Shutdown")
	}
	if len(ctrl.Textures()) == 0 {
		t.Error("textures dropped by Shutdown")
	}
	if ctrl.Capture() == nil {
		t.Error("Capture() is nil after Shutdown")
	}
}

func TestOpenRoundTrippedCapture(t *testing.T) {
	var buf bytes.Buffer
	if err := capture.Encode(&buf, recordScene(t)); err != nil {
		t.Fatal(err)
	}
	c, err := capture.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := Open(context.Background(), c, WithShaderValidation(false))
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Shutdown()

	if err := ctrl.SetFrameEvent(context.Background(), evRotatedDraw, false); err != nil {
		t.Fatal(err)
	}
	ps, _ := ctrl.PipelineState()
	if got := ps.Multisample.SampleLocations.CustomLocations; len(got) != 4 || got[0] != (FloatVector{X: 0.5625, Y: 0.1875}) {
		t.Errorf("CustomLocations after decode = %v", got)
	}
}
