package capture

import "testing"

func TestResourcePoolRefs(t *testing.T) {
	p := NewResourcePool()

	img := p.AddImage(ImageDesc{ID: 1000, Name: "colour"})
	sh := p.AddShader(ShaderModule{ID: 1001, Name: "vs"})
	rp := p.AddRenderPass(RenderPassDesc{ID: 1002})
	fb := p.AddFramebuffer(FramebufferDesc{ID: 1003})
	pl := p.AddPipeline(PipelineDesc{ID: 1004})

	if got := p.GetImage(img); got == nil || got.Name != "colour" {
		t.Errorf("GetImage() = %v", got)
	}
	if got := p.GetShader(sh); got == nil || got.Name != "vs" {
		t.Errorf("GetShader() = %v", got)
	}
	if got := p.GetRenderPass(rp); got == nil || got.ID != 1002 {
		t.Errorf("GetRenderPass() = %v", got)
	}
	if got := p.GetFramebuffer(fb); got == nil || got.ID != 1003 {
		t.Errorf("GetFramebuffer() = %v", got)
	}
	if got := p.GetPipeline(pl); got == nil || got.ID != 1004 {
		t.Errorf("GetPipeline() = %v", got)
	}

	if p.GetImage(ImageRef(InvalidRef)) != nil {
		t.Error("GetImage(InvalidRef) should be nil")
	}
	if p.GetShader(5) != nil || p.GetRenderPass(5) != nil || p.GetFramebuffer(5) != nil || p.GetPipeline(5) != nil {
		t.Error("out of range refs should resolve to nil")
	}

	counts := []int{p.ImageCount(), p.ShaderCount(), p.RenderPassCount(), p.FramebufferCount(), p.PipelineCount()}
	for i, n := range counts {
		if n != 1 {
			t.Errorf("count[%d] = %d, want 1", i, n)
		}
	}
}

func TestResourcePoolCopiesSlices(t *testing.T) {
	p := NewResourcePool()

	attachments := []ResourceID{1, 2}
	fb := p.AddFramebuffer(FramebufferDesc{Attachments: attachments})
	attachments[0] = 99
	if got := p.GetFramebuffer(fb).Attachments[0]; got != 1 {
		t.Errorf("framebuffer attachment mutated through caller slice: %d", got)
	}

	locs := []Vec2{{X: 0.5, Y: 0.5}}
	pl := p.AddPipeline(PipelineDesc{SampleLocations: SampleLocations{GridWidth: 1, GridHeight: 1, Locations: locs}})
	locs[0].X = 0
	if got := p.GetPipeline(pl).SampleLocations.Locations[0].X; got != 0.5 {
		t.Errorf("pipeline sample location mutated through caller slice: %v", got)
	}

	indices := []uint32{0}
	rp := p.AddRenderPass(RenderPassDesc{ColorAttachments: indices})
	indices[0] = 7
	if got := p.GetRenderPass(rp).ColorAttachments[0]; got != 0 {
		t.Errorf("render pass attachment mutated through caller slice: %d", got)
	}
}

func TestResourcePoolImageByID(t *testing.T) {
	p := NewResourcePool()
	p.AddImage(ImageDesc{ID: 1000, Name: "a"})
	p.AddImage(ImageDesc{ID: 1005, Name: "b"})

	if got := p.ImageByID(1005); got == nil || got.Name != "b" {
		t.Errorf("ImageByID(1005) = %v", got)
	}
	if p.ImageByID(NullResource) != nil {
		t.Error("ImageByID(NullResource) should be nil")
	}
	if len(p.Images()) != 2 {
		t.Errorf("Images() len = %d", len(p.Images()))
	}

	p.Clear()
	if p.ImageCount() != 0 {
		t.Error("Clear should remove images")
	}
}
