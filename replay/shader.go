package replay

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/replaycheck/capture"
)

// shaderInfo is the reflection data of one shader module.
type shaderInfo struct {
	entryPoints []EntryPoint
}

func stageName(s ir.ShaderStage) string {
	switch s {
	case ir.StageVertex:
		return "Vertex"
	case ir.StageFragment:
		return "Fragment"
	case ir.StageCompute:
		return "Compute"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// reflectShader parses and lowers the module's WGSL source. Modules without
// source (SPIR-V only) reflect to no entry points.
func reflectShader(m *capture.ShaderModule, validate bool, log *slog.Logger) (*shaderInfo, error) {
	info := &shaderInfo{}
	if m.Source == "" {
		return info, nil
	}

	ast, err := naga.Parse(m.Source)
	if err != nil {
		return nil, fmt.Errorf("replay: shader %s: %w", m.Name, err)
	}
	module, err := naga.Lower(ast)
	if err != nil {
		return nil, fmt.Errorf("replay: shader %s: %w", m.Name, err)
	}

	for _, ep := range module.EntryPoints {
		info.entryPoints = append(info.entryPoints, EntryPoint{Name: ep.Name, Stage: stageName(ep.Stage)})
	}

	if validate {
		problems, err := naga.Validate(module)
		if err != nil {
			log.Warn("shader validation failed", "shader", m.Name, "error", err)
		}
		for _, p := range problems {
			log.Warn("shader validation", "shader", m.Name, "problem", p.Error())
		}
	}
	return info, nil
}

func (s *shaderInfo) stage(id capture.ResourceID, name, entry string) Shader {
	sh := Shader{ResourceID: id, Name: name, EntryPoint: entry}
	if s != nil {
		sh.EntryPoints = append([]EntryPoint(nil), s.entryPoints...)
	}
	return sh
}
