package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// CompileShader compiles WGSL source to SPIR-V words, the form in which a
// Vulkan application hands shader code to the driver.
// IR validation is left to the replay side, which reports it per module.
func CompileShader(wgslSource string) ([]uint32, error) {
	opts := naga.DefaultOptions()
	opts.Validate = false
	spirvBytes, err := naga.CompileWithOptions(wgslSource, opts)
	if err != nil {
		return nil, fmt.Errorf("capture: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("capture: SPIR-V size %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// IsSPIRV reports whether words start with the SPIR-V magic number.
func IsSPIRV(words []uint32) bool {
	return len(words) > 0 && words[0] == spirvMagic
}
