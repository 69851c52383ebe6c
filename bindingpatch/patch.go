package bindingpatch

import (
	"encoding/binary"
	"fmt"

	"github.com/libcg/grvk/spirvmod"
)

// Patch describes the new descriptor-set/binding values for one id. A nil
// field leaves that decoration's operand untouched.
type Patch struct {
	DescriptorSet *uint32
	Binding       *uint32
}

// PatchBindings rewrites, in place, every OpDecorate DescriptorSet/Binding
// instruction in code whose target id appears in patches, overwriting the
// operand word directly rather than rebuilding the module. code is mutated
// and also returned for convenience.
func PatchBindings(code []byte, patches map[uint32]Patch) ([]byte, error) {
	if len(code)%4 != 0 || len(code) < 20 {
		return nil, fmt.Errorf("bindingpatch: truncated module (%d bytes)", len(code))
	}
	if binary.LittleEndian.Uint32(code[0:4]) != spirvmod.MagicNumber {
		return nil, fmt.Errorf("bindingpatch: bad magic number")
	}

	words := len(code) / 4
	i := 5
	for i < words {
		header := binary.LittleEndian.Uint32(code[i*4:])
		wordCount := int(header >> 16)
		op := spirvmod.Op(header & 0xFFFF)
		if wordCount == 0 || i+wordCount > words {
			return nil, fmt.Errorf("bindingpatch: malformed instruction at word %d", i)
		}

		if op == spirvmod.OpDecorate && wordCount >= 3 {
			targetID := binary.LittleEndian.Uint32(code[(i+1)*4:])
			decoration := spirvmod.Decoration(binary.LittleEndian.Uint32(code[(i+2)*4:]))
			if patch, ok := patches[targetID]; ok && wordCount >= 4 {
				switch decoration {
				case spirvmod.DecorationDescriptorSet:
					if patch.DescriptorSet != nil {
						binary.LittleEndian.PutUint32(code[(i+3)*4:], *patch.DescriptorSet)
					}
				case spirvmod.DecorationBinding:
					if patch.Binding != nil {
						binary.LittleEndian.PutUint32(code[(i+3)*4:], *patch.Binding)
					}
				}
			}
		}

		i += wordCount
	}

	return code, nil
}
