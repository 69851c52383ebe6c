package bindingpatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libcg/grvk/spirvmod"
)

func u32(v uint32) *uint32 { return &v }

func TestPatchBindingsRewritesInPlace(t *testing.T) {
	mod := spirvmod.NewModule(spirvmod.Version1_3)
	varID := mod.AllocID()
	mod.AddDecorate(varID, spirvmod.DecorationDescriptorSet, 0)
	mod.AddDecorate(varID, spirvmod.DecorationBinding, 5)
	code := mod.Finish()

	patched, err := PatchBindings(code, map[uint32]Patch{
		varID: {DescriptorSet: u32(2), Binding: u32(9)},
	})
	require.NoError(t, err)

	assert.Same(t, &code[0], &patched[0])

	// Re-scan the patched binary to confirm the new values stuck.
	found := map[spirvmod.Decoration]uint32{}
	const headerWords = 5
	for i := headerWords; i*4 < len(patched); {
		w := le32(patched, i)
		wordCount := int(w >> 16)
		op := spirvmod.Op(w & 0xFFFF)
		if op == spirvmod.OpDecorate && le32(patched, i+1) == varID {
			found[spirvmod.Decoration(le32(patched, i+2))] = le32(patched, i+3)
		}
		i += wordCount
	}
	assert.Equal(t, uint32(2), found[spirvmod.DecorationDescriptorSet])
	assert.Equal(t, uint32(9), found[spirvmod.DecorationBinding])
}

func le32(buf []byte, wordIdx int) uint32 {
	o := wordIdx * 4
	return uint32(buf[o]) | uint32(buf[o+1])<<8 | uint32(buf[o+2])<<16 | uint32(buf[o+3])<<24
}

func TestPatchBindingsRejectsTruncated(t *testing.T) {
	_, err := PatchBindings([]byte{1, 2, 3}, nil)
	assert.Error(t, err)
}
