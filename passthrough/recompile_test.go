package passthrough

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/spirvmod"
)

func buildMinimalVertexShader() []byte {
	mod, _ := spirvmod.InitShaderModule(spirvmod.Version1_3)
	voidTy := mod.AddTypeVoid()
	fnTy := mod.AddTypeFunction(voidTy)
	fnID := mod.AddFunction(fnTy, voidTy, spirvmod.FunctionControlNone)
	mod.AddName(fnID, "main")
	mod.AddLabel()
	mod.AddReturn()
	mod.AddFunctionEnd()
	mod.AddEntryPoint(spirvmod.ExecutionModelVertex, fnID, "VShader", nil)
	return mod.Finish()
}

func TestRecompileShaderAddsMissingPassthroughLocation(t *testing.T) {
	donor := buildMinimalVertexShader()
	out, err := RecompileShader(donor, []uint32{3}, &il.RecordingSink{})
	require.NoError(t, err)
	assert.Greater(t, len(out), len(donor))
	assert.True(t, len(out)%4 == 0)
}

func TestRecompileShaderRejectsBadMagic(t *testing.T) {
	_, err := RecompileShader([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, nil, &il.RecordingSink{})
	assert.Error(t, err)
}
