package rectgs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libcg/grvk/compiler"
	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/spirvmod"
)

func countOp(code []byte, op spirvmod.Op) int {
	count := 0
	words := len(code) / 4
	i := 5 // skip header
	for i < words {
		w := binary.LittleEndian.Uint32(code[i*4:])
		wordCount := int(w >> 16)
		if spirvmod.Op(w&0xFFFF) == op {
			count++
		}
		if wordCount == 0 {
			break
		}
		i += wordCount
	}
	return count
}

func TestCompileRectangleGeometryShaderEmitsFourVerticesOnePrimitive(t *testing.T) {
	shader, err := CompileRectangleGeometryShader([]compiler.Input{{Location: 0}}, &il.RecordingSink{})
	require.NoError(t, err)
	assert.Equal(t, 4, countOp(shader.Code, spirvmod.OpEmitVertex))
	assert.Equal(t, 1, countOp(shader.Code, spirvmod.OpEndPrimitive))
}

func TestCompileRectangleGeometryShaderExecutionModes(t *testing.T) {
	shader, err := CompileRectangleGeometryShader(nil, &il.RecordingSink{})
	require.NoError(t, err)

	// Collect each OpExecutionMode's mode and literal parameters.
	modes := map[spirvmod.ExecutionMode][]uint32{}
	code := shader.Code
	words := len(code) / 4
	for i := 5; i < words; {
		w := binary.LittleEndian.Uint32(code[i*4:])
		wordCount := int(w >> 16)
		if wordCount == 0 {
			break
		}
		if spirvmod.Op(w&0xFFFF) == spirvmod.OpExecutionMode {
			var params []uint32
			for k := 3; k < wordCount; k++ {
				params = append(params, binary.LittleEndian.Uint32(code[(i+k)*4:]))
			}
			modes[spirvmod.ExecutionMode(binary.LittleEndian.Uint32(code[(i+2)*4:]))] = params
		}
		i += wordCount
	}
	assert.Contains(t, modes, spirvmod.ExecutionModeTriangles)
	assert.Contains(t, modes, spirvmod.ExecutionModeOutputTriangleStrip)
	assert.Equal(t, []uint32{4}, modes[spirvmod.ExecutionModeOutputVertices])
	assert.Equal(t, []uint32{1}, modes[spirvmod.ExecutionModeInvocations])
}
