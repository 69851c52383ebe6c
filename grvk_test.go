package grvk

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libcg/grvk/il"
)

func tokensToBytes(tokens []uint32) []byte {
	buf := make([]byte, len(tokens)*4)
	for i, t := range tokens {
		binary.LittleEndian.PutUint32(buf[i*4:], t)
	}
	return buf
}

func TestShaderNameMatchesEmptyByteHash(t *testing.T) {
	name := shaderName(il.ShaderPixel, nil)
	assert.Equal(t, "ps_da39a3ee5e6b4b0d3255bfef95601890afd80709", name)
}

func TestCompileShaderEmptyVertexShader(t *testing.T) {
	tokens := []uint32{0x00000000, 0x00000100, 0x00000028, 0x0000002A}
	shader, err := CompileShader(tokensToBytes(tokens), &il.RecordingSink{})
	require.NoError(t, err)
	assert.NotEmpty(t, shader.Code)
	assert.Equal(t, "vs_"+sha1HexOf(tokensToBytes(tokens)), shader.Name)
}

func sha1HexOf(b []byte) string {
	return shaderName(il.ShaderVertex, b)[len("vs_"):]
}

func TestCompileShaderRejectsNonMultipleOf4(t *testing.T) {
	_, err := CompileShader([]byte{1, 2, 3}, &il.RecordingSink{})
	assert.Error(t, err)
}

func TestDisassembleShaderMovInstruction(t *testing.T) {
	// mov r0, v0.x (v0 carries a modifier word selecting x in every lane),
	// then ENDMAIN, END.
	tokens := []uint32{0x00000000, 0x00000100, uint32(il.OpMov), 0x00040000, 0x00610000, 0x00000000, 0x00000028, 0x0000002A}
	out, err := DisassembleShader(tokensToBytes(tokens), &il.RecordingSink{})
	require.NoError(t, err)
	assert.Contains(t, out, "il_vs_1_0")
	assert.Contains(t, out, "\nmov r0, v0.x\n")
}
