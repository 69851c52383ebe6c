package compiler

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/spirvmod"
)

// decodedInstr is one parsed code-section instruction, for structural
// assertions over a finished SPIR-V module.
type decodedInstr struct {
	op      spirvmod.Op
	operand []uint32
}

func decodeInstrs(code []byte) []decodedInstr {
	var out []decodedInstr
	words := len(code) / 4
	i := 5 // skip header
	for i < words {
		w := binary.LittleEndian.Uint32(code[i*4:])
		wordCount := int(w >> 16)
		if wordCount == 0 {
			break
		}
		operand := make([]uint32, 0, wordCount-1)
		for k := 1; k < wordCount && i+k < words; k++ {
			operand = append(operand, binary.LittleEndian.Uint32(code[(i+k)*4:]))
		}
		out = append(out, decodedInstr{op: spirvmod.Op(w & 0xFFFF), operand: operand})
		i += wordCount
	}
	return out
}

func kernel(stage il.ShaderType, instrs ...il.Instruction) *il.Kernel {
	return &il.Kernel{ShaderType: stage, Instrs: instrs}
}

func TestCompileKernelStageToExecutionModel(t *testing.T) {
	cases := []struct {
		stage il.ShaderType
		model spirvmod.ExecutionModel
		name  string
	}{
		{il.ShaderVertex, spirvmod.ExecutionModelVertex, "VShader"},
		{il.ShaderPixel, spirvmod.ExecutionModelFragment, "PShader"},
		{il.ShaderGeometry, spirvmod.ExecutionModelGeometry, "GShader"},
		{il.ShaderCompute, spirvmod.ExecutionModelGLCompute, "CShader"},
		{il.ShaderHull, spirvmod.ExecutionModelTessellationControl, "HShader"},
		{il.ShaderDomain, spirvmod.ExecutionModelTessellationEvaluation, "DShader"},
	}
	for _, c := range cases {
		shader, err := CompileKernel(kernel(c.stage, il.Instruction{Opcode: il.OpEndMain}, il.Instruction{Opcode: il.OpEnd}), c.name, &il.RecordingSink{})
		require.NoError(t, err)
		assert.Equal(t, c.name, shader.Name)
		assert.NotEmpty(t, shader.Code)

		var entries []decodedInstr
		for _, in := range decodeInstrs(shader.Code) {
			if in.op == spirvmod.OpEntryPoint {
				entries = append(entries, in)
			}
		}
		require.Len(t, entries, 1)
		assert.Equal(t, uint32(c.model), entries[0].operand[0])
	}
}

func TestCompileKernelUnknownStageErrors(t *testing.T) {
	_, err := CompileKernel(kernel(il.ShaderType(200), il.Instruction{Opcode: il.OpEndMain}), "x", &il.RecordingSink{})
	assert.Error(t, err)
}

func TestDeclareInputAssignsLocationAndInterpolationDecoration(t *testing.T) {
	instrs := []il.Instruction{
		{
			Opcode:  il.OpDclInput,
			Control: uint16(InterpConstant),
			Dsts:    []il.Destination{{RegisterType: il.RegInput, RegisterNum: 2}},
		},
		{Opcode: il.OpEndMain},
		{Opcode: il.OpEnd},
	}
	shader, err := CompileKernel(kernel(il.ShaderPixel, instrs...), "ps", &il.RecordingSink{})
	require.NoError(t, err)
	require.Len(t, shader.Inputs, 1)
	assert.Equal(t, uint32(2), shader.Inputs[0].Location)
	assert.Equal(t, InterpConstant, shader.Inputs[0].InterpolationMode)
}

func TestDeclareInputSampleModeAddsSampleRateShadingCapability(t *testing.T) {
	instrs := []il.Instruction{
		{
			Opcode:  il.OpDclInput,
			Control: uint16(InterpLinearSample),
			Dsts:    []il.Destination{{RegisterType: il.RegInput, RegisterNum: 0}},
		},
		{Opcode: il.OpEndMain},
		{Opcode: il.OpEnd},
	}
	shader, err := CompileKernel(kernel(il.ShaderPixel, instrs...), "ps", &il.RecordingSink{})
	require.NoError(t, err)
	require.Len(t, shader.Inputs, 1)
	assert.Equal(t, InterpLinearSample, shader.Inputs[0].InterpolationMode)

	hasCap := false
	for _, in := range decodeInstrs(shader.Code) {
		if in.op == spirvmod.OpCapability && spirvmod.Capability(in.operand[0]) == spirvmod.CapabilitySampleRateShading {
			hasCap = true
		}
	}
	assert.True(t, hasCap, "expected OpCapability SampleRateShading")
}

func TestAddBindingSpaceConvention(t *testing.T) {
	cs := &compilerState{nextBindingSampler: 1, nextBindingOther: 17}

	cs.addBinding(0, DescriptorStorageBuffer)
	cs.addBinding(5, DescriptorSampler)
	cs.addBinding(7, DescriptorStorageBuffer)
	cs.addBinding(9, DescriptorSampler)

	require.Len(t, cs.bindings, 4)
	assert.Equal(t, uint32(0), cs.bindings[0].Index)
	assert.Equal(t, uint32(1), cs.bindings[1].Index)
	assert.Equal(t, uint32(17), cs.bindings[2].Index)
	assert.Equal(t, uint32(2), cs.bindings[3].Index)
}

func TestCompileKernelWhileLoopBranchesBackToHeader(t *testing.T) {
	instrs := []il.Instruction{
		{Opcode: il.OpWhile},
		{Opcode: il.OpEndLoop},
		{Opcode: il.OpEndMain},
		{Opcode: il.OpEnd},
	}
	shader, err := CompileKernel(kernel(il.ShaderVertex, instrs...), "vs", &il.RecordingSink{})
	require.NoError(t, err)

	ops := decodeInstrs(shader.Code)

	loopMergeIdx := -1
	for i, in := range ops {
		if in.op == spirvmod.OpLoopMerge {
			loopMergeIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, loopMergeIdx, 0, "OpLoopMerge not found")
	require.True(t, loopMergeIdx > 0, "OpLoopMerge must be preceded by the header label")
	require.Equal(t, spirvmod.OpLabel, ops[loopMergeIdx-1].op, "OpLoopMerge must immediately follow the header label")
	headerID := ops[loopMergeIdx-1].operand[0]

	require.Less(t, loopMergeIdx+1, len(ops))
	require.Equal(t, spirvmod.OpBranch, ops[loopMergeIdx+1].op, "OpLoopMerge must be immediately followed by a branch into the body")
	bodyID := ops[loopMergeIdx+1].operand[0]
	require.Equal(t, spirvmod.OpLabel, ops[loopMergeIdx+2].op)
	assert.Equal(t, bodyID, ops[loopMergeIdx+2].operand[0], "the branch target must be the body label that follows")

	backEdgeFound := false
	for i := loopMergeIdx + 2; i < len(ops); i++ {
		if ops[i].op == spirvmod.OpBranch && ops[i].operand[0] == headerID {
			backEdgeFound = true
			break
		}
	}
	assert.True(t, backEdgeFound, "the loop's continue block must branch back to the header")
}

func TestDeclareInputCentroidAndSampleEmitCorrectDecorationOperand(t *testing.T) {
	cases := []struct {
		mode InterpolationMode
		dec  spirvmod.Decoration
	}{
		{InterpLinearCentroid, spirvmod.DecorationCentroid},
		{InterpLinearSample, spirvmod.DecorationSample},
	}
	for _, c := range cases {
		instrs := []il.Instruction{
			{
				Opcode:  il.OpDclInput,
				Control: uint16(c.mode),
				Dsts:    []il.Destination{{RegisterType: il.RegInput, RegisterNum: 0}},
			},
			{Opcode: il.OpEndMain},
			{Opcode: il.OpEnd},
		}
		shader, err := CompileKernel(kernel(il.ShaderPixel, instrs...), "ps", &il.RecordingSink{})
		require.NoError(t, err)

		ops := decodeInstrs(shader.Code)
		found := false
		for _, in := range ops {
			if in.op == spirvmod.OpDecorate && len(in.operand) >= 2 && spirvmod.Decoration(in.operand[1]) == c.dec {
				found = true
				break
			}
		}
		assert.True(t, found, "expected an OpDecorate with operand %d for mode %v", c.dec, c.mode)
	}
}

func TestCompileKernelSampleDeclaresResourceAndSamplerBindings(t *testing.T) {
	instrs := []il.Instruction{
		{Opcode: il.OpDclResource, Control: 0x0002}, // resource id 2, 2D
		{
			Opcode:  il.OpSample,
			Control: 0x0102, // resource id 2, sampler id 1
			Dsts:    []il.Destination{{RegisterType: il.RegTemp, RegisterNum: 0}},
			Srcs:    []il.Source{{RegisterType: il.RegTemp, RegisterNum: 1, Swizzle: [4]il.ComponentSelect{il.CompSelX, il.CompSelY, il.CompSelZ, il.CompSelW}}},
		},
		{Opcode: il.OpEndMain},
		{Opcode: il.OpEnd},
	}
	shader, err := CompileKernel(kernel(il.ShaderPixel, instrs...), "ps", &il.RecordingSink{})
	require.NoError(t, err)

	require.Len(t, shader.Bindings, 2)
	assert.Equal(t, DescriptorSampledImage, shader.Bindings[0].Kind)
	assert.Equal(t, DescriptorSampler, shader.Bindings[1].Kind)

	ops := decodeInstrs(shader.Code)
	hasOp := func(op spirvmod.Op) bool {
		for _, in := range ops {
			if in.op == op {
				return true
			}
		}
		return false
	}
	assert.True(t, hasOp(spirvmod.OpTypeImage))
	assert.True(t, hasOp(spirvmod.OpTypeSampledImage))
	assert.True(t, hasOp(spirvmod.OpSampledImage))
	assert.True(t, hasOp(spirvmod.OpImageSampleImplicitLod))
}

func TestSampleWithUndeclaredResourceWarns(t *testing.T) {
	sink := &il.RecordingSink{}
	instrs := []il.Instruction{
		{
			Opcode:  il.OpSample,
			Control: 0x0103,
			Dsts:    []il.Destination{{RegisterType: il.RegTemp, RegisterNum: 0}},
			Srcs:    []il.Source{{RegisterType: il.RegTemp, RegisterNum: 1, Swizzle: [4]il.ComponentSelect{il.CompSelX, il.CompSelY, il.CompSelZ, il.CompSelW}}},
		},
		{Opcode: il.OpEndMain},
		{Opcode: il.OpEnd},
	}
	_, err := CompileKernel(kernel(il.ShaderPixel, instrs...), "ps", sink)
	require.NoError(t, err)
	assert.NotEmpty(t, sink.Warnings)
}

func TestDeclareGlobalFlagsWarnsOnUnknownBits(t *testing.T) {
	sink := &il.RecordingSink{}
	instrs := []il.Instruction{
		{Opcode: il.OpDclGlobalFlags, Control: 0xFF},
		{Opcode: il.OpEndMain},
		{Opcode: il.OpEnd},
	}
	_, err := CompileKernel(kernel(il.ShaderVertex, instrs...), "vs", sink)
	require.NoError(t, err)
	assert.NotEmpty(t, sink.Warnings)
}
