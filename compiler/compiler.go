package compiler

import (
	"fmt"

	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/spirvmod"
)

// execModelTable is the §4.5.1 stage → execution-model/name table.
var execModelTable = map[il.ShaderType]struct {
	model spirvmod.ExecutionModel
	name  string
}{
	il.ShaderVertex:   {spirvmod.ExecutionModelVertex, "VShader"},
	il.ShaderPixel:    {spirvmod.ExecutionModelFragment, "PShader"},
	il.ShaderGeometry: {spirvmod.ExecutionModelGeometry, "GShader"},
	il.ShaderCompute:  {spirvmod.ExecutionModelGLCompute, "CShader"},
	il.ShaderHull:     {spirvmod.ExecutionModelTessellationControl, "HShader"},
	il.ShaderDomain:   {spirvmod.ExecutionModelTessellationEvaluation, "DShader"},
}

// registerKey identifies one source-IL register for value/variable lookup.
type registerKey struct {
	regType il.RegisterType
	regNum  uint32
}

// compilerState carries everything accumulated while lowering one Kernel.
type compilerState struct {
	mod       *spirvmod.Module
	glslExtID uint32
	sink      il.Sink

	floatTy  uint32
	vec2TyID uint32
	vec4Ty   uint32
	fnTy     uint32
	voidTy   uint32
	boolTyID uint32
	ptrIn   map[il.RegisterType]uint32 // register-type-keyed ptr<vec4> cache, input
	ptrOut  uint32

	imageTyID       uint32
	samplerTyID     uint32
	sampledImageTyID uint32

	inputVars    map[registerKey]uint32
	outputVars   map[registerKey]uint32
	tempVars     map[registerKey]uint32
	resourceVars map[uint32]uint32 // IL resource id -> image variable
	samplerVars  map[uint32]uint32 // IL sampler id -> sampler variable

	interfaces []uint32
	bindings   []Binding
	inputs     []Input
	outputs    []Output

	nextBindingSampler uint32 // next free id in 1..16
	nextBindingOther   uint32 // next free id in 17+
}

// CompileKernel lowers kernel to a finished SPIR-V module, per spec.md
// §4.5.5. name is embedded in the returned Shader.
func CompileKernel(kernel *il.Kernel, name string, sink il.Sink) (*Shader, error) {
	if sink == nil {
		sink = il.DefaultSink()
	}
	mod, glslExtID := spirvmod.InitShaderModule(spirvmod.Version1_3)

	cs := &compilerState{
		mod:                mod,
		glslExtID:          glslExtID,
		sink:               sink,
		inputVars:          make(map[registerKey]uint32),
		outputVars:         make(map[registerKey]uint32),
		tempVars:           make(map[registerKey]uint32),
		resourceVars:       make(map[uint32]uint32),
		samplerVars:        make(map[uint32]uint32),
		nextBindingSampler: 1,
		nextBindingOther:   17,
	}
	cs.voidTy = mod.AddTypeVoid()
	cs.floatTy = mod.AddTypeFloat(32)
	cs.vec4Ty = mod.AddTypeVector(cs.floatTy, 4)
	cs.fnTy = mod.AddTypeFunction(cs.voidTy)
	cs.ptrIn = make(map[il.RegisterType]uint32)

	entry, ok := execModelTable[kernel.ShaderType]
	if !ok {
		return nil, fmt.Errorf("compiler: unknown shader stage %d", kernel.ShaderType)
	}

	fnID := mod.AddFunction(cs.fnTy, cs.voidTy, spirvmod.FunctionControlNone)
	mod.AddName(fnID, "main")
	mod.AddLabel()

	ctrl := newControlStack()
	for i := range kernel.Instrs {
		cs.lowerInstruction(&kernel.Instrs[i], ctrl)
	}
	if !ctrl.empty() {
		sink.Warnf("compiler: %d unterminated control-flow block(s) at end of program", ctrl.depth())
	}
	mod.AddReturn()
	mod.AddFunctionEnd()

	mod.AddEntryPoint(entry.model, fnID, entry.name, cs.interfaces)
	if kernel.ShaderType == il.ShaderPixel {
		mod.AddExecutionMode(fnID, spirvmod.ExecutionModeOriginUpperLeft)
	}

	return &Shader{
		Code:     mod.Finish(),
		Bindings: cs.bindings,
		Inputs:   cs.inputs,
		Outputs:  cs.outputs,
		Name:     name,
	}, nil
}

// ptrInputType returns (creating if needed) ptr<Input, vec4>.
func (cs *compilerState) ptrInputType() uint32 {
	if id, ok := cs.ptrIn[il.RegInput]; ok {
		return id
	}
	id := cs.mod.AddTypePointer(spirvmod.StorageClassInput, cs.vec4Ty)
	cs.ptrIn[il.RegInput] = id
	return id
}

// ptrOutputType returns (creating if needed) ptr<Output, vec4>.
func (cs *compilerState) ptrOutputType() uint32 {
	if cs.ptrOut == 0 {
		cs.ptrOut = cs.mod.AddTypePointer(spirvmod.StorageClassOutput, cs.vec4Ty)
	}
	return cs.ptrOut
}

// declareInput handles DCL_INPUT: allocates a vec4 input variable decorated
// with Location, and the interpolation-mode decoration table from §4.5.2.
func (cs *compilerState) declareInput(instr *il.Instruction) {
	if len(instr.Dsts) == 0 {
		cs.sink.Warnf("compiler: DCL_INPUT with no destination")
		return
	}
	dst := instr.Dsts[0]
	key := registerKey{il.RegInput, dst.RegisterNum}
	location := dst.RegisterNum

	varID := cs.mod.AddVariable(cs.ptrInputType(), spirvmod.StorageClassInput)
	cs.inputVars[key] = varID
	cs.interfaces = append(cs.interfaces, varID)
	cs.mod.AddDecorate(varID, spirvmod.DecorationLocation, location)

	mode := InterpolationMode(il.GetBits(uint32(instr.Control), 0, 4))
	switch mode {
	case InterpConstant:
		cs.mod.AddDecorate(varID, spirvmod.DecorationFlat)
	case InterpLinearCentroid:
		cs.mod.AddDecorate(varID, spirvmod.DecorationCentroid)
	case InterpLinearNoperspective, InterpLinearNoperspectiveCentroid, InterpLinearNoperspectiveSample:
		cs.mod.AddDecorate(varID, spirvmod.DecorationNoPerspective)
	}
	if mode == InterpLinearSample || mode == InterpLinearNoperspectiveSample {
		cs.mod.AddDecorate(varID, spirvmod.DecorationSample)
		cs.mod.AddCapability(spirvmod.CapabilitySampleRateShading)
	}

	cs.inputs = append(cs.inputs, Input{Location: location, InterpolationMode: mode})
}

// declareOutput handles DCL_OUTPUT: allocates a vec4 output variable
// decorated with Location equal to the destination register number. The
// import usage is not read: no output is decorated as a BuiltIn (not even a
// position output), every output gets a Location.
func (cs *compilerState) declareOutput(instr *il.Instruction) {
	if len(instr.Dsts) == 0 {
		cs.sink.Warnf("compiler: DCL_OUTPUT with no destination")
		return
	}
	dst := instr.Dsts[0]
	key := registerKey{il.RegOutput, dst.RegisterNum}
	location := dst.RegisterNum

	varID := cs.mod.AddVariable(cs.ptrOutputType(), spirvmod.StorageClassOutput)
	cs.outputVars[key] = varID
	cs.interfaces = append(cs.interfaces, varID)
	cs.mod.AddDecorate(varID, spirvmod.DecorationLocation, location)

	cs.outputs = append(cs.outputs, Output{Location: location})
}

// declareConstBuffer handles DCL_CONST_BUFFER: records a storage-buffer
// binding at a caller-supplied IL-space id.
func (cs *compilerState) declareConstBuffer(instr *il.Instruction) {
	if len(instr.Srcs) == 0 {
		cs.sink.Warnf("compiler: DCL_CONST_BUFFER with no source")
		return
	}
	cs.addBinding(instr.Srcs[0].RegisterNum, DescriptorStorageBuffer)
}

// addBinding records a binding following the §4.5.2/§3.4 id convention:
// id 0 is the atomic-counter buffer, 1..16 are samplers, others ≥17. It
// returns the assigned descriptor index for callers that need to decorate
// a variable with it.
func (cs *compilerState) addBinding(ilSpaceID uint32, kind DescriptorKind) uint32 {
	var index uint32
	switch {
	case ilSpaceID == 0:
		index = 0
	case kind == DescriptorSampler:
		index = cs.nextBindingSampler
		cs.nextBindingSampler++
	default:
		index = cs.nextBindingOther
		cs.nextBindingOther++
	}
	cs.bindings = append(cs.bindings, Binding{Index: index, Kind: kind, StridePushConstantIndex: -1})
	return index
}

// imageType returns (creating if needed) the 2D sampled-image-usable
// OpTypeImage every DCL_RESOURCE declaration binds to. Source IL carries no
// compile-time texel format for SRV resources, so the format is left
// Unknown and resolved at runtime by the descriptor actually bound.
func (cs *compilerState) imageType() uint32 {
	if cs.imageTyID == 0 {
		cs.imageTyID = cs.mod.AddTypeImage(cs.floatTy, spirvmod.Dim2D, 0, 0, 0, 1, spirvmod.ImageFormatUnknown)
	}
	return cs.imageTyID
}

func (cs *compilerState) samplerType() uint32 {
	if cs.samplerTyID == 0 {
		cs.samplerTyID = cs.mod.AddTypeSampler()
	}
	return cs.samplerTyID
}

func (cs *compilerState) sampledImageType() uint32 {
	if cs.sampledImageTyID == 0 {
		cs.sampledImageTyID = cs.mod.AddTypeSampledImage(cs.imageType())
	}
	return cs.sampledImageTyID
}

func (cs *compilerState) vec2Type() uint32 {
	if cs.vec2TyID == 0 {
		cs.vec2TyID = cs.mod.AddTypeVector(cs.floatTy, 2)
	}
	return cs.vec2TyID
}

// declareResource handles DCL_RESOURCE: allocates a sampled-image-usable
// image variable for the resource id carried in the control word's low
// byte (§4.5.2, resource/UAV declarations), per the Control bit layout
// amdilc_dump.c documents for this token.
func (cs *compilerState) declareResource(instr *il.Instruction) {
	resourceID := il.GetBits(uint32(instr.Control), 0, 7)
	if _, ok := cs.resourceVars[resourceID]; ok {
		cs.sink.Warnf("compiler: DCL_RESOURCE redeclares resource %d", resourceID)
		return
	}
	ptrTy := cs.mod.AddTypePointer(spirvmod.StorageClassUniformConstant, cs.imageType())
	varID := cs.mod.AddVariable(ptrTy, spirvmod.StorageClassUniformConstant)
	cs.resourceVars[resourceID] = varID

	index := cs.addBinding(resourceID, DescriptorSampledImage)
	cs.mod.AddDecorate(varID, spirvmod.DecorationDescriptorSet, 0)
	cs.mod.AddDecorate(varID, spirvmod.DecorationBinding, index)
}

// samplerVar returns (declaring on first reference) the sampler variable
// for samplerID. Source IL has no DCL_SAMPLER token; sampler ids are only
// ever named from a SAMPLE instruction's control word.
func (cs *compilerState) samplerVar(samplerID uint32) uint32 {
	if varID, ok := cs.samplerVars[samplerID]; ok {
		return varID
	}
	ptrTy := cs.mod.AddTypePointer(spirvmod.StorageClassUniformConstant, cs.samplerType())
	varID := cs.mod.AddVariable(ptrTy, spirvmod.StorageClassUniformConstant)
	cs.samplerVars[samplerID] = varID

	index := cs.addBinding(samplerID+1, DescriptorSampler)
	cs.mod.AddDecorate(varID, spirvmod.DecorationDescriptorSet, 0)
	cs.mod.AddDecorate(varID, spirvmod.DecorationBinding, index)
	return varID
}

// declareGlobalFlags parses the DCL_GLOBAL_FLAGS bitfield; unhandled bits
// are logged but otherwise ignored, per §4.5.2.
func (cs *compilerState) declareGlobalFlags(instr *il.Instruction) {
	known := uint32(0x0F)
	if extra := uint32(instr.Control) &^ known; extra != 0 {
		cs.sink.Warnf("compiler: DCL_GLOBAL_FLAGS has unhandled bits %#x", extra)
	}
}
