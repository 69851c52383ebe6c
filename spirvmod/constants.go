package spirvmod

// MagicNumber and GeneratorID are the fixed SPIR-V module-header values.
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00000000
)

// Version is a SPIR-V version (major.minor).
type Version struct {
	Major uint8
	Minor uint8
}

var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_5 = Version{1, 5}
)

func (v Version) word() uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}

// Op is a SPIR-V opcode.
type Op uint16

const (
	OpNop               Op = 0
	OpSource            Op = 3
	OpName              Op = 5
	OpMemberName        Op = 6
	OpString            Op = 7
	OpExtension         Op = 10
	OpExtInstImport     Op = 11
	OpExtInst           Op = 12
	OpMemoryModel       Op = 14
	OpEntryPoint        Op = 15
	OpExecutionMode     Op = 16
	OpCapability        Op = 17
	OpTypeVoid          Op = 19
	OpTypeBool          Op = 20
	OpTypeInt           Op = 21
	OpTypeFloat         Op = 22
	OpTypeVector        Op = 23
	OpTypeMatrix        Op = 24
	OpTypeImage         Op = 25
	OpTypeSampler       Op = 26
	OpTypeSampledImage  Op = 27
	OpTypeArray         Op = 28
	OpTypeRuntimeArray  Op = 29
	OpTypeStruct        Op = 30
	OpTypePointer       Op = 32
	OpTypeFunction      Op = 33
	OpConstantTrue      Op = 41
	OpConstantFalse     Op = 42
	OpConstant          Op = 43
	OpConstantComposite Op = 44
	OpConstantNull      Op = 46
	OpFunction          Op = 54
	OpFunctionParameter Op = 55
	OpFunctionEnd       Op = 56
	OpFunctionCall      Op = 57
	OpVariable          Op = 59
	OpLoad              Op = 61
	OpStore             Op = 62
	OpAccessChain       Op = 65
	OpDecorate          Op = 71
	OpMemberDecorate    Op = 72
	OpVectorShuffle     Op = 79
	OpCompositeConstruct   Op = 80
	OpCompositeExtract     Op = 81
	OpVectorTimesScalar    Op = 142
	OpFNegate              Op = 127
	OpFAdd                 Op = 129
	OpFSub                 Op = 131
	OpFMul                 Op = 133
	OpFDiv                 Op = 136
	OpIAdd                 Op = 128
	OpISub                 Op = 130
	OpUMod                 Op = 137
	OpFOrdEqual            Op = 180
	OpFOrdNotEqual         Op = 182
	OpLogicalOr            Op = 166
	OpLogicalAnd           Op = 167
	OpSelect               Op = 169
	OpSelectionMerge       Op = 247
	OpLoopMerge            Op = 246
	OpLabel                Op = 248
	OpBranch               Op = 249
	OpBranchConditional    Op = 250
	OpReturn               Op = 253
	OpReturnValue          Op = 254
	OpSampledImage           Op = 86
	OpImageSampleImplicitLod Op = 87
	OpImageFetch             Op = 95
	OpEmitVertex           Op = 218
	OpEndPrimitive         Op = 219
)

// Capability identifies an optional SPIR-V feature.
type Capability uint32

const (
	CapabilityMatrix             Capability = 0
	CapabilityShader             Capability = 1
	CapabilityGeometry           Capability = 2
	CapabilityTessellation       Capability = 3
	CapabilitySampleRateShading  Capability = 35
	CapabilityImageQuery         Capability = 50
)

// ExecutionModel identifies the shader stage an entry point targets.
type ExecutionModel uint32

const (
	ExecutionModelVertex                 ExecutionModel = 0
	ExecutionModelTessellationControl    ExecutionModel = 1
	ExecutionModelTessellationEvaluation ExecutionModel = 2
	ExecutionModelGeometry               ExecutionModel = 3
	ExecutionModelFragment               ExecutionModel = 4
	ExecutionModelGLCompute              ExecutionModel = 5
)

// ExecutionMode further constrains an entry point's execution.
type ExecutionMode uint32

const (
	ExecutionModeInvocations         ExecutionMode = 0
	ExecutionModeSpacingEqual        ExecutionMode = 1
	ExecutionModeOriginUpperLeft     ExecutionMode = 7
	ExecutionModeTriangles           ExecutionMode = 22
	ExecutionModeOutputVertices      ExecutionMode = 26
	ExecutionModeOutputTriangleStrip ExecutionMode = 29
	ExecutionModeLocalSize           ExecutionMode = 17
)

// AddressingModel and MemoryModel select the module's overall memory scheme.
type AddressingModel uint32
type MemoryModel uint32

const (
	AddressingModelLogical AddressingModel = 0
)

const (
	MemoryModelGLSL450 MemoryModel = 1
)

// StorageClass identifies the address space a pointer type belongs to.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassFunction        StorageClass = 7
)

// Decoration annotates a result id with an additional property.
type Decoration uint32

const (
	DecorationFlat          Decoration = 14
	DecorationNoPerspective Decoration = 13
	DecorationCentroid      Decoration = 16
	DecorationSample        Decoration = 17
	DecorationBuiltIn       Decoration = 11
	DecorationLocation      Decoration = 30
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
)

// BuiltIn identifies a built-in variable.
type BuiltIn uint32

const (
	BuiltInPosition     BuiltIn = 0
	BuiltInVertexIndex  BuiltIn = 42
	BuiltInInstanceIndex BuiltIn = 43
	BuiltInInvocationID BuiltIn = 8
)

// Dim selects an OpTypeImage's dimensionality.
type Dim uint32

const (
	Dim1D     Dim = 0
	Dim2D     Dim = 1
	Dim3D     Dim = 2
	DimCube   Dim = 3
	DimBuffer Dim = 5
)

// ImageFormat constrains an OpTypeImage's texel layout. Unknown defers the
// format to the image's runtime binding, which is what every resource
// declared from a DCL_RESOURCE token needs since IL carries no compile-time
// texel format for sampled resources.
type ImageFormat uint32

const ImageFormatUnknown ImageFormat = 0

// FunctionControl is a hint bitmask on OpFunction.
type FunctionControl uint32

const FunctionControlNone FunctionControl = 0

// GLSL.std.450 extended-instruction-set opcode numbers used by the
// arithmetic/transcendental lowering table.
const (
	GLSLstd450Sin  uint32 = 13
	GLSLstd450Cos  uint32 = 14
	GLSLstd450Sqrt uint32 = 31
	GLSLstd450Exp2 uint32 = 29
	GLSLstd450Log2 uint32 = 30
	GLSLstd450FMin uint32 = 37
	GLSLstd450FMax uint32 = 40
	GLSLstd450FAbs uint32 = 4
	GLSLstd450Fract uint32 = 10
	GLSLstd450InverseSqrt uint32 = 32
)
