package spirvmod

import "encoding/binary"

// section names a growable word-vector in module, in SPIR-V's required
// assembly order.
type section int

const (
	secCapabilities section = iota
	secExtensions
	secExtInstImports
	secMemoryModel
	secEntryPoints
	secExecModes
	secDebugNames
	secDecorations
	secTypes
	secVariables
	secCode
	sectionCount
)

// instWords packs one instruction's word-count/opcode header followed by
// its operand words.
func instWords(op Op, operands ...uint32) []uint32 {
	words := make([]uint32, 0, len(operands)+1)
	wordCount := uint32(len(operands) + 1)
	words = append(words, (wordCount<<16)|uint32(op))
	words = append(words, operands...)
	return words
}

// Module accumulates a SPIR-V binary's sections and allocates ids. Matches
// spec.md's "SPIR-V section buffers as arrays of growable word-vectors"
// design note: no dynamic dispatch, just a fixed-size array indexed by
// section.
type Module struct {
	version Version
	sections [sectionCount][]uint32
	nextID   uint32
}

// NewModule creates an empty module targeting version.
func NewModule(version Version) *Module {
	return &Module{version: version, nextID: 1}
}

// InitShaderModule creates a module pre-wired for shader compilation: the
// GLSL.std.450 extended instruction set is imported (landing on id 1, per
// convention), the Shader capability is declared, and the addressing/
// memory model is set to Logical/GLSL450.
func InitShaderModule(version Version) (m *Module, glslExtSetID uint32) {
	m = NewModule(version)
	glslExtSetID = m.AddExtInstImport("GLSL.std.450")
	m.AddCapability(CapabilityShader)
	m.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)
	return m, glslExtSetID
}

// AllocID allocates a fresh result id.
func (m *Module) AllocID() uint32 {
	id := m.nextID
	m.nextID++
	return id
}

// FastForwardID bumps the id allocator so that subsequently allocated ids
// never collide with ids already present in foreign SPIR-V (e.g. a module
// being recompiled). Mirrors the passthrough recompiler's id-collision
// avoidance.
func (m *Module) FastForwardID(past uint32) {
	if past >= m.nextID {
		m.nextID = past + 1
	}
}

func (m *Module) emit(sec section, op Op, operands ...uint32) {
	m.sections[sec] = append(m.sections[sec], instWords(op, operands...)...)
}

// putType performs the linear content-based scan over the types section
// that spec.md's "type deduplication" design note calls for (matching on
// opcode and all non-result-id operand words), returning an existing
// matching instruction's id, or appending a new one with a freshly
// allocated result id. args holds the instruction's operand words other
// than the trailing result id.
func (m *Module) putType(op Op, args []uint32) uint32 {
	probe := append(append([]uint32{}, args...), 0)
	if id, ok := m.findTypeByArgsPrefix(op, args); ok {
		return id
	}
	id := m.AllocID()
	probe[len(args)] = id
	m.sections[secTypes] = append(m.sections[secTypes], instWords(op, probe...)...)
	return id
}

// findTypeByArgsPrefix scans for an instruction whose opcode and leading
// operand words (everything but the trailing result id) match args.
func (m *Module) findTypeByArgsPrefix(op Op, args []uint32) (uint32, bool) {
	words := m.sections[secTypes]
	i := 0
	for i < len(words) {
		header := words[i]
		wordCount := int(header >> 16)
		gotOp := Op(header & 0xFFFF)
		argc := wordCount - 1
		if gotOp == op && argc == len(args)+1 {
			match := true
			for j, want := range args {
				if words[i+1+j] != want {
					match = false
					break
				}
			}
			if match {
				return words[i+argc], true
			}
		}
		i += wordCount
	}
	return 0, false
}

// AddCapability declares cap, deduplicating on the capability's numeric
// value alone (stride-2 scan: header word, capability word).
func (m *Module) AddCapability(cap Capability) {
	words := m.sections[secCapabilities]
	for i := 0; i < len(words); i += 2 {
		if words[i+1] == uint32(cap) {
			return
		}
	}
	m.emit(secCapabilities, OpCapability, uint32(cap))
}

// AddExtInstImport imports an extended instruction set (e.g. "GLSL.std.450")
// and returns its result id.
func (m *Module) AddExtInstImport(name string) uint32 {
	id := m.AllocID()
	operands := append([]uint32{id}, packString(name)...)
	m.emit(secExtInstImports, OpExtInstImport, operands...)
	return id
}

// SetMemoryModel sets the module's single OpMemoryModel instruction.
func (m *Module) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	m.sections[secMemoryModel] = instWords(OpMemoryModel, uint32(addressing), uint32(memory))
}

// AddEntryPoint declares funcID as an entry point under execModel named
// name, interfacing with the given global variable ids.
func (m *Module) AddEntryPoint(execModel ExecutionModel, funcID uint32, name string, interfaces []uint32) {
	operands := []uint32{uint32(execModel), funcID}
	operands = append(operands, packString(name)...)
	operands = append(operands, interfaces...)
	m.emit(secEntryPoints, OpEntryPoint, operands...)
}

// AddExecutionMode attaches mode (with params) to entryPoint.
func (m *Module) AddExecutionMode(entryPoint uint32, mode ExecutionMode, params ...uint32) {
	operands := []uint32{entryPoint, uint32(mode)}
	operands = append(operands, params...)
	m.emit(secExecModes, OpExecutionMode, operands...)
}

// AddName attaches a debug name to id.
func (m *Module) AddName(id uint32, name string) {
	operands := append([]uint32{id}, packString(name)...)
	m.emit(secDebugNames, OpName, operands...)
}

// AddDecorate attaches decoration (with params) to id.
func (m *Module) AddDecorate(id uint32, decoration Decoration, params ...uint32) {
	operands := append([]uint32{id, uint32(decoration)}, params...)
	m.emit(secDecorations, OpDecorate, operands...)
}

// AddTypeVoid returns the (deduplicated) id of OpTypeVoid.
func (m *Module) AddTypeVoid() uint32 {
	return m.putType(OpTypeVoid, nil)
}

// AddTypeFloat returns the (deduplicated) id of OpTypeFloat of the given
// bit width.
func (m *Module) AddTypeFloat(width uint32) uint32 {
	return m.putType(OpTypeFloat, []uint32{width})
}

// AddTypeBool returns the (deduplicated) id of OpTypeBool.
func (m *Module) AddTypeBool() uint32 {
	return m.putType(OpTypeBool, nil)
}

// AddTypeInt returns the (deduplicated) id of OpTypeInt.
func (m *Module) AddTypeInt(width uint32, signed bool) uint32 {
	s := uint32(0)
	if signed {
		s = 1
	}
	return m.putType(OpTypeInt, []uint32{width, s})
}

// AddTypeVector returns the (deduplicated) id of a vector type.
func (m *Module) AddTypeVector(componentType, count uint32) uint32 {
	return m.putType(OpTypeVector, []uint32{componentType, count})
}

// AddTypeArray returns the (deduplicated) id of an array type.
func (m *Module) AddTypeArray(elementType, lengthConstID uint32) uint32 {
	return m.putType(OpTypeArray, []uint32{elementType, lengthConstID})
}

// AddTypePointer returns the (deduplicated) id of a pointer type.
func (m *Module) AddTypePointer(storageClass StorageClass, baseType uint32) uint32 {
	return m.putType(OpTypePointer, []uint32{uint32(storageClass), baseType})
}

// AddTypeFunction returns the (deduplicated) id of a function signature
// type.
func (m *Module) AddTypeFunction(returnType uint32, paramTypes ...uint32) uint32 {
	args := append([]uint32{returnType}, paramTypes...)
	return m.putType(OpTypeFunction, args)
}

// AddTypeImage returns the (deduplicated) id of an image type. sampled=1
// means the image is known to be used with a sampler (the only mode this
// package emits); format is almost always ImageFormatUnknown since IL
// resource declarations carry no compile-time texel format.
func (m *Module) AddTypeImage(sampledType uint32, dim Dim, depth, arrayed, ms, sampled uint32, format ImageFormat) uint32 {
	return m.putType(OpTypeImage, []uint32{sampledType, uint32(dim), depth, arrayed, ms, sampled, uint32(format)})
}

// AddTypeSampledImage returns the (deduplicated) id of a combined
// image+sampler type over imageType.
func (m *Module) AddTypeSampledImage(imageType uint32) uint32 {
	return m.putType(OpTypeSampledImage, []uint32{imageType})
}

// AddTypeSampler returns the (deduplicated) id of OpTypeSampler.
func (m *Module) AddTypeSampler() uint32 {
	return m.putType(OpTypeSampler, nil)
}

// AddSampledImage combines an image and sampler value into a sampled-image
// value via OpSampledImage and returns its result id.
func (m *Module) AddSampledImage(resultType, image, sampler uint32) uint32 {
	id := m.AllocID()
	m.emit(secCode, OpSampledImage, resultType, id, image, sampler)
	return id
}

// AddImageSampleImplicitLod emits OpImageSampleImplicitLod (no optional
// image operands) and returns its result id.
func (m *Module) AddImageSampleImplicitLod(resultType, sampledImage, coordinate uint32) uint32 {
	id := m.AllocID()
	m.emit(secCode, OpImageSampleImplicitLod, resultType, id, sampledImage, coordinate)
	return id
}

// AddImageFetch emits OpImageFetch (a non-sampler texel load against a
// plain image) and returns its result id.
func (m *Module) AddImageFetch(resultType, image, coordinate uint32) uint32 {
	id := m.AllocID()
	m.emit(secCode, OpImageFetch, resultType, id, image, coordinate)
	return id
}

// AddConstant returns the (deduplicated) id of a scalar constant with the
// given raw bit-pattern value(s).
func (m *Module) AddConstant(typeID uint32, values ...uint32) uint32 {
	args := append([]uint32{typeID}, values...)
	return m.putType(OpConstant, args)
}

// AddConstantComposite returns the (deduplicated) id of a composite
// constant built from constituents.
func (m *Module) AddConstantComposite(typeID uint32, constituents ...uint32) uint32 {
	args := append([]uint32{typeID}, constituents...)
	return m.putType(OpConstantComposite, args)
}

// AddVariable declares a global variable in the Variables section and
// returns its id. Function-local variables go through AddLocalVariable.
func (m *Module) AddVariable(pointerType uint32, storageClass StorageClass) uint32 {
	id := m.AllocID()
	m.sections[secVariables] = append(m.sections[secVariables], instWords(OpVariable, pointerType, id, uint32(storageClass))...)
	return id
}

// AddVariableWithInitializer is AddVariable plus a constant initializer id.
func (m *Module) AddVariableWithInitializer(pointerType uint32, storageClass StorageClass, initID uint32) uint32 {
	id := m.AllocID()
	m.sections[secVariables] = append(m.sections[secVariables], instWords(OpVariable, pointerType, id, uint32(storageClass), initID)...)
	return id
}

// AddFunction emits OpFunction into the code section and returns the
// function's result id.
func (m *Module) AddFunction(funcType, returnType uint32, control FunctionControl) uint32 {
	id := m.AllocID()
	m.emit(secCode, OpFunction, returnType, id, uint32(control), funcType)
	return id
}

// AddLabel emits OpLabel and returns the new block's id.
func (m *Module) AddLabel() uint32 {
	id := m.AllocID()
	m.emit(secCode, OpLabel, id)
	return id
}

// EmitLabel emits OpLabel for an id allocated earlier (e.g. a merge block
// id reserved at IF/WHILE time per the "control flow in the compiler"
// design note).
func (m *Module) EmitLabel(id uint32) {
	m.emit(secCode, OpLabel, id)
}

// AddBranch emits an unconditional OpBranch to target.
func (m *Module) AddBranch(target uint32) {
	m.emit(secCode, OpBranch, target)
}

// AddBranchConditional emits OpBranchConditional.
func (m *Module) AddBranchConditional(condition, trueLabel, falseLabel uint32) {
	m.emit(secCode, OpBranchConditional, condition, trueLabel, falseLabel)
}

// AddSelectionMerge emits OpSelectionMerge with no control flags.
func (m *Module) AddSelectionMerge(mergeLabel uint32) {
	m.emit(secCode, OpSelectionMerge, mergeLabel, 0)
}

// AddLoopMerge emits OpLoopMerge with no control flags.
func (m *Module) AddLoopMerge(mergeLabel, continueLabel uint32) {
	m.emit(secCode, OpLoopMerge, mergeLabel, continueLabel, 0)
}

// AddReturn emits OpReturn.
func (m *Module) AddReturn() { m.emit(secCode, OpReturn) }

// AddFunctionEnd emits OpFunctionEnd.
func (m *Module) AddFunctionEnd() { m.emit(secCode, OpFunctionEnd) }

// AddLocalVariable appends an OpVariable at the current end of the code
// section and returns its id. It is not moved to the start of the
// function's entry block.
func (m *Module) AddLocalVariable(pointerType uint32, storageClass StorageClass) uint32 {
	id := m.AllocID()
	m.emit(secCode, OpVariable, pointerType, id, uint32(storageClass))
	return id
}

// AddLoad emits OpLoad and returns the loaded value's id.
func (m *Module) AddLoad(resultType, pointer uint32) uint32 {
	id := m.AllocID()
	m.emit(secCode, OpLoad, resultType, id, pointer)
	return id
}

// AddStore emits OpStore.
func (m *Module) AddStore(pointer, value uint32) {
	m.emit(secCode, OpStore, pointer, value)
}

// AddAccessChain emits OpAccessChain and returns the resulting pointer id.
func (m *Module) AddAccessChain(resultType, base uint32, indices ...uint32) uint32 {
	id := m.AllocID()
	operands := append([]uint32{resultType, id, base}, indices...)
	m.emit(secCode, OpAccessChain, operands...)
	return id
}

// AddBinaryOp emits a two-operand arithmetic/logical/comparison
// instruction and returns its result id.
func (m *Module) AddBinaryOp(op Op, resultType, lhs, rhs uint32) uint32 {
	id := m.AllocID()
	m.emit(secCode, op, resultType, id, lhs, rhs)
	return id
}

// AddUnaryOp emits a single-operand instruction and returns its result id.
func (m *Module) AddUnaryOp(op Op, resultType, operand uint32) uint32 {
	id := m.AllocID()
	m.emit(secCode, op, resultType, id, operand)
	return id
}

// AddSelect emits OpSelect and returns its result id.
func (m *Module) AddSelect(resultType, condition, accept, reject uint32) uint32 {
	id := m.AllocID()
	m.emit(secCode, OpSelect, resultType, id, condition, accept, reject)
	return id
}

// AddCompositeExtract emits OpCompositeExtract and returns its result id.
func (m *Module) AddCompositeExtract(resultType, composite uint32, indices ...uint32) uint32 {
	id := m.AllocID()
	operands := append([]uint32{resultType, id, composite}, indices...)
	m.emit(secCode, OpCompositeExtract, operands...)
	return id
}

// AddCompositeConstruct emits OpCompositeConstruct and returns its result
// id.
func (m *Module) AddCompositeConstruct(resultType uint32, constituents ...uint32) uint32 {
	id := m.AllocID()
	operands := append([]uint32{resultType, id}, constituents...)
	m.emit(secCode, OpCompositeConstruct, operands...)
	return id
}

// AddGlslExtInst emits an OpExtInst call into the GLSL.std.450 extended
// instruction set and returns its result id.
func (m *Module) AddGlslExtInst(resultType, extSetID, instruction uint32, operands ...uint32) uint32 {
	id := m.AllocID()
	args := append([]uint32{resultType, id, extSetID, instruction}, operands...)
	m.emit(secCode, OpExtInst, args...)
	return id
}

// Section identifies one of a module's section buffers, exported so
// external packages (e.g. the passthrough recompiler) can copy raw
// instruction words from a donor module into the matching section of a
// freshly built one.
type Section int

const (
	SectionCapabilities   Section = Section(secCapabilities)
	SectionExtensions     Section = Section(secExtensions)
	SectionExtInstImports Section = Section(secExtInstImports)
	SectionMemoryModel    Section = Section(secMemoryModel)
	SectionEntryPoints    Section = Section(secEntryPoints)
	SectionExecModes      Section = Section(secExecModes)
	SectionDebugNames     Section = Section(secDebugNames)
	SectionDecorations    Section = Section(secDecorations)
	SectionTypes          Section = Section(secTypes)
	SectionVariables      Section = Section(secVariables)
	SectionCode           Section = Section(secCode)
)

// AppendRaw appends already-packed instruction words verbatim to sec,
// bypassing type/capability deduplication. Used when copying instructions
// from a donor module whose ids must be preserved exactly.
func (m *Module) AppendRaw(sec Section, words []uint32) {
	m.sections[section(sec)] = append(m.sections[section(sec)], words...)
}

// AddEmitVertex emits OpEmitVertex.
func (m *Module) AddEmitVertex() { m.emit(secCode, OpEmitVertex) }

// AddEndPrimitive emits OpEndPrimitive.
func (m *Module) AddEndPrimitive() { m.emit(secCode, OpEndPrimitive) }

// Finish assembles the module's sections into a SPIR-V binary.
func (m *Module) Finish() []byte {
	bound := m.nextID
	total := 5
	for _, s := range m.sections {
		total += len(s)
	}

	buf := make([]byte, total*4)
	off := 0
	put := func(w uint32) {
		binary.LittleEndian.PutUint32(buf[off:], w)
		off += 4
	}
	put(MagicNumber)
	put(m.version.word())
	put(GeneratorID)
	put(bound)
	put(0) // reserved

	for _, s := range m.sections {
		for _, w := range s {
			put(w)
		}
	}
	return buf
}

// packString packs s into little-endian 4-bytes-per-word SPIR-V literal
// words, null-terminated and zero-padded to a word boundary. A final word
// is always emitted even when the trailing partial word is all zero.
func packString(s string) []uint32 {
	b := []byte(s)
	b = append(b, 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words
}
