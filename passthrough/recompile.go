package passthrough

import (
	"encoding/binary"
	"fmt"

	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/spirvmod"
)

type rawInstr struct {
	op      spirvmod.Op
	operand []uint32 // everything after the header word
}

func parseModule(code []byte) (version spirvmod.Version, bound uint32, instrs []rawInstr, err error) {
	if len(code) < 20 || len(code)%4 != 0 {
		return version, 0, nil, fmt.Errorf("passthrough: truncated module (%d bytes)", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != spirvmod.MagicNumber {
		return version, 0, nil, fmt.Errorf("passthrough: bad magic number")
	}
	version = spirvmod.Version{Major: uint8(words[1] >> 16), Minor: uint8(words[1] >> 8)}
	bound = words[3]

	i := 5
	for i < len(words) {
		header := words[i]
		wordCount := int(header >> 16)
		op := spirvmod.Op(header & 0xFFFF)
		if wordCount == 0 || i+wordCount > len(words) {
			return version, 0, nil, fmt.Errorf("passthrough: malformed instruction at word %d", i)
		}
		instrs = append(instrs, rawInstr{op: op, operand: words[i+1 : i+wordCount]})
		i += wordCount
	}
	return version, bound, instrs, nil
}

func instrWords(in rawInstr) []uint32 {
	words := make([]uint32, 0, len(in.operand)+1)
	words = append(words, (uint32(len(in.operand)+1)<<16)|uint32(in.op))
	words = append(words, in.operand...)
	return words
}

// classify reports which section op belongs in, tracking whether the walk
// is currently inside the (single) donor function body.
func classify(op spirvmod.Op, inFunction *bool) spirvmod.Section {
	switch op {
	case spirvmod.OpCapability:
		return spirvmod.SectionCapabilities
	case spirvmod.OpExtension:
		return spirvmod.SectionExtensions
	case spirvmod.OpExtInstImport:
		return spirvmod.SectionExtInstImports
	case spirvmod.OpMemoryModel:
		return spirvmod.SectionMemoryModel
	case spirvmod.OpEntryPoint:
		return spirvmod.SectionEntryPoints
	case spirvmod.OpExecutionMode:
		return spirvmod.SectionExecModes
	case spirvmod.OpName, spirvmod.OpMemberName, spirvmod.OpString, spirvmod.OpSource:
		return spirvmod.SectionDebugNames
	case spirvmod.OpDecorate, spirvmod.OpMemberDecorate:
		return spirvmod.SectionDecorations
	case spirvmod.OpFunction:
		*inFunction = true
		return spirvmod.SectionCode
	case spirvmod.OpFunctionEnd:
		*inFunction = false
		return spirvmod.SectionCode
	case spirvmod.OpVariable:
		if *inFunction {
			return spirvmod.SectionCode
		}
		return spirvmod.SectionVariables
	case spirvmod.OpTypeVoid, spirvmod.OpTypeBool, spirvmod.OpTypeInt, spirvmod.OpTypeFloat,
		spirvmod.OpTypeVector, spirvmod.OpTypeMatrix, spirvmod.OpTypeImage, spirvmod.OpTypeSampler,
		spirvmod.OpTypeSampledImage, spirvmod.OpTypeArray, spirvmod.OpTypeRuntimeArray,
		spirvmod.OpTypeStruct, spirvmod.OpTypePointer, spirvmod.OpTypeFunction,
		spirvmod.OpConstantTrue, spirvmod.OpConstantFalse, spirvmod.OpConstant,
		spirvmod.OpConstantComposite, spirvmod.OpConstantNull:
		return spirvmod.SectionTypes
	default:
		return spirvmod.SectionCode
	}
}

// RecompileShader walks a previously compiled SPIR-V module and produces a
// variant that additionally forwards passthroughLocations straight from
// matching Input variables to newly declared Output variables, for
// locations the donor doesn't already declare as an input. Every
// instruction besides the entry point is copied verbatim; ids already used
// by the donor are never reallocated, per §4.7's id-collision-avoidance
// design note. The new passthrough load/store pairs are spliced into the
// copied function body just before each OpReturn.
func RecompileShader(spirvBytes []byte, passthroughLocations []uint32, sink il.Sink) ([]byte, error) {
	if sink == nil {
		sink = il.DefaultSink()
	}
	version, bound, instrs, err := parseModule(spirvBytes)
	if err != nil {
		return nil, err
	}

	// Pass 1: gather entry-point info and existing input locations without
	// copying anything yet.
	var entryModel, entryFunc uint32
	var entryName, entryInterfaces []uint32
	haveEntry := false
	inputVarIDs := map[uint32]bool{}
	existingInputLocation := map[uint32]uint32{}
	{
		inFn := false
		for _, in := range instrs {
			switch in.op {
			case spirvmod.OpEntryPoint:
				haveEntry = true
				entryModel = in.operand[0]
				entryFunc = in.operand[1]
				nameEnd := 2
				for nameEnd < len(in.operand) {
					w := in.operand[nameEnd]
					nameEnd++
					if w&0xFF == 0 || (w>>8)&0xFF == 0 || (w>>16)&0xFF == 0 || (w>>24)&0xFF == 0 {
						break
					}
				}
				entryName = append([]uint32{}, in.operand[2:nameEnd]...)
				entryInterfaces = append([]uint32{}, in.operand[nameEnd:]...)
			case spirvmod.OpVariable:
				if !inFn && len(in.operand) >= 3 && spirvmod.StorageClass(in.operand[2]) == spirvmod.StorageClassInput {
					inputVarIDs[in.operand[1]] = true
				}
			case spirvmod.OpDecorate:
				if len(in.operand) >= 3 && spirvmod.Decoration(in.operand[1]) == spirvmod.DecorationLocation {
					existingInputLocation[in.operand[0]] = in.operand[2]
				}
			}
			classify(in.op, &inFn)
		}
	}
	if !haveEntry {
		return nil, fmt.Errorf("passthrough: donor module has no entry point")
	}

	mod := spirvmod.NewModule(version)
	mod.FastForwardID(bound)

	// Copy the donor's types and constants first, so the AddType* calls
	// below find and reuse the donor's float/vec4/pointer types.
	{
		inFn := false
		for _, in := range instrs {
			if classify(in.op, &inFn) == spirvmod.SectionTypes {
				mod.AppendRaw(spirvmod.SectionTypes, instrWords(in))
			}
		}
	}

	floatTy := mod.AddTypeFloat(32)
	vec4Ty := mod.AddTypeVector(floatTy, 4)
	ptrIn := mod.AddTypePointer(spirvmod.StorageClassInput, vec4Ty)
	ptrOut := mod.AddTypePointer(spirvmod.StorageClassOutput, vec4Ty)

	present := map[uint32]bool{}
	for varID := range inputVarIDs {
		if loc, ok := existingInputLocation[varID]; ok {
			present[loc] = true
		}
	}

	type passthroughPair struct {
		inVarID, outVarID uint32
	}
	var added []passthroughPair
	for _, loc := range passthroughLocations {
		if present[loc] {
			continue
		}
		inVarID := mod.AddVariable(ptrIn, spirvmod.StorageClassInput)
		mod.AddDecorate(inVarID, spirvmod.DecorationLocation, loc)
		outVarID := mod.AddVariable(ptrOut, spirvmod.StorageClassOutput)
		mod.AddDecorate(outVarID, spirvmod.DecorationLocation, loc)
		added = append(added, passthroughPair{inVarID: inVarID, outVarID: outVarID})
		entryInterfaces = append(entryInterfaces, inVarID, outVarID)
	}

	// Pass 2: copy every instruction but the entry point, splicing the
	// passthrough load/store pairs in just before the function's OpReturn.
	{
		inFn := false
		for _, in := range instrs {
			if in.op == spirvmod.OpEntryPoint {
				continue
			}
			if in.op == spirvmod.OpReturn {
				for _, p := range added {
					val := mod.AddLoad(vec4Ty, p.inVarID)
					mod.AddStore(p.outVarID, val)
				}
			}
			sec := classify(in.op, &inFn)
			if sec == spirvmod.SectionTypes {
				continue // already copied above
			}
			mod.AppendRaw(sec, instrWords(in))
		}
	}

	if len(added) > 0 {
		sink.Warnf("passthrough: forwarded %d new location(s)", len(added))
	}

	entryOperands := append([]uint32{entryModel, entryFunc}, entryName...)
	entryOperands = append(entryOperands, entryInterfaces...)
	mod.AppendRaw(spirvmod.SectionEntryPoints, instrWords(rawInstr{op: spirvmod.OpEntryPoint, operand: entryOperands}))

	return mod.Finish(), nil
}
