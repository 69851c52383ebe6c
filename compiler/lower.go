package compiler

import (
	"math"

	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/spirvmod"
)

// binaryOpTable maps a fixed-arity arithmetic opcode to the SPIR-V
// instruction it lowers to, per §4.5.3.
var binaryOpTable = map[il.Opcode]spirvmod.Op{
	il.OpAdd: spirvmod.OpFAdd,
	il.OpMul: spirvmod.OpFMul,
	il.OpDiv: spirvmod.OpFDiv,
}

// glslUnaryTable maps a unary transcendental opcode to its GLSL.std.450
// extended-instruction number.
var glslUnaryTable = map[il.Opcode]uint32{
	il.OpSinVec:  spirvmod.GLSLstd450Sin,
	il.OpCosVec:  spirvmod.GLSLstd450Cos,
	il.OpSqrtVec: spirvmod.GLSLstd450Sqrt,
	il.OpExpVec:  spirvmod.GLSLstd450Exp2,
	il.OpLogVec:  spirvmod.GLSLstd450Log2,
	il.OpRsqVec:  spirvmod.GLSLstd450InverseSqrt,
	il.OpAbs:     spirvmod.GLSLstd450FAbs,
	il.OpFrc:     spirvmod.GLSLstd450Fract,
}

// lowerInstruction dispatches one decoded instruction to its SPIR-V
// lowering, per the §4.5 component design. Unknown/unimplemented opcodes
// warn and are skipped, per §4.5.6.
func (cs *compilerState) lowerInstruction(instr *il.Instruction, ctrl *controlStack) {
	if instr.Unknown {
		cs.sink.Warnf("compiler: skipping unknown opcode %d", instr.Opcode)
		return
	}

	switch instr.Opcode {
	case il.OpDclInput:
		cs.declareInput(instr)
		return
	case il.OpDclOutput:
		cs.declareOutput(instr)
		return
	case il.OpDclConstBuffer:
		cs.declareConstBuffer(instr)
		return
	case il.OpDclGlobalFlags:
		cs.declareGlobalFlags(instr)
		return
	case il.OpDclResource:
		cs.declareResource(instr)
		return
	case il.OpDclLiteral, il.OpDclArray, il.OpDclIndexedTempArray, il.OpDclNumThreadPerGroup:
		// Declarations with no SPIR-V-visible effect in this lowering;
		// recorded in the side-band metadata only where applicable.
		return
	case il.OpEndMain, il.OpEnd:
		return
	case il.OpRetDyn:
		return

	case il.OpIfLogicalZ, il.OpIfLogicalNZ:
		if len(instr.Srcs) == 0 {
			cs.sink.Warnf("compiler: %v with no source", instr.Opcode)
			return
		}
		cond := cs.readSourceScalar(&instr.Srcs[0])
		cs.beginIf(ctrl, cond, instr.Opcode == il.OpIfLogicalZ)
		return
	case il.OpElse:
		cs.doElse(ctrl)
		return
	case il.OpEndIf:
		cs.endIf(ctrl)
		return
	case il.OpWhile:
		cs.beginWhile(ctrl)
		return
	case il.OpEndLoop:
		cs.endLoop(ctrl)
		return
	case il.OpBreak:
		cs.doBreak(ctrl)
		return
	case il.OpContinue:
		cs.doContinue(ctrl)
		return
	}

	if len(instr.Dsts) == 0 {
		cs.sink.Warnf("compiler: opcode %d has no destination, skipping", instr.Opcode)
		return
	}

	if n := minSources(instr.Opcode); len(instr.Srcs) < n {
		cs.sink.Warnf("compiler: opcode %d needs %d source(s), got %d, skipping", instr.Opcode, n, len(instr.Srcs))
		return
	}

	var result uint32
	switch instr.Opcode {
	case il.OpMov:
		result = cs.readSource(&instr.Srcs[0])
	case il.OpMad:
		a := cs.readSource(&instr.Srcs[0])
		b := cs.readSource(&instr.Srcs[1])
		c := cs.readSource(&instr.Srcs[2])
		mul := cs.mod.AddBinaryOp(spirvmod.OpFMul, cs.vec4Ty, a, b)
		result = cs.mod.AddBinaryOp(spirvmod.OpFAdd, cs.vec4Ty, mul, c)
	case il.OpDp2, il.OpDp3, il.OpDp4:
		result = cs.lowerDotProduct(instr)
	case il.OpSample:
		result = cs.lowerSample(instr)
	case il.OpMin:
		a := cs.readSource(&instr.Srcs[0])
		b := cs.readSource(&instr.Srcs[1])
		result = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, spirvmod.GLSLstd450FMin, a, b)
	case il.OpMax:
		a := cs.readSource(&instr.Srcs[0])
		b := cs.readSource(&instr.Srcs[1])
		result = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, spirvmod.GLSLstd450FMax, a, b)
	default:
		if op, ok := binaryOpTable[instr.Opcode]; ok && len(instr.Srcs) >= 2 {
			a := cs.readSource(&instr.Srcs[0])
			b := cs.readSource(&instr.Srcs[1])
			result = cs.mod.AddBinaryOp(op, cs.vec4Ty, a, b)
		} else if glslOp, ok := glslUnaryTable[instr.Opcode]; ok && len(instr.Srcs) >= 1 {
			a := cs.readSource(&instr.Srcs[0])
			result = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, glslOp, a)
		} else {
			cs.sink.Warnf("compiler: no lowering for opcode %d, skipping", instr.Opcode)
			return
		}
	}

	cs.writeDestination(&instr.Dsts[0], result)
}

// minSources reports how many Srcs entries an opcode's lowering reads.
func minSources(op il.Opcode) int {
	switch op {
	case il.OpMad:
		return 3
	case il.OpDp2, il.OpDp3, il.OpDp4, il.OpMin, il.OpMax, il.OpAdd, il.OpMul, il.OpDiv:
		return 2
	default:
		return 1
	}
}

// lowerDotProduct handles DP2/DP3/DP4: multiply then reduce the relevant
// lane count via CompositeExtract+FAdd, broadcasting the scalar result
// back to a vec4 (all lanes equal), matching hardware DP* semantics.
func (cs *compilerState) lowerDotProduct(instr *il.Instruction) uint32 {
	a := cs.readSource(&instr.Srcs[0])
	b := cs.readSource(&instr.Srcs[1])
	mul := cs.mod.AddBinaryOp(spirvmod.OpFMul, cs.vec4Ty, a, b)

	lanes := 4
	switch instr.Opcode {
	case il.OpDp2:
		lanes = 2
	case il.OpDp3:
		lanes = 3
	}

	sum := cs.mod.AddCompositeExtract(cs.floatTy, mul, 0)
	for i := 1; i < lanes; i++ {
		lane := cs.mod.AddCompositeExtract(cs.floatTy, mul, uint32(i))
		sum = cs.mod.AddBinaryOp(spirvmod.OpFAdd, cs.floatTy, sum, lane)
	}
	return cs.mod.AddCompositeConstruct(cs.vec4Ty, sum, sum, sum, sum)
}

// lowerSample handles SAMPLE: resolves the resource/sampler ids carried in
// the control word (bits 0-7 and 8-11, per amdilc_dump.c's IL_OP_SAMPLE
// layout), combines the declared image and sampler via OpSampledImage, and
// samples at the xy lanes of the coordinate source.
func (cs *compilerState) lowerSample(instr *il.Instruction) uint32 {
	resourceID := il.GetBits(uint32(instr.Control), 0, 7)
	samplerID := il.GetBits(uint32(instr.Control), 8, 11)

	imageVar, ok := cs.resourceVars[resourceID]
	if !ok {
		cs.sink.Warnf("compiler: SAMPLE references undeclared resource %d", resourceID)
		return cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(0), cs.constFloat(0), cs.constFloat(0), cs.constFloat(0))
	}
	samplerVarID := cs.samplerVar(samplerID)

	coord := cs.readSource(&instr.Srcs[0])
	x := cs.mod.AddCompositeExtract(cs.floatTy, coord, 0)
	y := cs.mod.AddCompositeExtract(cs.floatTy, coord, 1)
	coordVec2 := cs.mod.AddCompositeConstruct(cs.vec2Type(), x, y)

	image := cs.mod.AddLoad(cs.imageType(), imageVar)
	sampler := cs.mod.AddLoad(cs.samplerType(), samplerVarID)
	combined := cs.mod.AddSampledImage(cs.sampledImageType(), image, sampler)
	return cs.mod.AddImageSampleImplicitLod(cs.vec4Ty, combined, coordVec2)
}

// readSourceScalar reads a source's x lane and compares it against zero,
// producing a bool-typed condition for IF_LOGICALZ/IF_LOGICALNZ.
func (cs *compilerState) readSourceScalar(src *il.Source) uint32 {
	vec := cs.readSource(src)
	lane := cs.mod.AddCompositeExtract(cs.floatTy, vec, 0)
	return cs.mod.AddBinaryOp(spirvmod.OpFOrdNotEqual, cs.boolTy(), lane, cs.constFloat(0))
}

func (cs *compilerState) boolTy() uint32 {
	if cs.boolTyID == 0 {
		cs.boolTyID = cs.mod.AddTypeBool()
	}
	return cs.boolTyID
}

// readSource loads a register's current value as a vec4, applying the
// swizzle step of the §4.5.3 source-modifier pipeline. The remaining
// pipeline steps (negate, invert/bias/x2/sign/abs, div-component,
// saturate) are applied when their corresponding modifier bit is set.
func (cs *compilerState) readSource(src *il.Source) uint32 {
	base := cs.readRegister(src.RegisterType, src.RegisterNum)

	identity := src.Swizzle == [4]il.ComponentSelect{il.CompSelX, il.CompSelY, il.CompSelZ, il.CompSelW}
	value := base
	if !identity {
		comps := make([]uint32, 4)
		for i, sel := range src.Swizzle {
			comps[i] = uint32(sel)
		}
		value = cs.mod.AddCompositeConstruct(cs.vec4Ty, cs.extractLane(value, comps[0]), cs.extractLane(value, comps[1]), cs.extractLane(value, comps[2]), cs.extractLane(value, comps[3]))
	}

	anyNegate := src.Negate[0] || src.Negate[1] || src.Negate[2] || src.Negate[3]
	allNegate := src.Negate[0] && src.Negate[1] && src.Negate[2] && src.Negate[3]
	if allNegate {
		value = cs.mod.AddUnaryOp(spirvmod.OpFNegate, cs.vec4Ty, value)
	} else if anyNegate {
		signs := make([]uint32, 4)
		for i, neg := range src.Negate {
			if neg {
				signs[i] = cs.constFloat(-1)
			} else {
				signs[i] = cs.constFloat(1)
			}
		}
		signVec := cs.mod.AddConstantComposite(cs.vec4Ty, signs[0], signs[1], signs[2], signs[3])
		value = cs.mod.AddBinaryOp(spirvmod.OpFMul, cs.vec4Ty, value, signVec)
	}

	if src.Invert {
		one := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(1), cs.constFloat(1), cs.constFloat(1), cs.constFloat(1))
		value = cs.mod.AddBinaryOp(spirvmod.OpFSub, cs.vec4Ty, one, value)
	}
	if src.Bias {
		half := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(0.5), cs.constFloat(0.5), cs.constFloat(0.5), cs.constFloat(0.5))
		value = cs.mod.AddBinaryOp(spirvmod.OpFSub, cs.vec4Ty, value, half)
	}
	if src.X2 {
		two := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(2), cs.constFloat(2), cs.constFloat(2), cs.constFloat(2))
		value = cs.mod.AddBinaryOp(spirvmod.OpFMul, cs.vec4Ty, value, two)
	}
	if src.Sign {
		two := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(2), cs.constFloat(2), cs.constFloat(2), cs.constFloat(2))
		one := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(1), cs.constFloat(1), cs.constFloat(1), cs.constFloat(1))
		value = cs.mod.AddBinaryOp(spirvmod.OpFMul, cs.vec4Ty, value, two)
		value = cs.mod.AddBinaryOp(spirvmod.OpFSub, cs.vec4Ty, value, one)
	}

	if src.Abs {
		value = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, spirvmod.GLSLstd450FAbs, value)
	}

	switch src.DivComp {
	case il.DivCompY:
		value = cs.divByLane(value, 1)
	case il.DivCompZ:
		value = cs.divByLane(value, 2)
	case il.DivCompW:
		value = cs.divByLane(value, 3)
	}

	if src.Clamp {
		zero := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(0), cs.constFloat(0), cs.constFloat(0), cs.constFloat(0))
		one := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(1), cs.constFloat(1), cs.constFloat(1), cs.constFloat(1))
		value = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, spirvmod.GLSLstd450FMax, value, zero)
		value = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, spirvmod.GLSLstd450FMin, value, one)
	}

	return value
}

// extractLane handles a swizzle component selector, including the
// constant-0/constant-1 selectors.
func (cs *compilerState) extractLane(vec uint32, sel uint32) uint32 {
	switch il.ComponentSelect(sel) {
	case il.CompSel0:
		return cs.constFloat(0)
	case il.CompSel1:
		return cs.constFloat(1)
	default:
		return cs.mod.AddCompositeExtract(cs.floatTy, vec, sel)
	}
}

func (cs *compilerState) constFloat(v float32) uint32 {
	return cs.mod.AddConstant(cs.floatTy, math.Float32bits(v))
}

// divByLane divides every component of value by its lane-th component, per
// the div-component source modifier.
func (cs *compilerState) divByLane(value uint32, lane uint32) uint32 {
	denom := cs.mod.AddCompositeExtract(cs.floatTy, value, lane)
	denomVec := cs.mod.AddCompositeConstruct(cs.vec4Ty, denom, denom, denom, denom)
	return cs.mod.AddBinaryOp(spirvmod.OpFDiv, cs.vec4Ty, value, denomVec)
}

// readRegister loads the current vec4 value of a register, allocating a
// function-local backing variable for temp registers on first use.
func (cs *compilerState) readRegister(regType il.RegisterType, regNum uint32) uint32 {
	key := registerKey{regType, regNum}
	switch regType {
	case il.RegInput:
		if varID, ok := cs.inputVars[key]; ok {
			return cs.mod.AddLoad(cs.vec4Ty, varID)
		}
	case il.RegTemp, il.RegITemp:
		varID := cs.tempVar(key)
		return cs.mod.AddLoad(cs.vec4Ty, varID)
	case il.RegLiteral:
		// Literal registers are materialized as zero constants; a full
		// implementation threads DCL_LITERAL's extra words through here.
		return cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(0), cs.constFloat(0), cs.constFloat(0), cs.constFloat(0))
	}
	cs.sink.Warnf("compiler: reading unbound register type %d num %d, using zero", regType, regNum)
	return cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(0), cs.constFloat(0), cs.constFloat(0), cs.constFloat(0))
}

// tempVar returns (allocating on first use) the function-local variable
// backing a temp register.
func (cs *compilerState) tempVar(key registerKey) uint32 {
	if varID, ok := cs.tempVars[key]; ok {
		return varID
	}
	ptrTy := cs.functionPtrVec4Type()
	varID := cs.mod.AddLocalVariable(ptrTy, spirvmod.StorageClassFunction)
	cs.tempVars[key] = varID
	return varID
}

func (cs *compilerState) functionPtrVec4Type() uint32 {
	return cs.mod.AddTypePointer(spirvmod.StorageClassFunction, cs.vec4Ty)
}

// writeDestination applies the destination-modifier pipeline (shift-scale,
// saturate, write-mask) and stores the result.
func (cs *compilerState) writeDestination(dst *il.Destination, value uint32) {
	switch dst.ShiftScale {
	case il.ShiftX2:
		value = cs.scaleVec4(value, 2)
	case il.ShiftX4:
		value = cs.scaleVec4(value, 4)
	case il.ShiftX8:
		value = cs.scaleVec4(value, 8)
	case il.ShiftD2:
		value = cs.scaleVec4(value, 0.5)
	case il.ShiftD4:
		value = cs.scaleVec4(value, 0.25)
	case il.ShiftD8:
		value = cs.scaleVec4(value, 0.125)
	}

	if dst.Clamp {
		zero := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(0), cs.constFloat(0), cs.constFloat(0), cs.constFloat(0))
		one := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(1), cs.constFloat(1), cs.constFloat(1), cs.constFloat(1))
		value = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, spirvmod.GLSLstd450FMax, value, zero)
		value = cs.mod.AddGlslExtInst(cs.vec4Ty, cs.glslExtID, spirvmod.GLSLstd450FMin, value, one)
	}

	key := registerKey{dst.RegisterType, dst.RegisterNum}
	switch dst.RegisterType {
	case il.RegOutput:
		if varID, ok := cs.outputVars[key]; ok {
			cs.storeMasked(varID, value, dst)
			return
		}
	case il.RegTemp, il.RegITemp:
		varID := cs.tempVar(key)
		cs.storeMasked(varID, value, dst)
		return
	}
	cs.sink.Warnf("compiler: writing unbound register type %d num %d, discarding", dst.RegisterType, dst.RegisterNum)
}

// storeMasked stores value into varID honoring dst's per-component
// write-mask: unwritten lanes keep the variable's prior value.
func (cs *compilerState) storeMasked(varID, value uint32, dst *il.Destination) {
	allWrite := true
	for _, c := range dst.Component {
		if c != il.ModCompWrite {
			allWrite = false
		}
	}
	if allWrite {
		cs.mod.AddStore(varID, value)
		return
	}

	prior := cs.mod.AddLoad(cs.vec4Ty, varID)
	lanes := make([]uint32, 4)
	for i, c := range dst.Component {
		switch c {
		case il.ModCompWrite:
			lanes[i] = cs.mod.AddCompositeExtract(cs.floatTy, value, uint32(i))
		case il.ModCompZero:
			lanes[i] = cs.constFloat(0)
		case il.ModCompOne:
			lanes[i] = cs.constFloat(1)
		default:
			lanes[i] = cs.mod.AddCompositeExtract(cs.floatTy, prior, uint32(i))
		}
	}
	merged := cs.mod.AddCompositeConstruct(cs.vec4Ty, lanes[0], lanes[1], lanes[2], lanes[3])
	cs.mod.AddStore(varID, merged)
}

func (cs *compilerState) scaleVec4(value uint32, factor float32) uint32 {
	scale := cs.mod.AddConstantComposite(cs.vec4Ty, cs.constFloat(factor), cs.constFloat(factor), cs.constFloat(factor), cs.constFloat(factor))
	return cs.mod.AddBinaryOp(spirvmod.OpFMul, cs.vec4Ty, value, scale)
}

