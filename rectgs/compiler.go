package rectgs

import (
	"github.com/libcg/grvk/compiler"
	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/spirvmod"
)

// CompileRectangleGeometryShader synthesizes the geometry-shader stage that
// expands a 3-vertex rectangle-list triangle into the quad's full 4-vertex
// triangle strip. passthroughInputs lists the vertex-shader outputs (besides
// clip-space position) that must be forwarded unchanged to each emitted
// vertex.
//
// Of the 3 incoming vertices, exactly one ("the shared vertex") shares its X
// coordinate with one of the other two and its Y coordinate with the
// remaining one; the other two are the rectangle's diagonal pair. The
// missing 4th corner is the diagonal pair's parallelogram completion:
// D = corner0 + corner1 - shared (diagonals of a parallelogram bisect each
// other). The same weighting is applied, component-wise, to every
// passthrough attribute.
func CompileRectangleGeometryShader(passthroughInputs []compiler.Input, sink il.Sink) (*compiler.Shader, error) {
	if sink == nil {
		sink = il.DefaultSink()
	}
	mod, glslExtID := spirvmod.InitShaderModule(spirvmod.Version1_3)
	mod.AddCapability(spirvmod.CapabilityGeometry)

	voidTy := mod.AddTypeVoid()
	floatTy := mod.AddTypeFloat(32)
	vec4Ty := mod.AddTypeVector(floatTy, 4)
	uintTy := mod.AddTypeInt(32, false)
	three := mod.AddConstant(uintTy, 3)
	arr3Vec4Ty := mod.AddTypeArray(vec4Ty, three)
	ptrInArr := mod.AddTypePointer(spirvmod.StorageClassInput, arr3Vec4Ty)
	ptrInVec4 := mod.AddTypePointer(spirvmod.StorageClassInput, vec4Ty)
	ptrOutVec4 := mod.AddTypePointer(spirvmod.StorageClassOutput, vec4Ty)
	fnTy := mod.AddTypeFunction(voidTy)
	boolTy := mod.AddTypeBool()

	posInVarID := mod.AddVariable(ptrInArr, spirvmod.StorageClassInput)
	mod.AddDecorate(posInVarID, spirvmod.DecorationBuiltIn, uint32(spirvmod.BuiltInPosition))
	posOutVarID := mod.AddVariable(ptrOutVec4, spirvmod.StorageClassOutput)
	mod.AddDecorate(posOutVarID, spirvmod.DecorationBuiltIn, uint32(spirvmod.BuiltInPosition))

	interfaces := []uint32{posInVarID, posOutVarID}

	type attr struct {
		inVarID, outVarID uint32
		location          uint32
	}
	attrs := make([]attr, 0, len(passthroughInputs))
	for _, in := range passthroughInputs {
		inVarID := mod.AddVariable(ptrInArr, spirvmod.StorageClassInput)
		mod.AddDecorate(inVarID, spirvmod.DecorationLocation, in.Location)
		outVarID := mod.AddVariable(ptrOutVec4, spirvmod.StorageClassOutput)
		mod.AddDecorate(outVarID, spirvmod.DecorationLocation, in.Location)
		interfaces = append(interfaces, inVarID, outVarID)
		attrs = append(attrs, attr{inVarID: inVarID, outVarID: outVarID, location: in.Location})
	}

	fnID := mod.AddFunction(fnTy, voidTy, spirvmod.FunctionControlNone)
	mod.AddName(fnID, "main")
	mod.AddLabel()

	loadVertex := func(arrVarID uint32, idx uint32) uint32 {
		idxConst := mod.AddConstant(uintTy, idx)
		ptr := mod.AddAccessChain(ptrInVec4, arrVarID, idxConst)
		return mod.AddLoad(vec4Ty, ptr)
	}

	v := [3]uint32{loadVertex(posInVarID, 0), loadVertex(posInVarID, 1), loadVertex(posInVarID, 2)}

	floatAt := func(vec uint32, lane uint32) uint32 { return mod.AddCompositeExtract(floatTy, vec, lane) }
	eq := func(a, b uint32) uint32 { return mod.AddBinaryOp(spirvmod.OpFOrdEqual, boolTy, a, b) }

	eqX01 := eq(floatAt(v[0], 0), floatAt(v[1], 0))
	eqX02 := eq(floatAt(v[0], 0), floatAt(v[2], 0))
	eqX12 := eq(floatAt(v[1], 0), floatAt(v[2], 0))
	eqY01 := eq(floatAt(v[0], 1), floatAt(v[1], 1))
	eqY02 := eq(floatAt(v[0], 1), floatAt(v[2], 1))
	eqY12 := eq(floatAt(v[1], 1), floatAt(v[2], 1))

	and := func(a, b uint32) uint32 { return mod.AddBinaryOp(spirvmod.OpLogicalAnd, boolTy, a, b) }
	or := func(a, b uint32) uint32 { return mod.AddBinaryOp(spirvmod.OpLogicalOr, boolTy, a, b) }

	// sharedVertex[i] is true when vertex i is axis-aligned with each of the
	// other two along a different axis: the rectangle's shared right-angle
	// corner.
	shared0 := or(and(eqX01, eqY02), and(eqX02, eqY01))
	shared1 := or(and(eqX01, eqY12), and(eqX12, eqY01))
	shared2 := or(and(eqX02, eqY12), and(eqX12, eqY02))

	one := mod.AddConstant(floatTy, 0x3F800000)
	negOne := mod.AddConstant(floatTy, 0xBF800000)
	weight := func(isShared uint32) uint32 { return mod.AddSelect(floatTy, isShared, negOne, one) }

	w0 := weight(shared0)
	w1 := weight(shared1)
	w2 := weight(shared2)

	// combine computes w0*a + w1*b + w2*c, the parallelogram-completion
	// formula applied to any per-vertex vec4 quantity (position or a
	// passthrough attribute).
	combine := func(a, b, c, w0, w1, w2 uint32) uint32 {
		wVec := func(w uint32) uint32 { return mod.AddCompositeConstruct(vec4Ty, w, w, w, w) }
		t0 := mod.AddBinaryOp(spirvmod.OpFMul, vec4Ty, a, wVec(w0))
		t1 := mod.AddBinaryOp(spirvmod.OpFMul, vec4Ty, b, wVec(w1))
		t2 := mod.AddBinaryOp(spirvmod.OpFMul, vec4Ty, c, wVec(w2))
		sum := mod.AddBinaryOp(spirvmod.OpFAdd, vec4Ty, t0, t1)
		return mod.AddBinaryOp(spirvmod.OpFAdd, vec4Ty, sum, t2)
	}

	dPos := combine(v[0], v[1], v[2], w0, w1, w2)

	emit := func(value uint32, outVarID uint32) {
		mod.AddStore(outVarID, value)
	}

	// Emit the 3 original vertices, then the completed 4th corner, each
	// followed by EmitVertex; close the strip with EndPrimitive.
	for i := 0; i < 3; i++ {
		emit(v[i], posOutVarID)
		for _, a := range attrs {
			val := loadVertex(a.inVarID, uint32(i))
			emit(val, a.outVarID)
		}
		mod.AddEmitVertex()
	}

	emit(dPos, posOutVarID)
	for _, a := range attrs {
		a0 := loadVertex(a.inVarID, 0)
		a1 := loadVertex(a.inVarID, 1)
		a2 := loadVertex(a.inVarID, 2)
		dAttr := combine(a0, a1, a2, w0, w1, w2)
		emit(dAttr, a.outVarID)
	}
	mod.AddEmitVertex()

	mod.AddEndPrimitive()
	mod.AddReturn()
	mod.AddFunctionEnd()

	mod.AddEntryPoint(spirvmod.ExecutionModelGeometry, fnID, "GShader", interfaces)
	mod.AddExecutionMode(fnID, spirvmod.ExecutionModeTriangles)
	mod.AddExecutionMode(fnID, spirvmod.ExecutionModeInvocations, 1)
	mod.AddExecutionMode(fnID, spirvmod.ExecutionModeOutputTriangleStrip)
	mod.AddExecutionMode(fnID, spirvmod.ExecutionModeOutputVertices, 4)

	_ = glslExtID

	outs := make([]compiler.Output, 0, len(attrs)+1)
	for _, a := range attrs {
		outs = append(outs, compiler.Output{Location: a.location})
	}

	return &compiler.Shader{
		Code:    mod.Finish(),
		Inputs:  passthroughInputs,
		Outputs: outs,
		Name:    "GShader",
	}, nil
}
