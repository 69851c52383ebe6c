package il

import (
	"fmt"
	"io"
	"strings"
)

var regTypeNames = map[RegisterType]string{
	RegTemp:        "r",
	RegITemp:       "x",
	RegConstBuffer: "cb",
	RegLiteral:     "l",
	RegInput:       "v",
	RegOutput:      "o",
}

func regTypeName(rt RegisterType) string {
	if n, ok := regTypeNames[rt]; ok {
		return n
	}
	return "?"
}

var modDstComponentNames = [...]string{"_", "?", "0", "1"}

func componentName(sel ModComponent) string {
	if int(sel) < len(modDstComponentNames) {
		return modDstComponentNames[sel]
	}
	return "?"
}

var componentSelectNames = [...]string{"x", "y", "z", "w", "0", "1"}

func compSelName(sel ComponentSelect) string {
	if int(sel) < len(componentSelectNames) {
		return componentSelectNames[sel]
	}
	return "?"
}

// shiftScaleNames implements the corrected 7-entry table: amdilc_dump.c's
// mIlShiftScaleNames has a missing-comma string-concatenation bug that
// collapses these into fewer entries (see SPEC_FULL.md §12.5).
var shiftScaleNames = [...]string{"", "_x2", "_x4", "_x8", "_d2", "_d4", "_d8"}

func shiftScaleName(s ShiftScale) string {
	if int(s) < len(shiftScaleNames) {
		return shiftScaleNames[s]
	}
	return ""
}

var divCompNames = [...]string{"", "y", "z", "w"}

func divCompName(d DivComponent) string {
	if int(d) < len(divCompNames) {
		return divCompNames[d]
	}
	return ""
}

var mnemonics = map[Opcode]string{
	OpAbs: "abs", OpAcos: "acos", OpAdd: "add", OpAsin: "asin", OpAtan: "atan",
	OpDiv: "div", OpDp2: "dp2", OpDp3: "dp3", OpDp4: "dp4", OpDsx: "dsx", OpDsy: "dsy",
	OpFrc: "frc", OpMad: "mad", OpMax: "max", OpMin: "min", OpMov: "mov", OpMul: "mul",
	OpRsqVec: "rsq_vec", OpSinVec: "sin_vec", OpCosVec: "cos_vec", OpSqrtVec: "sqrt_vec",
	OpExpVec: "exp_vec", OpLogVec: "log_vec", OpRcpVec: "rcp_vec",
	OpBreak: "break", OpBreakc: "breakc", OpContinue: "continue",
	OpBreakLogicalZ: "break_logicalz", OpBreakLogicalNZ: "break_logicalnz",
	OpContinueLogicalZ: "continue_logicalz", OpContinueLogicalNZ: "continue_logicalnz",
	OpCase: "case", OpDefault: "default", OpEndSwitch: "endswitch",
	OpIfLogicalZ: "if_logicalz", OpIfLogicalNZ: "if_logicalnz", OpWhile: "while", OpSwitch: "switch",
	OpRetDyn: "ret_dyn", OpElse: "else", OpEndMain: "endmain", OpEndIf: "endif",
	OpEnd: "end", OpEndLoop: "endloop",
	OpDiscardLogicalZ: "discard_logicalz", OpDiscardLogicalNZ: "discard_logicalnz",
	OpEndPhase: "endphase", OpHsForkPhase: "hs_fork_phase", OpHsJoinPhase: "hs_join_phase",
	OpAnd: "and", OpCmovLogical: "cmov_logical", OpEq: "eq", OpGe: "ge", OpLt: "lt", OpNe: "ne",
	OpRoundNear: "round_near", OpRoundNegInf: "round_neg_inf", OpRoundPlusInf: "round_plus_inf", OpRoundZero: "round_zero",
	OpDclArray: "dclarray", OpDclConstBuffer: "dcl_const_buffer", OpDclIndexedTempArray: "dcl_indexed_temp_array",
	OpDclLiteral: "dcl_literal", OpDclResource: "dcl_resource", OpDclNumThreadPerGroup: "dcl_num_thread_per_group",
	OpDclUAV: "dcl_uav", OpDclRawUAV: "dcl_raw_uav", OpDclRawSRV: "dcl_raw_srv", OpDclStructSRV: "dcl_struct_srv",
	OpDclLDS: "dcl_lds", OpDclStructLDS: "dcl_struct_lds", OpDclNumICP: "dcl_num_icp", OpDclNumOCP: "dcl_num_ocp",
	OpDclTsDomain: "dcl_ts_domain", OpDclTsPartition: "dcl_ts_partition", OpDclTsOutputPrimitive: "dcl_ts_output_primitive",
	OpDclMaxTessFactor: "dcl_max_tessfactor", OpDclGlobalFlags: "dcl_global_flags",
	OpDclTypedUAV: "dcl_typed_uav", OpDclTypelessUAV: "dcl_typeless_uav",
	OpLoad: "load", OpResInfo: "resinfo", OpSample: "sample", OpSampleB: "sample_b", OpSampleG: "sample_g",
	OpSampleL: "sample_l", OpSampleCLz: "sample_c_lz", OpFetch4: "fetch4", OpFetch4C: "fetch4_c",
	OpFetch4Po: "fetch4_po", OpFetch4PoC: "fetch4_po_c",
	OpINot: "i_not", OpIOr: "i_or", OpIXor: "i_xor", OpIAdd: "i_add", OpIMad: "i_mad", OpIMax: "i_max",
	OpIMin: "i_min", OpIMul: "i_mul", OpIEq: "i_eq", OpIGe: "i_ge", OpILt: "i_lt", OpINegate: "i_negate",
	OpINe: "i_ne", OpIShl: "i_shl", OpIShr: "i_shr", OpUShr: "u_shr", OpUDiv: "u_div", OpUMod: "u_mod",
	OpUMax: "u_max", OpUMin: "u_min", OpULt: "u_lt", OpUGe: "u_ge",
	OpFtoi: "ftoi", OpFtou: "ftou", OpItof: "itof", OpUtof: "utof", OpF2F16: "f_2_f16", OpF162F: "f16_2_f",
	OpFence: "fence", OpLdsLoadVec: "lds_load_vec", OpLdsStoreVec: "lds_store_vec", OpLdsReadAdd: "lds_read_add",
	OpUAVLoad: "uav_load", OpUAVStructLoad: "uav_struct_load", OpUAVStore: "uav_store", OpUAVRawStore: "uav_raw_store",
	OpUAVStructStore: "uav_struct_store", OpUAVAdd: "uav_add", OpUAVReadAdd: "uav_read_add",
	OpAppendBufAlloc: "append_buf_alloc", OpSrvStructLoad: "srv_struct_load",
	OpIFirstBit: "i_firstbit", OpIBitExtract: "i_bit_extract", OpUBitExtract: "u_bit_extract", OpUBitInsert: "u_bit_insert",
	OpDclOutput: "dcl_output", OpDclInput: "dcl_input",
	OpUnk660: "unk_660",
}

// DumpKernel writes kernel's human-readable disassembly to w, per spec.md
// §4.4. It never errors on bad opcodes (§4.4 "Failure semantics").
func DumpKernel(w io.Writer, kernel *Kernel) error {
	mp := ""
	if kernel.Multipass {
		mp = "_mp"
	}
	rt := ""
	if kernel.Realtime {
		rt = "_rt"
	}
	if _, err := fmt.Fprintf(w, "%s\nil_%s_%d_%d%s%s\n", clientTypeName(kernel.ClientType),
		kernel.ShaderType.Name(), kernel.MajorVersion, kernel.MinorVersion, mp, rt); err != nil {
		return err
	}

	indent := 0
	for i := range kernel.Instrs {
		dumpInstruction(w, &kernel.Instrs[i], &indent)
	}
	return nil
}

var clientTypeNames = [...]string{"unknown", "opengl", "dx9", "dx10", "dx11", "mantle"}

func clientTypeName(ct uint8) string {
	if int(ct) < len(clientTypeNames) {
		return clientTypeNames[ct]
	}
	return "unknown"
}

func dumpInstruction(w io.Writer, instr *Instruction, indent *int) {
	switch instr.Opcode {
	case OpElse, OpEndIf, OpEndLoop:
		*indent--
	}
	if *indent < 0 {
		*indent = 0
	}
	fmt.Fprint(w, strings.Repeat("    ", *indent))

	if instr.Unknown {
		fmt.Fprintf(w, "%d?\n", instr.Opcode)
		return
	}

	mnemonic, ok := mnemonics[instr.Opcode]
	if !ok {
		fmt.Fprintf(w, "%d?\n", instr.Opcode)
		return
	}

	switch instr.Opcode {
	case OpDp3, OpDp4, OpMad, OpMax, OpMin, OpMul, OpDp2:
		if GetBit(uint32(instr.Control), 0) != 0 {
			mnemonic += "_ieee"
		}
	case OpDsx, OpDsy:
		if GetBit(uint32(instr.Control), 7) != 0 {
			mnemonic += "_fine"
		}
	}

	fmt.Fprint(w, mnemonic)

	switch instr.Opcode {
	case OpElse, OpIfLogicalZ, OpIfLogicalNZ, OpWhile:
		*indent++
	}

	hasDst := len(instr.Dsts) > 0
	for i := range instr.Dsts {
		dumpDestination(w, &instr.Dsts[i]) // supplies its own leading space
	}
	for i := range instr.Srcs {
		switch {
		case i == 0 && !hasDst:
			fmt.Fprint(w, " ")
		default:
			fmt.Fprint(w, ", ")
		}
		dumpSource(w, &instr.Srcs[i])
	}

	if instr.Opcode == OpDclLiteral {
		for _, e := range instr.Extras {
			fmt.Fprintf(w, ", 0x%08X", e)
		}
	}
	if instr.Opcode == OpDclGlobalFlags {
		dumpGlobalFlags(w, instr.Control)
	}

	fmt.Fprint(w, "\n")
}

func dumpGlobalFlags(w io.Writer, control uint16) {
	names := []string{"refactoringAllowed", "forceEarlyDepthStencil", "enableRawStructuredBuffers", "enableDoublePrecisionFloatOps"}
	for i, n := range names {
		if GetBit(uint32(control), uint32(i)) != 0 {
			fmt.Fprintf(w, " %s", n)
		}
	}
}

func dumpDestination(w io.Writer, dst *Destination) {
	sat := ""
	if dst.Clamp {
		sat = "_sat"
	}
	fmt.Fprintf(w, "%s%s %s%d", shiftScaleName(dst.ShiftScale), sat, regTypeName(dst.RegisterType), dst.RegisterNum)

	allWrite := true
	for _, c := range dst.Component {
		if c != ModCompWrite {
			allWrite = false
		}
	}
	if !allWrite {
		fmt.Fprint(w, ".")
		for _, c := range dst.Component {
			fmt.Fprint(w, componentName(c))
		}
	}
}

func dumpSource(w io.Writer, src *Source) {
	fmt.Fprintf(w, "%s%d", regTypeName(src.RegisterType), src.RegisterNum)

	switch src.RegisterType {
	case RegITemp, RegConstBuffer:
		if src.HasImmediate || src.HasRelativeSrc() {
			fmt.Fprint(w, "[")
			if rel := src.RelativeSrc(); rel != nil {
				dumpSource(w, rel)
			}
			if src.HasImmediate && src.HasRelativeSrc() {
				fmt.Fprint(w, "+")
			}
			if src.HasImmediate {
				fmt.Fprintf(w, "%d", src.Immediate)
			}
			fmt.Fprint(w, "]")
		}
	}

	identity := src.Swizzle == [4]ComponentSelect{CompSelX, CompSelY, CompSelZ, CompSelW}
	if !identity {
		same := src.Swizzle[0] == src.Swizzle[1] && src.Swizzle[1] == src.Swizzle[2] && src.Swizzle[2] == src.Swizzle[3]
		fmt.Fprint(w, ".")
		if same {
			fmt.Fprint(w, compSelName(src.Swizzle[0]))
		} else {
			for _, s := range src.Swizzle {
				fmt.Fprint(w, compSelName(s))
			}
		}
	}

	anyNegate := src.Negate[0] || src.Negate[1] || src.Negate[2] || src.Negate[3]
	if anyNegate {
		fmt.Fprint(w, "_neg(")
		lanes := [4]string{"x", "y", "z", "w"}
		for i, n := range src.Negate {
			if n {
				fmt.Fprint(w, lanes[i])
			}
		}
		fmt.Fprint(w, ")")
	}

	if src.Invert {
		fmt.Fprint(w, "_invert")
	}
	switch {
	case src.Bias && !src.X2:
		fmt.Fprint(w, "_bias")
	case !src.Bias && src.X2:
		fmt.Fprint(w, "_x2")
	case src.Bias && src.X2:
		fmt.Fprint(w, "_bx2")
	}
	if src.Sign {
		fmt.Fprint(w, "_sign")
	}
	if name := divCompName(src.DivComp); name != "" {
		fmt.Fprintf(w, "_divComp(%s)", name)
	}
	if src.Abs {
		fmt.Fprint(w, "_abs")
	}
	if src.Clamp {
		fmt.Fprint(w, "_sat")
	}
}
