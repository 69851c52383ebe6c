package il

// Opcode identifies a source-IL instruction. Numeric values are assigned by
// this implementation; only IL_OP_ENDMAIN (0x28) and IL_OP_END (0x2A) are
// pinned to specific values, matching the worked example in the scenario
// tests (an empty vertex shader's token stream ends `..., ENDMAIN, END`).
type Opcode uint16

const (
	OpAbs Opcode = iota
	OpAcos
	OpAdd
	OpAsin
	OpAtan
	OpDiv
	OpDp3
	OpDp4
	OpDsx
	OpDsy
	OpFrc
	OpMad
	OpMax
	OpMin
	OpMov
	OpMul
	OpDp2
	OpRsqVec
	OpSinVec
	OpCosVec
	OpSqrtVec
	OpExpVec
	OpLogVec
	OpRcpVec

	OpBreak
	OpBreakc
	OpContinue
	OpBreakLogicalZ
	OpBreakLogicalNZ
	OpContinueLogicalZ
	OpContinueLogicalNZ
	OpCase
	OpDefault
	OpEndSwitch
	OpIfLogicalZ
	OpIfLogicalNZ
	OpWhile
	OpSwitch
	OpRetDyn
	OpElse

	OpEndMain // 0x28 == 40
	OpEndIf
	OpEnd // 0x2A == 42
	OpEndLoop
	OpDiscardLogicalZ
	OpDiscardLogicalNZ
	OpEndPhase
	OpHsForkPhase
	OpHsJoinPhase

	OpAnd
	OpCmovLogical
	OpEq
	OpGe
	OpLt
	OpNe
	OpRoundNear
	OpRoundNegInf
	OpRoundPlusInf
	OpRoundZero

	OpDclArray
	OpDclConstBuffer
	OpDclIndexedTempArray
	OpDclLiteral
	OpDclOutput
	OpDclInput
	OpDclResource
	OpDclNumThreadPerGroup
	OpDclUAV
	OpDclRawUAV
	OpDclRawSRV
	OpDclStructSRV
	OpDclLDS
	OpDclStructLDS
	OpDclNumICP
	OpDclNumOCP
	OpDclTsDomain
	OpDclTsPartition
	OpDclTsOutputPrimitive
	OpDclMaxTessFactor
	OpDclGlobalFlags
	OpDclTypedUAV
	OpDclTypelessUAV

	OpLoad
	OpResInfo
	OpSample
	OpSampleB
	OpSampleG
	OpSampleL
	OpSampleCLz
	OpFetch4
	OpFetch4C
	OpFetch4Po
	OpFetch4PoC

	OpINot
	OpIOr
	OpIXor
	OpIAdd
	OpIMad
	OpIMax
	OpIMin
	OpIMul
	OpIEq
	OpIGe
	OpILt
	OpINegate
	OpINe
	OpIShl
	OpIShr
	OpIFirstBit
	OpIBitExtract
	OpUBitExtract
	OpUBitInsert
	OpUShr
	OpUDiv
	OpUMod
	OpUMax
	OpUMin
	OpULt
	OpUGe

	OpFtoi
	OpFtou
	OpItof
	OpUtof
	OpF2F16
	OpF162F

	OpFence
	OpLdsLoadVec
	OpLdsStoreVec
	OpLdsReadAdd
	OpUAVLoad
	OpUAVStructLoad
	OpUAVStore
	OpUAVRawStore
	OpUAVStructStore
	OpUAVAdd
	OpUAVReadAdd
	OpAppendBufAlloc
	OpSrvStructLoad

	OpUnk660 // undocumented opcode, best-effort only per spec.md §9

	opcodeCount
)

// OpcodeInfo is the fixed per-opcode arity entry: the base destination,
// source, and extra-word counts before the §3.1 special-case rules run.
type OpcodeInfo struct {
	Opcode     Opcode
	DstCount   uint32
	SrcCount   uint32
	ExtraCount uint32
}

var opcodeInfos = map[Opcode]OpcodeInfo{
	OpAbs:  {OpAbs, 1, 1, 0},
	OpAcos: {OpAcos, 1, 1, 0},
	OpAdd:  {OpAdd, 1, 2, 0},
	OpAsin: {OpAsin, 1, 1, 0},
	OpAtan: {OpAtan, 1, 1, 0},

	OpBreak:   {OpBreak, 0, 0, 0},
	OpBreakc:  {OpBreakc, 0, 2, 0},
	OpContinue: {OpContinue, 0, 0, 0},
	OpDclArray: {OpDclArray, 0, 2, 0},
	OpDiv:      {OpDiv, 1, 2, 0},
	OpDp3:      {OpDp3, 1, 2, 0},
	OpDp4:      {OpDp4, 1, 2, 0},
	OpDsx:      {OpDsx, 1, 1, 0},
	OpDsy:      {OpDsy, 1, 1, 0},
	OpElse:     {OpElse, 0, 0, 0},
	OpEnd:      {OpEnd, 0, 0, 0},
	OpEndIf:    {OpEndIf, 0, 0, 0},
	OpEndLoop:  {OpEndLoop, 0, 0, 0},
	OpEndMain:  {OpEndMain, 0, 0, 0},
	OpFrc:      {OpFrc, 1, 1, 0},
	OpMad:      {OpMad, 1, 3, 0},
	OpMax:      {OpMax, 1, 2, 0},
	OpMin:      {OpMin, 1, 2, 0},
	OpMov:      {OpMov, 1, 1, 0},
	OpMul:      {OpMul, 1, 2, 0},

	OpBreakLogicalZ:      {OpBreakLogicalZ, 0, 1, 0},
	OpBreakLogicalNZ:     {OpBreakLogicalNZ, 0, 1, 0},
	OpCase:               {OpCase, 0, 0, 1},
	OpContinueLogicalZ:   {OpContinueLogicalZ, 0, 1, 0},
	OpContinueLogicalNZ:  {OpContinueLogicalNZ, 0, 1, 0},
	OpDefault:            {OpDefault, 0, 0, 0},
	OpEndSwitch:          {OpEndSwitch, 0, 0, 0},
	OpIfLogicalZ:         {OpIfLogicalZ, 0, 1, 0},
	OpIfLogicalNZ:        {OpIfLogicalNZ, 0, 1, 0},
	OpWhile:              {OpWhile, 0, 0, 0},
	OpSwitch:             {OpSwitch, 0, 1, 0},
	OpRetDyn:             {OpRetDyn, 0, 0, 0},
	OpDclConstBuffer:     {OpDclConstBuffer, 0, 0, 0},
	OpDclIndexedTempArray: {OpDclIndexedTempArray, 0, 1, 0},
	OpDclLiteral:         {OpDclLiteral, 0, 1, 4},
	OpDclOutput:          {OpDclOutput, 1, 0, 0},
	OpDclInput:           {OpDclInput, 1, 0, 0},
	OpDclResource:        {OpDclResource, 0, 0, 1},
	OpDiscardLogicalZ:    {OpDiscardLogicalZ, 0, 1, 0},
	OpDiscardLogicalNZ:   {OpDiscardLogicalNZ, 0, 1, 0},

	OpLoad:      {OpLoad, 1, 1, 0},
	OpResInfo:   {OpResInfo, 1, 1, 0},
	OpSample:    {OpSample, 1, 1, 0},
	OpSampleB:   {OpSampleB, 1, 2, 0},
	OpSampleG:   {OpSampleG, 1, 3, 0},
	OpSampleL:   {OpSampleL, 1, 2, 0},
	OpSampleCLz: {OpSampleCLz, 1, 2, 0},

	OpINot:    {OpINot, 1, 1, 0},
	OpIOr:     {OpIOr, 1, 2, 0},
	OpIXor:    {OpIXor, 1, 2, 0},
	OpIAdd:    {OpIAdd, 1, 2, 0},
	OpIMad:    {OpIMad, 1, 3, 0},
	OpIMax:    {OpIMax, 1, 2, 0},
	OpIMin:    {OpIMin, 1, 2, 0},
	OpIMul:    {OpIMul, 1, 2, 0},
	OpIEq:     {OpIEq, 1, 2, 0},
	OpIGe:     {OpIGe, 1, 2, 0},
	OpILt:     {OpILt, 1, 2, 0},
	OpINegate: {OpINegate, 1, 1, 0},
	OpINe:     {OpINe, 1, 2, 0},
	OpIShl:    {OpIShl, 1, 2, 0},
	OpIShr:    {OpIShr, 1, 2, 0},
	OpUShr:    {OpUShr, 1, 2, 0},
	OpUDiv:    {OpUDiv, 1, 2, 0},
	OpUMod:    {OpUMod, 1, 2, 0},
	OpUMax:    {OpUMax, 1, 2, 0},
	OpUMin:    {OpUMin, 1, 2, 0},
	OpULt:     {OpULt, 1, 2, 0},
	OpUGe:     {OpUGe, 1, 2, 0},

	OpFtoi: {OpFtoi, 1, 1, 0},
	OpFtou: {OpFtou, 1, 1, 0},
	OpItof: {OpItof, 1, 1, 0},
	OpUtof: {OpUtof, 1, 1, 0},

	OpAnd:          {OpAnd, 1, 2, 0},
	OpCmovLogical:  {OpCmovLogical, 1, 3, 0},
	OpEq:           {OpEq, 1, 2, 0},
	OpExpVec:       {OpExpVec, 1, 1, 0},
	OpGe:           {OpGe, 1, 2, 0},
	OpLogVec:       {OpLogVec, 1, 1, 0},
	OpLt:           {OpLt, 1, 2, 0},
	OpNe:           {OpNe, 1, 2, 0},
	OpRoundNear:    {OpRoundNear, 1, 1, 0},
	OpRoundNegInf:  {OpRoundNegInf, 1, 1, 0},
	OpRoundPlusInf: {OpRoundPlusInf, 1, 1, 0},
	OpRoundZero:    {OpRoundZero, 1, 1, 0},
	OpRsqVec:       {OpRsqVec, 1, 1, 0},
	OpSinVec:       {OpSinVec, 1, 1, 0},
	OpCosVec:       {OpCosVec, 1, 1, 0},
	OpSqrtVec:      {OpSqrtVec, 1, 1, 0},
	OpDp2:          {OpDp2, 1, 2, 0},
	OpFetch4:       {OpFetch4, 1, 1, 0},

	OpDclNumThreadPerGroup: {OpDclNumThreadPerGroup, 0, 0, 0},
	OpFence:                {OpFence, 0, 0, 0},
	OpLdsLoadVec:           {OpLdsLoadVec, 1, 2, 0},
	OpLdsStoreVec:          {OpLdsStoreVec, 1, 3, 0},
	OpDclUAV:               {OpDclUAV, 0, 0, 0},
	OpDclRawUAV:            {OpDclRawUAV, 0, 0, 0},
	OpUAVLoad:              {OpUAVLoad, 1, 1, 0},
	OpUAVStructLoad:        {OpUAVStructLoad, 1, 1, 0},
	OpUAVStore:             {OpUAVStore, 0, 2, 0},
	OpUAVRawStore:          {OpUAVRawStore, 1, 2, 0},
	OpUAVStructStore:       {OpUAVStructStore, 1, 2, 0},
	OpUAVAdd:               {OpUAVAdd, 0, 2, 0},
	OpUAVReadAdd:           {OpUAVReadAdd, 1, 2, 0},
	OpAppendBufAlloc:       {OpAppendBufAlloc, 1, 0, 0},
	OpDclRawSRV:            {OpDclRawSRV, 0, 0, 0},
	OpDclStructSRV:         {OpDclStructSRV, 0, 0, 1},
	OpSrvStructLoad:        {OpSrvStructLoad, 1, 1, 0},
	OpDclLDS:                {OpDclLDS, 0, 0, 1},
	OpDclStructLDS:          {OpDclStructLDS, 0, 0, 2},
	OpLdsReadAdd:            {OpLdsReadAdd, 1, 2, 0},
	OpIFirstBit:             {OpIFirstBit, 1, 1, 0},
	OpIBitExtract:           {OpIBitExtract, 1, 3, 0},
	OpUBitExtract:           {OpUBitExtract, 1, 3, 0},
	OpDclNumICP:             {OpDclNumICP, 0, 0, 1},
	OpDclNumOCP:             {OpDclNumOCP, 0, 0, 1},
	OpHsForkPhase:           {OpHsForkPhase, 0, 0, 0},
	OpHsJoinPhase:           {OpHsJoinPhase, 0, 0, 0},
	OpEndPhase:              {OpEndPhase, 0, 0, 0},
	OpDclTsDomain:           {OpDclTsDomain, 0, 0, 0},
	OpDclTsPartition:        {OpDclTsPartition, 0, 0, 0},
	OpDclTsOutputPrimitive:  {OpDclTsOutputPrimitive, 0, 0, 0},
	OpDclMaxTessFactor:      {OpDclMaxTessFactor, 0, 0, 1},
	OpUBitInsert:            {OpUBitInsert, 1, 4, 0},
	OpFetch4C:               {OpFetch4C, 1, 2, 0},
	OpFetch4Po:              {OpFetch4Po, 1, 2, 0},
	OpFetch4PoC:             {OpFetch4PoC, 1, 3, 0},
	OpF2F16:                 {OpF2F16, 1, 1, 0},
	OpF162F:                 {OpF162F, 1, 1, 0},
	OpDclGlobalFlags:        {OpDclGlobalFlags, 0, 0, 0},
	OpRcpVec:                {OpRcpVec, 1, 1, 0},
	OpDclTypedUAV:           {OpDclTypedUAV, 0, 0, 1},
	OpDclTypelessUAV:        {OpDclTypelessUAV, 0, 0, 2},
	OpUnk660:                {OpUnk660, 1, 0, 0},
}

// hasIndexedResourceSampler reports whether opcode belongs to the
// sample/load/fetch family that (per §3.1) appends two extra sources
// (resource-index, sampler-index) when the indexed-args control bit is set.
func hasIndexedResourceSampler(op Opcode) bool {
	switch op {
	case OpLoad, OpSample, OpSampleB, OpSampleG, OpSampleL, OpSampleCLz,
		OpFetch4, OpFetch4C, OpFetch4Po, OpFetch4PoC:
		return true
	default:
		return false
	}
}

const (
	controlBitIndexedArgs    = 12
	controlBitResourceFormat = 12
	controlBitAddressOffset  = 13
	controlBitSecModifier    = 14
	controlBitPriModifier    = 15
)

// getSourceCount computes the number of source operands for instr, applying
// the §3.1 special-case rules on top of the opcode table's base count.
func getSourceCount(instr *Instruction, info OpcodeInfo) uint32 {
	count := info.SrcCount

	if hasIndexedResourceSampler(instr.Opcode) && GetBit(uint32(instr.Control), controlBitIndexedArgs) != 0 {
		count += 2
	}
	if instr.Opcode == OpSrvStructLoad && GetBit(uint32(instr.Control), controlBitIndexedArgs) != 0 {
		count++
	}
	if instr.Opcode == OpDclConstBuffer && GetBit(uint32(instr.Control), controlBitPriModifier) == 0 {
		count++
	}
	return count
}

// getExtraCount computes the number of raw extra words for instr, applying
// the §3.1 special-case rules on top of the opcode table's base count.
func getExtraCount(instr *Instruction, info OpcodeInfo) uint32 {
	count := info.ExtraCount

	if instr.Opcode == OpDclConstBuffer && GetBit(uint32(instr.Control), controlBitPriModifier) != 0 {
		count += instr.PrimModifier
	}
	if instr.Opcode == OpDclNumThreadPerGroup {
		count += GetBits(uint32(instr.Control), 0, 13)
	}
	return count
}
