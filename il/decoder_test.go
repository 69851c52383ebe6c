package il

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEmptyVertexShader(t *testing.T) {
	tokens := []Token{0x00000000, 0x00000100, 0x00000028, 0x0000002A}
	kernel, err := Decode(tokens, NopSink{})
	require.NoError(t, err)
	require.Equal(t, uint8(0), kernel.ClientType)
	require.Equal(t, uint8(1), kernel.MajorVersion)
	require.Equal(t, uint8(0), kernel.MinorVersion)
	require.Equal(t, ShaderVertex, kernel.ShaderType)
	require.False(t, kernel.Multipass)
	require.False(t, kernel.Realtime)
	require.Len(t, kernel.Instrs, 2)
	require.Equal(t, OpEndMain, kernel.Instrs[0].Opcode)
	require.Equal(t, OpEnd, kernel.Instrs[1].Opcode)
}

func TestDecodeTruncatedHeaderFails(t *testing.T) {
	_, err := Decode([]Token{0x00000000}, NopSink{})
	require.ErrorIs(t, err, ErrTruncatedStream)
}

func TestDecodeUnknownOpcodeRecordsPlaceholder(t *testing.T) {
	// opcode value past opcodeCount, no control bits set.
	tokens := []Token{0x00000000, 0x00010000, uint32(opcodeCount) + 1000}
	sink := &RecordingSink{}
	kernel, err := Decode(tokens, sink)
	require.NoError(t, err)
	require.Len(t, kernel.Instrs, 1)
	require.True(t, kernel.Instrs[0].Unknown)
	require.NotEmpty(t, sink.Warnings)
}

func TestDecodeDestinationDefaultsToAllWriteNoClampNoShift(t *testing.T) {
	// MOV r0, r1: word0 dst (regnum 0, type RegTemp, no modifier word), word0 src (regnum 1, type RegTemp, no modifier word).
	dstWord0 := uint32(0) | uint32(RegTemp)<<16
	srcWord0 := uint32(1) | uint32(RegTemp)<<16
	header := []Token{0x00000000, 0x00010000}
	body := []Token{uint32(OpMov), dstWord0, srcWord0}
	tokens := append(header, body...)

	kernel, err := Decode(tokens, NopSink{})
	require.NoError(t, err)
	require.Len(t, kernel.Instrs, 1)
	instr := kernel.Instrs[0]
	require.Equal(t, OpMov, instr.Opcode)
	require.Len(t, instr.Dsts, 1)
	require.Len(t, instr.Srcs, 1)
	for _, c := range instr.Dsts[0].Component {
		require.Equal(t, ModCompWrite, c)
	}
	require.False(t, instr.Dsts[0].Clamp)
	require.Equal(t, ShiftNone, instr.Dsts[0].ShiftScale)
	require.Equal(t, [4]ComponentSelect{CompSelX, CompSelY, CompSelZ, CompSelW}, instr.Srcs[0].Swizzle)
}

func TestDecodePrefixCarriesPreciseMask(t *testing.T) {
	prefixWord0 := uint32(opPrefix) | uint32(0x5)<<16 // control bits 0,2 set -> PreciseMask 0x5
	dstWord0 := uint32(0) | uint32(RegTemp)<<16
	srcWord0 := uint32(1) | uint32(RegTemp)<<16
	header := []Token{0x00000000, 0x00010000}
	body := []Token{prefixWord0, uint32(OpMov), dstWord0, srcWord0}
	tokens := append(header, body...)

	kernel, err := Decode(tokens, NopSink{})
	require.NoError(t, err)
	require.Len(t, kernel.Instrs, 1)
	require.Equal(t, uint8(0x5), kernel.Instrs[0].PreciseMask)
}

func TestDecodeSourceRelativeAddressingConsumesImmediateWord(t *testing.T) {
	// MOV r0, r1 where the source uses IL_ADDR_RELATIVE with hasImmediate set,
	// followed by a second, plain MOV. If the immediate word under
	// AddrRelative isn't consumed, the cursor desyncs and the second
	// instruction decodes garbage.
	dstWord0 := uint32(0) | uint32(RegTemp)<<16
	srcWord0 := uint32(1) | uint32(RegTemp)<<16 | uint32(AddrRelative)<<23 | uint32(1)<<26
	immediate := uint32(0x1234)

	dst2Word0 := uint32(2) | uint32(RegTemp)<<16
	src2Word0 := uint32(3) | uint32(RegTemp)<<16

	header := []Token{0x00000000, 0x00010000}
	body := []Token{
		uint32(OpMov), dstWord0, srcWord0, immediate,
		uint32(OpMov), dst2Word0, src2Word0,
	}
	tokens := append(header, body...)

	sink := &RecordingSink{}
	kernel, err := Decode(tokens, sink)
	require.NoError(t, err)
	require.Len(t, kernel.Instrs, 2)

	require.Equal(t, OpMov, kernel.Instrs[0].Opcode)
	src := kernel.Instrs[0].Srcs[0]
	require.True(t, src.HasImmediate)
	require.Equal(t, immediate, src.Immediate)

	require.Equal(t, OpMov, kernel.Instrs[1].Opcode)
	require.Equal(t, uint32(2), kernel.Instrs[1].Dsts[0].RegisterNum)
	require.Equal(t, uint32(3), kernel.Instrs[1].Srcs[0].RegisterNum)
}

func TestDecodeDestinationRelativeAddressingConsumesImmediateWord(t *testing.T) {
	// Same shape as above but for the destination operand's relative
	// addressing (decodeDestination's AddrRelative branch).
	dstWord0 := uint32(0) | uint32(RegTemp)<<16 | uint32(AddrRelative)<<23 | uint32(1)<<26
	srcWord0 := uint32(1) | uint32(RegTemp)<<16
	immediate := uint32(0x5678)

	dst2Word0 := uint32(2) | uint32(RegTemp)<<16
	src2Word0 := uint32(3) | uint32(RegTemp)<<16

	header := []Token{0x00000000, 0x00010000}
	body := []Token{
		uint32(OpMov), dstWord0, immediate, srcWord0,
		uint32(OpMov), dst2Word0, src2Word0,
	}
	tokens := append(header, body...)

	sink := &RecordingSink{}
	kernel, err := Decode(tokens, sink)
	require.NoError(t, err)
	require.Len(t, kernel.Instrs, 2)

	dst := kernel.Instrs[0].Dsts[0]
	require.True(t, dst.HasImmediate)
	require.Equal(t, immediate, dst.Immediate)

	require.Equal(t, OpMov, kernel.Instrs[1].Opcode)
	require.Equal(t, uint32(2), kernel.Instrs[1].Dsts[0].RegisterNum)
	require.Equal(t, uint32(3), kernel.Instrs[1].Srcs[0].RegisterNum)
}

func TestDecodeDclConstBufferNoPriModifierAddsOneSource(t *testing.T) {
	// DCL_CONST_BUFFER with no pri-modifier control bit: zero dsts, base 0 sources + 1 from the special case.
	word0 := uint32(OpDclConstBuffer)
	srcWord0 := uint32(0) | uint32(RegConstBuffer)<<16
	header := []Token{0x00000000, 0x00010000}
	body := []Token{word0, srcWord0}
	tokens := append(header, body...)

	kernel, err := Decode(tokens, NopSink{})
	require.NoError(t, err)
	require.Len(t, kernel.Instrs, 1)
	require.Empty(t, kernel.Instrs[0].Dsts)
	require.Len(t, kernel.Instrs[0].Srcs, 1)
	require.Equal(t, RegConstBuffer, kernel.Instrs[0].Srcs[0].RegisterType)
}
