package il

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpMovWithSwizzledSource(t *testing.T) {
	dstWord0 := uint32(0) | uint32(RegTemp)<<16
	srcWord0 := uint32(0) | uint32(RegInput)<<16 | 1<<22 // modifierPresent
	srcModWord := uint32(CompSelX) | uint32(CompSelX)<<4 | uint32(CompSelX)<<8 | uint32(CompSelX)<<12
	header := []Token{0x00000000, 0x00010000}
	body := []Token{uint32(OpMov), dstWord0, srcWord0, srcModWord}
	tokens := append(header, body...)

	kernel, err := Decode(tokens, NopSink{})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, DumpKernel(&sb, kernel))

	found := false
	for _, line := range strings.Split(sb.String(), "\n") {
		if line == "mov r0, v0.x" {
			found = true
		}
	}
	require.True(t, found, "expected a line reading exactly `mov r0, v0.x`, got:\n%s", sb.String())
}

func TestDumpHeaderLine(t *testing.T) {
	tokens := []Token{0x00000000, 0x00000100, uint32(OpEndMain), uint32(OpEnd)}
	kernel, err := Decode(tokens, NopSink{})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, DumpKernel(&sb, kernel))
	require.Contains(t, sb.String(), "il_vs_1_0\n")
}
