package spirvmod

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinishHeader(t *testing.T) {
	m := NewModule(Version1_5)
	m.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)
	id := m.AllocID()
	bin := m.Finish()
	require.GreaterOrEqual(t, len(bin), 20)
	require.Equal(t, uint32(MagicNumber), binary.LittleEndian.Uint32(bin[0:4]))
	require.Equal(t, uint32(1)<<16|5<<8, binary.LittleEndian.Uint32(bin[4:8]))
	require.Equal(t, id+1, binary.LittleEndian.Uint32(bin[12:16])) // id bound = nextID
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(bin[16:20])) // reserved
}

func TestTypeDeduplication(t *testing.T) {
	m := NewModule(Version1_5)
	f1 := m.AddTypeFloat(32)
	f2 := m.AddTypeFloat(32)
	require.Equal(t, f1, f2, "identical OpTypeFloat should be deduplicated")

	v1 := m.AddTypeVector(f1, 4)
	v2 := m.AddTypeVector(f1, 4)
	require.Equal(t, v1, v2)

	v3 := m.AddTypeVector(f1, 3)
	require.NotEqual(t, v1, v3, "distinct component counts must not be deduplicated")
}

func TestCapabilityDeduplication(t *testing.T) {
	m := NewModule(Version1_5)
	m.AddCapability(CapabilityShader)
	m.AddCapability(CapabilityShader)
	require.Len(t, m.sections[secCapabilities], 2, "duplicate capability must not be re-emitted")
}

func TestEntryPointEmptyInterfaceList(t *testing.T) {
	m := NewModule(Version1_5)
	voidTy := m.AddTypeVoid()
	fnTy := m.AddTypeFunction(voidTy)
	fnID := m.AddFunction(fnTy, voidTy, FunctionControlNone)
	m.AddLabel()
	m.AddReturn()
	m.AddFunctionEnd()
	m.AddEntryPoint(ExecutionModelVertex, fnID, "VShader", nil)

	require.NotEmpty(t, m.sections[secEntryPoints])
	header := m.sections[secEntryPoints][0]
	wordCount := header >> 16
	// header + execModel + funcID + "VShader\0" (2 words) = 5 words, no interfaces.
	require.Equal(t, uint32(5), wordCount)
}
