package il

// Token is a single 32-bit word of the source-IL stream.
type Token = uint32

// ShaderType identifies the shader stage recorded in the IlVersion header
// token.
type ShaderType uint8

const (
	ShaderVertex ShaderType = iota
	ShaderPixel
	ShaderGeometry
	ShaderCompute
	ShaderHull
	ShaderDomain
)

var shaderTypeNames = [...]string{"vs", "ps", "gs", "cs", "hs", "ds"}

// Name returns the stage mnemonic used in shader names (§6.3) and
// disassembly headers (§4.4).
func (s ShaderType) Name() string {
	if int(s) < len(shaderTypeNames) {
		return shaderTypeNames[s]
	}
	return "?"
}

// RelativeAddress is the 2-bit addressing-mode field shared by Destination
// and Source headers.
type RelativeAddress uint8

const (
	AddrAbsolute RelativeAddress = iota
	AddrRelative
	AddrRegRelative
)

// ModComponent is a per-lane write-mask value for a Destination.
type ModComponent uint8

const (
	ModCompNoWrite ModComponent = iota
	ModCompWrite
	ModCompZero
	ModCompOne
)

// ComponentSelect is a per-lane swizzle selector for a Source.
type ComponentSelect uint8

const (
	CompSelX ComponentSelect = iota
	CompSelY
	CompSelZ
	CompSelW
	CompSel0
	CompSel1
)

// ShiftScale is the destination shift-scale modifier.
type ShiftScale uint8

const (
	ShiftNone ShiftScale = iota
	ShiftX2
	ShiftX4
	ShiftX8
	ShiftD2
	ShiftD4
	ShiftD8
)

// DivComponent selects the lane used by a source's div-component modifier.
type DivComponent uint8

const (
	DivCompNone DivComponent = iota
	DivCompY
	DivCompZ
	DivCompW
)

// RegisterType identifies the register file a Destination/Source refers to.
type RegisterType uint8

const (
	RegTemp         RegisterType = 4
	RegITemp        RegisterType = 30
	RegConstBuffer  RegisterType = 31
	RegLiteral      RegisterType = 32
	RegInput        RegisterType = 33
	RegOutput       RegisterType = 34
)

// Destination is a single instruction operand written by an instruction.
//
// AbsoluteSrc, RelativeSrcs, and Immediate mirror the original decoder's
// register-indexed-addressing fields; at most one of AbsoluteSrc or
// RelativeSrcs is populated for a given Destination, per §3.1.
type Destination struct {
	RegisterNum  uint32
	RegisterType RegisterType
	Component    [4]ModComponent
	Clamp        bool
	ShiftScale   ShiftScale

	AbsoluteSrc  *Source
	RelativeSrcs []Source
	HasImmediate bool
	Immediate    uint32
}

// Source is a single instruction operand read by an instruction. A Source
// may itself own sub-sources when it addresses an indexed register
// (register-relative addressing), mirroring the Kernel tree's recursive
// ownership described in spec.md §3.2/§5.
type Source struct {
	RegisterNum  uint32
	RegisterType RegisterType
	Swizzle      [4]ComponentSelect
	Negate       [4]bool
	Invert       bool
	Bias         bool
	X2           bool
	Sign         bool
	Abs          bool
	DivComp      DivComponent
	Clamp        bool

	Srcs         []Source
	HasImmediate bool
	Immediate    uint32
}

// HasRelativeSrc reports whether the first sub-source should be read as a
// register-relative index, matching the disassembler's src->relativeSrc
// convenience accessor over the first element of Srcs.
func (s *Source) HasRelativeSrc() bool {
	return len(s.Srcs) > 0
}

// RelativeSrc returns the first sub-source, or nil.
func (s *Source) RelativeSrc() *Source {
	if len(s.Srcs) == 0 {
		return nil
	}
	return &s.Srcs[0]
}

// Instruction is a single decoded source-IL instruction.
type Instruction struct {
	Opcode  Opcode
	Control uint16

	PrimModifier    uint32
	HasPrimModifier bool
	SecModifier     uint32
	HasSecModifier  bool
	ResourceFormat  uint32
	HasResourceFmt  bool
	AddressOffset   uint32
	HasAddressOff   bool

	Dsts   []Destination
	Srcs   []Source
	Extras []Token

	// PreciseMask is carried forward from a preceding IL_OP_PREFIX
	// instruction's control bits [0..3]; zero when there was none.
	PreciseMask uint8

	// Unknown is set when the opcode fell outside the known table; such
	// instructions are recorded (per §3.2's invariant) but never executed.
	Unknown bool
}

// Kernel is the decoded representation of a source-IL program.
type Kernel struct {
	ClientType   uint8
	MajorVersion uint8
	MinorVersion uint8
	ShaderType   ShaderType
	Multipass    bool
	Realtime     bool

	Instrs []Instruction
}
