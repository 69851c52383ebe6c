package il

import (
	"errors"
	"fmt"
)

// ErrTruncatedStream is wrapped by Decode when an instruction claims more
// operand words than remain in the stream (§7.2, Fatal input).
var ErrTruncatedStream = errors.New("il: truncated token stream")

const opPrefix = Opcode(0xFFFF) // IL_OP_PREFIX: never collides with the opcode table in opcodes.go

// cursor walks a token slice, tracking how many words have been consumed.
type cursor struct {
	tokens []Token
	pos    int
}

func (c *cursor) remaining() int {
	return len(c.tokens) - c.pos
}

func (c *cursor) next() (Token, error) {
	if c.remaining() < 1 {
		return 0, fmt.Errorf("%w: expected a token at position %d", ErrTruncatedStream, c.pos)
	}
	t := c.tokens[c.pos]
	c.pos++
	return t, nil
}

// Decode parses tokens into a Kernel, per spec.md §4.3. sink receives
// recoverable diagnostics; pass il.DefaultSink() if none is available.
func Decode(tokens []Token, sink Sink) (*Kernel, error) {
	if sink == nil {
		sink = DefaultSink()
	}
	c := &cursor{tokens: tokens}

	langTok, err := c.next()
	if err != nil {
		return nil, fmt.Errorf("il: decode header: %w", err)
	}
	verTok, err := c.next()
	if err != nil {
		return nil, fmt.Errorf("il: decode header: %w", err)
	}

	kernel := &Kernel{
		ClientType:   uint8(GetBits(langTok, 0, 7)),
		MinorVersion: uint8(GetBits(verTok, 0, 7)),
		MajorVersion: uint8(GetBits(verTok, 8, 15)),
		ShaderType:   ShaderType(GetBits(verTok, 16, 23)),
		Multipass:    GetBit(verTok, 24) != 0,
		Realtime:     GetBit(verTok, 25) != 0,
	}

	for c.remaining() > 0 {
		instr, err := decodeInstruction(c, 0, sink)
		if err != nil {
			return nil, fmt.Errorf("il: decode instruction %d: %w", len(kernel.Instrs), err)
		}
		kernel.Instrs = append(kernel.Instrs, *instr)
	}

	return kernel, nil
}

// decodeInstruction decodes one instruction starting at c's current
// position, per the algorithm in spec.md §4.3. prefixControl is the control
// field of a preceding IL_OP_PREFIX instruction, or 0.
func decodeInstruction(c *cursor, prefixControl uint16, sink Sink) (*Instruction, error) {
	word0, err := c.next()
	if err != nil {
		return nil, err
	}
	opcode := Opcode(GetBits(word0, 0, 15))
	control := uint16(GetBits(word0, 16, 31))

	if opcode == opPrefix {
		nested, err := decodeInstruction(c, control, sink)
		if err != nil {
			return nil, err
		}
		return nested, nil
	}

	if int(opcode) >= int(opcodeCount) {
		sink.Warnf("il: invalid opcode %d", opcode)
		return &Instruction{Opcode: opcode, Control: control, Unknown: true, PreciseMask: uint8(GetBits(uint32(prefixControl), 0, 3))}, nil
	}
	info, ok := opcodeInfos[opcode]
	if !ok {
		sink.Warnf("il: unhandled opcode %d", opcode)
		return &Instruction{Opcode: opcode, Control: control, Unknown: true, PreciseMask: uint8(GetBits(uint32(prefixControl), 0, 3))}, nil
	}

	instr := &Instruction{
		Opcode:      opcode,
		Control:     control,
		PreciseMask: uint8(GetBits(uint32(prefixControl), 0, 3)),
	}

	if opcode != OpDclResource {
		if GetBit(uint32(control), controlBitPriModifier) != 0 {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			instr.HasPrimModifier = true
			instr.PrimModifier = w
		}
		if GetBit(uint32(control), controlBitSecModifier) != 0 {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			instr.HasSecModifier = true
			instr.SecModifier = w
		}
	}

	if hasIndexedResourceSampler(opcode) {
		if GetBit(uint32(control), controlBitResourceFormat) != 0 {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			instr.HasResourceFmt = true
			instr.ResourceFormat = w
		}
		if GetBit(uint32(control), controlBitAddressOffset) != 0 {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			instr.HasAddressOff = true
			instr.AddressOffset = w
		}
	}

	for i := uint32(0); i < info.DstCount; i++ {
		dst, err := decodeDestination(c, sink)
		if err != nil {
			return nil, err
		}
		instr.Dsts = append(instr.Dsts, *dst)
	}

	srcCount := getSourceCount(instr, info)
	for i := uint32(0); i < srcCount; i++ {
		src, err := decodeSource(c, sink)
		if err != nil {
			return nil, err
		}
		instr.Srcs = append(instr.Srcs, *src)
	}

	extraCount := getExtraCount(instr, info)
	for i := uint32(0); i < extraCount; i++ {
		w, err := c.next()
		if err != nil {
			return nil, err
		}
		instr.Extras = append(instr.Extras, w)
	}

	return instr, nil
}

// decodeDestination decodes one Destination per spec.md §3.1/§4.3.f.
func decodeDestination(c *cursor, sink Sink) (*Destination, error) {
	word0, err := c.next()
	if err != nil {
		return nil, err
	}

	dst := &Destination{
		RegisterNum:  GetBits(word0, 0, 15),
		RegisterType: RegisterType(GetBits(word0, 16, 21)),
	}
	modifierPresent := GetBit(word0, 22) != 0
	relAddr := RelativeAddress(GetBits(word0, 23, 24))
	dimension := GetBit(word0, 25) != 0
	hasImmediate := GetBit(word0, 26) != 0
	extended := GetBit(word0, 31) != 0

	if modifierPresent {
		modWord, err := c.next()
		if err != nil {
			return nil, err
		}
		dst.Component[0] = ModComponent(GetBits(modWord, 0, 1))
		dst.Component[1] = ModComponent(GetBits(modWord, 2, 3))
		dst.Component[2] = ModComponent(GetBits(modWord, 4, 5))
		dst.Component[3] = ModComponent(GetBits(modWord, 6, 7))
		dst.Clamp = GetBit(modWord, 8) != 0
		dst.ShiftScale = ShiftScale(GetBits(modWord, 9, 12))
	} else {
		for i := range dst.Component {
			dst.Component[i] = ModCompWrite
		}
		dst.ShiftScale = ShiftNone
	}

	switch relAddr {
	case AddrAbsolute:
		if dimension {
			sub, err := decodeSource(c, sink)
			if err != nil {
				return nil, err
			}
			dst.AbsoluteSrc = sub
		}
		if hasImmediate {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			dst.HasImmediate = true
			dst.Immediate = w
		}
	case AddrRelative:
		if hasImmediate {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			dst.HasImmediate = true
			dst.Immediate = w
		}
	case AddrRegRelative:
		relCount := 1
		if dimension {
			relCount = 2
		}
		first, err := decodeSource(c, sink)
		if err != nil {
			return nil, err
		}
		dst.RelativeSrcs = append(dst.RelativeSrcs, *first)
		if hasImmediate {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			dst.HasImmediate = true
			dst.Immediate = w
		}
		if relCount > 1 {
			second, err := decodeSource(c, sink)
			if err != nil {
				return nil, err
			}
			dst.RelativeSrcs = append(dst.RelativeSrcs, *second)
		}
	default:
		panic("il: invalid destination relative-address mode")
	}

	if extended {
		sink.Warnf("il: extended destination addressing discarded")
	}

	return dst, nil
}

// decodeSource decodes one Source per spec.md §3.1/§4.3.g.
func decodeSource(c *cursor, sink Sink) (*Source, error) {
	word0, err := c.next()
	if err != nil {
		return nil, err
	}

	src := &Source{
		RegisterNum:  GetBits(word0, 0, 15),
		RegisterType: RegisterType(GetBits(word0, 16, 21)),
	}
	modifierPresent := GetBit(word0, 22) != 0
	relAddr := RelativeAddress(GetBits(word0, 23, 24))
	dimension := GetBit(word0, 25) != 0
	hasImmediate := GetBit(word0, 26) != 0
	extended := GetBit(word0, 31) != 0

	if modifierPresent {
		modWord, err := c.next()
		if err != nil {
			return nil, err
		}
		src.Swizzle[0] = ComponentSelect(GetBits(modWord, 0, 2))
		src.Swizzle[1] = ComponentSelect(GetBits(modWord, 4, 6))
		src.Swizzle[2] = ComponentSelect(GetBits(modWord, 8, 10))
		src.Swizzle[3] = ComponentSelect(GetBits(modWord, 12, 14))
		src.Negate[0] = GetBit(modWord, 3) != 0
		src.Negate[1] = GetBit(modWord, 7) != 0
		src.Negate[2] = GetBit(modWord, 11) != 0
		src.Negate[3] = GetBit(modWord, 15) != 0
		src.Invert = GetBit(modWord, 16) != 0
		src.Bias = GetBit(modWord, 17) != 0
		src.X2 = GetBit(modWord, 18) != 0
		src.Sign = GetBit(modWord, 19) != 0
		src.Abs = GetBit(modWord, 20) != 0
		src.DivComp = DivComponent(GetBits(modWord, 21, 23))
		src.Clamp = GetBit(modWord, 24) != 0
	} else {
		src.Swizzle = [4]ComponentSelect{CompSelX, CompSelY, CompSelZ, CompSelW}
	}

	switch relAddr {
	case AddrAbsolute:
		if dimension {
			sub, err := decodeSource(c, sink)
			if err != nil {
				return nil, err
			}
			src.Srcs = append(src.Srcs, *sub)
		}
		if hasImmediate {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			src.HasImmediate = true
			src.Immediate = w
		}
	case AddrRelative:
		if hasImmediate {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			src.HasImmediate = true
			src.Immediate = w
		}
	case AddrRegRelative:
		relCount := 1
		if dimension {
			relCount = 2
		}
		first, err := decodeSource(c, sink)
		if err != nil {
			return nil, err
		}
		src.Srcs = append(src.Srcs, *first)
		if hasImmediate {
			w, err := c.next()
			if err != nil {
				return nil, err
			}
			src.HasImmediate = true
			src.Immediate = w
		}
		if relCount > 1 {
			second, err := decodeSource(c, sink)
			if err != nil {
				return nil, err
			}
			src.Srcs = append(src.Srcs, *second)
		}
	default:
		panic("il: invalid source relative-address mode")
	}

	if extended {
		sink.Warnf("il: extended source addressing discarded")
	}

	return src, nil
}
