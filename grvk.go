// Package grvk ties the IL decoder, SPIR-V compiler, disassembler, and the
// passthrough/rectangle-geometry/binding-patch helper compilers together
// behind the small function surface a graphics runtime actually calls.
package grvk

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/libcg/grvk/bindingpatch"
	"github.com/libcg/grvk/compiler"
	"github.com/libcg/grvk/il"
	"github.com/libcg/grvk/passthrough"
	"github.com/libcg/grvk/rectgs"
)

// tokenize reinterprets a little-endian byte stream as IL tokens, per
// §4.3's "bytes are interpreted as a little-endian 32-bit token stream".
func tokenize(ilBytes []byte) []il.Token {
	tokens := make([]il.Token, len(ilBytes)/4)
	for i := range tokens {
		tokens[i] = binary.LittleEndian.Uint32(ilBytes[i*4:])
	}
	return tokens
}

// Shader is the result of a compilation entry point.
type Shader = compiler.Shader

// BindingPatch is one id's new descriptor-set/binding values, for
// PatchShaderBindings.
type BindingPatch = bindingpatch.Patch

const dumpEnvVar = "GRVK_DUMP_SHADERS"

// shaderName computes the §6.3 stable name: <stage-mnemonic>_<40-hex-sha1>
// over the raw IL bytes.
func shaderName(stage il.ShaderType, ilBytes []byte) string {
	sum := sha1.Sum(ilBytes)
	return fmt.Sprintf("%s_%s", stage.Name(), hex.EncodeToString(sum[:]))
}

// CompileShader decodes a raw little-endian IL token stream and lowers it
// to a finished SPIR-V Shader. Per §6.1, len(ilBytes) must be a multiple
// of 4.
func CompileShader(ilBytes []byte, sink il.Sink) (*Shader, error) {
	if sink == nil {
		sink = il.DefaultSink()
	}
	if len(ilBytes)%4 != 0 {
		return nil, fmt.Errorf("grvk: IL byte stream length %d is not a multiple of 4", len(ilBytes))
	}

	kernel, err := il.Decode(tokenize(ilBytes), sink)
	if err != nil {
		return nil, fmt.Errorf("grvk: decode: %w", err)
	}

	name := shaderName(kernel.ShaderType, ilBytes)
	shader, err := compiler.CompileKernel(kernel, name, sink)
	if err != nil {
		return nil, fmt.Errorf("grvk: compile: %w", err)
	}

	if os.Getenv(dumpEnvVar) == "1" {
		dumpShader(name, ilBytes, kernel, shader, sink)
	}

	return shader, nil
}

// DisassembleShader writes bytes' disassembly as text. Never errors on bad
// opcodes: unknown instructions are recorded as such (see il.Instruction's
// Unknown field) and rendered as a placeholder line.
func DisassembleShader(ilBytes []byte, sink il.Sink) (string, error) {
	if sink == nil {
		sink = il.DefaultSink()
	}
	kernel, err := il.Decode(tokenize(ilBytes), sink)
	if err != nil {
		return "", fmt.Errorf("grvk: decode: %w", err)
	}
	var buf bytes.Buffer
	if err := il.DumpKernel(&buf, kernel); err != nil {
		return "", fmt.Errorf("grvk: disassemble: %w", err)
	}
	return buf.String(), nil
}

// RecompileShader is the passthrough-extension path: see passthrough.RecompileShader.
func RecompileShader(spirvBytes []byte, passthroughLocations []uint32, sink il.Sink) ([]byte, error) {
	return passthrough.RecompileShader(spirvBytes, passthroughLocations, sink)
}

// CompileRectangleGeometryShader synthesizes the rectangle-list expansion
// geometry stage; see rectgs.CompileRectangleGeometryShader.
func CompileRectangleGeometryShader(passthroughInputs []compiler.Input, sink il.Sink) (*Shader, error) {
	return rectgs.CompileRectangleGeometryShader(passthroughInputs, sink)
}

// PatchShaderBindings rewrites descriptor-set/binding decorations in place;
// see bindingpatch.PatchBindings.
func PatchShaderBindings(spirvBytes []byte, patches map[uint32]BindingPatch) ([]byte, error) {
	return bindingpatch.PatchBindings(spirvBytes, patches)
}

// dumpShader writes the §6.2 diagnostic triple next to the working
// directory. Failures are reported to sink but never fail the compilation
// they're diagnosing.
func dumpShader(name string, ilBytes []byte, kernel *il.Kernel, shader *Shader, sink il.Sink) {
	writeOrWarn := func(suffix string, data []byte) {
		path := name + suffix
		if err := os.WriteFile(path, data, 0o644); err != nil {
			sink.Warnf("grvk: dump %s: %v", path, err)
		}
	}
	var buf bytes.Buffer
	if err := il.DumpKernel(&buf, kernel); err != nil {
		sink.Warnf("grvk: dump %s_il.txt: %v", name, err)
	}

	writeOrWarn("_il.bin", ilBytes)
	writeOrWarn("_il.txt", buf.Bytes())
	writeOrWarn("_spv.bin", shader.Code)
}
