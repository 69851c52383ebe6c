// Package compiler lowers a decoded source-IL Kernel to a SPIR-V module,
// gathering the side-band binding/input/output metadata the runtime needs
// to build pipeline layouts and descriptor sets.
package compiler

// DescriptorKind classifies a resource binding's SPIR-V representation.
type DescriptorKind int

const (
	DescriptorSampledImage DescriptorKind = iota
	DescriptorStorageImage
	DescriptorUniformTexelBuffer
	DescriptorStorageTexelBuffer
	DescriptorStorageBuffer
	DescriptorSampler
)

// Binding is one entry of a Shader's side-band resource-binding list.
type Binding struct {
	Index                  uint32
	Kind                    DescriptorKind
	StridePushConstantIndex int32 // -1 when absent
}

// Input is one entry of a Shader's side-band input-interface list.
type Input struct {
	Location          uint32
	InterpolationMode InterpolationMode
}

// Output is one entry of a Shader's side-band output-interface list.
type Output struct {
	Location uint32
}

// InterpolationMode is the IL_IMPORTUSAGE / interpolation-mode field
// carried on a DCL_INPUT instruction.
type InterpolationMode uint8

const (
	InterpConstant InterpolationMode = iota
	InterpLinear
	InterpLinearCentroid
	InterpLinearNoperspective
	InterpLinearNoperspectiveCentroid
	InterpLinearSample
	InterpLinearNoperspectiveSample
)

// Shader is the result of compiling a Kernel: finished SPIR-V code plus the
// side-band metadata the runtime needs.
type Shader struct {
	Code     []byte
	Bindings []Binding
	Inputs   []Input
	Outputs  []Output
	Name     string
}
