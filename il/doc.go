// Package il decodes AMD IL ("source IL") shader token streams into a typed
// Kernel, and renders a Kernel back to a human-readable disassembly.
//
// A source-IL program is a flat sequence of 32-bit tokens: a two-token
// header followed by a variable-length instruction stream. Decode turns
// that stream into an owned tree of Instruction/Destination/Source values;
// DumpKernel turns a Kernel back into text.
package il
