// Package bindingpatch rewrites the descriptor-set/binding decorations of
// an already-compiled SPIR-V module in place, letting the runtime assign
// final binding slots after shader compilation without recompiling.
package bindingpatch
