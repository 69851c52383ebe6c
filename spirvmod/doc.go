// Package spirvmod builds SPIR-V 1.x binary modules from a section-buffer
// model: one growable word-vector per section, assembled in the order the
// SPIR-V spec requires (capabilities, extensions, ext-inst imports, memory
// model, entry points, execution modes, debug names, decorations, types,
// variables, function bodies).
package spirvmod
