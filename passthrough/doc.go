// Package passthrough recompiles an existing SPIR-V shader module into one that also forwards a set of vertex locations straight through
// to matching outputs, for stages that need to pass vertex attributes
// untouched (e.g. a rectangle-list geometry stage's companion fragment
// shader). It walks the donor module section by section, copies every
// instruction apart from its entry point, and adds the missing
// input/output variable pairs.
package passthrough
