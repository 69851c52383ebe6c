// Package rectgs synthesizes the geometry-shader stage used to expand a
// rectangle draw (3 corner vertices forming two triangles of a quad) into
// its full 4-vertex triangle strip, by classifying incoming vertices and
// emitting an interpolated 4th vertex alongside the original 3.
package rectgs
