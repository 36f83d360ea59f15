// Package raster is the software multisample rasterizer behind replay.
//
// A Target keeps one RGBA8 plane per sample. DrawTriangles evaluates coverage
// at each sample's programmable location, so two samples placed at the same
// sub-pixel position always produce identical planes.
package raster
