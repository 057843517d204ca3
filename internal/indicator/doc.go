// Package indicator drives the scanner's addressable LED strip.
//
// Callers deal in logical colors (White, Red, Green, Off). The Driver
// resolves them to pixel values and applies them uniformly across the
// strip. Signal timing belongs to the Strip implementation; this package
// only buffers pixel values and commits frames.
package indicator
