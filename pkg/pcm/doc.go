// Package pcm provides sample plumbing shared by the transfer layer and
// the user-facing facades: interleaved/planar transposition, sample
// format conversion between float32 and the integer wire formats, and
// sample rate conversion.
package pcm
