// Package media adapts external file decoders to one float32 source
// interface for feeding sessions. Decoding itself is delegated to the
// format libraries; this package only normalizes their sample layouts.
package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source is a decoded audio stream of interleaved float32 samples in
// [-1, 1].
type Source interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst and returns the number of samples written.
	// A finished stream returns 0 with io.EOF.
	ReadSamples(dst []float32) (int, error)
	Close() error
}

// UnsupportedFormatError reports a file extension no decoder claims.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("no decoder for %q (supported: .wav, .mp3, .ogg)", e.Path)
}

// Open selects a decoder by file extension.
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return OpenWAV(path)
	case ".mp3":
		return OpenMP3(path)
	case ".ogg", ".oga":
		return OpenVorbis(path)
	}
	return nil, &UnsupportedFormatError{Path: path}
}
