package media

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

type vorbisSource struct {
	file    *os.File
	decoder *oggvorbis.Reader
}

// OpenVorbis opens an Ogg Vorbis file as a Source.
func OpenVorbis(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding ogg vorbis: %w", err)
	}
	return &vorbisSource{file: f, decoder: decoder}, nil
}

func (s *vorbisSource) SampleRate() int { return s.decoder.SampleRate() }
func (s *vorbisSource) Channels() int   { return s.decoder.Channels() }
func (s *vorbisSource) Close() error    { return s.file.Close() }

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	// The reader already yields interleaved float32.
	whole := len(dst) - len(dst)%s.decoder.Channels()
	n, err := s.decoder.Read(dst[:whole])
	if n == 0 && err != nil {
		return 0, err
	}
	return n, nil
}
