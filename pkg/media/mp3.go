package media

import (
	"fmt"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

type mp3Source struct {
	file    *os.File
	decoder *gomp3.Decoder
	buf     []byte
}

// OpenMP3 opens an MP3 file as a Source. go-mp3 always emits 16-bit
// little-endian stereo.
func OpenMP3(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder, err := gomp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}
	return &mp3Source{file: f, decoder: decoder}, nil
}

func (s *mp3Source) SampleRate() int { return s.decoder.SampleRate() }
func (s *mp3Source) Channels() int   { return 2 }
func (s *mp3Source) Close() error    { return s.file.Close() }

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	n, err := s.decoder.Read(s.buf[:need])
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}
	if samples == 0 && err != nil {
		return 0, err
	}
	return samples, nil
}
