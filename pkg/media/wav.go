package media

import (
	"errors"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type wavSource struct {
	file    *os.File
	decoder *wav.Decoder
	buf     *goaudio.IntBuffer
	scale   float32
}

// OpenWAV opens a PCM WAV file as a Source.
func OpenWAV(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, errors.New("not a valid wav file")
	}
	return &wavSource{
		file:    f,
		decoder: decoder,
		scale:   float32(int(1) << (decoder.BitDepth - 1)),
	}, nil
}

func (s *wavSource) SampleRate() int { return int(s.decoder.SampleRate) }
func (s *wavSource) Channels() int   { return int(s.decoder.NumChans) }
func (s *wavSource) Close() error    { return s.file.Close() }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if s.buf == nil || cap(s.buf.Data) < len(dst) {
		s.buf = &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: int(s.decoder.NumChans),
				SampleRate:  int(s.decoder.SampleRate),
			},
			Data:           make([]int, len(dst)),
			SourceBitDepth: int(s.decoder.BitDepth),
		}
	}
	// PCMBuffer fills exactly len(Data) slots, so bound it to this read.
	s.buf.Data = s.buf.Data[:len(dst)]
	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(s.buf.Data[i]) / s.scale
	}
	return n, nil
}
