// Package synth is a small block-rendered synthesis graph: oscillator,
// gain, mixer, and sample-player nodes that fill mono float32 blocks,
// typically driven into a duplex session's playback side.
package synth

import (
	"math"
	"sync/atomic"
)

// Node is one element of a render graph.
//
// Render fills block with the node's next samples and reports whether
// the node is still active. An inactive node's block content is
// unspecified and must not be used.
type Node interface {
	Render(block []float32) bool
}

// SinOsc is a free-running sine oscillator. It stays active until Off
// is called.
type SinOsc struct {
	freq       float64
	phase      float64
	sampleRate float64
	off        atomic.Bool
}

// NewSinOsc creates a sine oscillator at the given frequency.
func NewSinOsc(freq, sampleRate float64) *SinOsc {
	return &SinOsc{freq: freq, sampleRate: sampleRate}
}

// Off marks the oscillator finished; the next Render reports inactive.
// Safe to call from any goroutine.
func (o *SinOsc) Off() { o.off.Store(true) }

// SetFreq changes the oscillator frequency, phase-continuously.
func (o *SinOsc) SetFreq(freq float64) { o.freq = freq }

func (o *SinOsc) Render(block []float32) bool {
	if o.off.Load() {
		return false
	}
	step := 2 * math.Pi * o.freq / o.sampleRate
	for i := range block {
		block[i] = float32(math.Sin(o.phase))
		o.phase += step
		if o.phase > 2*math.Pi {
			o.phase -= 2 * math.Pi
		}
	}
	return true
}

// Gain scales the output of its input node.
type Gain struct {
	in     Node
	amount float32
}

// NewGain wraps in with a constant gain.
func NewGain(in Node, amount float32) *Gain {
	return &Gain{in: in, amount: amount}
}

func (g *Gain) Render(block []float32) bool {
	if !g.in.Render(block) {
		return false
	}
	for i := range block {
		block[i] *= g.amount
	}
	return true
}

// Mixer sums its inputs. Inputs that report inactive are dropped; the
// mixer itself goes inactive once no inputs remain.
type Mixer struct {
	inputs  []Node
	scratch []float32
}

// NewMixer creates a mixer over the given inputs.
func NewMixer(inputs ...Node) *Mixer {
	return &Mixer{inputs: inputs}
}

// Add appends another input to the mix.
func (m *Mixer) Add(n Node) { m.inputs = append(m.inputs, n) }

func (m *Mixer) Render(block []float32) bool {
	if len(m.inputs) == 0 {
		return false
	}
	if cap(m.scratch) < len(block) {
		m.scratch = make([]float32, len(block))
	}
	scratch := m.scratch[:len(block)]

	for i := range block {
		block[i] = 0
	}
	live := m.inputs[:0]
	for _, in := range m.inputs {
		if !in.Render(scratch) {
			continue
		}
		live = append(live, in)
		for i := range block {
			block[i] += scratch[i]
		}
	}
	m.inputs = live
	return len(live) > 0
}

// ArrayPlayer plays a fixed sample buffer once, padding its final block
// with silence, then goes inactive.
type ArrayPlayer struct {
	data []float32
	pos  int
}

// NewArrayPlayer creates a player over data. The slice is not copied.
func NewArrayPlayer(data []float32) *ArrayPlayer {
	return &ArrayPlayer{data: data}
}

func (p *ArrayPlayer) Render(block []float32) bool {
	if p.pos >= len(p.data) {
		return false
	}
	n := copy(block, p.data[p.pos:])
	p.pos += n
	for i := n; i < len(block); i++ {
		block[i] = 0
	}
	return true
}
