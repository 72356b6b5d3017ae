package synth

// FrameWriter accepts interleaved float32 frames, blocking until they
// are served. Both *duplex.Session and *duplex.Sink satisfy it.
type FrameWriter interface {
	WriteFrames(buf []float32) (int, error)
}

// Graph drives a root node into a frame writer, fanning the mono render
// block out to the writer's channel count.
type Graph struct {
	root        Node
	channels    int
	blockFrames int

	block []float32
	out   []float32
}

// NewGraph creates a graph rendering blockFrames frames at a time into
// a writer with the given channel count.
func NewGraph(root Node, channels, blockFrames int) *Graph {
	return &Graph{
		root:        root,
		channels:    channels,
		blockFrames: blockFrames,
		block:       make([]float32, blockFrames),
		out:         make([]float32, blockFrames*channels),
	}
}

// Step renders one block into w and reports whether the root is still
// active. A short write (for example against a closing session) ends
// the graph.
func (g *Graph) Step(w FrameWriter) (bool, error) {
	if !g.root.Render(g.block) {
		return false, nil
	}
	for i, s := range g.block {
		for c := 0; c < g.channels; c++ {
			g.out[i*g.channels+c] = s
		}
	}
	n, err := w.WriteFrames(g.out)
	if err != nil {
		return false, err
	}
	return n == g.blockFrames, nil
}

// Run steps the graph until the root goes inactive or the writer stops
// accepting frames.
func (g *Graph) Run(w FrameWriter) error {
	for {
		more, err := g.Step(w)
		if err != nil || !more {
			return err
		}
	}
}
