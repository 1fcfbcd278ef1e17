package classify

// FakeEngine is a test double returning scripted results.
type FakeEngine struct {
	// Results contains scripted results. Each call to Infer consumes the
	// next; when exhausted, the last result is returned repeatedly with
	// an incrementing sequence.
	Results []Result

	// Inputs records a copy of every input passed to Infer.
	Inputs [][]int8

	// InitError, if set, will be returned by Init.
	InitError error

	// InferError, if set, will be returned by Infer.
	InferError error

	index       int
	sequence    uint32
	initialized bool
}

// NewFakeEngine creates a FakeEngine with the given scripted results.
func NewFakeEngine(results []Result) *FakeEngine {
	return &FakeEngine{Results: results}
}

// Init marks the engine as initialized.
func (f *FakeEngine) Init() error {
	if f.InitError != nil {
		return f.InitError
	}
	f.initialized = true
	return nil
}

// Infer records the input and returns the next scripted result.
func (f *FakeEngine) Infer(input []int8) (Result, error) {
	if !f.initialized {
		return Result{}, ErrNotInitialized
	}

	cp := make([]int8, len(input))
	copy(cp, input)
	f.Inputs = append(f.Inputs, cp)

	if f.InferError != nil {
		return Result{}, f.InferError
	}
	if len(f.Results) == 0 {
		f.sequence++
		return Result{Label: LabelIdle, Confidence: 1, Sequence: f.sequence}, nil
	}

	res := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	f.sequence++
	if res.Sequence == 0 {
		res.Sequence = f.sequence
	}
	return res, nil
}

// Reset clears recorded inputs and scripted position.
func (f *FakeEngine) Reset() {
	f.index = 0
	f.sequence = 0
	f.Inputs = nil
	f.initialized = false
	f.InitError = nil
	f.InferError = nil
}
