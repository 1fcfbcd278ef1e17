package classify

import (
	"errors"
	"testing"
)

func newTestEngine(t *testing.T, inputSize int) *SimEngine {
	t.Helper()
	e := NewSimEngine(SimConfig{InputSize: inputSize, LatencySet: true})
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return e
}

func TestInferBeforeInit(t *testing.T) {
	e := NewSimEngine(SimConfig{InputSize: 3, LatencySet: true})
	_, err := e.Infer(make([]int8, 3))
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Infer before Init = %v, want ErrNotInitialized", err)
	}
}

func TestInferRejectsBadInput(t *testing.T) {
	e := newTestEngine(t, 150)
	_, err := e.Infer(make([]int8, 149))
	if !errors.Is(err, ErrBadInput) {
		t.Errorf("Infer with short input = %v, want ErrBadInput", err)
	}
	_, err = e.Infer(make([]int8, 151))
	if !errors.Is(err, ErrBadInput) {
		t.Errorf("Infer with long input = %v, want ErrBadInput", err)
	}
}

func TestInferSchedule(t *testing.T) {
	e := newTestEngine(t, 3)
	in := make([]int8, 3)

	for i := 1; i <= 100; i++ {
		res, err := e.Infer(in)
		if err != nil {
			t.Fatalf("Infer %d: %v", i, err)
		}
		if res.Sequence != uint32(i) {
			t.Fatalf("Sequence = %d, want %d", res.Sequence, i)
		}

		want := LabelIdle
		wantConf := float32(0.95)
		switch i % 50 {
		case 25:
			want = LabelWave
			wantConf = 0.85
		case 35:
			want = LabelTap
			wantConf = 0.90
		}
		if res.Label != want {
			t.Errorf("inference %d: Label = %s, want %s", i, res.Label, want)
		}
		if res.Confidence != wantConf {
			t.Errorf("inference %d: Confidence = %v, want %v", i, res.Confidence, wantConf)
		}
	}
}

func TestInferScoresSumToOne(t *testing.T) {
	e := newTestEngine(t, 3)
	in := make([]int8, 3)

	for i := 0; i < 50; i++ {
		res, err := e.Infer(in)
		if err != nil {
			t.Fatal(err)
		}
		var sum float32
		for _, s := range res.Scores {
			sum += s
		}
		if sum < 0.99 || sum > 1.01 {
			t.Errorf("scores sum = %v, want ~1.0", sum)
		}
		if res.Scores[res.Label] != res.Confidence {
			t.Errorf("winning score %v != confidence %v", res.Scores[res.Label], res.Confidence)
		}
	}
}

func TestStatsTrackInferences(t *testing.T) {
	e := newTestEngine(t, 3)
	in := make([]int8, 3)

	for i := 0; i < 5; i++ {
		if _, err := e.Infer(in); err != nil {
			t.Fatal(err)
		}
	}
	st := e.Stats()
	if st.Count != 5 {
		t.Errorf("Count = %d, want 5", st.Count)
	}

	e.ResetStats()
	if st := e.Stats(); st.Count != 0 || st.MinUS != 0 {
		t.Errorf("after reset Stats = %+v, want zeroes", st)
	}
}

func TestLabelString(t *testing.T) {
	cases := []struct {
		label Label
		want  string
	}{
		{LabelIdle, "IDLE"},
		{LabelWave, "WAVE"},
		{LabelTap, "TAP"},
		{LabelCircle, "CIRCLE"},
		{Label(9), "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := tc.label.String(); got != tc.want {
			t.Errorf("Label(%d).String() = %q, want %q", tc.label, got, tc.want)
		}
	}
}
