package graph

import (
	"errors"
	"testing"
)

func TestValidate_OK(t *testing.T) {
	in := []Task{
		{ID: "a", Duration: 2, Successors: []Edge{{TaskID: "b", Type: FinishToStart}}},
		{ID: "b", Duration: 0, Predecessors: []Edge{{TaskID: "a", Type: FinishToStart}}},
	}
	if err := Validate(in); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidate_MirrorTypeSpellings(t *testing.T) {
	tests := []struct {
		name       string
		succ, pred RelationType
	}{
		{"empty and FS", "", FinishToStart},
		{"lower and upper", "fs", FinishToStart},
		{"mixed case SS", "Ss", "sS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []Task{
				{ID: "a", Successors: []Edge{{TaskID: "b", Type: tt.succ, Lag: 1}}},
				{ID: "b", Predecessors: []Edge{{TaskID: "a", Type: tt.pred, Lag: 1}}},
			}
			if err := Validate(in); err != nil {
				t.Errorf("expected valid, got %v", err)
			}
		})
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name string
		in   []Task
		want error
	}{
		{
			name: "dangling predecessor",
			in:   []Task{{ID: "a", Predecessors: []Edge{{TaskID: "ghost", Type: FinishToStart}}}},
			want: ErrDanglingReference,
		},
		{
			name: "missing mirror",
			in: []Task{
				{ID: "a"},
				{ID: "b", Predecessors: []Edge{{TaskID: "a", Type: FinishToStart}}},
			},
			want: ErrInconsistentEdges,
		},
		{
			name: "lag mismatch",
			in: []Task{
				{ID: "a", Successors: []Edge{{TaskID: "b", Type: FinishToStart, Lag: 1}}},
				{ID: "b", Predecessors: []Edge{{TaskID: "a", Type: FinishToStart, Lag: 2}}},
			},
			want: ErrInconsistentEdges,
		},
		{
			name: "negative duration",
			in:   []Task{{ID: "a", Duration: -1}},
			want: ErrNegativeDuration,
		},
		{
			name: "unknown relation",
			in: []Task{
				{ID: "a", Successors: []Edge{{TaskID: "b", Type: "XX"}}},
				{ID: "b", Predecessors: []Edge{{TaskID: "a", Type: "XX"}}},
			},
			want: ErrInvalidRelation,
		},
		{
			name: "duplicate",
			in:   []Task{{ID: "a"}, {ID: "a"}},
			want: ErrDuplicateTask,
		},
		{
			name: "missing id",
			in:   []Task{{Name: "nameless"}},
			want: ErrMissingID,
		},
		{
			name: "cycle",
			in: []Task{
				{ID: "a", Predecessors: []Edge{{TaskID: "b", Type: FinishToStart}}, Successors: []Edge{{TaskID: "b", Type: FinishToStart}}},
				{ID: "b", Predecessors: []Edge{{TaskID: "a", Type: FinishToStart}}, Successors: []Edge{{TaskID: "a", Type: FinishToStart}}},
			},
			want: ErrCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	in := []Task{
		{ID: "a", Duration: -3, Predecessors: []Edge{{TaskID: "ghost", Type: FinishToStart}}},
		{ID: "b", Predecessors: []Edge{{TaskID: "a", Type: StartToStart}}},
	}
	err := Validate(in)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Problems) != 3 {
		t.Errorf("expected 3 problems, got %d: %v", len(ve.Problems), ve.Problems)
	}
	for _, want := range []error{ErrNegativeDuration, ErrDanglingReference, ErrInconsistentEdges} {
		if !errors.Is(err, want) {
			t.Errorf("expected %v among problems", want)
		}
	}
}
