package models

import "testing"

func TestFound(t *testing.T) {
	tests := []struct {
		name string
		in   Result
		want bool
	}{
		{"empty", Empty{}, false},
		{"point", Point{X: 1, Y: 2}, true},
		{"segment", Segment{X1: 1, Y1: 2, X2: 3, Y2: 4}, true},
		{"not found", NotFound{}, false},
		{"transport error", TransportError{Message: "boom"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Found(tt.in); got != tt.want {
				t.Errorf("Found(%#v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestResultEquality(t *testing.T) {
	var a Result = Point{X: 120, Y: 80}
	var b Result = Point{X: 120, Y: 80}
	if a != b {
		t.Error("equal points should compare equal")
	}

	var s Result = Segment{X1: 120, Y1: 80}
	if a == s {
		t.Error("different variants should not compare equal")
	}

	if (TransportError{Message: "x"}) == (TransportError{Message: "y"}) {
		t.Error("errors with different messages should not compare equal")
	}
}

func TestResultString(t *testing.T) {
	if got := (Point{X: 120, Y: 80.5}).String(); got != "Vanishing Point: (120, 80.5)" {
		t.Errorf("unexpected point label: %q", got)
	}
	if got := (Segment{X1: 10, Y1: 10, X2: 200, Y2: 150}).String(); got != "Line: (10, 10) - (200, 150)" {
		t.Errorf("unexpected segment label: %q", got)
	}
	if got := (Empty{}).String(); got != "" {
		t.Errorf("empty label should be blank, got %q", got)
	}
}
