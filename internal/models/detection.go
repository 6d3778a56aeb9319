package models

import (
	"fmt"
	"strconv"
)

// Result is the outcome of a detection request. Exactly one of Empty, Point,
// Segment, NotFound or TransportError.
type Result interface {
	fmt.Stringer
	isResult()
}

// Empty means no request has completed yet.
type Empty struct{}

// Point is a vanishing point in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a detected line in image pixel coordinates.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NotFound means the service answered but detected nothing.
type NotFound struct{}

// TransportError covers network failures, non-2xx statuses and unreadable bodies.
type TransportError struct {
	Message string `json:"message"`
}

func (Empty) isResult()          {}
func (Point) isResult()          {}
func (Segment) isResult()        {}
func (NotFound) isResult()       {}
func (TransportError) isResult() {}

func (Empty) String() string { return "" }

func (p Point) String() string {
	return fmt.Sprintf("Vanishing Point: (%s, %s)", formatCoord(p.X), formatCoord(p.Y))
}

func (s Segment) String() string {
	return fmt.Sprintf("Line: (%s, %s) - (%s, %s)",
		formatCoord(s.X1), formatCoord(s.Y1), formatCoord(s.X2), formatCoord(s.Y2))
}

func (NotFound) String() string { return "Nothing detected" }

func (e TransportError) String() string { return e.Message }

// Found reports whether r carries geometry to draw.
func Found(r Result) bool {
	switch r.(type) {
	case Point, Segment:
		return true
	default:
		return false
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
