// Package geom defines the value types used for measuring and placing content.
package geom

import (
	"fmt"
	"math"
)

// Size is a width/height pair. Infinite height means "no height constraint".
type Size struct {
	Width  float64
	Height float64
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// Deflate returns size reduced by thickness, never going negative.
func (s Size) Deflate(t Thickness) Size {
	return Size{
		Width:  math.Max(0, s.Width-t.Left-t.Right),
		Height: math.Max(0, s.Height-t.Top-t.Bottom),
	}
}

// Inflate returns size grown by thickness.
func (s Size) Inflate(t Thickness) Size {
	return Size{
		Width:  s.Width + t.Left + t.Right,
		Height: s.Height + t.Top + t.Bottom,
	}
}

// Min returns component-wise minimum.
func (s Size) Min(o Size) Size {
	return Size{Width: math.Min(s.Width, o.Width), Height: math.Min(s.Height, o.Height)}
}

// IsEmpty reports whether either dimension is zero or negative.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether point lies inside the rectangle (right and bottom edges excluded).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.X, r.Y, r.Width, r.Height)
}

// Thickness describes padding around content.
type Thickness struct {
	Left   float64 `yaml:"left" validate:"gte=0"`
	Top    float64 `yaml:"top" validate:"gte=0"`
	Right  float64 `yaml:"right" validate:"gte=0"`
	Bottom float64 `yaml:"bottom" validate:"gte=0"`
}

// Uniform returns thickness with the same value on every side.
func Uniform(v float64) Thickness {
	return Thickness{Left: v, Top: v, Right: v, Bottom: v}
}
