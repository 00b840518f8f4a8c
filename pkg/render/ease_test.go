package render

import (
	"strings"
	"testing"
	"time"
)

func TestEaseInOutCubic(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.0625},
		{0.5, 0.5},
		{0.75, 0.9375},
		{1, 1},
		{2, 1},
	}
	for _, tt := range tests {
		if got := EaseInOutCubic(tt.in); !near(got, tt.want) {
			t.Errorf("EaseInOutCubic(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProgressMonotonic(t *testing.T) {
	const duration = 2 * time.Second
	prev := -1.0
	for elapsed := time.Duration(0); elapsed <= 3*time.Second; elapsed += 7 * time.Millisecond {
		p := Progress(elapsed, duration)
		if p < prev {
			t.Fatalf("Progress decreased at %v: %v < %v", elapsed, p, prev)
		}
		if p < 0 || p > 1 {
			t.Fatalf("Progress(%v) = %v out of range", elapsed, p)
		}
		if elapsed >= duration && p != 1 {
			t.Fatalf("Progress(%v) = %v, want 1 after duration", elapsed, p)
		}
		prev = p
	}
	if Progress(0, 0) != 1 {
		t.Error("zero duration should complete immediately")
	}
}

func TestStyleValidate(t *testing.T) {
	if err := DefaultStyle().Validate(); err != nil {
		t.Fatalf("DefaultStyle().Validate() = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Style)
	}{
		{"ZeroLineWidth", func(s *Style) { s.LineWidth = 0 }},
		{"NegativeDuration", func(s *Style) { s.Duration = -time.Second }},
		{"ColorWithoutHash", func(s *Style) { s.Color = "2563eb" }},
		{"ColorWrongLength", func(s *Style) { s.EndColor = "#12345" }},
		{"ColorNotHex", func(s *Style) { s.Background = "#zzzzzz" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultStyle()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStyleValidateReportsFirstField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Style)
		want   string
	}{
		{"Widths", func(s *Style) { s.LineWidth, s.OutlineWidth, s.MarkerRadius = 0, 0, 0 }, "style: line width must"},
		{"LaterWidths", func(s *Style) { s.OutlineWidth, s.MarkerRadius = -1, -1 }, "style: outline width must"},
		{"Colors", func(s *Style) { s.Background, s.NodeColor, s.Color = "bad", "bad", "bad" }, "style: color:"},
		{"LaterColors", func(s *Style) { s.Background, s.EndColor = "#12", "#12" }, "style: end color:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultStyle()
			tt.mutate(&s)
			for i := 0; i < 20; i++ {
				err := s.Validate()
				if err == nil || !strings.Contains(err.Error(), tt.want) {
					t.Fatalf("Validate() = %v, want %q", err, tt.want)
				}
			}
		})
	}
}
