package watermark

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
)

const (
	DefaultText     = "AI Translated"
	DefaultFontName = "Helvetica"
	DefaultFontSize = 100.0
	DefaultOpacity  = 0.3
	DefaultRotation = 45.0

	// AnchorCenter is the only supported anchor.
	AnchorCenter = "center"
)

// DefaultFillColor is the mid-gray used when no color is configured.
var DefaultFillColor = color.SimpleColor{R: 0.5, G: 0.5, B: 0.5}

var (
	// ErrRender is returned when an overlay fragment cannot be produced.
	ErrRender = errors.New("watermark render failed")
	// ErrComposition is returned when the overlay cannot be merged onto the document.
	ErrComposition = errors.New("watermark composition failed")
)

// Spec describes the watermark drawn on every page. It is passed by value and never
// mutated once a job starts.
type Spec struct {
	Text            string
	FontName        string
	FontSize        float64
	FillColor       color.SimpleColor
	Opacity         float64
	RotationDegrees float64
	Anchor          string
}

// DefaultSpec returns the "AI Translated" diagonal watermark.
func DefaultSpec() Spec {
	return Spec{
		Text:            DefaultText,
		FontName:        DefaultFontName,
		FontSize:        DefaultFontSize,
		FillColor:       DefaultFillColor,
		Opacity:         DefaultOpacity,
		RotationDegrees: DefaultRotation,
		Anchor:          AnchorCenter,
	}
}

// Validate reports the first problem that would prevent the spec from rendering.
func (s Spec) Validate() error {
	if s.Text == "" {
		return errors.New("watermark text must not be empty")
	}
	if !(s.FontSize > 0) || math.IsInf(s.FontSize, 0) {
		return fmt.Errorf("font size must be positive, got %v", s.FontSize)
	}
	if s.Opacity < 0 || s.Opacity > 1 || math.IsNaN(s.Opacity) {
		return fmt.Errorf("opacity must be within [0,1], got %v", s.Opacity)
	}
	if math.IsNaN(s.RotationDegrees) || math.IsInf(s.RotationDegrees, 0) {
		return fmt.Errorf("rotation must be a finite number, got %v", s.RotationDegrees)
	}
	if s.Anchor != "" && s.Anchor != AnchorCenter {
		return fmt.Errorf("unsupported anchor %q", s.Anchor)
	}
	if !font.IsCoreFont(s.FontName) {
		return fmt.Errorf("font %q is not available", s.FontName)
	}
	for _, c := range []float32{s.FillColor.R, s.FillColor.G, s.FillColor.B} {
		if c < 0 || c > 1 {
			return fmt.Errorf("fill color components must be within [0,1], got %v", s.FillColor)
		}
	}
	return nil
}

// normalizedRotation maps any angle into [0,360).
func (s Spec) normalizedRotation() float64 {
	r := math.Mod(s.RotationDegrees, 360)
	if r < 0 {
		r += 360
	}
	return r
}
