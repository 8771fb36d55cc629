package watermark

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/font"
)

// OverlayFragment is a single-page PDF of a reference size that holds only the
// watermark glyph run. Fragments are job-scoped and never shared across jobs.
type OverlayFragment struct {
	Width  float64
	Height float64
	PDF    []byte
}

// Render draws spec centered on a blank page of the given size: translate to the
// page center, rotate, then show the text horizontally centered on the new origin.
// The transform is bracketed by q/Q so nothing after it inherits the rotation.
func Render(spec Spec, refWidth, refHeight float64) (*OverlayFragment, error) {
	if !(refWidth > 0) || !(refHeight > 0) || math.IsInf(refWidth, 0) || math.IsInf(refHeight, 0) {
		return nil, fmt.Errorf("%w: reference size must be positive, got %vx%v", ErrRender, refWidth, refHeight)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	text, err := pdfString(spec.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	// Core font metrics are in 1/1000 em; measuring at 1000pt yields glyph units.
	textWidth := font.TextWidth(spec.Text, spec.FontName, 1000) * spec.FontSize / 1000

	theta := spec.normalizedRotation() * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)

	var c bytes.Buffer
	c.WriteString("q\n")
	c.WriteString("/GS1 gs\n")
	fmt.Fprintf(&c, "%s %s %s rg\n",
		num(float64(spec.FillColor.R)), num(float64(spec.FillColor.G)), num(float64(spec.FillColor.B)))
	fmt.Fprintf(&c, "1 0 0 1 %s %s cm\n", num(refWidth/2), num(refHeight/2))
	fmt.Fprintf(&c, "%s %s %s %s 0 0 cm\n", num(cos), num(sin), num(-sin), num(cos))
	c.WriteString("BT\n")
	fmt.Fprintf(&c, "/F1 %s Tf\n", num(spec.FontSize))
	fmt.Fprintf(&c, "%s 0 Td\n", num(-textWidth/2))
	fmt.Fprintf(&c, "%s Tj\n", text)
	c.WriteString("ET\n")
	c.WriteString("Q")

	opacity := spec.Opacity
	doc := buildDocument([]pdfPage{{
		width:   refWidth,
		height:  refHeight,
		content: c.Bytes(),
		font:    spec.FontName,
		alpha:   &opacity,
	}})

	return &OverlayFragment{Width: refWidth, Height: refHeight, PDF: doc}, nil
}
