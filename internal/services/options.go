package services

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"

	"github.com/Lllllllleong/watermarkflow/internal/models"
	"github.com/Lllllllleong/watermarkflow/internal/watermark"
)

// ApplyOptions overlays the request options on base and validates the result.
// A nil opts returns base unchanged.
func ApplyOptions(base watermark.Spec, opts *models.WatermarkOptions) (watermark.Spec, error) {
	spec := base
	if opts == nil {
		return spec, nil
	}
	if opts.Text != nil {
		spec.Text = *opts.Text
	}
	if opts.FontName != nil {
		spec.FontName = *opts.FontName
	}
	if opts.FontSize != nil {
		spec.FontSize = *opts.FontSize
	}
	if opts.FillColor != nil {
		if len(opts.FillColor) != 3 {
			return base, fmt.Errorf("fillColor needs three components, got %d", len(opts.FillColor))
		}
		spec.FillColor = color.SimpleColor{
			R: float32(opts.FillColor[0]),
			G: float32(opts.FillColor[1]),
			B: float32(opts.FillColor[2]),
		}
	}
	if opts.Opacity != nil {
		spec.Opacity = *opts.Opacity
	}
	if opts.RotationDegrees != nil {
		spec.RotationDegrees = *opts.RotationDegrees
	}
	if err := spec.Validate(); err != nil {
		return base, err
	}
	return spec, nil
}
