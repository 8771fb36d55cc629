package services

import (
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"

	"github.com/Lllllllleong/watermarkflow/internal/models"
	"github.com/Lllllllleong/watermarkflow/internal/watermark"
)

func ptr[T any](v T) *T { return &v }

func TestApplyOptions(t *testing.T) {
	base := watermark.DefaultSpec()

	got, err := ApplyOptions(base, &models.WatermarkOptions{
		Text:            ptr("DRAFT"),
		FontName:        ptr("Times-Bold"),
		FillColor:       []float64{1, 0, 0},
		RotationDegrees: ptr(-45.0),
	})
	if err != nil {
		t.Fatalf("ApplyOptions failed: %v", err)
	}
	want := base
	want.Text = "DRAFT"
	want.FontName = "Times-Bold"
	want.FillColor = color.SimpleColor{R: 1}
	want.RotationDegrees = -45
	if got != want {
		t.Errorf("ApplyOptions = %+v, want %+v", got, want)
	}

	if got, err := ApplyOptions(base, nil); err != nil || got != base {
		t.Errorf("ApplyOptions(nil) = %+v, %v; want the base spec", got, err)
	}
}

func TestApplyOptions_Rejects(t *testing.T) {
	tests := map[string]*models.WatermarkOptions{
		"empty text":         {Text: ptr("")},
		"unknown font":       {FontName: ptr("Comic Sans")},
		"zero size":          {FontSize: ptr(0.0)},
		"opacity":            {Opacity: ptr(1.5)},
		"two components":     {FillColor: []float64{1, 0}},
		"color out of range": {FillColor: []float64{1, 0, 2}},
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ApplyOptions(watermark.DefaultSpec(), opts); err == nil {
				t.Error("ApplyOptions succeeded, want an error")
			}
		})
	}
}
