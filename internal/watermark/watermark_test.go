package watermark

import (
	"fmt"
	"os"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func TestMain(m *testing.M) {
	api.DisableConfigDir()
	os.Exit(m.Run())
}

var (
	letter       = types.Dim{Width: 612, Height: 792}
	a4Landscape  = types.Dim{Width: 842, Height: 595}
	businessCard = types.Dim{Width: 20, Height: 12}
)

// testDocument builds a PDF with one line of body text per page.
func testDocument(t *testing.T, dims ...types.Dim) []byte {
	t.Helper()
	pages := make([]pdfPage, len(dims))
	for i, d := range dims {
		pages[i] = pdfPage{
			width:   d.Width,
			height:  d.Height,
			font:    "Helvetica",
			content: []byte(fmt.Sprintf("BT /F1 12 Tf 10 10 Td (Page %d) Tj ET", i+1)),
		}
	}
	return buildDocument(pages)
}
