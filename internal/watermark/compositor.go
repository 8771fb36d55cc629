package watermark

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/sync/errgroup"
)

// fragmentPlacement places a fragment exactly over the page it was sized for.
const fragmentPlacement = "scalefactor:1 abs, rotation:0, opacity:1, position:c, offset:0 0"

// Compositor merges rendered overlay fragments onto every page of a PDF.
// A Compositor holds no per-job state and is safe for concurrent use.
type Compositor struct {
	renderLimit int
	logger      *slog.Logger
}

// NewCompositor returns a Compositor that renders at most renderLimit overlay
// sizes concurrently within one job.
func NewCompositor(renderLimit int, logger *slog.Logger) *Compositor {
	if renderLimit < 1 {
		renderLimit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{renderLimit: renderLimit, logger: logger}
}

// configuration is built per call: pdfcpu records the running command on it.
func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Apply returns a copy of doc with spec drawn on top of every page. Page count,
// order and dimensions are preserved. A zero-page document is returned unchanged.
func (c *Compositor) Apply(ctx context.Context, doc []byte, spec Spec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	dims, err := PageDims(doc)
	if err != nil {
		return nil, err
	}
	if len(dims) == 0 {
		c.logger.Info("Document has no pages; nothing to watermark.")
		return append([]byte(nil), doc...), nil
	}

	fragments, err := c.renderFragments(ctx, spec, dims)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "watermark-*")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp dir: %w", ErrComposition, err)
	}
	defer os.RemoveAll(tempDir)

	stamps := make(map[types.Dim]*model.Watermark, len(fragments))
	i := 0
	for dim, frag := range fragments {
		i++
		path := filepath.Join(tempDir, fmt.Sprintf("overlay_%d.pdf", i))
		if err := os.WriteFile(path, frag.PDF, 0o600); err != nil {
			return nil, fmt.Errorf("%w: failed to stage overlay: %w", ErrComposition, err)
		}
		wm, err := api.PDFWatermark(path, fragmentPlacement, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("%w: overlay %vx%v: %w", ErrComposition, dim.Width, dim.Height, err)
		}
		stamps[dim] = wm
	}

	perPage := make(map[int]*model.Watermark, len(dims))
	for n, dim := range dims {
		perPage[n+1] = stamps[dim]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.AddWatermarksMap(bytes.NewReader(doc), &out, perPage, configuration()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComposition, err)
	}

	c.logger.Debug("Watermark merged onto pages.", "pageCount", len(dims), "overlaySizes", len(fragments))
	return out.Bytes(), nil
}

// renderFragments renders one fragment per distinct page size.
func (c *Compositor) renderFragments(ctx context.Context, spec Spec, dims []types.Dim) (map[types.Dim]*OverlayFragment, error) {
	var (
		mu        sync.Mutex
		fragments = make(map[types.Dim]*OverlayFragment)
	)

	seen := make(map[types.Dim]bool)
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(c.renderLimit)
	for _, dim := range dims {
		if seen[dim] {
			continue
		}
		seen[dim] = true

		eg.Go(func() error {
			frag, err := Render(spec, dim.Width, dim.Height)
			if err != nil {
				return err
			}
			mu.Lock()
			fragments[dim] = frag
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// PageDims reads and validates doc and returns the dimensions of each page in order.
func PageDims(doc []byte) ([]types.Dim, error) {
	pdfCtx, err := api.ReadContext(bytes.NewReader(doc), configuration())
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable document: %w", ErrComposition, err)
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: unreadable page tree: %w", ErrComposition, err)
	}
	if pdfCtx.PageCount == 0 {
		return nil, nil
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, fmt.Errorf("%w: invalid document: %w", ErrComposition, err)
	}
	dims, err := pdfCtx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable page tree: %w", ErrComposition, err)
	}
	return dims, nil
}
