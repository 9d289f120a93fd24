package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/recipe-importer/constants"
)

// pageState is the per-page routing state. Confident, VisionDone and
// VisionUnavailable are terminal.
type pageState int

const (
	stateExtracted pageState = iota
	stateConfident
	stateNeedsVision
	stateVisionDone
	stateVisionUnavailable
)

func (s pageState) String() string {
	switch s {
	case stateExtracted:
		return "extracted"
	case stateConfident:
		return "confident"
	case stateNeedsVision:
		return "needs_vision"
	case stateVisionDone:
		return "vision_done"
	case stateVisionUnavailable:
		return "vision_unavailable"
	}
	return "unknown"
}

func (s pageState) terminal() bool {
	return s == stateConfident || s == stateVisionDone || s == stateVisionUnavailable
}

func (s pageState) route() constants.Route {
	switch s {
	case stateVisionDone:
		return constants.RouteVision
	case stateVisionUnavailable:
		return constants.RouteTextFallback
	default:
		return constants.RouteText
	}
}

type pdfPage struct {
	number     int
	text       string
	visionText string
	state      pageState
	confidence Confidence
	warning    string
}

// output is the text this page contributes, with its page marker.
func (p *pdfPage) output() string {
	switch p.state {
	case stateVisionDone:
		return fmt.Sprintf("\n--- PAGE %d (VISION) ---\n%s", p.number, p.visionText)
	case stateVisionUnavailable:
		return fmt.Sprintf("\n--- PAGE %d (LOW CONF) ---\n%s", p.number, p.text)
	default:
		return fmt.Sprintf("\n--- PAGE %d ---\n%s", p.number, p.text)
	}
}

// pdfDoc is a PDF written to a scratch directory so the poppler tools can read it.
type pdfDoc struct {
	dir  string
	path string
}

func (e *Extractor) openPDF(data []byte) (*pdfDoc, error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "recipe-pdf-*")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &pdfDoc{dir: dir, path: path}, nil
}

func (d *pdfDoc) close() { _ = os.RemoveAll(d.dir) }

// pdfPageTexts runs pdftotext over the first MaxPages pages and splits on form feeds.
func (e *Extractor) pdfPageTexts(ctx context.Context, doc *pdfDoc) ([]string, error) {
	args := []string{"-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, doc.path, "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	pages := strings.Split(string(out), "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	return pages, nil
}

// rasterizePage renders one page (1-based) to PNG with pdftoppm.
func (e *Extractor) rasterizePage(ctx context.Context, doc *pdfDoc, page int) ([]byte, error) {
	if e.cfg.DisableRaster {
		return nil, fmt.Errorf("rasterization disabled")
	}
	prefix := filepath.Join(doc.dir, fmt.Sprintf("page-%d", page))
	n := strconv.Itoa(page)
	// pdftoppm -f N -l N -r 150 -png -singlefile <in.pdf> <prefix>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", n, "-l", n, "-r", strconv.Itoa(e.cfg.DPI), "-png", "-singlefile", doc.path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	img, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("pdftoppm produced an empty image")
	}
	return img, nil
}

// step advances p by one transition.
func (e *Extractor) step(ctx context.Context, doc *pdfDoc, p *pdfPage) pageState {
	switch p.state {
	case stateExtracted:
		p.confidence = AnalyzePage(p.text, e.cfg.Thresholds, e.units)
		if p.confidence.IsConfident {
			return stateConfident
		}
		return stateNeedsVision

	case stateNeedsVision:
		if e.vision == nil {
			p.warning = fmt.Sprintf("page %d: low-confidence text used, no vision service configured", p.number)
			return stateVisionUnavailable
		}
		img, err := e.rasterizePage(ctx, doc, p.number)
		if err != nil {
			p.warning = fmt.Sprintf("page %d: low-confidence text used, %v", p.number, err)
			return stateVisionUnavailable
		}
		hint := fmt.Sprintf("This is page %d of a recipe document.", p.number)
		txt, err := e.vision.ReadImage(ctx, img, "image/png", hint)
		if err != nil {
			p.warning = fmt.Sprintf("page %d: vision extraction failed, low-confidence text used: %v", p.number, err)
			return stateVisionUnavailable
		}
		p.visionText = txt
		return stateVisionDone
	}
	return p.state
}

// extractPDF routes every page to text or vision and combines the results.
func (e *Extractor) extractPDF(ctx context.Context, data []byte, res *Result) error {
	doc, err := e.openPDF(data)
	if err != nil {
		return fmt.Errorf("stage pdf: %w", err)
	}
	defer doc.close()

	texts, err := e.pdfPageTexts(ctx, doc)
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(texts))
	for i, txt := range texts {
		p := &pdfPage{number: i + 1, text: txt, state: stateExtracted}
		for !p.state.terminal() {
			p.state = e.step(ctx, doc, p)
		}

		e.logger.Debug("extract.pdf.page_routed",
			"page", p.number,
			"state", p.state.String(),
			"route", p.state.route(),
			"chars", p.confidence.CharCount,
			"words", p.confidence.WordCount,
			"uom_hits", p.confidence.UOMHits,
			"failures", p.confidence.Failures,
		)
		if p.warning != "" {
			e.logger.Warn("extract.pdf.fallback", "page", p.number, "reason", p.warning)
			res.Warnings = append(res.Warnings, p.warning)
		}

		res.Pages = append(res.Pages, PageProvenance{
			PageNumber: p.number,
			Route:      p.state.route(),
			Confidence: p.confidence,
		})
		switch p.state.route() {
		case constants.RouteText:
			res.TextPages++
		case constants.RouteVision:
			res.VisionPages++
		}
		parts = append(parts, p.output())
	}

	res.TotalPages = len(texts)
	res.Text = strings.Join(parts, "\n")
	res.Metadata = map[string]any{
		"total_pages":  res.TotalPages,
		"text_pages":   res.TextPages,
		"vision_pages": res.VisionPages,
		"page_cap":     e.cfg.MaxPages,
	}
	return nil
}
