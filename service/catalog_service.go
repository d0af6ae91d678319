package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"fogcatalog/layout"
	"fogcatalog/models"
)

// A4 at 96dpi
const (
	pageWidthPx   = 794
	pageHeightPx  = 1123
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

// CatalogService renders computed catalog pages to HTML and drives headless
// Chrome for PDF printing and per-page PNG capture.
type CatalogService struct {
	baseURL      string
	templatePath string
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(baseURL string) *CatalogService {
	return &CatalogService{
		baseURL:      baseURL,
		templatePath: filepath.Join("templates", "catalog.html"),
	}
}

// detectChromePath detects the path to the Chrome/Chromium executable.
// Checks CHROME_PATH first, then common installation paths.
func detectChromePath() string {
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// waitForAssets resolves once fonts and every image have finished loading (or
// a per-image timeout fires), so captures don't race resource loading.
const waitForAssets = `
	(function() {
		return Promise.all([
			document.fonts.ready,
			Promise.all(Array.from(document.querySelectorAll('img')).map(img => {
				return new Promise((resolve) => {
					if (img.complete && img.naturalWidth > 0 && img.naturalHeight > 0) {
						resolve();
						return;
					}
					const timeout = setTimeout(() => resolve(), 5000);
					img.onload = () => { clearTimeout(timeout); resolve(); };
					img.onerror = () => { clearTimeout(timeout); resolve(); };
				});
			}))
		]);
	})();
`

// RenderCatalogHTML computes the page sequence for the given products and
// config and renders the catalog HTML template.
func (s *CatalogService) RenderCatalogHTML(ctx context.Context, title string, products []models.Product, cfg layout.Config) (string, error) {
	pages := layout.ComputePages(products, cfg)

	columns := cfg.ColumnsPerRow
	if columns < 2 || columns > 4 {
		columns = 3
	}

	data := models.CatalogData{
		Title:     title,
		Pages:     pages,
		PageCount: len(pages),
		Columns:   columns,
	}

	tmpl, err := template.ParseFiles(s.templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// newChromeContext builds a chromedp context against the detected browser
func newChromeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // required in containers
	)
	if chromePath := detectChromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		chromeCancel()
		allocCancel()
	}
	return chromeCtx, cancel
}

// GeneratePDF prints the rendered catalog page at renderURL to an A4 PDF via
// Chrome's print pipeline. Page breaks come from the template's CSS.
func (s *CatalogService) GeneratePDF(ctx context.Context, renderURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	chromeCtx, chromeCancel := newChromeContext(ctx)
	defer chromeCancel()

	var pdfBuf []byte
	err := chromedp.Run(chromeCtx,
		chromedp.EmulateViewport(pageWidthPx, 5000), // tall viewport so every page lays out
		chromedp.Navigate(renderURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(waitForAssets, nil),
		chromedp.Sleep(time.Second), // final wait for layout
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdfBuf, nil
}

// GeneratePNG captures each rendered catalog page as a PNG, keyed by page
// number starting at 1. Pages are isolated one at a time by hiding the rest,
// with a bounded retry per page.
func (s *CatalogService) GeneratePNG(ctx context.Context, renderURL string, expectedPages int) (map[int][]byte, error) {
	// Capture is slower than printing; scale the timeout with the page count.
	timeout := 30 * time.Second
	if expectedPages > 1 {
		timeout = time.Duration(20+expectedPages*10) * time.Second
		if timeout > 3*time.Minute {
			timeout = 3 * time.Minute
		}
	}
	log.Debug().Int("expected_pages", expectedPages).Dur("timeout", timeout).Msg("capturing catalog pages")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chromeCtx, chromeCancel := newChromeContext(ctx)
	defer chromeCancel()

	var pageCountVal float64
	err := chromedp.Run(chromeCtx,
		chromedp.EmulateViewport(pageWidthPx, 5000),
		chromedp.Navigate(renderURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(waitForAssets, nil),
		chromedp.Sleep(time.Second),
		chromedp.Evaluate(`document.querySelectorAll('.page').length`, &pageCountVal),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	pageCount := int(pageCountVal)
	if pageCount == 0 {
		return nil, fmt.Errorf("no pages found in rendered HTML")
	}
	// Trust the computed page sequence when Chrome disagrees; detection can
	// undercount while images are still reflowing.
	if expectedPages > 0 && pageCount != expectedPages {
		log.Warn().Int("detected", pageCount).Int("expected", expectedPages).Msg("page count mismatch, using expected")
		pageCount = expectedPages
	}

	restoreAllPages := func() {
		_ = chromedp.Run(chromeCtx,
			chromedp.Evaluate(`
				(function() {
					document.querySelectorAll('.page').forEach(page => {
						page.style.display = 'flex';
						page.style.visibility = 'visible';
					});
					document.documentElement.style.height = 'auto';
					document.documentElement.style.overflow = '';
					document.body.style.height = 'auto';
					document.body.style.overflow = '';
				})();
			`, nil),
		)
	}

	const maxAttemptsPerPage = 2
	pngs := make(map[int][]byte)
	var missingPages []int

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		var buf []byte
		var lastErr error

		for attempt := 1; attempt <= maxAttemptsPerPage; attempt++ {
			buf = nil
			lastErr = chromedp.Run(chromeCtx,
				chromedp.EmulateViewport(pageWidthPx, pageHeightPx),
				chromedp.Evaluate(fmt.Sprintf(`
					(function() {
						const pages = document.querySelectorAll('.page');
						pages.forEach((page, index) => {
							if (index === %d - 1) {
								page.style.display = 'flex';
								page.style.visibility = 'visible';
								page.style.position = 'relative';
							} else {
								page.style.display = 'none';
								page.style.visibility = 'hidden';
							}
						});
						document.documentElement.style.overflow = 'hidden';
						document.body.style.overflow = 'hidden';
						return pages.length;
					})();
				`, pageNum), nil),
				chromedp.Sleep(900*time.Millisecond), // let layout settle
				chromedp.CaptureScreenshot(&buf),
			)

			if lastErr == nil && len(buf) > 0 {
				break
			}
			log.Warn().Err(lastErr).Int("page", pageNum).Int("attempt", attempt).Msg("page capture failed")
			restoreAllPages()
			time.Sleep(400 * time.Millisecond)
		}

		if lastErr != nil || len(buf) == 0 {
			missingPages = append(missingPages, pageNum)
			restoreAllPages()
			continue
		}

		pngs[pageNum] = buf
		if pageNum < pageCount {
			restoreAllPages()
		}
	}

	if len(pngs) == 0 {
		return nil, fmt.Errorf("failed to capture any pages")
	}
	if len(missingPages) > 0 {
		return nil, fmt.Errorf("failed to capture all pages: missing=%v captured=%d/%d", missingPages, len(pngs), pageCount)
	}
	return pngs, nil
}
