package site

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type ReportPDFRenderer interface {
	Render(ctx context.Context, markdown string) ([]byte, error)
}

// PageLayout is the printed page in inches.
type PageLayout struct {
	Width, Height float64
	Margin        float64
	// FooterMargin leaves room below the body for the page footer.
	FooterMargin float64
}

// A4Portrait is the default report page.
var A4Portrait = PageLayout{Width: 8.27, Height: 11.69, Margin: 0.6, FooterMargin: 0.8}

type ChromiumPDFRenderer struct {
	chromePath string
	timeout    time.Duration
	layout     PageLayout
}

// NewChromiumPDFRenderer uses chromePath when set, otherwise the first
// Chromium found in the usual locations, otherwise whatever chromedp finds on
// PATH.
func NewChromiumPDFRenderer(chromePath string) *ChromiumPDFRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	return &ChromiumPDFRenderer{chromePath: chromePath, timeout: 30 * time.Second, layout: A4Portrait}
}

// reportFooter repeats the report title and disclaimer tag on every page;
// Chromium fills pageNumber and totalPages.
const reportFooter = `<div style="width:100%;margin:0 0.6in;display:flex;justify-content:space-between;` +
	`font-size:8px;color:#64748b;font-family:'Noto Sans TC',sans-serif;">` +
	`<span>B2G 資產轉型潛力估值報告 · 示範分析，僅供參考</span>` +
	`<span><span class="pageNumber"></span> / <span class="totalPages"></span></span></div>`

func (r *ChromiumPDFRenderer) printParams() *page.PrintToPDFParams {
	l := r.layout
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(false).
		WithDisplayHeaderFooter(true).
		WithHeaderTemplate(`<span></span>`).
		WithFooterTemplate(reportFooter).
		WithPaperWidth(l.Width).
		WithPaperHeight(l.Height).
		WithMarginTop(l.Margin).
		WithMarginBottom(l.FooterMargin).
		WithMarginLeft(l.Margin).
		WithMarginRight(l.Margin)
}

func (r *ChromiumPDFRenderer) Render(ctx context.Context, markdown string) ([]byte, error) {
	htmlDoc, err := RenderReportHTML(markdown)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("data:text/html;base64,"+base64.StdEncoding.EncodeToString([]byte(htmlDoc))),
		chromedp.WaitReady("main.report", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := r.printParams().Do(ctx)
			pdf = out
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}

var reportMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderReportHTML wraps the Markdown report in a standalone printable page.
func RenderReportHTML(markdown string) (string, error) {
	var content bytes.Buffer
	if err := reportMarkdown.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	css, err := staticFiles.ReadFile("static/report.css")
	if err != nil {
		return "", fmt.Errorf("read report.css: %w", err)
	}
	return "<!doctype html><html lang='zh-Hant'><head><meta charset='utf-8'>" +
		"<title>" + html.EscapeString("B2G 資產轉型潛力估值報告") + "</title>" +
		"<style>" + string(css) + "</style></head><body>" +
		"<main class='report'>" + content.String() + "</main>" +
		"</body></html>", nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
