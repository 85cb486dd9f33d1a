// Package site serves the landing page and the JSON API behind the valuation
// demo and the map widget.
package site

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/joelkehle/b2g-transformer/internal/content"
	"github.com/joelkehle/b2g-transformer/internal/export"
	"github.com/joelkehle/b2g-transformer/internal/geo"
	"github.com/joelkehle/b2g-transformer/internal/logging"
	"github.com/joelkehle/b2g-transformer/internal/store"
	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

const keepAliveInterval = 15 * time.Second

type Deps struct {
	Sequencer *valuation.Sequencer
	Runs      *RunStore
	PDF       ReportPDFRenderer
	Logger    zerolog.Logger
}

type Server struct {
	seq     *valuation.Sequencer
	runs    *RunStore
	pdf     ReportPDFRenderer
	logger  zerolog.Logger
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewServer ties run goroutines to ctx so cancelling it aborts in-flight
// sequences.
func NewServer(ctx context.Context, deps Deps) *Server {
	return &Server{
		seq:     deps.Sequencer,
		runs:    deps.Runs,
		pdf:     deps.PDF,
		logger:  deps.Logger,
		baseCtx: ctx,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger))
	r.Use(middleware.Recoverer)

	assets, _ := fs.Sub(staticFiles, "static")
	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/content", s.handleContent)
		r.Get("/content/{section}", s.handleContentSection)

		r.Route("/map", func(r chi.Router) {
			r.Get("/parks", s.handleParks)
			r.Get("/layers", s.handleLayers)
			r.Get("/geocode", s.handleGeocode)
			r.Post("/select", s.handleSelect)
		})

		r.Route("/valuations", func(r chi.Router) {
			r.Post("/", s.handleCreateValuation)
			r.Get("/", s.handleListValuations)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetValuation)
				r.Get("/events", s.handleValuationEvents)
				r.Get("/report.md", s.handleReportMarkdown)
				r.Get("/report.html", s.handleReportHTML)
				r.Get("/report.pdf", s.handleReportPDF)
				r.Get("/report.xlsx", s.handleReportWorkbook)
				r.Get("/chart.png", s.handleChart)
			})
		})
	})
	return r
}

// Wait blocks until every started run has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// StartRun validates req, records a new run in scanning_geo and drives the
// staged sequence in the background.
func (s *Server) StartRun(ctx context.Context, req valuation.Request) (valuation.Run, error) {
	if err := valuation.ValidateRequest(req); err != nil {
		return valuation.Run{}, err
	}
	run := s.runs.Create(ctx, req)
	s.runs.SetStatus(ctx, run.ID, valuation.StatusScanningGeo, valuation.StageMessage(valuation.StatusScanningGeo))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(run.ID, req)
	}()
	return s.runs.Get(ctx, run.ID)
}

func (s *Server) execute(id string, req valuation.Request) {
	ctx := s.baseCtx
	logger := s.logger.With().Str("run_id", id).Logger()
	res, err := s.seq.RunWithProgress(ctx, req, func(status valuation.Status, message string) {
		if status.Terminal() {
			return
		}
		s.runs.SetStatus(ctx, id, status, message)
	})
	if err != nil {
		logger.Error().Err(err).Msg("valuation sequence aborted")
		s.runs.Fail(ctx, id, err.Error())
		return
	}
	s.runs.Complete(ctx, id, res)
	logger.Info().
		Str("source", string(res.Source)).
		Dur("elapsed", res.CompletedAt.Sub(res.StartedAt)).
		Msg("valuation complete")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := LandingPage(content.Load()).Render(w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render landing page")
	}
}

func (s *Server) handleContent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, content.Load())
}

func (s *Server) handleContentSection(w http.ResponseWriter, r *http.Request) {
	section, err := content.Section(chi.URLParam(r, "section"))
	if err != nil {
		writeError(w, http.StatusNotFound, "section not found")
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (s *Server) handleParks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"parks":       geo.Parks(),
		"quick_picks": geo.QuickPicks,
	})
}

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, geo.Config())
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	park, ok := geo.Geocode(q)
	if !ok {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	writeJSON(w, http.StatusOK, park)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if body.Lat == nil || body.Lng == nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	sel, err := geo.Select(*body.Lat, *body.Lng)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleCreateValuation(w http.ResponseWriter, r *http.Request) {
	req := valuation.DefaultRequest()
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	run, err := s.StartRun(r.Context(), req)
	if errors.Is(err, valuation.ErrLocationRequired) {
		writeError(w, http.StatusBadRequest, valuation.LocationPrompt)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("start valuation")
		writeError(w, http.StatusInternalServerError, "failed to start valuation")
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		done, err := s.runs.Wait(r.Context(), run.ID)
		if err != nil {
			writeError(w, http.StatusGatewayTimeout, "valuation did not finish")
			return
		}
		writeJSON(w, http.StatusOK, done)
		return
	}
	w.Header().Set("Location", "/api/valuations/"+run.ID)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":      run.ID,
		"status":  run.Status,
		"message": valuation.StageMessage(run.Status),
	})
}

func (s *Server) handleListValuations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 100 {
		limit = 100
	}
	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list valuations")
		writeError(w, http.StatusInternalServerError, "failed to list valuations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (valuation.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.runs.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "valuation not found")
		return valuation.Run{}, false
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", id).Msg("load valuation")
		writeError(w, http.StatusInternalServerError, "failed to load valuation")
		return valuation.Run{}, false
	}
	return run, true
}

func (s *Server) lookupReport(w http.ResponseWriter, r *http.Request) (valuation.Run, bool) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return run, false
	}
	if run.Report == nil {
		writeError(w, http.StatusNotFound, "report not ready")
		return run, false
	}
	return run, true
}

func (s *Server) handleGetValuation(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleValuationEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ch, cancel, ok := s.runs.Subscribe(id)
	if !ok {
		// Runs from earlier processes: replay the end state. One that never
		// finished cannot progress any more, so it ends as an error.
		run, found := s.lookupRun(w, r)
		if !found {
			return
		}
		if !run.Status.Terminal() {
			run.Status = valuation.StatusError
			run.Error = InterruptedReason
		}
		c := make(chan Event, 1)
		c <- Event{Seq: 1, RunID: run.ID, Status: run.Status, Message: valuation.StageMessage(run.Status), Run: &run}
		close(c)
		ch = c
	}
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := bw.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
		case evt, open := <-ch:
			if !open {
				return
			}
			blob, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(bw, "id: %d\nevent: %s\ndata: %s\n\n", evt.Seq, eventName(evt.Status), blob); err != nil {
				return
			}
		}
		if err := bw.Flush(); err != nil {
			return
		}
		flusher.Flush()
	}
}

func eventName(status valuation.Status) string {
	if status.Terminal() {
		return string(status)
	}
	return "status"
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, valuation.BuildMarkdown(run))
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	doc, err := RenderReportHTML(valuation.BuildMarkdown(run))
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", run.ID).Msg("render report html")
		writeError(w, http.StatusInternalServerError, "failed to render html")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if s.pdf == nil {
		writeError(w, http.StatusServiceUnavailable, "pdf renderer unavailable")
		return
	}
	run, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	pdf, err := s.pdf.Render(r.Context(), valuation.BuildMarkdown(run))
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", run.ID).Msg("render report pdf")
		writeError(w, http.StatusInternalServerError, "failed to render pdf")
		return
	}
	writeAttachment(w, "application/pdf", reportFilename(run.ID, "pdf"), pdf)
}

func (s *Server) handleReportWorkbook(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, run); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", run.ID).Msg("write workbook")
		writeError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", reportFilename(run.ID, "xlsx"), buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	scenario := valuation.ActiveScenario(*run.Report)
	if id := strings.TrimSpace(r.URL.Query().Get("scenario")); id != "" {
		scenario = nil
		for i := range run.Report.Scenarios {
			if run.Report.Scenarios[i].ID == id {
				scenario = &run.Report.Scenarios[i]
				break
			}
		}
	}
	if scenario == nil {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	var buf bytes.Buffer
	err := export.RenderCashFlowChart(&buf, scenario, "png")
	if errors.Is(err, export.ErrNoCashFlow) {
		writeError(w, http.StatusNotFound, "scenario has no cash flow")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", run.ID).Msg("render chart")
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func reportFilename(id, ext string) string {
	return fmt.Sprintf("b2g-valuation-%s.%s", sanitizeFilename(id), ext)
}

func sanitizeFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "report"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, v)
}
