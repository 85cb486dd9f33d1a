package site

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/b2g-transformer/internal/store"
	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

type fakePDF struct {
	markdown string
	err      error
}

func (f *fakePDF) Render(_ context.Context, markdown string) ([]byte, error) {
	f.markdown = markdown
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

type testEnv struct {
	srv  *Server
	runs *RunStore
	http *httptest.Server
}

type fixedGenerator struct {
	report valuation.Report
}

func (g fixedGenerator) Generate(context.Context, valuation.Request) (valuation.Report, valuation.Source) {
	return g.report, valuation.SourceLive
}

func newTestEnv(t *testing.T, pdf ReportPDFRenderer) *testEnv {
	t.Helper()
	return newTestEnvWith(t, valuation.FallbackGenerator{}, nil, pdf)
}

func newTestEnvWith(t *testing.T, gen valuation.Generator, repo store.RunRepository, pdf ReportPDFRenderer) *testEnv {
	t.Helper()
	runs := NewRunStore(repo, 50, zerolog.Nop())
	srv := NewServer(context.Background(), Deps{
		Sequencer: valuation.NewSequencer(gen, 0),
		Runs:      runs,
		PDF:       pdf,
		Logger:    zerolog.Nop(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Wait()
	})
	return &testEnv{srv: srv, runs: runs, http: ts}
}

func (e *testEnv) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.http.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) completedRun(t *testing.T) valuation.Run {
	t.Helper()
	resp := e.post(t, "/api/valuations?wait=true", `{"location":"桃園市觀音區"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run valuation.Run
	decodeBody(t, resp, &run)
	return run
}

func TestCreateValuationRequiresLocation(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, body := range []string{`{}`, `{"location":"   "}`, ``} {
		resp := env.post(t, "/api/valuations", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		var out map[string]string
		decodeBody(t, resp, &out)
		assert.Equal(t, valuation.LocationPrompt, out["error"])
	}

	runs, err := env.runs.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCreateValuationRejectsBadJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.post(t, "/api/valuations", `{"location":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateValuationAccepted(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.post(t, "/api/valuations", `{"location":"彰化濱海工業區"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out struct {
		ID      string           `json:"id"`
		Status  valuation.Status `json:"status"`
		Message string           `json:"message"`
	}
	decodeBody(t, resp, &out)
	require.NotEmpty(t, out.ID)
	assert.Equal(t, valuation.StatusScanningGeo, out.Status)
	assert.Equal(t, valuation.StageMessage(valuation.StatusScanningGeo), out.Message)
	assert.Equal(t, "/api/valuations/"+out.ID, resp.Header.Get("Location"))

	env.srv.Wait()
	got := env.get(t, "/api/valuations/"+out.ID)
	require.Equal(t, http.StatusOK, got.StatusCode)
	var run valuation.Run
	decodeBody(t, got, &run)
	assert.Equal(t, valuation.StatusComplete, run.Status)
	assert.Equal(t, "彰化濱海工業區", run.Request.Location)
	assert.Equal(t, valuation.DefaultRequest().AssetType, run.Request.AssetType)
}

func TestCreateValuationWaitReturnsFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	run := env.completedRun(t)
	assert.Equal(t, valuation.StatusComplete, run.Status)
	assert.Equal(t, valuation.SourceFallback, run.Source)
	require.NotNil(t, run.Report)
	assert.Equal(t, valuation.FallbackReport(), *run.Report)
	assert.NotNil(t, run.CompletedAt)
}

func TestValuationEventsStreamStagesInOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.post(t, "/api/valuations", `{"location":"高雄大社"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	stream := env.get(t, "/api/valuations/"+created.ID+"/events")
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	var names []string
	var statuses []valuation.Status
	var last Event
	sc := bufio.NewScanner(stream.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &last))
			statuses = append(statuses, last.Status)
		}
	}
	assert.Equal(t, valuation.StageOrder, statuses)
	assert.Equal(t, []string{"status", "status", "status", "complete"}, names)
	require.NotNil(t, last.Run)
	require.NotNil(t, last.Run.Report)
	assert.Equal(t, "B", last.Run.Report.BestScenarioID)
}

func TestValuationEventsUnknownRun(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.get(t, "/api/valuations/missing/events")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListValuations(t *testing.T) {
	env := newTestEnv(t, nil)
	first := env.completedRun(t)
	second := env.completedRun(t)

	resp := env.get(t, "/api/valuations?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Runs []valuation.Run `json:"runs"`
	}
	decodeBody(t, resp, &out)
	require.Len(t, out.Runs, 1)
	assert.Equal(t, second.ID, out.Runs[0].ID)
	assert.NotEqual(t, first.ID, out.Runs[0].ID)
}

func TestReportDownloads(t *testing.T) {
	pdf := &fakePDF{}
	env := newTestEnv(t, pdf)
	run := env.completedRun(t)
	base := "/api/valuations/" + run.ID

	md := env.get(t, base+"/report.md")
	require.Equal(t, http.StatusOK, md.StatusCode)
	body, err := io.ReadAll(md.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# B2G 資產轉型潛力估值報告")
	assert.Contains(t, string(body), "桃園市觀音區")

	page := env.get(t, base+"/report.html")
	require.Equal(t, http.StatusOK, page.StatusCode)
	body, err = io.ReadAll(page.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<table>")
	assert.Contains(t, string(body), "<style>")

	doc := env.get(t, base+"/report.pdf")
	require.Equal(t, http.StatusOK, doc.StatusCode)
	assert.Equal(t, "application/pdf", doc.Header.Get("Content-Type"))
	assert.Contains(t, doc.Header.Get("Content-Disposition"), "b2g-valuation-"+run.ID+".pdf")
	assert.Contains(t, pdf.markdown, "## 轉型情境方案")

	xlsx := env.get(t, base+"/report.xlsx")
	require.Equal(t, http.StatusOK, xlsx.StatusCode)
	body, err = io.ReadAll(xlsx.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx is a zip archive")

	chart := env.get(t, base+"/chart.png?scenario=A")
	require.Equal(t, http.StatusOK, chart.StatusCode)
	assert.Equal(t, "image/png", chart.Header.Get("Content-Type"))
	body, err = io.ReadAll(chart.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	missing := env.get(t, base+"/chart.png?scenario=Z")
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestUnknownBestScenarioOpensOnFirstScenario(t *testing.T) {
	report := valuation.FallbackReport()
	report.BestScenarioID = "Z"
	env := newTestEnvWith(t, fixedGenerator{report: report}, nil, nil)

	run := env.completedRun(t)
	assert.Equal(t, valuation.SourceLive, run.Source)
	assert.Equal(t, "A", run.ActiveScenarioID)

	base := "/api/valuations/" + run.ID
	chart := env.get(t, base+"/chart.png")
	require.Equal(t, http.StatusOK, chart.StatusCode)
	body, err := io.ReadAll(chart.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	byID := env.get(t, base+"/chart.png?scenario="+run.ActiveScenarioID)
	assert.Equal(t, http.StatusOK, byID.StatusCode)

	md := env.get(t, base+"/report.md")
	body, err = io.ReadAll(md.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "| 推薦方案 | "+report.Scenarios[0].Name+" |")
}

func TestValuationEventsEndUnfinishedStoredRunWithError(t *testing.T) {
	repo := newMemRepo()
	stale := valuation.Run{ID: "stale", Request: testRequest(), Status: valuation.StatusCheckingPolicy}
	require.NoError(t, repo.Save(context.Background(), stale))
	env := newTestEnvWith(t, valuation.FallbackGenerator{}, repo, nil)

	stream := env.get(t, "/api/valuations/stale/events")
	require.Equal(t, http.StatusOK, stream.StatusCode)
	body, err := io.ReadAll(stream.Body)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "event: error", lines[1])
	var evt Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &evt))
	assert.Equal(t, valuation.StatusError, evt.Status)
	require.NotNil(t, evt.Run)
	assert.Equal(t, InterruptedReason, evt.Run.Error)
}

func TestReportPDFUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	run := env.completedRun(t)
	resp := env.get(t, "/api/valuations/"+run.ID+"/report.pdf")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReportPDFRenderFailure(t *testing.T) {
	env := newTestEnv(t, &fakePDF{err: errors.New("no chromium")})
	run := env.completedRun(t)
	resp := env.get(t, "/api/valuations/"+run.ID+"/report.pdf")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestReportNotReady(t *testing.T) {
	env := newTestEnv(t, nil)
	run := env.runs.Create(context.Background(), testRequest())

	resp := env.get(t, "/api/valuations/"+run.ID+"/report.md")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var out map[string]string
	decodeBody(t, resp, &out)
	assert.Equal(t, "report not ready", out["error"])

	resp = env.get(t, "/api/valuations/unknown/report.md")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContentEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/api/content")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var site map[string]json.RawMessage
	decodeBody(t, resp, &site)
	assert.NotEmpty(t, site)

	resp = env.get(t, "/api/content/team")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/api/content/pricing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMapEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/api/map/parks")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var parks struct {
		Parks []json.RawMessage `json:"parks"`
	}
	decodeBody(t, resp, &parks)
	assert.Len(t, parks.Parks, 5)

	resp = env.get(t, "/api/map/layers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/api/map/geocode?q=%E6%A1%83%E5%9C%92%E8%A7%80%E9%9F%B3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var park struct {
		ID int `json:"id"`
	}
	decodeBody(t, resp, &park)
	assert.Equal(t, 1, park.ID)

	resp = env.get(t, "/api/map/geocode?q=%E8%8A%B1%E8%93%AE")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.get(t, "/api/map/geocode")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/api/map/select", `{"lat":25.04512,"lng":121.13988}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sel struct {
		Label string `json:"label"`
	}
	decodeBody(t, resp, &sel)
	assert.Equal(t, "自選位置 (25.045, 121.140)", sel.Label)

	resp = env.post(t, "/api/map/select", `{"lat":25.0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.post(t, "/api/map/select", `{"lat":95,"lng":121}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	for _, id := range []string{"solution", "demo", "marketplace", "esg-data", "market", "team", "valuation-form", "map", "progress"} {
		assert.Contains(t, html, `id="`+id+`"`, id)
	}
	assert.Contains(t, html, valuation.LocationPrompt)

	static := env.get(t, "/static/app.js")
	assert.Equal(t, http.StatusOK, static.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRenderReportHTML(t *testing.T) {
	doc, err := RenderReportHTML("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, doc, "<h1>Title</h1>")
	assert.Contains(t, doc, "<table>")
	assert.Contains(t, doc, `lang='zh-Hant'`)
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "b2g-valuation-abc-1.pdf", reportFilename("abc-1", "pdf"))
	assert.Equal(t, "b2g-valuation-a-b-c.md", reportFilename("a/b c", "md"))
	assert.Equal(t, "b2g-valuation-report.xlsx", reportFilename(" ", "xlsx"))
}

func TestAppScriptWiring(t *testing.T) {
	raw, err := staticFiles.ReadFile("static/app.js")
	require.NoError(t, err)
	js := string(raw)

	// typed locations are geocoded, not only the quick-pick chips
	assert.Contains(t, js, `form.elements.location.addEventListener("input"`)
	assert.Contains(t, js, `"/api/map/geocode?q="`)

	// only the server's terminal error event closes the stream
	assert.Regexp(t, `addEventListener\("error", function \(m\) \{\s*if \(m\.data\) \{\s*es\.close\(\)`, js)

	// the report opens on the server-chosen scenario
	assert.Contains(t, js, "run.activeScenarioId")
	assert.Contains(t, js, `src='" + base + "/chart.png'>`)
}
