package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

func completedRun() valuation.Run {
	report := valuation.FallbackReport()
	req := valuation.DefaultRequest()
	req.Location = "桃園觀音"
	return valuation.Run{
		ID:      "run-x",
		Request: req,
		Status:  valuation.StatusComplete,
		Source:  valuation.SourceFallback,
		Report:  &report,
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, completedRun()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetScenarios, sheetCashFlow}, f.GetSheetList())

	v, err := f.GetCellValue(sheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "桃園觀音", v)

	rows, err := f.GetRows(sheetScenarios)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "B", rows[2][0])
	assert.Equal(t, "★", rows[2][7])

	rows, err = f.GetRows(sheetCashFlow)
	require.NoError(t, err)
	require.Len(t, rows, 21)
	assert.Equal(t, "建置", rows[1][0])
	assert.Equal(t, "-1200", rows[1][1])
	assert.Equal(t, "-950", rows[2][2])
}

func TestWriteWorkbookWithoutReport(t *testing.T) {
	err := WriteWorkbook(&bytes.Buffer{}, valuation.Run{ID: "r"})
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestRenderCashFlowChartPNG(t *testing.T) {
	run := completedRun()
	var buf bytes.Buffer
	require.NoError(t, RenderCashFlowChart(&buf, valuation.ActiveScenario(*run.Report), "png"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderCashFlowChartErrors(t *testing.T) {
	run := completedRun()
	err := RenderCashFlowChart(&bytes.Buffer{}, valuation.ActiveScenario(*run.Report), "gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = RenderCashFlowChart(&bytes.Buffer{}, &valuation.Scenario{ID: "Z"}, "png")
	assert.ErrorIs(t, err, ErrNoCashFlow)

	err = RenderCashFlowChart(&bytes.Buffer{}, nil, "png")
	assert.ErrorIs(t, err, ErrNoCashFlow)
}
