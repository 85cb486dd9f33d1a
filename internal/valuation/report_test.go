package valuation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildMarkdownCompleteRun(t *testing.T) {
	report := FallbackReport()
	done := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	md := BuildMarkdown(Run{
		ID:          "run-1",
		Request:     testRequest(),
		Status:      StatusComplete,
		Source:      SourceFallback,
		Report:      &report,
		CompletedAt: &done,
	})

	for _, want := range []string{
		"# B2G 資產轉型潛力估值報告",
		"- 報告編號: run-1",
		"- 資產位置: 桃園市觀音區",
		"2025-06-01T08:00:00Z",
		"示範資料",
		Disclaimer,
		"| 目前資產估值 | 1.2 億 |",
		"| 推薦方案 | 方案 B：光充儲整合 (AI 推薦) |",
		"- 合規狀態: 合規",
		"| **方案 B：光充儲整合 (AI 推薦)** | 11.2% |",
		"## 現金流預測 (方案 B：光充儲整合 (AI 推薦))",
		"| 建置 | -2,800 | -2,800 |",
		"| Y1 | 650 | -2,150 |",
	} {
		assert.Contains(t, md, want)
	}
}

func TestBuildMarkdownPendingRun(t *testing.T) {
	md := BuildMarkdown(Run{ID: "r", Status: StatusCheckingPolicy, UpdatedAt: time.Now()})
	assert.Contains(t, md, "報告尚未完成")
	assert.Contains(t, md, "checking_policy")
	assert.NotContains(t, md, "## 估值摘要")
}

func TestBuildMarkdownEscapesTableCells(t *testing.T) {
	report := Report{
		OriginalValue: "a|b\nc",
		Scenarios:     []Scenario{{ID: "A", Name: "x"}},
	}
	md := BuildMarkdown(Run{ID: "r", Status: StatusComplete, Report: &report})
	assert.Contains(t, md, `| 目前資產估值 | a\|b c |`)
	assert.False(t, strings.Contains(md, "| 目前資產估值 | a|b"))
	assert.Contains(t, md, "- 合規狀態: 未提供")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", formatAmount(0))
	assert.Equal(t, "999", formatAmount(999))
	assert.Equal(t, "1,000", formatAmount(1000))
	assert.Equal(t, "-15,000", formatAmount(-15000))
	assert.Equal(t, "1,234,568", formatAmount(1234567.6))
}
