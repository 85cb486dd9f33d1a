package valuation

import (
	"fmt"
	"strings"
	"time"
)

var complianceLabels = map[ComplianceStatus]string{
	ComplianceCompliant:    "合規",
	ComplianceWarning:      "需注意",
	ComplianceNonCompliant: "不合規",
}

// BuildMarkdown renders a finished run as a Markdown report.
func BuildMarkdown(run Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# B2G 資產轉型潛力估值報告\n\n")
	fmt.Fprintf(&b, "- 報告編號: %s\n", sanitize(run.ID))
	fmt.Fprintf(&b, "- 資產位置: %s\n", sanitize(run.Request.Location))
	fmt.Fprintf(&b, "- 資產類型: %s\n", sanitize(run.Request.AssetType))
	fmt.Fprintf(&b, "- 面積 / 屋齡: %s / %s\n", sanitize(run.Request.Area), sanitize(run.Request.BuildingAge))
	fmt.Fprintf(&b, "- 目前用途: %s\n", sanitize(run.Request.CurrentUsage))
	fmt.Fprintf(&b, "- 平均電費: %s\n", sanitize(run.Request.AvgPowerBill))
	fmt.Fprintf(&b, "- 產出時間: %s\n", reportTime(run).Format(time.RFC3339))
	fmt.Fprintf(&b, "- 資料來源: %s\n\n", sourceLabel(run.Source))
	fmt.Fprintf(&b, "> %s\n\n", Disclaimer)

	if run.Report == nil {
		fmt.Fprintf(&b, "報告尚未完成 (狀態: `%s`)。\n", run.Status)
		return b.String()
	}
	r := *run.Report

	fmt.Fprintf(&b, "## 估值摘要\n\n")
	fmt.Fprintf(&b, "| 項目 | 數值 |\n|---|---|\n")
	fmt.Fprintf(&b, "| 目前資產估值 | %s |\n", cell(r.OriginalValue))
	fmt.Fprintf(&b, "| 轉型後估值 | %s |\n", cell(r.ProjectedValue))
	if active := ActiveScenario(r); active != nil {
		fmt.Fprintf(&b, "| 推薦方案 | %s |\n", cell(active.Name))
	}
	b.WriteString("\n")
	if len(r.PolicyIncentives) > 0 {
		fmt.Fprintf(&b, "**適用政策誘因**\n\n")
		writeList(&b, r.PolicyIncentives)
	}

	fmt.Fprintf(&b, "## Geo-AI 空間分析\n\n")
	fmt.Fprintf(&b, "| 指標 | 結果 |\n|---|---|\n")
	fmt.Fprintf(&b, "| 太陽能潛力 | %s |\n", cell(r.GeoAnalysis.SolarPotential))
	fmt.Fprintf(&b, "| 日照時數 | %s |\n", cell(r.GeoAnalysis.SunlightHours))
	fmt.Fprintf(&b, "| 併網距離 | %s |\n", cell(r.GeoAnalysis.GridDistance))
	fmt.Fprintf(&b, "| 饋線容量 | %s |\n", cell(r.GeoAnalysis.GridCapacity))
	fmt.Fprintf(&b, "| 屋頂狀況 | %s |\n", cell(r.GeoAnalysis.RoofCondition))
	fmt.Fprintf(&b, "| 氣候風險 | %s |\n\n", cell(r.GeoAnalysis.ClimateRisk))

	fmt.Fprintf(&b, "## PolicyAI 法規快篩\n\n")
	fmt.Fprintf(&b, "- 土地分區: %s\n", sanitize(r.PolicyAnalysis.ZoningType))
	fmt.Fprintf(&b, "- 合規狀態: %s\n", complianceLabel(r.PolicyAnalysis.ComplianceStatus))
	fmt.Fprintf(&b, "- 開發限制: %s\n\n", sanitize(r.PolicyAnalysis.Restrictions))
	if len(r.PolicyAnalysis.Regulations) > 0 {
		fmt.Fprintf(&b, "**適用法規**\n\n")
		writeList(&b, r.PolicyAnalysis.Regulations)
	}
	if len(r.PolicyAnalysis.SubsidyEligibility) > 0 {
		fmt.Fprintf(&b, "**可申請補助**\n\n")
		writeList(&b, r.PolicyAnalysis.SubsidyEligibility)
	}

	fmt.Fprintf(&b, "## 轉型情境方案\n\n")
	fmt.Fprintf(&b, "| 方案 | IRR | 回收期 | CAPEX | NPV | 減碳量 |\n|---|---|---|---|---|---|\n")
	for _, s := range r.Scenarios {
		name := cell(s.Name)
		if s.ID == r.BestScenarioID {
			name = "**" + name + "**"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", name, cell(s.IRR), cell(s.ROIPeriod), cell(s.Capex), cell(s.Financials.NPV), cell(s.CarbonReduction))
	}
	b.WriteString("\n")
	for _, s := range r.Scenarios {
		fmt.Fprintf(&b, "### %s\n\n", sanitize(s.Name))
		fmt.Fprintf(&b, "%s\n\n", sanitize(s.Description))
		if len(s.Financials.RevenueStreams) > 0 {
			fmt.Fprintf(&b, "收入來源: %s\n\n", sanitize(strings.Join(s.Financials.RevenueStreams, "、")))
		}
	}

	if active := ActiveScenario(r); active != nil {
		points := CashFlowSeries(active)
		if len(points) > 0 {
			fmt.Fprintf(&b, "## 現金流預測 (%s)\n\n", sanitize(active.Name))
			fmt.Fprintf(&b, "| 年度 | 現金流 (萬) | 累計 (萬) |\n|---|---:|---:|\n")
			for _, p := range points {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Year, formatAmount(p.CashFlow), formatAmount(p.Cumulative))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func reportTime(run Run) time.Time {
	if run.CompletedAt != nil {
		return *run.CompletedAt
	}
	if !run.UpdatedAt.IsZero() {
		return run.UpdatedAt
	}
	return time.Now()
}

func sourceLabel(s Source) string {
	switch s {
	case SourceLive:
		return "AI 即時分析"
	case SourceFallback:
		return "示範資料"
	default:
		return "未知"
	}
}

func complianceLabel(c ComplianceStatus) string {
	if l, ok := complianceLabels[c]; ok {
		return l
	}
	if c == "" {
		return "未提供"
	}
	return string(c)
}

func writeList(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", sanitize(it))
	}
	b.WriteString("\n")
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// cell also escapes pipes so model output cannot break table layout.
func cell(s string) string {
	s = sanitize(s)
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)
	var out strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	if neg {
		return "-" + out.String()
	}
	return out.String()
}
