// Package export renders finished reports into downloadable files.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

const (
	sheetSummary   = "摘要"
	sheetScenarios = "方案比較"
	sheetCashFlow  = "現金流"
)

var ErrNoReport = errors.New("run has no report")

// WriteWorkbook writes an xlsx with a summary sheet, a scenario comparison and
// the yearly cash flows of every scenario.
func WriteWorkbook(w io.Writer, run valuation.Run) error {
	if run.Report == nil {
		return ErrNoReport
	}
	r := *run.Report

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetScenarios, sheetCashFlow} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeSummary(f, run, r); err != nil {
		return err
	}
	if err := writeScenarios(f, r, bold); err != nil {
		return err
	}
	if err := writeCashFlows(f, r, bold); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, run valuation.Run, r valuation.Report) error {
	rows := [][]any{
		{"報告編號", run.ID},
		{"資產位置", run.Request.Location},
		{"資產類型", run.Request.AssetType},
		{"面積", run.Request.Area},
		{"屋齡", run.Request.BuildingAge},
		{"目前用途", run.Request.CurrentUsage},
		{"資料來源", string(run.Source)},
		{"目前資產估值", r.OriginalValue},
		{"轉型後估值", r.ProjectedValue},
		{"推薦方案", r.BestScenarioID},
		{"土地分區", r.PolicyAnalysis.ZoningType},
		{"合規狀態", string(r.PolicyAnalysis.ComplianceStatus)},
		{"太陽能潛力", r.GeoAnalysis.SolarPotential},
		{"併網距離", r.GeoAnalysis.GridDistance},
		{"饋線容量", r.GeoAnalysis.GridCapacity},
		{"氣候風險", r.GeoAnalysis.ClimateRisk},
		{"聲明", valuation.Disclaimer},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(sheetSummary, "A", "B", 24)
}

func writeScenarios(f *excelize.File, r valuation.Report, header int) error {
	head := []any{"ID", "方案", "IRR", "回收期", "CAPEX", "NPV", "減碳量", "推薦"}
	if err := f.SetSheetRow(sheetScenarios, "A1", &head); err != nil {
		return fmt.Errorf("scenario header: %w", err)
	}
	if err := f.SetCellStyle(sheetScenarios, "A1", "H1", header); err != nil {
		return fmt.Errorf("scenario header style: %w", err)
	}
	for i, s := range r.Scenarios {
		best := ""
		if s.ID == r.BestScenarioID {
			best = "★"
		}
		row := []any{s.ID, s.Name, s.IRR, s.ROIPeriod, s.Capex, s.Financials.NPV, s.CarbonReduction, best}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetScenarios, cell, &row); err != nil {
			return fmt.Errorf("scenario %s: %w", s.ID, err)
		}
	}
	return f.SetColWidth(sheetScenarios, "B", "B", 32)
}

// writeCashFlows lays scenarios out as columns: year label, then a cash-flow
// and cumulative column per scenario.
func writeCashFlows(f *excelize.File, r valuation.Report, header int) error {
	head := []any{"年度"}
	years := 0
	series := make([][]valuation.CashFlowPoint, len(r.Scenarios))
	for i := range r.Scenarios {
		s := &r.Scenarios[i]
		head = append(head, s.ID+" 現金流 (萬)", s.ID+" 累計 (萬)")
		series[i] = valuation.CashFlowSeries(s)
		if len(series[i]) > years {
			years = len(series[i])
		}
	}
	if err := f.SetSheetRow(sheetCashFlow, "A1", &head); err != nil {
		return fmt.Errorf("cash flow header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(head), 1)
	if err := f.SetCellStyle(sheetCashFlow, "A1", last, header); err != nil {
		return fmt.Errorf("cash flow header style: %w", err)
	}
	for y := 0; y < years; y++ {
		row := make([]any, 0, len(head))
		label := ""
		for _, pts := range series {
			if y < len(pts) {
				label = pts[y].Year
				break
			}
		}
		row = append(row, label)
		for _, pts := range series {
			if y < len(pts) {
				row = append(row, pts[y].CashFlow, pts[y].Cumulative)
			} else {
				row = append(row, nil, nil)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, y+2)
		if err := f.SetSheetRow(sheetCashFlow, cell, &row); err != nil {
			return fmt.Errorf("cash flow year %d: %w", y, err)
		}
	}
	return nil
}
