package valuation

// FallbackReport returns the canned report served when no live completion is
// available. Each call returns an independent copy.
func FallbackReport() Report {
	return Report{
		OriginalValue:    "1.2 億",
		ProjectedValue:   "1.65 億",
		BestScenarioID:   "B",
		PolicyIncentives: []string{"經濟部能源署再生能源躉購機制", "中小企業綠色轉型補助計畫", "工業局低碳製程改善補助"},
		GeoAnalysis: GeoAnalysis{
			SolarPotential: "1,280 kWh/kWp (優良)",
			GridDistance:   "約 350 公尺 (併網容易)",
			RoofCondition:  "RC 結構完整，可承重",
			ClimateRisk:    "低淹水潛勢區 (NCDR圖資)",
			SunlightHours:  "1,150 小時/年",
			GridCapacity:   "饋線餘裕充足 (>5MW)",
		},
		PolicyAnalysis: PolicyAnalysis{
			ZoningType:       "乙種工業區 (Industrial Zone Type B)",
			ComplianceStatus: ComplianceCompliant,
			Regulations: []string{
				"法定建蔽率 70%",
				"法定容積率 210%",
				"需符合《都市計畫法臺灣省施行細則》",
				"屋頂光電免計入建築高度",
			},
			Restrictions:       "非都市計畫區內，需注意排水計畫審查",
			SubsidyEligibility: []string{"經濟部太陽光電補助", "工業局低碳轉型專案貸款"},
		},
		Scenarios: fallbackScenarios(),
	}
}

// Cash flows are in 萬 NTD; index 0 is the build-out outlay.
func fallbackScenarios() []Scenario {
	return []Scenario{
		{
			ID:              "A",
			Name:            "方案 A：純屋頂光電 (Solar)",
			Description:     "利用閒置屋頂鋪設高效能單晶矽模組，成本門檻最低，風險低，適合穩健型轉型。",
			IRR:             "8.5%",
			ROIPeriod:       "6.2 年",
			Capex:           "1,200 萬",
			CarbonReduction: "450 tCO2e/年",
			Financials: FinancialAnalysis{
				CapexEstimate:  "1,200 萬",
				NPV:            "1,800 萬",
				YearlyCashFlow: []float64{-1200, 250, 250, 250, 250, 250, 245, 245, 240, 240, 235, 235, 230, 230, 225, 225, 220, 220, 215, 215},
				RevenueStreams: []string{"售電收入 (躉購费率)", "屋頂租金收益"},
			},
		},
		{
			ID:              "B",
			Name:            "方案 B：光充儲整合 (AI 推薦)",
			Description:     "結合光電與 500kW 儲能系統，參與台電電力輔助服務 (AFC)，獲利來源多元化，投報率最高。",
			IRR:             "11.2%",
			ROIPeriod:       "5.5 年",
			Capex:           "2,800 萬",
			CarbonReduction: "680 tCO2e/年",
			Financials: FinancialAnalysis{
				CapexEstimate:  "2,800 萬",
				NPV:            "0.45 億",
				YearlyCashFlow: []float64{-2800, 650, 680, 720, 750, 780, 800, 820, 850, 880, 900, 920, 950, 980, 1000, 1020, 1050, 1080, 1100, 1120},
				RevenueStreams: []string{"售電收入", "儲能輔助服務 (AFC)", "需量反應回饋"},
			},
		},
		{
			ID:              "C",
			Name:            "方案 C：綠建築全面改建",
			Description:     "進行建築外殼節能改善與智慧能源管理系統 (BEMS) 導入，大幅提升資產估值與租金溢價。",
			IRR:             "7.8%",
			ROIPeriod:       "8.5 年",
			Capex:           "1.5 億",
			CarbonReduction: "920 tCO2e/年",
			Financials: FinancialAnalysis{
				CapexEstimate:  "1.5 億",
				NPV:            "2.1 億",
				YearlyCashFlow: []float64{-15000, 1200, 1300, 1400, 1500, 1600, 1700, 1800, 1900, 2000, 2100, 2200, 2300, 2400, 2500, 2600, 2700, 2800, 2900, 3000},
				RevenueStreams: []string{"綠色租金溢價", "節省電費", "碳權交易", "容積獎勵"},
			},
		},
	}
}
