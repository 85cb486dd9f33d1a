package valuation

import (
	"errors"
	"fmt"
	"strings"
)

const systemPrompt = "You are a Taiwanese licensed architect and land-development scrivener producing green transformation assessments for industrial real estate. Respond with strict JSON only."

// LocationPrompt is shown to the user when a run is submitted without a location.
const LocationPrompt = "請輸入或在地圖上選擇資產位置"

var ErrLocationRequired = errors.New("location is required")

// ValidateRequest only checks for a location; every other field is free text.
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.Location) == "" {
		return ErrLocationRequired
	}
	return nil
}

const ResponseSchema = `Required JSON schema:
{
  "originalValue": "string",
  "projectedValue": "string",
  "bestScenarioId": "string",
  "policyIncentives": ["string"],
  "geoAnalysis": {
    "solarPotential": "string",
    "gridDistance": "string",
    "roofCondition": "string",
    "climateRisk": "string",
    "sunlightHours": "string",
    "gridCapacity": "string"
  },
  "policyAnalysis": {
    "zoningType": "string",
    "complianceStatus": "compliant|warning|non-compliant",
    "regulations": ["string"],
    "restrictions": "string",
    "subsidyEligibility": ["string"]
  },
  "scenarios": [
    {
      "id": "string",
      "name": "string",
      "description": "string",
      "irr": "string",
      "roiPeriod": "string",
      "capex": "string",
      "carbonReduction": "string",
      "financials": {
        "capexEstimate": "string",
        "npv": "string",
        "yearlyCashFlow": [0],
        "revenueStreams": ["string"]
      }
    }
  ]
}`

const analysisRules = `【分析邏輯與法規限制 (Strict Compliance)】
1. 土地分區判斷：
   - 若地點包含「工業區」、「加工出口區」，請預設為「乙種工業區」或「產業專用區」。
     -> 標準參數：建蔽率 70% / 容積率 210% (切勿填寫 300% 以上，除非是特殊商業區)。
   - 若地點為「科學園區」，依據該園區特別條例。
   - 若為「商辦」，容積率可設為 300%~560% (依路寬而定)。
2. 財務估算：
   - 太陽能造價約 5-6 萬/kW。
   - 儲能造價約 2.5-3 萬/kWh。
   - 請產生合理的 CAPEX 與 IRR (通常在 6%~12% 之間)。
3. 法規引用：
   - 請引用真實法規名稱，如《都市計畫法》、《再生能源發展條例》。`

const outputRules = `【輸出格式要求 (JSON)】
請生成 JSON 格式回應，包含 bestScenarioId (推薦方案ID)。

- policyAnalysis: 必須包含真實的 zoningType, regulations (列出建蔽/容積率), restrictions。
- scenarios: 包含 3 個方案 (A: Solar, B: Storage, C: Renovation)。
- 金額單位：若金額超過 1 億，使用「億」；若小於 1 億，使用「萬」。
- yearlyCashFlow: 提供 20 年現金流陣列 (數值)。`

// Prompt renders the analysis request for one asset. The average power bill is
// collected by the form but, as on the original site, not sent to the model.
func Prompt(req Request) string {
	var b strings.Builder
	b.WriteString("請扮演「台灣專業建築師」與「土地開發代書」的角色，結合「B2G Asset Transformer」的 AI 運算能力。\n")
	b.WriteString("請分析以下台灣資產，並生成 3 種不同的綠色轉型情境方案 (Scenarios)。\n\n")
	b.WriteString("【輸入資產參數】\n")
	fmt.Fprintf(&b, "- 類型：%s\n", req.AssetType)
	fmt.Fprintf(&b, "- 地點：%s\n", req.Location)
	fmt.Fprintf(&b, "- 面積：%s\n", req.Area)
	fmt.Fprintf(&b, "- 屋齡：%s\n", req.BuildingAge)
	fmt.Fprintf(&b, "- 目前用途：%s\n\n", req.CurrentUsage)
	b.WriteString(analysisRules)
	b.WriteString("\n\n")
	b.WriteString(outputRules)
	b.WriteString("\n\n")
	b.WriteString(ResponseSchema)
	return b.String()
}
