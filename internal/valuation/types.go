package valuation

import "time"

const Disclaimer = "本報告為 B2G 平台自動產生之示範分析，數據僅供參考，不構成投資或估價建議。"

type Status string

const (
	StatusIdle               Status = "idle"
	StatusScanningGeo        Status = "scanning_geo"
	StatusCheckingPolicy     Status = "checking_policy"
	StatusCalculatingFinance Status = "calculating_finance"
	StatusComplete           Status = "complete"
	StatusError              Status = "error"
)

// Terminal reports whether no further transitions follow s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// StageOrder is the fixed progression of the staged sequence.
var StageOrder = []Status{StatusScanningGeo, StatusCheckingPolicy, StatusCalculatingFinance, StatusComplete}

type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceWarning      ComplianceStatus = "warning"
	ComplianceNonCompliant ComplianceStatus = "non-compliant"
)

type Request struct {
	AssetType    string `json:"asset_type"`
	Location     string `json:"location"`
	Area         string `json:"area"`
	CurrentUsage string `json:"current_usage"`
	BuildingAge  string `json:"building_age"`
	AvgPowerBill string `json:"avg_power_bill"`
}

// DefaultRequest returns the values the demo form is pre-filled with.
func DefaultRequest() Request {
	return Request{
		AssetType:    "老舊工業廠房",
		Area:         "1,200 坪",
		CurrentUsage: "傳統金屬加工廠",
		BuildingAge:  "25 年",
		AvgPowerBill: "20 萬/月",
	}
}

type GeoAnalysis struct {
	SolarPotential string `json:"solarPotential"`
	GridDistance   string `json:"gridDistance"`
	RoofCondition  string `json:"roofCondition"`
	ClimateRisk    string `json:"climateRisk"`
	SunlightHours  string `json:"sunlightHours"`
	GridCapacity   string `json:"gridCapacity"`
}

type PolicyAnalysis struct {
	ZoningType         string           `json:"zoningType"`
	ComplianceStatus   ComplianceStatus `json:"complianceStatus"`
	Regulations        []string         `json:"regulations"`
	Restrictions       string           `json:"restrictions"`
	SubsidyEligibility []string         `json:"subsidyEligibility"`
}

type FinancialAnalysis struct {
	CapexEstimate  string    `json:"capexEstimate"`
	NPV            string    `json:"npv"`
	YearlyCashFlow []float64 `json:"yearlyCashFlow"`
	RevenueStreams []string  `json:"revenueStreams"`
}

type Scenario struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	IRR             string            `json:"irr"`
	ROIPeriod       string            `json:"roiPeriod"`
	Capex           string            `json:"capex"`
	CarbonReduction string            `json:"carbonReduction"`
	Financials      FinancialAnalysis `json:"financials"`
}

// Report field names follow the JSON shape requested from the model.
type Report struct {
	OriginalValue    string         `json:"originalValue"`
	ProjectedValue   string         `json:"projectedValue"`
	BestScenarioID   string         `json:"bestScenarioId"`
	PolicyIncentives []string       `json:"policyIncentives"`
	GeoAnalysis      GeoAnalysis    `json:"geoAnalysis"`
	PolicyAnalysis   PolicyAnalysis `json:"policyAnalysis"`
	Scenarios        []Scenario     `json:"scenarios"`
}

type Run struct {
	ID      string  `json:"id"`
	Request Request `json:"request"`
	Status  Status  `json:"status"`
	Source  Source  `json:"source,omitempty"`
	Report  *Report `json:"report,omitempty"`
	// ActiveScenarioID is the scenario the report opens on; see ActiveScenario.
	ActiveScenarioID string     `json:"activeScenarioId,omitempty"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// AttachReport sets the report and the scenario it opens on.
func (r *Run) AttachReport(report Report) {
	r.Report = &report
	r.ActiveScenarioID = ""
	if s := ActiveScenario(report); s != nil {
		r.ActiveScenarioID = s.ID
	}
}
