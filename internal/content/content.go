// Package content holds the fixed copy and figures of the landing page
// sections.
package content

import (
	"errors"
	"sort"
)

type NavLink struct {
	Anchor string `json:"anchor"`
	Label  string `json:"label"`
}

type DemoCard struct {
	InputAsset string `json:"inputAsset"`
	Strategy   string `json:"strategy"`
	IRR        string `json:"irr"`
}

type Hero struct {
	Badge        string   `json:"badge"`
	Title        string   `json:"title"`
	Highlight    string   `json:"highlight"`
	Subtitle     string   `json:"subtitle"`
	Lead         string   `json:"lead"`
	Keywords     []string `json:"keywords"`
	PrimaryCTA   string   `json:"primaryCta"`
	SecondaryCTA string   `json:"secondaryCta"`
	Demo         DemoCard `json:"demo"`
}

type Feature struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TeamMember struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type Team struct {
	Title       string       `json:"title"`
	Affiliation string       `json:"affiliation"`
	Intro       string       `json:"intro"`
	Members     []TeamMember `json:"members"`
}

type RevenuePoint struct {
	Year    string  `json:"year"`
	Revenue float64 `json:"revenue"`
	Label   string  `json:"label"`
}

type StatCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Note  string `json:"note"`
}

type Market struct {
	Title   string         `json:"title"`
	Lead    string         `json:"lead"`
	Unit    string         `json:"unit"`
	Revenue []RevenuePoint `json:"revenue"`
	Stats   []StatCard     `json:"stats"`
}

type ListingStatus string

const (
	ListingMatching    ListingStatus = "matching"
	ListingNegotiating ListingStatus = "negotiating"
	ListingClosed      ListingStatus = "closed"
)

type Listing struct {
	ID               string        `json:"id"`
	Type             string        `json:"type"`
	Location         string        `json:"location"`
	Area             string        `json:"area"`
	PotentialIRR     string        `json:"potentialIrr"`
	Tags             []string      `json:"tags"`
	Status           ListingStatus `json:"status"`
	MatchedInvestors int           `json:"matchedInvestors"`
}

type Marketplace struct {
	Title    string    `json:"title"`
	Lead     string    `json:"lead"`
	Listings []Listing `json:"listings"`
}

type RiskPoint struct {
	Month string `json:"month"`
	Brown int    `json:"brown"`
	Green int    `json:"green"`
}

type ESGMetric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Note  string `json:"note,omitempty"`
	Tone  string `json:"tone"`
}

type ESG struct {
	Title   string      `json:"title"`
	Lead    string      `json:"lead"`
	Metrics []ESGMetric `json:"metrics"`
	Risk    []RiskPoint `json:"risk"`
}

type Footer struct {
	Tagline   string    `json:"tagline"`
	Links     []NavLink `json:"links"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Copyright string    `json:"copyright"`
}

// Site is the full set of static sections in page order.
type Site struct {
	Nav         []NavLink   `json:"nav"`
	Hero        Hero        `json:"hero"`
	Features    []Feature   `json:"features"`
	Market      Market      `json:"market"`
	Marketplace Marketplace `json:"marketplace"`
	ESG         ESG         `json:"esg"`
	Team        Team        `json:"team"`
	Footer      Footer      `json:"footer"`
}

var ErrUnknownSection = errors.New("unknown section")

// Section returns one top-level section by its JSON name.
func Section(name string) (any, error) {
	s := Load()
	sections := map[string]any{
		"nav":         s.Nav,
		"hero":        s.Hero,
		"features":    s.Features,
		"market":      s.Market,
		"marketplace": s.Marketplace,
		"esg":         s.ESG,
		"team":        s.Team,
		"footer":      s.Footer,
	}
	v, ok := sections[name]
	if !ok {
		return nil, ErrUnknownSection
	}
	return v, nil
}

func SectionNames() []string {
	names := []string{"nav", "hero", "features", "market", "marketplace", "esg", "team", "footer"}
	sort.Strings(names)
	return names
}

// Load builds a fresh copy of the site content.
func Load() Site {
	return Site{
		Nav: []NavLink{
			{Anchor: "solution", Label: "解決方案"},
			{Anchor: "demo", Label: "AI 估值引擎"},
			{Anchor: "marketplace", Label: "交易市場"},
			{Anchor: "esg-data", Label: "ESG 數據"},
			{Anchor: "team", Label: "聯絡團隊"},
		},
		Hero: Hero{
			Badge:        "嗡動全場團隊 2025 年度鉅獻",
			Title:        "Brown-to-Green",
			Highlight:    "Asset Transformer",
			Subtitle:     "高碳排資產轉型潛力估值與交易平台",
			Lead:         "全台首創結合 Geo-AI、FinAI 與 ESG Impact 的自動化平台。協助銀行與企業將手中的閒置棕色資產，轉化為具備高投資價值的綠色金融商品。",
			Keywords:     []string{"Geo-AI", "FinAI", "ESG Impact"},
			PrimaryCTA:   "立即試算轉型潛力",
			SecondaryCTA: "瀏覽交易市場",
			Demo: DemoCard{
				InputAsset: "桃園觀音閒置廠房",
				Strategy:   "智慧倉儲 + 屋頂光電",
				IRR:        "8.2%",
			},
		},
		Features: []Feature{
			{Icon: "globe", Title: "Geo-AI 空間智能分析", Description: "結合衛星影像、氣象資料與能源網路，自動評估案場是否具備太陽能、風能或儲能的技術可行性。"},
			{Icon: "scale", Title: "PolicyAI 法規快篩", Description: "自動比對土地分區使用管制與再生能源法規，快速判斷開發限制與潛在違規風險。"},
			{Icon: "chart", Title: "財務情境模擬 (Financial Sim)", Description: "透過蒙地卡羅模擬多種轉型方案的 IRR、淨現值 (NPV) 與投資回收期，輔助最佳決策。"},
			{Icon: "network", Title: "B2G 智慧交易媒合", Description: "獨家演算法媒合銀行「待轉型資產」與綠能開發商，解決資訊不對稱，加速資產活化。"},
			{Icon: "shield", Title: "ESG 合規量化指標", Description: "產出符合 TCFD/ISSB 標準的碳減排報告，將環境效益轉化為可量化的金融數據。"},
			{Icon: "zap", Title: "動態風險監控儀表板", Description: "即時追蹤資產轉型進度與政策變動，為金融機構提供前瞻性的氣候風險管理工具。"},
		},
		Market: Market{
			Title: "市場規模與財務預測",
			Lead:  "鎖定台灣 3 兆元工業不動產擔保品市場。預計於第二年達到損益平衡，第五年營收突破 10 億元。",
			Unit:  "單位：百萬元 (NTD)",
			Revenue: []RevenuePoint{
				{Year: "第1年", Revenue: 20, Label: "PoC & 顧問服務"},
				{Year: "第2年", Revenue: 80, Label: "SaaS 上線"},
				{Year: "第3年", Revenue: 250, Label: "市場擴張"},
				{Year: "第4年", Revenue: 500, Label: "進軍東南亞"},
				{Year: "第5年", Revenue: 1000, Label: "完整生態系"},
			},
			Stats: []StatCard{
				{Title: "台灣工業不動產貸款總額", Value: "3.0", Unit: "兆 TWD", Note: "可服務的潛在擔保品市場總量"},
				{Title: "B2G 潛在估值服務市場", Value: "3,000", Unit: "億 TWD", Note: "以 10% 具轉型潛力之資產計算"},
				{Title: "年均複合成長率 (CAGR)", Value: "115%"},
				{Title: "預計損益兩平", Value: "第 2 年"},
			},
		},
		Marketplace: Marketplace{
			Title: "智慧交易媒合平台",
			Lead:  "匿名上架您的棕色資產，讓 AI 自動為您尋找最適合的綠能開發商與 ESG 投資人。保障隱私，精準媒合。",
			Listings: []Listing{
				{ID: "A001", Type: "閒置紡織工廠", Location: "彰化縣和美鎮", Area: "1,200 坪", PotentialIRR: "8.5%", Tags: []string{"屋頂光電", "智慧倉儲"}, Status: ListingMatching, MatchedInvestors: 3},
				{ID: "B024", Type: "老舊化工廠房", Location: "高雄市大社工業區", Area: "3,500 坪", PotentialIRR: "9.2%", Tags: []string{"綠色製程改建", "土地活化"}, Status: ListingMatching, MatchedInvestors: 5},
				{ID: "C103", Type: "低效能商辦大樓", Location: "新北市三重區", Area: "500 坪", PotentialIRR: "6.8%", Tags: []string{"綠建築拉皮", "節能改善"}, Status: ListingNegotiating, MatchedInvestors: 2},
			},
		},
		ESG: ESG{
			Title: "ESG 風險監控儀表板",
			Lead:  "您的資產組合正面臨轉型風險嗎？B2G 平台提供即時的「氣候風險監測」與「資產碳排分析」。協助金融機構與投資人掌握投資組合的綠化進程，符合金管會永續金融評鑑要求。",
			Metrics: []ESGMetric{
				{Label: "高碳曝險資產", Value: "12 筆", Note: "需立即關注", Tone: "red"},
				{Label: "轉型中專案 (Transitioning)", Value: "8 筆", Note: "進度正常", Tone: "green"},
				{Label: "已生成 ESG 報告", Value: "156 份", Tone: "blue"},
			},
			Risk: []RiskPoint{
				{Month: "1月", Brown: 80, Green: 20},
				{Month: "2月", Brown: 75, Green: 25},
				{Month: "3月", Brown: 70, Green: 30},
				{Month: "4月", Brown: 60, Green: 40},
				{Month: "5月", Brown: 55, Green: 45},
				{Month: "6月", Brown: 45, Green: 55},
			},
		},
		Team: Team{
			Title:       "團隊介紹：嗡動全場",
			Affiliation: "國立臺北科技大學",
			Intro:       "來自國立臺北科技大學。團隊成員具備資訊管理與財金跨領域背景，曾參與多項資訊服務創新競賽與企業實習，致力於以科技創新解決現實金融問題。",
			Members: []TeamMember{
				{Name: "莊佩蓁", Avatar: "👩‍💼"},
				{Name: "劉芷嬅", Avatar: "👩‍💻"},
				{Name: "李宛樺", Avatar: "👨‍💻"},
				{Name: "陳宜君", Avatar: "👩‍🔬"},
			},
		},
		Footer: Footer{
			Tagline: "高碳排資產轉型潛力估值與交易平台。連結棕色資產與綠色資本，打造亞洲轉型金融技術標準。",
			Links: []NavLink{
				{Anchor: "demo", Label: "AI 轉型潛力估值"},
				{Anchor: "marketplace", Label: "智慧交易媒合"},
				{Anchor: "esg-data", Label: "ESG 風險儀表板"},
			},
			Email:     "t114ab8046@ntut.org.tw",
			Phone:     "+886 975 115 913",
			Address:   "台北市大安區忠孝東路三段1號",
			Copyright: "© 2025 嗡動全場團隊. 國立臺北科技大學.",
		},
	}
}
