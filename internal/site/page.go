package site

import (
	"embed"
	"fmt"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/joelkehle/b2g-transformer/internal/content"
	"github.com/joelkehle/b2g-transformer/internal/geo"
	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

//go:embed static
var staticFiles embed.FS

const (
	leafletCSS = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	leafletJS  = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
)

// LandingPage renders every section in page order. The demo form and the map
// are hydrated by /static/app.js.
func LandingPage(site content.Site) g.Node {
	return Doctype(
		HTML(
			Lang("zh-Hant"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Text("B2G Asset Transformer | "+site.Hero.Subtitle)),
				Link(Rel("stylesheet"), Href(leafletCSS)),
				Link(Rel("stylesheet"), Href("/static/style.css")),
				Script(Src(leafletJS), Defer()),
				Script(Src("/static/app.js"), Defer()),
			),
			Body(
				navBar(site.Nav),
				heroSection(site.Hero),
				featuresSection(site.Features),
				demoSection(),
				marketplaceSection(site.Marketplace),
				esgSection(site.ESG),
				marketSection(site.Market),
				teamSection(site.Team),
				footerSection(site.Footer),
			),
		),
	)
}

func navBar(links []content.NavLink) g.Node {
	return Nav(Class("nav"),
		A(Class("brand"), Href("#"), g.Text("B2G "), Span(Class("accent"), g.Text("Transformer"))),
		Div(Class("nav-links"),
			g.Group(g.Map(links, func(l content.NavLink) g.Node {
				return A(Href("#"+l.Anchor), g.Text(l.Label))
			})),
		),
	)
}

func heroSection(h content.Hero) g.Node {
	return Section(Class("hero"),
		Div(Class("container hero-grid"),
			Div(
				Span(Class("badge"), g.Text(h.Badge)),
				H1(g.Text(h.Title), Br(), Span(Class("gradient-text"), g.Text(h.Highlight))),
				H2(g.Text(h.Subtitle)),
				P(Class("lead"), g.Text(h.Lead)),
				Div(Class("cta"),
					A(Class("btn btn-primary"), Href("#demo"), g.Text(h.PrimaryCTA)),
					A(Class("btn btn-ghost"), Href("#marketplace"), g.Text(h.SecondaryCTA)),
				),
			),
			Div(Class("hero-card"),
				Div(Class("hero-card-row"),
					Small(g.Text("Input Asset")),
					Strong(g.Text(h.Demo.InputAsset)),
				),
				Div(Class("hero-card-processing"), g.Text("AI PROCESSING...")),
				Div(Class("hero-card-row green"),
					Small(g.Text("Transformation Strategy")),
					Strong(g.Text(h.Demo.Strategy)),
					Span(Class("irr"), g.Text("IRR "+h.Demo.IRR)),
				),
			),
		),
	)
}

func featuresSection(features []content.Feature) g.Node {
	return Section(ID("solution"), Class("section light"),
		Div(Class("container"),
			sectionHeading("Our Solution", "打造完整的 ESG 金融基礎設施",
				"B2G 不僅是一個估值工具，更是一個生態系。整合銀行、開發商、投資人與政府，打通高碳資產通往綠色資本的最後一哩路。"),
			Div(Class("grid three"),
				g.Group(g.Map(features, func(f content.Feature) g.Node {
					return Div(Class("card feature"), Data("icon", f.Icon),
						H3(g.Text(f.Title)),
						P(g.Text(f.Description)),
					)
				})),
			),
		),
	)
}

func demoSection() g.Node {
	req := valuation.DefaultRequest()
	return Section(ID("demo"), Class("section"),
		Div(Class("container"),
			sectionHeading("AI Valuation Engine", "AI 轉型潛力估值引擎",
				"輸入資產參數或在地圖上點選位置，系統將依序進行空間掃描、法規檢核與財務模擬。"),
			Div(Class("demo-grid"),
				g.El("form", ID("valuation-form"), Class("card form"),
					formField("asset_type", "資產類型", req.AssetType),
					formField("location", "資產位置", req.Location, Placeholder(valuation.LocationPrompt)),
					Div(Class("chips"),
						g.Group(g.Map(geo.QuickPicks, func(q string) g.Node {
							return Button(Type("button"), Class("chip"), Data("location", q), g.Text(q))
						})),
					),
					formField("area", "面積", req.Area),
					formField("current_usage", "目前用途", req.CurrentUsage),
					formField("building_age", "屋齡", req.BuildingAge),
					formField("avg_power_bill", "平均電費", req.AvgPowerBill),
					P(ID("form-error"), Class("form-error"), g.Attr("role", "alert")),
					Button(Type("submit"), Class("btn btn-primary"), g.Text("開始 AI 估值")),
				),
				Div(Class("card map-card"),
					Div(ID("map"), Class("map")),
					Div(Class("map-tools"),
						Button(Type("button"), Class("chip"), Data("layer", geo.LayerSatellite), g.Text("衛星")),
						Button(Type("button"), Class("chip"), Data("layer", geo.LayerStreet), g.Text("街道")),
					),
				),
			),
			Div(ID("progress"), Class("progress"), g.Attr("hidden"),
				Ol(
					g.Group(g.Map(valuation.StageOrder, func(st valuation.Status) g.Node {
						return Li(Data("status", string(st)), g.Text(valuation.StageMessage(st)))
					})),
				),
			),
			Div(ID("report"), Class("report-view"), g.Attr("hidden")),
			P(Class("disclaimer"), g.Text(valuation.Disclaimer)),
		),
	)
}

func formField(name, label, value string, extra ...g.Node) g.Node {
	return g.El("label", Class("field"),
		Span(g.Text(label)),
		Input(append([]g.Node{Type("text"), Name(name), Value(value)}, extra...)...),
	)
}

func marketplaceSection(m content.Marketplace) g.Node {
	return Section(ID("marketplace"), Class("section light"),
		Div(Class("container"),
			sectionHeading("B2G Marketplace", m.Title, m.Lead),
			Div(Class("grid three"),
				g.Group(g.Map(m.Listings, func(l content.Listing) g.Node {
					return Div(Class("card listing"), Data("status", string(l.Status)),
						Div(Class("listing-head"),
							Span(Class("tag brown"), g.Text(l.Type)),
							Span(Class("mono"), g.Text("#"+l.ID)),
						),
						H3(g.Text(l.Location)),
						P(g.Textf("%s · 預估 IRR %s", l.Area, l.PotentialIRR)),
						Div(Class("tags"),
							g.Group(g.Map(l.Tags, func(t string) g.Node {
								return Span(Class("tag green"), g.Text(t))
							})),
						),
						P(Class("muted"), g.Textf("%d 位買家感興趣", l.MatchedInvestors)),
					)
				})),
			),
		),
	)
}

func esgSection(e content.ESG) g.Node {
	return Section(ID("esg-data"), Class("section dark"),
		Div(Class("container esg-grid"),
			Div(
				sectionHeading("Data Intelligence", e.Title, e.Lead),
				g.Group(g.Map(e.Metrics, func(m content.ESGMetric) g.Node {
					return Div(Class("metric "+m.Tone),
						Small(g.Text(m.Label)),
						Strong(g.Text(m.Value)),
						g.If(m.Note != "", Span(g.Text(m.Note))),
					)
				})),
			),
			Div(Class("card dark-card"),
				H3(g.Text("資產組合綠化趨勢")),
				Div(Class("bars"),
					g.Group(g.Map(e.Risk, func(p content.RiskPoint) g.Node {
						return Div(Class("bar"),
							Div(Class("bar-brown"), Style(fmt.Sprintf("height:%d%%", p.Brown))),
							Div(Class("bar-green"), Style(fmt.Sprintf("height:%d%%", p.Green))),
							Small(g.Text(p.Month)),
						)
					})),
				),
			),
		),
	)
}

func marketSection(m content.Market) g.Node {
	peak := 0.0
	for _, p := range m.Revenue {
		if p.Revenue > peak {
			peak = p.Revenue
		}
	}
	return Section(ID("market"), Class("section"),
		Div(Class("container"),
			sectionHeading("Growth Potential", m.Title, m.Lead),
			Div(Class("grid two"),
				Div(Class("card"),
					Small(Class("muted"), g.Text(m.Unit)),
					Div(Class("revenue"),
						g.Group(g.Map(m.Revenue, func(p content.RevenuePoint) g.Node {
							pct := 0.0
							if peak > 0 {
								pct = p.Revenue / peak * 100
							}
							return Div(Class("revenue-row"),
								Span(g.Text(p.Year)),
								Div(Class("revenue-bar"), Style(fmt.Sprintf("width:%.0f%%", pct))),
								Span(g.Textf("%.0f · %s", p.Revenue, p.Label)),
							)
						})),
					),
				),
				Div(Class("grid two stats"),
					g.Group(g.Map(m.Stats, func(c content.StatCard) g.Node {
						return Div(Class("card stat"),
							Small(g.Text(c.Title)),
							Strong(g.Text(c.Value), g.If(c.Unit != "", Span(g.Text(" "+c.Unit)))),
							g.If(c.Note != "", P(Class("muted"), g.Text(c.Note))),
						)
					})),
				),
			),
		),
	)
}

func teamSection(t content.Team) g.Node {
	return Section(ID("team"), Class("section light"),
		Div(Class("container center"),
			sectionHeading("Our Team", t.Title, t.Intro),
			Div(Class("team"),
				g.Group(g.Map(t.Members, func(m content.TeamMember) g.Node {
					return Div(Class("member"),
						Div(Class("avatar"), g.Text(m.Avatar)),
						Strong(g.Text(m.Name)),
					)
				})),
			),
		),
	)
}

func footerSection(f content.Footer) g.Node {
	return Footer(Class("footer"),
		Div(Class("container grid three"),
			Div(
				Strong(g.Text("B2G Asset Transformer")),
				P(g.Text(f.Tagline)),
				P(Class("muted"), g.Text(f.Copyright)),
			),
			Div(
				H4(g.Text("平台功能")),
				Ul(g.Group(g.Map(f.Links, func(l content.NavLink) g.Node {
					return Li(A(Href("#"+l.Anchor), g.Text(l.Label)))
				}))),
			),
			Div(
				H4(g.Text("聯絡資訊")),
				Ul(
					Li(A(Href("mailto:"+f.Email), g.Text(f.Email))),
					Li(g.Text(f.Phone)),
					Li(g.Text(f.Address)),
				),
			),
		),
	)
}

func sectionHeading(kicker, title, lead string) g.Node {
	return Div(Class("section-heading"),
		Span(Class("kicker"), g.Text(kicker)),
		H2(g.Text(title)),
		g.If(lead != "", P(g.Text(lead))),
	)
}
