package geo

type TileLayer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Attribution string   `json:"attribution"`
	Subdomains  []string `json:"subdomains,omitempty"`
	MaxZoom     int      `json:"maxZoom"`
	OverlayURL  string   `json:"overlayUrl,omitempty"`
}

type LegendItem struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type MapConfig struct {
	Center       [2]float64   `json:"center"`
	Zoom         int          `json:"zoom"`
	SelectZoom   int          `json:"selectZoom"`
	DefaultLayer string       `json:"defaultLayer"`
	Layers       []TileLayer  `json:"layers"`
	Legend       []LegendItem `json:"legend"`
}

const (
	LayerSatellite = "satellite"
	LayerStreet    = "street"
	maxZoom        = 19
)

func Layers() []TileLayer {
	return []TileLayer{
		{
			ID:          LayerSatellite,
			Name:        "衛星影像",
			URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
			OverlayURL:  "https://server.arcgisonline.com/ArcGIS/rest/services/Reference/World_Boundaries_and_Places/MapServer/tile/{z}/{y}/{x}",
			Attribution: "Tiles &copy; Esri",
			MaxZoom:     maxZoom,
		},
		{
			ID:          LayerStreet,
			Name:        "街道地圖",
			URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
			Attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
			Subdomains:  []string{"a", "b", "c", "d"},
			MaxZoom:     maxZoom,
		},
	}
}

// Config is everything the browser map needs to initialise.
func Config() MapConfig {
	return MapConfig{
		Center:       [2]float64{23.8, 120.9},
		Zoom:         8,
		SelectZoom:   16,
		DefaultLayer: LayerSatellite,
		Layers:       Layers(),
		Legend: []LegendItem{
			{Label: "工業區範圍", Color: "#10b981"},
			{Label: "選定資產", Color: "#ef4444"},
		},
	}
}
