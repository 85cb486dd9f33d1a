// Package geo holds the map widget data: the fixed industrial parks, the tile
// layers the browser map loads, and point selection.
package geo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

type Park struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Radius      float64 `json:"radius"`
	Description string  `json:"description"`
}

func (p Park) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Parks returns the fixed park markers in display order.
func Parks() []Park {
	return []Park{
		{ID: 1, Name: "桃園觀音工業區", Lat: 25.045, Lng: 121.140, Radius: 2500, Description: "北部最大工業聚落"},
		{ID: 2, Name: "彰化濱海工業區", Lat: 24.110, Lng: 120.430, Radius: 4000, Description: "風力資源豐富"},
		{ID: 3, Name: "高雄大社工業區", Lat: 22.730, Lng: 120.355, Radius: 1500, Description: "石化重鎮"},
		{ID: 4, Name: "新北五股工業區", Lat: 25.070, Lng: 121.455, Radius: 1200, Description: "都市型工業區"},
		{ID: 5, Name: "台中精密機械園區", Lat: 24.145, Lng: 120.600, Radius: 1800, Description: "智慧製造聚落"},
	}
}

// QuickPicks are the location chips shown under the location input.
var QuickPicks = []string{"桃園觀音", "彰化濱海", "高雄大社", "新北五股", "台中精密"}

var geocodeRules = []struct {
	pattern *regexp.Regexp
	parkID  int
}{
	{regexp.MustCompile(`觀音`), 1},
	{regexp.MustCompile(`彰化|濱海`), 2},
	{regexp.MustCompile(`大社|高雄`), 3},
	{regexp.MustCompile(`五股|新北`), 4},
	{regexp.MustCompile(`台中|精密`), 5},
}

// Geocode resolves free-text locations by keyword. Only the park areas are
// known; anything else reports ok=false and the map stays where it is.
func Geocode(location string) (Park, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Park{}, false
	}
	for _, rule := range geocodeRules {
		if rule.pattern.MatchString(location) {
			return ParkByID(rule.parkID)
		}
	}
	return Park{}, false
}

func ParkByID(id int) (Park, bool) {
	for _, p := range Parks() {
		if p.ID == id {
			return p, true
		}
	}
	return Park{}, false
}

type Selection struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Label       string  `json:"label"`
	NearestPark Park    `json:"nearestPark"`
	DistanceM   float64 `json:"distanceMeters"`
	InsidePark  bool    `json:"insidePark"`
}

var ErrInvalidPoint = errors.New("coordinates out of range")

// Select turns a clicked map point into the location string written back into
// the form, annotated with the closest park.
func Select(lat, lng float64) (Selection, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Selection{}, ErrInvalidPoint
	}
	sel := Selection{
		Lat:   lat,
		Lng:   lng,
		Label: Label(lat, lng),
	}
	pt := orb.Point{lng, lat}
	best := math.Inf(1)
	for _, p := range Parks() {
		d := geo.Distance(pt, p.Point())
		if d < best {
			best = d
			sel.NearestPark = p
		}
	}
	sel.DistanceM = math.Round(best)
	sel.InsidePark = best <= sel.NearestPark.Radius
	return sel, nil
}

func Label(lat, lng float64) string {
	return fmt.Sprintf("自選位置 (%.3f, %.3f)", lat, lng)
}
