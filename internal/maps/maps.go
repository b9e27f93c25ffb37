// Package maps builds Google Maps URLs for room locations. The builders are
// pure; rendering and fetching stay with the caller.
package maps

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// Builder produces map URLs with a fixed API key. A zero key disables the
// static map preview but not the directions link, which needs no key.
type Builder struct {
	apiKey string
}

// NewBuilder constructs a Builder for the given API key.
func NewBuilder(apiKey string) *Builder {
	return &Builder{apiKey: strings.TrimSpace(apiKey)}
}

// StaticMapURL returns a static map preview centered on the coordinates with
// a single labelled marker, or empty when no API key is configured. The
// marker shows the first letter of label, falling back to "R".
func (b *Builder) StaticMapURL(lat, lng float64, label string) string {
	if b == nil || b.apiKey == "" {
		return ""
	}

	coords := formatCoords(lat, lng)
	values := url.Values{}
	values.Set("key", b.apiKey)
	values.Set("size", "600x300")
	values.Set("scale", "2")
	values.Set("zoom", "17")
	values.Set("maptype", "roadmap")
	values.Set("markers", fmt.Sprintf("color:0x0054A4|label:%s|%s", markerLabel(label), coords))

	// The Maps API wants literal pipes in the markers parameter.
	query := strings.ReplaceAll(values.Encode(), "%7C", "|")
	return "https://maps.googleapis.com/maps/api/staticmap?" + query
}

// DirectionsURL returns a universal link that opens the coordinates in
// Google Maps.
func (b *Builder) DirectionsURL(lat, lng float64) string {
	coords := url.QueryEscape(formatCoords(lat, lng))
	return "https://www.google.com/maps/search/?api=1&query=" + coords
}

// EmbeddedMapURL returns the iframe source for an embedded place view, or
// empty when no API key is configured.
func (b *Builder) EmbeddedMapURL(lat, lng float64) string {
	if b == nil || b.apiKey == "" {
		return ""
	}
	coords := url.QueryEscape(formatCoords(lat, lng))
	return fmt.Sprintf("https://www.google.com/maps/embed/v1/place?key=%s&q=%s&zoom=18&maptype=roadmap", url.QueryEscape(b.apiKey), coords)
}

func markerLabel(label string) string {
	for _, r := range strings.TrimSpace(label) {
		return string(unicode.ToUpper(r))
	}
	return "R"
}

func formatCoords(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
