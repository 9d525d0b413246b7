package enrich

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Moods, densities, contrasts - closed enums with defaults.
const (
	MoodNeutral   = "neutral"
	MoodVibrant   = "vibrant"
	MoodMuted     = "muted"
	MoodDark      = "dark"
	MoodCorporate = "corporate"

	DensityCompact     = "compact"
	DensityComfortable = "comfortable"
	DensitySpacious    = "spacious"

	ContrastLow    = "low"
	ContrastMedium = "medium"
	ContrastHigh   = "high"
)

var validMoods = map[string]bool{
	MoodNeutral: true, MoodVibrant: true, MoodMuted: true, MoodDark: true, MoodCorporate: true,
}
var validDensities = map[string]bool{
	DensityCompact: true, DensityComfortable: true, DensitySpacious: true,
}
var validContrasts = map[string]bool{
	ContrastLow: true, ContrastMedium: true, ContrastHigh: true,
}

// defaultPalette pads user palettes that are too short. Chosen to read well
// on a white canvas across all five zones.
var defaultPalette = []string{
	"#2563EB", // blue
	"#0EA5E9", // sky
	"#10B981", // emerald
	"#F59E0B", // amber
	"#8B5CF6", // violet
	"#64748B", // slate
}

const (
	minPaletteSize = 2
	maxPaletteSize = 8
)

// intent is the resolved aesthetic configuration used during enrichment.
type intent struct {
	palette  []string
	mood     string
	density  string
	contrast string
}

var (
	hexColorRe = regexp.MustCompile(`^#?([0-9a-fA-F]{6}|[0-9a-fA-F]{3})$`)
	rgbColorRe = regexp.MustCompile(`^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
)

// resolveIntent normalizes the optional aesthetic input.
//
// Colors are parsed from hex or rgb() notation and normalized to uppercase
// 6-digit hex; anything unparseable is dropped. The palette is padded from
// the default palette up to the minimum of 2 and capped at 8 entries.
// Unrecognized mood/density/contrast values silently become the defaults.
func resolveIntent(a *Aesthetic) intent {
	out := intent{
		mood:     MoodNeutral,
		density:  DensityComfortable,
		contrast: ContrastMedium,
	}
	if a != nil {
		if validMoods[strings.ToLower(a.Mood)] {
			out.mood = strings.ToLower(a.Mood)
		}
		if validDensities[strings.ToLower(a.Density)] {
			out.density = strings.ToLower(a.Density)
		}
		if validContrasts[strings.ToLower(a.Contrast)] {
			out.contrast = strings.ToLower(a.Contrast)
		}
		for _, c := range a.Colors {
			if len(out.palette) == maxPaletteSize {
				break
			}
			if hex, ok := parseColor(c); ok {
				out.palette = append(out.palette, hex)
			}
		}
	}

	for _, c := range defaultPalette {
		if len(out.palette) >= minPaletteSize {
			break
		}
		if !containsColor(out.palette, c) {
			out.palette = append(out.palette, c)
		}
	}
	return out
}

// parseColor accepts "#RRGGBB", "#RGB", "RRGGBB" and "rgb(r,g,b)" and
// normalizes to "#RRGGBB" uppercase.
func parseColor(s string) (string, bool) {
	s = strings.TrimSpace(s)

	if m := hexColorRe.FindStringSubmatch(s); m != nil {
		hex := strings.ToUpper(m[1])
		if len(hex) == 3 {
			hex = fmt.Sprintf("%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2])
		}
		return "#" + hex, true
	}

	if m := rgbColorRe.FindStringSubmatch(strings.ToLower(s)); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		if r > 255 || g > 255 || b > 255 {
			return "", false
		}
		return fmt.Sprintf("#%02X%02X%02X", r, g, b), true
	}

	return "", false
}

func containsColor(palette []string, c string) bool {
	for _, p := range palette {
		if p == c {
			return true
		}
	}
	return false
}
