package domain

// DisplaySettings carries the report appearance options: decimal precision
// for measured values and per-category colors (hex, "#RRGGBB"). Renderers
// take these explicitly; nothing reads ambient process state.
type DisplaySettings struct {
	DecimalPlaces string

	PosBackground string
	NegBackground string
	IndBackground string
	WPBackground  string

	PosText string
	NegText string
	IndText string
	WPText  string
}

// DefaultDisplaySettings matches the viewer's stock palette.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		DecimalPlaces: DecimalPlacesDefault,

		PosBackground: "#FFFFE0",
		NegBackground: "#FFFFFF",
		IndBackground: "#FFFFFF",
		WPBackground:  "#FFF8DC",

		PosText: "#e53935",
		NegText: "#43a047",
		IndText: "#fb8c00",
		WPText:  "#D2691E",
	}
}
