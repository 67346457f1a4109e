package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
	Bright  = lipgloss.Color("#FAFAFA")

	Status2xx = lipgloss.Color("#00D26A")
	Status3xx = lipgloss.Color("#4D96FF")
	Status4xx = lipgloss.Color("#FFD93D")
	Status5xx = lipgloss.Color("#FF3838")
)

// channelColors gives every discovery channel a stable colour in summaries.
var channelColors = map[string]lipgloss.Color{
	"wordlist":       lipgloss.Color("#4D96FF"),
	"wayback":        lipgloss.Color("#FFD93D"),
	"js_analysis":    lipgloss.Color("#FF6B6B"),
	"internal_links": lipgloss.Color("#6BCB77"),
	"robots_sitemap": lipgloss.Color("#C77DFF"),
}

// Pre-configured styles
var (
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(Bright).
			Bold(true).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(18)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)

	CountStyle = lipgloss.NewStyle().
			Foreground(Bright).
			Bold(true)

	BracketStyle = lipgloss.NewStyle().
			Foreground(Muted)

	PassStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)
)

// ChannelStyle returns the badge style for a discovery channel.
func ChannelStyle(channel string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if c, ok := channelColors[channel]; ok {
		return base.Foreground(c)
	}
	return base.Foreground(Muted)
}

// StatusCodeStyle returns the appropriate style for HTTP status codes
func StatusCodeStyle(code int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch {
	case code >= 200 && code < 300:
		return base.Foreground(Status2xx)
	case code >= 300 && code < 400:
		return base.Foreground(Status3xx)
	case code >= 400 && code < 500:
		return base.Foreground(Status4xx)
	case code >= 500:
		return base.Foreground(Status5xx)
	default:
		return base.Foreground(Muted)
	}
}

// ScoreStyle colours a security header score: green from 70, amber from 40.
func ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 70:
		return PassStyle
	case score >= 40:
		return WarnStyle
	default:
		return FailStyle
	}
}
