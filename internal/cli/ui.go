package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan  = lipgloss.Color("36")  // route line, selection
	colorGreen = lipgloss.Color("35")  // start marker, success
	colorRed   = lipgloss.Color("167") // end marker, failure
	colorBlue  = lipgloss.Color("75")  // commands
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight marks the chosen node or the active floor.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for node ids, paths and other data.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleFloor   = lipgloss.NewStyle().Foreground(colorGray).Width(9)
	styleStart   = lipgloss.NewStyle().Foreground(colorGreen)
	styleEnd     = lipgloss.NewStyle().Foreground(colorRed)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconStairs  = "⇅"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Routes
// =============================================================================

// printRoute prints one line per floor the route visits, with the start
// and end nodes colored like the markers on the rendered floor plans.
func printRoute(rt *pipeline.Route) {
	for i, seg := range rt.Segments {
		nodes := make([]string, len(seg.Nodes))
		for j, id := range seg.Nodes {
			switch {
			case i == 0 && j == 0:
				nodes[j] = styleStart.Render(id)
			case i == len(rt.Segments)-1 && j == len(seg.Nodes)-1:
				nodes[j] = styleEnd.Render(id)
			default:
				nodes[j] = StyleValue.Render(id)
			}
		}
		line := styleFloor.Render(fmt.Sprintf("floor %d", seg.Floor)) + strings.Join(nodes, StyleDim.Render(" "+iconArrow+" "))
		if i < len(rt.Segments)-1 {
			line += " " + StyleHighlight.Render(iconStairs)
		}
		fmt.Println("  " + line)
	}
	printKeyValue("Cost", routeCost(rt))
}

// routeCost describes the cost of rt, e.g. "6200.0 across 1 floor change".
func routeCost(rt *pipeline.Route) string {
	switch rt.Crossings {
	case 0:
		return fmt.Sprintf("%.1f on floor %d", rt.Cost, firstFloor(rt))
	case 1:
		return fmt.Sprintf("%.1f across 1 floor change", rt.Cost)
	default:
		return fmt.Sprintf("%.1f across %d floor changes", rt.Cost, rt.Crossings)
	}
}

func firstFloor(rt *pipeline.Route) int {
	if len(rt.Segments) == 0 {
		return 0
	}
	return rt.Segments[0].Floor
}

// =============================================================================
// Stats
// =============================================================================

// printGraphStats prints the size of a building on a single line.
func printGraphStats(g *building.Graph) {
	printStatsLine(graphStats(g))
}

func graphStats(g *building.Graph) []string {
	return []string{
		plural(g.NodeCount(), "node"),
		plural(g.EdgeCount(), "edge"),
		plural(len(g.Floors()), "floor"),
	}
}

// printRunStats prints where each pipeline stage came from and how long
// the run took.
func printRunStats(res *pipeline.Result) {
	printStatsLine(runStats(res))
}

func runStats(res *pipeline.Result) []string {
	stage := func(name string, hit bool) string {
		if hit {
			return name + " cached"
		}
		return name + " fresh"
	}
	total := res.Stats.LoadTime + res.Stats.RouteTime + res.Stats.RenderTime
	return []string{
		plural(res.Stats.NodeCount, "node"),
		stage("route", res.CacheInfo.RouteHit),
		stage("render", res.CacheInfo.RenderHit),
		total.Round(time.Millisecond).String(),
	}
}

func printStatsLine(parts []string) {
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
