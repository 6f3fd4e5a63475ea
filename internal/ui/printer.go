package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/protocol"
)

// Field is one key/value line in a header or result box. Slices of Field
// keep their order, unlike maps.
type Field struct {
	Key   string
	Value string
}

// Printer provides methods for printing UI components to a writer.
// This is the primary way CLI commands output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Field) {
	p.Print(RenderHeader(title, command, params, p.width))
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Field) {
	p.Print(RenderSuccessBox(title, details, p.width))
	p.Newline()
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Print(RenderErrorBox(title, err, troubleshooting, p.width))
	p.Newline()
}

// PrintInfo prints controller system info
func (p *Printer) PrintInfo(info protocol.SystemInfo) {
	p.PrintSuccess(info.Model, InfoFields(info)...)
}

// PrintZones prints the configured zones followed by any violated zone
// without a configured sensor.
func (p *Printer) PrintZones(states []accessory.SensorState, unconfigured []int) {
	p.Println(RenderZoneTable(states, unconfigured))
}

// InfoFields lists system info as result box fields
func InfoFields(info protocol.SystemInfo) []Field {
	return []Field{
		{"Model", fmt.Sprintf("%s (code %d)", info.Model, info.ModelCode)},
		{"Firmware", info.Version},
		{"Zones", fmt.Sprint(info.Zones)},
		{"Outputs", fmt.Sprint(info.Outputs)},
		{"Partitions", fmt.Sprint(info.Partitions)},
		{"Objects", fmt.Sprint(info.Objects)},
		{"Timers", fmt.Sprint(info.Timers)},
	}
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params []Field, width int) string {
	titleLine := HeaderTitleStyle.Render(strings.ToUpper(title))
	commandLine := HeaderCommandStyle.Render(command)
	topSection := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(params) == 0 {
		return HeaderBorderStyle(width).Render(topSection)
	}

	var paramLines []string
	for _, f := range params {
		keyStyled := HeaderParamKeyStyle.Render(f.Key + ":")
		valueStyled := HeaderParamValueStyle.Render(f.Value)
		paramLines = append(paramLines, keyStyled+" "+valueStyled)
	}
	paramsSection := strings.Join(paramLines, "\n")

	dividerWidth := width - 6 // Account for border and padding
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := RenderHorizontalDivider(dividerWidth, "─")

	content := lipgloss.JoinVertical(lipgloss.Left, topSection, divider, paramsSection)
	return HeaderBorderStyle(width).Render(content)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details []Field, width int) string {
	var lines []string

	lines = append(lines, SuccessTitleStyle.Render(SuccessMarker+"  "+title))
	lines = append(lines, "")

	for _, f := range details {
		keyStyled := ResultKeyStyle.Render(f.Key + ":")
		valueStyled := ResultValueStyle.Render(f.Value)
		lines = append(lines, keyStyled+" "+valueStyled)
	}

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box with troubleshooting
func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	var lines []string

	lines = append(lines, ErrorTitleStyle.Render(FailureMarker+"  FAILED  ─  "+title))
	lines = append(lines, "")

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+err.Error()))
		lines = append(lines, "")
	}

	if len(troubleshooting) > 0 {
		var troubleLines []string
		troubleLines = append(troubleLines, TroubleshootingTitleStyle.Render("Troubleshooting:"))
		troubleLines = append(troubleLines, "")
		for _, tip := range troubleshooting {
			troubleLines = append(troubleLines, TroubleshootingItemStyle.Render("  • "+tip))
		}
		lines = append(lines, TroubleshootingBoxStyle(width).Render(strings.Join(troubleLines, "\n")))
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderZoneTable renders one line per sensor plus unconfigured violated
// zones.
func RenderZoneTable(states []accessory.SensorState, unconfigured []int) string {
	var lines []string
	for _, s := range states {
		lines = append(lines, renderZoneLine(s.Number, s.Name, s.State, s.Violated))
	}
	for _, n := range unconfigured {
		lines = append(lines, renderZoneLine(n, "(not configured)", "violated", true))
	}
	if len(lines) == 0 {
		return FooterStyle.Render("No zones configured and none violated")
	}
	return strings.Join(lines, "\n")
}

func renderZoneLine(number int, name, state string, violated bool) string {
	marker, style := IdleMarker, ZoneIdleStyle
	if violated {
		marker, style = ViolatedMarker, ZoneViolatedStyle
	}
	return ZoneNumberStyle.Render(fmt.Sprint(number)) +
		ZoneNameStyle.Render(name) +
		style.Render(marker+" "+state)
}
