// Package ui renders CLI output with lipgloss and runs the Bubble Tea
// zone watch view.
//
// One-shot commands (info, zones, scan) print through a Printer: a header
// box, then a success or error box. The watch command runs WatchModel,
// which redraws the zone table on every snapshot.
package ui
