// Package styles provides shared lipgloss styles for console output.
//
// This package centralizes color definitions so the logger, the list table
// and the interactive prompts render with the same palette.
package styles

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Palette colors
var (
	// Primary is the main accent color (cyan/teal)
	Primary color.Color = lipgloss.Color("62")

	// Accent is the highlight color for selected/active items (pink)
	Accent color.Color = lipgloss.Color("212")

	// Success is used for created/written files and positive outcomes (green)
	Success color.Color = lipgloss.Color("2")

	// Warning is used for removals and warnings (yellow)
	Warning color.Color = lipgloss.Color("3")

	// Error is used for error messages (red)
	Error color.Color = lipgloss.Color("1")

	// Info is the default category color (blue)
	Info color.Color = lipgloss.Color("4")

	// Muted is used for mirrored script output (gray)
	Muted color.Color = lipgloss.Color("8")
)

// Common styles
var (
	Bold         = lipgloss.NewStyle().Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
	AccentStyle  = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	HeaderStyle  = lipgloss.NewStyle().Foreground(Primary).Bold(true)
)

// Class groups log categories by the color they render in.
type Class int

const (
	ClassInfo Class = iota
	ClassSuccess
	ClassWarning
	ClassError
)

// ClassOf returns the color class for a log category.
func ClassOf(category string) Class {
	switch category {
	case "write", "create", "copy", "success", "✓":
		return ClassSuccess
	case "warn", "debug", "remove":
		return ClassWarning
	case "error", "✗":
		return ClassError
	default:
		return ClassInfo
	}
}

// CategoryStyle returns the style used to render a log category label.
func CategoryStyle(category string) lipgloss.Style {
	switch ClassOf(category) {
	case ClassSuccess:
		return SuccessStyle
	case ClassWarning:
		return WarningStyle
	case ClassError:
		return ErrorStyle
	default:
		return InfoStyle
	}
}
