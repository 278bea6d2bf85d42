// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Jade - Brand color, prices, selections
var Jade = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}

// JadeDeep - Darker jade for backgrounds
var JadeDeep = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#064E3B"}

// Coral - Claim actions, bot messages
var Coral = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}

// Sand - Warnings, pending states
var Sand = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Lagoon - Informational accents, user messages
var Lagoon = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1C1917"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F4", Dark: "#171412"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E7E5E4", Dark: "#44403C"}

// =============================================================================
// TEXT COLORS
// =============================================================================

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1C1917", Dark: "#E7E5E4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#57534E", Dark: "#A8A29E"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#A8A29E", Dark: "#78716C"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet contains ASCII indicators so status never depends on
// color alone.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
}

// StatusIndicators is the indicator set used by the Render helpers.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}

// RenderSuccess renders message with the success indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Jade).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders message with the error indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders message with the warning indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Sand).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders message with the info indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Lagoon).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}

// RenderStatus picks RenderSuccess or RenderError.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}
