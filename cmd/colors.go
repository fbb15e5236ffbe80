package cmd

import (
	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorHeading = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func formatRiskWithColor(risk scan.RiskLevel) string {
	switch risk {
	case scan.RiskHigh:
		return colorError(string(risk))
	case scan.RiskMedium:
		return colorWarn(string(risk))
	case scan.RiskLow:
		return colorSuccess(string(risk))
	default:
		return string(risk)
	}
}

func formatStatusWithColor(status scan.Status) string {
	switch status {
	case scan.StatusSafe:
		return colorSuccess(string(status))
	case scan.StatusRisky:
		return colorError(string(status))
	case scan.StatusUnknown:
		return colorInfo(string(status))
	default:
		return string(status)
	}
}
