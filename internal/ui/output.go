package ui

import (
	"fmt"
	"os"
)

// RunErrorCount and RunWarningCount track errors/warnings during a run.
var RunErrorCount int
var RunWarningCount int

// Verbose gates PrintVerbose output. Set once from the parsed config.
var Verbose bool

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorGreen, SymbolCheck, ColorReset, msg, ColorReset)
}

// PrintError prints an error message to stderr and increments the error counter.
func PrintError(msg string) {
	RunErrorCount++
	fmt.Fprintf(os.Stderr, "%s%s%s %s%s\n", ColorRed, SymbolCross, ColorReset, msg, ColorReset)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorBlue, SymbolInfo, ColorReset, msg, ColorReset)
}

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount++
	fmt.Printf("%s%s%s %s%s\n", ColorYellow, SymbolWarning, ColorReset, msg, ColorReset)
}

// PrintDownload prints a download message.
func PrintDownload(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorCyan, SymbolDownload, ColorReset, msg, ColorReset)
}

// PrintAuth prints an authentication step.
func PrintAuth(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorPurple, SymbolKey, ColorReset, msg, ColorReset)
}

// PrintVerbose prints a dimmed diagnostic line when Verbose is set.
func PrintVerbose(msg string) {
	if !Verbose {
		return
	}
	fmt.Printf("%s%s%s %s\n", ColorPurple, SymbolGear, ColorReset, msg)
}

// DescribeSimulate returns a human-readable run mode.
func DescribeSimulate(simulate bool) string {
	if simulate {
		return "Simulation (nothing is downloaded)"
	}
	return "Download"
}
