// Package ui provides styled terminal output for the Cerebras client.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// PrintBanner displays the startup banner for the demonstration CLI.
func PrintBanner(model string) {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Println()
	cyan.Println("╔══════════════════════════════════════════╗")
	cyan.Print("║  ")
	magenta.Print("CEREBRAS")
	fmt.Print(" unofficial chat client")
	cyan.Println("         ║")
	cyan.Print("║  ")
	dim.Printf("model: %-33s", model)
	cyan.Println("║")
	cyan.Println("╚══════════════════════════════════════════╝")
	fmt.Println()
}
