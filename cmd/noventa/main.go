package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐┌┌─┐┬  ┬┌─┐┌┐┌┌┬┐┌─┐
  ││││ │└┐┌┘├┤ │││ │ ├─┤
  ┘└┘└─┘ └┘ └─┘┘└┘ ┴ ┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "noventa",
		Short: "Component server-rendering engine",
		Long: `Noventa renders pages from HTML component templates with
server-side logic modules.

  • File-based routing over the pages directory
  • Two-phase form protocol: one server action per request
  • Script runtime worker pool
  • Adaptive load shedding under latency pressure
  • Hot reload development server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		serveCmd(),
		devCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
