package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benedict-erwin/ajq/tui"
)

func runTUI(args []string, _, stderr io.Writer) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("api-url", "", "Monitor API URL (e.g., http://localhost:8080)")
	apiKey := fs.String("api-key", "", "API key for authentication")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: ajq tui [--api-url <url>] [--api-key <key>]

Launch the terminal UI monitor.

Flags can also be set via environment variables:
  AJQ_API_URL    Monitor API URL
  AJQ_API_KEY    API key for authentication

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	// Env vars as fallback.
	if *apiURL == "" {
		*apiURL = os.Getenv("AJQ_API_URL")
	}
	if *apiKey == "" {
		*apiKey = os.Getenv("AJQ_API_KEY")
	}
	if *apiURL == "" {
		fmt.Fprintln(stderr, "ajq: --api-url or AJQ_API_URL is required")
		fs.Usage()
		return 1
	}

	client := tui.NewClient(*apiURL, *apiKey)

	// Quick health check before launching TUI.
	if _, err := client.Health(); err != nil {
		fmt.Fprintf(stderr, "ajq: cannot connect to %s: %v\n", *apiURL, err)
		return 1
	}

	if err := tui.Run(client); err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	return 0
}
