// Binary ajq provides CLI utilities for ajq job queues.
//
// Usage:
//
//	ajq <command> [arguments]
//
// Commands:
//
//	init [--config <file>]                        Generate a config file
//	demo [--config <file>]                        Run the demo workload
//	stats --config <file> [--queue <name>]        Print published queue stats
//	monitor --config <file>                       Serve the monitoring HTTP API
//	tui                                           Launch the terminal UI monitor
//	add-api-key --config <file> --name <name>     Generate and add an API key
//	revoke-api-key --config <file> --name <name>  Remove an API key
//	generate-api-key                              Generate API key (stdout)
//	version                                       Print the ajq version
//	help                                          Show this help message
package main

import (
	"fmt"
	"io"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return 0
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], stdout, stderr)
	case "demo":
		return runDemo(args[1:], stdout, stderr)
	case "stats":
		return runStats(args[1:], stdout, stderr)
	case "monitor":
		return runMonitor(args[1:], stdout, stderr)
	case "tui":
		return runTUI(args[1:], stdout, stderr)
	case "add-api-key":
		return runAddAPIKey(args[1:], stdout, stderr)
	case "revoke-api-key":
		return runRevokeAPIKey(args[1:], stdout, stderr)
	case "generate-api-key":
		return runGenerateAPIKey(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "ajq %s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "ajq: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `ajq - async job queue CLI

Usage:
  ajq <command> [arguments]

Setup:
  init [--config <file>]                          Generate a config file (default: ajq.yaml)

Running:
  demo [--config <file>]                          Run the demo workload, publishing stats if enabled
  monitor --config <file>                         Serve the monitoring HTTP API

Inspecting:
  stats --config <file> [--queue <name>] [--json] Print stats published to Redis
  tui                                             Launch the terminal UI monitor

Config Management:
  add-api-key --config <file> --name <name>       Generate and add an API key
  revoke-api-key --config <file> --name <name>    Remove an API key
  generate-api-key                                Generate API key to stdout

Other:
  version                                         Print the ajq version
  help                                            Show this help message
`)
}
