package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/benedict-erwin/ajq"
	"github.com/benedict-erwin/ajq/tui"
)

func runStats(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to ajq config file (required)")
	queue := fs.String("queue", "", "Show one queue including its per-key counts")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: ajq stats --config <file> [--queue <name>] [--json]

Print the queue stats last published to Redis by running queues.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" {
		fs.Usage()
		return 1
	}

	cfg, err := ajq.LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	rc := ajq.NewRedisClient(cfg.RedisOptions()...)
	defer rc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if *queue != "" {
		ps, err := ajq.ReadQueueStats(ctx, rc, *queue)
		if errors.Is(err, ajq.ErrStatsNotFound) {
			fmt.Fprintf(stderr, "ajq: no live stats for queue %q\n", *queue)
			return 1
		}
		if err != nil {
			fmt.Fprintf(stderr, "ajq: %v\n", err)
			return 1
		}
		if *asJSON {
			return writeJSON(stdout, stderr, ps)
		}
		width := terminalWidth(stdout)
		fmt.Fprint(stdout, tui.RenderStats([]ajq.PublishedStats{*ps}, width))
		if ps.Keyed {
			fmt.Fprintln(stdout)
			fmt.Fprint(stdout, tui.RenderKeys(ps.Keys, width))
		}
		return 0
	}

	stats, err := ajq.ReadStats(ctx, rc)
	if err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	if *asJSON {
		return writeJSON(stdout, stderr, stats)
	}
	if len(stats) == 0 {
		fmt.Fprintln(stdout, "No queues are publishing stats. Enable heartbeat in the config.")
		return 0
	}
	fmt.Fprint(stdout, tui.RenderStats(stats, terminalWidth(stdout)))
	return 0
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "ajq: encoding json: %v\n", err)
		return 1
	}
	return 0
}

// terminalWidth returns the width of w when it is a terminal, or 0 for
// unlimited.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
