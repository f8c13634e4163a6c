package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

const configTemplate = `# ajq configuration

# Redis is only used to publish queue stats for the monitor, the TUI and
# "ajq stats". Queued jobs never leave the process.
redis:
  addr: "localhost:6379"
  password: ""
  db: 0
  prefix: "ajq"   # Key prefix for all ajq data in Redis

app:
  log_level: "info"            # debug, info, warn, error

# Queue definitions
queues:
  - name: "default"
    workers: 0                 # 0 = 2 x CPU count
  - name: "keyed"
    workers: 4
    strict_join: false         # true = Join(keys) also waits for the whole pending queue

# Periodic stats publishing to Redis
heartbeat:
  enabled: false
  interval: 5                  # seconds; published data expires after 3 intervals

# Monitoring HTTP API
monitoring:
  api:
    enabled: false
    addr: ":8080"
    rate_limit: 100            # requests per second per client IP
  auth:
    enabled: false
    # api_keys:
    #   - name: "my-key"
    #     key: ""              # Generate with: ajq generate-api-key
`

// initConfig writes the config template to path. It never overwrites.
func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists (will not overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "ajq.yaml", "Path for the new config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: ajq init [--config <file>]

Generate an ajq config file with defaults and documentation comments.
Default output: ajq.yaml in the current directory.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if err := initConfig(*configPath); err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Config file created: %s\n\n", *configPath)
	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintln(stdout, "  1. Edit the config file to match your environment")
	fmt.Fprintln(stdout, "  2. Protect the monitor API:")
	fmt.Fprintln(stdout, "       ajq add-api-key --config "+*configPath+" --name my-key")
	fmt.Fprintln(stdout, "  3. Try it out:")
	fmt.Fprintln(stdout, "       ajq demo --config "+*configPath)
	return 0
}
