package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benedict-erwin/ajq"
)

// demoOptions parameterizes the demo so tests can run it quickly.
type demoOptions struct {
	step  time.Duration // sleep of each unkeyed job
	delay time.Duration // sleep of each keyed job
	jobs  int           // keyed jobs per key
}

func runDemo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to ajq config file (optional)")
	step := fs.Duration("step", time.Second, "Duration of each unkeyed job")
	delay := fs.Duration("delay", 10*time.Millisecond, "Duration of each keyed job")
	jobs := fs.Int("jobs", 100, "Keyed jobs submitted per key")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: ajq demo [--config <file>] [--jobs <n>] [--step <d>] [--delay <d>]

Run two small workloads:
  1. an unkeyed queue with two sleeping jobs and one callback job
  2. a keyed queue with jobs on keys "1" and "2", where key "2" is cancelled

With --config, queues "default" and "keyed" take their settings from the file
and stats are published to Redis when heartbeat.enabled is true.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := &ajq.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = ajq.LoadConfigFile(*configPath); err != nil {
			fmt.Fprintf(stderr, "ajq: %v\n", err)
			return 1
		}
	}
	logger := newLogger(stderr, cfg.App.LogLevel)

	out := &syncWriter{w: stdout}
	opts := demoOptions{step: *step, delay: *delay, jobs: *jobs}
	if err := demo(cfg, logger, out, opts); err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	return 0
}

func demo(cfg *ajq.Config, logger *slog.Logger, out io.Writer, opts demoOptions) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var rc *ajq.RedisClient
	var hbWG sync.WaitGroup
	if cfg.Heartbeat.Enabled {
		rc = ajq.NewRedisClient(cfg.RedisOptions()...)
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return err
		}
		// Runs after the queues below are closed, so the last heartbeat
		// shows them drained.
		defer func() {
			stop()
			hbWG.Wait()
			rc.Close()
		}()
	}
	// publish starts a heartbeat for q that runs until demo returns.
	publish := func(q ajq.StatsSource) {
		if rc == nil {
			return
		}
		hb := ajq.NewHeartbeat(rc, q,
			ajq.WithHeartbeatInterval(cfg.HeartbeatInterval()),
			ajq.WithHeartbeatLogger(logger))
		hbWG.Add(1)
		go func() {
			defer hbWG.Done()
			hb.Run(ctx)
		}()
	}

	// Unkeyed: two sleeping jobs and a job whose result goes to a callback.
	q, err := newDemoQueue(cfg, logger)
	if err != nil {
		return err
	}
	defer q.Close()
	publish(q)

	for _, suffix := range []string{"", "2"} {
		suffix := suffix
		err := q.Submit(func() {
			fmt.Fprintf(out, "Start%s\n", suffix)
			time.Sleep(opts.step)
			fmt.Fprintf(out, "End%s\n", suffix)
		})
		if err != nil {
			return err
		}
	}
	err = ajq.SubmitFunc(q,
		func(result bool) { fmt.Fprintf(out, "Result: %t\n", result) },
		func() bool { return true },
	)
	if err != nil {
		return err
	}
	q.Join()

	// Keyed: both keys get the same jobs, then key "2" is cancelled.
	kq, err := newDemoKeyedQueue(cfg, logger)
	if err != nil {
		return err
	}
	defer kq.Close()
	publish(kq)

	var actual1, actual2 atomic.Int64
	for iter := 0; iter < opts.jobs; iter++ {
		if err := kq.Submit("1", func() {
			time.Sleep(opts.delay)
			actual1.Add(1)
		}); err != nil {
			return err
		}
		if err := kq.Submit("2", func() {
			time.Sleep(opts.delay)
			actual2.Add(1)
		}); err != nil {
			return err
		}
	}
	dropped := kq.Cancel("2")
	kq.Join()

	fmt.Fprintf(out, "Actual 1: %d\n", actual1.Load())
	fmt.Fprintf(out, "Actual 2: %d\n", actual2.Load())
	logger.Info("demo finished", "cancelled", dropped)
	return nil
}

func newDemoQueue(cfg *ajq.Config, logger *slog.Logger) (*ajq.Queue, error) {
	if _, ok := cfg.Queue("default"); ok {
		return ajq.NewFromConfig(cfg, "default", ajq.WithLogger(logger))
	}
	return ajq.New(ajq.WithName("default"), ajq.WithLogger(logger))
}

func newDemoKeyedQueue(cfg *ajq.Config, logger *slog.Logger) (*ajq.KeyedQueue[string], error) {
	if _, ok := cfg.Queue("keyed"); ok {
		return ajq.NewKeyedFromConfig[string](cfg, "keyed", ajq.WithLogger(logger))
	}
	return ajq.NewKeyed[string](ajq.WithName("keyed"), ajq.WithLogger(logger))
}

// newLogger creates a text logger on w. Unknown or empty levels mean info.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// syncWriter serializes writes from concurrent jobs.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
