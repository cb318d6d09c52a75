package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"

	"h7boot/host/config"
	"h7boot/host/monitor"
	"h7boot/host/serial"
)

const (
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

var (
	configPath  = flag.String("config", "", "JSON monitor configuration (optional)")
	device      = flag.String("device", "/dev/ttyACM0", "Serial device path, or - for stdin")
	baud        = flag.Int("baud", serial.DefaultBaud, "Baud rate of the debug console")
	transitions = flag.Int("transitions", 4, "LED records to check before stopping")
	verbose     = flag.Bool("verbose", false, "Echo every console line")
)

func main() {
	flag.Parse()
	stdout := colorable.NewColorableStdout()
	stderr := colorable.NewColorableStderr()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	port, err := serial.Open(cfg.SerialConfig())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	fmt.Fprintf(stdout, "Watching %s for %d stages and %d LED records...\n",
		cfg.Device, len(cfg.Stages), cfg.Transitions)

	var in io.Reader = port
	if *verbose {
		in = io.TeeReader(port, stdout)
	}
	m := monitor.New(cfg)
	report, runErr := m.Run(in)

	printReport(stdout, cfg, report)
	if runErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
	}
	if runErr != nil || !report.OK() || !report.Complete(len(cfg.Stages)) {
		fmt.Fprintf(stdout, "%sFAIL%s\n", colorRed, colorReset)
		port.Close()
		os.Exit(1)
	}
	fmt.Fprintf(stdout, "%sPASS%s\n", colorGreen, colorReset)
}

// loadConfig reads -config if given, then applies flags set on the command
// line on top of it.
func loadConfig() (*config.MonitorConfig, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["device"] || *configPath == "" {
		cfg.Device = *device
	}
	if set["baud"] {
		cfg.Baud = *baud
	}
	if set["transitions"] {
		cfg.Transitions = *transitions
	}
	return cfg, cfg.Validate()
}

func printReport(w io.Writer, cfg *config.MonitorConfig, r *monitor.Report) {
	fmt.Fprintf(w, "\nStages: %d/%d\n", len(r.Stages), len(cfg.Stages))
	for i, s := range r.Stages {
		fmt.Fprintf(w, "  %2d %s\n", i+1, s)
	}
	if r.Clock != nil {
		fmt.Fprintf(w, "Clock:  core %d Hz, AHB %d Hz, tick %d Hz\n",
			r.Clock.CoreHz, r.Clock.AHBHz, r.Clock.TickHz)
	} else {
		fmt.Fprintln(w, "Clock:  not reported")
	}
	fmt.Fprintf(w, "LED:    %d records\n", len(r.LEDs))
	for _, p := range r.Problems {
		fmt.Fprintf(w, "  %s!%s %s\n", colorRed, colorReset, p)
	}
}
