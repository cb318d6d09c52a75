package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-colorable"

	"h7boot/core/regsim"
	"h7boot/host/sim"
)

var (
	latency = flag.Int("latency", regsim.DefaultLatency, "Register reads before a status change shows")
	blinks  = flag.Int("blinks", 4, "LED levels to drive after bring-up")
	stuck   = flag.String("stuck", "", "Comma separated statuses that never assert (VOSRDY,PLL1RDY,SWS,ACR)")
	trace   = flag.Bool("trace", false, "Print the register access trace to stderr")
	regs    = flag.Bool("regs", false, "Print the final register values to stderr")
)

func main() {
	flag.Parse()
	stdout := colorable.NewColorableStdout()
	stderr := colorable.NewColorableStderr()

	opts := sim.DefaultOptions()
	opts.Latency = *latency
	opts.Blinks = *blinks
	if *stuck != "" {
		opts.Stuck = strings.Split(*stuck, ",")
	}

	chip, err := sim.Run(opts, stdout)
	if *trace {
		regsim.WriteTrace(stderr, chip.Trace())
	}
	if *regs {
		chip.WriteRegisters(stderr)
	}
	if err != nil {
		fmt.Fprintf(stderr, "\x1b[31mError:\x1b[0m %v\n", err)
		os.Exit(1)
	}
}
