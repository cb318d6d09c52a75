// Package monitor checks the boot report printed by the firmware: stage
// order, final clock tree and the LED blink pattern.
package monitor

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"h7boot/host/config"
	"h7boot/protocol"
)

// Problem is one check that failed, tied to the report line it came from.
type Problem struct {
	Line int
	Msg  string
}

func (p Problem) String() string {
	return "line " + strconv.Itoa(p.Line) + ": " + p.Msg
}

// Report is what the monitor has seen so far.
type Report struct {
	Stages   []string
	Clock    *protocol.Record
	LEDs     []protocol.Record
	Console  []string // unframed console output
	Problems []Problem
}

// OK reports whether everything seen so far is as expected.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Complete reports whether bring-up finished and reported its clock tree.
func (r *Report) Complete(stages int) bool {
	return len(r.Stages) == stages && r.Clock != nil
}

// Monitor consumes report lines one at a time.
type Monitor struct {
	cfg    *config.MonitorConfig
	report Report
	line   int
}

// New returns a monitor checking against cfg.
func New(cfg *config.MonitorConfig) *Monitor {
	return &Monitor{cfg: cfg}
}

// Report returns the report built so far.
func (m *Monitor) Report() *Report {
	return &m.report
}

// Done reports whether enough LED records were checked.
func (m *Monitor) Done() bool {
	return len(m.report.LEDs) >= m.cfg.Transitions
}

func (m *Monitor) problem(msg string) {
	m.report.Problems = append(m.report.Problems, Problem{Line: m.line, Msg: msg})
}

// Feed checks one line of console output.
func (m *Monitor) Feed(line string) {
	m.line++
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if line[0] != protocol.LineStart {
		m.report.Console = append(m.report.Console, line)
		return
	}

	rec, err := protocol.Parse(line)
	if err != nil {
		m.problem(errors.Wrapf(err, "bad report line %q", line).Error())
		return
	}

	switch rec.Kind {
	case protocol.KindBoot:
		m.checkBoot(rec)
	case protocol.KindClock:
		m.checkClock(rec)
	case protocol.KindLED:
		m.checkLED(rec)
	}
}

func (m *Monitor) checkBoot(rec protocol.Record) {
	next := len(m.report.Stages)
	if m.report.Clock != nil {
		m.problem("stage " + rec.Stage + " reported after the clock tree")
		return
	}
	if next >= len(m.cfg.Stages) {
		m.problem("unexpected extra stage " + rec.Stage)
		return
	}
	if want := uint32(next + 1); rec.Index != want {
		m.problem("stage " + rec.Stage + " has index " + strconv.Itoa(int(rec.Index)) +
			", want " + strconv.Itoa(int(want)))
	}
	if want := m.cfg.Stages[next]; rec.Stage != want {
		m.problem("stage " + strconv.Itoa(next+1) + " is " + rec.Stage + ", want " + want)
	}
	m.report.Stages = append(m.report.Stages, rec.Stage)
}

func (m *Monitor) checkClock(rec protocol.Record) {
	if m.report.Clock != nil {
		m.problem("clock tree reported twice")
		return
	}
	if n := len(m.report.Stages); n != len(m.cfg.Stages) {
		m.problem("clock tree reported after " + strconv.Itoa(n) + " of " +
			strconv.Itoa(len(m.cfg.Stages)) + " stages")
	}
	check := func(name string, got, want uint32) {
		if got != want {
			m.problem(name + " is " + strconv.FormatUint(uint64(got), 10) +
				" Hz, want " + strconv.FormatUint(uint64(want), 10))
		}
	}
	check("core clock", rec.CoreHz, m.cfg.CoreHz)
	check("AHB clock", rec.AHBHz, m.cfg.AHBHz)
	check("tick rate", rec.TickHz, m.cfg.TickHz)
	m.report.Clock = &rec
}

func (m *Monitor) checkLED(rec protocol.Record) {
	if m.report.Clock == nil {
		m.problem("LED driven before bring-up completed")
	}
	leds := m.report.LEDs
	if len(leds) == 0 {
		if !rec.High {
			m.problem("first LED level is low, want high")
		}
	} else {
		prev := leds[len(leds)-1]
		if rec.High == prev.High {
			m.problem("LED level did not alternate")
		}
		// uint32 distance survives a counter wrap between records.
		if gap := rec.Tick - prev.Tick; gap < m.cfg.BlinkInterval {
			m.problem("LED level held " + strconv.FormatUint(uint64(gap), 10) +
				" ticks, want >= " + strconv.FormatUint(uint64(m.cfg.BlinkInterval), 10))
		}
	}
	m.report.LEDs = append(m.report.LEDs, rec)
}

// Run feeds lines from r until enough LED records were checked. It returns
// an error if r fails or ends first.
func (m *Monitor) Run(r io.Reader) (*Report, error) {
	scanner := bufio.NewScanner(r)
	for !m.Done() && scanner.Scan() {
		m.Feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return &m.report, errors.Wrap(err, "read console")
	}
	if !m.Done() {
		return &m.report, errors.Errorf("console ended after %d of %d LED records",
			len(m.report.LEDs), m.cfg.Transitions)
	}
	return &m.report, nil
}
