package regsim

import (
	"fmt"
	"io"
)

// WriteTrace prints the trace, one access per line.
func WriteTrace(w io.Writer, events []Event) error {
	for _, e := range events {
		var err error
		if e.Op == Mark {
			_, err = fmt.Fprintf(w, "%5d -- %s\n", e.Seq, e.Label)
		} else {
			_, err = fmt.Fprintf(w, "%5d %s  %-14s 0x%08x\n", e.Seq, e.Op, e.Reg, e.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteRegisters prints the current value of every register.
func (c *Chip) WriteRegisters(w io.Writer) error {
	for _, name := range c.order {
		if _, err := fmt.Fprintf(w, "%-14s 0x%08x\n", name, c.regs[name].value); err != nil {
			return err
		}
	}
	return nil
}
