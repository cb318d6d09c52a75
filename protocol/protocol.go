// Package protocol implements the line-framed boot report the firmware
// prints on its debug console and the host monitor reads back.
//
// A line is "$" payload "*" HH, where HH is the CRC-8 of payload in two
// upper-case hex digits. The payload is one space-separated record:
//
//	BOOT <index> <stage>
//	CLOCK <core-hz> <ahb-hz> <tick-hz>
//	LED <0|1> <tick>
package protocol

// Version represents the h7boot firmware version
const Version = "0.1.0"

// Framing constants
const (
	LineStart    = '$'
	ChecksumMark = '*'
	LineMax      = 80 // longest accepted line, framing included
)

// Kind identifies a record type.
type Kind uint8

const (
	KindBoot Kind = iota + 1
	KindClock
	KindLED
)

var kindNames = [...]string{
	KindBoot:  "BOOT",
	KindClock: "CLOCK",
	KindLED:   "LED",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Record is one decoded report line. Only the fields of its Kind are used.
type Record struct {
	Kind Kind

	// KindBoot
	Index uint32
	Stage string

	// KindClock
	CoreHz uint32
	AHBHz  uint32
	TickHz uint32

	// KindLED
	High bool
	Tick uint32
}

// Boot returns the record announcing that bring-up stage index committed.
func Boot(index uint32, stage string) Record {
	return Record{Kind: KindBoot, Index: index, Stage: stage}
}

// Clock returns the record announcing the final clock tree.
func Clock(coreHz, ahbHz, tickHz uint32) Record {
	return Record{Kind: KindClock, CoreHz: coreHz, AHBHz: ahbHz, TickHz: tickHz}
}

// LED returns the record announcing an LED level driven at tick.
func LED(high bool, tick uint32) Record {
	return Record{Kind: KindLED, High: high, Tick: tick}
}
