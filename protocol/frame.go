package protocol

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNoLineStart    = errors.New("line does not start with '$'")
	ErrNoChecksum     = errors.New("line has no checksum")
	ErrBadChecksum    = errors.New("checksum mismatch")
	ErrLineTooLong    = errors.New("line too long")
	ErrUnknownRecord  = errors.New("unknown record kind")
	ErrMalformedField = errors.New("malformed record field")
)

const hexDigits = "0123456789ABCDEF"

// Frame wraps payload into a report line (without the trailing newline).
func Frame(payload string) string {
	sum := Checksum([]byte(payload))
	buf := make([]byte, 0, len(payload)+4)
	buf = append(buf, LineStart)
	buf = append(buf, payload...)
	buf = append(buf, ChecksumMark, hexDigits[sum>>4], hexDigits[sum&0xF])
	return string(buf)
}

// Unframe checks a line's framing and checksum and returns its payload.
// Surrounding whitespace (including "\r\n") is ignored.
func Unframe(line string) (string, error) {
	line = strings.TrimSpace(line)
	if len(line) > LineMax {
		return "", ErrLineTooLong
	}
	if len(line) == 0 || line[0] != LineStart {
		return "", ErrNoLineStart
	}
	star := strings.LastIndexByte(line, ChecksumMark)
	if star < 0 || len(line)-star != 3 {
		return "", ErrNoChecksum
	}
	payload := line[1:star]
	want, err := strconv.ParseUint(line[star+1:], 16, 8)
	if err != nil {
		return "", ErrNoChecksum
	}
	if Checksum([]byte(payload)) != uint8(want) {
		return "", ErrBadChecksum
	}
	return payload, nil
}

// Format renders r as a framed report line.
func Format(r Record) string {
	buf := make([]byte, 0, LineMax)
	buf = append(buf, r.Kind.String()...)
	switch r.Kind {
	case KindBoot:
		buf = append(buf, ' ')
		buf = strconv.AppendUint(buf, uint64(r.Index), 10)
		buf = append(buf, ' ')
		buf = append(buf, r.Stage...)
	case KindClock:
		for _, v := range [...]uint32{r.CoreHz, r.AHBHz, r.TickHz} {
			buf = append(buf, ' ')
			buf = strconv.AppendUint(buf, uint64(v), 10)
		}
	case KindLED:
		if r.High {
			buf = append(buf, " 1 "...)
		} else {
			buf = append(buf, " 0 "...)
		}
		buf = strconv.AppendUint(buf, uint64(r.Tick), 10)
	}
	return Frame(string(buf))
}

// Parse decodes a framed report line.
func Parse(line string) (Record, error) {
	payload, err := Unframe(line)
	if err != nil {
		return Record{}, err
	}
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return Record{}, ErrUnknownRecord
	}

	var r Record
	switch fields[0] {
	case "BOOT":
		if len(fields) != 3 {
			return Record{}, ErrMalformedField
		}
		r.Kind = KindBoot
		if r.Index, err = parseUint32(fields[1]); err != nil {
			return Record{}, err
		}
		r.Stage = fields[2]
	case "CLOCK":
		if len(fields) != 4 {
			return Record{}, ErrMalformedField
		}
		r.Kind = KindClock
		for i, dst := range [...]*uint32{&r.CoreHz, &r.AHBHz, &r.TickHz} {
			if *dst, err = parseUint32(fields[i+1]); err != nil {
				return Record{}, err
			}
		}
	case "LED":
		if len(fields) != 3 {
			return Record{}, ErrMalformedField
		}
		r.Kind = KindLED
		switch fields[1] {
		case "0":
		case "1":
			r.High = true
		default:
			return Record{}, ErrMalformedField
		}
		if r.Tick, err = parseUint32(fields[2]); err != nil {
			return Record{}, err
		}
	default:
		return Record{}, ErrUnknownRecord
	}
	return r, nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ErrMalformedField
	}
	return uint32(v), nil
}
