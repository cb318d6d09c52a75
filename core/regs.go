package core

// Register is a 32-bit memory-mapped control/status word.
// On the board this is satisfied by *volatile.Register32; host tests use
// the in-memory registers from core/regsim.
type Register interface {
	Get() uint32
	Set(value uint32)
}

// Bit is a single-bit field at the given position.
type Bit uint8

// Mask returns the bit mask for b.
func (b Bit) Mask() uint32 {
	return 1 << b
}

// IsSet reports whether the bit is set in r.
func (b Bit) IsSet(r Register) bool {
	return r.Get()&b.Mask() != 0
}

// Set sets the bit in r (read-modify-write).
func (b Bit) Set(r Register) {
	r.Set(r.Get() | b.Mask())
}

// Clear clears the bit in r (read-modify-write).
func (b Bit) Clear(r Register) {
	r.Set(r.Get() &^ b.Mask())
}

// Write sets or clears the bit in r.
func (b Bit) Write(r Register, on bool) {
	if on {
		b.Set(r)
	} else {
		b.Clear(r)
	}
}

// Field is a multi-bit field of Width bits starting at Pos.
type Field struct {
	Pos   uint8
	Width uint8
}

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 {
	if f.Width >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<f.Width - 1
}

// Mask returns the in-register mask of the field.
func (f Field) Mask() uint32 {
	return f.Max() << f.Pos
}

// Get extracts the field value from r.
func (f Field) Get(r Register) uint32 {
	return f.Extract(r.Get())
}

// Extract returns the field value contained in a raw register word.
func (f Field) Extract(word uint32) uint32 {
	return (word >> f.Pos) & f.Max()
}

// Insert returns word with the field replaced by value.
// It panics if value does not fit; field values in this firmware are
// build-time constants, so an out-of-range value is a programming error.
func (f Field) Insert(word, value uint32) uint32 {
	if value > f.Max() {
		panic("core: field value " + utoa(value) + " exceeds " + itoa(int(f.Width)) + "-bit field at bit " + itoa(int(f.Pos)))
	}
	return word&^f.Mask() | value<<f.Pos
}

// Set replaces the field in r (read-modify-write).
func (f Field) Set(r Register, value uint32) {
	r.Set(f.Insert(r.Get(), value))
}

// Modify applies fn to the current value of r and writes the result back in
// a single store, the way a multi-field update is done on hardware.
func Modify(r Register, fn func(word uint32) uint32) {
	r.Set(fn(r.Get()))
}
