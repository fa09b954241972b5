package register

// Flag is a handle to a single bit field.
type Flag struct {
	f *field
}

// Name of the flag.
func (flag *Flag) Name() string {
	return flag.f.name
}

// Value returns the stored state of the flag.
func (flag *Flag) Value() bool {
	return flag.f.value != 0
}

// Set stores the state of the flag directly, bypassing the field mode and
// callbacks. Used by the owning peripheral for hardware side effects.
func (flag *Flag) Set(value bool) {
	if value {
		flag.f.value = 1
	} else {
		flag.f.value = 0
	}
}

// Value is a handle to a multi-bit field.
type Value struct {
	f *field
}

// Name of the field.
func (val *Value) Name() string {
	return val.f.name
}

// Width of the field in bits.
func (val *Value) Width() uint {
	return val.f.width
}

// Value returns the stored value of the field.
func (val *Value) Value() uint32 {
	return val.f.value
}

// Set stores the value of the field directly, truncated to the field width,
// bypassing the field mode and callbacks.
func (val *Value) Set(value uint32) {
	val.f.value = value & val.f.mask()
}
