// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package sx127x

import "fmt"

// Settings holds the desired and last-applied value of every Field, plus
// the carrier frequency, which is tracked outside the Field table because
// it participates in the erratum 2.3 adjustment (the value actually
// written to REG_FRF* can differ from the value last set by SetFrequencyHz,
// by a bandwidth-dependent offset).
type Settings struct {
	desired [fieldCount]uint32
	applied [fieldCount]uint32

	desiredFreqHz uint32
	appliedFreqHz uint32 // the value actually last written, post-erratum

	erratumActive bool      // whether the erratum 2.3 override was applied last time
	erratumBW     Bandwidth // the bandwidth it was applied for, valid iff erratumActive
}

// NewSettings returns a Settings table loaded with every Field's Reset
// value in both the desired and applied arrays, matching a hardware reset.
func NewSettings() *Settings {
	s := &Settings{}
	for f := Field(0); f < fieldCount; f++ {
		d := fieldTable[f]
		s.desired[f] = d.Reset
		s.applied[f] = d.Reset
	}
	return s
}

// Set writes value into the desired array for field, bounds-checked
// against the field's Min/Max. An out-of-range value is a programmer
// error, not a runtime condition the caller can recover from.
func (s *Settings) Set(field Field, value uint32) {
	d := fieldTable[field]
	if value < d.Min || value > d.Max {
		panic(fmt.Sprintf("sx127x: %s value %d out of range [%d,%d]", d.Name, value, d.Min, d.Max))
	}
	s.desired[field] = value
}

// Get returns the field's desired value.
func (s *Settings) Get(field Field) uint32 { return s.desired[field] }

// SetFrequencyHz records the desired carrier frequency, in Hz.
func (s *Settings) SetFrequencyHz(hz uint32) { s.desiredFreqHz = hz }

// FrequencyHz returns the desired carrier frequency, in Hz.
func (s *Settings) FrequencyHz() uint32 { return s.desiredFreqHz }

// RequireSleep reports whether any Sleep-gated field currently differs
// between desired and applied -- in this table, only FieldLoraMode is
// sleep-gated, but the check is written generically over the table per
// the field-table design note.
func (s *Settings) RequireSleep() bool {
	for f := Field(0); f < fieldCount; f++ {
		if fieldTable[f].SleepOnly && s.desired[f] != s.applied[f] {
			return true
		}
	}
	return false
}
