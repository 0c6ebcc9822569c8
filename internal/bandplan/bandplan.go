// Package bandplan holds the static amateur-radio band tables the radio
// manager and geofence resolver clamp against (spec §6).
package bandplan

import "fmt"

// Hz is a frequency in hertz. Kept as a plain integer type rather than a
// float so band-plan comparisons stay in the "no floating point in hot
// paths" lane the core design calls for.
type Hz uint32

// Band describes one supported amateur band segment.
type Band struct {
	Name       string
	Start      Hz
	End        Hz
	Step       Hz
	DefaultAPRS Hz
}

// Table is the static band plan: 2 m and 70 cm, per spec §6.
var Table = []Band{
	{Name: "2m", Start: 144_000_000, End: 148_000_000, Step: 12_500, DefaultAPRS: 144_800_000},
	{Name: "70cm", Start: 420_000_000, End: 450_000_000, Step: 12_500, DefaultAPRS: 433_650_000},
}

// ErrOutsideBandPlan reports a frequency that falls in no known band.
// Clamp does not return it: Clamp substitutes a default frequency.
var ErrOutsideBandPlan = fmt.Errorf("bandplan: frequency outside all known bands")

// Contains reports whether hz lies within this band's active range.
func (b Band) Contains(hz Hz) bool { return hz >= b.Start && hz <= b.End }

// Find returns the band containing hz, if any.
func Find(hz Hz) (Band, bool) {
	for _, b := range Table {
		if b.Contains(hz) {
			return b, true
		}
	}
	return Band{}, false
}

// Clamp validates hz against the active band plan. If hz already lies
// inside a known band it is returned unchanged. Otherwise the first
// band's default APRS frequency is returned, matching spec §4.6's
// "if not, return the band's default APRS frequency" rule.
func Clamp(hz Hz) Hz {
	if _, ok := Find(hz); ok {
		return hz
	}
	if len(Table) == 0 {
		return 0
	}
	return Table[0].DefaultAPRS
}
