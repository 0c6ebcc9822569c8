// Package geofence maps a position to an APRS frequency, validating the
// result against the active band plan (spec §4.3).
package geofence

import (
	"github.com/dl7ad/pecantrack/internal/bandplan"
	"github.com/dl7ad/pecantrack/internal/model"
)

// FrequencyKind tags the FrequencyDescriptor variant, following the
// small-tagged-variant guidance in the design notes instead of an
// interface hierarchy.
type FrequencyKind uint8

const (
	KindStatic FrequencyKind = iota
	KindDynamic
)

// Band identifies a dynamically-resolved frequency family.
type Band uint8

const (
	BandAPRSRegional Band = iota
)

// FrequencyDescriptor is either a fixed Hz value or a request to resolve
// against the regional APRS table using the latest known position.
type FrequencyDescriptor struct {
	Kind   FrequencyKind
	Static bandplan.Hz
	Band   Band
}

// Static builds a fixed-frequency descriptor.
func Static(hz bandplan.Hz) FrequencyDescriptor {
	return FrequencyDescriptor{Kind: KindStatic, Static: hz}
}

// Dynamic builds a regionally-resolved descriptor.
func Dynamic(b Band) FrequencyDescriptor {
	return FrequencyDescriptor{Kind: KindDynamic, Band: b}
}

// Region is one rectangular geofence entry. Polygonal regions are not
// needed by the currently-wired table but Contains is written so a
// region could grow a point list without changing callers.
type Region struct {
	Name        string
	MinLat      int32 // 1e-7 degrees
	MaxLat      int32
	MinLon      int32
	MaxLon      int32
	DefaultAPRS bandplan.Hz
}

// Contains reports whether (lat, lon), in 1e-7 degree units, falls
// inside the region's rectangle. Pure integer comparison, per the
// "no floating point in hot paths" non-goal.
func (r Region) Contains(lat, lon int32) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lon >= r.MinLon && lon <= r.MaxLon
}

// Regions is the externally-specified APRS regional table (open
// question (c) in the design notes: treated as authoritative). Values
// are the widely-used primary APRS frequencies per continent.
var Regions = []Region{
	{Name: "NA", MinLat: 70_000_000, MaxLat: 830_000_000, MinLon: -1_800_000_000, MaxLon: -300_000_000, DefaultAPRS: 144_390_000},
	{Name: "EU", MinLat: 350_000_000, MaxLat: 720_000_000, MinLon: -300_000_000, MaxLon: 400_000_000, DefaultAPRS: 144_800_000},
	{Name: "AU", MinLat: -500_000_000, MaxLat: -100_000_000, MinLon: 1_100_000_000, MaxLon: 1_550_000_000, DefaultAPRS: 145_175_000},
	{Name: "JP", MinLat: 240_000_000, MaxLat: 460_000_000, MinLon: 1_220_000_000, MaxLon: 1_460_000_000, DefaultAPRS: 144_640_000},
}

// FallbackAPRS is used when no region matches and no Static override
// applies.
const FallbackAPRS bandplan.Hz = 144_800_000

// Resolver resolves FrequencyDescriptors against the region table.
type Resolver struct {
	regions  []Region
	fallback bandplan.Hz
}

// New builds a Resolver over the default regional table.
func New() *Resolver {
	return &Resolver{regions: Regions, fallback: FallbackAPRS}
}

// NewWithTable builds a Resolver over a caller-supplied table, useful
// for tests and for boards that only carry a subset of regions.
func NewWithTable(regions []Region, fallback bandplan.Hz) *Resolver {
	return &Resolver{regions: regions, fallback: fallback}
}

// Resolve implements spec §4.3's contract: Static values pass through
// (still clamped to the band plan); Dynamic values pick a region by the
// DataPoint's last known lat/lon, falling back to the configured default
// when no region matches or the position is stale/invalid (GPS state not
// locked and not a usable last-known fix).
func (r *Resolver) Resolve(fd FrequencyDescriptor, dp *model.DataPoint) bandplan.Hz {
	if fd.Kind == KindStatic {
		return bandplan.Clamp(fd.Static)
	}

	if dp == nil || !positionUsable(dp) {
		return bandplan.Clamp(r.fallback)
	}

	for _, region := range r.regions {
		if region.Contains(dp.GPSLat, dp.GPSLon) {
			return bandplan.Clamp(region.DefaultAPRS)
		}
	}
	return bandplan.Clamp(r.fallback)
}

// positionUsable mirrors spec §4.1/§4.3: a position is only fit to drive
// frequency selection if it came from a lock, from the log fallback, or
// from a decoded APRS fix — not from a hard GPS error with no history.
func positionUsable(dp *model.DataPoint) bool {
	switch dp.GPSState {
	case model.GPSLockedOn, model.GPSFromLog, model.GPSFromAPRSFix:
		return dp.GPSLat != 0 || dp.GPSLon != 0
	default:
		return false
	}
}
