package geofence

import (
	"testing"

	"github.com/dl7ad/pecantrack/internal/model"
)

func TestResolveStaticIsClamped(t *testing.T) {
	r := New()
	hz := r.Resolve(Static(144_800_000), nil)
	if hz != 144_800_000 {
		t.Fatalf("got %d, want 144.800 MHz", hz)
	}

	// A static value far outside the band plan falls back to the first
	// band's default.
	hz = r.Resolve(Static(1), nil)
	if hz != 144_800_000 {
		t.Fatalf("out-of-band static should clamp to band default, got %d", hz)
	}
}

func TestResolveDynamicSanFrancisco(t *testing.T) {
	r := New()
	dp := &model.DataPoint{
		GPSState: model.GPSLockedOn,
		GPSLat:   377749000,   // 37.7749
		GPSLon:   -1224194000, // -122.4194
	}
	hz := r.Resolve(Dynamic(BandAPRSRegional), dp)
	if hz != 144_390_000 {
		t.Fatalf("S1: got %d, want 144.390 MHz", hz)
	}
}

func TestResolveDynamicParisOutOfRegionForNA(t *testing.T) {
	r := New()
	dp := &model.DataPoint{
		GPSState: model.GPSLockedOn,
		GPSLat:   488566000, // 48.8566
		GPSLon:   23522000,  // 2.3522
	}
	hz := r.Resolve(Dynamic(BandAPRSRegional), dp)
	if hz != 144_800_000 {
		t.Fatalf("S2: got %d, want 144.800 MHz", hz)
	}
}

func TestResolveDynamicNoRegionFallsBack(t *testing.T) {
	r := New()
	dp := &model.DataPoint{
		GPSState: model.GPSLockedOn,
		GPSLat:   0,
		GPSLon:   0,
	}
	// (0,0) is outside every configured rectangle.
	hz := r.Resolve(Dynamic(BandAPRSRegional), dp)
	if hz != FallbackAPRS {
		t.Fatalf("got %d, want fallback %d", hz, FallbackAPRS)
	}
}

func TestResolveDynamicStalePositionFallsBack(t *testing.T) {
	r := New()
	dp := &model.DataPoint{
		GPSState: model.GPSError,
		GPSLat:   377749000,
		GPSLon:   -1224194000,
	}
	hz := r.Resolve(Dynamic(BandAPRSRegional), dp)
	if hz != FallbackAPRS {
		t.Fatalf("GPSError with no usable history should fall back, got %d", hz)
	}
}
