package fare

import (
	"math"
	"testing"
	"time"

	"github.com/zhans-k/ride-dispatch/config"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

func testConfig() config.FareConfig {
	return config.FareConfig{
		MotoBase:      300,
		MotoPerKm:     60,
		StandardBase:  500,
		StandardPerKm: 100,
		PremiumBase:   800,
		PremiumPerKm:  150,

		MorningPeakMultiplier: 1.20,
		EveningPeakMultiplier: 1.35,
		LateNightMultiplier:   1.25,
		LowDemandFactor:       0.9,

		CommissionPct: 0.20,
	}
}

// noJitter pins the congestion draw to exactly 1.0:
// jitterMin + x*(jitterMax-jitterMin) = 1.0 for x = (1-0.95)/0.15.
func noJitter() float64 {
	return (1.0 - jitterMin) / (jitterMax - jitterMin)
}

// 09:00 on a Wednesday: morning peak, no low-demand factor.
var morningPeak = time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)

// 14:00 on a Wednesday: off-peak.
var offPeak = time.Date(2025, time.March, 5, 14, 0, 0, 0, time.UTC)

func TestEstimate_OffPeakStandard(t *testing.T) {
	e := NewWithRandom(testConfig(), noJitter)

	got := e.Estimate(10, types.StandardClass, offPeak)
	want := int64(500 + 10*100)
	if got != want {
		t.Fatalf("off-peak standard fare: got %d, want %d", got, want)
	}
}

func TestEstimate_MorningPeakScenario(t *testing.T) {
	// distance=10, class=standard, 09:00 on a non-designated weekday:
	// fare = (base + 10*perKm) * morning peak multiplier.
	e := NewWithRandom(testConfig(), noJitter)

	got := e.Estimate(10, types.StandardClass, morningPeak)
	want := int64(math.Round((500 + 10*100) * 1.20))
	if got != want {
		t.Fatalf("morning peak fare: got %d, want %d", got, want)
	}
}

func TestEstimate_EveningPeakIsLarger(t *testing.T) {
	e := NewWithRandom(testConfig(), noJitter)

	evening := time.Date(2025, time.March, 5, 18, 30, 0, 0, time.UTC)
	morning := e.Estimate(10, types.StandardClass, morningPeak)
	eveningFare := e.Estimate(10, types.StandardClass, evening)

	if eveningFare <= morning {
		t.Fatalf("evening peak (%d) must exceed morning peak (%d)", eveningFare, morning)
	}
}

func TestEstimate_LateNightWindow(t *testing.T) {
	e := NewWithRandom(testConfig(), noJitter)

	for _, hour := range []int{23, 0, 3, 4} {
		at := time.Date(2025, time.March, 5, hour, 0, 0, 0, time.UTC)
		got := e.Estimate(10, types.StandardClass, at)
		want := int64(math.Round((500 + 10*100) * 1.25))
		if got != want {
			t.Errorf("late night fare at %02d:00: got %d, want %d", hour, got, want)
		}
	}

	// 05:00 is outside the late-night window
	at := time.Date(2025, time.March, 5, 5, 0, 0, 0, time.UTC)
	if got, want := e.Estimate(10, types.StandardClass, at), int64(1500); got != want {
		t.Errorf("05:00 fare: got %d, want %d", got, want)
	}
}

func TestEstimate_LowDemandWeekday(t *testing.T) {
	e := NewWithRandom(testConfig(), noJitter)

	// Tuesday, off-peak: the low-demand factor applies on its own.
	tuesday := time.Date(2025, time.March, 4, 14, 0, 0, 0, time.UTC)
	got := e.Estimate(10, types.StandardClass, tuesday)
	want := int64(math.Round((500 + 10*100) * 0.9))
	if got != want {
		t.Fatalf("low-demand weekday fare: got %d, want %d", got, want)
	}

	// Tuesday morning peak: factor applies after the time multiplier.
	tuesdayPeak := time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC)
	got = e.Estimate(10, types.StandardClass, tuesdayPeak)
	want = int64(math.Round((500 + 10*100) * 1.20 * 0.9))
	if got != want {
		t.Fatalf("low-demand peak fare: got %d, want %d", got, want)
	}
}

func TestEstimate_MonotonicInDistance(t *testing.T) {
	e := NewWithRandom(testConfig(), noJitter)

	for _, class := range []types.VehicleClass{types.MotoClass, types.StandardClass, types.PremiumClass} {
		prev := int64(-1)
		for km := 0.0; km <= 50; km += 2.5 {
			got := e.Estimate(km, class, offPeak)
			if got < prev {
				t.Fatalf("%s fare decreased: %d km -> %d, previous %d", class, int(km), got, prev)
			}
			prev = got
		}
	}
}

func TestEstimate_JitterStaysInBand(t *testing.T) {
	cfg := testConfig()

	for _, draw := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
		e := NewWithRandom(cfg, func() float64 { return draw })
		base := float64(e.BaseAmount(10, types.StandardClass))
		got := e.Estimate(10, types.StandardClass, offPeak)

		lo := int64(math.Floor(base * jitterMin))
		hi := int64(math.Ceil(base * jitterMax))
		if got < lo || got > hi {
			t.Fatalf("fare %d outside jitter band [%d, %d] for draw %.3f", got, lo, hi, draw)
		}
	}
}

func TestCommission_SumsToAmount(t *testing.T) {
	e := New(testConfig())

	for _, amount := range []int64{0, 1, 999, 1500, 12345} {
		commission, net := e.Commission(amount)
		if commission+net != amount {
			t.Fatalf("commission %d + net %d != amount %d", commission, net, amount)
		}
	}
}

func TestCommission_Percentage(t *testing.T) {
	e := New(testConfig())

	commission, net := e.Commission(1500)
	if commission != 300 {
		t.Fatalf("commission: got %d, want 300", commission)
	}
	if net != 1200 {
		t.Fatalf("net earning: got %d, want 1200", net)
	}
}
