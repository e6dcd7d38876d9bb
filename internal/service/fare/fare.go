package fare

import (
	"math"
	"math/rand"
	"time"

	"github.com/zhans-k/ride-dispatch/config"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

const (
	jitterMin = 0.95
	jitterMax = 1.10
)

// Engine computes fares. The same formula backs both rider-facing quotes
// and the authoritative charge stamped at booking creation, so a
// client-provided amount is never trusted.
//
// The congestion jitter makes production fares non-deterministic within
// [jitterMin, jitterMax]; tests inject a fixed random source.
type Engine struct {
	cfg config.FareConfig

	// random returns a value in [0, 1).
	random func() float64
}

func New(cfg config.FareConfig) *Engine {
	return &Engine{
		cfg:    cfg,
		random: rand.Float64,
	}
}

// NewWithRandom returns an engine with an injected randomness source,
// for deterministic estimates.
func NewWithRandom(cfg config.FareConfig, random func() float64) *Engine {
	return &Engine{
		cfg:    cfg,
		random: random,
	}
}

// Estimate returns the fare for a trip of the given distance and class at
// the given time, in whole currency units.
func (e *Engine) Estimate(distanceKm float64, class types.VehicleClass, at time.Time) int64 {
	base, perKm := e.rates(class)

	amount := float64(base) + distanceKm*float64(perKm)
	amount *= e.timeOfDayMultiplier(at.Hour())
	amount *= e.weeklyDemandFactor(at.Weekday())
	amount *= e.congestionJitter()

	return int64(math.Round(amount))
}

// BaseAmount returns the fare before multipliers and jitter, a stable
// reference amount for a given distance and class.
func (e *Engine) BaseAmount(distanceKm float64, class types.VehicleClass) int64 {
	base, perKm := e.rates(class)
	return int64(math.Round(float64(base) + distanceKm*float64(perKm)))
}

func (e *Engine) rates(class types.VehicleClass) (base, perKm int64) {
	switch class {
	case types.MotoClass:
		return e.cfg.MotoBase, e.cfg.MotoPerKm
	case types.PremiumClass:
		return e.cfg.PremiumBase, e.cfg.PremiumPerKm
	default:
		return e.cfg.StandardBase, e.cfg.StandardPerKm
	}
}

// Peak windows: morning 07:00-09:59, evening 17:00-19:59 (the larger of
// the two), late night 23:00-04:59.
func (e *Engine) timeOfDayMultiplier(hour int) float64 {
	switch {
	case hour >= 7 && hour < 10:
		return e.cfg.MorningPeakMultiplier
	case hour >= 17 && hour < 20:
		return e.cfg.EveningPeakMultiplier
	case hour >= 23 || hour < 5:
		return e.cfg.LateNightMultiplier
	default:
		return 1.0
	}
}

// Tuesday is the designated low-demand weekday.
func (e *Engine) weeklyDemandFactor(day time.Weekday) float64 {
	if day == time.Tuesday {
		return e.cfg.LowDemandFactor
	}
	return 1.0
}

func (e *Engine) congestionJitter() float64 {
	return jitterMin + e.random()*(jitterMax-jitterMin)
}

// Commission splits a final fare into the platform's cut and the driver's
// net earning. commission + net always equals amount.
func (e *Engine) Commission(amount int64) (commission, net int64) {
	commission = int64(math.Round(float64(amount) * e.cfg.CommissionPct))
	net = amount - commission
	return commission, net
}
