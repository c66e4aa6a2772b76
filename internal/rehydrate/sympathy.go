package rehydrate

import (
	"math/rand"

	"github.com/danieljhkim/statekeep/internal/config"
)

// sympathyChance is the probability of clearing state on a development load
// when neither clear flag is set.
const sympathyChance = 0.25

// RandSource supplies uniformly distributed numbers in [0, 1).
// *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// RandFunc adapts a function to RandSource.
type RandFunc func() float64

// Float64 calls f.
func (f RandFunc) Float64() float64 { return f() }

// defaultRand uses the runtime-seeded global generator.
var defaultRand RandSource = RandFunc(rand.Float64)

// ShouldClearPersistentState decides whether this load should throw away
// persisted state to recreate the first-load experience.
//
// always-clear-persistent-state wins over never-clear-persistent-state.
// With neither set, development loads clear with a 25% chance and
// production loads never do.
func ShouldClearPersistentState(features config.Features, environment string, rnd RandSource) bool {
	if features.IsEnabled(config.FeatureAlwaysClearState) {
		return true
	}
	if features.IsEnabled(config.FeatureNeverClearState) {
		return false
	}
	if environment == config.EnvDevelopment {
		return rnd.Float64() < sympathyChance
	}
	return false
}
