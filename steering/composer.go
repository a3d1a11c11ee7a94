package steering

import (
	"fmt"
	"log/slog"

	"swarmpilot/vec"
)

// Composer blends the full behavior catalog into one steering force.
//
// Every behavior runs every tick, in the fixed AllNames order, even when its
// weight is zero. Stateful behaviors keep advancing their internal state, so
// toggling a weight mid-run never desynchronizes a seeded replay.
type Composer struct {
	behaviors []Behavior
	weights   Weights
	last      vec.V
}

// NewComposer builds a composer over the given behaviors. The slice must
// cover the catalog in AllNames order; anything else is a wiring bug.
func NewComposer(behaviors []Behavior, weights Weights) (*Composer, error) {
	if len(behaviors) != len(AllNames) {
		return nil, fmt.Errorf("expected %d behaviors, got %d", len(AllNames), len(behaviors))
	}
	for i, b := range behaviors {
		if b.Name() != AllNames[i] {
			return nil, fmt.Errorf("behavior %d is %s, want %s", i, b.Name(), AllNames[i])
		}
	}
	w := make(Weights, len(AllNames))
	for _, name := range AllNames {
		w[name] = weights[name]
	}
	return &Composer{behaviors: behaviors, weights: w}, nil
}

// Compose runs the catalog and returns the weighted sum of all forces.
// Non-finite contributions are dropped rather than propagated.
func (c *Composer) Compose(a *Agent, p Perception) vec.V {
	var total vec.V
	for _, b := range c.behaviors {
		f := b.Force(a, p)
		if !f.Finite() {
			continue
		}
		total = total.Add(f.Scale(c.weights[b.Name()]))
	}
	if !total.Finite() {
		total = vec.V{}
	}
	c.last = total
	return total
}

// Last returns the force from the most recent Compose call.
func (c *Composer) Last() vec.V { return c.last }

// SetWeight updates one behavior weight. Negative values are rejected.
func (c *Composer) SetWeight(name Name, v float64) error {
	return c.weights.Set(name, v)
}

// SetWeights replaces the whole weight set, used on mission mode changes.
// Behaviors missing from the argument get weight zero.
func (c *Composer) SetWeights(w Weights) {
	for _, name := range AllNames {
		c.weights[name] = w[name]
	}
}

// Weights returns a copy of the current weight set.
func (c *Composer) Weights() Weights { return c.weights.Clone() }

// Weight returns one current weight.
func (c *Composer) Weight(name Name) float64 { return c.weights[name] }

// Behavior returns the catalog entry with the given name, or nil.
func (c *Composer) Behavior(name Name) Behavior {
	for _, b := range c.behaviors {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Catalog builds the standard eight-behavior catalog from configuration
// values. The wander seed should be unique per robot for uncorrelated drift.
type CatalogParams struct {
	SeparationThreshold float64
	CohesionThreshold   float64
	ObstacleThreshold   float64
	WanderJitter        float64
	WanderSeed          uint64
	FormationPattern    string
	FormationRadius     float64
	FormationSpacing    float64
	FollowGap           float64
	ExplorationSectors  int
}

// NewCatalog assembles the behaviors in composition order.
func NewCatalog(params CatalogParams, log *slog.Logger) []Behavior {
	// The leader-follow fallback gets its own exploration instance so the
	// catalog slot's visit counts advance exactly once per tick.
	fallback := NewExploration(params.ExplorationSectors)
	return []Behavior{
		&SeparationBehavior{Threshold: params.SeparationThreshold},
		AlignmentBehavior{},
		&CohesionBehavior{Threshold: params.CohesionThreshold},
		&ObstacleAvoidanceBehavior{Threshold: params.ObstacleThreshold},
		NewWander(params.WanderJitter, params.WanderSeed),
		&FormationBehavior{Pattern: params.FormationPattern, Radius: params.FormationRadius, Spacing: params.FormationSpacing},
		&LeaderFollowBehavior{Gap: params.FollowGap, Fallback: fallback, Log: log},
		NewExploration(params.ExplorationSectors),
	}
}
