// Package tier holds the policies that classify verified entities.
//
// Tier assignment sits outside the deterministic pipeline: the aggregator
// calls whatever Assigner it was given. Deterministic policies exist for
// reproducible reports; Random reproduces the legacy behaviour.
package tier

import (
	"math/rand/v2"
	"strings"
	"sync"

	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
)

// Assigner picks a tier for an entity. Implementations must be safe for
// concurrent use when the aggregator runs more than one worker.
type Assigner interface {
	Assign(entity models.Entity) models.Tier
}

// AssignerFunc adapts a function to Assigner.
type AssignerFunc func(entity models.Entity) models.Tier

func (f AssignerFunc) Assign(entity models.Entity) models.Tier {
	return f(entity)
}

// Fixed assigns the same tier to every entity.
func Fixed(t models.Tier) Assigner {
	return AssignerFunc(func(models.Entity) models.Tier { return t })
}

// ByNumericID cycles through the tiers in priority order by numeric ID
// (0 → Sovereign, 1 → Dynastic, ...).
func ByNumericID() Assigner {
	tiers := models.AllTiers()
	return AssignerFunc(func(e models.Entity) models.Tier {
		if e.NumericID < 0 {
			return models.TierMarket
		}
		return tiers[e.NumericID%int64(len(tiers))]
	})
}

// Random draws a tier uniformly per call.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random policy. The same seed yields the same sequence
// of draws, though with several workers the draw-to-entity pairing follows
// scheduling order.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Random) Assign(models.Entity) models.Tier {
	tiers := models.AllTiers()
	r.mu.Lock()
	defer r.mu.Unlock()
	return tiers[r.rng.IntN(len(tiers))]
}

// FromName builds a policy from its configured name:
// "random", "numeric", or "fixed:<tier>".
func FromName(name string, seed uint64) (Assigner, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "" || strings.EqualFold(name, "random"):
		return NewRandom(seed), nil
	case strings.EqualFold(name, "numeric"):
		return ByNumericID(), nil
	case strings.HasPrefix(strings.ToLower(name), "fixed:"):
		t, err := models.ParseTier(name[len("fixed:"):])
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid fixed tier policy")
		}
		return Fixed(t), nil
	}
	return nil, dErrors.Newf(dErrors.CodeConfiguration, "unknown tier policy %q", name)
}
