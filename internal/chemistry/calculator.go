// Package chemistry scores how well groups of 2-5 players fit together on a
// line, pair, or special-teams unit, and keeps the running minutes-together
// ledger that feeds the familiarity term of those scores.
package chemistry

import (
	"fmt"
	"math"
	"sync"

	"github.com/frozenpond/benchboss/internal/models"
)

// Pairwise weights for a forward trio. Center-winger chemistry matters more
// than winger-winger.
const (
	weightLWC  = 0.4
	weightCRW  = 0.4
	weightLWRW = 0.2
)

// Power-play term weights: puck movement between forwards dominates
const (
	ppWeightForwards = 0.5
	ppWeightDefense  = 0.2
	ppWeightCross    = 0.3
)

// Penalty-kill term weights: defensive personnel matter as much as passing
const (
	pkWeightForwards  = 0.3
	pkWeightDefense   = 0.3
	pkWeightTypeBonus = 0.4
)

// Calibration for the raw-to-display mapping. The raw domain is a fixed
// design choice, not the attainable range of the weighted sum; changing it
// would silently shift every chemistry number in the product.
const (
	rawMin = -3.0
	rawMax = 5.0
)

// Ice time together ramps toward a capped familiarity bonus
const (
	timeTogetherDivisor = 333.0
	timeTogetherCap     = 1.5
)

// Calculator scores units and owns a minutes-together ledger. The ledger is
// process-lifetime state keyed by unordered player-pair; each formation
// engine owns its own Calculator so sharing is an explicit caller decision.
type Calculator struct {
	mu           sync.RWMutex
	timeTogether map[string]float64 // pair key -> cumulative minutes
}

// NewCalculator creates a calculator with an empty ledger
func NewCalculator() *Calculator {
	return &Calculator{
		timeTogether: make(map[string]float64),
	}
}

// PairKey builds the unordered ledger key for two player IDs, so that
// (a, b) and (b, a) always address the same entry.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// ForwardLineChemistry scores an [LW, C, RW] trio. A line with any unfilled
// slot has no defined chemistry and scores (0, empty) without error; a slice
// of the wrong length is a caller contract violation and is rejected.
func (c *Calculator) ForwardLineChemistry(line []*models.Player) (float64, map[string]float64, error) {
	if len(line) != 3 {
		return 0, nil, fmt.Errorf("forward line chemistry requires 3 players, got %d", len(line))
	}
	lw, ctr, rw := line[0], line[1], line[2]
	if lw == nil || ctr == nil || rw == nil {
		return 0, map[string]float64{}, nil
	}

	factors := map[string]float64{}
	raw := 0.0
	raw += weightLWC * c.pairScore(lw, ctr, weightLWC, factors)
	raw += weightCRW * c.pairScore(ctr, rw, weightCRW, factors)
	raw += weightLWRW * c.pairScore(lw, rw, weightLWRW, factors)

	return normalize(raw), factors, nil
}

// DefensePairChemistry scores an [LD, RD] duo, with the same absent-slot
// short circuit as forward lines.
func (c *Calculator) DefensePairChemistry(pair []*models.Player) (float64, map[string]float64, error) {
	if len(pair) != 2 {
		return 0, nil, fmt.Errorf("defense pair chemistry requires 2 players, got %d", len(pair))
	}
	ld, rd := pair[0], pair[1]
	if ld == nil || rd == nil {
		return 0, map[string]float64{}, nil
	}

	factors := map[string]float64{}
	raw := c.pairScore(ld, rd, 1.0, factors)
	return normalize(raw), factors, nil
}

// PowerPlayChemistry scores a PP unit: forward-forward pairs, defense-defense
// pairs when the unit carries two defensemen, and forward-defense cross
// pairs, weighted 50/20/30 and renormalized over the terms that exist.
// A unit missing forwards or defense entirely scores (0, empty).
func (c *Calculator) PowerPlayChemistry(unit *models.SpecialUnit) (float64, map[string]float64) {
	forwards, defense := unitPlayers(unit)
	if len(forwards) == 0 || len(defense) == 0 {
		return 0, map[string]float64{}
	}

	factors := map[string]float64{}
	terms := []weightedTerm{}
	if avg, ok := c.groupAverage(forwards, factors); ok {
		terms = append(terms, weightedTerm{ppWeightForwards, avg})
	}
	if avg, ok := c.groupAverage(defense, factors); ok {
		terms = append(terms, weightedTerm{ppWeightDefense, avg})
	}
	if avg, ok := c.crossAverage(forwards, defense, factors); ok {
		terms = append(terms, weightedTerm{ppWeightCross, avg})
	}

	return normalize(combineTerms(terms)), factors
}

// PenaltyKillChemistry scores a PK unit. It differs from the power play by
// trading cross-pair weight for a flat bonus per defensively-typed player:
// kill units live on positioning more than passing lanes.
func (c *Calculator) PenaltyKillChemistry(unit *models.SpecialUnit) (float64, map[string]float64) {
	forwards, defense := unitPlayers(unit)
	if len(forwards) == 0 || len(defense) == 0 {
		return 0, map[string]float64{}
	}

	factors := map[string]float64{}
	terms := []weightedTerm{}
	if avg, ok := c.groupAverage(forwards, factors); ok {
		terms = append(terms, weightedTerm{pkWeightForwards, avg})
	}
	if avg, ok := c.groupAverage(defense, factors); ok {
		terms = append(terms, weightedTerm{pkWeightDefense, avg})
	}

	bonus := 0.0
	for _, p := range append(append([]*models.Player{}, forwards...), defense...) {
		if p.Type.IsDefensiveType() {
			bonus += 0.5
		}
	}
	factors["defensive_types"] = bonus
	terms = append(terms, weightedTerm{pkWeightTypeBonus, bonus})

	return normalize(combineTerms(terms)), factors
}

// UpdateTimePlayed adds minutes to the ledger for every unordered pair among
// the given players. Nil entries are skipped.
func (c *Calculator) UpdateTimePlayed(players []*models.Player, minutes float64) {
	if minutes <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < len(players); i++ {
		if players[i] == nil {
			continue
		}
		for j := i + 1; j < len(players); j++ {
			if players[j] == nil {
				continue
			}
			c.timeTogether[PairKey(players[i].ID, players[j].ID)] += minutes
		}
	}
}

// ResetTimePlayed clears the ledger
func (c *Calculator) ResetTimePlayed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeTogether = make(map[string]float64)
}

// MinutesTogether returns the accumulated minutes for a pair
func (c *Calculator) MinutesTogether(a, b string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeTogether[PairKey(a, b)]
}

// SeedPairMinutes merges externally-sourced pair minutes (e.g. historical
// shift data) into the ledger. Keys must be PairKey-formatted.
func (c *Calculator) SeedPairMinutes(pairs map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, minutes := range pairs {
		if minutes > 0 {
			c.timeTogether[key] += minutes
		}
	}
}

// PairMinutes returns a snapshot of the full ledger, keyed by PairKey.
// Used to carry accumulated minutes across engine rebuilds.
func (c *Calculator) PairMinutes() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.timeTogether))
	for key, minutes := range c.timeTogether {
		out[key] = minutes
	}
	return out
}

// PerformanceModifier maps a chemistry value to the multiplicative game
// modifier: +5 chemistry plays about 15% above paper, -5 about 15% below.
func PerformanceModifier(chemistry float64) float64 {
	return 1.0 + chemistry/33.33
}

// pairScore computes the raw compatibility of two players: type table, size
// table, shooting side for defense pairs, and the familiarity ramp, summed.
// Factor contributions are accumulated into factors scaled by weight.
func (c *Calculator) pairScore(a, b *models.Player, weight float64, factors map[string]float64) float64 {
	typeScore := 0.0
	if row, ok := typeCompatibility[a.Type]; ok {
		typeScore = row[b.Type]
	}

	sizeScore := sizeCompatibility[bucketWeight(a.WeightLbs)][bucketWeight(b.WeightLbs)]

	// Handedness only matters between two defensemen, where an off-hand
	// partner closes the weak side. Weighted double for that reason.
	sideScore := 0.0
	if a.Position.IsDefense() && b.Position.IsDefense() {
		if a.Shoots != "" && b.Shoots != "" && a.Shoots != b.Shoots {
			sideScore = 1.0
		}
		sideScore *= 2.0
	}

	timeScore := math.Min(timeTogetherCap, c.minutesFor(a.ID, b.ID)/timeTogetherDivisor)

	factors["player_type"] += weight * typeScore
	factors["size"] += weight * sizeScore
	if a.Position.IsDefense() && b.Position.IsDefense() {
		factors["shooting_side"] += weight * sideScore
	}
	factors["time_together"] += weight * timeScore

	return typeScore + sizeScore + sideScore + timeScore
}

func (c *Calculator) minutesFor(a, b string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeTogether[PairKey(a, b)]
}

type weightedTerm struct {
	weight float64
	value  float64
}

// combineTerms averages terms by their weights, renormalizing over whichever
// terms are present
func combineTerms(terms []weightedTerm) float64 {
	totalWeight := 0.0
	sum := 0.0
	for _, t := range terms {
		totalWeight += t.weight
		sum += t.weight * t.value
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// groupAverage averages pairScore over all unordered pairs within a group.
// Returns ok=false when the group has fewer than two players.
func (c *Calculator) groupAverage(group []*models.Player, factors map[string]float64) (float64, bool) {
	count := 0
	sum := 0.0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			sum += c.pairScore(group[i], group[j], 1.0/pairCount(len(group)), factors)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// crossAverage averages pairScore over every forward-defense pairing
func (c *Calculator) crossAverage(forwards, defense []*models.Player, factors map[string]float64) (float64, bool) {
	if len(forwards) == 0 || len(defense) == 0 {
		return 0, false
	}
	n := float64(len(forwards) * len(defense))
	sum := 0.0
	for _, f := range forwards {
		for _, d := range defense {
			sum += c.pairScore(f, d, 1.0/n, factors)
		}
	}
	return sum / n, true
}

func pairCount(n int) float64 {
	if n < 2 {
		return 1
	}
	return float64(n*(n-1)) / 2
}

// unitPlayers splits a special unit into its non-nil forwards and defense
func unitPlayers(unit *models.SpecialUnit) ([]*models.Player, []*models.Player) {
	if unit == nil {
		return nil, nil
	}
	forwards := make([]*models.Player, 0, len(unit.Forwards))
	for _, f := range unit.Forwards {
		if f.Player != nil {
			forwards = append(forwards, f.Player)
		}
	}
	defense := make([]*models.Player, 0, len(unit.Defense))
	for _, d := range unit.Defense {
		if d != nil {
			defense = append(defense, d)
		}
	}
	return forwards, defense
}

// normalize maps a raw score from the calibrated [rawMin, rawMax] domain
// onto [-5, +5], clamps, and rounds to the nearest half point.
func normalize(raw float64) float64 {
	scaled := (raw-rawMin)/(rawMax-rawMin)*10.0 - 5.0
	if scaled > 5.0 {
		scaled = 5.0
	}
	if scaled < -5.0 {
		scaled = -5.0
	}
	return math.Round(scaled*2) / 2
}
