// Package tradevalue prices players for trade comparison: a non-linear
// base value from the overall rating, layered modifiers for age, potential,
// contract, position and leadership, then basket-level adjustments that
// keep one star worth more than a bag of depth pieces.
package tradevalue

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/frozenpond/benchboss/internal/models"
	"github.com/frozenpond/benchboss/internal/strategy"
)

// ContextTilt scales the age-band modifier weights for a roster context.
// A rebuilding team cares more about what a player becomes, a contender
// about what they are right now.
type ContextTilt struct {
	Age       float64
	Potential float64
}

var contextTilts = map[string]ContextTilt{
	"rebuilding": {Age: 0.75, Potential: 1.5},
	"contending": {Age: 1.25, Potential: 0.5},
	"balanced":   {Age: 1.0, Potential: 1.0},
}

// potentialTierBase maps a scouting tier to its modifier ceiling
var potentialTierBase = map[models.PotentialTier]float64{
	models.PotentialBottom6:      0.2,
	models.PotentialMiddle6:      0.6,
	models.PotentialTop6:         1.0,
	models.PotentialElite:        2.2,
	models.PotentialFranchise:    2.6,
	models.PotentialGenerational: 3.0,
}

// contractTypeScore grades the deal structure itself
var contractTypeScore = map[models.ContractType]float64{
	models.ContractELC:      1.0,
	models.ContractBridge:   0.6,
	models.ContractStandard: 0.4,
	models.ContractUFA:      0.2,
	models.Contract35Plus:   0.0,
}

// Valuer prices players from their trade profiles. The strategy profile is
// optional context: a coach's type preferences tilt values a few percent.
type Valuer struct {
	profile *strategy.Profile
	context string
}

// Option configures a Valuer
type Option func(*Valuer)

// WithStrategy tilts values by the coach's player-type preferences. The
// tilt needs the roster player for their type tag; profile-only pricing
// ignores it.
func WithStrategy(p *strategy.Profile) Option {
	return func(v *Valuer) { v.profile = p }
}

// WithContext sets the roster context ("rebuilding", "contending",
// "balanced"); unknown values read as balanced
func WithContext(ctx string) Option {
	return func(v *Valuer) { v.context = ctx }
}

// NewValuer builds a player valuer
func NewValuer(opts ...Option) *Valuer {
	v := &Valuer{context: "balanced"}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// PlayerValue prices a single player on the raw 0-99 internal scale. The
// roster player is optional; when present its type tag feeds the strategy
// tilt and its rating and position backfill a sparse profile.
func (v *Valuer) PlayerValue(p *models.Player, profile *models.TradeProfile) float64 {
	if profile == nil {
		profile = &models.TradeProfile{}
	}

	o := float64(profile.Overall)
	pos := profile.Position
	if p != nil {
		if o == 0 {
			o = float64(p.Overall)
		}
		if pos == "" {
			pos = p.Position
		}
	}
	if o <= 0 {
		return 0
	}

	base := basePerformance(o)
	scale := baseScale(o)

	ageWeight, potentialWeight := modifierWeights(profile.Age)
	tilt, ok := contextTilts[v.context]
	if !ok {
		tilt = contextTilts["balanced"]
	}
	ageWeight *= tilt.Age
	potentialWeight *= tilt.Potential

	value := scale * base * (1 +
		ageWeight*ageModifier(profile.Age) +
		0.15*v.contractScore(profile) +
		0.2*positionModifier(pos) +
		potentialWeight*potentialModifier(profile) +
		0.05*leadershipModifier(profile) +
		0.05*intangiblesModifier(profile))

	value += situationalBonuses(profile)
	value -= agingContractPenalty(profile)

	if v.profile != nil && p != nil {
		value *= v.profile.PlayerValueModifier(p)
	}

	if value < 0 {
		return 0
	}
	if value > 99 {
		return 99
	}
	return value
}

// basePerformance grows faster through each rating tier so that elite
// points are worth far more than depth points: the jump from 94 to 95
// costs more than the jump from 89 to 90.
func basePerformance(o float64) float64 {
	const (
		tier80 = 0.42 * 80            // value at 80
		tier85 = tier80 + 1.8*5       // value at 85
	)
	tier90 := tier85 + math.Pow(5, 1.25)*2.4
	tier95 := tier90 + math.Pow(5, 1.3)*3.5

	switch {
	case o < 80:
		return 0.42 * o
	case o < 85:
		return tier80 + 1.8*(o-80)
	case o < 90:
		return tier85 + math.Pow(o-85, 1.25)*2.4
	case o < 95:
		return tier90 + math.Pow(o-90, 1.3)*3.5
	default:
		return tier95 + math.Pow(o-95, 1.35)*5.0
	}
}

func baseScale(o float64) float64 {
	switch {
	case o < 80:
		return 0.85
	case o < 85:
		return 0.95
	case o < 90:
		return 1.0
	case o < 95:
		return 1.05
	default:
		return 1.1
	}
}

// modifierWeights sets how hard the age and potential modifiers pull at a
// given age: a prospect trades mostly on ceiling, a veteran almost entirely
// on decline risk. The roster context tilts these, it does not replace them.
func modifierWeights(age int) (ageWeight, potentialWeight float64) {
	switch {
	case age <= 0:
		return 0.20, 0.20
	case age < 24:
		return 0.15, 0.30
	case age < 28:
		return 0.20, 0.20
	case age < 31:
		return 0.25, 0.12
	case age < 34:
		return 0.30, 0.06
	default:
		return 0.35, 0.03
	}
}

// ageModifier runs from a prospect premium down to a veteran discount.
// An unset age is neutral.
func ageModifier(age int) float64 {
	switch {
	case age <= 0:
		return 0
	case age < 21:
		return 0.3
	case age < 24:
		return 0.2
	case age < 28:
		return 0.1
	case age < 31:
		return 0.0
	case age < 33:
		return -0.2
	case age < 36:
		return -0.4
	default:
		return -0.7
	}
}

// potentialModifier discounts the tier ceiling by scouting certainty and
// volatility
func potentialModifier(profile *models.TradeProfile) float64 {
	base, ok := potentialTierBase[profile.Potential]
	if !ok {
		return 0
	}
	certainty := clampUnit(profile.PotentialCertainty)
	volatility := clampUnit(profile.PotentialVolatility)
	return base * certainty * (1 - volatility*0.45)
}

// contractScore blends deal structure, term and cap hit into [0, 1].
// Term and AAV are graded against the player's age band: a long cheap deal
// for a young player is an asset, the same deal for a 33-year-old is not.
func (v *Valuer) contractScore(profile *models.TradeProfile) float64 {
	typeScore, ok := contractTypeScore[profile.ContractType]
	if !ok {
		return 0.4 // no contract data reads as a neutral standard deal
	}
	return 0.4*typeScore + 0.3*termScore(profile) + 0.3*aavScore(profile)
}

func termScore(profile *models.TradeProfile) float64 {
	years := profile.TermYears
	if years <= 0 {
		return 0.5
	}
	if profile.Age > 0 && profile.Age < 27 {
		// Term is control for a young player
		if years >= 5 {
			return 1.0
		}
		return float64(years) / 5
	}
	// Term is risk for an older player
	if years >= 6 {
		return 0.0
	}
	return 1 - float64(years-1)*0.2
}

func aavScore(profile *models.TradeProfile) float64 {
	if profile.AAV.IsZero() {
		return 0.5
	}
	// Grade the cap hit against the band a player of this age typically
	// earns; cheaper than the band is surplus value. AAV is in millions.
	band := decimal.NewFromInt(6)
	if profile.Age > 0 && profile.Age < 24 {
		band = decimal.NewFromFloat(3.5)
	} else if profile.Age >= 31 {
		band = decimal.NewFromInt(5)
	}
	ratio, _ := profile.AAV.Div(band).Float64()
	return clampUnit(1.5 - ratio)
}

func positionModifier(pos models.Position) float64 {
	switch {
	case pos == models.Center:
		return 0.25
	case pos.IsDefense():
		return 0.15
	case pos == models.Goalie:
		return 0.0
	default:
		return -0.1
	}
}

// leadershipModifier gives a small captaincy premium and a diminishing
// championship bonus that is worth more on a player who already leads
func leadershipModifier(profile *models.TradeProfile) float64 {
	base := 0.0
	if profile.Captain {
		base = 0.2
	} else if profile.Alternate {
		base = 0.1
	}
	cupBonus := 0.0
	for i := 0; i < profile.StanleyCups && i < 3; i++ {
		cupBonus += 0.15 / float64(i+1)
	}
	return base + cupBonus*(1+base)
}

// intangiblesModifier is the small multiplicative award premium; the flat
// award bonus in situationalBonuses stacks on top of it
func intangiblesModifier(profile *models.TradeProfile) float64 {
	if profile.MajorAward {
		return 0.1
	}
	return 0
}

// situationalBonuses are flat additions outside the multiplier stack
func situationalBonuses(profile *models.TradeProfile) float64 {
	bonus := 0.0
	if profile.Age > 0 && profile.Age < 23 && potentialTierBase[profile.Potential] >= potentialTierBase[models.PotentialElite] {
		bonus += 4 // young with an elite-or-better ceiling
	}
	if profile.MajorAward {
		bonus += 2
	}
	if profile.StanleyCups > 0 {
		bonus += math.Min(3, float64(profile.StanleyCups))
	}
	return bonus
}

// agingContractPenalty knocks value off long deals carried into decline
func agingContractPenalty(profile *models.TradeProfile) float64 {
	if profile.Age > 32 && profile.TermYears >= 4 {
		return 5
	}
	return 0
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TradeAsset is one player plus their trade profile. Player may be nil when
// only profile data is known.
type TradeAsset struct {
	Player  *models.Player
	Profile *models.TradeProfile
}

// EvaluateTrade prices both sides of a proposed trade and labels the gap.
// Values are adjusted for basket quality before comparison, then
// normalized to a 0-100 score against the richer side.
func (v *Valuer) EvaluateTrade(team1, team2 []TradeAsset) (*models.TradeEvaluation, error) {
	if len(team1) == 0 || len(team2) == 0 {
		return nil, fmt.Errorf("both sides of a trade need at least one player")
	}

	side1 := v.evaluateSide(team1)
	side2 := v.evaluateSide(team2)

	maxAdjusted := math.Max(side1.AdjustedTotal, side2.AdjustedTotal)
	if maxAdjusted > 0 {
		side1.Score = side1.AdjustedTotal / maxAdjusted * 100
		side2.Score = side2.AdjustedTotal / maxAdjusted * 100
	}

	diff := math.Abs(side1.Score - side2.Score)
	eval := &models.TradeEvaluation{
		Team1:      side1,
		Team2:      side2,
		Difference: diff,
		Assessment: fairnessLabel(diff),
	}
	switch {
	case side1.Score > side2.Score:
		eval.Favors = "team1"
	case side2.Score > side1.Score:
		eval.Favors = "team2"
	}
	return eval, nil
}

func (v *Valuer) evaluateSide(assets []TradeAsset) models.TradeSide {
	side := models.TradeSide{PlayerValues: make([]float64, 0, len(assets))}

	for _, a := range assets {
		if a.Player == nil && a.Profile == nil {
			continue
		}
		val := v.PlayerValue(a.Player, a.Profile)
		side.PlayerValues = append(side.PlayerValues, val)
		side.RawTotal += val
	}

	side.AdjustedTotal = qualityAdjusted(side.PlayerValues)
	return side
}

// qualityAdjusted reshapes a side's raw values: premium players amplify,
// depth pieces past the second-best discount steeply, and large packages
// bleed value for roster-spot cost. Keeps one 95 ahead of three 85s.
func qualityAdjusted(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	total := 0.0
	for rank, val := range sorted {
		total += val * premiumMultiplier(val) * depthDiscount(rank)
	}

	if n := len(sorted); n > 2 {
		bloat := 1 - 0.05*float64(n-2)
		if bloat < 0.8 {
			bloat = 0.8
		}
		total *= bloat
	}
	return total
}

func premiumMultiplier(val float64) float64 {
	switch {
	case val >= 95:
		return 1.25
	case val >= 90:
		return 1.18
	case val >= 85:
		return 1.12
	case val >= 75:
		return 1.05
	default:
		return 1.0
	}
}

// depthDiscount is applied by rank within the basket: the best piece counts
// in full, everything after discounts progressively
func depthDiscount(rank int) float64 {
	switch rank {
	case 0:
		return 1.0
	case 1:
		return 0.85
	case 2:
		return 0.75
	default:
		return 1 - math.Min(0.70, 0.25+0.12*float64(rank-2))
	}
}

func fairnessLabel(diff float64) string {
	switch {
	case diff < 5:
		return "Very Fair"
	case diff < 10:
		return "Fair"
	case diff < 20:
		return "Slightly Uneven"
	case diff < 30:
		return "Uneven"
	default:
		return "Very Uneven"
	}
}
