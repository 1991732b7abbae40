// Package strategy models a coach's named strategic profile: bias weights,
// player-type preferences, line-adjustment nudges, and deployment tables.
package strategy

import (
	"math/rand"
	"sort"
	"time"

	"github.com/frozenpond/benchboss/internal/logger"
	"github.com/frozenpond/benchboss/internal/models"
)

// template is one of the built-in strategy bundles
type template struct {
	offensiveBias      float64
	defensiveBias      float64
	physicalBias       float64
	skillBias          float64
	forwardLineBalance float64
	typePreference     map[models.PlayerType]float64
}

var templates = map[string]template{
	"Offensive": {
		offensiveBias:      0.85,
		defensiveBias:      0.35,
		physicalBias:       0.40,
		skillBias:          0.70,
		forwardLineBalance: 0.30,
		typePreference: map[models.PlayerType]float64{
			models.Sniper:              1.3,
			models.Playmaker:           1.25,
			models.PowerForward:        1.1,
			models.OffensiveDefenseman: 1.2,
			models.DefensiveDefenseman: 0.85,
			models.Enforcer:            0.8,
		},
	},
	"Defensive": {
		offensiveBias:      0.35,
		defensiveBias:      0.85,
		physicalBias:       0.55,
		skillBias:          0.45,
		forwardLineBalance: 0.65,
		typePreference: map[models.PlayerType]float64{
			models.TwoWayForward:       1.3,
			models.DefensiveDefenseman: 1.3,
			models.TwoWayDefenseman:    1.2,
			models.Sniper:              0.85,
			models.OffensiveDefenseman: 0.8,
		},
	},
	"Balanced": {
		offensiveBias:      0.5,
		defensiveBias:      0.5,
		physicalBias:       0.5,
		skillBias:          0.5,
		forwardLineBalance: 0.5,
		typePreference:     map[models.PlayerType]float64{},
	},
	"Physical": {
		offensiveBias:      0.45,
		defensiveBias:      0.60,
		physicalBias:       0.85,
		skillBias:          0.35,
		forwardLineBalance: 0.55,
		typePreference: map[models.PlayerType]float64{
			models.PowerForward:        1.3,
			models.Enforcer:            1.25,
			models.DefensiveDefenseman: 1.15,
			models.Sniper:              0.9,
			models.Playmaker:           0.85,
		},
	},
	"Skill": {
		offensiveBias:      0.65,
		defensiveBias:      0.40,
		physicalBias:       0.25,
		skillBias:          0.85,
		forwardLineBalance: 0.35,
		typePreference: map[models.PlayerType]float64{
			models.Sniper:              1.25,
			models.Playmaker:           1.3,
			models.OffensiveDefenseman: 1.2,
			models.Enforcer:            0.7,
			models.PowerForward:        0.95,
		},
	},
}

// Profile is an immutable-after-construction strategy profile. Read-only
// once built; the adjustment methods never mutate their inputs either.
type Profile struct {
	Name               string
	StrategyType       string
	OffensiveBias      float64
	DefensiveBias      float64
	PhysicalBias       float64
	SkillBias          float64
	ForwardLineBalance float64

	typePreference map[models.PlayerType]float64
	rng            *rand.Rand
}

// New builds a profile from a coach record. A nil coach or unrecognized
// strategy type resolves to the Balanced template; explicit attribute
// overrides merge on top of the template per key. rng drives the
// probabilistic adjustment paths; pass nil for a time-seeded source.
func New(coach *models.Coach, rng *rand.Rand) *Profile {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	name := "Default"
	strategyType := "Balanced"
	var overrides map[string]float64
	if coach != nil {
		if coach.Name != "" {
			name = coach.Name
		}
		if _, ok := templates[coach.StrategyType]; ok {
			strategyType = coach.StrategyType
		}
		overrides = coach.Attributes
	}

	tmpl := templates[strategyType]
	p := &Profile{
		Name:               name,
		StrategyType:       strategyType,
		OffensiveBias:      tmpl.offensiveBias,
		DefensiveBias:      tmpl.defensiveBias,
		PhysicalBias:       tmpl.physicalBias,
		SkillBias:          tmpl.skillBias,
		ForwardLineBalance: tmpl.forwardLineBalance,
		typePreference:     make(map[models.PlayerType]float64, len(tmpl.typePreference)),
		rng:                rng,
	}
	for k, v := range tmpl.typePreference {
		p.typePreference[k] = v
	}

	for key, value := range overrides {
		switch key {
		case "offensive_bias":
			p.OffensiveBias = value
		case "defensive_bias":
			p.DefensiveBias = value
		case "physical_bias":
			p.PhysicalBias = value
		case "skill_bias":
			p.SkillBias = value
		case "forward_line_balance":
			p.ForwardLineBalance = value
		}
	}

	return p
}

// AdjustLines applies the coach's preference nudges to a deep copy of the
// line set. Adjustment is best-effort: a failure in any step logs and
// returns the lines as they stood before that step. The input is never
// mutated.
func (p *Profile) AdjustLines(lines *models.LineSet) (out *models.LineSet) {
	if lines == nil {
		return nil
	}
	out = lines.Clone()

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Coach line adjustment failed, keeping unadjusted lines", "coach", p.Name, "panic", r)
		}
	}()

	adjusted := lines.Clone()
	p.adjustForwardLines(adjusted)
	p.adjustDefensePairs(adjusted)
	p.adjustSpecialTeams(adjusted)

	return adjusted
}

// adjustForwardLines is the offensive coach's shooter promotion: a
// second-line trigger man with real shooting skill has a coin-flip shot at
// swapping up to the first line. A single-pass nudge, not an optimizer.
func (p *Profile) adjustForwardLines(lines *models.LineSet) {
	if p.OffensiveBias <= 0.7 || len(lines.Forward) < 2 {
		return
	}

	l1 := &lines.Forward[0]
	l2 := &lines.Forward[1]

	slots := []struct {
		first, second **models.Player
	}{
		{&l1.LW, &l2.LW},
		{&l1.C, &l2.C},
		{&l1.RW, &l2.RW},
	}

	for _, s := range slots {
		candidate := *s.second
		if candidate == nil || candidate.Shooting <= 85 {
			continue
		}
		if p.rng.Float64() < 0.5 {
			*s.first, *s.second = *s.second, *s.first
		}
	}
}

// adjustDefensePairs balances same-side defensemen between the top two
// pairs when a defensive coach is caught with a doubled-up offensive or
// defensive duo.
func (p *Profile) adjustDefensePairs(lines *models.LineSet) {
	if p.DefensiveBias <= 0.7 || len(lines.Defense) < 2 {
		return
	}

	p1 := &lines.Defense[0]
	p2 := &lines.Defense[1]

	// Pair 1 carrying two of the same type trades its same-side player to
	// pair 2, leaving one of each type on both pairs. The partner slot is
	// re-read after the first side so a swap there is seen here.
	balance := func(a, b, partner **models.Player) {
		if *a == nil || *b == nil || *partner == nil {
			return
		}
		if !oppositeDefenseTypes((*a).Type, (*b).Type) {
			return
		}
		if (*a).Type == (*partner).Type {
			*a, *b = *b, *a
		}
	}
	balance(&p1.LD, &p2.LD, &p1.RD)
	balance(&p1.RD, &p2.RD, &p1.LD)
}

func oppositeDefenseTypes(a, b models.PlayerType) bool {
	return (a == models.OffensiveDefenseman && b == models.DefensiveDefenseman) ||
		(a == models.DefensiveDefenseman && b == models.OffensiveDefenseman)
}

// adjustSpecialTeams performs light reordering only: strongly defensive
// coaches rank PK forwards by defensive ability, strongly offensive coaches
// rank PP forwards by shooting. Failures here must never abort line
// generation.
func (p *Profile) adjustSpecialTeams(lines *models.LineSet) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Special teams adjustment failed, units left as built", "coach", p.Name, "panic", r)
		}
	}()

	if p.DefensiveBias > 0.7 {
		for i := range lines.PenaltyKill {
			fwds := lines.PenaltyKill[i].Forwards
			sort.SliceStable(fwds, func(a, b int) bool {
				return unitDefense(fwds[a]) > unitDefense(fwds[b])
			})
		}
	}

	if p.OffensiveBias > 0.7 {
		for i := range lines.PowerPlay {
			fwds := lines.PowerPlay[i].Forwards
			sort.SliceStable(fwds, func(a, b int) bool {
				return unitShooting(fwds[a]) > unitShooting(fwds[b])
			})
		}
	}
}

func unitDefense(f models.UnitForward) int {
	if f.Player == nil {
		return -1
	}
	if f.Player.Defense > 0 {
		return f.Player.Defense
	}
	return f.Player.Overall
}

func unitShooting(f models.UnitForward) int {
	if f.Player == nil {
		return -1
	}
	if f.Player.Shooting > 0 {
		return f.Player.Shooting
	}
	return f.Player.Overall
}

// IceTimeDistribution derives the per-line share tables from the forward
// line balance. A balance-heavy coach flattens the rotation; a top-loaded
// coach rides the first line.
func (p *Profile) IceTimeDistribution() models.IceTimeDistribution {
	balance := p.ForwardLineBalance
	return models.IceTimeDistribution{
		ForwardEvenStrength: []float64{
			0.35 - balance*0.10,
			0.28 - balance*0.03,
			0.22 + balance*0.05,
			0.15 + balance*0.08,
		},
		DefenseEvenStrength: []float64{
			0.38 - balance*0.06,
			0.34 + balance*0.02,
			0.28 + balance*0.04,
		},
		PowerPlay:   []float64{0.70, 0.30},
		PenaltyKill: []float64{0.60, 0.40},
	}
}

// MatchupPreferences derives deployment preferences from the bias profile
func (p *Profile) MatchupPreferences() models.MatchupPreferences {
	prefs := models.MatchupPreferences{
		CheckingLine:      3,
		ShutdownPair:      1,
		OffensiveZoneBias: 0.5 + (p.OffensiveBias-p.DefensiveBias)*0.3,
		LastChange:        p.DefensiveBias > 0.6,
	}
	if p.DefensiveBias > 0.7 {
		prefs.CheckingLine = 2
	}
	return prefs
}

// StrategyName names the dominant bias when it is decisive, otherwise the
// profile reads as balanced.
func (p *Profile) StrategyName() string {
	type bias struct {
		name  string
		value float64
	}
	biases := []bias{
		{"Offensive Strategy", p.OffensiveBias},
		{"Defensive Strategy", p.DefensiveBias},
		{"Physical Strategy", p.PhysicalBias},
		{"Skill Strategy", p.SkillBias},
	}

	best := biases[0]
	for _, b := range biases[1:] {
		if b.value > best.value {
			best = b
		}
	}
	if best.value > 0.7 {
		return best.name
	}
	return "Balanced Strategy"
}

// PlayerValueModifier returns the coach's preference multiplier for a
// player's type; unrecognized or untagged players are neutral.
func (p *Profile) PlayerValueModifier(player *models.Player) float64 {
	if player == nil {
		return 1.0
	}
	if mod, ok := p.typePreference[player.Type]; ok {
		return mod
	}
	return 1.0
}
