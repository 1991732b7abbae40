package formation

import (
	"fmt"

	"github.com/frozenpond/benchboss/internal/logger"
	"github.com/frozenpond/benchboss/internal/models"
)

// Team chemistry aggregation weights, renormalized over the categories that
// actually produced a non-zero unit score
const (
	chemWeightForwards    = 0.40
	chemWeightDefense     = 0.30
	chemWeightPowerPlay   = 0.15
	chemWeightPenaltyKill = 0.15
)

// componentWeights combine unit ratings into the overall number. They sum
// to 1.0 when every component is present and are renormalized over the
// components with non-zero values otherwise.
var componentWeights = map[string]float64{
	"line_1": 0.17, "line_2": 0.12, "line_3": 0.09, "line_4": 0.05,
	"pair_1": 0.11, "pair_2": 0.08, "pair_3": 0.05,
	"power_play_1": 0.05, "power_play_2": 0.03,
	"penalty_kill_1": 0.05, "penalty_kill_2": 0.03,
	"other_special_teams": 0.04,
	"shootout":            0.03,
	"goaltending":         0.10,
}

// calculateAllChemistry scores every unit in the line set and aggregates
// the team number: 40% forward lines, 30% pairs, 15% PP, 15% PK, weighted
// over whichever categories have at least one unit with non-zero chemistry.
func (e *Engine) calculateAllChemistry(lines *models.LineSet) *models.ChemistryReport {
	report := &models.ChemistryReport{
		ForwardLines: make(map[int]models.UnitChemistry),
		DefensePairs: make(map[int]models.UnitChemistry),
		PowerPlay:    make(map[int]models.UnitChemistry),
		PenaltyKill:  make(map[int]models.UnitChemistry),
	}

	for i := range lines.Forward {
		line := &lines.Forward[i]
		score, factors, err := e.chem.ForwardLineChemistry(line.Players())
		if err != nil {
			logger.Warn("Forward line chemistry failed", "line", line.Number, "error", err)
			continue
		}
		report.ForwardLines[line.Number] = models.UnitChemistry{Score: score, Factors: factors}
	}

	for i := range lines.Defense {
		pair := &lines.Defense[i]
		score, factors, err := e.chem.DefensePairChemistry(pair.Players())
		if err != nil {
			logger.Warn("Defense pair chemistry failed", "pair", pair.Number, "error", err)
			continue
		}
		report.DefensePairs[pair.Number] = models.UnitChemistry{Score: score, Factors: factors}
	}

	for i := range lines.PowerPlay {
		unit := &lines.PowerPlay[i]
		score, factors := e.chem.PowerPlayChemistry(unit)
		report.PowerPlay[unit.Number] = models.UnitChemistry{Score: score, Factors: factors}
	}
	for i := range lines.PenaltyKill {
		unit := &lines.PenaltyKill[i]
		score, factors := e.chem.PenaltyKillChemistry(unit)
		report.PenaltyKill[unit.Number] = models.UnitChemistry{Score: score, Factors: factors}
	}

	report.Team = aggregateTeamChemistry(report)
	return report
}

func aggregateTeamChemistry(report *models.ChemistryReport) float64 {
	type category struct {
		weight float64
		units  map[int]models.UnitChemistry
	}
	categories := []category{
		{chemWeightForwards, report.ForwardLines},
		{chemWeightDefense, report.DefensePairs},
		{chemWeightPowerPlay, report.PowerPlay},
		{chemWeightPenaltyKill, report.PenaltyKill},
	}

	totalWeight := 0.0
	weighted := 0.0
	for _, cat := range categories {
		sum := 0.0
		n := 0
		for _, u := range cat.units {
			if u.Score != 0 {
				sum += u.Score
				n++
			}
		}
		if n == 0 {
			continue
		}
		totalWeight += cat.weight
		weighted += cat.weight * (sum / float64(n))
	}

	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// correctNegativeLines is the minimal corrective pass: a forward line that
// graded out negative gets its wingers swapped and rescored. A cheap
// single-pass heuristic, deliberately not a search; pairs and special teams
// are left alone. Returns how many lines were swapped.
func (e *Engine) correctNegativeLines(lines *models.LineSet, report *models.ChemistryReport) int {
	swapped := 0
	for i := range lines.Forward {
		line := &lines.Forward[i]
		current, ok := report.ForwardLines[line.Number]
		if !ok || current.Score >= 0 {
			continue
		}

		line.LW, line.RW = line.RW, line.LW
		score, factors, err := e.chem.ForwardLineChemistry(line.Players())
		if err != nil {
			line.LW, line.RW = line.RW, line.LW
			continue
		}
		report.ForwardLines[line.Number] = models.UnitChemistry{Score: score, Factors: factors}
		swapped++
	}
	report.Team = aggregateTeamChemistry(report)
	return swapped
}

// safeTeamRating computes the aggregated rating, converting any internal
// failure into an explicit zeroed rating. Callers render this structure
// directly, so it must always come back usable.
func (e *Engine) safeTeamRating(lines *models.LineSet, report *models.ChemistryReport) (rating models.TeamRating) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Team rating calculation failed", "team_id", e.teamID, "panic", r)
			rating = models.TeamRating{Components: map[string]float64{}, Failed: true}
		}
	}()

	return e.calculateTeamRating(lines, report)
}

func (e *Engine) calculateTeamRating(lines *models.LineSet, report *models.ChemistryReport) models.TeamRating {
	components := map[string]float64{}

	for i := range lines.Forward {
		line := &lines.Forward[i]
		key := fmt.Sprintf("line_%d", line.Number)
		components[key] = chemistryAdjusted(meanOverall(line.Players()), report.ForwardLines[line.Number].Score)
	}
	for i := range lines.Defense {
		pair := &lines.Defense[i]
		key := fmt.Sprintf("pair_%d", pair.Number)
		components[key] = chemistryAdjusted(meanOverall(pair.Players()), report.DefensePairs[pair.Number].Score)
	}
	for i := range lines.PowerPlay {
		unit := &lines.PowerPlay[i]
		key := fmt.Sprintf("power_play_%d", unit.Number)
		components[key] = chemistryAdjusted(meanOverall(unit.AllPlayers()), report.PowerPlay[unit.Number].Score)
	}
	for i := range lines.PenaltyKill {
		unit := &lines.PenaltyKill[i]
		key := fmt.Sprintf("penalty_kill_%d", unit.Number)
		components[key] = chemistryAdjusted(meanOverall(unit.AllPlayers()), report.PenaltyKill[unit.Number].Score)
	}

	components["other_special_teams"] = meanOverall(lines.Overtime.AllPlayers())
	components["shootout"] = meanOverall(lines.Shootout)
	components["goaltending"] = goaltendingRating(lines.Goalies)

	for key := range components {
		components[key] = clamp99(components[key])
	}

	rating := models.TeamRating{Components: components}
	rating.Offense = weightedCategory(components, "line_1", "line_2", "line_3", "line_4")
	rating.Defense = weightedCategory(components, "pair_1", "pair_2", "pair_3")
	rating.SpecialTeams = weightedCategory(components,
		"power_play_1", "power_play_2", "penalty_kill_1", "penalty_kill_2",
		"other_special_teams", "shootout")
	rating.Goaltending = components["goaltending"]

	overall := weightedCategory(components,
		"line_1", "line_2", "line_3", "line_4",
		"pair_1", "pair_2", "pair_3",
		"power_play_1", "power_play_2", "penalty_kill_1", "penalty_kill_2",
		"other_special_teams", "shootout", "goaltending")

	// The coach bonus touches only the overall number; category ratings
	// stay coach-free.
	rating.Overall = clamp99(overall * e.coachBonusMultiplier())
	rating.Offense = clamp99(rating.Offense)
	rating.Defense = clamp99(rating.Defense)
	rating.SpecialTeams = clamp99(rating.SpecialTeams)
	rating.Goaltending = clamp99(rating.Goaltending)

	return rating
}

// coachBonusMultiplier converts the external coach-quality signal into a
// 1-3% overall bump, plus half a percent for a sharply focused strategy.
// No signal, no bonus.
func (e *Engine) coachBonusMultiplier() float64 {
	q := e.cfg.Coach.Quality
	if q <= 0 {
		return 1.0
	}
	if q > 1 {
		q = 1
	}
	bonus := 0.01 + 0.02*q
	if e.cfg.Coach.StrategyFocus > 0.8 {
		bonus += 0.005
	}
	return 1.0 + bonus
}

// weightedCategory combines the named components with their fixed weights,
// renormalized over the components holding non-zero values
func weightedCategory(components map[string]float64, keys ...string) float64 {
	totalWeight := 0.0
	sum := 0.0
	for _, key := range keys {
		v := components[key]
		if v == 0 {
			continue
		}
		w := componentWeights[key]
		totalWeight += w
		sum += w * v
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

func chemistryAdjusted(base, chem float64) float64 {
	return base * (1 + chem/100)
}

// goaltendingRating is the split-weighted mean of the rotation's overalls
func goaltendingRating(goalies []models.GoalieSlot) float64 {
	totalSplit := 0
	sum := 0.0
	for _, g := range goalies {
		if g.Player == nil {
			continue
		}
		split := g.SplitPct
		if split <= 0 {
			split = 1
		}
		totalSplit += split
		sum += float64(split) * float64(g.Player.Overall)
	}
	if totalSplit == 0 {
		return 0
	}
	return sum / float64(totalSplit)
}

func meanOverall(players []*models.Player) float64 {
	n := 0
	sum := 0
	for _, p := range players {
		if p == nil {
			continue
		}
		sum += p.Overall
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func clamp99(v float64) float64 {
	if v > 99 {
		return 99
	}
	if v < 0 {
		return 0
	}
	return v
}
