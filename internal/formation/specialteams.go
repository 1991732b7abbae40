package formation

import (
	"sort"

	"github.com/frozenpond/benchboss/internal/models"
)

// refinePowerPlayUnits rebuilds both PP units from scratch over the entire
// forward and defense pool, prioritizing specialists: an offensive
// defenseman quarterbacks, snipers take their off-wing for one-timers, a
// playmaker runs the middle. PP1 targets 4F+1D, PP2 3F+2D from whoever is
// left. Players are never fabricated; short supply means short units.
func (e *Engine) refinePowerPlayUnits() []models.SpecialUnit {
	used := map[string]bool{}

	unit1 := e.buildPowerPlayUnit(1, 4, 1, used)
	unit2 := e.buildPowerPlayUnit(2, 3, 2, used)

	return []models.SpecialUnit{unit1, unit2}
}

func (e *Engine) buildPowerPlayUnit(number, forwardTarget, defenseTarget int, used map[string]bool) models.SpecialUnit {
	unit := models.SpecialUnit{Number: number}

	// Quarterback: an offensive defenseman if one is available, otherwise
	// the best remaining defenseman.
	defensePool := available(e.optimizer.Defensemen(), used)
	for len(unit.Defense) < defenseTarget {
		qb := bestOfType(defensePool, models.OffensiveDefenseman)
		if qb == nil {
			qb = first(defensePool)
		}
		if qb == nil {
			break
		}
		unit.Defense = append(unit.Defense, qb)
		used[qb.ID] = true
		defensePool = available(e.optimizer.Defensemen(), used)
	}

	forwardPool := available(e.optimizer.Forwards(), used)

	// Off-wing snipers: a right-shot sniper sets up on the left half wall
	// and vice versa, opening the one-timer.
	wingOpen := map[models.Position]bool{models.LeftWing: true, models.RightWing: true}
	snipers := ofType(forwardPool, models.Sniper)
	sort.SliceStable(snipers, func(i, j int) bool {
		return shootingAbility(snipers[i]) > shootingAbility(snipers[j])
	})
	for _, s := range snipers {
		if len(unit.Forwards) >= forwardTarget || (!wingOpen[models.LeftWing] && !wingOpen[models.RightWing]) {
			break
		}
		wing := models.RightWing
		if s.Shoots == models.RightHand {
			wing = models.LeftWing
		}
		if !wingOpen[wing] {
			if wing == models.LeftWing {
				wing = models.RightWing
			} else {
				wing = models.LeftWing
			}
		}
		if !wingOpen[wing] {
			break
		}
		unit.Forwards = append(unit.Forwards, models.UnitForward{Player: s, Role: wing})
		wingOpen[wing] = false
		used[s.ID] = true
	}

	// Middle: a playmaker to distribute, else the best natural center, else
	// best remaining forward.
	forwardPool = available(e.optimizer.Forwards(), used)
	if len(unit.Forwards) < forwardTarget {
		bumper := bestOfType(forwardPool, models.Playmaker)
		if bumper == nil {
			bumper = bestAtPosition(forwardPool, models.Center)
		}
		if bumper == nil {
			bumper = first(forwardPool)
		}
		if bumper != nil {
			unit.Forwards = append(unit.Forwards, models.UnitForward{Player: bumper, Role: models.Center})
			used[bumper.ID] = true
		}
	}

	// Remaining slots: best available at an open wing, then best remaining
	// by overall rating.
	for len(unit.Forwards) < forwardTarget {
		forwardPool = available(e.optimizer.Forwards(), used)
		if len(forwardPool) == 0 {
			break
		}
		var pick *models.Player
		role := models.Position("")
		for _, wing := range []models.Position{models.LeftWing, models.RightWing} {
			if !wingOpen[wing] {
				continue
			}
			if p := bestAtPosition(forwardPool, wing); p != nil && (pick == nil || p.Overall > pick.Overall) {
				pick = p
				role = wing
			}
		}
		if pick == nil {
			pick = first(forwardPool)
			role = pick.Position
		}
		unit.Forwards = append(unit.Forwards, models.UnitForward{Player: pick, Role: role})
		if role == models.LeftWing || role == models.RightWing {
			wingOpen[role] = false
		}
		used[pick.ID] = true
	}

	return unit
}

// refinePenaltyKillUnits rebuilds both PK units preferring two-way and
// defensive player types: best center plus best winger by defensive
// ability, backed by the two best defensive defensemen. When the pool runs
// dry PK2 reuses PK1's personnel rather than icing a short unit.
func (e *Engine) refinePenaltyKillUnits() []models.SpecialUnit {
	used := map[string]bool{}

	unit1 := e.buildPenaltyKillUnit(1, used)
	unit2 := e.buildPenaltyKillUnit(2, used)

	if len(unit2.Forwards) < 2 || len(unit2.Defense) < 2 {
		unit2 = cloneForReuse(unit1, 2)
	}
	return []models.SpecialUnit{unit1, unit2}
}

func (e *Engine) buildPenaltyKillUnit(number int, used map[string]bool) models.SpecialUnit {
	unit := models.SpecialUnit{Number: number}

	forwardPool := availableByDefense(e.optimizer.Forwards(), used)

	if c := bestPenaltyKiller(forwardPool, models.Center); c != nil {
		unit.Forwards = append(unit.Forwards, models.UnitForward{Player: c, Role: models.Center})
		used[c.ID] = true
	}

	forwardPool = availableByDefense(e.optimizer.Forwards(), used)
	if w := bestPenaltyKillWinger(forwardPool); w != nil {
		unit.Forwards = append(unit.Forwards, models.UnitForward{Player: w, Role: w.Position})
		used[w.ID] = true
	}

	defensePool := availableByDefense(e.optimizer.Defensemen(), used)
	for i := 0; i < 2 && i < len(defensePool); i++ {
		unit.Defense = append(unit.Defense, defensePool[i])
		used[defensePool[i].ID] = true
	}

	return unit
}

// bestPenaltyKiller prefers defensively-typed players at the position, then
// falls back to raw defensive ability
func bestPenaltyKiller(pool []*models.Player, pos models.Position) *models.Player {
	var fallback *models.Player
	for _, p := range pool {
		if p.Position != pos {
			continue
		}
		if p.Type.IsDefensiveType() {
			return p
		}
		if fallback == nil {
			fallback = p
		}
	}
	return fallback
}

func bestPenaltyKillWinger(pool []*models.Player) *models.Player {
	var fallback *models.Player
	for _, p := range pool {
		if p.Position != models.LeftWing && p.Position != models.RightWing {
			continue
		}
		if p.Type.IsDefensiveType() {
			return p
		}
		if fallback == nil {
			fallback = p
		}
	}
	return fallback
}

func cloneForReuse(unit models.SpecialUnit, number int) models.SpecialUnit {
	reused := models.SpecialUnit{
		Number:   number,
		Forwards: append([]models.UnitForward(nil), unit.Forwards...),
		Defense:  append([]*models.Player(nil), unit.Defense...),
	}
	return reused
}

func available(pool []*models.Player, used map[string]bool) []*models.Player {
	out := make([]*models.Player, 0, len(pool))
	for _, p := range pool {
		if p != nil && !used[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// availableByDefense filters like available but re-sorts by defensive
// ability with overall as the fallback attribute
func availableByDefense(pool []*models.Player, used map[string]bool) []*models.Player {
	out := available(pool, used)
	sort.SliceStable(out, func(i, j int) bool {
		return defensiveAbility(out[i]) > defensiveAbility(out[j])
	})
	return out
}

func ofType(pool []*models.Player, t models.PlayerType) []*models.Player {
	out := []*models.Player{}
	for _, p := range pool {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// bestOfType returns the highest-overall player of the given type; pools
// are already overall-sorted
func bestOfType(pool []*models.Player, t models.PlayerType) *models.Player {
	for _, p := range pool {
		if p.Type == t {
			return p
		}
	}
	return nil
}

func bestAtPosition(pool []*models.Player, pos models.Position) *models.Player {
	for _, p := range pool {
		if p.Position == pos {
			return p
		}
	}
	return nil
}

func first(pool []*models.Player) *models.Player {
	if len(pool) == 0 {
		return nil
	}
	return pool[0]
}

func shootingAbility(p *models.Player) int {
	if p.Shooting > 0 {
		return p.Shooting
	}
	return p.Overall
}

func defensiveAbility(p *models.Player) int {
	if p.Defense > 0 {
		return p.Defense
	}
	return p.Overall
}
