// Package lineup builds baseline line structures from a roster by positional
// grouping and rating sort. No chemistry, no coach input; it is the seed the
// formation engine refines.
package lineup

import (
	"sort"

	"github.com/frozenpond/benchboss/internal/models"
)

const (
	maxForwardLines = 4
	maxDefensePairs = 3

	starterSplitPct = 65
	backupSplitPct  = 35
)

// Optimizer holds a categorized, rating-sorted view of one team's roster
type Optimizer struct {
	forwards   []*models.Player
	defensemen []*models.Player
	goalies    []*models.Player
	byPosition map[models.Position][]*models.Player
}

// New categorizes the roster into forwards, defensemen, and goalies, each
// sorted descending by overall rating. Nil entries are dropped.
func New(roster []*models.Player) *Optimizer {
	o := &Optimizer{
		byPosition: make(map[models.Position][]*models.Player),
	}

	for _, p := range roster {
		if p == nil {
			continue
		}
		switch {
		case p.Position.IsForward():
			o.forwards = append(o.forwards, p)
		case p.Position.IsDefense():
			o.defensemen = append(o.defensemen, p)
		case p.Position == models.Goalie:
			o.goalies = append(o.goalies, p)
		default:
			continue
		}
		o.byPosition[p.Position] = append(o.byPosition[p.Position], p)
	}

	byOverall := func(group []*models.Player) {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Overall > group[j].Overall
		})
	}
	byOverall(o.forwards)
	byOverall(o.defensemen)
	byOverall(o.goalies)
	for pos := range o.byPosition {
		byOverall(o.byPosition[pos])
	}

	return o
}

// Forwards returns all forwards, best first
func (o *Optimizer) Forwards() []*models.Player { return o.forwards }

// Defensemen returns all defensemen, best first
func (o *Optimizer) Defensemen() []*models.Player { return o.defensemen }

// Goalies returns all goalies, best first
func (o *Optimizer) Goalies() []*models.Player { return o.goalies }

// GenerateAllLines builds the complete baseline line set. Forward lines and
// defense pairs take the Nth-best player at each position independently, so
// a thin position group leaves empty slots rather than borrowing across
// positions. Special teams are plain rating slices here.
func (o *Optimizer) GenerateAllLines() *models.LineSet {
	ls := &models.LineSet{}

	for i := 0; i < maxForwardLines; i++ {
		ls.Forward = append(ls.Forward, models.ForwardLine{
			Number: i + 1,
			LW:     o.nth(models.LeftWing, i),
			C:      o.nth(models.Center, i),
			RW:     o.nth(models.RightWing, i),
		})
	}

	for i := 0; i < maxDefensePairs; i++ {
		ls.Defense = append(ls.Defense, models.DefensePair{
			Number: i + 1,
			LD:     o.nth(models.LeftDefense, i),
			RD:     o.nth(models.RightDefense, i),
		})
	}

	if len(o.goalies) > 0 {
		ls.Goalies = append(ls.Goalies, models.GoalieSlot{
			Player: o.goalies[0], Starter: true, SplitPct: starterSplitPct,
		})
	}
	if len(o.goalies) > 1 {
		ls.Goalies = append(ls.Goalies, models.GoalieSlot{
			Player: o.goalies[1], Starter: false, SplitPct: backupSplitPct,
		})
	}

	ls.PowerPlay = o.baselinePowerPlay()
	ls.PenaltyKill = o.baselinePenaltyKill()
	ls.Overtime = o.overtimeUnit()
	ls.Shootout = firstN(o.forwards, 3)

	return ls
}

// nth returns the i-th best player at a position, or nil when the group
// runs out
func (o *Optimizer) nth(pos models.Position, i int) *models.Player {
	group := o.byPosition[pos]
	if i >= len(group) {
		return nil
	}
	return group[i]
}

// baselinePowerPlay slices the top forwards and defensemen into two units
// with no position awareness; the formation engine rebuilds these properly.
func (o *Optimizer) baselinePowerPlay() []models.SpecialUnit {
	return []models.SpecialUnit{
		{
			Number:   1,
			Forwards: asUnitForwards(sliceRange(o.forwards, 0, 3)),
			Defense:  sliceRange(o.defensemen, 0, 2),
		},
		{
			Number:   2,
			Forwards: asUnitForwards(sliceRange(o.forwards, 3, 6)),
			Defense:  sliceRange(o.defensemen, 2, 4),
		},
	}
}

// baselinePenaltyKill slices analogously but ranks forwards by defensive
// ability when that attribute is populated
func (o *Optimizer) baselinePenaltyKill() []models.SpecialUnit {
	ranked := append([]*models.Player(nil), o.forwards...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return defensiveAbility(ranked[i]) > defensiveAbility(ranked[j])
	})

	return []models.SpecialUnit{
		{
			Number:   1,
			Forwards: asUnitForwards(sliceRange(ranked, 0, 2)),
			Defense:  sliceRange(o.defensemen, 0, 2),
		},
		{
			Number:   2,
			Forwards: asUnitForwards(sliceRange(ranked, 2, 4)),
			Defense:  sliceRange(o.defensemen, 2, 4),
		},
	}
}

func (o *Optimizer) overtimeUnit() models.SpecialUnit {
	return models.SpecialUnit{
		Number:   1,
		Forwards: asUnitForwards(firstN(o.forwards, 2)),
		Defense:  firstN(o.defensemen, 1),
	}
}

// TeamOverallRating is the chemistry-free arithmetic rating: group means
// combined 40% offense, 40% defense, 20% goaltending, clamped to 99.
func (o *Optimizer) TeamOverallRating() models.BasicRating {
	r := models.BasicRating{
		Offense: meanOverall(o.forwards),
		Defense: meanOverall(o.defensemen),
	}
	if len(o.goalies) > 0 {
		r.Goaltending = float64(o.goalies[0].Overall)
	}

	r.Offense = clamp99(r.Offense)
	r.Defense = clamp99(r.Defense)
	r.Goaltending = clamp99(r.Goaltending)
	r.Overall = clamp99(r.Offense*0.4 + r.Defense*0.4 + r.Goaltending*0.2)
	return r
}

func defensiveAbility(p *models.Player) int {
	if p.Defense > 0 {
		return p.Defense
	}
	return p.Overall
}

func meanOverall(players []*models.Player) float64 {
	if len(players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range players {
		sum += p.Overall
	}
	return float64(sum) / float64(len(players))
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

func firstN(players []*models.Player, n int) []*models.Player {
	if n > len(players) {
		n = len(players)
	}
	return append([]*models.Player(nil), players[:n]...)
}

func sliceRange(players []*models.Player, from, to int) []*models.Player {
	if from > len(players) {
		from = len(players)
	}
	if to > len(players) {
		to = len(players)
	}
	return append([]*models.Player(nil), players[from:to]...)
}

func asUnitForwards(players []*models.Player) []models.UnitForward {
	out := make([]models.UnitForward, 0, len(players))
	for _, p := range players {
		out = append(out, models.UnitForward{Player: p, Role: p.Position})
	}
	return out
}
