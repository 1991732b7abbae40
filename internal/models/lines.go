package models

// ForwardLine is one even-strength forward trio. Number runs 1-4, best to
// worst as seeded by the optimizer. Nil slots are unfilled.
type ForwardLine struct {
	Number int     `json:"number"`
	LW     *Player `json:"lw,omitempty"`
	C      *Player `json:"c,omitempty"`
	RW     *Player `json:"rw,omitempty"`
}

// Players returns the slots in LW, C, RW order, nils included
func (l *ForwardLine) Players() []*Player {
	return []*Player{l.LW, l.C, l.RW}
}

// Complete reports whether every slot is filled
func (l *ForwardLine) Complete() bool {
	return l.LW != nil && l.C != nil && l.RW != nil
}

// DefensePair is one even-strength defense pair, numbered 1-3
type DefensePair struct {
	Number int     `json:"number"`
	LD     *Player `json:"ld,omitempty"`
	RD     *Player `json:"rd,omitempty"`
}

// Players returns the slots in LD, RD order, nils included
func (p *DefensePair) Players() []*Player {
	return []*Player{p.LD, p.RD}
}

// Complete reports whether both slots are filled
func (p *DefensePair) Complete() bool {
	return p.LD != nil && p.RD != nil
}

// UnitForward is a forward on a special-teams unit together with the role
// they play there, which may differ from their roster position (a left-shot
// sniper quarterbacking the right half-wall plays "RW" on the unit).
type UnitForward struct {
	Player *Player  `json:"player"`
	Role   Position `json:"role"`
}

// SpecialUnit is a power-play or penalty-kill deployment
type SpecialUnit struct {
	Number   int           `json:"number"`
	Forwards []UnitForward `json:"forwards"`
	Defense  []*Player     `json:"defense"`
}

// ForwardPlayers returns the unit's forwards without their roles
func (u *SpecialUnit) ForwardPlayers() []*Player {
	out := make([]*Player, 0, len(u.Forwards))
	for _, f := range u.Forwards {
		out = append(out, f.Player)
	}
	return out
}

// AllPlayers returns forwards then defense, skipping nils
func (u *SpecialUnit) AllPlayers() []*Player {
	out := make([]*Player, 0, len(u.Forwards)+len(u.Defense))
	for _, f := range u.Forwards {
		if f.Player != nil {
			out = append(out, f.Player)
		}
	}
	for _, d := range u.Defense {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// GoalieSlot is one spot in the goalie rotation. SplitPct is the share of
// starts, e.g. 65 for the starter of a 65/35 tandem.
type GoalieSlot struct {
	Player   *Player `json:"player"`
	Starter  bool    `json:"starter"`
	SplitPct int     `json:"splitPct"`
}

// LineSet is the full set of line assignments for a team
type LineSet struct {
	Forward     []ForwardLine `json:"forwardLines"`
	Defense     []DefensePair `json:"defensePairs"`
	Goalies     []GoalieSlot  `json:"goalies"`
	PowerPlay   []SpecialUnit `json:"powerPlayUnits"`
	PenaltyKill []SpecialUnit `json:"penaltyKillUnits"`
	Overtime    SpecialUnit   `json:"overtime"`
	Shootout    []*Player     `json:"shootout"`
}

// Clone deep-copies the line structure. Player pointers are shared: players
// are read-only to the engine, so only the assignment shape needs copying.
func (ls *LineSet) Clone() *LineSet {
	if ls == nil {
		return nil
	}
	out := &LineSet{
		Forward:  append([]ForwardLine(nil), ls.Forward...),
		Defense:  append([]DefensePair(nil), ls.Defense...),
		Goalies:  append([]GoalieSlot(nil), ls.Goalies...),
		Shootout: append([]*Player(nil), ls.Shootout...),
	}
	out.PowerPlay = cloneUnits(ls.PowerPlay)
	out.PenaltyKill = cloneUnits(ls.PenaltyKill)
	out.Overtime = cloneUnit(ls.Overtime)
	return out
}

func cloneUnits(units []SpecialUnit) []SpecialUnit {
	out := make([]SpecialUnit, len(units))
	for i := range units {
		out[i] = cloneUnit(units[i])
	}
	return out
}

func cloneUnit(u SpecialUnit) SpecialUnit {
	return SpecialUnit{
		Number:   u.Number,
		Forwards: append([]UnitForward(nil), u.Forwards...),
		Defense:  append([]*Player(nil), u.Defense...),
	}
}

// UnitChemistry is a scored unit: the [-5, +5] chemistry value plus the
// per-dimension factor breakdown it was derived from.
type UnitChemistry struct {
	Score   float64            `json:"score"`
	Factors map[string]float64 `json:"factors"`
}

// ChemistryReport holds chemistry for every unit in a line set, keyed by
// unit number, plus the weighted team aggregate.
type ChemistryReport struct {
	ForwardLines map[int]UnitChemistry `json:"forwardLines"`
	DefensePairs map[int]UnitChemistry `json:"defensePairs"`
	PowerPlay    map[int]UnitChemistry `json:"powerPlay"`
	PenaltyKill  map[int]UnitChemistry `json:"penaltyKill"`
	Team         float64               `json:"team"`
}

// TeamRating is the engine's aggregated rating output. It is a value object
// rebuilt on every orchestration call, never mutated in place. Failed marks
// a rating that could not be computed; all numbers are zero in that case.
type TeamRating struct {
	Overall      float64            `json:"overall"`
	Offense      float64            `json:"offense"`
	Defense      float64            `json:"defense"`
	SpecialTeams float64            `json:"specialTeams"`
	Goaltending  float64            `json:"goaltending"`
	Components   map[string]float64 `json:"componentRatings"`
	Failed       bool               `json:"failed,omitempty"`
}

// BasicRating is the optimizer's chemistry-free team rating
type BasicRating struct {
	Overall     float64 `json:"overall"`
	Offense     float64 `json:"offense"`
	Defense     float64 `json:"defense"`
	Goaltending float64 `json:"goaltending"`
}

// IceTimeDistribution is the coach's share tables. Even-strength shares sum
// to 1 within forwards and within defense; special-teams shares sum to 1
// across the two units.
type IceTimeDistribution struct {
	ForwardEvenStrength []float64 `json:"forwardEvenStrength"`
	DefenseEvenStrength []float64 `json:"defenseEvenStrength"`
	PowerPlay           []float64 `json:"powerPlay"`
	PenaltyKill         []float64 `json:"penaltyKill"`
}

// MatchupPreferences is how a coach wants lines deployed against the
// opposition's best
type MatchupPreferences struct {
	CheckingLine      int     `json:"checkingLine"`      // forward line sent out against top opposition
	ShutdownPair      int     `json:"shutdownPair"`      // defense pair matched against top opposition
	OffensiveZoneBias float64 `json:"offensiveZoneBias"` // share of offensive-zone starts for the top line
	LastChange        bool    `json:"lastChange"`        // chase matchups aggressively at home
}
