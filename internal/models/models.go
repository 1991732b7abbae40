package models

// Position is a roster position code
type Position string

const (
	Center       Position = "C"
	LeftWing     Position = "LW"
	RightWing    Position = "RW"
	LeftDefense  Position = "LD"
	RightDefense Position = "RD"
	Goalie       Position = "G"
)

// IsForward reports whether the position is a forward slot
func (p Position) IsForward() bool {
	return p == Center || p == LeftWing || p == RightWing
}

// IsDefense reports whether the position is a defense slot
func (p Position) IsDefense() bool {
	return p == LeftDefense || p == RightDefense
}

// PlayerType is a playing-style tag. Only meaningful for skaters; unknown
// values are tolerated everywhere and contribute nothing to chemistry.
type PlayerType string

const (
	Sniper              PlayerType = "Sniper"
	Playmaker           PlayerType = "Playmaker"
	PowerForward        PlayerType = "Power Forward"
	TwoWayForward       PlayerType = "2-Way Forward"
	Enforcer            PlayerType = "Enforcer"
	OffensiveDefenseman PlayerType = "Offensive Defenseman"
	DefensiveDefenseman PlayerType = "Defensive Defenseman"
	TwoWayDefenseman    PlayerType = "2-Way Defenseman"
)

// IsDefensiveType reports whether the tag is one of the two-way/defensive
// tags that earn the penalty-kill type bonus.
func (t PlayerType) IsDefensiveType() bool {
	return t == TwoWayForward || t == DefensiveDefenseman || t == TwoWayDefenseman
}

// Hand is a shooting (or catching) hand
type Hand string

const (
	LeftHand  Hand = "L"
	RightHand Hand = "R"
)

// Player is a roster player. The engine consumes players read-only; a nil
// *Player is the empty-slot sentinel everywhere a slot may be unfilled.
type Player struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Position       Position   `json:"position"`
	SecondPosition Position   `json:"secondPosition,omitempty"`
	Type           PlayerType `json:"type,omitempty"`
	Overall        int        `json:"overall"`
	Shooting       int        `json:"shooting,omitempty"`
	Defense        int        `json:"defense,omitempty"`
	WeightLbs      int        `json:"weightLbs,omitempty"`
	Shoots         Hand       `json:"shoots,omitempty"`
	Starter        bool       `json:"starter,omitempty"` // goalies only
}

// FullName returns "First Last", tolerating missing parts
func (p *Player) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Coach is the bench boss record a strategy profile is built from.
// Attributes override the strategy template per key ("offensive_bias",
// "defensive_bias", "physical_bias", "skill_bias", "forward_line_balance").
type Coach struct {
	Name         string             `json:"name"`
	StrategyType string             `json:"strategyType"`
	Attributes   map[string]float64 `json:"attributes,omitempty"`
}

// Team is a league team
type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	City   string `json:"city"`
	Abbrev string `json:"abbrev"`
}
