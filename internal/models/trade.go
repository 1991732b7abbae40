package models

import "github.com/shopspring/decimal"

// ContractType classifies a player's current deal
type ContractType string

const (
	ContractELC      ContractType = "ELC"
	ContractBridge   ContractType = "Bridge"
	ContractStandard ContractType = "Standard"
	ContractUFA      ContractType = "UFA"      // expiring, pending unrestricted
	Contract35Plus   ContractType = "35+"      // over-35 contract
)

// PotentialTier is a scout's ceiling projection
type PotentialTier string

const (
	PotentialBottom6      PotentialTier = "Bottom 6"
	PotentialMiddle6      PotentialTier = "Middle 6"
	PotentialTop6         PotentialTier = "Top 6"
	PotentialElite        PotentialTier = "Elite"
	PotentialFranchise    PotentialTier = "Franchise"
	PotentialGenerational PotentialTier = "Generational"
)

// TradeProfile is everything the trade-value scorer needs to know about one
// player. AAV is annual average value in millions.
type TradeProfile struct {
	PlayerID            string          `json:"playerId,omitempty"`
	Name                string          `json:"name,omitempty"`
	Overall             int             `json:"overall"`
	Age                 int             `json:"age"`
	Position            Position        `json:"position"`
	ContractType        ContractType    `json:"contractType"`
	TermYears           int             `json:"termYears"`
	AAV                 decimal.Decimal `json:"aav"`
	Potential           PotentialTier   `json:"potential"`
	PotentialCertainty  float64         `json:"potentialCertainty"`  // 0..1
	PotentialVolatility float64         `json:"potentialVolatility"` // 0..1
	Captain             bool            `json:"captain"`
	Alternate           bool            `json:"alternate"`
	StanleyCups         int             `json:"stanleyCups"`
	MajorAward          bool            `json:"majorAward"`
}

// TradeSide is one team's half of a trade evaluation
type TradeSide struct {
	PlayerValues  []float64 `json:"playerValues"`
	RawTotal      float64   `json:"rawTotal"`
	AdjustedTotal float64   `json:"adjustedTotal"`
	Score         float64   `json:"score"` // 0-100, normalized against the other side
}

// TradeEvaluation is the result of comparing two baskets of players
type TradeEvaluation struct {
	Team1      TradeSide `json:"team1"`
	Team2      TradeSide `json:"team2"`
	Assessment string    `json:"tradeAssessment"`
	Favors     string    `json:"favors,omitempty"` // "team1", "team2", or empty when even
	Difference float64   `json:"difference"`       // absolute gap in score points
}
