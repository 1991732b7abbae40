// Package formation orchestrates the full pipeline from roster and coach to
// refined, chemistry- and coach-adjusted lines and team ratings.
package formation

import (
	"fmt"
	"math/rand"

	"github.com/frozenpond/benchboss/internal/chemistry"
	"github.com/frozenpond/benchboss/internal/lineup"
	"github.com/frozenpond/benchboss/internal/logger"
	"github.com/frozenpond/benchboss/internal/models"
	"github.com/frozenpond/benchboss/internal/strategy"
)

// CoachQuality is the external coach-rating signal driving the small overall
// bonus. The engine gives it no semantics beyond the multiplier; whatever
// rates coaches plugs in here. Zero values mean no bonus.
type CoachQuality struct {
	Quality       float64 // 0..1, scales the bonus from 1% to 3%
	StrategyFocus float64 // >0.8 adds another half percent
}

// PresetStore persists named line presets. Persistence itself is a
// collaborator concern; the engine only delegates.
type PresetStore interface {
	SaveLinePreset(teamID, name string, lines *models.LineSet) error
	LoadLinePreset(teamID, name string) (*models.LineSet, error)
}

// Config carries the engine's optional collaborators
type Config struct {
	Coach   CoachQuality
	Rand    *rand.Rand  // drives the probabilistic coach adjustments
	Presets PresetStore // nil disables preset operations
}

// Engine runs line generation for one team. Each engine owns its own
// chemistry calculator, so minutes-together state is scoped to the engine's
// lifetime unless explicitly seeded.
type Engine struct {
	teamID    string
	roster    []*models.Player
	coach     *models.Coach
	profile   *strategy.Profile
	optimizer *lineup.Optimizer
	chem      *chemistry.Calculator
	cfg       Config

	lines *models.LineSet // most recently generated or applied lines
}

// Result is the orchestration output: lines, per-unit chemistry, and the
// aggregated rating. Always fully populated; a rating that could not be
// computed comes back zeroed with Failed set rather than as an error.
type Result struct {
	Lines     *models.LineSet         `json:"lines"`
	Chemistry *models.ChemistryReport `json:"chemistry"`
	Rating    models.TeamRating       `json:"teamRating"`

	// Corrections counts the forward lines the negative-chemistry pass
	// swapped during generation. Always zero for manually applied lines.
	Corrections int `json:"-"`
}

// NewEngine builds an engine over a roster and coach record. A nil coach is
// valid and resolves to the balanced default strategy.
func NewEngine(teamID string, roster []*models.Player, coach *models.Coach, cfg Config) *Engine {
	return &Engine{
		teamID:    teamID,
		roster:    roster,
		coach:     coach,
		profile:   strategy.New(coach, cfg.Rand),
		optimizer: lineup.New(roster),
		chem:      chemistry.NewCalculator(),
		cfg:       cfg,
	}
}

// Chemistry exposes the engine's calculator for ledger seeding and
// inspection
func (e *Engine) Chemistry() *chemistry.Calculator { return e.chem }

// Strategy exposes the coach profile built for this engine
func (e *Engine) Strategy() *strategy.Profile { return e.profile }

// CurrentLines returns the engine's current line set, nil before the first
// generation
func (e *Engine) CurrentLines() *models.LineSet { return e.lines }

// GenerateOptimalLines runs the full pipeline: baseline lines, coach
// adjustment, special-teams refinement, chemistry scoring, the negative-line
// corrective swap, and rating aggregation. Every stage falls back to its
// input on failure; the pipeline always returns a complete Result.
func (e *Engine) GenerateOptimalLines() *Result {
	lines := e.optimizer.GenerateAllLines()

	lines = e.profile.AdjustLines(lines)

	lines = e.safeRefineSpecialTeams(lines)

	report := e.calculateAllChemistry(lines)
	corrections := e.correctNegativeLines(lines, report)

	rating := e.safeTeamRating(lines, report)

	e.lines = lines
	return &Result{Lines: lines, Chemistry: report, Rating: rating, Corrections: corrections}
}

// UpdateCurrentLines accepts manually edited lines, bypassing the optimizer
// and coach passes, and recomputes chemistry and rating from them as given.
func (e *Engine) UpdateCurrentLines(lines *models.LineSet) *Result {
	if lines == nil {
		logger.Warn("Nil line set applied", "team_id", e.teamID)
		return &Result{
			Lines: &models.LineSet{},
			Chemistry: &models.ChemistryReport{
				ForwardLines: map[int]models.UnitChemistry{},
				DefensePairs: map[int]models.UnitChemistry{},
				PowerPlay:    map[int]models.UnitChemistry{},
				PenaltyKill:  map[int]models.UnitChemistry{},
			},
			Rating: models.TeamRating{Components: map[string]float64{}, Failed: true},
		}
	}
	applied := lines.Clone()
	report := e.calculateAllChemistry(applied)
	rating := e.safeTeamRating(applied, report)

	e.lines = applied
	return &Result{Lines: applied, Chemistry: report, Rating: rating}
}

// Special-teams share of a game fed into the ledger by SimulateGameEffects
const specialTeamsShare = 0.10

// SimulateGameEffects books a played game into the minutes-together ledger:
// even-strength minutes by the coach's share tables, special-teams minutes
// by the fixed unit splits.
func (e *Engine) SimulateGameEffects(gameMinutes float64) error {
	if e.lines == nil {
		return fmt.Errorf("no current lines; generate or apply lines before simulating")
	}
	if gameMinutes <= 0 {
		return fmt.Errorf("game minutes must be positive, got %v", gameMinutes)
	}

	dist := e.profile.IceTimeDistribution()

	for i, line := range e.lines.Forward {
		if i >= len(dist.ForwardEvenStrength) {
			break
		}
		e.chem.UpdateTimePlayed(line.Players(), gameMinutes*dist.ForwardEvenStrength[i])
	}
	for i, pair := range e.lines.Defense {
		if i >= len(dist.DefenseEvenStrength) {
			break
		}
		e.chem.UpdateTimePlayed(pair.Players(), gameMinutes*dist.DefenseEvenStrength[i])
	}

	stMinutes := gameMinutes * specialTeamsShare
	for i := range e.lines.PowerPlay {
		if i >= len(dist.PowerPlay) {
			break
		}
		e.chem.UpdateTimePlayed(e.lines.PowerPlay[i].AllPlayers(), stMinutes*dist.PowerPlay[i])
	}
	for i := range e.lines.PenaltyKill {
		if i >= len(dist.PenaltyKill) {
			break
		}
		e.chem.UpdateTimePlayed(e.lines.PenaltyKill[i].AllPlayers(), stMinutes*dist.PenaltyKill[i])
	}

	return nil
}

// situationAdjust nudges deployment shares per game situation before
// renormalization
var situationAdjust = map[string]map[string]float64{
	"leading": {
		"line_1": -0.04, "line_3": 0.03, "line_4": 0.01,
		"pair_1": 0.03, "pair_3": -0.03,
	},
	"trailing": {
		"line_1": 0.05, "line_2": 0.02, "line_4": -0.05, "line_3": -0.02,
		"pair_1": 0.03, "pair_3": -0.03,
	},
	"overtime": {
		"line_1": 0.12, "line_2": 0.02, "line_3": -0.06, "line_4": -0.08,
		"pair_1": 0.10, "pair_2": -0.02, "pair_3": -0.08,
	},
	"even": {},
}

// LineDeployment blends the coach's base ice-time shares with a situational
// adjustment, then renormalizes to sum to 1 within forwards and within
// defense independently. Unknown situations read as "even".
func (e *Engine) LineDeployment(situation string) map[string]float64 {
	adjust, ok := situationAdjust[situation]
	if !ok {
		adjust = situationAdjust["even"]
	}

	dist := e.profile.IceTimeDistribution()
	out := make(map[string]float64, 7)

	forwardSum := 0.0
	for i, share := range dist.ForwardEvenStrength {
		key := fmt.Sprintf("line_%d", i+1)
		v := share + adjust[key]
		if v < 0 {
			v = 0
		}
		out[key] = v
		forwardSum += v
	}
	defenseSum := 0.0
	for i, share := range dist.DefenseEvenStrength {
		key := fmt.Sprintf("pair_%d", i+1)
		v := share + adjust[key]
		if v < 0 {
			v = 0
		}
		out[key] = v
		defenseSum += v
	}

	for i := range dist.ForwardEvenStrength {
		key := fmt.Sprintf("line_%d", i+1)
		if forwardSum > 0 {
			out[key] /= forwardSum
		}
	}
	for i := range dist.DefenseEvenStrength {
		key := fmt.Sprintf("pair_%d", i+1)
		if defenseSum > 0 {
			out[key] /= defenseSum
		}
	}

	return out
}

// MatchupRecommendations returns the coach's deployment preferences, or the
// zero-value default when no coach record was supplied.
func (e *Engine) MatchupRecommendations() models.MatchupPreferences {
	if e.coach == nil {
		return models.MatchupPreferences{}
	}
	return e.profile.MatchupPreferences()
}

// SaveLinePreset stores the current lines under a name via the configured
// preset store
func (e *Engine) SaveLinePreset(name string) error {
	if e.cfg.Presets == nil {
		return fmt.Errorf("no preset store configured")
	}
	if e.lines == nil {
		return fmt.Errorf("no current lines to save")
	}
	return e.cfg.Presets.SaveLinePreset(e.teamID, name, e.lines)
}

// LoadLinePreset restores named lines and recomputes chemistry and rating
// from them
func (e *Engine) LoadLinePreset(name string) (*Result, error) {
	if e.cfg.Presets == nil {
		return nil, fmt.Errorf("no preset store configured")
	}
	lines, err := e.cfg.Presets.LoadLinePreset(e.teamID, name)
	if err != nil {
		return nil, err
	}
	return e.UpdateCurrentLines(lines), nil
}

// safeRefineSpecialTeams rebuilds PP/PK units from the full player pool,
// falling back to the units as adjusted so a refinement failure never aborts
// generation.
func (e *Engine) safeRefineSpecialTeams(lines *models.LineSet) (out *models.LineSet) {
	out = lines.Clone()

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Special teams refinement failed, keeping adjusted units", "team_id", e.teamID, "panic", r)
		}
	}()

	refined := lines.Clone()
	refined.PowerPlay = e.refinePowerPlayUnits()
	refined.PenaltyKill = e.refinePenaltyKillUnits()
	return refined
}
