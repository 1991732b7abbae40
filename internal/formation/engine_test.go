package formation

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/frozenpond/benchboss/internal/logger"
	"github.com/frozenpond/benchboss/internal/models"
)

func skater(id string, pos models.Position, typ models.PlayerType, overall, shooting, defense, weight int, hand models.Hand) *models.Player {
	return &models.Player{
		ID:        id,
		FirstName: "Test",
		LastName:  id,
		Position:  pos,
		Type:      typ,
		Overall:   overall,
		Shooting:  shooting,
		Defense:   defense,
		WeightLbs: weight,
		Shoots:    hand,
	}
}

func goalie(id string, overall int, starter bool) *models.Player {
	return &models.Player{ID: id, LastName: id, Position: models.Goalie, Overall: overall, Starter: starter}
}

// fullRoster is 12 forwards, 6 defensemen, 2 goalies with a spread of types
func fullRoster() []*models.Player {
	return []*models.Player{
		skater("c1", models.Center, models.Playmaker, 92, 84, 70, 190, models.LeftHand),
		skater("c2", models.Center, models.TwoWayForward, 87, 78, 85, 200, models.LeftHand),
		skater("c3", models.Center, models.Sniper, 83, 86, 62, 185, models.RightHand),
		skater("c4", models.Center, models.Enforcer, 76, 60, 68, 225, models.LeftHand),
		skater("lw1", models.LeftWing, models.PowerForward, 90, 85, 72, 218, models.LeftHand),
		skater("lw2", models.LeftWing, models.Sniper, 85, 89, 60, 182, models.LeftHand),
		skater("lw3", models.LeftWing, models.TwoWayForward, 81, 70, 82, 195, models.LeftHand),
		skater("lw4", models.LeftWing, models.Enforcer, 74, 58, 65, 230, models.LeftHand),
		skater("rw1", models.RightWing, models.Sniper, 91, 93, 58, 188, models.RightHand),
		skater("rw2", models.RightWing, models.Playmaker, 86, 80, 66, 178, models.RightHand),
		skater("rw3", models.RightWing, models.TwoWayForward, 80, 72, 80, 192, models.RightHand),
		skater("rw4", models.RightWing, models.PowerForward, 75, 68, 62, 210, models.RightHand),
		skater("ld1", models.LeftDefense, models.OffensiveDefenseman, 89, 82, 75, 195, models.LeftHand),
		skater("ld2", models.LeftDefense, models.DefensiveDefenseman, 84, 55, 88, 215, models.LeftHand),
		skater("ld3", models.LeftDefense, models.TwoWayDefenseman, 79, 62, 78, 205, models.LeftHand),
		skater("rd1", models.RightDefense, models.DefensiveDefenseman, 87, 52, 90, 220, models.RightHand),
		skater("rd2", models.RightDefense, models.TwoWayDefenseman, 82, 65, 80, 200, models.RightHand),
		skater("rd3", models.RightDefense, models.OffensiveDefenseman, 77, 74, 64, 190, models.RightHand),
		goalie("g1", 90, true),
		goalie("g2", 82, false),
	}
}

func testEngine(t *testing.T, roster []*models.Player, coach *models.Coach, cfg Config) *Engine {
	t.Helper()
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(7))
	}
	return NewEngine("team-1", roster, coach, cfg)
}

func TestGenerateOptimalLinesFullRoster(t *testing.T) {
	logger.Init()

	e := testEngine(t, fullRoster(), nil, Config{})
	result := e.GenerateOptimalLines()

	if result.Lines == nil || result.Chemistry == nil {
		t.Fatal("expected fully populated result")
	}
	if len(result.Lines.Forward) != 4 {
		t.Fatalf("expected 4 forward lines, got %d", len(result.Lines.Forward))
	}
	if len(result.Lines.Defense) != 3 {
		t.Fatalf("expected 3 defense pairs, got %d", len(result.Lines.Defense))
	}
	for _, line := range result.Lines.Forward {
		if !line.Complete() {
			t.Errorf("line %d should be complete with a full roster", line.Number)
		}
	}
	if len(result.Lines.Goalies) != 2 {
		t.Fatalf("expected 2 goalie slots, got %d", len(result.Lines.Goalies))
	}

	if result.Rating.Failed {
		t.Fatal("rating should not fail on a full roster")
	}
	if result.Rating.Overall <= 0 || result.Rating.Overall > 99 {
		t.Errorf("overall out of range: %v", result.Rating.Overall)
	}
	for _, key := range []string{"line_1", "pair_1", "power_play_1", "penalty_kill_1", "goaltending", "shootout"} {
		if _, ok := result.Rating.Components[key]; !ok {
			t.Errorf("missing rating component %q", key)
		}
	}
	for i := 1; i <= 4; i++ {
		if _, ok := result.Chemistry.ForwardLines[i]; !ok {
			t.Errorf("missing chemistry for forward line %d", i)
		}
	}

	if e.CurrentLines() != result.Lines {
		t.Error("generation should install the produced lines as current")
	}
}

func TestGenerateOptimalLinesNoDuplicatePlayers(t *testing.T) {
	e := testEngine(t, fullRoster(), &models.Coach{Name: "T", StrategyType: "Offensive"}, Config{})
	result := e.GenerateOptimalLines()

	roster := map[string]bool{}
	for _, p := range fullRoster() {
		roster[p.ID] = true
	}

	// No player appears on both PP units, or on both PK units (unless PK2
	// is an explicit reuse of PK1's full personnel).
	seen := map[string]bool{}
	for _, unit := range result.Lines.PowerPlay {
		for _, p := range unit.AllPlayers() {
			if !roster[p.ID] {
				t.Fatalf("power play invented player %q", p.ID)
			}
			if seen[p.ID] {
				t.Errorf("player %q on both power play units", p.ID)
			}
			seen[p.ID] = true
		}
	}

	// Even-strength assignments are unique across lines and pairs
	esSeen := map[string]bool{}
	for _, line := range result.Lines.Forward {
		for _, p := range line.Players() {
			if p == nil {
				continue
			}
			if esSeen[p.ID] {
				t.Errorf("player %q double-booked at even strength", p.ID)
			}
			esSeen[p.ID] = true
		}
	}
	for _, pair := range result.Lines.Defense {
		for _, p := range pair.Players() {
			if p == nil {
				continue
			}
			if esSeen[p.ID] {
				t.Errorf("defenseman %q double-booked at even strength", p.ID)
			}
			esSeen[p.ID] = true
		}
	}
}

func TestPowerPlayRefinement(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})
	result := e.GenerateOptimalLines()

	if len(result.Lines.PowerPlay) != 2 {
		t.Fatalf("expected 2 power play units, got %d", len(result.Lines.PowerPlay))
	}
	pp1 := result.Lines.PowerPlay[0]
	if len(pp1.Defense) != 1 || len(pp1.Forwards) != 4 {
		t.Fatalf("PP1 should run 4F+1D, got %dF+%dD", len(pp1.Forwards), len(pp1.Defense))
	}
	// ld1 is the best offensive defenseman and should quarterback PP1
	if pp1.Defense[0].ID != "ld1" {
		t.Errorf("expected ld1 to quarterback PP1, got %q", pp1.Defense[0].ID)
	}
	// rw1 is the top right-shot sniper: off-wing means the left side
	found := false
	for _, f := range pp1.Forwards {
		if f.Player.ID == "rw1" {
			found = true
			if f.Role != models.LeftWing {
				t.Errorf("right-shot sniper should play the left half wall, got role %q", f.Role)
			}
		}
	}
	if !found {
		t.Error("top sniper missing from PP1")
	}

	pp2 := result.Lines.PowerPlay[1]
	if len(pp2.Defense) != 2 || len(pp2.Forwards) != 3 {
		t.Fatalf("PP2 should run 3F+2D, got %dF+%dD", len(pp2.Forwards), len(pp2.Defense))
	}
}

func TestPenaltyKillRefinement(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})
	result := e.GenerateOptimalLines()

	if len(result.Lines.PenaltyKill) != 2 {
		t.Fatalf("expected 2 penalty kill units, got %d", len(result.Lines.PenaltyKill))
	}
	pk1 := result.Lines.PenaltyKill[0]
	if len(pk1.Forwards) != 2 || len(pk1.Defense) != 2 {
		t.Fatalf("PK1 should run 2F+2D, got %dF+%dD", len(pk1.Forwards), len(pk1.Defense))
	}
	// c2 is the only defensively-typed center and should take the PK1 draw
	if pk1.Forwards[0].Player.ID != "c2" {
		t.Errorf("expected c2 on PK1, got %q", pk1.Forwards[0].Player.ID)
	}
	for _, d := range pk1.Defense {
		if !d.Type.IsDefensiveType() {
			t.Errorf("PK1 defenseman %q is not defensively typed", d.ID)
		}
	}
}

func TestPenaltyKillReusesUnitWhenShort(t *testing.T) {
	// Only enough skaters for one full PK unit
	roster := []*models.Player{
		skater("c1", models.Center, models.TwoWayForward, 85, 70, 84, 200, models.LeftHand),
		skater("w1", models.LeftWing, models.TwoWayForward, 82, 68, 80, 195, models.LeftHand),
		skater("rw1", models.RightWing, models.Sniper, 84, 88, 55, 185, models.RightHand),
		skater("d1", models.LeftDefense, models.DefensiveDefenseman, 84, 50, 86, 210, models.LeftHand),
		skater("d2", models.RightDefense, models.DefensiveDefenseman, 81, 48, 83, 215, models.RightHand),
		goalie("g1", 85, true),
	}
	e := testEngine(t, roster, nil, Config{})
	result := e.GenerateOptimalLines()

	pk := result.Lines.PenaltyKill
	if len(pk) != 2 {
		t.Fatalf("expected 2 penalty kill units, got %d", len(pk))
	}
	if len(pk[1].Forwards) != len(pk[0].Forwards) || len(pk[1].Defense) != len(pk[0].Defense) {
		t.Fatal("short PK2 should reuse PK1 personnel")
	}
	for i := range pk[0].Forwards {
		if pk[1].Forwards[i].Player.ID != pk[0].Forwards[i].Player.ID {
			t.Errorf("PK2 forward %d differs from PK1", i)
		}
	}
	if pk[1].Number != 2 {
		t.Errorf("reused unit should keep number 2, got %d", pk[1].Number)
	}
}

func TestSimulateGameEffects(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})

	if err := e.SimulateGameEffects(60); err == nil {
		t.Fatal("expected error before any lines exist")
	}

	result := e.GenerateOptimalLines()
	if err := e.SimulateGameEffects(0); err == nil {
		t.Fatal("expected error for non-positive minutes")
	}
	if err := e.SimulateGameEffects(60); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	line1 := result.Lines.Forward[0]
	minutes := e.Chemistry().MinutesTogether(line1.C.ID, line1.LW.ID)
	if minutes <= 0 {
		t.Fatalf("line 1 minutes should accrue, got %v", minutes)
	}

	line4 := result.Lines.Forward[3]
	if line4.Complete() {
		m4 := e.Chemistry().MinutesTogether(line4.C.ID, line4.LW.ID)
		if m4 >= minutes {
			t.Errorf("line 4 (%v min) should log less than line 1 (%v min)", m4, minutes)
		}
	}
}

func TestLineDeployment(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})

	for _, situation := range []string{"even", "leading", "trailing", "overtime", "garbage"} {
		dep := e.LineDeployment(situation)

		forwardSum, defenseSum := 0.0, 0.0
		for i := 1; i <= 4; i++ {
			forwardSum += dep[fmt.Sprintf("line_%d", i)]
		}
		for i := 1; i <= 3; i++ {
			defenseSum += dep[fmt.Sprintf("pair_%d", i)]
		}
		if math.Abs(forwardSum-1) > 1e-9 {
			t.Errorf("%s: forward shares sum to %v", situation, forwardSum)
		}
		if math.Abs(defenseSum-1) > 1e-9 {
			t.Errorf("%s: defense shares sum to %v", situation, defenseSum)
		}
	}

	even := e.LineDeployment("even")
	overtime := e.LineDeployment("overtime")
	if overtime["line_1"] <= even["line_1"] {
		t.Error("overtime should lean harder on line 1")
	}
	unknown := e.LineDeployment("garbage")
	if unknown["line_1"] != even["line_1"] {
		t.Error("unknown situation should read as even strength")
	}
}

func TestUpdateCurrentLinesClones(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})
	base := e.GenerateOptimalLines()

	manual := base.Lines.Clone()
	result := e.UpdateCurrentLines(manual)
	if result.Rating.Failed {
		t.Fatal("manual lines should still rate")
	}

	// Mutating the caller's copy must not reach the engine's current lines
	manual.Forward[0].C = nil
	if e.CurrentLines().Forward[0].C == nil {
		t.Error("engine should hold its own copy of applied lines")
	}
}

type memPresets struct {
	saved map[string]*models.LineSet
}

func (m *memPresets) SaveLinePreset(teamID, name string, lines *models.LineSet) error {
	if m.saved == nil {
		m.saved = map[string]*models.LineSet{}
	}
	m.saved[teamID+"/"+name] = lines.Clone()
	return nil
}

func (m *memPresets) LoadLinePreset(teamID, name string) (*models.LineSet, error) {
	ls, ok := m.saved[teamID+"/"+name]
	if !ok {
		return nil, fmt.Errorf("preset %q not found", name)
	}
	return ls.Clone(), nil
}

func TestLinePresets(t *testing.T) {
	store := &memPresets{}
	e := testEngine(t, fullRoster(), nil, Config{Presets: store})

	if err := e.SaveLinePreset("opening-night"); err == nil {
		t.Fatal("expected error saving before lines exist")
	}

	generated := e.GenerateOptimalLines()
	if err := e.SaveLinePreset("opening-night"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := e.LoadLinePreset("missing"); err == nil {
		t.Fatal("expected error loading an unknown preset")
	}
	loaded, err := e.LoadLinePreset("opening-night")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Lines.Forward[0].C.ID != generated.Lines.Forward[0].C.ID {
		t.Error("loaded preset should restore the saved assignments")
	}

	bare := testEngine(t, fullRoster(), nil, Config{})
	bare.GenerateOptimalLines()
	if err := bare.SaveLinePreset("x"); err == nil {
		t.Fatal("expected error without a preset store")
	}
}

func TestMatchupRecommendationsNilCoach(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})
	if got := e.MatchupRecommendations(); got != (models.MatchupPreferences{}) {
		t.Errorf("nil coach should yield zero preferences, got %+v", got)
	}
}

func TestCoachBonusAppliesToOverallOnly(t *testing.T) {
	without := testEngine(t, fullRoster(), nil, Config{Rand: rand.New(rand.NewSource(3))})
	with := testEngine(t, fullRoster(), nil, Config{
		Rand:  rand.New(rand.NewSource(3)),
		Coach: CoachQuality{Quality: 1.0, StrategyFocus: 0.9},
	})

	base := without.GenerateOptimalLines()
	boosted := with.GenerateOptimalLines()

	wantMultiplier := 1.0 + 0.01 + 0.02 + 0.005
	if math.Abs(boosted.Rating.Overall-base.Rating.Overall*wantMultiplier) > 1e-9 {
		t.Errorf("overall %v, want %v", boosted.Rating.Overall, base.Rating.Overall*wantMultiplier)
	}
	if boosted.Rating.Offense != base.Rating.Offense {
		t.Error("coach bonus must not touch the offense rating")
	}
	if boosted.Rating.Goaltending != base.Rating.Goaltending {
		t.Error("coach bonus must not touch goaltending")
	}
}

func TestAggregateTeamChemistryRenormalizes(t *testing.T) {
	report := &models.ChemistryReport{
		ForwardLines: map[int]models.UnitChemistry{
			1: {Score: 2.0},
			2: {Score: 1.0},
		},
		DefensePairs: map[int]models.UnitChemistry{},
		PowerPlay:    map[int]models.UnitChemistry{},
		PenaltyKill:  map[int]models.UnitChemistry{},
	}

	// Only the forward category is populated, so its weight renormalizes
	// to 1 and the aggregate is the plain category mean.
	got := aggregateTeamChemistry(report)
	if math.Abs(got-1.5) > 1e-9 {
		t.Errorf("aggregate = %v, want 1.5", got)
	}

	report.DefensePairs[1] = models.UnitChemistry{Score: -1.0}
	got = aggregateTeamChemistry(report)
	want := (0.40*1.5 + 0.30*-1.0) / 0.70
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("aggregate = %v, want %v", got, want)
	}
}

func TestCorrectNegativeLinesSwapsWings(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})
	lines := e.optimizer.GenerateAllLines()
	report := e.calculateAllChemistry(lines)

	// Force a negative score onto line 1 and remember the wings
	line1 := &lines.Forward[0]
	lw, rw := line1.LW, line1.RW
	report.ForwardLines[1] = models.UnitChemistry{Score: -2.0}

	swapped := e.correctNegativeLines(lines, report)

	if swapped != 1 {
		t.Errorf("expected 1 correction, got %d", swapped)
	}
	if line1.LW != rw || line1.RW != lw {
		t.Error("negative line should have its wingers swapped")
	}
	if report.ForwardLines[1].Score == -2.0 {
		t.Error("swapped line should be rescored")
	}
}

func TestUpdateCurrentLinesNil(t *testing.T) {
	e := testEngine(t, fullRoster(), nil, Config{})

	result := e.UpdateCurrentLines(nil)
	if result == nil || result.Lines == nil || result.Chemistry == nil {
		t.Fatal("nil input must still yield a populated result")
	}
	if !result.Rating.Failed {
		t.Error("rating for a nil line set should be flagged failed")
	}
	if e.CurrentLines() != nil {
		t.Error("nil input must not replace the current lines")
	}
}

func TestTeamRatingZeroedOnFailure(t *testing.T) {
	logger.Init()

	e := testEngine(t, fullRoster(), nil, Config{})
	lines := e.optimizer.GenerateAllLines()

	// A nil report panics inside the calculation; the wrapper must convert
	// that into an explicit failed rating.
	rating := e.safeTeamRating(lines, nil)
	if !rating.Failed {
		t.Fatal("expected a failed rating")
	}
	if rating.Overall != 0 || rating.Offense != 0 {
		t.Errorf("failed rating should be zeroed, got %+v", rating)
	}
}
