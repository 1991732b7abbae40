package lineup

import (
	"testing"

	"github.com/frozenpond/benchboss/internal/models"
)

func rosterPlayer(id string, pos models.Position, overall int) *models.Player {
	return &models.Player{ID: id, FirstName: "P", LastName: id, Position: pos, Overall: overall}
}

// shortRoster is 2 forwards per position, 2 defensemen per side, 2 goalies
func shortRoster() []*models.Player {
	return []*models.Player{
		rosterPlayer("lw1", models.LeftWing, 88),
		rosterPlayer("lw2", models.LeftWing, 80),
		rosterPlayer("c1", models.Center, 91),
		rosterPlayer("c2", models.Center, 83),
		rosterPlayer("rw1", models.RightWing, 87),
		rosterPlayer("rw2", models.RightWing, 79),
		rosterPlayer("ld1", models.LeftDefense, 86),
		rosterPlayer("ld2", models.LeftDefense, 78),
		rosterPlayer("rd1", models.RightDefense, 85),
		rosterPlayer("rd2", models.RightDefense, 77),
		rosterPlayer("g1", models.Goalie, 89),
		rosterPlayer("g2", models.Goalie, 81),
	}
}

func TestGenerateAllLinesShortRoster(t *testing.T) {
	o := New(shortRoster())
	ls := o.GenerateAllLines()

	if len(ls.Forward) != 4 {
		t.Fatalf("expected 4 forward line slots, got %d", len(ls.Forward))
	}
	for i := 0; i < 2; i++ {
		if !ls.Forward[i].Complete() {
			t.Errorf("line %d should be complete: %+v", i+1, ls.Forward[i])
		}
	}
	for i := 2; i < 4; i++ {
		if ls.Forward[i].LW != nil || ls.Forward[i].C != nil || ls.Forward[i].RW != nil {
			t.Errorf("line %d should be empty with a 6-forward roster", i+1)
		}
	}

	if !ls.Defense[0].Complete() || !ls.Defense[1].Complete() {
		t.Error("pairs 1-2 should be complete with 4 defensemen")
	}
	if ls.Defense[2].LD != nil || ls.Defense[2].RD != nil {
		t.Error("pair 3 should be empty with 4 defensemen")
	}

	if len(ls.Goalies) != 2 {
		t.Fatalf("expected 2 goalies, got %d", len(ls.Goalies))
	}
	if !ls.Goalies[0].Starter || ls.Goalies[0].SplitPct != 65 {
		t.Errorf("starter should carry a 65%% split, got %+v", ls.Goalies[0])
	}
	if ls.Goalies[1].Starter || ls.Goalies[1].SplitPct != 35 {
		t.Errorf("backup should carry a 35%% split, got %+v", ls.Goalies[1])
	}
}

func TestLinesAreRatingOrderedPerPosition(t *testing.T) {
	o := New(shortRoster())
	ls := o.GenerateAllLines()

	if ls.Forward[0].C.ID != "c1" || ls.Forward[1].C.ID != "c2" {
		t.Errorf("centers not rating-ordered: line1=%v line2=%v", ls.Forward[0].C.ID, ls.Forward[1].C.ID)
	}
	if ls.Forward[0].LW.ID != "lw1" || ls.Forward[0].RW.ID != "rw1" {
		t.Errorf("line 1 wings should be the best at each wing: %v / %v",
			ls.Forward[0].LW.ID, ls.Forward[0].RW.ID)
	}
	if ls.Defense[0].LD.ID != "ld1" || ls.Defense[0].RD.ID != "rd1" {
		t.Errorf("pair 1 should take the best on each side: %v / %v",
			ls.Defense[0].LD.ID, ls.Defense[0].RD.ID)
	}
}

func TestOptimizerNeverInventsPlayers(t *testing.T) {
	roster := shortRoster()
	known := map[string]bool{}
	for _, p := range roster {
		known[p.ID] = true
	}

	o := New(roster)
	ls := o.GenerateAllLines()

	seen := map[string]int{}
	check := func(p *models.Player, unit string) {
		if p == nil {
			return
		}
		if !known[p.ID] {
			t.Errorf("%s references unknown player %q", unit, p.ID)
		}
	}

	for _, line := range ls.Forward {
		for _, p := range line.Players() {
			check(p, "forward line")
			if p != nil {
				seen[p.ID]++
			}
		}
	}
	for _, pair := range ls.Defense {
		for _, p := range pair.Players() {
			check(p, "defense pair")
			if p != nil {
				seen[p.ID]++
			}
		}
	}
	for _, g := range ls.Goalies {
		check(g.Player, "goalie rotation")
		seen[g.Player.ID]++
	}

	// Main-roster units must not double-book anyone
	for id, count := range seen {
		if count > 1 {
			t.Errorf("player %q appears %d times across main roster units", id, count)
		}
	}

	for _, unit := range append(ls.PowerPlay, ls.PenaltyKill...) {
		for _, p := range unit.AllPlayers() {
			check(p, "special unit")
		}
	}
}

func TestTeamOverallRatingBounds(t *testing.T) {
	r := New(shortRoster()).TeamOverallRating()

	for name, v := range map[string]float64{
		"overall": r.Overall, "offense": r.Offense,
		"defense": r.Defense, "goaltending": r.Goaltending,
	} {
		if v < 0 || v > 99 {
			t.Errorf("%s rating %v outside [0, 99]", name, v)
		}
	}

	if r.Goaltending != 89 {
		t.Errorf("goaltending should be the starter's overall (89), got %v", r.Goaltending)
	}

	want := r.Offense*0.4 + r.Defense*0.4 + r.Goaltending*0.2
	if r.Overall != want {
		t.Errorf("overall = %v, want %v", r.Overall, want)
	}
}

func TestEmptyRoster(t *testing.T) {
	o := New(nil)
	ls := o.GenerateAllLines()

	if len(ls.Goalies) != 0 {
		t.Errorf("empty roster should produce no goalies, got %d", len(ls.Goalies))
	}
	for _, line := range ls.Forward {
		if line.LW != nil || line.C != nil || line.RW != nil {
			t.Error("empty roster should produce empty lines")
		}
	}

	r := o.TeamOverallRating()
	if r.Overall != 0 {
		t.Errorf("empty roster overall = %v, want 0", r.Overall)
	}
}
