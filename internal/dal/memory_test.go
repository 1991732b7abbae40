package dal

import (
	"testing"

	"github.com/frozenpond/benchboss/internal/models"
)

func TestMemoryDALSeedsDemoLeague(t *testing.T) {
	dal := NewMemoryDAL()

	teams, err := dal.ListTeams()
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 seeded teams, got %d", len(teams))
	}

	for _, team := range teams {
		roster, err := dal.GetRoster(team.ID)
		if err != nil {
			t.Fatalf("GetRoster(%s): %v", team.ID, err)
		}
		if len(roster) != 20 {
			t.Errorf("team %s: expected 20 players, got %d", team.ID, len(roster))
		}

		goalies := 0
		for _, p := range roster {
			if p.Position == models.Goalie {
				goalies++
			}
		}
		if goalies != 2 {
			t.Errorf("team %s: expected 2 goalies, got %d", team.ID, goalies)
		}

		coach, err := dal.GetCoach(team.ID)
		if err != nil {
			t.Fatalf("GetCoach(%s): %v", team.ID, err)
		}
		if coach == nil || coach.Name == "" {
			t.Errorf("team %s: expected a seeded coach", team.ID)
		}
	}
}

func TestMemoryDALRosterIsCopied(t *testing.T) {
	dal := NewMemoryDAL()

	roster, err := dal.GetRoster("frostpike")
	if err != nil {
		t.Fatalf("GetRoster: %v", err)
	}
	original := roster[0].Overall
	roster[0].Overall = 1

	again, err := dal.GetRoster("frostpike")
	if err != nil {
		t.Fatalf("GetRoster: %v", err)
	}
	if again[0].Overall != original {
		t.Error("mutating a returned roster should not change stored data")
	}
}

func TestMemoryDALPlayerLifecycle(t *testing.T) {
	dal := NewMemoryDAL()

	added, err := dal.AddPlayer("frostpike", &models.Player{
		FirstName: "Kalle", LastName: "Nieminen",
		Position: models.Center, Type: models.Playmaker, Overall: 84,
	})
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if added.ID == "" {
		t.Fatal("AddPlayer should assign an ID")
	}

	added.Overall = 87
	if _, err := dal.UpdatePlayer(added); err != nil {
		t.Fatalf("UpdatePlayer: %v", err)
	}

	roster, _ := dal.GetRoster("frostpike")
	found := false
	for _, p := range roster {
		if p.ID == added.ID {
			found = true
			if p.Overall != 87 {
				t.Errorf("update not persisted, overall = %d", p.Overall)
			}
		}
	}
	if !found {
		t.Fatal("added player missing from roster")
	}

	if err := dal.DeletePlayer(added.ID); err != nil {
		t.Fatalf("DeletePlayer: %v", err)
	}
	if err := dal.DeletePlayer(added.ID); err == nil {
		t.Fatal("deleting twice should fail")
	}

	if _, err := dal.AddPlayer("no-such-team", &models.Player{Position: models.Center, Overall: 80}); err == nil {
		t.Fatal("AddPlayer should reject an unknown team")
	}
}

func TestMemoryDALCoachRoundTrip(t *testing.T) {
	dal := NewMemoryDAL()

	coach := &models.Coach{
		Name:         "Tapio Rask",
		StrategyType: "Skill",
		Attributes:   map[string]float64{"skill_bias": 0.92},
	}
	if err := dal.SetCoach("frostpike", coach); err != nil {
		t.Fatalf("SetCoach: %v", err)
	}

	got, err := dal.GetCoach("frostpike")
	if err != nil {
		t.Fatalf("GetCoach: %v", err)
	}
	if got.Name != "Tapio Rask" || got.Attributes["skill_bias"] != 0.92 {
		t.Errorf("coach round trip mismatch: %+v", got)
	}

	// Clearing the coach record
	if err := dal.SetCoach("frostpike", nil); err != nil {
		t.Fatalf("SetCoach(nil): %v", err)
	}
	got, err = dal.GetCoach("frostpike")
	if err != nil {
		t.Fatalf("GetCoach: %v", err)
	}
	if got != nil {
		t.Error("cleared coach should read back as nil")
	}
}

func TestMemoryDALTradeProfiles(t *testing.T) {
	dal := NewMemoryDAL()

	missing, err := dal.GetTradeProfile("frp-c1")
	if err != nil {
		t.Fatalf("GetTradeProfile: %v", err)
	}
	if missing != nil {
		t.Fatal("unset profile should read back as nil")
	}

	profile := &models.TradeProfile{Overall: 91, Age: 24, Position: models.Center, StanleyCups: 1}
	if err := dal.SetTradeProfile("frp-c1", profile); err != nil {
		t.Fatalf("SetTradeProfile: %v", err)
	}
	got, err := dal.GetTradeProfile("frp-c1")
	if err != nil {
		t.Fatalf("GetTradeProfile: %v", err)
	}
	if got == nil || got.Age != 24 || got.StanleyCups != 1 {
		t.Errorf("profile round trip mismatch: %+v", got)
	}
}

func TestMemoryDALLinePresets(t *testing.T) {
	dal := NewMemoryDAL()

	lines := &models.LineSet{
		Forward: []models.ForwardLine{{
			Number: 1,
			C:      &models.Player{ID: "frp-c1", Position: models.Center, Overall: 91},
		}},
	}
	if err := dal.SaveLinePreset("frostpike", "opening-night", lines); err != nil {
		t.Fatalf("SaveLinePreset: %v", err)
	}
	if err := dal.SaveLinePreset("frostpike", "", lines); err == nil {
		t.Fatal("empty preset name should be rejected")
	}

	loaded, err := dal.LoadLinePreset("frostpike", "opening-night")
	if err != nil {
		t.Fatalf("LoadLinePreset: %v", err)
	}
	if loaded.Forward[0].C == nil || loaded.Forward[0].C.ID != "frp-c1" {
		t.Errorf("preset round trip mismatch: %+v", loaded.Forward[0])
	}

	if _, err := dal.LoadLinePreset("frostpike", "missing"); err == nil {
		t.Fatal("loading an unknown preset should fail")
	}

	names, err := dal.ListLinePresets("frostpike")
	if err != nil {
		t.Fatalf("ListLinePresets: %v", err)
	}
	if len(names) != 1 || names[0] != "opening-night" {
		t.Errorf("unexpected preset names: %v", names)
	}
}

func TestMemoryDALReset(t *testing.T) {
	dal := NewMemoryDAL()

	team, err := dal.AddTeam("Icehawks", "Oulu", "ICE")
	if err != nil {
		t.Fatalf("AddTeam: %v", err)
	}
	if _, err := dal.GetRoster(team.ID); err != nil {
		t.Fatalf("new team should have an empty roster: %v", err)
	}

	if err := dal.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	teams, _ := dal.ListTeams()
	if len(teams) != 2 {
		t.Errorf("reset should restore the seeded league, got %d teams", len(teams))
	}
	if _, err := dal.GetRoster(team.ID); err == nil {
		t.Error("added team should be gone after reset")
	}
}
