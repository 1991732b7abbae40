package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frozenpond/benchboss/internal/dal"
	"github.com/frozenpond/benchboss/internal/formation"
	"github.com/frozenpond/benchboss/internal/logger"
	"github.com/frozenpond/benchboss/internal/metrics"
	"github.com/frozenpond/benchboss/internal/mocks"
	"github.com/frozenpond/benchboss/internal/models"
	"github.com/frozenpond/benchboss/internal/pubsub"
	"github.com/shopspring/decimal"
)

func init() {
	logger.Init()
}

func newTestHandlers(pairs PairSource) *APIHandlers {
	return NewAPIHandlers(dal.NewMemoryDAL(), pubsub.New(), metrics.NewRosterMetrics(), pairs)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func getWithQuery(handler http.HandlerFunc, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) *formation.Result {
	t.Helper()
	var result formation.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return &result
}

func TestListTeams(t *testing.T) {
	h := newTestHandlers(nil)

	rec := getWithQuery(h.ListTeams, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ListTeams status = %d", rec.Code)
	}

	var teams []models.Team
	if err := json.NewDecoder(rec.Body).Decode(&teams); err != nil {
		t.Fatalf("decode teams: %v", err)
	}
	if len(teams) != 2 {
		t.Errorf("expected 2 seeded teams, got %d", len(teams))
	}
}

func TestGenerateLines(t *testing.T) {
	h := newTestHandlers(nil)

	rec := postJSON(t, h.GenerateLines, map[string]string{"teamId": "frostpike"})
	if rec.Code != http.StatusOK {
		t.Fatalf("GenerateLines status = %d: %s", rec.Code, rec.Body.String())
	}

	result := decodeResult(t, rec)
	if result.Lines == nil {
		t.Fatal("result has no lines")
	}
	if len(result.Lines.Forward) != 4 {
		t.Errorf("expected 4 forward lines, got %d", len(result.Lines.Forward))
	}
	if result.Rating.Failed {
		t.Error("rating marked failed for a full roster")
	}
	if result.Rating.Overall <= 0 {
		t.Errorf("overall rating = %v, want > 0", result.Rating.Overall)
	}
}

func TestGenerateLinesUnknownTeam(t *testing.T) {
	h := newTestHandlers(nil)

	rec := postJSON(t, h.GenerateLines, map[string]string{"teamId": "ghosts"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown team status = %d, want 404", rec.Code)
	}
}

func TestGenerateLinesMethodNotAllowed(t *testing.T) {
	h := newTestHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.GenerateLines(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestUpdateLinesRequiresLines(t *testing.T) {
	h := newTestHandlers(nil)

	rec := postJSON(t, h.UpdateLines, map[string]interface{}{"teamId": "frostpike"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing lines status = %d, want 400", rec.Code)
	}
}

func TestUpdateLinesRescores(t *testing.T) {
	h := newTestHandlers(nil)

	gen := postJSON(t, h.GenerateLines, map[string]string{"teamId": "frostpike"})
	lines := decodeResult(t, gen).Lines

	rec := postJSON(t, h.UpdateLines, map[string]interface{}{
		"teamId": "frostpike",
		"lines":  lines,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("UpdateLines status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	if result.Rating.Failed {
		t.Error("rating failed after applying previously generated lines")
	}
}

func TestSimulateGameBeforeLines(t *testing.T) {
	h := newTestHandlers(nil)

	rec := postJSON(t, h.SimulateGame, map[string]interface{}{
		"teamId":  "frostpike",
		"minutes": 60,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("simulate before lines status = %d, want 400", rec.Code)
	}
}

func TestSimulateGameAccruesMinutes(t *testing.T) {
	h := newTestHandlers(nil)

	gen := postJSON(t, h.GenerateLines, map[string]string{"teamId": "frostpike"})
	if gen.Code != http.StatusOK {
		t.Fatalf("GenerateLines status = %d", gen.Code)
	}

	rec := postJSON(t, h.SimulateGame, map[string]interface{}{
		"teamId":  "frostpike",
		"minutes": 60,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("SimulateGame status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		OK           bool `json:"ok"`
		TrackedPairs int  `json:"trackedPairs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK || resp.TrackedPairs == 0 {
		t.Errorf("simulate response = %+v, want ok with tracked pairs", resp)
	}
}

func TestRosterChangeCarriesLedger(t *testing.T) {
	h := newTestHandlers(nil)

	gen := postJSON(t, h.GenerateLines, map[string]string{"teamId": "frostpike"})
	lines := decodeResult(t, gen).Lines
	line1 := lines.Forward[0]
	if !line1.Complete() {
		t.Fatal("first line incomplete")
	}

	sim := postJSON(t, h.SimulateGame, map[string]interface{}{
		"teamId":  "frostpike",
		"minutes": 100,
	})
	if sim.Code != http.StatusOK {
		t.Fatalf("SimulateGame status = %d", sim.Code)
	}

	// A roster edit rebuilds the engine; booked minutes must survive.
	add := postJSON(t, h.AddPlayer, map[string]interface{}{
		"teamId": "frostpike",
		"player": models.Player{
			FirstName: "Kalle",
			LastName:  "Extra",
			Position:  models.Center,
			Overall:   70,
		},
	})
	if add.Code != http.StatusOK {
		t.Fatalf("AddPlayer status = %d: %s", add.Code, add.Body.String())
	}

	rec := getWithQuery(h.PairMinutes,
		"teamId=frostpike&a="+line1.LW.ID+"&b="+line1.C.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("PairMinutes status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Minutes float64 `json:"minutes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Minutes <= 0 {
		t.Errorf("pair minutes after rebuild = %v, want > 0", resp.Minutes)
	}
}

func TestPairSourceSeedsLedger(t *testing.T) {
	h := newTestHandlers(mocks.NewMockClickHouseClient())

	rec := getWithQuery(h.PairMinutes, "teamId=frostpike&a=frp-c1&b=frp-lw1")
	if rec.Code != http.StatusOK {
		t.Fatalf("PairMinutes status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Minutes float64 `json:"minutes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Minutes <= 0 {
		t.Errorf("seeded pair minutes = %v, want > 0", resp.Minutes)
	}
}

func TestCoachRoundTrip(t *testing.T) {
	h := newTestHandlers(nil)

	set := postJSON(t, h.SetCoach, map[string]interface{}{
		"teamId": "frostpike",
		"coach": models.Coach{
			Name:         "Ville Koskinen",
			StrategyType: "Physical",
			Attributes:   map[string]float64{"quality": 0.9},
		},
	})
	if set.Code != http.StatusOK {
		t.Fatalf("SetCoach status = %d: %s", set.Code, set.Body.String())
	}

	rec := getWithQuery(h.GetCoach, "teamId=frostpike")
	var coach models.Coach
	if err := json.NewDecoder(rec.Body).Decode(&coach); err != nil {
		t.Fatalf("decode coach: %v", err)
	}
	if coach.Name != "Ville Koskinen" || coach.StrategyType != "Physical" {
		t.Errorf("coach = %+v", coach)
	}
}

func TestLineDeploymentSituations(t *testing.T) {
	h := newTestHandlers(nil)

	gen := postJSON(t, h.GenerateLines, map[string]string{"teamId": "frostpike"})
	if gen.Code != http.StatusOK {
		t.Fatalf("GenerateLines status = %d", gen.Code)
	}

	rec := getWithQuery(h.LineDeployment, "teamId=frostpike&situation=leading")
	if rec.Code != http.StatusOK {
		t.Fatalf("LineDeployment status = %d", rec.Code)
	}

	var shares map[string]float64
	if err := json.NewDecoder(rec.Body).Decode(&shares); err != nil {
		t.Fatalf("decode shares: %v", err)
	}
	if len(shares) == 0 {
		t.Error("no deployment shares returned")
	}
	total := 0.0
	for key, share := range shares {
		if key[:4] == "line" {
			total += share
		}
	}
	if total < 0.99 || total > 1.01 {
		t.Errorf("forward shares sum to %v, want 1", total)
	}
}

func TestPresetLifecycle(t *testing.T) {
	h := newTestHandlers(nil)

	save := postJSON(t, h.SavePreset, map[string]string{
		"teamId": "frostpike",
		"name":   "shutdown",
	})
	if save.Code != http.StatusBadRequest {
		t.Errorf("save before lines status = %d, want 400", save.Code)
	}

	gen := postJSON(t, h.GenerateLines, map[string]string{"teamId": "frostpike"})
	if gen.Code != http.StatusOK {
		t.Fatalf("GenerateLines status = %d", gen.Code)
	}

	save = postJSON(t, h.SavePreset, map[string]string{
		"teamId": "frostpike",
		"name":   "shutdown",
	})
	if save.Code != http.StatusOK {
		t.Fatalf("SavePreset status = %d: %s", save.Code, save.Body.String())
	}

	list := getWithQuery(h.ListPresets, "teamId=frostpike")
	var names []string
	if err := json.NewDecoder(list.Body).Decode(&names); err != nil {
		t.Fatalf("decode preset names: %v", err)
	}
	if len(names) != 1 || names[0] != "shutdown" {
		t.Errorf("preset names = %v", names)
	}

	load := postJSON(t, h.LoadPreset, map[string]string{
		"teamId": "frostpike",
		"name":   "shutdown",
	})
	if load.Code != http.StatusOK {
		t.Fatalf("LoadPreset status = %d: %s", load.Code, load.Body.String())
	}
	result := decodeResult(t, load)
	if result.Lines == nil || len(result.Lines.Forward) != 4 {
		t.Error("loaded preset missing forward lines")
	}

	missing := postJSON(t, h.LoadPreset, map[string]string{
		"teamId": "frostpike",
		"name":   "nope",
	})
	if missing.Code != http.StatusNotFound {
		t.Errorf("missing preset status = %d, want 404", missing.Code)
	}
}

func TestTradeProfileEndpoints(t *testing.T) {
	h := newTestHandlers(nil)

	missing := getWithQuery(h.GetTradeProfile, "playerId=frp-c1")
	if missing.Code != http.StatusNotFound {
		t.Errorf("unset profile status = %d, want 404", missing.Code)
	}

	set := postJSON(t, h.SetTradeProfile, models.TradeProfile{
		PlayerID:  "frp-c1",
		Overall:   91,
		Age:       25,
		Position:  models.Center,
		Potential: models.PotentialElite,
	})
	if set.Code != http.StatusOK {
		t.Fatalf("SetTradeProfile status = %d: %s", set.Code, set.Body.String())
	}

	rec := getWithQuery(h.GetTradeProfile, "playerId=frp-c1")
	if rec.Code != http.StatusOK {
		t.Fatalf("GetTradeProfile status = %d", rec.Code)
	}
	var profile models.TradeProfile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Overall != 91 || profile.Potential != models.PotentialElite {
		t.Errorf("profile = %+v", profile)
	}
}

func TestEvaluateTrade(t *testing.T) {
	h := newTestHandlers(nil)

	set := postJSON(t, h.SetTradeProfile, models.TradeProfile{
		PlayerID:     "frp-c1",
		Overall:      92,
		Age:          26,
		Position:     models.Center,
		ContractType: models.ContractStandard,
		TermYears:    4,
		AAV:          decimal.NewFromFloat(7.5),
	})
	if set.Code != http.StatusOK {
		t.Fatalf("SetTradeProfile status = %d", set.Code)
	}

	rec := postJSON(t, h.EvaluateTrade, map[string]interface{}{
		"context": "balanced",
		"team1":   []map[string]string{{"playerId": "frp-c1"}},
		"team2": []map[string]interface{}{
			{"profile": models.TradeProfile{
				PlayerID: "hbw-lw3",
				Overall:  78,
				Age:      29,
				Position: models.LeftWing,
			}},
			{"profile": models.TradeProfile{
				PlayerID: "hbw-rd3",
				Overall:  76,
				Age:      30,
				Position: models.RightDefense,
			}},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("EvaluateTrade status = %d: %s", rec.Code, rec.Body.String())
	}

	var eval models.TradeEvaluation
	if err := json.NewDecoder(rec.Body).Decode(&eval); err != nil {
		t.Fatalf("decode evaluation: %v", err)
	}
	if eval.Favors != "team1" {
		t.Errorf("Favors = %q, want team1 for star over depth", eval.Favors)
	}
	if eval.Assessment == "" {
		t.Error("empty assessment")
	}
}

func TestEvaluateTradeMissingProfile(t *testing.T) {
	h := newTestHandlers(nil)

	rec := postJSON(t, h.EvaluateTrade, map[string]interface{}{
		"team1": []map[string]string{{"playerId": "frp-c1"}},
		"team2": []map[string]string{{"playerId": "hbw-c1"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing profile status = %d, want 400", rec.Code)
	}
}

func TestResetLeagueDropsEngines(t *testing.T) {
	h := newTestHandlers(nil)

	gen := postJSON(t, h.GenerateLines, map[string]string{"teamId": "frostpike"})
	if gen.Code != http.StatusOK {
		t.Fatalf("GenerateLines status = %d", gen.Code)
	}
	sim := postJSON(t, h.SimulateGame, map[string]interface{}{"teamId": "frostpike"})
	if sim.Code != http.StatusOK {
		t.Fatalf("SimulateGame status = %d", sim.Code)
	}

	reset := postJSON(t, h.ResetLeague, map[string]string{})
	if reset.Code != http.StatusOK {
		t.Fatalf("ResetLeague status = %d", reset.Code)
	}

	// Fresh engine, fresh ledger: simulating again without lines must fail.
	sim = postJSON(t, h.SimulateGame, map[string]interface{}{"teamId": "frostpike"})
	if sim.Code != http.StatusBadRequest {
		t.Errorf("simulate after reset status = %d, want 400", sim.Code)
	}
}
