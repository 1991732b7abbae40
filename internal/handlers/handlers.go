package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/frozenpond/benchboss/internal/dal"
	"github.com/frozenpond/benchboss/internal/formation"
	"github.com/frozenpond/benchboss/internal/logger"
	"github.com/frozenpond/benchboss/internal/metrics"
	"github.com/frozenpond/benchboss/internal/models"
	"github.com/frozenpond/benchboss/internal/pubsub"
	"github.com/frozenpond/benchboss/internal/tradevalue"
)

// PairSource feeds externally tracked pair minutes into a team's chemistry
// ledger. Satisfied by the ClickHouse client and its mock.
type PairSource interface {
	SyncPairMinutes(ctx context.Context, teamID string, seed func(pairs map[string]float64) error) error
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	dal     dal.RosterDAL
	pubsub  *pubsub.PubSub
	metrics *metrics.RosterMetrics
	pairs   PairSource // nil when no shift-tracking source is configured

	engineMu sync.Mutex
	engines  map[string]*formation.Engine
	carried  map[string]map[string]float64 // ledger snapshots awaiting rebuilt engines

	syncMu   sync.Mutex
	lastSync map[string]map[string]float64 // cumulative totals already booked per team
}

// NewAPIHandlers creates a new API handlers instance. pairs may be nil.
func NewAPIHandlers(d dal.RosterDAL, ps *pubsub.PubSub, rm *metrics.RosterMetrics, pairs PairSource) *APIHandlers {
	return &APIHandlers{
		dal:      d,
		pubsub:   ps,
		metrics:  rm,
		pairs:    pairs,
		engines:  make(map[string]*formation.Engine),
		carried:  make(map[string]map[string]float64),
		lastSync: make(map[string]map[string]float64),
	}
}

// engineFor returns the cached engine for a team, building one from the
// current roster and coach when absent. A rebuilt engine inherits the
// previous engine's minutes-together ledger plus any tracked shift data.
func (h *APIHandlers) engineFor(ctx context.Context, teamID string) (*formation.Engine, error) {
	h.engineMu.Lock()
	defer h.engineMu.Unlock()

	if engine, ok := h.engines[teamID]; ok {
		return engine, nil
	}

	roster, err := h.dal.GetRoster(teamID)
	if err != nil {
		return nil, err
	}
	coach, err := h.dal.GetCoach(teamID)
	if err != nil {
		return nil, err
	}

	cfg := formation.Config{
		Coach:   coachQuality(coach),
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		Presets: h.dal,
	}
	engine := formation.NewEngine(teamID, roster, coach, cfg)

	if minutes, ok := h.carried[teamID]; ok {
		engine.Chemistry().SeedPairMinutes(minutes)
		delete(h.carried, teamID)
	}
	h.seedFromShiftData(ctx, teamID, engine)

	h.engines[teamID] = engine
	h.metrics.UpdateActiveEngines(len(h.engines))
	return engine, nil
}

// invalidateEngine drops a team's cached engine after a roster or coach
// change. The ledger is snapshotted so chemistry history survives the
// rebuild.
func (h *APIHandlers) invalidateEngine(teamID string) {
	h.engineMu.Lock()
	defer h.engineMu.Unlock()

	if engine, ok := h.engines[teamID]; ok {
		h.carried[teamID] = engine.Chemistry().PairMinutes()
		delete(h.engines, teamID)
		h.metrics.UpdateActiveEngines(len(h.engines))
	}
}

// seedFromShiftData books tracked pair minutes into an engine's ledger. The
// source reports cumulative season totals, so only the delta against the
// last booked totals is seeded; repeating a sync never double-counts.
func (h *APIHandlers) seedFromShiftData(ctx context.Context, teamID string, engine *formation.Engine) {
	if h.pairs == nil {
		return
	}

	err := h.pairs.SyncPairMinutes(ctx, teamID, func(totals map[string]float64) error {
		h.syncMu.Lock()
		defer h.syncMu.Unlock()

		booked := h.lastSync[teamID]
		delta := make(map[string]float64, len(totals))
		for key, minutes := range totals {
			if d := minutes - booked[key]; d > 0 {
				delta[key] = d
			}
		}
		engine.Chemistry().SeedPairMinutes(delta)
		h.lastSync[teamID] = totals
		return nil
	})
	if err != nil {
		logger.Warn("Failed to seed pair minutes from shift data", "team_id", teamID, "error", err)
		h.metrics.RecordPairSync(teamID, "error")
		return
	}
	h.metrics.RecordPairSync(teamID, "ok")
}

// SyncAllShiftData reseeds every cached engine's ledger from the shift
// source. Run periodically so long-lived engines track new game data.
func (h *APIHandlers) SyncAllShiftData(ctx context.Context) {
	if h.pairs == nil {
		return
	}

	h.engineMu.Lock()
	engines := make(map[string]*formation.Engine, len(h.engines))
	for teamID, engine := range h.engines {
		engines[teamID] = engine
	}
	h.engineMu.Unlock()

	for teamID, engine := range engines {
		h.seedFromShiftData(ctx, teamID, engine)
	}
}

// dropAllEngines clears every cached engine, ledgers included
func (h *APIHandlers) dropAllEngines() {
	h.engineMu.Lock()
	defer h.engineMu.Unlock()
	h.engines = make(map[string]*formation.Engine)
	h.carried = make(map[string]map[string]float64)
	h.metrics.UpdateActiveEngines(0)

	h.syncMu.Lock()
	h.lastSync = make(map[string]map[string]float64)
	h.syncMu.Unlock()
}

// coachQuality derives the rating-bonus signal from coach attributes
func coachQuality(coach *models.Coach) formation.CoachQuality {
	if coach == nil {
		return formation.CoachQuality{}
	}
	return formation.CoachQuality{
		Quality:       coach.Attributes["quality"],
		StrategyFocus: coach.Attributes["strategy_focus"],
	}
}

// ListTeams returns all teams
func (h *APIHandlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.dal.ListTeams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(teams)
}

// AddTeam creates a new team
func (h *APIHandlers) AddTeam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name   string `json:"name"`
		City   string `json:"city"`
		Abbrev string `json:"abbrev"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	team, err := h.dal.AddTeam(req.Name, req.City, req.Abbrev)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventRosterChanged,
		TeamID: team.ID,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(team)
}

// GetRoster returns the roster for a team
func (h *APIHandlers) GetRoster(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		http.Error(w, "Missing teamId parameter", http.StatusBadRequest)
		return
	}

	roster, err := h.dal.GetRoster(teamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roster)
}

// AddPlayer adds a player to a team's roster
func (h *APIHandlers) AddPlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID string        `json:"teamId"`
		Player models.Player `json:"player"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("Adding player", "team_id", req.TeamID, "name", req.Player.FullName())
	player, err := h.dal.AddPlayer(req.TeamID, &req.Player)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.invalidateEngine(req.TeamID)
	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventRosterChanged,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"playerId": player.ID,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(player)
}

// UpdatePlayer updates an existing player
func (h *APIHandlers) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID string        `json:"teamId"`
		Player models.Player `json:"player"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	player, err := h.dal.UpdatePlayer(&req.Player)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.invalidateEngine(req.TeamID)
	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventRosterChanged,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"playerId": player.ID,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(player)
}

// DeletePlayer removes a player from the league
func (h *APIHandlers) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID     string `json:"id"`
		TeamID string `json:"teamId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dal.DeletePlayer(req.ID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.invalidateEngine(req.TeamID)
	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventRosterChanged,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"playerId": req.ID,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// GetCoach returns a team's coach, or null when none is assigned
func (h *APIHandlers) GetCoach(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		http.Error(w, "Missing teamId parameter", http.StatusBadRequest)
		return
	}

	coach, err := h.dal.GetCoach(teamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coach)
}

// SetCoach assigns or replaces a team's coach; a null coach clears it
func (h *APIHandlers) SetCoach(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID string        `json:"teamId"`
		Coach  *models.Coach `json:"coach"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("Setting coach", "team_id", req.TeamID)
	if err := h.dal.SetCoach(req.TeamID, req.Coach); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.invalidateEngine(req.TeamID)
	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventCoachChanged,
		TeamID: req.TeamID,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// GenerateLines runs the full line-generation pipeline for a team
func (h *APIHandlers) GenerateLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID string `json:"teamId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	engine, err := h.engineFor(r.Context(), req.TeamID)
	if err != nil {
		logger.Error("Failed to build engine", "team_id", req.TeamID, "error", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	start := time.Now()
	result := engine.GenerateOptimalLines()

	status := "ok"
	if result.Rating.Failed {
		status = "rating_failed"
	}
	h.metrics.RecordGeneration(req.TeamID, status, time.Since(start).Seconds(),
		result.Rating.Overall, result.Chemistry.Team)
	for i := 0; i < result.Corrections; i++ {
		h.metrics.RecordCorrection(req.TeamID)
	}

	logger.Info("Generated lines", "team_id", req.TeamID,
		"overall", result.Rating.Overall, "team_chemistry", result.Chemistry.Team)

	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventLinesGenerated,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"overall":       result.Rating.Overall,
			"teamChemistry": result.Chemistry.Team,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// UpdateLines applies manually edited lines and rescores them
func (h *APIHandlers) UpdateLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID string          `json:"teamId"`
		Lines  *models.LineSet `json:"lines"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Lines == nil {
		http.Error(w, "Missing lines", http.StatusBadRequest)
		return
	}

	engine, err := h.engineFor(r.Context(), req.TeamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	result := engine.UpdateCurrentLines(req.Lines)

	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventLinesUpdated,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"overall": result.Rating.Overall,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// SimulateGame books a played game into the team's chemistry ledger
func (h *APIHandlers) SimulateGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID  string  `json:"teamId"`
		Minutes float64 `json:"minutes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Minutes == 0 {
		req.Minutes = 60
	}

	engine, err := h.engineFor(r.Context(), req.TeamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := engine.SimulateGameEffects(req.Minutes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tracked := len(engine.Chemistry().PairMinutes())
	h.metrics.RecordSimulation(req.TeamID, req.Minutes, tracked)

	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventGameSimulated,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"minutes": req.Minutes,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":           true,
		"trackedPairs": tracked,
	})
}

// LineDeployment returns ice-time shares per unit for a game situation
func (h *APIHandlers) LineDeployment(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		http.Error(w, "Missing teamId parameter", http.StatusBadRequest)
		return
	}
	situation := r.URL.Query().Get("situation")
	if situation == "" {
		situation = "even"
	}

	engine, err := h.engineFor(r.Context(), teamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.LineDeployment(situation))
}

// Matchups returns the coach's matchup recommendations
func (h *APIHandlers) Matchups(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		http.Error(w, "Missing teamId parameter", http.StatusBadRequest)
		return
	}

	engine, err := h.engineFor(r.Context(), teamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.MatchupRecommendations())
}

// PairMinutes returns the tracked minutes two skaters have played together
func (h *APIHandlers) PairMinutes(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if teamID == "" || a == "" || b == "" {
		http.Error(w, "Missing teamId, a or b parameter", http.StatusBadRequest)
		return
	}

	engine, err := h.engineFor(r.Context(), teamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{
		"minutes": engine.Chemistry().MinutesTogether(a, b),
	})
}

// SavePreset stores the team's current lines under a name
func (h *APIHandlers) SavePreset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID string `json:"teamId"`
		Name   string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	engine, err := h.engineFor(r.Context(), req.TeamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := engine.SaveLinePreset(req.Name); err != nil {
		h.metrics.RecordPresetSave(req.TeamID, "error")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.metrics.RecordPresetSave(req.TeamID, "ok")

	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventPresetSaved,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"name": req.Name,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// LoadPreset applies a stored preset as the team's current lines
func (h *APIHandlers) LoadPreset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TeamID string `json:"teamId"`
		Name   string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	engine, err := h.engineFor(r.Context(), req.TeamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	result, err := engine.LoadLinePreset(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.pubsub.Publish(pubsub.Event{
		Type:   pubsub.EventLinesUpdated,
		TeamID: req.TeamID,
		Payload: map[string]interface{}{
			"preset": req.Name,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ListPresets lists a team's stored preset names
func (h *APIHandlers) ListPresets(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		http.Error(w, "Missing teamId parameter", http.StatusBadRequest)
		return
	}

	names, err := h.dal.ListLinePresets(teamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}

// GetTradeProfile returns a player's trade valuation inputs
func (h *APIHandlers) GetTradeProfile(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "Missing playerId parameter", http.StatusBadRequest)
		return
	}

	profile, err := h.dal.GetTradeProfile(playerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "No trade profile for player", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// SetTradeProfile stores a player's trade valuation inputs
func (h *APIHandlers) SetTradeProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var profile models.TradeProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if profile.PlayerID == "" {
		http.Error(w, "Missing playerId", http.StatusBadRequest)
		return
	}

	if err := h.dal.SetTradeProfile(profile.PlayerID, &profile); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// tradeAssetRequest names a player by stored profile or carries an inline one
type tradeAssetRequest struct {
	PlayerID string               `json:"playerId,omitempty"`
	Profile  *models.TradeProfile `json:"profile,omitempty"`
}

// EvaluateTrade values both sides of a proposed trade
func (h *APIHandlers) EvaluateTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Context string              `json:"context"`
		Team1   []tradeAssetRequest `json:"team1"`
		Team2   []tradeAssetRequest `json:"team2"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	side1, err := h.resolveAssets(req.Team1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	side2, err := h.resolveAssets(req.Team2)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	valuer := tradevalue.NewValuer(tradevalue.WithContext(req.Context))
	evaluation, err := valuer.EvaluateTrade(side1, side2)
	if err != nil {
		h.metrics.RecordTradeEvaluation(req.Context, "error", 0)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.metrics.RecordTradeEvaluation(req.Context, "ok", evaluation.Difference)

	logger.Info("Evaluated trade", "context", req.Context,
		"assessment", evaluation.Assessment, "favors", evaluation.Favors)

	h.pubsub.Publish(pubsub.Event{
		Type: pubsub.EventTradeEvaluated,
		Payload: map[string]interface{}{
			"assessment": evaluation.Assessment,
			"favors":     evaluation.Favors,
			"difference": evaluation.Difference,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(evaluation)
}

// resolveAssets turns request entries into valuation assets, loading stored
// profiles for entries that name only a player ID
func (h *APIHandlers) resolveAssets(reqs []tradeAssetRequest) ([]tradevalue.TradeAsset, error) {
	assets := make([]tradevalue.TradeAsset, 0, len(reqs))
	for _, ar := range reqs {
		profile := ar.Profile
		if profile == nil {
			if ar.PlayerID == "" {
				return nil, fmt.Errorf("trade asset needs a playerId or an inline profile")
			}
			stored, err := h.dal.GetTradeProfile(ar.PlayerID)
			if err != nil {
				return nil, err
			}
			if stored == nil {
				return nil, fmt.Errorf("no trade profile for player %s", ar.PlayerID)
			}
			profile = stored
		}
		assets = append(assets, tradevalue.TradeAsset{Profile: profile})
	}
	return assets, nil
}

// ResetLeague restores the seed league and drops all cached engines
func (h *APIHandlers) ResetLeague(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger.Info("Resetting league")
	if err := h.dal.Reset(); err != nil {
		logger.Error("Failed to reset league", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.dropAllEngines()
	h.pubsub.Publish(pubsub.Event{Type: pubsub.EventRosterChanged})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// EventsSSE provides Server-Sent Events for realtime updates. A teamId
// query parameter narrows the stream to that team's events.
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Subscribe to events
	eventChan := h.pubsub.SubscribeTeam(r.URL.Query().Get("teamId"))
	defer h.pubsub.Unsubscribe(eventChan)

	// Send initial connection message
	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	// Listen for events
	for {
		select {
		case event := <-eventChan:
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-time.After(30 * time.Second):
			// Send keepalive ping
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
