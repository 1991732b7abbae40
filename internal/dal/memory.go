package dal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/frozenpond/benchboss/internal/models"
)

// MemoryDAL implements RosterDAL using in-memory storage
type MemoryDAL struct {
	mu            sync.RWMutex
	teams         []models.Team
	players       map[string][]models.Player // teamID -> roster
	playerTeam    map[string]string          // playerID -> teamID
	coaches       map[string]models.Coach
	tradeProfiles map[string]models.TradeProfile
	presets       map[string][]byte // teamID/name -> lines JSON
}

// NewMemoryDAL creates a new in-memory data access layer seeded with the
// demo league
func NewMemoryDAL() *MemoryDAL {
	dal := &MemoryDAL{}
	dal.seed()
	return dal
}

func (m *MemoryDAL) seed() {
	m.teams = defaultTeams()
	m.players = make(map[string][]models.Player)
	m.playerTeam = make(map[string]string)
	m.coaches = defaultCoaches()
	m.tradeProfiles = make(map[string]models.TradeProfile)
	m.presets = make(map[string][]byte)

	for teamID, roster := range defaultRosters() {
		m.players[teamID] = roster
		for _, p := range roster {
			m.playerTeam[p.ID] = teamID
		}
	}
}

func (m *MemoryDAL) ListTeams() ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Copy to avoid race conditions
	teams := make([]models.Team, len(m.teams))
	copy(teams, m.teams)
	return teams, nil
}

func (m *MemoryDAL) AddTeam(name, city, abbrev string) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}

	team := models.Team{
		ID:     genID(),
		Name:   name,
		City:   city,
		Abbrev: abbrev,
	}
	m.teams = append(m.teams, team)
	m.players[team.ID] = []models.Player{}
	return &team, nil
}

func (m *MemoryDAL) GetRoster(teamID string) ([]*models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roster, ok := m.players[teamID]
	if !ok {
		return nil, fmt.Errorf("team not found: %s", teamID)
	}

	out := make([]*models.Player, len(roster))
	for i := range roster {
		p := roster[i]
		out[i] = &p
	}
	return out, nil
}

func (m *MemoryDAL) AddPlayer(teamID string, player *models.Player) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[teamID]; !ok {
		return nil, fmt.Errorf("team not found: %s", teamID)
	}
	if player.ID == "" {
		player.ID = genID()
	}
	if _, taken := m.playerTeam[player.ID]; taken {
		return nil, fmt.Errorf("player already exists: %s", player.ID)
	}

	m.players[teamID] = append(m.players[teamID], *player)
	m.playerTeam[player.ID] = teamID
	return player, nil
}

func (m *MemoryDAL) UpdatePlayer(player *models.Player) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	teamID, ok := m.playerTeam[player.ID]
	if !ok {
		return nil, fmt.Errorf("player not found: %s", player.ID)
	}

	roster := m.players[teamID]
	for i := range roster {
		if roster[i].ID == player.ID {
			roster[i] = *player
			return player, nil
		}
	}
	return nil, fmt.Errorf("player not found: %s", player.ID)
}

func (m *MemoryDAL) DeletePlayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	teamID, ok := m.playerTeam[id]
	if !ok {
		return fmt.Errorf("player not found: %s", id)
	}

	roster := m.players[teamID]
	for i := range roster {
		if roster[i].ID == id {
			m.players[teamID] = append(roster[:i], roster[i+1:]...)
			break
		}
	}
	delete(m.playerTeam, id)
	delete(m.tradeProfiles, id)
	return nil
}

func (m *MemoryDAL) GetCoach(teamID string) (*models.Coach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coach, ok := m.coaches[teamID]
	if !ok {
		return nil, nil // no coach on record is not an error
	}

	out := coach
	if coach.Attributes != nil {
		out.Attributes = make(map[string]float64, len(coach.Attributes))
		for k, v := range coach.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out, nil
}

func (m *MemoryDAL) SetCoach(teamID string, coach *models.Coach) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if coach == nil {
		delete(m.coaches, teamID)
		return nil
	}
	m.coaches[teamID] = *coach
	return nil
}

func (m *MemoryDAL) GetTradeProfile(playerID string) (*models.TradeProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.tradeProfiles[playerID]
	if !ok {
		return nil, nil
	}
	out := profile
	return &out, nil
}

func (m *MemoryDAL) SetTradeProfile(playerID string, profile *models.TradeProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if profile == nil {
		delete(m.tradeProfiles, playerID)
		return nil
	}
	m.tradeProfiles[playerID] = *profile
	return nil
}

func (m *MemoryDAL) SaveLinePreset(teamID, name string, lines *models.LineSet) error {
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets[teamID+"/"+name] = data
	return nil
}

func (m *MemoryDAL) LoadLinePreset(teamID, name string) (*models.LineSet, error) {
	m.mu.RLock()
	data, ok := m.presets[teamID+"/"+name]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("preset not found: %s", name)
	}
	var lines models.LineSet
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode preset: %w", err)
	}
	return &lines, nil
}

func (m *MemoryDAL) ListLinePresets(teamID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := teamID + "/"
	names := []string{}
	for key := range m.presets {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			names = append(names, key[len(prefix):])
		}
	}
	return names, nil
}

func (m *MemoryDAL) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seed()
	return nil
}

func defaultTeams() []models.Team {
	return []models.Team{
		{ID: "frostpike", Name: "Frostpike", City: "Kiruna", Abbrev: "FRP"},
		{ID: "harborwolves", Name: "Harbor Wolves", City: "Trondheim", Abbrev: "HBW"},
	}
}

func defaultCoaches() map[string]models.Coach {
	return map[string]models.Coach{
		"frostpike": {
			Name:         "Lasse Bergqvist",
			StrategyType: "Offensive",
		},
		"harborwolves": {
			Name:         "Geir Moldestad",
			StrategyType: "Defensive",
			Attributes:   map[string]float64{"physical_bias": 0.7},
		},
	}
}

func seedSkater(id string, pos models.Position, typ models.PlayerType, first, last string, overall, shooting, defense, weight int, shoots models.Hand) models.Player {
	return models.Player{
		ID: id, FirstName: first, LastName: last,
		Position: pos, Type: typ,
		Overall: overall, Shooting: shooting, Defense: defense,
		WeightLbs: weight, Shoots: shoots,
	}
}

func seedGoalie(id, first, last string, overall int, starter bool) models.Player {
	return models.Player{
		ID: id, FirstName: first, LastName: last,
		Position: models.Goalie, Overall: overall, Starter: starter,
	}
}

func defaultRosters() map[string][]models.Player {
	return map[string][]models.Player{
		"frostpike": {
			seedSkater("frp-c1", models.Center, models.Playmaker, "Emil", "Sandstrom", 91, 83, 72, 192, models.LeftHand),
			seedSkater("frp-c2", models.Center, models.TwoWayForward, "Janne", "Kettunen", 86, 76, 84, 198, models.LeftHand),
			seedSkater("frp-c3", models.Center, models.Sniper, "Oskar", "Lindqvist", 82, 85, 61, 186, models.RightHand),
			seedSkater("frp-c4", models.Center, models.Enforcer, "Bjorn", "Haraldsen", 75, 58, 66, 228, models.LeftHand),
			seedSkater("frp-lw1", models.LeftWing, models.Sniper, "Viktor", "Aalto", 89, 92, 58, 184, models.LeftHand),
			seedSkater("frp-lw2", models.LeftWing, models.PowerForward, "Mats", "Gronvold", 85, 80, 70, 216, models.LeftHand),
			seedSkater("frp-lw3", models.LeftWing, models.TwoWayForward, "Sami", "Virtanen", 80, 68, 80, 194, models.LeftHand),
			seedSkater("frp-lw4", models.LeftWing, models.Enforcer, "Ragnar", "Thorsen", 73, 55, 63, 232, models.LeftHand),
			seedSkater("frp-rw1", models.RightWing, models.Sniper, "Niklas", "Berg", 90, 93, 56, 188, models.RightHand),
			seedSkater("frp-rw2", models.RightWing, models.Playmaker, "Anton", "Ekholm", 84, 78, 65, 180, models.RightHand),
			seedSkater("frp-rw3", models.RightWing, models.TwoWayForward, "Petri", "Hamalainen", 79, 70, 78, 190, models.RightHand),
			seedSkater("frp-rw4", models.RightWing, models.PowerForward, "Olaf", "Brandt", 74, 66, 60, 212, models.RightHand),
			seedSkater("frp-ld1", models.LeftDefense, models.OffensiveDefenseman, "Henrik", "Nystrom", 88, 81, 74, 196, models.LeftHand),
			seedSkater("frp-ld2", models.LeftDefense, models.DefensiveDefenseman, "Karl", "Ostberg", 83, 54, 87, 214, models.LeftHand),
			seedSkater("frp-ld3", models.LeftDefense, models.TwoWayDefenseman, "Jonas", "Wikstrom", 78, 61, 77, 204, models.LeftHand),
			seedSkater("frp-rd1", models.RightDefense, models.DefensiveDefenseman, "Mikko", "Salo", 86, 51, 89, 218, models.RightHand),
			seedSkater("frp-rd2", models.RightDefense, models.TwoWayDefenseman, "Erik", "Dahl", 81, 64, 79, 202, models.RightHand),
			seedSkater("frp-rd3", models.RightDefense, models.OffensiveDefenseman, "Leo", "Pettersen", 76, 73, 62, 188, models.RightHand),
			seedGoalie("frp-g1", "Ville", "Korhonen", 89, true),
			seedGoalie("frp-g2", "Axel", "Stromberg", 81, false),
		},
		"harborwolves": {
			seedSkater("hbw-c1", models.Center, models.TwoWayForward, "Lars", "Eriksen", 88, 74, 86, 200, models.LeftHand),
			seedSkater("hbw-c2", models.Center, models.Playmaker, "Tomas", "Hagen", 85, 79, 68, 188, models.LeftHand),
			seedSkater("hbw-c3", models.Center, models.PowerForward, "Gunnar", "Solberg", 80, 72, 70, 220, models.RightHand),
			seedSkater("hbw-c4", models.Center, models.TwoWayForward, "Eino", "Rantanen", 76, 62, 74, 196, models.LeftHand),
			seedSkater("hbw-lw1", models.LeftWing, models.PowerForward, "Magnus", "Foss", 87, 81, 71, 222, models.LeftHand),
			seedSkater("hbw-lw2", models.LeftWing, models.TwoWayForward, "Juho", "Makela", 83, 69, 81, 192, models.LeftHand),
			seedSkater("hbw-lw3", models.LeftWing, models.Sniper, "Andreas", "Lund", 79, 83, 55, 182, models.LeftHand),
			seedSkater("hbw-lw4", models.LeftWing, models.Enforcer, "Stig", "Bakken", 72, 54, 62, 235, models.LeftHand),
			seedSkater("hbw-rw1", models.RightWing, models.Sniper, "Kasper", "Holm", 86, 90, 54, 186, models.RightHand),
			seedSkater("hbw-rw2", models.RightWing, models.TwoWayForward, "Paavo", "Niemi", 82, 71, 79, 194, models.RightHand),
			seedSkater("hbw-rw3", models.RightWing, models.Playmaker, "Fredrik", "Aas", 78, 73, 64, 178, models.RightHand),
			seedSkater("hbw-rw4", models.RightWing, models.PowerForward, "Truls", "Vik", 73, 64, 58, 214, models.RightHand),
			seedSkater("hbw-ld1", models.LeftDefense, models.DefensiveDefenseman, "Rune", "Sletten", 87, 50, 90, 216, models.LeftHand),
			seedSkater("hbw-ld2", models.LeftDefense, models.TwoWayDefenseman, "Aleksi", "Koskinen", 82, 63, 80, 206, models.LeftHand),
			seedSkater("hbw-ld3", models.LeftDefense, models.OffensiveDefenseman, "Simen", "Rud", 77, 72, 61, 190, models.LeftHand),
			seedSkater("hbw-rd1", models.RightDefense, models.TwoWayDefenseman, "Arvid", "Nilsen", 85, 66, 83, 208, models.RightHand),
			seedSkater("hbw-rd2", models.RightDefense, models.DefensiveDefenseman, "Teemu", "Laakso", 80, 52, 84, 212, models.RightHand),
			seedSkater("hbw-rd3", models.RightDefense, models.OffensiveDefenseman, "Oddvar", "Strand", 75, 70, 60, 186, models.RightHand),
			seedGoalie("hbw-g1", "Jesper", "Winther", 88, true),
			seedGoalie("hbw-g2", "Mikael", "Sund", 80, false),
		},
	}
}
