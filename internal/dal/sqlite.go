package dal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/frozenpond/benchboss/internal/models"
)

// SQLiteDAL implements RosterDAL using SQLite
type SQLiteDAL struct {
	db *sql.DB
}

// NewSQLiteDAL creates a new SQLite data access layer
func NewSQLiteDAL(dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	dal := &SQLiteDAL{db: db}
	if err := dal.initSchema(); err != nil {
		return nil, err
	}
	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		abbrev TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL,
		second_position TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		overall INTEGER NOT NULL,
		shooting INTEGER NOT NULL DEFAULT 0,
		defense INTEGER NOT NULL DEFAULT 0,
		weight_lbs INTEGER NOT NULL DEFAULT 0,
		shoots TEXT NOT NULL DEFAULT '',
		starter INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (team_id) REFERENCES teams(id)
	);

	CREATE TABLE IF NOT EXISTS coaches (
		team_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		strategy_type TEXT NOT NULL,
		attributes TEXT NOT NULL DEFAULT '{}',
		FOREIGN KEY (team_id) REFERENCES teams(id)
	);

	CREATE TABLE IF NOT EXISTS trade_profiles (
		player_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		FOREIGN KEY (player_id) REFERENCES players(id)
	);

	CREATE TABLE IF NOT EXISTS line_presets (
		team_id TEXT NOT NULL,
		name TEXT NOT NULL,
		lines TEXT NOT NULL,
		PRIMARY KEY (team_id, name),
		FOREIGN KEY (team_id) REFERENCES teams(id)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Seed default data if empty
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM teams").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if err := s.seedData(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDAL) seedData() error {
	for _, t := range defaultTeams() {
		_, err := s.db.Exec(`
			INSERT INTO teams (id, name, city, abbrev) VALUES (?, ?, ?, ?)
		`, t.ID, t.Name, t.City, t.Abbrev)
		if err != nil {
			return err
		}
	}

	for teamID, roster := range defaultRosters() {
		for _, p := range roster {
			if err := s.insertPlayer(teamID, &p); err != nil {
				return err
			}
		}
	}

	for teamID, coach := range defaultCoaches() {
		c := coach
		if err := s.SetCoach(teamID, &c); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDAL) insertPlayer(teamID string, p *models.Player) error {
	_, err := s.db.Exec(`
		INSERT INTO players (id, team_id, first_name, last_name, position, second_position,
			type, overall, shooting, defense, weight_lbs, shoots, starter)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, teamID, p.FirstName, p.LastName, p.Position, p.SecondPosition,
		p.Type, p.Overall, p.Shooting, p.Defense, p.WeightLbs, p.Shoots, boolToInt(p.Starter))
	return err
}

func (s *SQLiteDAL) ListTeams() ([]models.Team, error) {
	rows, err := s.db.Query(`SELECT id, name, city, abbrev FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.Abbrev); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteDAL) AddTeam(name, city, abbrev string) (*models.Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}
	team := &models.Team{ID: genID(), Name: name, City: city, Abbrev: abbrev}
	_, err := s.db.Exec(`
		INSERT INTO teams (id, name, city, abbrev) VALUES (?, ?, ?, ?)
	`, team.ID, team.Name, team.City, team.Abbrev)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *SQLiteDAL) GetRoster(teamID string) ([]*models.Player, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM teams WHERE id = ?`, teamID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("team not found: %s", teamID)
	}

	rows, err := s.db.Query(`
		SELECT id, first_name, last_name, position, second_position, type,
			overall, shooting, defense, weight_lbs, shoots, starter
		FROM players WHERE team_id = ? ORDER BY overall DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster := []*models.Player{}
	for rows.Next() {
		var p models.Player
		var starter int
		err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Position, &p.SecondPosition,
			&p.Type, &p.Overall, &p.Shooting, &p.Defense, &p.WeightLbs, &p.Shoots, &starter)
		if err != nil {
			return nil, err
		}
		p.Starter = starter == 1
		roster = append(roster, &p)
	}
	return roster, rows.Err()
}

func (s *SQLiteDAL) AddPlayer(teamID string, player *models.Player) (*models.Player, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM teams WHERE id = ?`, teamID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("team not found: %s", teamID)
	}

	if player.ID == "" {
		player.ID = genID()
	}
	if err := s.insertPlayer(teamID, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *SQLiteDAL) UpdatePlayer(player *models.Player) (*models.Player, error) {
	result, err := s.db.Exec(`
		UPDATE players SET first_name = ?, last_name = ?, position = ?, second_position = ?,
			type = ?, overall = ?, shooting = ?, defense = ?, weight_lbs = ?, shoots = ?, starter = ?
		WHERE id = ?
	`, player.FirstName, player.LastName, player.Position, player.SecondPosition,
		player.Type, player.Overall, player.Shooting, player.Defense, player.WeightLbs,
		player.Shoots, boolToInt(player.Starter), player.ID)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("player not found: %s", player.ID)
	}
	return player, nil
}

func (s *SQLiteDAL) DeletePlayer(id string) error {
	result, err := s.db.Exec(`DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("player not found: %s", id)
	}
	_, err = s.db.Exec(`DELETE FROM trade_profiles WHERE player_id = ?`, id)
	return err
}

func (s *SQLiteDAL) GetCoach(teamID string) (*models.Coach, error) {
	var coach models.Coach
	var attrs string
	err := s.db.QueryRow(`
		SELECT name, strategy_type, attributes FROM coaches WHERE team_id = ?
	`, teamID).Scan(&coach.Name, &coach.StrategyType, &attrs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if attrs != "" && attrs != "{}" {
		if err := json.Unmarshal([]byte(attrs), &coach.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode coach attributes: %w", err)
		}
	}
	return &coach, nil
}

func (s *SQLiteDAL) SetCoach(teamID string, coach *models.Coach) error {
	if coach == nil {
		_, err := s.db.Exec(`DELETE FROM coaches WHERE team_id = ?`, teamID)
		return err
	}
	attrs := "{}"
	if coach.Attributes != nil {
		data, err := json.Marshal(coach.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode coach attributes: %w", err)
		}
		attrs = string(data)
	}
	_, err := s.db.Exec(`
		INSERT INTO coaches (team_id, name, strategy_type, attributes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(team_id) DO UPDATE SET name = excluded.name,
			strategy_type = excluded.strategy_type, attributes = excluded.attributes
	`, teamID, coach.Name, coach.StrategyType, attrs)
	return err
}

func (s *SQLiteDAL) GetTradeProfile(playerID string) (*models.TradeProfile, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM trade_profiles WHERE player_id = ?`, playerID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var profile models.TradeProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode trade profile: %w", err)
	}
	return &profile, nil
}

func (s *SQLiteDAL) SetTradeProfile(playerID string, profile *models.TradeProfile) error {
	if profile == nil {
		_, err := s.db.Exec(`DELETE FROM trade_profiles WHERE player_id = ?`, playerID)
		return err
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode trade profile: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO trade_profiles (player_id, data) VALUES (?, ?)
		ON CONFLICT(player_id) DO UPDATE SET data = excluded.data
	`, playerID, string(data))
	return err
}

func (s *SQLiteDAL) SaveLinePreset(teamID, name string, lines *models.LineSet) error {
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO line_presets (team_id, name, lines) VALUES (?, ?, ?)
		ON CONFLICT(team_id, name) DO UPDATE SET lines = excluded.lines
	`, teamID, name, string(data))
	return err
}

func (s *SQLiteDAL) LoadLinePreset(teamID, name string) (*models.LineSet, error) {
	var data string
	err := s.db.QueryRow(`
		SELECT lines FROM line_presets WHERE team_id = ? AND name = ?
	`, teamID, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("preset not found: %s", name)
	}
	if err != nil {
		return nil, err
	}
	var lines models.LineSet
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, fmt.Errorf("failed to decode preset: %w", err)
	}
	return &lines, nil
}

func (s *SQLiteDAL) ListLinePresets(teamID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT name FROM line_presets WHERE team_id = ? ORDER BY name
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteDAL) Reset() error {
	for _, table := range []string{"line_presets", "trade_profiles", "coaches", "players", "teams"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return s.seedData()
}

// Close closes the underlying database connection
func (s *SQLiteDAL) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
