package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/frozenpond/benchboss/internal/models"
)

// PostgresDAL implements RosterDAL using PostgreSQL
type PostgresDAL struct {
	db *sql.DB
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// CloudNativePG optimization: Configure connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Test connection with retry logic for Kubernetes DNS resolution
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.PingContext(ctx)
		cancel()

		if err == nil {
			lastErr = nil
			break
		}

		lastErr = err
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	dal := &PostgresDAL{db: db}
	if err := dal.initSchema(); err != nil {
		return nil, err
	}
	return dal, nil
}

func (p *PostgresDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		abbrev TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL REFERENCES teams(id),
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
		starter BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS coaches (
		team_id TEXT PRIMARY KEY REFERENCES teams(id),
		name TEXT NOT NULL,
		strategy_type TEXT NOT NULL,
		attributes JSONB NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS trade_profiles (
		player_id TEXT PRIMARY KEY REFERENCES players(id),
		data JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS line_presets (
		team_id TEXT NOT NULL REFERENCES teams(id),
		name TEXT NOT NULL,
		lines JSONB NOT NULL,
		PRIMARY KEY (team_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id);
	`

	if _, err := p.db.Exec(schema); err != nil {
		return err
	}

	var count int
	if err := p.db.QueryRow("SELECT COUNT(*) FROM teams").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if err := p.seedData(); err != nil {
			return err
		}
	}
	return nil
}

func (p *PostgresDAL) seedData() error {
	for _, t := range defaultTeams() {
		_, err := p.db.Exec(`
			INSERT INTO teams (id, name, city, abbrev) VALUES ($1, $2, $3, $4)
		`, t.ID, t.Name, t.City, t.Abbrev)
		if err != nil {
			return err
		}
	}

	for teamID, roster := range defaultRosters() {
		for _, pl := range roster {
			if err := p.insertPlayer(teamID, &pl); err != nil {
				return err
			}
		}
	}

	for teamID, coach := range defaultCoaches() {
		c := coach
		if err := p.SetCoach(teamID, &c); err != nil {
			return err
		}
	}
	return nil
}

func (p *PostgresDAL) insertPlayer(teamID string, pl *models.Player) error {
	_, err := p.db.Exec(`
		INSERT INTO players (id, team_id, first_name, last_name, position, second_position,
			type, overall, shooting, defense, weight_lbs, shoots, starter)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, pl.ID, teamID, pl.FirstName, pl.LastName, pl.Position, pl.SecondPosition,
		pl.Type, pl.Overall, pl.Shooting, pl.Defense, pl.WeightLbs, pl.Shoots, pl.Starter)
	return err
}

func (p *PostgresDAL) ListTeams() ([]models.Team, error) {
	rows, err := p.db.Query(`SELECT id, name, city, abbrev FROM teams ORDER BY name`)
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

func (p *PostgresDAL) AddTeam(name, city, abbrev string) (*models.Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}
	team := &models.Team{ID: genID(), Name: name, City: city, Abbrev: abbrev}
	_, err := p.db.Exec(`
		INSERT INTO teams (id, name, city, abbrev) VALUES ($1, $2, $3, $4)
	`, team.ID, team.Name, team.City, team.Abbrev)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (p *PostgresDAL) GetRoster(teamID string) ([]*models.Player, error) {
	var exists int
	if err := p.db.QueryRow(`SELECT COUNT(*) FROM teams WHERE id = $1`, teamID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("team not found: %s", teamID)
	}

	rows, err := p.db.Query(`
		SELECT id, first_name, last_name, position, second_position, type,
			overall, shooting, defense, weight_lbs, shoots, starter
		FROM players WHERE team_id = $1 ORDER BY overall DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster := []*models.Player{}
	for rows.Next() {
		var pl models.Player
		err := rows.Scan(&pl.ID, &pl.FirstName, &pl.LastName, &pl.Position, &pl.SecondPosition,
			&pl.Type, &pl.Overall, &pl.Shooting, &pl.Defense, &pl.WeightLbs, &pl.Shoots, &pl.Starter)
		if err != nil {
			return nil, err
		}
		roster = append(roster, &pl)
	}
	return roster, rows.Err()
}

func (p *PostgresDAL) AddPlayer(teamID string, player *models.Player) (*models.Player, error) {
	var exists int
	if err := p.db.QueryRow(`SELECT COUNT(*) FROM teams WHERE id = $1`, teamID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("team not found: %s", teamID)
	}

	if player.ID == "" {
		player.ID = genID()
	}
	if err := p.insertPlayer(teamID, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (p *PostgresDAL) UpdatePlayer(player *models.Player) (*models.Player, error) {
	result, err := p.db.Exec(`
		UPDATE players SET first_name = $1, last_name = $2, position = $3, second_position = $4,
			type = $5, overall = $6, shooting = $7, defense = $8, weight_lbs = $9, shoots = $10, starter = $11
		WHERE id = $12
	`, player.FirstName, player.LastName, player.Position, player.SecondPosition,
		player.Type, player.Overall, player.Shooting, player.Defense, player.WeightLbs,
		player.Shoots, player.Starter, player.ID)
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

func (p *PostgresDAL) DeletePlayer(id string) error {
	if _, err := p.db.Exec(`DELETE FROM trade_profiles WHERE player_id = $1`, id); err != nil {
		return err
	}
	result, err := p.db.Exec(`DELETE FROM players WHERE id = $1`, id)
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
	return nil
}

func (p *PostgresDAL) GetCoach(teamID string) (*models.Coach, error) {
	var coach models.Coach
	var attrs []byte
	err := p.db.QueryRow(`
		SELECT name, strategy_type, attributes FROM coaches WHERE team_id = $1
	`, teamID).Scan(&coach.Name, &coach.StrategyType, &attrs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 && string(attrs) != "{}" {
		if err := json.Unmarshal(attrs, &coach.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode coach attributes: %w", err)
		}
	}
	return &coach, nil
}

func (p *PostgresDAL) SetCoach(teamID string, coach *models.Coach) error {
	if coach == nil {
		_, err := p.db.Exec(`DELETE FROM coaches WHERE team_id = $1`, teamID)
		return err
	}
	attrs := []byte("{}")
	if coach.Attributes != nil {
		data, err := json.Marshal(coach.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode coach attributes: %w", err)
		}
		attrs = data
	}
	_, err := p.db.Exec(`
		INSERT INTO coaches (team_id, name, strategy_type, attributes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id) DO UPDATE SET name = EXCLUDED.name,
			strategy_type = EXCLUDED.strategy_type, attributes = EXCLUDED.attributes
	`, teamID, coach.Name, coach.StrategyType, attrs)
	return err
}

func (p *PostgresDAL) GetTradeProfile(playerID string) (*models.TradeProfile, error) {
	var data []byte
	err := p.db.QueryRow(`SELECT data FROM trade_profiles WHERE player_id = $1`, playerID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var profile models.TradeProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode trade profile: %w", err)
	}
	return &profile, nil
}

func (p *PostgresDAL) SetTradeProfile(playerID string, profile *models.TradeProfile) error {
	if profile == nil {
		_, err := p.db.Exec(`DELETE FROM trade_profiles WHERE player_id = $1`, playerID)
		return err
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode trade profile: %w", err)
	}
	_, err = p.db.Exec(`
		INSERT INTO trade_profiles (player_id, data) VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE SET data = EXCLUDED.data
	`, playerID, data)
	return err
}

func (p *PostgresDAL) SaveLinePreset(teamID, name string, lines *models.LineSet) error {
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	_, err = p.db.Exec(`
		INSERT INTO line_presets (team_id, name, lines) VALUES ($1, $2, $3)
		ON CONFLICT (team_id, name) DO UPDATE SET lines = EXCLUDED.lines
	`, teamID, name, data)
	return err
}

func (p *PostgresDAL) LoadLinePreset(teamID, name string) (*models.LineSet, error) {
	var data []byte
	err := p.db.QueryRow(`
		SELECT lines FROM line_presets WHERE team_id = $1 AND name = $2
	`, teamID, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("preset not found: %s", name)
	}
	if err != nil {
		return nil, err
	}
	var lines models.LineSet
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode preset: %w", err)
	}
	return &lines, nil
}

func (p *PostgresDAL) ListLinePresets(teamID string) ([]string, error) {
	rows, err := p.db.Query(`
		SELECT name FROM line_presets WHERE team_id = $1 ORDER BY name
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

func (p *PostgresDAL) Reset() error {
	for _, table := range []string{"line_presets", "trade_profiles", "coaches", "players", "teams"} {
		if _, err := p.db.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return p.seedData()
}

// Close closes the underlying database connection
func (p *PostgresDAL) Close() error {
	return p.db.Close()
}
