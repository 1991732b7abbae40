package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client provides ClickHouse integration for shift-tracking data. The
// shift_events table holds raw tracked shifts; the queries aggregate them
// into minutes a pair of skaters spent on the ice together.
type Client struct {
	conn driver.Conn
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn}, nil
}

// GetPairMinutes retrieves the tracked minutes two skaters played together
// this season. Pair columns are stored with player_a < player_b.
func (c *Client) GetPairMinutes(ctx context.Context, playerA, playerB string) (float64, error) {
	if playerB < playerA {
		playerA, playerB = playerB, playerA
	}

	var minutes float64

	query := `
		SELECT sum(shift_seconds) / 60 AS pair_minutes
		FROM shift_events
		WHERE player_a = $1
		AND player_b = $2
		AND game_date >= toStartOfYear(today())
	`

	row := c.conn.QueryRow(ctx, query, playerA, playerB)
	if err := row.Scan(&minutes); err != nil {
		return 0, err
	}

	return minutes, nil
}

// GetTeamPairMinutes retrieves pair minutes for every skater pair on a
// team, keyed "a:b" with the IDs sorted
func (c *Client) GetTeamPairMinutes(ctx context.Context, teamID string) (map[string]float64, error) {
	minutes := make(map[string]float64)

	query := `
		SELECT
			player_a,
			player_b,
			sum(shift_seconds) / 60 AS pair_minutes
		FROM shift_events
		WHERE team_id = $1
		AND game_date >= toStartOfYear(today())
		GROUP BY player_a, player_b
	`

	rows, err := c.conn.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a, b string
		var mins float64
		if err := rows.Scan(&a, &b, &mins); err != nil {
			return nil, err
		}
		minutes[a+":"+b] = mins
	}

	return minutes, nil
}

// SyncPairMinutes pushes tracked pair minutes for a team into a consumer,
// typically a chemistry ledger seeder. Called periodically to keep
// time-together factors aligned with real shift data.
func (c *Client) SyncPairMinutes(ctx context.Context, teamID string, seed func(pairs map[string]float64) error) error {
	pairs, err := c.GetTeamPairMinutes(ctx, teamID)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := seed(pairs); err != nil {
		return fmt.Errorf("failed to seed pair minutes for team %s: %w", teamID, err)
	}
	return nil
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
