package mocks

import (
	"context"
	"math/rand"

	"github.com/frozenpond/benchboss/internal/logger"
)

// MockClickHouseClient provides a mock shift-tracking client for local development
type MockClickHouseClient struct {
	basePairs map[string]map[string]float64
}

// NewMockClickHouseClient creates a mock ClickHouse client seeded with pair
// minutes for the demo league's top units
func NewMockClickHouseClient() *MockClickHouseClient {
	logger.Info("Using MOCK ClickHouse client for local development")

	return &MockClickHouseClient{
		basePairs: map[string]map[string]float64{
			"frostpike": {
				"frp-c1:frp-lw1":  412, // first line, together since camp
				"frp-c1:frp-rw1":  405,
				"frp-lw1:frp-rw1": 389,
				"frp-c2:frp-lw2":  286,
				"frp-c2:frp-rw2":  274,
				"frp-lw2:frp-rw2": 251,
				"frp-ld1:frp-rd1": 498, // top pair
				"frp-ld2:frp-rd2": 342,
				"frp-ld3:frp-rd3": 187,
				"frp-c3:frp-lw3":  164,
				"frp-c4:frp-rw4":  92,
			},
			"harborwolves": {
				"hbw-c1:hbw-lw1":  376,
				"hbw-c1:hbw-rw1":  368,
				"hbw-lw1:hbw-rw1": 344,
				"hbw-c2:hbw-lw2":  259,
				"hbw-c2:hbw-rw2":  248,
				"hbw-ld1:hbw-rd1": 451,
				"hbw-ld2:hbw-rd2": 317,
				"hbw-c3:hbw-rw3":  141,
				"hbw-c4:hbw-lw4":  88,
			},
		},
	}
}

// GetPairMinutes returns mock pair minutes with slight variation
func (m *MockClickHouseClient) GetPairMinutes(ctx context.Context, playerA, playerB string) (float64, error) {
	if playerB < playerA {
		playerA, playerB = playerB, playerA
	}
	key := playerA + ":" + playerB

	for _, pairs := range m.basePairs {
		if base, ok := pairs[key]; ok {
			return jitter(base), nil
		}
	}
	return 0, nil
}

// GetTeamPairMinutes returns all mock pair minutes for a team
func (m *MockClickHouseClient) GetTeamPairMinutes(ctx context.Context, teamID string) (map[string]float64, error) {
	result := make(map[string]float64)
	for key, base := range m.basePairs[teamID] {
		result[key] = jitter(base)
	}
	return result, nil
}

// SyncPairMinutes pushes mock pair minutes into a consumer
func (m *MockClickHouseClient) SyncPairMinutes(ctx context.Context, teamID string, seed func(pairs map[string]float64) error) error {
	pairs, err := m.GetTeamPairMinutes(ctx, teamID)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := seed(pairs); err != nil {
		return err
	}

	logger.Info("Mock ClickHouse: synced pair minutes", "team", teamID, "pairs", len(pairs))
	return nil
}

// Close is a no-op for mock client
func (m *MockClickHouseClient) Close() error {
	return nil
}

// jitter adds +-10% variance for realism
func jitter(base float64) float64 {
	return base * (0.9 + 0.2*rand.Float64())
}
