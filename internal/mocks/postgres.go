package mocks

import (
	"github.com/frozenpond/benchboss/internal/dal"
	"github.com/frozenpond/benchboss/internal/logger"
)

// MockPostgresDAL provides a mock Postgres implementation using SQLite for local development
type MockPostgresDAL struct {
	dal.RosterDAL
}

// NewMockPostgresDAL creates a mock Postgres DAL using SQLite
func NewMockPostgresDAL(sqliteFile string) (*MockPostgresDAL, error) {
	logger.Info("Using MOCK Postgres (SQLite) for local development")

	sqliteDAL, err := dal.NewSQLiteDAL(sqliteFile)
	if err != nil {
		return nil, err
	}

	return &MockPostgresDAL{
		RosterDAL: sqliteDAL,
	}, nil
}
