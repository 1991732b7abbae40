package dal

import "github.com/frozenpond/benchboss/internal/models"

// RosterDAL defines the interface for data access layer
type RosterDAL interface {
	ListTeams() ([]models.Team, error)
	AddTeam(name, city, abbrev string) (*models.Team, error)
	GetRoster(teamID string) ([]*models.Player, error)
	AddPlayer(teamID string, player *models.Player) (*models.Player, error)
	UpdatePlayer(player *models.Player) (*models.Player, error)
	DeletePlayer(id string) error
	GetCoach(teamID string) (*models.Coach, error)
	SetCoach(teamID string, coach *models.Coach) error
	GetTradeProfile(playerID string) (*models.TradeProfile, error)
	SetTradeProfile(playerID string, profile *models.TradeProfile) error
	SaveLinePreset(teamID, name string, lines *models.LineSet) error
	LoadLinePreset(teamID, name string) (*models.LineSet, error)
	ListLinePresets(teamID string) ([]string, error)
	Reset() error
}
