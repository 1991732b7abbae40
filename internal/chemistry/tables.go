package chemistry

import "github.com/frozenpond/benchboss/internal/models"

// typeCompatibility scores how well type A plays alongside type B. The table
// is asymmetric: a playmaker feeding a sniper is worth more than the reverse.
// Unknown tags are simply absent and score 0.
var typeCompatibility = map[models.PlayerType]map[models.PlayerType]float64{
	models.Sniper: {
		models.Sniper:              -0.5,
		models.Playmaker:           2.0,
		models.PowerForward:        1.0,
		models.TwoWayForward:       0.5,
		models.Enforcer:            0.0,
		models.OffensiveDefenseman: 1.5,
		models.DefensiveDefenseman: 0.0,
		models.TwoWayDefenseman:    0.5,
	},
	models.Playmaker: {
		models.Sniper:              1.8,
		models.Playmaker:           0.5,
		models.PowerForward:        1.5,
		models.TwoWayForward:       0.5,
		models.Enforcer:            0.5,
		models.OffensiveDefenseman: 1.0,
		models.DefensiveDefenseman: 0.0,
		models.TwoWayDefenseman:    0.5,
	},
	models.PowerForward: {
		models.Sniper:              1.2,
		models.Playmaker:           1.5,
		models.PowerForward:        0.5,
		models.TwoWayForward:       0.5,
		models.Enforcer:            -0.5,
		models.OffensiveDefenseman: 0.5,
		models.DefensiveDefenseman: 0.5,
		models.TwoWayDefenseman:    0.5,
	},
	models.TwoWayForward: {
		models.Sniper:              1.0,
		models.Playmaker:           0.5,
		models.PowerForward:        0.5,
		models.TwoWayForward:       1.0,
		models.Enforcer:            0.5,
		models.OffensiveDefenseman: 0.5,
		models.DefensiveDefenseman: 1.0,
		models.TwoWayDefenseman:    1.0,
	},
	models.Enforcer: {
		models.Sniper:              0.5,
		models.Playmaker:           0.5,
		models.PowerForward:        -0.5,
		models.TwoWayForward:       0.5,
		models.Enforcer:            -1.0,
		models.OffensiveDefenseman: 0.0,
		models.DefensiveDefenseman: 0.5,
		models.TwoWayDefenseman:    0.0,
	},
	models.OffensiveDefenseman: {
		models.Sniper:              1.5,
		models.Playmaker:           1.0,
		models.PowerForward:        0.5,
		models.TwoWayForward:       0.5,
		models.Enforcer:            0.0,
		models.OffensiveDefenseman: -0.5,
		models.DefensiveDefenseman: 2.0,
		models.TwoWayDefenseman:    1.0,
	},
	models.DefensiveDefenseman: {
		models.Sniper:              0.0,
		models.Playmaker:           0.5,
		models.PowerForward:        0.5,
		models.TwoWayForward:       1.0,
		models.Enforcer:            0.5,
		models.OffensiveDefenseman: 1.8,
		models.DefensiveDefenseman: 0.0,
		models.TwoWayDefenseman:    0.5,
	},
	models.TwoWayDefenseman: {
		models.Sniper:              0.5,
		models.Playmaker:           0.5,
		models.PowerForward:        0.5,
		models.TwoWayForward:       1.0,
		models.Enforcer:            0.0,
		models.OffensiveDefenseman: 1.0,
		models.DefensiveDefenseman: 1.0,
		models.TwoWayDefenseman:    0.5,
	},
}

// sizeBucket buckets a player by listed weight
type sizeBucket int

const (
	sizeSmall sizeBucket = iota
	sizeMedium
	sizeLarge
)

func bucketWeight(lbs int) sizeBucket {
	switch {
	case lbs < 180:
		return sizeSmall
	case lbs < 210:
		return sizeMedium
	default:
		return sizeLarge
	}
}

// sizeCompatibility favors complementary builds: a small skill player next
// to a big body screens and forechecks better than two smalls.
var sizeCompatibility = [3][3]float64{
	sizeSmall:  {sizeSmall: 0.3, sizeMedium: 0.5, sizeLarge: 0.8},
	sizeMedium: {sizeSmall: 0.5, sizeMedium: 0.6, sizeLarge: 0.7},
	sizeLarge:  {sizeSmall: 0.8, sizeMedium: 0.7, sizeLarge: 0.5},
}
