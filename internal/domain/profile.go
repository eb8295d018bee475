package domain

import "time"

// Level is the loyalty tier derived from activity points
type Level string

const (
	LevelBronze Level = "Bronze"
	LevelSilver Level = "Silver"
	LevelGold   Level = "Gold"
)

const (
	silverPoints = 50
	goldPoints   = 100
)

// LevelForPoints maps activity points to a tier: <50 Bronze, 50-99 Silver, >=100 Gold
func LevelForPoints(points int) Level {
	switch {
	case points >= goldPoints:
		return LevelGold
	case points >= silverPoints:
		return LevelSilver
	default:
		return LevelBronze
	}
}

// LevelInfo describes the point range of a tier. MaxPoints is -1 for the top tier.
type LevelInfo struct {
	Level     Level
	MinPoints int
	MaxPoints int
}

// InfoForPoints returns the tier and its point range
func InfoForPoints(points int) LevelInfo {
	switch LevelForPoints(points) {
	case LevelGold:
		return LevelInfo{Level: LevelGold, MinPoints: goldPoints, MaxPoints: -1}
	case LevelSilver:
		return LevelInfo{Level: LevelSilver, MinPoints: silverPoints, MaxPoints: goldPoints - 1}
	default:
		return LevelInfo{Level: LevelBronze, MinPoints: 0, MaxPoints: silverPoints - 1}
	}
}

// LevelChange records when a tier was reached
type LevelChange struct {
	Level      Level
	Points     int
	AchievedAt time.Time
}

// Profile summarises the user's standing in the quest program
type Profile struct {
	ActivePoints    int
	IsPremium       bool
	QuestsCompleted int
	Level           Level
	LevelHistory    []LevelChange
}
