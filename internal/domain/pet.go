package domain

import (
	"fmt"
	"strings"
	"time"
)

// Stage is the evolution level of a pet. Stages only move forward.
type Stage string

const (
	StageEgg   Stage = "egg"
	StageBlob  Stage = "blob"
	StageAdult Stage = "adult"
)

// Rank returns the ordinal of the stage, -1 for unknown values
func (s Stage) Rank() int {
	switch s {
	case StageEgg:
		return 0
	case StageBlob:
		return 1
	case StageAdult:
		return 2
	}
	return -1
}

// Next returns the stage after s. ok is false at the final stage.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageEgg:
		return StageBlob, true
	case StageBlob:
		return StageAdult, true
	}
	return s, false
}

// ParseStage accepts stored stage names, including the legacy "gelly" alias
func ParseStage(raw string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "egg":
		return StageEgg, nil
	case "blob":
		return StageBlob, nil
	case "adult", "gelly":
		return StageAdult, nil
	}
	return "", fmt.Errorf("unknown stage %q", raw)
}

// Color is a cosmetic palette entry
type Color string

const (
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
	ColorYellow Color = "yellow"
)

// Palette lists every color a pet may wear
var Palette = []Color{ColorBlue, ColorGreen, ColorPink, ColorPurple, ColorYellow}

// IsValid reports whether c belongs to the palette
func (c Color) IsValid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// PetState is the persisted simulation record for one user's pet
type PetState struct {
	UserID      string                   `json:"userId"`
	DisplayName string                   `json:"displayName"`
	LoginName   string                   `json:"loginName"`
	Energy      int                      `json:"energy"`
	Mood        int                      `json:"mood"`
	Cleanliness int                      `json:"cleanliness"`
	Points      int64                    `json:"points"`
	Color       Color                    `json:"color"`
	Stage       Stage                    `json:"stage"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Cooldowns   map[ActionKind]time.Time `json:"cooldowns,omitempty"`
}

// NewPetState returns the documented defaults for a first-time user
func NewPetState(userID string, now time.Time) PetState {
	return PetState{
		UserID:      userID,
		DisplayName: DefaultDisplayName,
		LoginName:   DefaultLoginName,
		Energy:      DefaultEnergy,
		Mood:        DefaultMood,
		Cleanliness: DefaultCleanliness,
		Points:      0,
		Color:       ColorBlue,
		Stage:       StageEgg,
		LastUpdated: now,
		Cooldowns:   make(map[ActionKind]time.Time),
	}
}

// Clone returns a deep copy so callers never share the cooldown map
func (p PetState) Clone() PetState {
	c := p
	if p.Cooldowns != nil {
		c.Cooldowns = make(map[ActionKind]time.Time, len(p.Cooldowns))
		for k, v := range p.Cooldowns {
			c.Cooldowns[k] = v
		}
	}
	return c
}

// WithIdentity overwrites the placeholder labels when real ones are known
func (p PetState) WithIdentity(id Identity) PetState {
	if id.DisplayName != "" {
		p.DisplayName = id.DisplayName
	}
	if id.Login != "" {
		p.LoginName = id.Login
	}
	return p
}

// Clamp bounds a stat to [MinStat, MaxStat]
func Clamp(v int) int {
	if v < MinStat {
		return MinStat
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}

// Identity is what the identity provider tells us about a caller
type Identity struct {
	UserID      string `json:"userId"`
	Login       string `json:"login,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// LeaderboardEntry is a ranked projection of a PetState
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Points      int64  `json:"points"`
	Mood        int    `json:"mood"`
	Energy      int    `json:"energy"`
	Cleanliness int    `json:"cleanliness"`
	Stage       Stage  `json:"stage"`
	Color       Color  `json:"color"`
}

// NewLeaderboardEntry projects a pet onto a leaderboard row
func NewLeaderboardEntry(rank int, p PetState) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:        rank,
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Points:      p.Points,
		Mood:        p.Mood,
		Energy:      p.Energy,
		Cleanliness: p.Cleanliness,
		Stage:       p.Stage,
		Color:       p.Color,
	}
}
