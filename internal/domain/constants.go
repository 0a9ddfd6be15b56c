package domain

import "time"

// ==== Stat Constants ====

const (
	// MinStat and MaxStat bound energy, mood and cleanliness
	MinStat = 0
	MaxStat = 100

	DefaultEnergy      = 100
	DefaultMood        = 50
	DefaultCleanliness = 50

	DefaultDisplayName = "guest"
	DefaultLoginName   = "unknown"
)

// ==== Action Effects ====

const (
	FeedEnergyGain = 20
	FeedMoodGain   = 5

	PlayMoodGain   = 20
	PlayEnergyCost = 10

	CleanCleanlinessGain = 20
	CleanMoodGain        = 5

	// CareReward is awarded for every accepted feed/play/clean
	CareReward = 10

	// CosmeticReward is awarded for every accepted color change
	CosmeticReward = 2
)

// ==== Evolution Thresholds ====

const (
	// BlobEnergyThreshold is the energy an egg needs to hatch
	BlobEnergyThreshold = MaxStat

	// AdultMoodThreshold and AdultCleanlinessThreshold must both be met by a blob
	AdultMoodThreshold        = 90
	AdultCleanlinessThreshold = 90
)

// ==== Decay Constants ====

const (
	DecayInterval        = 5 * time.Minute
	DecayEnergyPerStep   = 2
	DecayMoodPerStep     = 2
	DecayCleanlinessStep = 3
)

// ==== Cooldown Constants ====

const (
	DefaultFeedCooldown  = 30 * time.Second
	DefaultPlayCooldown  = 45 * time.Second
	DefaultCleanCooldown = 60 * time.Second
	DefaultColorCooldown = 5 * time.Second
)

// ==== Leaderboard Constants ====

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// ==== Label Constants ====

// MaxLabelLength caps display and login names
const MaxLabelLength = 50
