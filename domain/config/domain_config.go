package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Resolution evidence weights, must sum to 1.0
	NameMatchWeight     float64
	CrossRefWeight      float64
	LocationMatchWeight float64
	CompanyMatchWeight  float64
	BioOverlapWeight    float64

	// Resolution constraints
	FuzzyNameThreshold   float64
	SingleNodeScoreCap   float64
	MaxTimelineEntries   int
	MaxBioFragments      int
	MaxNodesPerGraph     int

	// Momentum scoring
	MomentumDecayFactor   float64
	MomentumSaturationK   float64
	MomentumWindowDays    int
	BurstMinEvents        int
	BurstMeanMultiplier   float64
	BurstHighThreshold    int
	BurstModerateThreshold int
	MaxBurstsReported     int

	// Readiness scoring
	ContextWeight float64
	IntentWeight  float64
	TimingWeight  float64

	// Time constraints
	FetchTimeout      time.Duration
	ResolutionTimeout time.Duration

	// Feature flags
	EnableBurstDetection bool
	EnableFuzzyNameMatch bool
	EnableOverrideRules  bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Resolution evidence weights
		NameMatchWeight:     0.30,
		CrossRefWeight:      0.40,
		LocationMatchWeight: 0.10,
		CompanyMatchWeight:  0.10,
		BioOverlapWeight:    0.10,

		// Resolution constraints
		FuzzyNameThreshold: 0.85,
		SingleNodeScoreCap: 0.5,
		MaxTimelineEntries: 50,
		MaxBioFragments:    5,
		MaxNodesPerGraph:   20,

		// Momentum scoring
		MomentumDecayFactor:    0.8,
		MomentumSaturationK:    8.0,
		MomentumWindowDays:     30,
		BurstMinEvents:         4,
		BurstMeanMultiplier:    2.5,
		BurstHighThreshold:     8,
		BurstModerateThreshold: 6,
		MaxBurstsReported:      10,

		// Readiness scoring
		ContextWeight: 0.30,
		IntentWeight:  0.20,
		TimingWeight:  0.50,

		// Time constraints
		FetchTimeout:      10 * time.Second,
		ResolutionTimeout: 45 * time.Second,

		// Feature flags
		EnableBurstDetection: true,
		EnableFuzzyNameMatch: true,
		EnableOverrideRules:  true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter fetch budget for production traffic
	config.FetchTimeout = 5 * time.Second
	config.ResolutionTimeout = 20 * time.Second
	config.MaxNodesPerGraph = 10

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More permissive for development
	config.FetchTimeout = 30 * time.Second
	config.ResolutionTimeout = 2 * time.Minute
	config.MaxNodesPerGraph = 50

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	weightSum := c.NameMatchWeight + c.CrossRefWeight + c.LocationMatchWeight +
		c.CompanyMatchWeight + c.BioOverlapWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("resolution weights must sum to 1.0, got %.3f", weightSum)
	}

	scoringSum := c.ContextWeight + c.IntentWeight + c.TimingWeight
	if scoringSum < 0.999 || scoringSum > 1.001 {
		return fmt.Errorf("readiness weights must sum to 1.0, got %.3f", scoringSum)
	}

	if c.MomentumDecayFactor <= 0 || c.MomentumDecayFactor >= 1 {
		return fmt.Errorf("momentum decay factor must be in (0,1), got %.3f", c.MomentumDecayFactor)
	}

	if c.SingleNodeScoreCap < 0 || c.SingleNodeScoreCap > 1 {
		return fmt.Errorf("single node score cap must be in [0,1], got %.3f", c.SingleNodeScoreCap)
	}

	return nil
}
