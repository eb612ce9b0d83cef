package config

import "time"

// DomainConfig centralizes the hand-tuned constants of the memory domain.
// All scoring is deterministic arithmetic; none of these values are learned.
type DomainConfig struct {
	// Retrieval scoring
	MemoryDecayWindow   time.Duration // notes, short-term and long-term memories
	EpisodicDecayWindow time.Duration // episodic memories decay slower
	MinTermLength       int

	// Cognitive layer assignment
	VeridicalConfidenceFloor float64       // validated entities above this go veridical
	EpisodicRecencyWindow    time.Duration // recently re-mentioned entities go episodic
	EpisodicMentionFloor     int

	// Sync batching
	MaxSyncBatchSize int
	SyncThreshold    float64 // reserved, accepted but not gated on

	// Fusion
	MinFusionSources int
}

// DefaultDomainConfig returns the production configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MemoryDecayWindow:        30 * 24 * time.Hour,
		EpisodicDecayWindow:      60 * 24 * time.Hour,
		MinTermLength:            2,
		VeridicalConfidenceFloor: 0.8,
		EpisodicRecencyWindow:    24 * time.Hour,
		EpisodicMentionFloor:     1,
		MaxSyncBatchSize:         50,
		SyncThreshold:            0.3,
		MinFusionSources:         2,
	}
}
