package retrieval

// Configuration controls one retrieval call. It is an immutable value type;
// presets return fresh copies and callers may tweak fields before use.
// RecencyWeight and RelevanceWeight need not sum to 1.
type Configuration struct {
	MaxResults        int     `json:"maxResults" yaml:"maxResults" validate:"omitempty,min=1,max=500"`
	RecencyWeight     float64 `json:"recencyWeight" yaml:"recencyWeight" validate:"min=0,max=1"`
	RelevanceWeight   float64 `json:"relevanceWeight" yaml:"relevanceWeight" validate:"min=0,max=1"`
	SemanticThreshold float64 `json:"semanticThreshold" yaml:"semanticThreshold" validate:"min=0,max=1"`

	IncludeEntities      bool `json:"includeEntities" yaml:"includeEntities"`
	IncludeRelationships bool `json:"includeRelationships" yaml:"includeRelationships"`
	IncludeShortTerm     bool `json:"includeShortTerm" yaml:"includeShortTerm"`
	IncludeLongTerm      bool `json:"includeLongTerm" yaml:"includeLongTerm"`
	IncludeEpisodic      bool `json:"includeEpisodic" yaml:"includeEpisodic"`
	IncludeNotes         bool `json:"includeNotes" yaml:"includeNotes"`
}

// DefaultConfiguration is the balanced preset used when a caller does not
// specify one.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxResults:           20,
		RecencyWeight:        0.3,
		RelevanceWeight:      0.7,
		SemanticThreshold:    0.3,
		IncludeEntities:      true,
		IncludeRelationships: true,
		IncludeShortTerm:     true,
		IncludeLongTerm:      true,
		IncludeEpisodic:      true,
		IncludeNotes:         true,
	}
}

// PersonalFocusConfiguration upweights recency for first-person queries and
// drops entity results, which rarely help "what did I..." questions.
func PersonalFocusConfiguration() Configuration {
	return Configuration{
		MaxResults:           15,
		RecencyWeight:        0.6,
		RelevanceWeight:      0.4,
		SemanticThreshold:    0.25,
		IncludeEntities:      false,
		IncludeRelationships: true,
		IncludeShortTerm:     true,
		IncludeLongTerm:      true,
		IncludeEpisodic:      true,
		IncludeNotes:         true,
	}
}

// normalized fills in defaults for zero-valued fields so ad-hoc
// configurations from API callers behave sensibly.
func (c Configuration) normalized() Configuration {
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultConfiguration().MaxResults
	}
	return c
}
