package domain

import "fmt"

// CharacterizationConfig holds the tuning knobs of fault characterization.
type CharacterizationConfig struct {
	// NumberOfCombinationsPerStep is how many top-ranked suspicious
	// combinations get a new test input per iteration.
	// Default: 10
	NumberOfCombinationsPerStep int

	// MaxGenerationAttempts bounds the perturbations tried when a synthesized
	// test input was already executed.
	// Default: 50
	MaxGenerationAttempts int

	// RandomSeed seeds the perturbation. Every seed, including 0, yields a
	// reproducible run.
	// Default: 0
	RandomSeed int64
}

// DefaultCharacterizationConfig returns the default configuration.
func DefaultCharacterizationConfig() CharacterizationConfig {
	return CharacterizationConfig{
		NumberOfCombinationsPerStep: 10,
		MaxGenerationAttempts:       50,
		RandomSeed:                  0,
	}
}

// Validate checks that the configuration is valid.
func (c *CharacterizationConfig) Validate() error {
	if c.NumberOfCombinationsPerStep < 1 {
		return fmt.Errorf("%w: NumberOfCombinationsPerStep must be at least 1, got %d",
			ErrInvalidConfig, c.NumberOfCombinationsPerStep)
	}
	if c.MaxGenerationAttempts < 1 {
		return fmt.Errorf("%w: MaxGenerationAttempts must be at least 1, got %d",
			ErrInvalidConfig, c.MaxGenerationAttempts)
	}
	return nil
}

// WithDefaults returns a new config with defaults applied for zero values.
func (c CharacterizationConfig) WithDefaults() CharacterizationConfig {
	defaults := DefaultCharacterizationConfig()
	if c.NumberOfCombinationsPerStep == 0 {
		c.NumberOfCombinationsPerStep = defaults.NumberOfCombinationsPerStep
	}
	if c.MaxGenerationAttempts == 0 {
		c.MaxGenerationAttempts = defaults.MaxGenerationAttempts
	}
	return c
}
