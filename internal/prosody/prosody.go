// Package prosody produces the acoustic feature document of a recording.
//
// The document schema is fixed regardless of provider so downstream feedback
// prompts and API clients always see the same keys.
package prosody

import "context"

// Analyzer extracts prosodic features from a stored audio file. Analyzers
// never fail the pipeline: on any internal fault they return a degraded
// document instead of an error.
type Analyzer interface {
	Analyze(ctx context.Context, storageKey string) map[string]any
}

// FallbackDocument is the degraded prosody document used when feature
// extraction is unavailable. Values are neutral voice statistics.
func FallbackDocument() map[string]any {
	return map[string]any{
		"duration":               0.0,
		"f0_mean_hz":             150.0,
		"f0_std_hz":              20.0,
		"f0_min_hz":              80.0,
		"f0_max_hz":              300.0,
		"f0_range_hz":            220.0,
		"jitter_local":           0.5,
		"intensity_mean_db":      65.0,
		"intensity_std_db":       5.0,
		"intensity_min_db":       50.0,
		"intensity_max_db":       80.0,
		"intensity_range_db":     30.0,
		"shimmer_local":          3.0,
		"spectral_centroid_mean": 2000.0,
		"spectral_rolloff_mean":  4000.0,
	}
}
