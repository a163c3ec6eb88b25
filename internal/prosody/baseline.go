package prosody

import (
	"context"

	"aula-backend/internal/shared/metrics"
	"aula-backend/internal/shared/storage/object"
	"aula-backend/internal/shared/telemetry"
)

// BaselineAnalyzer emits a prosody document with typical classroom voice
// statistics. Duration is estimated from file size; the remaining features
// are representative placeholders until a signal-processing provider is
// wired in.
type BaselineAnalyzer struct {
	Store object.ObjectStore
}

var _ Analyzer = (*BaselineAnalyzer)(nil)

func (a *BaselineAnalyzer) Analyze(ctx context.Context, storageKey string) map[string]any {
	size, err := a.Store.Size(ctx, storageKey)
	if err != nil {
		telemetry.Warn("prosody.fallback", map[string]any{
			"storage_key": storageKey,
			"error":       err.Error(),
		})
		metrics.IncProsodyFallback()
		return FallbackDocument()
	}

	// Rough estimate: about 1 MB of compressed audio per minute.
	durationMinutes := float64(size) / (1024 * 1024)

	return map[string]any{
		"duration":               durationMinutes,
		"f0_mean_hz":             180.0,
		"f0_std_hz":              25.0,
		"f0_min_hz":              120.0,
		"f0_max_hz":              280.0,
		"f0_range_hz":            160.0,
		"jitter_local":           0.8,
		"intensity_mean_db":      68.0,
		"intensity_std_db":       6.0,
		"intensity_min_db":       55.0,
		"intensity_max_db":       80.0,
		"intensity_range_db":     25.0,
		"shimmer_local":          4.5,
		"spectral_centroid_mean": 2200.0,
		"spectral_rolloff_mean":  4500.0,
	}
}
