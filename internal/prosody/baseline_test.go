package prosody

import (
	"context"
	"errors"
	"io"
	"testing"
)

type stubStore struct {
	size    int64
	sizeErr error
}

func (s *stubStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("not implemented")
}

func (s *stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *stubStore) Size(ctx context.Context, storageKey string) (int64, error) {
	return s.size, s.sizeErr
}

func TestBaselineEstimatesDurationFromSize(t *testing.T) {
	a := &BaselineAnalyzer{Store: &stubStore{size: 3 * 1024 * 1024}}
	doc := a.Analyze(context.Background(), "abc/audio.mp3")

	if got := doc["duration"].(float64); got != 3.0 {
		t.Fatalf("duration = %v, want 3.0", got)
	}
	if got := doc["f0_mean_hz"].(float64); got != 180.0 {
		t.Fatalf("f0_mean_hz = %v, want 180.0", got)
	}
}

func TestBaselineFallsBackOnStoreError(t *testing.T) {
	a := &BaselineAnalyzer{Store: &stubStore{sizeErr: errors.New("missing")}}
	doc := a.Analyze(context.Background(), "gone.mp3")

	if got := doc["f0_mean_hz"].(float64); got != 150.0 {
		t.Fatalf("f0_mean_hz = %v, want fallback 150.0", got)
	}
	if got := doc["duration"].(float64); got != 0.0 {
		t.Fatalf("duration = %v, want 0.0", got)
	}
}

func TestDocumentSchemaIsStable(t *testing.T) {
	keys := []string{
		"duration",
		"f0_mean_hz", "f0_std_hz", "f0_min_hz", "f0_max_hz", "f0_range_hz",
		"jitter_local",
		"intensity_mean_db", "intensity_std_db", "intensity_min_db", "intensity_max_db", "intensity_range_db",
		"shimmer_local",
		"spectral_centroid_mean", "spectral_rolloff_mean",
	}

	a := &BaselineAnalyzer{Store: &stubStore{size: 1024}}
	for name, doc := range map[string]map[string]any{
		"baseline": a.Analyze(context.Background(), "x.mp3"),
		"fallback": FallbackDocument(),
	} {
		for _, k := range keys {
			if _, ok := doc[k]; !ok {
				t.Errorf("%s document missing key %q", name, k)
			}
		}
		if len(doc) != len(keys) {
			t.Errorf("%s document has %d keys, want %d", name, len(doc), len(keys))
		}
	}
}
