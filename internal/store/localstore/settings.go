package localstore

import (
	"context"
	"encoding/json"

	"github.com/relentnet/matchops-sync/internal/domain"
)

var defaultSettings = domain.AppSettings{Language: "en"}

func (s *LocalDataStore) GetSettings(ctx context.Context) (domain.AppSettings, error) {
	return readCollection(ctx, s, keySettings, defaultSettings)
}

func (s *LocalDataStore) SaveSettings(ctx context.Context, settings domain.AppSettings) error {
	_, err := synclockWithKey(s, ctx, keySettings, func() (struct{}, error) {
		return struct{}{}, writeCollection(ctx, s, keySettings, settings)
	})
	return err
}

// UpdateSettings applies a partial patch over the stored settings document by
// round-tripping through a generic map, so unknown/future fields in patch
// never silently clobber the whole document.
func (s *LocalDataStore) UpdateSettings(ctx context.Context, patch map[string]any) (domain.AppSettings, error) {
	return synclockWithKey(s, ctx, keySettings, func() (domain.AppSettings, error) {
		existing, err := s.GetSettings(ctx)
		if err != nil {
			return domain.AppSettings{}, err
		}
		raw, err := json.Marshal(existing)
		if err != nil {
			return domain.AppSettings{}, err
		}
		var merged map[string]any
		if err := json.Unmarshal(raw, &merged); err != nil {
			return domain.AppSettings{}, err
		}
		for k, v := range patch {
			merged[k] = v
		}
		mergedRaw, err := json.Marshal(merged)
		if err != nil {
			return domain.AppSettings{}, err
		}
		var result domain.AppSettings
		if err := json.Unmarshal(mergedRaw, &result); err != nil {
			return domain.AppSettings{}, err
		}
		if err := writeCollection(ctx, s, keySettings, result); err != nil {
			return domain.AppSettings{}, err
		}
		return result, nil
	})
}
