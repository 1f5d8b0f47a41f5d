package localstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// The methods in this file exist only for the migration engine.
// Every local collection is already a map keyed by id, so an id-preserving
// upsert is just a map write; Snapshot/Restore round-trip the raw collection
// bytes directly, bypassing JSON re-encoding so a restore is byte-identical
// to what was captured.

func (s *LocalDataStore) GetAllPlayerAdjustments(ctx context.Context) ([]domain.PlayerAdjustment, error) {
	adjustments, err := s.readAdjustments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlayerAdjustment, 0, len(adjustments))
	for _, a := range adjustments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt < out[j].AppliedAt })
	return out, nil
}

func (s *LocalDataStore) UpsertSeason(ctx context.Context, sn domain.Season) (domain.Season, error) {
	return synclockWithKey(s, ctx, keySeasons, func() (domain.Season, error) {
		seasons, err := s.readSeasons(ctx)
		if err != nil {
			return domain.Season{}, err
		}
		if existing, ok := seasons[sn.ID]; ok {
			sn.CreatedAt = existing.CreatedAt
		} else if sn.CreatedAt == "" {
			sn.CreatedAt = nowISO()
		}
		sn.UpdatedAt = nowISO()
		seasons[sn.ID] = sn
		if err := writeCollection(ctx, s, keySeasons, seasons); err != nil {
			return domain.Season{}, err
		}
		return sn, nil
	})
}

func (s *LocalDataStore) UpsertTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error) {
	return synclockWithKey(s, ctx, keyTournaments, func() (domain.Tournament, error) {
		tournaments, err := s.readTournaments(ctx)
		if err != nil {
			return domain.Tournament{}, err
		}
		if existing, ok := tournaments[t.ID]; ok {
			t.CreatedAt = existing.CreatedAt
		} else if t.CreatedAt == "" {
			t.CreatedAt = nowISO()
		}
		t.UpdatedAt = nowISO()
		tournaments[t.ID] = t
		if err := writeCollection(ctx, s, keyTournaments, tournaments); err != nil {
			return domain.Tournament{}, err
		}
		return t, nil
	})
}

func (s *LocalDataStore) UpsertPersonnel(ctx context.Context, p domain.Personnel) (domain.Personnel, error) {
	return synclockWithKey(s, ctx, keyPersonnel, func() (domain.Personnel, error) {
		personnel, err := s.readPersonnel(ctx)
		if err != nil {
			return domain.Personnel{}, err
		}
		if existing, ok := personnel[p.ID]; ok {
			p.CreatedAt = existing.CreatedAt
		} else if p.CreatedAt == "" {
			p.CreatedAt = nowISO()
		}
		p.UpdatedAt = nowISO()
		personnel[p.ID] = p
		if err := writeCollection(ctx, s, keyPersonnel, personnel); err != nil {
			return domain.Personnel{}, err
		}
		return p, nil
	})
}

// UpsertGame writes g verbatim under its own id, preserving whatever version
// and timestamps the source store already assigned it — migration copies a
// game's identity across stores, it does not reinterpret its history.
func (s *LocalDataStore) UpsertGame(ctx context.Context, g domain.Game) (domain.Game, error) {
	return synclockWithKey(s, ctx, keyGames, func() (domain.Game, error) {
		games, err := s.readGames(ctx)
		if err != nil {
			return domain.Game{}, err
		}
		if g.GameEvents == nil {
			g.GameEvents = []domain.GameEvent{}
		}
		if g.Version < 1 {
			g.Version = 1
		}
		if g.CreatedAt == "" {
			g.CreatedAt = nowISO()
		}
		if g.UpdatedAt == "" {
			g.UpdatedAt = g.CreatedAt
		}
		games[g.ID] = g
		if err := writeCollection(ctx, s, keyGames, games); err != nil {
			return domain.Game{}, err
		}
		return g, nil
	})
}

func (s *LocalDataStore) UpsertPlayerAdjustment(ctx context.Context, a domain.PlayerAdjustment) (domain.PlayerAdjustment, error) {
	return synclockWithKey(s, ctx, keyPlayerAdjustments, func() (domain.PlayerAdjustment, error) {
		adjustments, err := s.readAdjustments(ctx)
		if err != nil {
			return domain.PlayerAdjustment{}, err
		}
		if a.AppliedAt == "" {
			a.AppliedAt = nowISO()
		}
		adjustments[a.ID] = a
		if err := writeCollection(ctx, s, keyPlayerAdjustments, adjustments); err != nil {
			return domain.PlayerAdjustment{}, err
		}
		return a, nil
	})
}

// Snapshot captures the raw bytes behind every collection key, plus whether
// each key was present at all, so Restore can reproduce an absent key as
// absent rather than as an empty document.
type Snapshot struct {
	entries map[string][]byte
	present map[string]bool
}

var snapshotKeys = []string{
	keyPlayers, keyTeams, keyTeamRosters, keySeasons, keyTournaments,
	keyPersonnel, keyGames, keyPlayerAdjustments, keyWarmupPlan, keySettings,
}

// Snapshot returns an opaque any so LocalDataStore and RemoteDataStore can
// satisfy the same migration.Store interface despite capturing state in
// entirely different shapes; Restore type-asserts it back.
func (s *LocalDataStore) Snapshot(ctx context.Context) (any, error) {
	snap := Snapshot{entries: make(map[string][]byte), present: make(map[string]bool)}
	for _, key := range snapshotKeys {
		raw, found, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		snap.present[key] = found
		if found {
			snap.entries[key] = raw
		}
	}
	return snap, nil
}

// Restore reinstates every snapshotted key exactly as captured, removing any
// key that did not exist at snapshot time.
func (s *LocalDataStore) Restore(ctx context.Context, snapshot any) error {
	snap, ok := snapshot.(Snapshot)
	if !ok {
		return fmt.Errorf("localstore: Restore given a snapshot of type %T, want localstore.Snapshot", snapshot)
	}
	for _, key := range snapshotKeys {
		if snap.present[key] {
			if err := s.kv.Set(ctx, key, snap.entries[key]); err != nil {
				return err
			}
		} else if err := s.kv.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
