package localstore

import (
	"context"
	"sort"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

const maxPersonnelNameLength = 100

func (s *LocalDataStore) readPersonnel(ctx context.Context) (map[string]domain.Personnel, error) {
	return readCollection(ctx, s, keyPersonnel, map[string]domain.Personnel{})
}

func (s *LocalDataStore) GetAllPersonnel(ctx context.Context) ([]domain.Personnel, error) {
	personnel, err := s.readPersonnel(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Personnel, 0, len(personnel))
	for _, p := range personnel {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *LocalDataStore) GetPersonnelByID(ctx context.Context, id string) (*domain.Personnel, error) {
	personnel, err := s.readPersonnel(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := personnel[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func findPersonnelByUniqueKey(personnel map[string]domain.Personnel, key, excludeID string) bool {
	for id, p := range personnel {
		if id == excludeID {
			continue
		}
		if p.UniqueKey() == key {
			return true
		}
	}
	return false
}

func (s *LocalDataStore) AddPersonnelMember(ctx context.Context, p domain.Personnel) (domain.Personnel, error) {
	return synclockWithKey(s, ctx, keyPersonnel, func() (domain.Personnel, error) {
		p.Name = domain.NormalizeName(p.Name)
		if err := domain.ValidateName(p.Name, maxPersonnelNameLength); err != nil {
			return domain.Personnel{}, errs.Wrap(errs.Validation, "personnel name invalid", err)
		}
		personnel, err := s.readPersonnel(ctx)
		if err != nil {
			return domain.Personnel{}, err
		}
		if findPersonnelByUniqueKey(personnel, p.UniqueKey(), "") {
			return domain.Personnel{}, errs.New(errs.AlreadyExists, "a personnel member with this name already exists")
		}
		now := nowISO()
		p.ID = newID("personnel")
		p.CreatedAt = now
		p.UpdatedAt = now
		personnel[p.ID] = p
		if err := writeCollection(ctx, s, keyPersonnel, personnel); err != nil {
			return domain.Personnel{}, err
		}
		return p, nil
	})
}

func (s *LocalDataStore) UpdatePersonnelMember(ctx context.Context, id string, patch domain.Personnel) (*domain.Personnel, error) {
	return synclockWithKey(s, ctx, keyPersonnel, func() (*domain.Personnel, error) {
		personnel, err := s.readPersonnel(ctx)
		if err != nil {
			return nil, err
		}
		existing, ok := personnel[id]
		if !ok {
			return nil, nil
		}
		merged := existing
		if patch.Name != "" {
			merged.Name = domain.NormalizeName(patch.Name)
		}
		merged.Role = patch.Role
		merged.Email = patch.Email
		merged.Phone = patch.Phone
		merged.Certifications = patch.Certifications
		merged.Notes = patch.Notes
		if err := domain.ValidateName(merged.Name, maxPersonnelNameLength); err != nil {
			return nil, errs.Wrap(errs.Validation, "personnel name invalid", err)
		}
		if findPersonnelByUniqueKey(personnel, merged.UniqueKey(), id) {
			return nil, errs.New(errs.AlreadyExists, "a personnel member with this name already exists")
		}
		merged.UpdatedAt = nowISO()
		personnel[id] = merged
		if err := writeCollection(ctx, s, keyPersonnel, personnel); err != nil {
			return nil, err
		}
		return &merged, nil
	})
}

// RemovePersonnelMember deletes a personnel record and scrubs every reference
// to it from game events. The personnel and games collections are
// locked together, in that fixed order, so no reader ever observes a deleted
// personnel id still referenced by a game event. If the games write fails
// after personnel has been removed, both collections are restored from the
// backups taken before mutation.
func (s *LocalDataStore) RemovePersonnelMember(ctx context.Context, id string) error {
	_, err := synclockWithTwoKeys(s, ctx, keyPersonnel, keyGames, func() (struct{}, error) {
		personnel, err := s.readPersonnel(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if _, ok := personnel[id]; !ok {
			return struct{}{}, nil
		}
		games, err := s.readGames(ctx)
		if err != nil {
			return struct{}{}, err
		}

		personnelBackup := cloneMap(personnel)
		gamesBackup := cloneMap(games)

		delete(personnel, id)
		scrubbed := false
		for gameID, g := range games {
			changed := false
			for i := range g.GameEvents {
				if g.GameEvents[i].PersonnelID == id {
					if !changed {
						// Copy before the first write: gamesBackup shares this slice.
						g.GameEvents = append([]domain.GameEvent(nil), g.GameEvents...)
					}
					g.GameEvents[i].PersonnelID = ""
					changed = true
				}
			}
			if changed {
				g.UpdatedAt = nowISO()
				games[gameID] = g
				scrubbed = true
			}
		}

		if err := writeCollection(ctx, s, keyPersonnel, personnel); err != nil {
			return struct{}{}, err
		}
		if scrubbed {
			if err := writeCollection(ctx, s, keyGames, games); err != nil {
				// Restore both collections to their pre-mutation state; a
				// partial cascade would leave a dangling personnel reference.
				_ = writeCollection(ctx, s, keyPersonnel, personnelBackup)
				_ = writeCollection(ctx, s, keyGames, gamesBackup)
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
