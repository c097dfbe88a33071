package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"playarena/internal/models"
	"playarena/internal/repositories"
)

type matchRepo struct{ s *Store }

func (r *matchRepo) Create(_ context.Context, match *models.Match) error {
	defer r.s.lock()()
	t := r.s.st.data
	match.ID = t.nextID()
	touch(&match.CreatedAt, &match.UpdatedAt)
	stored := *match
	stored.Participants = nil
	t.matches[match.ID] = stored
	return nil
}

func (r *matchRepo) GetByID(_ context.Context, id uint) (*models.Match, error) {
	defer r.s.lock()()
	m, ok := r.s.st.data.matches[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (r *matchRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r *matchRepo) GetWithParticipants(_ context.Context, id uint) (*models.Match, error) {
	defer r.s.lock()()
	t := r.s.st.data
	m, ok := t.matches[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	m.Participants = participantsOf(t, id)
	return &m, nil
}

func (r *matchRepo) List(_ context.Context, filter repositories.MatchFilter) ([]models.Match, int64, error) {
	defer r.s.lock()()
	var out []models.Match
	for _, m := range sortedValues(r.s.st.data.matches) {
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.Game != "" && m.Game != filter.Game {
			continue
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b models.Match) int {
		return a.ScheduledAt.Compare(b.ScheduledAt)
	})
	return paginate(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (r *matchRepo) ListDueForRegistration(_ context.Context, now time.Time) ([]models.Match, error) {
	defer r.s.lock()()
	var out []models.Match
	for _, m := range sortedValues(r.s.st.data.matches) {
		if m.Status == models.MatchUpcoming && m.RegistrationOpensAt != nil && !m.RegistrationOpensAt.After(now) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *matchRepo) Save(_ context.Context, match *models.Match) error {
	defer r.s.lock()()
	t := r.s.st.data
	if _, ok := t.matches[match.ID]; !ok {
		return repositories.ErrNotFound
	}
	touch(nil, &match.UpdatedAt)
	stored := *match
	stored.Participants = nil
	t.matches[match.ID] = stored
	return nil
}

func (r *matchRepo) IncrementFilled(_ context.Context, id uint) (bool, error) {
	defer r.s.lock()()
	t := r.s.st.data
	m, ok := t.matches[id]
	if !ok || m.FilledSlots >= m.MaxSlots {
		return false, nil
	}
	m.FilledSlots++
	t.matches[id] = m
	return true, nil
}

func (r *matchRepo) DecrementFilled(_ context.Context, id uint) error {
	defer r.s.lock()()
	t := r.s.st.data
	m, ok := t.matches[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if m.FilledSlots > 0 {
		m.FilledSlots--
		t.matches[id] = m
	}
	return nil
}

func (r *matchRepo) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	t := r.s.st.data
	if _, ok := t.matches[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(t.matches, id)
	return nil
}

func (r *matchRepo) AddParticipant(_ context.Context, p *models.MatchParticipant) error {
	defer r.s.lock()()
	t := r.s.st.data
	for _, existing := range t.participants {
		if existing.MatchID != p.MatchID {
			continue
		}
		if existing.UserID == p.UserID || existing.SlotNumber == p.SlotNumber {
			return repositories.ErrDuplicate
		}
	}
	p.ID = t.nextID()
	t.participants[p.ID] = *p
	return nil
}

func (r *matchRepo) GetParticipant(_ context.Context, matchID, userID uint) (*models.MatchParticipant, error) {
	defer r.s.lock()()
	for _, p := range r.s.st.data.participants {
		if p.MatchID == matchID && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *matchRepo) GetParticipantForUpdate(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error) {
	return r.GetParticipant(ctx, matchID, userID)
}

func (r *matchRepo) ListParticipants(_ context.Context, matchID uint) ([]models.MatchParticipant, error) {
	defer r.s.lock()()
	return participantsOf(r.s.st.data, matchID), nil
}

func (r *matchRepo) ListParticipationsByUser(_ context.Context, userID uint) ([]models.MatchParticipant, error) {
	defer r.s.lock()()
	var out []models.MatchParticipant
	for _, p := range sortedValues(r.s.st.data.participants) {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	byNewest(out,
		func(p models.MatchParticipant) time.Time { return p.JoinedAt },
		func(p models.MatchParticipant) uint { return p.ID })
	return out, nil
}

func (r *matchRepo) CountParticipants(_ context.Context, matchID uint) (int64, error) {
	defer r.s.lock()()
	return int64(len(participantsOf(r.s.st.data, matchID))), nil
}

func (r *matchRepo) UsedSlots(_ context.Context, matchID uint) ([]int, error) {
	defer r.s.lock()()
	var slots []int
	for _, p := range participantsOf(r.s.st.data, matchID) {
		slots = append(slots, p.SlotNumber)
	}
	return slots, nil
}

func (r *matchRepo) SaveParticipant(_ context.Context, p *models.MatchParticipant) error {
	defer r.s.lock()()
	t := r.s.st.data
	if _, ok := t.participants[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	t.participants[p.ID] = *p
	return nil
}

func (r *matchRepo) DeleteParticipant(_ context.Context, id uint) error {
	defer r.s.lock()()
	t := r.s.st.data
	if _, ok := t.participants[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(t.participants, id)
	return nil
}

func participantsOf(t *tables, matchID uint) []models.MatchParticipant {
	var out []models.MatchParticipant
	for _, p := range t.participants {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.MatchParticipant) int {
		return cmp.Compare(a.SlotNumber, b.SlotNumber)
	})
	return out
}
