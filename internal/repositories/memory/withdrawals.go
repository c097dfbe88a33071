package memory

import (
	"context"
	"time"

	"playarena/internal/models"
	"playarena/internal/repositories"
)

type withdrawalRepo struct{ s *Store }

func (r *withdrawalRepo) Create(_ context.Context, w *models.Withdrawal) error {
	defer r.s.lock()()
	t := r.s.st.data
	w.ID = t.nextID()
	touch(&w.CreatedAt, &w.UpdatedAt)
	t.withdrawals[w.ID] = *w
	return nil
}

func (r *withdrawalRepo) GetByID(_ context.Context, id uint) (*models.Withdrawal, error) {
	defer r.s.lock()()
	w, ok := r.s.st.data.withdrawals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &w, nil
}

func (r *withdrawalRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Withdrawal, error) {
	return r.GetByID(ctx, id)
}

func (r *withdrawalRepo) Save(_ context.Context, w *models.Withdrawal) error {
	defer r.s.lock()()
	t := r.s.st.data
	if _, ok := t.withdrawals[w.ID]; !ok {
		return repositories.ErrNotFound
	}
	touch(nil, &w.UpdatedAt)
	t.withdrawals[w.ID] = *w
	return nil
}

func (r *withdrawalRepo) CountOpen(_ context.Context, userID uint) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, w := range r.s.st.data.withdrawals {
		if w.UserID == userID && w.Status.Open() {
			n++
		}
	}
	return n, nil
}

func (r *withdrawalRepo) List(_ context.Context, filter repositories.WithdrawalFilter) ([]models.Withdrawal, int64, error) {
	defer r.s.lock()()
	var out []models.Withdrawal
	for _, w := range sortedValues(r.s.st.data.withdrawals) {
		if filter.UserID != 0 && w.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		out = append(out, w)
	}
	byNewest(out,
		func(w models.Withdrawal) time.Time { return w.CreatedAt },
		func(w models.Withdrawal) uint { return w.ID })
	return paginate(out, filter.Limit, filter.Offset), int64(len(out)), nil
}
