package memory

import (
	"context"
	"time"

	"playarena/internal/models"
	"playarena/internal/repositories"
)

type paymentMethodRepo struct{ s *Store }

func (r *paymentMethodRepo) Upsert(_ context.Context, m *models.SavedPaymentMethod) error {
	defer r.s.lock()()
	t := r.s.st.data
	for id, existing := range t.methods {
		if existing.UserID == m.UserID && existing.Method == m.Method && existing.Identifier == m.Identifier {
			existing.BankDetails = m.BankDetails
			existing.LastUsedAt = m.LastUsedAt
			t.methods[id] = existing
			*m = existing
			return nil
		}
	}
	m.ID = t.nextID()
	touch(&m.CreatedAt, nil)
	t.methods[m.ID] = *m
	return nil
}

func (r *paymentMethodRepo) ListByUser(_ context.Context, userID uint, limit int) ([]models.SavedPaymentMethod, error) {
	defer r.s.lock()()
	var out []models.SavedPaymentMethod
	for _, m := range sortedValues(r.s.st.data.methods) {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	byNewest(out,
		func(m models.SavedPaymentMethod) time.Time { return m.LastUsedAt },
		func(m models.SavedPaymentMethod) uint { return m.ID })
	return paginate(out, limit, 0), nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, n *models.Notification) error {
	defer r.s.lock()()
	t := r.s.st.data
	n.ID = t.nextID()
	touch(&n.CreatedAt, nil)
	t.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error) {
	defer r.s.lock()()
	var out []models.Notification
	for _, n := range sortedValues(r.s.st.data.notifications) {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	byNewest(out,
		func(n models.Notification) time.Time { return n.CreatedAt },
		func(n models.Notification) uint { return n.ID })
	return paginate(out, limit, offset), int64(len(out)), nil
}

func (r *notificationRepo) MarkRead(_ context.Context, userID, id uint) error {
	defer r.s.lock()()
	t := r.s.st.data
	n, ok := t.notifications[id]
	if !ok || n.UserID != userID {
		return repositories.ErrNotFound
	}
	n.Read = true
	t.notifications[id] = n
	return nil
}

type adminLogRepo struct{ s *Store }

func (r *adminLogRepo) Create(_ context.Context, entry *models.AdminLog) error {
	defer r.s.lock()()
	t := r.s.st.data
	entry.ID = t.nextID()
	touch(&entry.CreatedAt, nil)
	t.adminLogs[entry.ID] = *entry
	return nil
}

func (r *adminLogRepo) List(_ context.Context, limit, offset int) ([]models.AdminLog, int64, error) {
	defer r.s.lock()()
	out := sortedValues(r.s.st.data.adminLogs)
	byNewest(out,
		func(l models.AdminLog) time.Time { return l.CreatedAt },
		func(l models.AdminLog) uint { return l.ID })
	return paginate(out, limit, offset), int64(len(out)), nil
}
