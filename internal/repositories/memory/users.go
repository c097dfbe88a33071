package memory

import (
	"context"

	"playarena/internal/models"
	"playarena/internal/repositories"

	"github.com/shopspring/decimal"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	defer r.s.lock()()
	t := r.s.st.data
	for _, u := range t.users {
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return repositories.ErrDuplicate
		}
	}
	user.ID = t.nextID()
	if user.Version == 0 {
		user.Version = 1
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	touch(&user.CreatedAt, &user.UpdatedAt)
	t.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	defer r.s.lock()()
	u, ok := r.s.st.data.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.st.data.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) UpdateBalance(_ context.Context, user *models.User, balance decimal.Decimal) error {
	defer r.s.lock()()
	t := r.s.st.data
	stored, ok := t.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.Version != user.Version {
		return repositories.ErrStaleVersion
	}
	stored.WalletBalance = balance
	stored.Version++
	touch(nil, &stored.UpdatedAt)
	t.users[user.ID] = stored

	user.WalletBalance = balance
	user.Version = stored.Version
	return nil
}

func (r *userRepo) UpdateFlags(_ context.Context, id uint, kycVerified, banned bool) error {
	defer r.s.lock()()
	t := r.s.st.data
	u, ok := t.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsKYCVerified = kycVerified
	u.IsBanned = banned
	touch(nil, &u.UpdatedAt)
	t.users[id] = u
	return nil
}
