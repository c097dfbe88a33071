// Package withdrawal runs the payout request workflow: eligibility, the
// wallet hold, and the admin approve/complete/reject transitions.
package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "playarena/internal/errors"
	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/services/audit"
	"playarena/internal/services/ledger"
	"playarena/internal/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store    repositories.Store
	ledger   ledger.Service
	notifier notification.Notifier
	audit    audit.Recorder
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	store repositories.Store,
	ledgerSvc ledger.Service,
	notifier notification.Notifier,
	recorder audit.Recorder,
	cfg Config,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger is required")
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = 1
	}
	if cfg.PaymentMethodLimit <= 0 {
		cfg.PaymentMethodLimit = 5
	}
	if cfg.TDS == nil {
		cfg.TDS = FlatTDS{}
	}

	s := &Service{
		store:    store,
		ledger:   ledgerSvc,
		notifier: notifier,
		audit:    recorder,
		cfg:      cfg,
		log:      logger.OrNop(log).Named("withdrawal"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// gate returns the first eligibility rule the user fails, in the order
// KYC, open requests, ban.
func (s *Service) gate(user *models.User, open int64) error {
	if !user.IsKYCVerified {
		return apperrors.ErrKYCRequired
	}
	if open >= int64(s.cfg.MaxOpen) {
		return apperrors.ErrTooManyOpen
	}
	if user.IsBanned {
		return apperrors.ErrAccountBanned
	}
	return nil
}

func (s *Service) CheckEligibility(ctx context.Context, userID uint) (*Eligibility, error) {
	user, err := s.loadUser(ctx, s.store, userID, false)
	if err != nil {
		return nil, err
	}
	open, err := s.store.Withdrawals().CountOpen(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count open withdrawals: %w", err)
	}

	out := &Eligibility{
		Eligible:     true,
		OpenRequests: open,
		Balance:      user.WalletBalance,
		Minimum:      s.cfg.Minimum,
	}
	if err := s.gate(user, open); err != nil {
		de, _ := apperrors.As(err)
		out.Eligible = false
		out.Reason = de.Message
		out.Code = de.Code
	}
	return out, nil
}

// CreateRequest places a hold on the gross amount and queues the request.
func (s *Service) CreateRequest(ctx context.Context, userID uint, req Request) (*models.Withdrawal, error) {
	user, err := s.loadUser(ctx, s.store, userID, false)
	if err != nil {
		return nil, err
	}
	open, err := s.store.Withdrawals().CountOpen(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count open withdrawals: %w", err)
	}
	if err := s.gate(user, open); err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if req.Amount.LessThan(s.cfg.Minimum) {
		return nil, apperrors.Validation("minimum withdrawal amount is " + s.cfg.Minimum.StringFixed(2))
	}
	if err := s.resolveMethod(ctx, userID, &req); err != nil {
		return nil, err
	}
	if user.WalletBalance.LessThan(req.Amount) {
		return nil, apperrors.ErrInsufficientBalance
	}

	amount := req.Amount.Round(2)
	tds := s.cfg.TDS.Withhold(amount)
	w := &models.Withdrawal{
		Reference:   "WD-" + uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		TDS:         tds,
		NetAmount:   amount.Sub(tds),
		Method:      req.Method,
		UPIID:       req.UPIID,
		BankDetails: req.BankDetails,
		Status:      models.WithdrawalPending,
	}

	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		locked, err := s.loadUser(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		open, err := tx.Withdrawals().CountOpen(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count open withdrawals: %w", err)
		}
		if err := s.gate(locked, open); err != nil {
			return err
		}
		if locked.WalletBalance.LessThan(amount) {
			return apperrors.ErrInsufficientBalance
		}

		w.WalletBalanceAtRequest = locked.WalletBalance
		if err := tx.Withdrawals().Create(ctx, w); err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}
		hold, err := s.ledger.Debit(ctx, tx, ledger.Entry{
			UserID:      userID,
			Amount:      amount,
			Category:    models.CategoryWithdrawal,
			Description: "Withdrawal " + w.Reference,
			Reference:   withdrawalRef(w.ID),
			Status:      models.TransactionPending,
		})
		if err != nil {
			return err
		}
		w.HoldTransactionID = &hold.ID
		if err := tx.Withdrawals().Save(ctx, w); err != nil {
			return fmt.Errorf("failed to link hold: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal requested",
		zap.Uint("withdrawal_id", w.ID),
		zap.Uint("user_id", userID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("tds", tds.StringFixed(2)))

	if req.SavePaymentMethod {
		s.saveMethod(ctx, w)
	}
	s.notify(ctx, w, "Withdrawal requested",
		fmt.Sprintf("Your withdrawal of %s is pending review", amount.StringFixed(2)))
	return w, nil
}

// resolveMethod fills payout details from a saved method when one is given
// and validates the result.
func (s *Service) resolveMethod(ctx context.Context, userID uint, req *Request) error {
	if req.SavedPaymentMethodID != 0 {
		methods, err := s.store.PaymentMethods().ListByUser(ctx, userID, 0)
		if err != nil {
			return fmt.Errorf("failed to load payment methods: %w", err)
		}
		var saved *models.SavedPaymentMethod
		for i := range methods {
			if methods[i].ID == req.SavedPaymentMethodID {
				saved = &methods[i]
				break
			}
		}
		if saved == nil {
			return ErrPaymentMethodNotFound
		}
		req.Method = saved.Method
		switch saved.Method {
		case models.PayoutUPI:
			req.UPIID = saved.Identifier
		case models.PayoutBank:
			req.BankDetails = saved.BankDetails
		}
	}

	req.UPIID = strings.TrimSpace(req.UPIID)
	switch req.Method {
	case models.PayoutUPI:
		if req.UPIID == "" {
			return ErrUPIRequired
		}
		req.BankDetails = models.BankDetails{}
	case models.PayoutBank:
		b := req.BankDetails
		if strings.TrimSpace(b.AccountHolder) == "" || strings.TrimSpace(b.AccountNumber) == "" || strings.TrimSpace(b.IFSC) == "" {
			return ErrBankRequired
		}
		req.UPIID = ""
	default:
		return ErrUnknownMethod
	}
	return nil
}

func (s *Service) saveMethod(ctx context.Context, w *models.Withdrawal) {
	identifier := w.UPIID
	if w.Method == models.PayoutBank {
		identifier = w.BankDetails.AccountNumber
	}
	err := s.store.PaymentMethods().Upsert(ctx, &models.SavedPaymentMethod{
		UserID:      w.UserID,
		Method:      w.Method,
		Identifier:  identifier,
		BankDetails: w.BankDetails,
		LastUsedAt:  s.now(),
	})
	if err != nil {
		s.log.Warn("failed to save payment method", zap.Uint("user_id", w.UserID), zap.Error(err))
	}
}

// Cancel lets the owner withdraw a pending request and releases the hold.
func (s *Service) Cancel(ctx context.Context, withdrawalID, userID uint) (*models.Withdrawal, error) {
	w, err := s.transition(ctx, withdrawalID, func(tx repositories.Store, w *models.Withdrawal) error {
		if w.UserID != userID {
			return ErrNotOwner
		}
		if w.Status != models.WithdrawalPending {
			return ErrNotCancellable
		}
		if err := s.releaseHold(ctx, tx, w, "Withdrawal "+w.Reference+" cancelled"); err != nil {
			return err
		}
		now := s.now()
		w.Status = models.WithdrawalCancelled
		w.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("withdrawal cancelled", zap.Uint("withdrawal_id", w.ID), zap.Uint("user_id", userID))
	return w, nil
}

func (s *Service) Approve(ctx context.Context, withdrawalID, adminID uint, notes string) (*models.Withdrawal, error) {
	w, err := s.transition(ctx, withdrawalID, func(_ repositories.Store, w *models.Withdrawal) error {
		if w.Status != models.WithdrawalPending {
			return invalidTransition(w.Status, "approve")
		}
		now := s.now()
		w.Status = models.WithdrawalApproved
		w.AdminNotes = strings.TrimSpace(notes)
		w.ProcessedBy = &adminID
		w.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, audit.ActionWithdrawalApprove, w, "approved "+w.Amount.StringFixed(2))
	s.notify(ctx, w, "Withdrawal approved", "Your withdrawal has been approved and will be paid out shortly")
	return w, nil
}

// Complete marks the payout as sent and settles the hold.
func (s *Service) Complete(ctx context.Context, withdrawalID, adminID uint, externalRef string) (*models.Withdrawal, error) {
	externalRef = strings.TrimSpace(externalRef)
	if externalRef == "" {
		return nil, ErrExternalRefRequired
	}
	w, err := s.transition(ctx, withdrawalID, func(tx repositories.Store, w *models.Withdrawal) error {
		if w.Status != models.WithdrawalApproved {
			return invalidTransition(w.Status, "complete")
		}
		if w.HoldTransactionID != nil {
			if _, err := s.ledger.Settle(ctx, tx, *w.HoldTransactionID); err != nil {
				return err
			}
		}
		now := s.now()
		w.Status = models.WithdrawalCompleted
		w.ExternalRef = externalRef
		w.ProcessedBy = &adminID
		w.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, audit.ActionWithdrawalComplete, w, "paid out, ref "+externalRef)
	s.notify(ctx, w, "Withdrawal completed",
		fmt.Sprintf("%s has been sent to your account", w.NetAmount.StringFixed(2)))
	return w, nil
}

// Reject returns the full gross amount to the wallet.
func (s *Service) Reject(ctx context.Context, withdrawalID, adminID uint, reason string) (*models.Withdrawal, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	w, err := s.transition(ctx, withdrawalID, func(tx repositories.Store, w *models.Withdrawal) error {
		if !w.Status.Open() {
			return invalidTransition(w.Status, "reject")
		}
		if err := s.releaseHold(ctx, tx, w, "Withdrawal "+w.Reference+" rejected: "+reason); err != nil {
			return err
		}
		now := s.now()
		w.Status = models.WithdrawalRejected
		w.RejectionReason = reason
		w.ProcessedBy = &adminID
		w.RejectedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, audit.ActionWithdrawalReject, w, "rejected: "+reason)
	s.notify(ctx, w, "Withdrawal rejected",
		fmt.Sprintf("Your withdrawal was rejected (%s). %s has been returned to your wallet", reason, w.Amount.StringFixed(2)))
	return w, nil
}

func (s *Service) releaseHold(ctx context.Context, tx repositories.Store, w *models.Withdrawal, reason string) error {
	if w.HoldTransactionID == nil {
		return nil
	}
	refund, err := s.ledger.Reverse(ctx, tx, *w.HoldTransactionID, reason)
	if err != nil {
		return err
	}
	w.RefundTransactionID = &refund.ID
	return nil
}

func (s *Service) transition(ctx context.Context, withdrawalID uint, fn func(tx repositories.Store, w *models.Withdrawal) error) (*models.Withdrawal, error) {
	var out *models.Withdrawal
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		w, err := tx.Withdrawals().GetByIDForUpdate(ctx, withdrawalID)
		if err != nil {
			return notFound(err)
		}
		if err := fn(tx, w); err != nil {
			return err
		}
		if err := tx.Withdrawals().Save(ctx, w); err != nil {
			return fmt.Errorf("failed to save withdrawal: %w", err)
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, withdrawalID uint) (*models.Withdrawal, error) {
	w, err := s.store.Withdrawals().GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

// GetForUser hides other users' requests.
func (s *Service) GetForUser(ctx context.Context, withdrawalID, userID uint) (*models.Withdrawal, error) {
	w, err := s.Get(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrWithdrawalNotFound
	}
	return w, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Withdrawal, int64, error) {
	return s.list(ctx, repositories.WithdrawalFilter{UserID: userID, Limit: limit, Offset: offset})
}

// ListByStatus is the admin queue; an empty status lists everything.
func (s *Service) ListByStatus(ctx context.Context, status models.WithdrawalStatus, limit, offset int) ([]models.Withdrawal, int64, error) {
	return s.list(ctx, repositories.WithdrawalFilter{Status: status, Limit: limit, Offset: offset})
}

func (s *Service) list(ctx context.Context, filter repositories.WithdrawalFilter) ([]models.Withdrawal, int64, error) {
	out, total, err := s.store.Withdrawals().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return out, total, nil
}

// PaymentMethods returns the user's most recently used payout methods.
func (s *Service) PaymentMethods(ctx context.Context, userID uint) ([]models.SavedPaymentMethod, error) {
	methods, err := s.store.PaymentMethods().ListByUser(ctx, userID, s.cfg.PaymentMethodLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment methods: %w", err)
	}
	return methods, nil
}

func (s *Service) loadUser(ctx context.Context, st repositories.Store, userID uint, lock bool) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if lock {
		user, err = st.Users().GetByIDForUpdate(ctx, userID)
	} else {
		user, err = st.Users().GetByID(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ledger.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *Service) notify(ctx context.Context, w *models.Withdrawal, title, message string) {
	s.notifier.Notify(ctx, notification.Notice{
		UserID:  w.UserID,
		Type:    models.NotificationWithdrawalUpdate,
		Title:   title,
		Message: message,
		RefType: models.RefWithdrawal,
		RefID:   fmt.Sprint(w.ID),
	})
}

func (s *Service) record(ctx context.Context, adminID uint, action string, w *models.Withdrawal, description string) {
	s.audit.Record(ctx, audit.Entry{
		AdminID:     adminID,
		Action:      action,
		TargetType:  models.RefWithdrawal,
		TargetID:    fmt.Sprint(w.ID),
		Description: description,
	})
}

func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrWithdrawalNotFound
	}
	return fmt.Errorf("failed to load withdrawal: %w", err)
}

func withdrawalRef(id uint) models.Reference {
	return models.Reference{Type: models.RefWithdrawal, ID: fmt.Sprint(id)}
}
