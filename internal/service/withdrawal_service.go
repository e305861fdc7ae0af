package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/soundvault/earnings-backend/internal/domain/valueobject"
	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/payout"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers/intercom"
	"github.com/soundvault/earnings-backend/internal/validation"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	degradedPayoutTemplate = "degraded_payout.tmpl"
)

type WithdrawalStore interface {
	Reserve(ctx context.Context, nw models.NewWithdrawal) (*models.Withdrawal, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, externalAccountID, payoutID string) (*models.Withdrawal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.WithdrawalStatus, reason *string) (*models.Withdrawal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	GetByPayoutID(ctx context.Context, payoutID string) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
}

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

type PayoutDispatcher interface {
	Dispatch(ctx context.Context, req payout.Request) payout.Outcome
}

type SupportChat interface {
	StartConversation(ctx context.Context, contact intercom.Contact, message string) (*intercom.Conversation, error)
}

type DetailsSealer interface {
	Seal(v any) ([]byte, error)
	Open(sealed []byte, v any) error
}

type EventPublisher interface {
	Publish(userID uuid.UUID, event string, data any) error
}

type Notifier interface {
	Send(recipient string, data any, patterns ...string) error
}

type BackgroundRunner interface {
	SafeGo(fn func())
}

// SubmitResult: итог отправки формы вывода.
type SubmitResult struct {
	Withdrawal    *models.Withdrawal `json:"withdrawal,omitempty"`
	Outcome       payout.OutcomeKind `json:"outcome,omitempty"`
	ChatRequested bool               `json:"chat_requested"`
	Message       string             `json:"message"`
}

// PayoutView: заявка с расшифрованными реквизитами для ручной выплаты.
type PayoutView struct {
	*models.Withdrawal
	AccountDetails *models.AccountDetails `json:"account_details,omitempty"`
}

// degradedPayoutMail: данные шаблона письма о выплате, ушедшей в ручную обработку.
type degradedPayoutMail struct {
	WithdrawalID string
	UserID       string
	Amount       string
	Method       string
	AccountHint  string
	Reason       string
}

type WithdrawalService struct {
	store      WithdrawalStore
	profiles   ProfileReader
	dispatcher PayoutDispatcher
	chat       SupportChat
	sealer     DetailsSealer
	log        logrus.FieldLogger

	events   EventPublisher
	notifier Notifier
	opsEmail string
	runner   BackgroundRunner
}

func NewWithdrawalService(
	store WithdrawalStore,
	profiles ProfileReader,
	dispatcher PayoutDispatcher,
	chat SupportChat,
	sealer DetailsSealer,
	log logrus.FieldLogger,
) *WithdrawalService {
	return &WithdrawalService{
		store:      store,
		profiles:   profiles,
		dispatcher: dispatcher,
		chat:       chat,
		sealer:     sealer,
		log:        log,
	}
}

// SetEventPublisher подключает отправку событий по WebSocket.
func (s *WithdrawalService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// SetOpsNotifier включает письма операторам о выплатах, требующих ручной обработки.
func (s *WithdrawalService) SetOpsNotifier(notifier Notifier, recipient string, runner BackgroundRunner) {
	s.notifier = notifier
	s.opsEmail = recipient
	s.runner = runner
}

// Submit проверяет форму, резервирует сумму и отправляет выплату процессору.
// Все ошибки проверки возвращаются до любых сетевых вызовов.
func (s *WithdrawalService) Submit(ctx context.Context, userID uuid.UUID, form validation.WithdrawalForm) (*SubmitResult, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	v, err := validation.ValidateWithdrawal(form, profile.AvailableBalance)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"payment_method": v.Method,
	})

	if v.Method == valueobject.PaymentMethodCheck {
		return s.requestCheck(ctx, profile, v, log)
	}

	sealed, err := s.sealer.Seal(v.Details)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to protect account details")
	}

	w, err := s.store.Reserve(ctx, models.NewWithdrawal{
		UserID:         userID,
		Amount:         v.AmountFloat(),
		PaymentMethod:  string(v.Method),
		AccountDetails: sealed,
		AccountHint:    v.Hint,
	})
	if err != nil {
		return nil, err
	}
	log = log.WithField("withdrawal_id", w.ID)

	stripeAccountID := ""
	if profile.HasPayoutAccount() {
		stripeAccountID = *profile.StripeAccountID
	}
	holder := profile.Email
	if profile.DisplayName != nil {
		holder = *profile.DisplayName
	}

	outcome := s.dispatcher.Dispatch(ctx, payout.Request{
		WithdrawalID:    w.ID,
		Method:          v.Method,
		Amount:          v.Amount,
		StripeAccountID: stripeAccountID,
		HolderName:      holder,
		Details:         v.Details,
	})

	// Запрос клиента мог быть отменён, а сумма уже списана: финализируем без его отмены.
	fctx := context.WithoutCancel(ctx)
	result := &SubmitResult{Withdrawal: w, Outcome: outcome.Kind}

	switch outcome.Kind {
	case payout.OutcomeSucceeded:
		updated, err := s.store.MarkProcessing(fctx, w.ID, outcome.ExternalAccountID, outcome.PayoutID)
		if err != nil {
			// Выплата у процессора уже создана; заявка остаётся pending до сверки.
			log.WithError(err).WithField("payout_id", outcome.PayoutID).
				Error("payout created but withdrawal could not be marked as processing")
		} else {
			result.Withdrawal = updated
		}
		result.Message = "Your withdrawal request has been submitted and is being processed."

	case payout.OutcomeDegradedToManual:
		log.WithField("reason", outcome.Reason).Warn("withdrawal queued for manual processing")
		s.notifyOps(w, outcome.Reason)
		result.Message = "Your withdrawal request has been submitted and will be processed manually."

	case payout.OutcomeManual:
		result.Message = "Your withdrawal request has been submitted and will be processed manually."

	case payout.OutcomeRejected:
		reason := outcome.Reason
		rejected, err := s.store.UpdateStatus(fctx, w.ID, valueobject.WithdrawalStatusRejected, &reason)
		if err != nil {
			log.WithError(err).Error("failed to reject withdrawal after processor refusal")
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to record rejected withdrawal")
		}
		s.publish(rejected)
		return nil, apperror.New(apperror.ErrCodeBadRequest,
			fmt.Sprintf("payout was rejected by the processor: %s", reason))
	}

	s.publish(result.Withdrawal)
	return result, nil
}

// requestCheck открывает чат поддержки с заготовленным сообщением; заявка не создаётся.
func (s *WithdrawalService) requestCheck(ctx context.Context, profile *models.UserProfile, v *validation.ValidatedWithdrawal, log logrus.FieldLogger) (*SubmitResult, error) {
	if s.chat == nil {
		return nil, apperror.New(apperror.ErrCodeProvider, "support chat is unavailable, please contact support to request a check")
	}

	message := fmt.Sprintf("Hi, I'd like to request a check withdrawal of $%s.", v.Amount.StringFixed(2))
	_, err := s.chat.StartConversation(ctx, intercom.Contact{
		ExternalID: profile.ID.String(),
		Email:      profile.Email,
	}, message)
	if err != nil {
		log.WithError(err).Error("failed to open support chat for check withdrawal")
		return nil, apperror.Wrap(err, apperror.ErrCodeProvider, "support chat is unavailable, please contact support to request a check")
	}

	return &SubmitResult{
		ChatRequested: true,
		Message:       "We've opened a chat with our team to process your check withdrawal.",
	}, nil
}

// Get возвращает заявку пользователя; чужие заявки не видны.
func (s *WithdrawalService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, apperror.ErrWithdrawalNotFound
	}
	return w, nil
}

// GetForPayout возвращает заявку с реквизитами получателя для оператора.
// Каждое раскрытие реквизитов пишется в лог.
func (s *WithdrawalService) GetForPayout(ctx context.Context, adminID, id uuid.UUID) (*PayoutView, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &PayoutView{Withdrawal: w}
	if len(w.AccountDetails) > 0 {
		var details models.AccountDetails
		if err := s.sealer.Open(w.AccountDetails, &details); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "cannot read account details")
		}
		view.AccountDetails = &details
	}

	s.log.WithFields(logrus.Fields{
		"withdrawal_id": id,
		"admin_id":      adminID,
	}).Info("withdrawal account details disclosed")
	return view, nil
}

func (s *WithdrawalService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListByUser(ctx, userID, limit, offset)
}

// UpdateStatus меняет статус заявки (администратор или вебхук процессора).
func (s *WithdrawalService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) (*models.Withdrawal, error) {
	st, err := valueobject.NewWithdrawalStatus(status)
	if err != nil {
		return nil, err
	}

	w, err := s.store.UpdateStatus(ctx, id, st, reason)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"withdrawal_id": id,
		"status":        st,
	}).Info("withdrawal status updated")

	s.publish(w)
	return w, nil
}

// ApplyPayoutEvent применяет итог выплаты из вебхука процессора.
// Повторные события игнорируются. Для выплаты без заявки возвращается
// apperror.ErrPayoutNotLinked: идентификатор выплаты записывается только после
// ответа Stripe, и событие может прийти раньше.
func (s *WithdrawalService) ApplyPayoutEvent(ctx context.Context, payoutID string, status valueobject.WithdrawalStatus, reason *string) error {
	log := s.log.WithFields(logrus.Fields{"payout_id": payoutID, "status": status})

	w, err := s.store.GetByPayoutID(ctx, payoutID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.ErrPayoutNotLinked
		}
		return err
	}
	if valueobject.WithdrawalStatus(w.Status) == status {
		return nil
	}

	_, err = s.UpdateStatus(ctx, w.ID, string(status), reason)
	if apperror.IsConflict(err) {
		log.WithField("current_status", w.Status).Warn("payout event does not apply to withdrawal state")
		return nil
	}
	return err
}

func (s *WithdrawalService) publish(w *models.Withdrawal) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(w.UserID, models.EventWithdrawalUpdated, w); err != nil {
		s.log.WithError(err).WithField("withdrawal_id", w.ID).Warn("failed to publish withdrawal event")
	}
}

func (s *WithdrawalService) notifyOps(w *models.Withdrawal, reason string) {
	if s.notifier == nil || s.opsEmail == "" || s.runner == nil {
		return
	}

	amount, _ := valueobject.NewMoney(w.Amount, "")
	data := degradedPayoutMail{
		WithdrawalID: w.ID.String(),
		UserID:       w.UserID.String(),
		Amount:       amount.String(),
		Method:       w.PaymentMethod,
		AccountHint:  w.AccountHint,
		Reason:       reason,
	}

	s.runner.SafeGo(func() {
		if err := s.notifier.Send(s.opsEmail, data, degradedPayoutTemplate); err != nil {
			s.log.WithError(err).WithField("withdrawal_id", data.WithdrawalID).Error("failed to send manual payout notification")
		}
	})
}
