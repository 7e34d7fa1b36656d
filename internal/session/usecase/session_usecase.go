package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/astroeyes/authcore/internal/database"
	apperrors "github.com/astroeyes/authcore/internal/errors"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
	sessionService "github.com/astroeyes/authcore/internal/session/service"
)

// Policy holds the lifetime rules applied when minting and refreshing credentials.
type Policy struct {
	TTL              time.Duration
	RenewalThreshold time.Duration
}

// DefaultPolicy returns the 7 day lifetime with a 1 day renewal threshold.
func DefaultPolicy() Policy {
	return Policy{
		TTL:              sessionDomain.DefaultTTL,
		RenewalThreshold: sessionDomain.DefaultRenewalThreshold,
	}
}

// sessionUseCase implements SessionUseCase.
type sessionUseCase struct {
	policy    Policy
	txManager database.TxManager
	tokenRepo TokenRepository
	codec     sessionService.CredentialCodec
	locker    sessionService.DeviceLocker
	logger    *slog.Logger
	now       func() time.Time
}

// Login issues or reuses the credential of a device.
//
// This method:
// 1. Locks the (subject, device) pair
// 2. Returns the device's record unchanged when it is still live
// 3. Deletes an expired record and mints a replacement in the same transaction
// 4. Mints a new credential when no record exists
//
// A conflicting insert means another process won the race for the device; the
// winner's record is looked up again outside the failed transaction and
// returned as reused.
func (s *sessionUseCase) Login(
	ctx context.Context,
	input *sessionDomain.LoginInput,
) (*sessionDomain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, input.SubjectID, input.DeviceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var session *sessionDomain.Session
	err = s.withTx(ctx, func(ctx context.Context) error {
		now := s.now()

		record, err := s.tokenRepo.Find(ctx, input.SubjectID, input.DeviceID)
		switch {
		case errors.Is(err, sessionDomain.ErrTokenNotFound):
			record, err = s.mint(ctx, input.SubjectID, input.DeviceID, now, nil)
			if err != nil {
				return err
			}
			session = &sessionDomain.Session{Record: record, Outcome: sessionDomain.OutcomeIssued}
			return nil
		case err != nil:
			return err
		}

		if !record.IsExpired(now) {
			session = &sessionDomain.Session{Record: record, Outcome: sessionDomain.OutcomeReused}
			return nil
		}

		if err := s.tokenRepo.Delete(ctx, record.ID); err != nil {
			return err
		}
		record, err = s.mint(ctx, input.SubjectID, input.DeviceID, now, nil)
		if err != nil {
			return err
		}
		session = &sessionDomain.Session{Record: record, Outcome: sessionDomain.OutcomeRotated}
		return nil
	})
	if errors.Is(err, sessionDomain.ErrTokenConflict) {
		return s.reuseAfterConflict(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("login",
		slog.String("subject_id", input.SubjectID.String()),
		slog.String("device_id", input.DeviceID),
		slog.String("outcome", string(session.Outcome)),
	)
	return session, nil
}

func (s *sessionUseCase) reuseAfterConflict(
	ctx context.Context,
	input *sessionDomain.LoginInput,
) (*sessionDomain.Session, error) {
	record, err := s.tokenRepo.Find(ctx, input.SubjectID, input.DeviceID)
	if err != nil {
		if errors.Is(err, sessionDomain.ErrTokenNotFound) {
			return nil, sessionDomain.ErrTokenConflict
		}
		return nil, err
	}
	if record.IsExpired(s.now()) {
		return nil, sessionDomain.ErrTokenConflict
	}
	return &sessionDomain.Session{Record: record, Outcome: sessionDomain.OutcomeReused}, nil
}

// Refresh renews a credential when it is close to expiry.
//
// This method:
// 1. Finds the record holding the credential for the device
// 2. Reaps it and fails with ErrExpired when it has expired
// 3. Returns it unchanged while more than the renewal threshold remains
// 4. Decodes the credential and checks its device claim
// 5. Deletes the record and mints a replacement in one transaction
//
// The replacement carries the old record id as its parent.
func (s *sessionUseCase) Refresh(
	ctx context.Context,
	input *sessionDomain.RefreshInput,
) (*sessionDomain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	record, err := s.findForDevice(ctx, input.Token, input.DeviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if record.IsExpired(now) {
		if err := s.ReapStale(ctx, record); err != nil {
			return nil, err
		}
		return nil, sessionDomain.ErrExpired
	}

	if !record.NeedsRenewal(now, s.policy.RenewalThreshold) {
		return &sessionDomain.Session{Record: record, Outcome: sessionDomain.OutcomeUnchanged}, nil
	}

	claims, err := s.codec.Decode(input.Token, now)
	if err != nil {
		return nil, err
	}
	// findForDevice already rejected other devices; a differing claim means
	// the stored record and its credential disagree.
	if claims.DeviceID != input.DeviceID {
		s.logger.Warn("refresh with credential bound to another device",
			slog.String("subject_id", claims.SubjectID.String()),
			slog.String("claimed_device_id", claims.DeviceID),
			slog.String("device_id", input.DeviceID),
		)
		return nil, sessionDomain.ErrDeviceMismatch
	}
	if claims.SubjectID != record.SubjectID {
		return nil, sessionDomain.ErrNotLive
	}

	unlock, err := s.locker.Lock(ctx, record.SubjectID, record.DeviceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var replacement *sessionDomain.TokenRecord
	err = s.withTx(ctx, func(ctx context.Context) error {
		current, err := s.tokenRepo.FindByValue(ctx, input.Token)
		if err != nil {
			return err
		}
		if err := s.tokenRepo.Delete(ctx, current.ID); err != nil {
			return err
		}
		replacement, err = s.mint(ctx, current.SubjectID, current.DeviceID, s.now(), &current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("credential rotated",
		slog.String("subject_id", replacement.SubjectID.String()),
		slog.String("device_id", replacement.DeviceID),
		slog.String("parent_id", record.ID.String()),
	)
	return &sessionDomain.Session{Record: replacement, Outcome: sessionDomain.OutcomeRotated}, nil
}

// Revoke deletes the record holding the credential for the device.
func (s *sessionUseCase) Revoke(ctx context.Context, input *sessionDomain.RevokeInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	record, err := s.findForDevice(ctx, input.Token, input.DeviceID)
	if err != nil {
		return err
	}
	return s.tokenRepo.Delete(ctx, record.ID)
}

// RevokeAll deletes every record of the subject.
func (s *sessionUseCase) RevokeAll(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	if subjectID == uuid.Nil {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "subject id is required")
	}
	return s.tokenRepo.DeleteBySubject(ctx, subjectID)
}

// CleanupExpired deletes records that expired more than days ago.
func (s *sessionUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be greater than or equal to 0")
	}
	before := s.now().AddDate(0, 0, -days)
	return s.tokenRepo.DeleteExpired(ctx, before, dryRun)
}

// ReapStale deletes an expired record. Live records are left alone.
func (s *sessionUseCase) ReapStale(ctx context.Context, record *sessionDomain.TokenRecord) error {
	if !record.IsExpired(s.now()) {
		return nil
	}
	if err := s.tokenRepo.Delete(ctx, record.ID); err != nil {
		return err
	}
	s.logger.Debug("reaped expired record",
		slog.String("record_id", record.ID.String()),
		slog.String("device_id", record.DeviceID),
	)
	return nil
}

// withTx runs fn in a transaction. A transaction that could not be opened or
// committed is reported as ErrStoreUnavailable.
func (s *sessionUseCase) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.txManager.WithTx(ctx, fn)
	if errors.Is(err, apperrors.ErrUnavailable) && !errors.Is(err, sessionDomain.ErrStoreUnavailable) {
		return apperrors.Join(sessionDomain.ErrStoreUnavailable, err)
	}
	return err
}

// findForDevice looks a credential up by value and hides records held by
// another device behind ErrTokenNotFound.
func (s *sessionUseCase) findForDevice(
	ctx context.Context,
	token, deviceID string,
) (*sessionDomain.TokenRecord, error) {
	record, err := s.tokenRepo.FindByValue(ctx, token)
	if err != nil {
		return nil, err
	}
	if record.DeviceID != deviceID {
		return nil, sessionDomain.ErrTokenNotFound
	}
	return record, nil
}

// mint encodes a credential issued at now and persists its record.
func (s *sessionUseCase) mint(
	ctx context.Context,
	subjectID uuid.UUID,
	deviceID string,
	now time.Time,
	parentID *uuid.UUID,
) (*sessionDomain.TokenRecord, error) {
	issuedAt := now.UTC().Truncate(time.Second)

	token, err := s.codec.Encode(subjectID, deviceID, issuedAt, s.policy.TTL, parentID)
	if err != nil {
		return nil, err
	}

	record := &sessionDomain.TokenRecord{
		ID:         uuid.Must(uuid.NewV7()),
		SubjectID:  subjectID,
		DeviceID:   deviceID,
		TokenValue: token,
		CreatedAt:  issuedAt,
		ExpiresAt:  issuedAt.Add(s.policy.TTL),
	}
	if err := s.tokenRepo.Insert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// NewSessionUseCase creates a new SessionUseCase with the provided dependencies.
func NewSessionUseCase(
	policy Policy,
	txManager database.TxManager,
	tokenRepo TokenRepository,
	codec sessionService.CredentialCodec,
	locker sessionService.DeviceLocker,
	logger *slog.Logger,
) SessionUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &sessionUseCase{
		policy:    policy,
		txManager: txManager,
		tokenRepo: tokenRepo,
		codec:     codec,
		locker:    locker,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
