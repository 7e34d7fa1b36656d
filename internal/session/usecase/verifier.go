package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
	sessionService "github.com/astroeyes/authcore/internal/session/service"
)

// verifier implements Verifier. It only reads the store; expired records are
// handed to the reaper.
type verifier struct {
	codec     sessionService.CredentialCodec
	tokenRepo TokenRepository
	reaper    StaleRecordReaper
	logger    *slog.Logger
	now       func() time.Time
}

// Verify checks a credential in two phases.
//
// This method:
// 1. Decodes the credential, failing without store access on any codec error
// 2. Loads the record by credential value or by the claimed device
// 3. Reaps the record and fails with ErrNotLive when it has expired
// 4. Requires the record to match the claimed subject and device
func (v *verifier) Verify(
	ctx context.Context,
	token string,
	mode sessionDomain.LookupMode,
) (*sessionDomain.Claims, error) {
	now := v.now()

	claims, err := v.codec.Decode(token, now)
	if err != nil {
		if errors.Is(err, sessionDomain.ErrSignatureInvalid) {
			v.logger.Warn("credential signature rejected", slog.Any("error", err))
		}
		return nil, err
	}

	record, err := v.lookup(ctx, token, claims, mode)
	if err != nil {
		if errors.Is(err, sessionDomain.ErrTokenNotFound) {
			return nil, sessionDomain.ErrNotLive
		}
		return nil, err
	}

	if record.IsExpired(now) {
		if err := v.reaper.ReapStale(ctx, record); err != nil {
			v.logger.Warn("failed to reap expired record",
				slog.String("record_id", record.ID.String()),
				slog.Any("error", err),
			)
		}
		return nil, sessionDomain.ErrNotLive
	}

	if record.DeviceID != claims.DeviceID {
		v.logger.Warn("credential presented for another device",
			slog.String("subject_id", claims.SubjectID.String()),
			slog.String("claimed_device_id", claims.DeviceID),
			slog.String("record_device_id", record.DeviceID),
		)
		return nil, sessionDomain.ErrDeviceMismatch
	}
	if record.SubjectID != claims.SubjectID {
		return nil, sessionDomain.ErrNotLive
	}

	return claims, nil
}

func (v *verifier) lookup(
	ctx context.Context,
	token string,
	claims *sessionDomain.Claims,
	mode sessionDomain.LookupMode,
) (*sessionDomain.TokenRecord, error) {
	if mode != sessionDomain.LookupByDevice {
		return v.tokenRepo.FindByValue(ctx, token)
	}

	record, err := v.tokenRepo.Find(ctx, claims.SubjectID, claims.DeviceID)
	if err != nil {
		return nil, err
	}
	// The device may already hold a newer credential.
	if record.TokenValue != token {
		return nil, sessionDomain.ErrTokenNotFound
	}
	return record, nil
}

// NewVerifier creates a Verifier reading from tokenRepo and reaping through reaper.
func NewVerifier(
	codec sessionService.CredentialCodec,
	tokenRepo TokenRepository,
	reaper StaleRecordReaper,
	logger *slog.Logger,
) Verifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &verifier{
		codec:     codec,
		tokenRepo: tokenRepo,
		reaper:    reaper,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
