package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/google/uuid"

	"pazargate/internal/apperr"
	"pazargate/internal/config"
	"pazargate/internal/models"
	"pazargate/pkg/logger"
)

// SecurityStore is the persistence surface PinAuth needs
type SecurityStore interface {
	GetByPhone(ctx context.Context, phone string) (*models.PinRecord, error)
	Upsert(ctx context.Context, record *models.PinRecord) error
	Save(ctx context.Context, record *models.PinRecord) error
	DeleteOrphans(ctx context.Context, phone string, keepUserID uuid.UUID) error
	AppendAttempt(ctx context.Context, attempt *models.PinAttempt) error
}

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// IsPinShaped reports whether the text looks like a PIN entry
func IsPinShaped(text string) bool {
	return pinPattern.MatchString(text)
}

// VerifyOutcome tags the result of a PIN verification
type VerifyOutcome int

const (
	VerifySuccess VerifyOutcome = iota
	VerifyInvalid
	VerifyLocked
	VerifyNotRegistered
)

// VerifyResult is the sum-typed result of Verify
type VerifyResult struct {
	Outcome      VerifyOutcome
	UserID       uuid.UUID
	Remaining    int
	BlockedUntil time.Time
}

// PinAuthService hashes, verifies and rate-limits PIN attempts.
// Hashes are hex-encoded SHA-256 and compared in constant time.
type PinAuthService struct {
	store  SecurityStore
	cfg    config.PinConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewPinAuthService creates a new PIN auth service
func NewPinAuthService(store SecurityStore, cfg config.PinConfig, log *logger.Logger) *PinAuthService {
	return &PinAuthService{
		store:  store,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// HashPin returns the hex-encoded SHA-256 of a raw PIN
func HashPin(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Register stores (or replaces) the PIN for a profile. The caller must
// be the owner of the target profile. Stale rows claiming the same
// phone for another user are removed first.
func (s *PinAuthService) Register(ctx context.Context, callerID, userID uuid.UUID, phone, pinRaw string) error {
	const op = "pin_auth.register"

	if callerID != userID {
		return apperr.E(apperr.KindUnauthorized, op, "caller does not own profile", nil)
	}
	if !IsPinShaped(pinRaw) {
		return apperr.E(apperr.KindValidation, op, "PIN must be 4-6 digits", nil)
	}
	if phone == "" {
		return apperr.E(apperr.KindValidation, op, "phone is required", nil)
	}

	if err := s.store.DeleteOrphans(ctx, phone, userID); err != nil {
		return err
	}

	record := &models.PinRecord{
		UserID:  userID,
		Phone:   phone,
		PinHash: HashPin(pinRaw),
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return err
	}

	s.logger.Info("PIN registered for user %s", userID)
	return nil
}

// Verify checks a raw PIN against the stored hash for the phone and
// maintains the brute-force state. Every decision (except a still
// active lock) appends a row to the audit trail.
func (s *PinAuthService) Verify(ctx context.Context, phone, pinRaw, source string) (VerifyResult, error) {
	now := s.now().UTC()

	record, err := s.store.GetByPhone(ctx, phone)
	if err != nil {
		return VerifyResult{}, err
	}

	if record == nil {
		s.audit(ctx, phone, false, source)
		return VerifyResult{Outcome: VerifyNotRegistered}, nil
	}

	// An unexpired lock rejects without consuming an attempt
	if record.LockActive(now) {
		return VerifyResult{Outcome: VerifyLocked, BlockedUntil: *record.BlockedUntil}, nil
	}

	// Expired lock clears before the candidate is checked
	if record.IsLocked {
		record.ClearLock()
	}

	candidate := HashPin(pinRaw)
	match := subtle.ConstantTimeCompare([]byte(candidate), []byte(record.PinHash)) == 1

	if match {
		record.MarkLogin(now)
		if err := s.store.Save(ctx, record); err != nil {
			return VerifyResult{}, err
		}
		s.audit(ctx, phone, true, source)
		return VerifyResult{Outcome: VerifySuccess, UserID: record.UserID}, nil
	}

	record.FailedAttempts++
	locked := record.FailedAttempts >= s.cfg.MaxFailed
	if locked {
		record.Lock(now.Add(s.cfg.LockDuration))
	}
	if err := s.store.Save(ctx, record); err != nil {
		return VerifyResult{}, err
	}
	s.audit(ctx, phone, false, source)

	if locked {
		s.logger.Warn("PIN locked for phone %s until %s", phone, record.BlockedUntil)
		return VerifyResult{Outcome: VerifyLocked, BlockedUntil: *record.BlockedUntil}, nil
	}

	return VerifyResult{
		Outcome:   VerifyInvalid,
		Remaining: s.cfg.MaxFailed - record.FailedAttempts,
	}, nil
}

// audit appends to the attempt trail; failures are logged, not surfaced
func (s *PinAuthService) audit(ctx context.Context, phone string, success bool, source string) {
	if source == "" {
		source = "whatsapp"
	}
	attempt := &models.PinAttempt{
		Phone:       phone,
		AttemptedAt: s.now().UTC(),
		Success:     success,
		Source:      source,
	}
	if err := s.store.AppendAttempt(ctx, attempt); err != nil {
		s.logger.Error("failed to append pin attempt for %s: %v", phone, err)
	}
}
