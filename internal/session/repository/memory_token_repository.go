package repository

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

type memoryTxKey struct {
	repo *MemoryTokenRepository
}

type deviceKey struct {
	subjectID uuid.UUID
	deviceID  string
}

// MemoryTokenRepository keeps records in process memory with the same unique
// constraints as the SQL schema. It also implements database.TxManager: WithTx
// holds the store exclusively and restores the previous state when fn fails.
type MemoryTokenRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]sessionDomain.TokenRecord
	byDevice map[deviceKey]uuid.UUID
	byValue  map[string]uuid.UUID
}

// NewMemoryTokenRepository creates an empty in-memory token repository.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{
		byID:     make(map[uuid.UUID]sessionDomain.TokenRecord),
		byDevice: make(map[deviceKey]uuid.UUID),
		byValue:  make(map[string]uuid.UUID),
	}
}

// WithTx runs fn with exclusive access to the store.
func (r *MemoryTokenRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.inTx(ctx) {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byID := maps.Clone(r.byID)
	byDevice := maps.Clone(r.byDevice)
	byValue := maps.Clone(r.byValue)

	err := fn(context.WithValue(ctx, memoryTxKey{repo: r}, true))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		r.byID, r.byDevice, r.byValue = byID, byDevice, byValue
		return err
	}
	return nil
}

func (r *MemoryTokenRepository) inTx(ctx context.Context) bool {
	held, _ := ctx.Value(memoryTxKey{repo: r}).(bool)
	return held
}

func (r *MemoryTokenRepository) read(ctx context.Context) func() {
	if r.inTx(ctx) {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

func (r *MemoryTokenRepository) write(ctx context.Context) func() {
	if r.inTx(ctx) {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// Find retrieves the record of a subject's device. Returns ErrTokenNotFound if none exists.
func (r *MemoryTokenRepository) Find(
	ctx context.Context,
	subjectID uuid.UUID,
	deviceID string,
) (*sessionDomain.TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.read(ctx)()

	id, ok := r.byDevice[deviceKey{subjectID: subjectID, deviceID: deviceID}]
	if !ok {
		return nil, sessionDomain.ErrTokenNotFound
	}
	record := r.byID[id]
	return &record, nil
}

// FindByValue retrieves the record holding exactly tokenValue.
func (r *MemoryTokenRepository) FindByValue(ctx context.Context, tokenValue string) (*sessionDomain.TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.read(ctx)()

	id, ok := r.byValue[tokenValue]
	if !ok {
		return nil, sessionDomain.ErrTokenNotFound
	}
	record := r.byID[id]
	return &record, nil
}

// Insert stores a copy of record. Returns ErrTokenConflict when the id, the
// device or the value already has a record.
func (r *MemoryTokenRepository) Insert(ctx context.Context, record *sessionDomain.TokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.write(ctx)()

	key := deviceKey{subjectID: record.SubjectID, deviceID: record.DeviceID}
	if _, ok := r.byID[record.ID]; ok {
		return sessionDomain.ErrTokenConflict
	}
	if _, ok := r.byDevice[key]; ok {
		return sessionDomain.ErrTokenConflict
	}
	if _, ok := r.byValue[record.TokenValue]; ok {
		return sessionDomain.ErrTokenConflict
	}

	r.byID[record.ID] = *record
	r.byDevice[key] = record.ID
	r.byValue[record.TokenValue] = record.ID
	return nil
}

// Delete removes a record by id. Deleting a missing record is not an error.
func (r *MemoryTokenRepository) Delete(ctx context.Context, recordID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.write(ctx)()

	r.remove(recordID)
	return nil
}

// DeleteBySubject removes every record of a subject and returns how many were removed.
func (r *MemoryTokenRepository) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.write(ctx)()

	var count int64
	for id, record := range r.byID {
		if record.SubjectID == subjectID {
			r.remove(id)
			count++
		}
	}
	return count, nil
}

// DeleteExpired removes records that expired before the given time. In dry-run
// mode it only counts them.
func (r *MemoryTokenRepository) DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.write(ctx)()

	var count int64
	for id, record := range r.byID {
		if record.ExpiresAt.Before(before) {
			if !dryRun {
				r.remove(id)
			}
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored records.
func (r *MemoryTokenRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *MemoryTokenRepository) remove(id uuid.UUID) {
	record, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byDevice, deviceKey{subjectID: record.SubjectID, deviceID: record.DeviceID})
	delete(r.byValue, record.TokenValue)
}
