package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps call records in memory. Test use and local development.
type MemoryRepo struct {
	mu   sync.Mutex
	recs map[string]*CallRecord // tenant + "/" + provider call id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{recs: make(map[string]*CallRecord)}
}

func key(tenantID, providerCallID string) string { return tenantID + "/" + providerCallID }

func (r *MemoryRepo) Create(ctx context.Context, rec CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(rec.TenantID, rec.ProviderCallID)
	if _, exists := r.recs[k]; exists {
		return nil // one record per call attempt
	}
	cp := rec
	r.recs[k] = &cp
	return nil
}

func (r *MemoryRepo) ByProviderCallID(ctx context.Context, tenantID, providerCallID string) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[key(tenantID, providerCallID)]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return *rec, nil
}

func (r *MemoryRepo) AssignRoute(ctx context.Context, tenantID, providerCallID, digit, queueName, agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[key(tenantID, providerCallID)]
	if !ok {
		return ErrNotFound
	}
	if !CanTransition(rec.Status, StatusRinging) {
		return ErrInvalidTransition
	}
	rec.Digits += digit
	rec.QueueName = queueName
	rec.AgentID = agentID
	rec.Status = StatusRinging
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, tenantID, providerCallID string, to Status, durationSeconds int, endedAt *time.Time) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[key(tenantID, providerCallID)]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	if !CanTransition(rec.Status, to) {
		return CallRecord{}, ErrInvalidTransition
	}
	rec.Status = to
	if to.IsTerminal() {
		rec.DurationSeconds = durationSeconds
		rec.EndedAt = endedAt
	}
	rec.UpdatedAt = time.Now().UTC()
	return *rec, nil
}

func (r *MemoryRepo) IncrementMenuAttempts(ctx context.Context, tenantID, providerCallID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[key(tenantID, providerCallID)]
	if !ok {
		return 0, ErrNotFound
	}
	rec.MenuAttempts++
	rec.UpdatedAt = time.Now().UTC()
	return rec.MenuAttempts, nil
}

func (r *MemoryRepo) AttachRecording(ctx context.Context, providerCallID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.bySid(providerCallID)
	if !ok {
		return ErrNotFound
	}
	rec.RecordingURL = url
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepo) AttachTranscript(ctx context.Context, providerCallID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.bySid(providerCallID)
	if !ok {
		return ErrNotFound
	}
	rec.TranscriptText = text
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepo) bySid(providerCallID string) (*CallRecord, bool) {
	for _, rec := range r.recs {
		if rec.ProviderCallID == providerCallID {
			return rec, true
		}
	}
	return nil, false
}

func (r *MemoryRepo) ListBetween(ctx context.Context, tenantID string, from, to time.Time) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CallRecord
	for _, rec := range r.recs {
		if rec.TenantID != tenantID {
			continue
		}
		if rec.StartedAt.Before(from) || rec.StartedAt.After(to) {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}
