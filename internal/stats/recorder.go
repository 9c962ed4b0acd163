// Package stats records recipe trigger outcomes. Persistence lives behind
// the Recorder interface; the engine only reports outcomes.
package stats

import (
	"context"
	"sync"
	"time"
)

// Key identifies a stats row.
type Key struct {
	TenantID string
	UserID   string
	RecipeID string
}

// Stats holds trigger counters for one (user, recipe) pair. A recipe that
// matched but whose actions partially failed still counts as triggered.
type Stats struct {
	Key
	TriggerCount    int
	FailureCount    int
	LastTriggeredAt time.Time
	LastActivityID  string
	LastSuccess     bool
}

// Recorder is the collaborator boundary the engine reports outcomes to.
type Recorder interface {
	RecordTrigger(ctx context.Context, key Key, activityID string, success bool, at time.Time) error
	Get(ctx context.Context, key Key) (*Stats, error)
	DeleteUser(ctx context.Context, tenantID, userID string) error
}

// MemoryRecorder keeps stats in memory for local development and tests.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries map[Key]Stats
}

// NewMemoryRecorder constructs an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: make(map[Key]Stats)}
}

// RecordTrigger implements Recorder.
func (r *MemoryRecorder) RecordTrigger(ctx context.Context, key Key, activityID string, success bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entries[key]
	entry.Key = key
	entry.TriggerCount++
	if !success {
		entry.FailureCount++
	}
	entry.LastTriggeredAt = at
	entry.LastActivityID = activityID
	entry.LastSuccess = success
	r.entries[key] = entry
	return nil
}

// Get implements Recorder. A missing row returns nil without error.
func (r *MemoryRecorder) Get(ctx context.Context, key Key) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// DeleteUser implements Recorder, removing every row owned by the user.
func (r *MemoryRecorder) DeleteUser(ctx context.Context, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.entries {
		if key.TenantID == tenantID && key.UserID == userID {
			delete(r.entries, key)
		}
	}
	return nil
}
