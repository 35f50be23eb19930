package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/modelbridge/pkg/log"
)

type Config struct {
	// TTL is passed through to the store on every write; the store owns
	// expiry, the core never deletes.
	TTL time.Duration

	// MaxTurns caps a thread's history. AddTurn returns false at the cap.
	MaxTurns int
}

func NewDefaultConfig() Config {
	return Config{
		TTL:      3 * time.Hour,
		MaxTurns: 50,
	}
}

// Memory is the conversation layer over a Store. It keeps no state of its
// own; every operation round-trips the persisted blob.
type Memory struct {
	store    Store
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

func New(store Store, cfg Config) *Memory {
	if cfg.TTL <= 0 {
		cfg.TTL = NewDefaultConfig().TTL
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = NewDefaultConfig().MaxTurns
	}
	return &Memory{
		store:    store,
		ttl:      cfg.TTL,
		maxTurns: cfg.MaxTurns,
		now:      time.Now,
	}
}

// CreateThread persists a new empty thread and returns its generated id.
// The id is only handed out after a confirmed write; a failed write returns
// a *StorageError and creates nothing. parentID may reference a thread that
// no longer exists.
func (m *Memory) CreateThread(ctx context.Context, toolName string, initialContext map[string]any, parentID string) (string, error) {
	now := m.now().UTC()
	tc := &ThreadContext{
		ThreadID:       uuid.NewString(),
		ParentThreadID: parentID,
		CreatedAt:      now,
		LastUpdatedAt:  now,
		ToolName:       toolName,
		Turns:          []Turn{},
		InitialContext: initialContext,
	}

	if err := m.save(ctx, tc); err != nil {
		return "", err
	}

	log.FromCtx(ctx).Debug().
		Str("thread", tc.ThreadID).
		Str("tool", toolName).
		Str("parent", parentID).
		Msg("created conversation thread")
	return tc.ThreadID, nil
}

type TurnOptions struct {
	Files    []string
	Images   []string
	ToolName string
}

// AddTurn appends one turn and re-persists the whole context. It returns
// false, never an error, when the thread is missing or corrupt, at its turn
// cap, or when the write fails; callers must check the result.
//
// The read-modify-write round trip is not guarded by any lock or version
// check: concurrent appends to the same thread can lose an update, last
// writer wins on the persisted blob.
func (m *Memory) AddTurn(ctx context.Context, threadID, role, content string, opts TurnOptions) bool {
	tc := m.GetThread(ctx, threadID)
	if tc == nil {
		return false
	}

	if len(tc.Turns) >= m.maxTurns {
		log.FromCtx(ctx).Debug().
			Str("thread", threadID).
			Int("turns", len(tc.Turns)).
			Msg("turn dropped, thread at capacity")
		return false
	}

	ts := m.now().UTC()
	if n := len(tc.Turns); n > 0 && ts.Before(tc.Turns[n-1].Timestamp) {
		ts = tc.Turns[n-1].Timestamp
	}

	tc.Turns = append(tc.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: ts,
		Files:     opts.Files,
		Images:    opts.Images,
		ToolName:  opts.ToolName,
	})
	tc.LastUpdatedAt = ts

	if err := m.save(ctx, tc); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("thread", threadID).Msg("turn dropped, write failed")
		return false
	}
	return true
}

// GetThread loads a thread, returning nil for a malformed id, an absent
// key, or an unparseable payload. Corruption is treated as absence, not a
// fatal error.
func (m *Memory) GetThread(ctx context.Context, threadID string) *ThreadContext {
	if _, err := uuid.Parse(threadID); err != nil {
		return nil
	}

	payload, err := m.store.Get(ctx, threadID)
	if err != nil {
		return nil
	}

	var tc ThreadContext
	if err := json.Unmarshal(payload, &tc); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("thread", threadID).Msg("corrupt thread payload, treating as absent")
		return nil
	}
	return &tc
}

// RemainingTurns reports how many turns the thread can still take.
func (m *Memory) RemainingTurns(tc *ThreadContext) int {
	if tc == nil {
		return 0
	}
	remaining := m.maxTurns - len(tc.Turns)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Memory) save(ctx context.Context, tc *ThreadContext) error {
	payload, err := json.Marshal(tc)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if err := m.store.Set(ctx, tc.ThreadID, payload, m.ttl); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}
