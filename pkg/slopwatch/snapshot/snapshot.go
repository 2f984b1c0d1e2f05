package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
	"github.com/cognicore/slopwatch/pkg/slopwatch/merge"
	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
	"github.com/cognicore/slopwatch/pkg/slopwatch/rules"
	"github.com/cognicore/slopwatch/pkg/slopwatch/store"
)

// Version is the current snapshot format.
const Version = 1

// KeyPrefix namespaces snapshot keys in a shared blob store.
const KeyPrefix = "slopwatch:"

// Snapshot is the durable state of one conversation.
type Snapshot struct {
	Version        int                `json:"version"`
	ConversationID string             `json:"conversation_id"`
	State          ngram.State        `json:"state"`
	Rules          []rules.Rule       `json:"rules,omitempty"`
	Leaderboard    *merge.Leaderboard `json:"leaderboard,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

// Key returns the blob store key for a conversation.
func Key(conversationID string) string { return KeyPrefix + conversationID }

// Encode serializes a snapshot.
func Encode(s Snapshot) ([]byte, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	return json.Marshal(s)
}

// Decode parses a snapshot, rejecting unknown versions.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode snapshot: %v", internalerr.ErrInvalidInput, err)
	}
	if s.Version < 1 || s.Version > Version {
		return Snapshot{}, fmt.Errorf("%w: unsupported snapshot version %d", internalerr.ErrInvalidInput, s.Version)
	}
	if s.State.Records == nil {
		s.State.Records = map[string]ngram.Record{}
	}
	return s, nil
}

// Manager reads and writes snapshots through a BlobStore.
type Manager struct {
	store  store.BlobStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewManager wraps st.
func NewManager(st store.BlobStore, logger zerolog.Logger) *Manager {
	return &Manager{store: st, logger: logger, now: time.Now}
}

// Save stamps and writes the snapshot under its conversation key.
func (m *Manager) Save(ctx context.Context, s Snapshot) error {
	if s.ConversationID == "" {
		return fmt.Errorf("%w: snapshot needs a conversation id", internalerr.ErrInvalidInput)
	}
	s.Version = Version
	s.Timestamp = m.now().UTC()
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := m.store.Save(ctx, Key(s.ConversationID), data); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return nil
}

// Status reports the outcome of a snapshot read.
type Status int

const (
	// Missing means no snapshot is stored for the conversation.
	Missing Status = iota
	// Found means the snapshot decoded cleanly.
	Found
	// Corrupt means a stored snapshot could not be decoded.
	Corrupt
)

// Load reads the snapshot for a conversation. A missing or corrupt snapshot
// yields found=false and no error, so the caller starts empty. Store
// failures are returned.
func (m *Manager) Load(ctx context.Context, conversationID string) (Snapshot, bool, error) {
	s, status, err := m.Read(ctx, conversationID)
	return s, status == Found, err
}

// Read is Load with the missing and corrupt cases told apart.
func (m *Manager) Read(ctx context.Context, conversationID string) (Snapshot, Status, error) {
	data, found, err := m.store.Load(ctx, Key(conversationID))
	if err != nil {
		return Snapshot{}, Missing, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if !found {
		return Snapshot{}, Missing, nil
	}
	s, err := Decode(data)
	if err != nil {
		m.logger.Warn().Err(err).Str("conversation", conversationID).Msg("discarding corrupt snapshot")
		return Snapshot{}, Corrupt, nil
	}
	return s, Found, nil
}
