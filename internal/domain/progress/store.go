package progress

import (
	"encoding/json"
	"fmt"
	"sync"

	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
)

// Storage is a durable key/value store holding serialized values.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Key builds the composite "<track>-<topic>" progress key.
func Key(track, topic string) string {
	return track + "-" + topic
}

// Encode serializes a progress mapping. encoding/json sorts map keys, so
// equal mappings always encode to the same bytes.
func Encode(entries map[string]int) (string, error) {
	if entries == nil {
		entries = map[string]int{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	return string(data), nil
}

// Decode parses a serialized mapping. It always returns a usable map;
// on malformed input the map is empty and the error says why.
func Decode(data string) (map[string]int, error) {
	raw := map[string]int{}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return map[string]int{}, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	if raw == nil {
		return map[string]int{}, nil
	}

	entries := make(map[string]int, len(raw))
	for k, v := range raw {
		if v < 0 || v > consts.CompletePercent {
			continue
		}
		entries[k] = v
	}
	return entries, nil
}

// Store tracks per-topic completion and persists the whole mapping under a
// single storage key on every mutation.
type Store struct {
	mu         sync.RWMutex
	storage    Storage
	curriculum Curriculum
	entries    map[string]int
}

// Open loads the persisted mapping. A missing or corrupt value starts the
// store empty instead of failing.
func Open(storage Storage, curriculum Curriculum) *Store {
	s := &Store{
		storage:    storage,
		curriculum: curriculum,
		entries:    map[string]int{},
	}
	if storage == nil {
		return s
	}

	data, ok, err := storage.GetItem(consts.ProgressStorageKey)
	if err != nil || !ok {
		return s
	}
	entries, err := Decode(data)
	if err != nil {
		return s
	}
	s.entries = entries
	return s
}

// Curriculum returns the tracks the store reports on.
func (s *Store) Curriculum() Curriculum {
	return s.curriculum
}

// Get returns the percentage for every topic of the track. Topics never
// touched report 0; an unknown track yields an empty map.
func (s *Store) Get(trackID string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]int{}
	track, ok := s.curriculum.Lookup(trackID)
	if !ok {
		return out
	}
	for _, topic := range track.Topics {
		out[topic] = s.entries[Key(trackID, topic)]
	}
	return out
}

// Percent returns the stored percentage for one topic.
func (s *Store) Percent(trackID, topic string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[Key(trackID, topic)]
}

// MarkComplete sets the topic to 100% and persists the mapping. Applying it
// twice leaves the same stored value and serialization. If persisting
// fails the in-memory mapping is left unchanged.
func (s *Store) MarkComplete(trackID, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]int, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	next[Key(trackID, topic)] = consts.CompletePercent

	if s.storage != nil {
		data, err := Encode(next)
		if err != nil {
			return err
		}
		if err := s.storage.SetItem(consts.ProgressStorageKey, data); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}
	}

	s.entries = next
	return nil
}

// Completed counts the topics of a track that are at 100%.
func (s *Store) Completed(trackID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	track, ok := s.curriculum.Lookup(trackID)
	if !ok {
		return 0
	}
	done := 0
	for _, topic := range track.Topics {
		if s.entries[Key(trackID, topic)] == consts.CompletePercent {
			done++
		}
	}
	return done
}

// CompletionRatio returns the fraction of a track's topics at 100%, or 0
// when the track has no topics.
func (s *Store) CompletionRatio(trackID string) float64 {
	track, ok := s.curriculum.Lookup(trackID)
	if !ok || len(track.Topics) == 0 {
		return 0
	}
	return float64(s.Completed(trackID)) / float64(len(track.Topics))
}

// Reset forgets every topic and removes the persisted mapping.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.RemoveItem(consts.ProgressStorageKey); err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}
	}
	s.entries = map[string]int{}
	return nil
}
