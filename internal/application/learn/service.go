package learn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/classifier"
	"github.com/cybershikshax/shiksha-cli/internal/domain/progress"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"go.uber.org/zap"
)

// TrackProgress is a per-track view of the learner's completion.
type TrackProgress struct {
	Track     string         `json:"track"`
	Topics    map[string]int `json:"topics"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Ratio     float64        `json:"ratio"`
}

// Service exposes lesson progress and the tutor chatbot.
type Service struct {
	store       *progress.Store
	tutor       *classifier.Tutor
	chatLatency time.Duration
	logger      *zap.Logger
}

// NewService creates a new learning service
func NewService(store *progress.Store, tutor *classifier.Tutor, chatLatency time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		tutor:       tutor,
		chatLatency: chatLatency,
		logger:      logger,
	}
}

// Tracks returns the curriculum in display order.
func (s *Service) Tracks() progress.Curriculum {
	return s.store.Curriculum()
}

// Topics lists the topics of a track.
func (s *Service) Topics(trackID string) ([]string, error) {
	track, err := s.track(trackID)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), track.Topics...), nil
}

// Progress reports completion for one track.
func (s *Service) Progress(trackID string) (TrackProgress, error) {
	track, err := s.track(trackID)
	if err != nil {
		return TrackProgress{}, err
	}
	return TrackProgress{
		Track:     track.ID,
		Topics:    s.store.Get(track.ID),
		Completed: s.store.Completed(track.ID),
		Total:     len(track.Topics),
		Ratio:     s.Ratio(track.ID),
	}, nil
}

// Complete marks a topic finished and persists the change.
func (s *Service) Complete(trackID, topic string) error {
	track, err := s.track(trackID)
	if err != nil {
		return err
	}
	if !track.HasTopic(topic) {
		return fmt.Errorf("%w: %q in track %s", sharedErrors.ErrTopicNotFound, topic, track.ID)
	}
	if s.store.Percent(track.ID, topic) == consts.CompletePercent {
		return nil
	}
	if err := s.store.MarkComplete(track.ID, topic); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	s.logger.Info("topic completed", zap.String("track", track.ID), zap.String("topic", topic))
	return nil
}

// Reset clears the learner's progress on every track.
func (s *Service) Reset() error {
	if err := s.store.Reset(); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	s.logger.Info("progress reset")
	return nil
}

// Ratio returns the completed fraction of a track, 0 when unknown.
func (s *Service) Ratio(trackID string) float64 {
	return s.store.CompletionRatio(trackID)
}

// Ask answers a chat message after the simulated typing delay.
func (s *Service) Ask(ctx context.Context, message string) (classifier.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return classifier.Reply{}, sharedErrors.ErrEmptyMessage
	}
	if err := ctx.Err(); err != nil {
		return classifier.Reply{}, err
	}
	if s.chatLatency > 0 {
		timer := time.NewTimer(s.chatLatency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return classifier.Reply{}, ctx.Err()
		case <-timer.C:
		}
	}

	reply := s.tutor.Reply(message)
	s.logger.Debug("tutor reply", zap.Bool("matched", reply.Matched), zap.String("keyword", reply.Keyword))
	return reply, nil
}

func (s *Service) track(trackID string) (progress.Track, error) {
	track, ok := s.store.Curriculum().Lookup(strings.TrimSpace(trackID))
	if !ok {
		return progress.Track{}, fmt.Errorf("%w: %q", sharedErrors.ErrTrackNotFound, trackID)
	}
	return track, nil
}
