package cmd

import (
	"errors"
	"fmt"

	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
)

// UnknownTrackError indicates a track lookup failure.
type UnknownTrackError struct {
	Track string
}

func (e *UnknownTrackError) Error() string {
	return fmt.Sprintf("track %q not found (run `shiksha learn tracks` to list them)", e.Track)
}

// UnknownTopicError signals a topic that is not part of the track.
type UnknownTopicError struct {
	Track string
	Topic string
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("topic %q is not part of track %s (run `shiksha learn topics %s`)", e.Topic, e.Track, e.Track)
}

// translateLearnError turns service errors into user-facing ones.
func translateLearnError(err error, track, topic string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sharedErrors.ErrTrackNotFound):
		return &UnknownTrackError{Track: track}
	case errors.Is(err, sharedErrors.ErrTopicNotFound):
		return &UnknownTopicError{Track: track, Topic: topic}
	}
	return err
}
