package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/alarm-clock/internal/alert/notify"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Speaker speaks a phrase.
type Speaker interface {
	Speak(ctx context.Context, phrase string) error
}

// Chimer plays an audible alarm pattern.
type Chimer interface {
	Chime(ctx context.Context) error
}

// Message is the fixed alert content.
type Message struct {
	// Phrase is spoken aloud.
	Phrase string
	// Title is the notification title.
	Title string
	// Body is the notification body.
	Body string
	// Sound asks the notification service for its alarm sound.
	Sound bool
}

// Channel names used in logs and errors.
const (
	ChannelSpeech       = "speech"
	ChannelNotification = "notification"
	ChannelChime        = "chime"
)

// ErrChannelPanicked wraps a panic recovered from an alert channel.
var ErrChannelPanicked = errors.New("alert channel panicked")

// Emitter fires all configured channels.
type Emitter struct {
	// message is what every alert says.
	message Message
	// speaker is optional.
	speaker Speaker
	// notifier is optional.
	notifier notify.Notifier
	// chimer is optional.
	chimer Chimer
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithSpeaker enables the speech channel.
func WithSpeaker(speaker Speaker) Option {
	return func(e *Emitter) {
		e.speaker = speaker
	}
}

// WithNotifier enables the notification channel.
func WithNotifier(notifier notify.Notifier) Option {
	return func(e *Emitter) {
		e.notifier = notifier
	}
}

// WithChimer enables the chime channel.
func WithChimer(chimer Chimer) Option {
	return func(e *Emitter) {
		e.chimer = chimer
	}
}

// NewEmitter creates an emitter for message.
func NewEmitter(message Message, opts ...Option) *Emitter {
	emitter := &Emitter{
		message: message,
	}

	for _, opt := range opts {
		opt(emitter)
	}

	return emitter
}

// Fire attempts speech, then the notification, then the chime. Each attempt is
// independent; the joined failures are returned for reporting only. There are
// no retries.
func (e *Emitter) Fire(ctx context.Context) error {
	var errs []error

	if e.speaker != nil {
		errs = append(errs, attempt(ctx, ChannelSpeech, func() error {
			return e.speaker.Speak(ctx, e.message.Phrase)
		}))
	}

	if e.notifier != nil {
		errs = append(errs, attempt(ctx, ChannelNotification, func() error {
			return e.notifier.Notify(ctx, notify.Notification{
				Title:   e.message.Title,
				Body:    e.message.Body,
				Sound:   e.message.Sound,
				Trigger: notify.Immediate(),
			})
		}))
	}

	if e.chimer != nil {
		errs = append(errs, attempt(ctx, ChannelChime, func() error {
			return e.chimer.Chime(ctx)
		}))
	}

	return errors.Join(errs...)
}

// attempt runs one channel, converting a panic into an error.
func attempt(ctx context.Context, channel string, deliver func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s: %w: %v", channel, ErrChannelPanicked, recovered)
		}

		if err != nil {
			logger.WarnKV(ctx, "Alert channel failed", "channel", channel, "error", err)
		}
	}()

	if err = deliver(); err != nil {
		return fmt.Errorf("%s: %w", channel, err)
	}

	return nil
}
