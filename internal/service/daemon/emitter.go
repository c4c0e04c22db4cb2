package daemon

import (
	"github.com/oshokin/alarm-clock/internal/alert"
	"github.com/oshokin/alarm-clock/internal/alert/chime"
	"github.com/oshokin/alarm-clock/internal/alert/notify"
	"github.com/oshokin/alarm-clock/internal/alert/speech"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/version"
)

// newEmitter builds the alert emitter from settings.
func newEmitter(settings config.Alert) *alert.Emitter {
	opts := []alert.Option{
		alert.WithSpeaker(speech.NewCommandSpeaker(settings.SpeechCommand)),
		alert.WithNotifier(newNotifier(settings.Notifier)),
	}

	if settings.Chime {
		opts = append(opts, alert.WithChimer(chime.NewPlayer(chime.DefaultPattern())))
	}

	return alert.NewEmitter(alert.Message{
		Phrase: settings.Phrase,
		Title:  settings.Title,
		Body:   settings.Body,
		Sound:  settings.Sound,
	}, opts...)
}

// newNotifier selects the notification channel. Auto falls back to logging
// when no desktop session bus is reachable.
//
//nolint:ireturn // The notifier kind is chosen by configuration.
func newNotifier(kind string) notify.Notifier {
	switch kind {
	case config.NotifierDBus:
		return notify.NewDBusNotifier(version.AppName)
	case config.NotifierLog:
		return notify.LogNotifier{}
	default:
		return notify.Chain{notify.NewDBusNotifier(version.AppName), notify.LogNotifier{}}
	}
}
