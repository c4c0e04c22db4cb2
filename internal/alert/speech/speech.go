// Package speech speaks the alarm phrase with the platform text-to-speech tool.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// utteranceTimeout bounds how long a single utterance may run.
const utteranceTimeout = 30 * time.Second

var (
	// ErrUnsupportedOS indicates the current OS has no known speech tool.
	ErrUnsupportedOS = errors.New("unsupported operating system")
	// ErrNoSpeechTool indicates none of the known speech tools is installed.
	ErrNoSpeechTool = errors.New("no text-to-speech tool found")
)

// linuxTools are tried in order on Linux and other Unix systems.
//
//nolint:gochecknoglobals // Read-only lookup table.
var linuxTools = []string{"espeak-ng", "espeak", "spd-say"}

// CommandSpeaker speaks through an external command:
// - Linux:   espeak-ng, espeak or spd-say (first one found)
// - macOS:   say
// - Windows: PowerShell System.Speech
// The command is started asynchronously; Speak returns once it is running.
type CommandSpeaker struct {
	// override replaces the platform command; the phrase is appended as the last argument.
	override []string
	// goos selects the platform command.
	goos string
	// lookPath resolves executables; replaced in tests.
	lookPath func(string) (string, error)
	// start launches the command; replaced in tests.
	start func(*exec.Cmd) error
}

// NewCommandSpeaker creates a speaker. A non-empty override such as
// "espeak -s 120" replaces the platform command.
func NewCommandSpeaker(override string) *CommandSpeaker {
	return &CommandSpeaker{
		override: strings.Fields(override),
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		start:    (*exec.Cmd).Start,
	}
}

// Speak starts speaking phrase. The utterance outlives ctx but not utteranceTimeout.
func (s *CommandSpeaker) Speak(ctx context.Context, phrase string) error {
	args, err := s.command(phrase)
	if err != nil {
		return err
	}

	speakCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), utteranceTimeout)

	//nolint:gosec // The command comes from configuration or a fixed table.
	cmd := exec.CommandContext(speakCtx, args[0], args[1:]...)

	if err = s.start(cmd); err != nil {
		cancel()

		return fmt.Errorf("start %s: %w", args[0], err)
	}

	logger.DebugKV(ctx, "Speaking", "command", args[0], "phrase", phrase)

	go func() {
		defer cancel()

		if cmd.Process != nil {
			_ = cmd.Wait()
		}
	}()

	return nil
}

// command returns the full argument vector for phrase on the configured platform.
func (s *CommandSpeaker) command(phrase string) ([]string, error) {
	if len(s.override) > 0 {
		return append(append([]string(nil), s.override...), phrase), nil
	}

	switch s.goos {
	case "darwin":
		return []string{"say", phrase}, nil
	case "windows":
		script := "Add-Type -AssemblyName System.Speech; " +
			"(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak('" +
			strings.ReplaceAll(phrase, "'", "''") + "')"

		return []string{"powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		for _, tool := range linuxTools {
			if path, err := s.lookPath(tool); err == nil {
				return []string{path, phrase}, nil
			}
		}

		return nil, ErrNoSpeechTool
	default:
		return nil, fmt.Errorf("speech on %s: %w", s.goos, ErrUnsupportedOS)
	}
}
