package notifier

import (
	"context"
	"embed"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

//go:embed assets/alert.wav
var soundFS embed.FS

// repeatGap is the pause between repeated plays of the alert sound.
const repeatGap = 500 * time.Millisecond

// SoundNotifier plays an audible alert through paplay or aplay. High and
// critical priorities repeat the sound according to the priority's repeat
// count.
type SoundNotifier struct {
	settings       SettingsSource
	binary         string
	supportsVolume bool
	wavPath        string

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewSoundNotifier creates a sound notifier. The embedded alert sound is
// extracted to a temp file so the player can read it. Returns an error when
// neither paplay nor aplay is installed.
func NewSoundNotifier(settings SettingsSource) (*SoundNotifier, error) {
	bin, supportsVolume, err := findPlayer()
	if err != nil {
		return nil, err
	}

	data, err := soundFS.ReadFile("assets/alert.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded sound: %w", err)
	}

	path := filepath.Join(os.TempDir(), "marketwatch-alert.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write sound file: %w", err)
	}

	return &SoundNotifier{
		settings:       settings,
		binary:         bin,
		supportsVolume: supportsVolume,
		wavPath:        path,
	}, nil
}

// findPlayer locates an available audio player. paplay is preferred because
// it supports per-play volume.
func findPlayer() (string, bool, error) {
	if bin, err := exec.LookPath("paplay"); err == nil {
		return bin, true, nil
	}
	if bin, err := exec.LookPath("aplay"); err == nil {
		return bin, false, nil
	}
	return "", false, fmt.Errorf("no audio player found (tried paplay, aplay)")
}

// Name returns "sound".
func (s *SoundNotifier) Name() string {
	return "sound"
}

// Send plays the alert sound, repeated per the alert priority. Playback
// runs in the background so notification fan-out is not delayed.
func (s *SoundNotifier) Send(ctx context.Context, trigger *models.TriggeredAlert) error {
	var volume int
	if s.settings != nil {
		cfg := s.settings.Settings()
		if !cfg.SoundEnabled {
			return nil
		}
		volume = cfg.Volume
	} else {
		volume = 70
	}

	repeats := trigger.Priority.NotificationRepeats()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		for i := 0; i < repeats; i++ {
			if ctx.Err() != nil {
				return
			}
			if err := s.play(ctx, volume); err != nil {
				log.Printf("sound playback failed: %v", err)
				return
			}
			if i < repeats-1 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(repeatGap):
				}
			}
		}
	}()

	return nil
}

// play runs the audio player once, blocking until playback completes.
func (s *SoundNotifier) play(ctx context.Context, volume int) error {
	var args []string
	if s.supportsVolume {
		// paplay volume is 0-65536.
		if volume < 0 {
			volume = 0
		}
		if volume > 100 {
			volume = 100
		}
		args = append(args, "--volume", strconv.Itoa(volume*65536/100))
	}
	args = append(args, s.wavPath)

	cmd := exec.CommandContext(ctx, s.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", filepath.Base(s.binary), err, string(out))
	}
	return nil
}

// Close waits for in-flight playback and removes the extracted sound file.
func (s *SoundNotifier) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	if err := os.Remove(s.wavPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
