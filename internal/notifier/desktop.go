package notifier

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// DesktopNotifier shows triggered alerts as desktop notifications via
// notify-send. Critical alerts are sticky; everything else expires after
// ten seconds.
type DesktopNotifier struct {
	messages *Messages
	settings SettingsSource
	binary   string
}

// NewDesktopNotifier creates a desktop notifier. Returns an error when
// notify-send is not installed.
func NewDesktopNotifier(settings SettingsSource) (*DesktopNotifier, error) {
	bin, err := exec.LookPath("notify-send")
	if err != nil {
		return nil, fmt.Errorf("notify-send not found: %w", err)
	}

	messages, err := NewMessages()
	if err != nil {
		return nil, fmt.Errorf("failed to load message templates: %w", err)
	}

	return &DesktopNotifier{
		messages: messages,
		settings: settings,
		binary:   bin,
	}, nil
}

// Name returns "desktop".
func (d *DesktopNotifier) Name() string {
	return "desktop"
}

// Send shows a desktop notification for the triggered alert.
func (d *DesktopNotifier) Send(ctx context.Context, trigger *models.TriggeredAlert) error {
	if d.settings != nil && !d.settings.Settings().DesktopNotifications {
		return nil
	}

	title, err := d.messages.Title(trigger)
	if err != nil {
		return fmt.Errorf("failed to render title: %w", err)
	}
	body, err := d.messages.Body(trigger)
	if err != nil {
		return fmt.Errorf("failed to render body: %w", err)
	}

	args := []string{"--app-name", "marketwatch"}
	if trigger.Priority == models.PriorityCritical {
		// Sticky until dismissed.
		args = append(args, "--urgency", "critical")
	} else {
		args = append(args, "--expire-time", "10000")
	}
	args = append(args, title, body)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send failed: %w: %s", err, string(out))
	}
	return nil
}

// Close is a no-op for desktop notifier.
func (d *DesktopNotifier) Close() error {
	return nil
}
