package models

import (
	"encoding/json"
	"fmt"
)

// Settings is the flat user-preference record. Unknown keys are preserved
// so settings written by a newer version survive a merge by an older one.
type Settings struct {
	SoundEnabled         bool
	Volume               int
	DesktopNotifications bool
	AutoAcknowledge      bool
	AutoAckDelaySeconds  int
	GroupByItem          bool
	HighPriorityOnly     bool

	extra map[string]json.RawMessage
}

// DefaultSettings returns the initial preference record.
func DefaultSettings() Settings {
	return Settings{
		SoundEnabled:         true,
		Volume:               70,
		DesktopNotifications: true,
		AutoAcknowledge:      false,
		AutoAckDelaySeconds:  5,
	}
}

const (
	keySoundEnabled         = "sound_enabled"
	keyVolume               = "volume"
	keyDesktopNotifications = "desktop_notifications"
	keyAutoAcknowledge      = "auto_acknowledge"
	keyAutoAckDelaySeconds  = "auto_ack_delay_seconds"
	keyGroupByItem          = "group_by_item"
	keyHighPriorityOnly     = "high_priority_only"
)

// MarshalJSON emits known fields plus any preserved unknown keys.
func (s Settings) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.extra)+7)
	for k, v := range s.extra {
		out[k] = v
	}
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = raw
		return nil
	}
	for key, v := range map[string]any{
		keySoundEnabled:         s.SoundEnabled,
		keyVolume:               s.Volume,
		keyDesktopNotifications: s.DesktopNotifications,
		keyAutoAcknowledge:      s.AutoAcknowledge,
		keyAutoAckDelaySeconds:  s.AutoAckDelaySeconds,
		keyGroupByItem:          s.GroupByItem,
		keyHighPriorityOnly:     s.HighPriorityOnly,
	} {
		if err := put(key, v); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads known fields with loose numeric coercion and keeps
// everything else verbatim.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}

	*s = DefaultSettings()
	s.extra = make(map[string]json.RawMessage)

	for key, val := range raw {
		switch key {
		case keySoundEnabled:
			s.SoundEnabled = coerceBool(val, s.SoundEnabled)
		case keyVolume:
			s.Volume = coerceInt(val, s.Volume)
		case keyDesktopNotifications:
			s.DesktopNotifications = coerceBool(val, s.DesktopNotifications)
		case keyAutoAcknowledge:
			s.AutoAcknowledge = coerceBool(val, s.AutoAcknowledge)
		case keyAutoAckDelaySeconds:
			s.AutoAckDelaySeconds = coerceInt(val, s.AutoAckDelaySeconds)
		case keyGroupByItem:
			s.GroupByItem = coerceBool(val, s.GroupByItem)
		case keyHighPriorityOnly:
			s.HighPriorityOnly = coerceBool(val, s.HighPriorityOnly)
		default:
			s.extra[key] = val
		}
	}
	return nil
}

// Merge applies the keys present in patch (a JSON object) on top of the
// current settings. Keys absent from the patch are left untouched.
func (s *Settings) Merge(patch []byte) error {
	var patchMap map[string]json.RawMessage
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		return fmt.Errorf("parse settings patch: %w", err)
	}

	current, err := json.Marshal(*s)
	if err != nil {
		return fmt.Errorf("marshal current settings: %w", err)
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(current, &merged); err != nil {
		return fmt.Errorf("remarshal settings: %w", err)
	}
	for k, v := range patchMap {
		merged[k] = v
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal merged settings: %w", err)
	}
	return s.UnmarshalJSON(out)
}

func coerceBool(raw json.RawMessage, fallback bool) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0
	}
	return fallback
}

func coerceInt(raw json.RawMessage, fallback int) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		var f float64
		if _, scanErr := fmt.Sscanf(str, "%g", &f); scanErr == nil {
			return int(f)
		}
	}
	return fallback
}
