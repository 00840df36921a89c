package device

import (
	"sync"
	"time"

	"github.com/g6audio/g6ctl/internal/protocol"
)

// EffectSetting is the stored state of one SBX effect. Levels are integers
// 0-100 derived from the wire float by rounding; enabled is derived from the
// wire float being exactly 0.0 or 1.0.
type EffectSetting struct {
	Enabled bool  `json:"enabled"`
	Level   uint8 `json:"level"`
}

// EQBand is one equalizer band level
type EQBand struct {
	Band  byte  `json:"band"`
	Level uint8 `json:"level"`
}

// Settings is a snapshot of everything known about the device
type Settings struct {
	Connected bool           `json:"connected"`
	Output    protocol.Route `json:"-"`
	OutputStr string         `json:"output"`

	Surround    EffectSetting `json:"surround"`
	Crystalizer EffectSetting `json:"crystalizer"`
	Bass        EffectSetting `json:"bass"`
	SmartVolume EffectSetting `json:"smart_volume"`
	DialogPlus  EffectSetting `json:"dialog_plus"`

	SmartVolumePreset protocol.SmartVolumePreset `json:"smart_volume_preset"`

	SBXMode   bool `json:"sbx_mode"`
	ScoutMode bool `json:"scout_mode"`

	Firmware     string `json:"firmware,omitempty"`
	Capabilities byte   `json:"capabilities"`

	Equalizer []EQBand `json:"equalizer,omitempty"`

	// Extended holds SBX parameters observed on the wire that have no
	// classified meaning yet, keyed by feature id. They are preserved and
	// replayed verbatim so an unclassified id never loses its value.
	Extended map[byte]float32 `json:"extended,omitempty"`

	LastFullRead time.Time `json:"last_full_read,omitempty"`
}

// Effect returns the stored setting for one effect
func (s *Settings) Effect(effect protocol.Effect) EffectSetting {
	switch effect {
	case protocol.EffectSurround:
		return s.Surround
	case protocol.EffectCrystalizer:
		return s.Crystalizer
	case protocol.EffectBass:
		return s.Bass
	case protocol.EffectSmartVolume:
		return s.SmartVolume
	default:
		return s.DialogPlus
	}
}

// DefaultSettings returns the state assumed before the first device read
func DefaultSettings() Settings {
	return Settings{
		Output:      protocol.RouteHeadphones,
		OutputStr:   protocol.RouteHeadphones.String(),
		Surround:    EffectSetting{Level: 50},
		Crystalizer: EffectSetting{Level: 50},
		Bass:        EffectSetting{Level: 50},
		SmartVolume: EffectSetting{Level: 50},
		DialogPlus:  EffectSetting{Level: 50},

		SmartVolumePreset: protocol.PresetNone,
	}
}

// Store is the mutable settings holder. All access goes through methods;
// Snapshot hands out copies so readers never see a half-applied update.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore creates a store holding the default settings
func NewStore() *Store {
	return &Store{settings: DefaultSettings()}
}

// Snapshot returns a copy of the current settings
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.settings)
}

// Restore replaces the stored settings, keeping the connection flag. Used
// when the persisted state is loaded before a device session exists.
func (s *Store) Restore(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	connected := s.settings.Connected
	s.settings = copySettings(settings)
	s.settings.Connected = connected
	s.settings.OutputStr = s.settings.Output.String()
}

// SetConnected flips the connection flag
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Connected = connected
}

// MarkFullRead stamps the time of a completed connect resync
func (s *Store) MarkFullRead(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.LastFullRead = t
}

// SetOutput records the output route, returning true if it changed
func (s *Store) SetOutput(route protocol.Route) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings.Output == route {
		return false
	}
	s.settings.Output = route
	s.settings.OutputStr = route.String()
	return true
}

// Apply folds one decoded message into the store. It returns the name of
// the changed field, or "" when the message carried no state change (stale
// echoes, unknown frames, values equal to what is already stored).
func (s *Store) Apply(msg protocol.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case *protocol.EffectReport:
		return s.applyEffect(m)
	case *protocol.RouteReport:
		if s.settings.Output == m.Route {
			return ""
		}
		s.settings.Output = m.Route
		s.settings.OutputStr = m.Route.String()
		return "output"
	case *protocol.GamingStateReport:
		changed := ""
		if s.settings.SBXMode != m.SBXMode {
			s.settings.SBXMode = m.SBXMode
			changed = "sbx_mode"
		}
		if s.settings.ScoutMode != m.ScoutMode {
			s.settings.ScoutMode = m.ScoutMode
			changed = "scout_mode"
		}
		return changed
	case *protocol.ModeReport:
		if m.Feature == protocol.GamingFeatureSBX {
			if s.settings.SBXMode == m.Enabled {
				return ""
			}
			s.settings.SBXMode = m.Enabled
			return "sbx_mode"
		}
		if s.settings.ScoutMode == m.Enabled {
			return ""
		}
		s.settings.ScoutMode = m.Enabled
		return "scout_mode"
	case *protocol.IdentificationReport:
		if s.settings.Capabilities == m.Capabilities {
			return ""
		}
		s.settings.Capabilities = m.Capabilities
		return "capabilities"
	case *protocol.FirmwareReport:
		if s.settings.Firmware == m.Version {
			return ""
		}
		s.settings.Firmware = m.Version
		return "firmware"
	default:
		return ""
	}
}

// applyEffect routes an effect report to the right settings field. Caller
// holds the lock.
func (s *Store) applyEffect(m *protocol.EffectReport) string {
	if m.Selector == protocol.SelectorEqualizer {
		return s.applyEqualizer(m)
	}

	switch m.Feature {
	case protocol.FeatureSurroundToggle:
		return s.setToggle(&s.settings.Surround, m, "surround")
	case protocol.FeatureSurroundLevel:
		return s.setLevel(&s.settings.Surround, m, "surround")
	case protocol.FeatureCrystalizerToggle:
		return s.setToggle(&s.settings.Crystalizer, m, "crystalizer")
	case protocol.FeatureCrystalizerLevel:
		return s.setLevel(&s.settings.Crystalizer, m, "crystalizer")
	case protocol.FeatureBassToggle:
		return s.setToggle(&s.settings.Bass, m, "bass")
	case protocol.FeatureBassLevel:
		return s.setLevel(&s.settings.Bass, m, "bass")
	case protocol.FeatureSmartVolumeToggle:
		return s.setToggle(&s.settings.SmartVolume, m, "smartvolume")
	case protocol.FeatureSmartVolumeLevel:
		return s.setLevel(&s.settings.SmartVolume, m, "smartvolume")
	case protocol.FeatureSmartVolumePreset:
		preset := protocol.PresetFromValue(m.Value)
		if s.settings.SmartVolumePreset == preset {
			return ""
		}
		s.settings.SmartVolumePreset = preset
		return "smart_volume_preset"
	case protocol.FeatureDialogPlusToggle:
		return s.setToggle(&s.settings.DialogPlus, m, "dialogplus")
	case protocol.FeatureDialogPlusLevel:
		return s.setLevel(&s.settings.DialogPlus, m, "dialogplus")
	default:
		// Unclassified id: keep the raw value so it can be replayed
		if s.settings.Extended == nil {
			s.settings.Extended = make(map[byte]float32)
		}
		if old, ok := s.settings.Extended[byte(m.Feature)]; ok && old == m.Value {
			return ""
		}
		s.settings.Extended[byte(m.Feature)] = m.Value
		return "extended"
	}
}

func (s *Store) setToggle(setting *EffectSetting, m *protocol.EffectReport, name string) string {
	enabled := m.Enabled()
	if setting.Enabled == enabled {
		return ""
	}
	setting.Enabled = enabled
	return name
}

func (s *Store) setLevel(setting *EffectSetting, m *protocol.EffectReport, name string) string {
	level := m.Level()
	if setting.Level == level {
		return ""
	}
	setting.Level = level
	return name
}

// applyEqualizer records one band level. Caller holds the lock.
func (s *Store) applyEqualizer(m *protocol.EffectReport) string {
	band := byte(m.Feature)
	level := m.Level()

	for i := range s.settings.Equalizer {
		if s.settings.Equalizer[i].Band == band {
			if s.settings.Equalizer[i].Level == level {
				return ""
			}
			s.settings.Equalizer[i].Level = level
			return "equalizer"
		}
	}

	s.settings.Equalizer = append(s.settings.Equalizer, EQBand{Band: band, Level: level})
	return "equalizer"
}

// copySettings deep-copies the slice and map fields
func copySettings(in Settings) Settings {
	out := in
	if in.Equalizer != nil {
		out.Equalizer = make([]EQBand, len(in.Equalizer))
		copy(out.Equalizer, in.Equalizer)
	}
	if in.Extended != nil {
		out.Extended = make(map[byte]float32, len(in.Extended))
		for k, v := range in.Extended {
			out.Extended[k] = v
		}
	}
	return out
}
