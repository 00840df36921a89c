package config

import (
	"time"

	"github.com/g6audio/g6ctl/internal/device"
	"github.com/g6audio/g6ctl/internal/protocol"
)

// Registry represents the entire user configuration file: the last known
// device profile and application preferences.
type Registry struct {
	Version     int          `yaml:"version"`
	Profile     *Profile     `yaml:"profile,omitempty"`
	Preferences *Preferences `yaml:"preferences,omitempty"`
}

// Profile is the persisted device state. It is written after every
// successful settings change and replayed as the assumed state before the
// first device read of a new session.
type Profile struct {
	Output string `yaml:"output"`

	Surround    EffectMeta `yaml:"surround"`
	Crystalizer EffectMeta `yaml:"crystalizer"`
	Bass        EffectMeta `yaml:"bass"`
	SmartVolume EffectMeta `yaml:"smart_volume"`
	DialogPlus  EffectMeta `yaml:"dialog_plus"`

	SmartVolumePreset string `yaml:"smart_volume_preset,omitempty"`

	SBXMode   bool `yaml:"sbx_mode"`
	ScoutMode bool `yaml:"scout_mode"`

	Equalizer []BandMeta `yaml:"equalizer,omitempty"`

	// Extended keeps unclassified parameter values observed on the wire so
	// they survive restarts
	Extended map[uint8]float32 `yaml:"extended,omitempty"`

	Firmware string    `yaml:"firmware,omitempty"`
	SavedAt  time.Time `yaml:"saved_at,omitempty"`
}

// EffectMeta is the persisted form of one SBX effect
type EffectMeta struct {
	Enabled bool  `yaml:"enabled"`
	Level   uint8 `yaml:"level"`
}

// BandMeta is the persisted form of one equalizer band
type BandMeta struct {
	Band  uint8 `yaml:"band"`
	Level uint8 `yaml:"level"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DrainReads       int  `yaml:"drain_reads"`        // reads spent hunting for a write echo
	DrainDelayMS     int  `yaml:"drain_delay_ms"`     // pacing between drain reads
	ReadTimeoutMS    int  `yaml:"read_timeout_ms"`    // single read timeout
	RestoreOnConnect bool `yaml:"restore_on_connect"` // replay the profile before the first read
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Preferences: &Preferences{
			DrainReads:       device.DefaultDrainReads,
			DrainDelayMS:     int(device.DefaultDrainDelay / time.Millisecond),
			ReadTimeoutMS:    int(device.DefaultReadTimeout / time.Millisecond),
			RestoreOnConnect: true,
		},
	}
}

// ManagerOptions translates preferences into device manager options
func (r *Registry) ManagerOptions() device.Options {
	p := r.Preferences
	if p == nil {
		return device.Options{}
	}
	return device.Options{
		DrainReads:  p.DrainReads,
		DrainDelay:  time.Duration(p.DrainDelayMS) * time.Millisecond,
		ReadTimeout: time.Duration(p.ReadTimeoutMS) * time.Millisecond,
	}
}

// RecordSettings captures a settings snapshot into the profile
func (r *Registry) RecordSettings(s device.Settings) {
	profile := &Profile{
		Output:            s.Output.String(),
		Surround:          EffectMeta(s.Surround),
		Crystalizer:       EffectMeta(s.Crystalizer),
		Bass:              EffectMeta(s.Bass),
		SmartVolume:       EffectMeta(s.SmartVolume),
		DialogPlus:        EffectMeta(s.DialogPlus),
		SmartVolumePreset: string(s.SmartVolumePreset),
		SBXMode:           s.SBXMode,
		ScoutMode:         s.ScoutMode,
		Firmware:          s.Firmware,
		SavedAt:           time.Now(),
	}
	for _, band := range s.Equalizer {
		profile.Equalizer = append(profile.Equalizer, BandMeta{Band: band.Band, Level: band.Level})
	}
	if len(s.Extended) > 0 {
		profile.Extended = make(map[uint8]float32, len(s.Extended))
		for k, v := range s.Extended {
			profile.Extended[k] = v
		}
	}
	r.Profile = profile
}

// Settings converts the persisted profile back into device settings.
// Returns false when no profile has been saved yet.
func (r *Registry) Settings() (device.Settings, bool) {
	if r.Profile == nil {
		return device.Settings{}, false
	}
	p := r.Profile

	s := device.DefaultSettings()
	if p.Output == protocol.RouteSpeakers.String() {
		s.Output = protocol.RouteSpeakers
	} else {
		s.Output = protocol.RouteHeadphones
	}
	s.OutputStr = s.Output.String()
	s.Surround = device.EffectSetting(p.Surround)
	s.Crystalizer = device.EffectSetting(p.Crystalizer)
	s.Bass = device.EffectSetting(p.Bass)
	s.SmartVolume = device.EffectSetting(p.SmartVolume)
	s.DialogPlus = device.EffectSetting(p.DialogPlus)
	if p.SmartVolumePreset != "" {
		s.SmartVolumePreset = protocol.SmartVolumePreset(p.SmartVolumePreset)
	}
	s.SBXMode = p.SBXMode
	s.ScoutMode = p.ScoutMode
	s.Firmware = p.Firmware
	for _, band := range p.Equalizer {
		s.Equalizer = append(s.Equalizer, device.EQBand{Band: band.Band, Level: band.Level})
	}
	if len(p.Extended) > 0 {
		s.Extended = make(map[byte]float32, len(p.Extended))
		for k, v := range p.Extended {
			s.Extended[k] = v
		}
	}
	return s, true
}
