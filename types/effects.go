package types

import "time"

// VisualEffectKind names a renderer-side visual treatment.
type VisualEffectKind string

const (
	VisualGlitch      VisualEffectKind = "glitch"
	VisualFade        VisualEffectKind = "fade"
	VisualFlash       VisualEffectKind = "flash"
	VisualScreenShake VisualEffectKind = "screen_shake"
	VisualDistortion  VisualEffectKind = "distortion"
	VisualColorShift  VisualEffectKind = "color_shift"
)

// VisualEffect is one renderer instruction inside an effect set.
type VisualEffect struct {
	Kind      VisualEffectKind `json:"kind"`
	Intensity float64          `json:"intensity"` // 0–1
	Duration  time.Duration    `json:"duration"`
	Hue       float64          `json:"hue,omitempty"` // color_shift only
}

// AudioEffect is one audio cue inside an effect set.
type AudioEffect struct {
	Sound  string  `json:"sound"`
	Volume float64 `json:"volume"` // 0–1
}

// EffectSet is a request to trigger a bundle of visual/audio effects.
type EffectSet struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"` // e.g. "meter_stability", "encounter_start", "critical_alert"
	Intensity float64        `json:"intensity"`
	Duration  time.Duration  `json:"duration"`
	Visuals   []VisualEffect `json:"visuals,omitempty"`
	Audio     []AudioEffect  `json:"audio,omitempty"`
}

// ActiveEffect is the runtime record of an in-flight effect.
type ActiveEffect struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Intensity float64       `json:"intensity"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// AccessibilitySettings constrain how effects are presented.
type AccessibilitySettings struct {
	IntensityScale  float64 `json:"intensityScale" toml:"intensity_scale"`
	ReduceMotion    bool    `json:"reduceMotion" toml:"reduce_motion"`
	DisableFlashing bool    `json:"disableFlashing" toml:"disable_flashing"`
	HighContrast    bool    `json:"highContrast" toml:"high_contrast"`
}

// PerformanceSettings bound the effect coordinator's resource use.
type PerformanceSettings struct {
	MaxConcurrentEffects int     `json:"maxConcurrentEffects" toml:"max_concurrent_effects"`
	QualityScale         float64 `json:"qualityScale" toml:"quality_scale"`
	TargetFrameRate      int     `json:"targetFrameRate" toml:"target_frame_rate"`
}

// DeviceCapabilities describe the host the renderer runs on.
type DeviceCapabilities struct {
	Mobile   bool    `json:"mobile"`
	LowGPU   bool    `json:"lowGpu"`
	MemoryGB float64 `json:"memoryGb"`
}
