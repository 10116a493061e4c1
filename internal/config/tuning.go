package config

import (
	"fmt"
	"time"

	"github.com/ayusman/handpet/internal/interaction"
	"github.com/ayusman/handpet/internal/zone"
)

// Tuning is the user-adjustable part of the interaction settings, in
// milliseconds and plain numbers so it reads well in files and JSON.
type Tuning struct {
	HandLostAfterMS int `toml:"hand_lost_after_ms" yaml:"hand_lost_after_ms" json:"hand_lost_after_ms"`

	FeedCooldownMS int `toml:"feed_cooldown_ms" yaml:"feed_cooldown_ms" json:"feed_cooldown_ms"`
	FeedEffectMS   int `toml:"feed_effect_ms" yaml:"feed_effect_ms" json:"feed_effect_ms"`
	PetCooldownMS  int `toml:"pet_cooldown_ms" yaml:"pet_cooldown_ms" json:"pet_cooldown_ms"`
	PokeCooldownMS int `toml:"poke_cooldown_ms" yaml:"poke_cooldown_ms" json:"poke_cooldown_ms"`
	TapCooldownMS  int `toml:"tap_cooldown_ms" yaml:"tap_cooldown_ms" json:"tap_cooldown_ms"`
	TapEffectMS    int `toml:"tap_effect_ms" yaml:"tap_effect_ms" json:"tap_effect_ms"`

	FingerCooldownMS int `toml:"finger_cooldown_ms" yaml:"finger_cooldown_ms" json:"finger_cooldown_ms"`
	FingerEffectMS   int `toml:"finger_effect_ms" yaml:"finger_effect_ms" json:"finger_effect_ms"`

	HighFiveCooldownMS  int     `toml:"high_five_cooldown_ms" yaml:"high_five_cooldown_ms" json:"high_five_cooldown_ms"`
	HighFiveEffectMS    int     `toml:"high_five_effect_ms" yaml:"high_five_effect_ms" json:"high_five_effect_ms"`
	HighFiveMinSpeed    float64 `toml:"high_five_min_speed" yaml:"high_five_min_speed" json:"high_five_min_speed"`
	HighFiveMinApproach float64 `toml:"high_five_min_approach" yaml:"high_five_min_approach" json:"high_five_min_approach"`

	MessageMS int `toml:"message_ms" yaml:"message_ms" json:"message_ms"`

	PinchRatio float64 `toml:"pinch_ratio" yaml:"pinch_ratio" json:"pinch_ratio"`

	// PetX and PetY are the starting pet position in percent of the frame.
	PetX float64 `toml:"pet_x" yaml:"pet_x" json:"pet_x"`
	PetY float64 `toml:"pet_y" yaml:"pet_y" json:"pet_y"`
}

// DefaultTuning returns the tuning matching interaction.DefaultConfig.
func DefaultTuning() Tuning {
	return TuningFrom(interaction.DefaultConfig())
}

// TuningFrom extracts the adjustable settings from c.
func TuningFrom(c interaction.Config) Tuning {
	return Tuning{
		HandLostAfterMS:     ms(c.HandLostAfter),
		FeedCooldownMS:      ms(c.FeedCooldown),
		FeedEffectMS:        ms(c.FeedEffect),
		PetCooldownMS:       ms(c.PetCooldown),
		PokeCooldownMS:      ms(c.PokeCooldown),
		TapCooldownMS:       ms(c.TapCooldown),
		TapEffectMS:         ms(c.TapEffect),
		FingerCooldownMS:    ms(c.FingerCooldown),
		FingerEffectMS:      ms(c.FingerEffect),
		HighFiveCooldownMS:  ms(c.HighFiveCooldown),
		HighFiveEffectMS:    ms(c.HighFiveEffect),
		HighFiveMinSpeed:    c.HighFiveMinSpeed,
		HighFiveMinApproach: c.HighFiveMinApproach,
		MessageMS:           ms(c.MessageFor),
		PinchRatio:          c.Gesture.PinchRatio,
		PetX:                c.DefaultPet.X,
		PetY:                c.DefaultPet.Y,
	}
}

// Interaction applies t on top of interaction.DefaultConfig.
func (t Tuning) Interaction() interaction.Config {
	c := interaction.DefaultConfig()
	c.HandLostAfter = dur(t.HandLostAfterMS)
	c.FeedCooldown = dur(t.FeedCooldownMS)
	c.FeedEffect = dur(t.FeedEffectMS)
	c.PetCooldown = dur(t.PetCooldownMS)
	c.PokeCooldown = dur(t.PokeCooldownMS)
	c.TapCooldown = dur(t.TapCooldownMS)
	c.TapEffect = dur(t.TapEffectMS)
	c.FingerCooldown = dur(t.FingerCooldownMS)
	c.FingerEffect = dur(t.FingerEffectMS)
	c.HighFiveCooldown = dur(t.HighFiveCooldownMS)
	c.HighFiveEffect = dur(t.HighFiveEffectMS)
	c.HighFiveMinSpeed = t.HighFiveMinSpeed
	c.HighFiveMinApproach = t.HighFiveMinApproach
	c.MessageFor = dur(t.MessageMS)
	c.Gesture.PinchRatio = t.PinchRatio
	c.DefaultPet = zone.Position{X: t.PetX, Y: t.PetY}
	return c
}

// Validate checks that every duration is positive and every threshold is in range.
func (t Tuning) Validate() error {
	durations := []struct {
		name string
		v    int
	}{
		{"hand_lost_after_ms", t.HandLostAfterMS},
		{"feed_cooldown_ms", t.FeedCooldownMS},
		{"feed_effect_ms", t.FeedEffectMS},
		{"pet_cooldown_ms", t.PetCooldownMS},
		{"poke_cooldown_ms", t.PokeCooldownMS},
		{"tap_cooldown_ms", t.TapCooldownMS},
		{"tap_effect_ms", t.TapEffectMS},
		{"finger_cooldown_ms", t.FingerCooldownMS},
		{"finger_effect_ms", t.FingerEffectMS},
		{"high_five_cooldown_ms", t.HighFiveCooldownMS},
		{"high_five_effect_ms", t.HighFiveEffectMS},
		{"message_ms", t.MessageMS},
	}
	for _, d := range durations {
		if d.v <= 0 {
			return fmt.Errorf("%w: tuning.%s must be positive", ErrInvalid, d.name)
		}
	}

	if t.HighFiveMinSpeed <= 0 {
		return fmt.Errorf("%w: tuning.high_five_min_speed must be positive", ErrInvalid)
	}
	if t.HighFiveMinApproach < 0 {
		return fmt.Errorf("%w: tuning.high_five_min_approach must not be negative", ErrInvalid)
	}
	if t.PinchRatio <= 0 || t.PinchRatio > 1 {
		return fmt.Errorf("%w: tuning.pinch_ratio must be within (0, 1]", ErrInvalid)
	}
	if t.PetX < 0 || t.PetX > 100 || t.PetY < 0 || t.PetY > 100 {
		return fmt.Errorf("%w: tuning pet position must be within [0, 100]", ErrInvalid)
	}
	return nil
}

func ms(d time.Duration) int {
	return int(d / time.Millisecond)
}

func dur(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
