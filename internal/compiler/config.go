package compiler

import (
	"fmt"

	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/ir"
)

// ConfigFromPreset turns a preset into an engine configuration over string
// values. The preset is validated first. Content and active values are
// NFC-normalized so that lookups by value match regardless of how the
// source file encoded them.
func ConfigFromPreset(p ir.PresetSpec) (engine.Config[string], error) {
	if errs := Validate(&p); len(errs) > 0 {
		return engine.Config[string]{}, errs[0]
	}

	cfg := engine.Config[string]{
		Contents:                   normalizeAll(p.Contents),
		MaxActivationLimit:         int(p.MaxActivationLimit),
		MaxActivationLimitBehavior: engine.LimitBehavior(p.LimitBehavior),
		Active:                     normalizeAll(p.Active),
		IsCircular:                 p.Circular,
		KeepHistoryFor:             int(p.KeepHistoryFor),
	}

	for _, i := range p.ActiveIndexes {
		cfg.ActiveIndexes = append(cfg.ActiveIndexes, int(i))
	}

	if p.Directions != nil {
		cfg.Directions = engine.Directions{
			Next:     p.Directions.Next,
			Previous: p.Directions.Previous,
		}
	}

	cd, err := p.CooldownDuration()
	if err != nil {
		return engine.Config[string]{}, fmt.Errorf("preset %s: cooldown: %w", p.Name, err)
	}
	cfg.Cooldown = cd

	if p.Autoplay != nil {
		d, err := p.Autoplay.AutoplayDuration()
		if err != nil {
			return engine.Config[string]{}, fmt.Errorf("preset %s: autoplay: %w", p.Name, err)
		}
		cfg.Autoplay = &engine.AutoplayConfig[string]{
			Duration:               d,
			StopsOnUserInteraction: p.Autoplay.StopsOnUserInteraction,
		}
	}

	return cfg, nil
}

func normalizeAll(vs []string) []string {
	if vs == nil {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = ir.NormalizeString(v)
	}
	return out
}
