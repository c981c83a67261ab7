package fn

import (
	"context"
	"encoding/json"
	"fmt"
)

// Cfg marks the configuration type parameter. Any config
// type must have a validation method, OK, defined on it.
type Cfg interface {
	OK() error
}

// SkipCfg indicates the config is not needed and will skip
// the config loading procedure.
type SkipCfg struct{}

// OK is a noop validation.
func (n SkipCfg) OK() error {
	return nil
}

func readCfg[T Cfg](ctx context.Context) (T, error) {
	var cfg T
	switch any(cfg).(type) {
	// exceptional case, where a catalog does not need/want a config
	// otherwise, we'll decode into the target type
	case SkipCfg, *SkipCfg:
		return *new(T), nil
	}

	cfgB, err := loadConfigBytes(ctx)
	if err != nil {
		return *new(T), fmt.Errorf("failed to read config source: %w", err)
	}

	err = json.Unmarshal(cfgB, &cfg)
	if err != nil {
		return *new(T), fmt.Errorf("failed to unmarshal config into config type: %w", err)
	}

	err = cfg.OK()
	if err != nil {
		return *new(T), fmt.Errorf("config is invalid: %w", err)
	}

	return cfg, nil
}
