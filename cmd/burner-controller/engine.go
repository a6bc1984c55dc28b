package main

import (
	"fmt"

	"github.com/sweeney/burner-controller/internal/clock"
	"github.com/sweeney/burner-controller/internal/logic"
	"github.com/sweeney/burner-controller/internal/profile"
)

// loadProfile returns the profile at path, or the built-in profile for mode
// when path is empty. A file's own mode must agree with mode when mode is
// set.
func loadProfile(mode, path string) (*profile.Profile, error) {
	if path == "" {
		if mode == "" {
			mode = profile.ModeStaged
		}
		return profile.Default(mode)
	}
	p, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	if mode != "" && p.Mode != mode {
		return nil, fmt.Errorf("profile %s is a %s profile, but --mode is %s", path, p.Mode, mode)
	}
	return p, nil
}

// buildEngine constructs the engine for mode from the profile at path, or
// from the built-in profile when path is empty.
func buildEngine(c clock.Clock, mode, path string) (logic.Engine, string, error) {
	p, err := loadProfile(mode, path)
	if err != nil {
		return nil, "", err
	}
	e, err := engineFromProfile(c, p)
	return e, p.Mode, err
}

func engineFromProfile(c clock.Clock, p *profile.Profile) (logic.Engine, error) {
	if p.Mode == profile.ModeStaged {
		cfg, err := p.Staged()
		if err != nil {
			return nil, err
		}
		return logic.NewStagedEngine(c, cfg)
	}
	cfg, err := p.Ignition()
	if err != nil {
		return nil, err
	}
	return logic.NewIgnitionEngine(c, cfg)
}

// currentStage names the active stage of a sequence-driven state, if any.
func currentStage(e logic.Engine) string {
	s, ok := e.(interface{ Sequence() *logic.StageSequence })
	if !ok {
		return ""
	}
	if seq := s.Sequence(); seq != nil {
		return seq.CurrentStage()
	}
	return ""
}
