package profile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/burner-controller/internal/clock"
	"github.com/sweeney/burner-controller/internal/logic"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func snap(run bool, water, flame float64) logic.Snapshot {
	return logic.Snapshot{
		Controls: logic.ControlSignals{Run: run, WaterTemp: water},
		Sensors:  logic.SensorReadings{FlameTemperature: flame},
	}
}

// input returns the snapshot fed on tick i of a scripted run: run held high
// for a while, water swinging through both thresholds, then run dropped.
func input(i int) logic.Snapshot {
	switch {
	case i < 60:
		return snap(true, 50, 0)
	case i < 120:
		return snap(true, 70, 0)
	case i < 180:
		return snap(true, 50, 0)
	case i < 200:
		return snap(true, 70, 0)
	default:
		return snap(false, 70, 0)
	}
}

func TestDefaultStagedMatchesBuiltinConfig(t *testing.T) {
	p, err := Default(ModeStaged)
	require.NoError(t, err)
	cfg, err := p.Staged()
	require.NoError(t, err)

	clkA, clkB := clock.NewFake(t0), clock.NewFake(t0)
	fromYAML, err := logic.NewStagedEngine(clkA, cfg)
	require.NoError(t, err)
	builtin, err := logic.NewStagedEngine(clkB, logic.DefaultStagedConfig())
	require.NoError(t, err)

	seen := map[logic.MacroState]bool{}
	for i := 0; i < 300; i++ {
		a, errA := fromYAML.Tick(input(i))
		b, errB := builtin.Tick(input(i))
		require.NoError(t, errA)
		require.NoError(t, errB)
		require.Equal(t, b, a, "tick %d", i)
		seen[a.State] = true
		clkA.Advance(250 * time.Millisecond)
		clkB.Advance(250 * time.Millisecond)
	}
	for _, s := range []logic.MacroState{logic.StateIdle, logic.StateStart, logic.StateHigh, logic.StateLow, logic.StateShutdown} {
		assert.True(t, seen[s], "never visited %s", s)
	}
}

func TestDefaultIgnitionMatchesBuiltinConfig(t *testing.T) {
	p, err := Default(ModeIgnition)
	require.NoError(t, err)
	cfg, err := p.Ignition()
	require.NoError(t, err)

	clkA, clkB := clock.NewFake(t0), clock.NewFake(t0)
	fromYAML, err := logic.NewIgnitionEngine(clkA, cfg)
	require.NoError(t, err)
	builtin, err := logic.NewIgnitionEngine(clkB, logic.DefaultIgnitionConfig())
	require.NoError(t, err)

	seen := map[logic.MacroState]bool{}
	for i := 0; i < 400; i++ {
		flame := 0.0
		if i >= 100 {
			flame = 250
		}
		a, errA := fromYAML.Tick(snap(true, 50, flame))
		b, errB := builtin.Tick(snap(true, 50, flame))
		require.NoError(t, errA)
		require.NoError(t, errB)
		require.Equal(t, b, a, "tick %d", i)
		seen[a.State] = true
		clkA.Advance(250 * time.Millisecond)
		clkB.Advance(250 * time.Millisecond)
	}
	assert.True(t, seen[logic.StateBurnerRun])
}

func TestDefaultUnknownMode(t *testing.T) {
	_, err := Default("turbo")
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"unknown field", "mode: staged\ncolour: red\nstates: {}\n"},
		{"bad mode", "mode: turbo\nstates: {}\n"},
		{"two documents", "mode: ignition\nstates: {IDLE: {}}\n---\nmode: staged\n"},
		{"unknown state", "mode: ignition\nstates:\n  WARP: {runtime: 1s}\n"},
		{"unknown target", "mode: ignition\nstates:\n  IDLE:\n    transitions: [{when: 'true', to: WARP}]\n"},
		{"bad duration", "mode: ignition\nstates:\n  IDLE: {runtime: soon}\n"},
		{"bad range", "mode: ignition\nstates:\n  IDLE:\n    outputs: {fan_speed: [1, 2, 3]}\n"},
		{"syntax error", "mode: ignition\nstates:\n  IDLE:\n    transitions: [{when: 'run &&', to: FAN_START}]\n  FAN_START: {}\n"},
		{"not bool", "mode: ignition\nstates:\n  IDLE:\n    transitions: [{when: 'water_temp + 1.0', to: FAN_START}]\n  FAN_START: {}\n"},
		{"undeclared variable", "mode: ignition\nstates:\n  IDLE:\n    transitions: [{when: 'pressure > 1.0', to: FAN_START}]\n  FAN_START: {}\n"},
		{"empty expression", "mode: ignition\nstates:\n  IDLE:\n    transitions: [{to: FAN_START}]\n  FAN_START: {}\n"},
		{"ignition fields in staged", "mode: staged\nstates:\n  IDLE: {runtime: 1s}\n"},
		{"staged fields in ignition", "mode: ignition\nstates:\n  IDLE:\n    next: FAN_START\n"},
		{"stages and transitions", "mode: staged\nstates:\n  START:\n    next: IDLE\n    stages: [{name: a, duration: 1s}]\n    transitions: [{when: run, to: IDLE}]\n"},
		{"next without stages", "mode: staged\nstates:\n  IDLE: {next: START}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			var cfgErr *logic.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %T: %v", err, err)
		})
	}
}

func TestStagedEngineRejectsIncompleteProfile(t *testing.T) {
	// Parses and compiles, but has no SHUTDOWN sequence.
	p, err := Parse([]byte("mode: staged\nstates:\n  IDLE:\n    transitions: [{when: run, to: START}]\n  START:\n    next: IDLE\n    stages: [{name: warm up, duration: 1s}]\n"))
	require.NoError(t, err)
	cfg, err := p.Staged()
	require.NoError(t, err)

	_, err = logic.NewStagedEngine(clock.NewFake(t0), cfg)
	var cfgErr *logic.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestModeMismatch(t *testing.T) {
	p, err := Default(ModeIgnition)
	require.NoError(t, err)
	_, err = p.Staged()
	var cfgErr *logic.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestGuardExpressions(t *testing.T) {
	env, err := newEnv()
	require.NoError(t, err)

	tests := []struct {
		expr string
		snap logic.Snapshot
		want bool
	}{
		{"run", snap(true, 0, 0), true},
		{"!run", snap(true, 0, 0), false},
		{"water_temp > 65.0", snap(false, 65.5, 0), true},
		{"water_temp > 65.0", snap(false, 65, 0), false},
		{"flame_temperature >= 200.0 && run", snap(true, 0, 200), true},
		{"elapsed_ms >= 1500", logic.Snapshot{Elapsed: 1500 * time.Millisecond}, true},
		{"elapsed_ms >= 1500", logic.Snapshot{Elapsed: time.Second}, false},
		{"flame_temperature >= 200", snap(false, 0, 200), true},
		{"flame_temperature >= 200", snap(false, 0, 199.5), false},
		{"water_temp < 55 && elapsed_ms > 0.5", logic.Snapshot{Controls: logic.ControlSignals{WaterTemp: 54}, Elapsed: time.Millisecond}, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			g, err := compileGuard(env, "test", tt.expr)
			require.NoError(t, err)
			got, err := g(tt.snap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuardMissingInput(t *testing.T) {
	env, err := newEnv()
	require.NoError(t, err)
	g, err := compileGuard(env, "test", "flame_temperature < 200.0")
	require.NoError(t, err)

	_, err = g(snap(true, 50, math.NaN()))
	assert.ErrorIs(t, err, logic.ErrMissingInput)

	// Expressions that do not read the missing value still evaluate.
	g, err = compileGuard(env, "test", "run")
	require.NoError(t, err)
	ok, err := g(snap(true, 50, math.NaN()))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuardEvaluationFailureSurfacesFromEngine(t *testing.T) {
	doc := `
mode: ignition
states:
  IDLE:
    transitions:
      - when: "1 / (elapsed_ms - elapsed_ms) > 0"
        to: FAN_START
  FAN_START: {}
`
	p, err := Parse([]byte(doc))
	require.NoError(t, err)
	cfg, err := p.Ignition()
	require.NoError(t, err)
	e, err := logic.NewIgnitionEngine(clock.NewFake(t0), cfg)
	require.NoError(t, err)

	s, err := e.Tick(snap(true, 50, 0))
	var guardErr *logic.GuardEvaluationError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, logic.StateIdle, guardErr.State)
	assert.Equal(t, logic.StateIdle, s.State)
	assert.Nil(t, s.Transition)
}

func TestLoadAndMarshalRoundTrip(t *testing.T) {
	p, err := Default(ModeStaged)
	require.NoError(t, err)
	data, err := p.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "glow_volts: 8.2")
	assert.Contains(t, string(data), "duration: 2s")

	path := filepath.Join(t.TempDir(), "staged.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
