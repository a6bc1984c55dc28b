package logic

import "time"

// Output levels from the burner firmware.
const (
	FanSpeedOff       = 0
	FanSpeedVerySmall = 20
	FanSpeedSmall     = 50
	FanSpeedMedium    = 80
	FanSpeedLarge     = 200

	FuelPumpOff    = 0 // ml/h
	FuelPumpLow    = 270
	FuelPumpMedium = 480
	FuelPumpHigh   = 620

	GlowVoltsOn  = 8.2
	GlowVoltsOff = 0
)

// Water temperature thresholds of the staged HIGH/LOW cycle.
const (
	HighToLowThreshold = 65.0 // leave HIGH once water is above this
	LowToHighThreshold = 55.0 // leave LOW once water is below this
)

// FlameProvenThreshold is the flame temperature that proves ignition.
const FlameProvenThreshold = 200.0

// DefaultStagedConfig returns the staged control cycle with the firmware's
// timings and output ramps.
func DefaultStagedConfig() StagedConfig {
	return StagedConfig{
		Initial: StateIdle,
		Transitions: map[MacroState][]TransitionRule{
			StateIdle: {{Guard: RunIs(true), Target: StateStart}},
		},
		Sequences: map[MacroState]SequenceSpec{
			StateStart: {
				Next: StateHigh,
				Stages: []Stage{
					{Name: "initialising component A", Duration: 2 * time.Second, Ramp: &OutputProfile{
						FanSpeed: Range{FanSpeedOff, FanSpeedSmall}, GlowVolts: Flat(GlowVoltsOn),
					}},
					{Name: "initialising component B", Duration: 2 * time.Second, Ramp: &OutputProfile{
						FanSpeed: Flat(FanSpeedSmall), GlowVolts: Flat(GlowVoltsOn),
					}},
					{Name: "initialising component C", Duration: 2 * time.Second, Ramp: &OutputProfile{
						FanSpeed:      Range{FanSpeedSmall, FanSpeedVerySmall},
						FuelPumpSpeed: Range{FuelPumpOff, FuelPumpLow},
						GlowVolts:     Flat(GlowVoltsOn),
						WaterPump:     true, Blower: true,
					}},
					{Name: "power check", Duration: 2 * time.Second, Ramp: &OutputProfile{
						FanSpeed:      Range{FanSpeedVerySmall, FanSpeedMedium},
						FuelPumpSpeed: Range{FuelPumpLow, FuelPumpMedium},
						GlowVolts:     Flat(GlowVoltsOn),
						WaterPump:     true, Blower: true,
					}},
					{Name: "system ready", Duration: 2 * time.Second, Ramp: &OutputProfile{
						FanSpeed:      Range{FanSpeedMedium, FanSpeedLarge},
						FuelPumpSpeed: Range{FuelPumpMedium, FuelPumpHigh},
						GlowVolts:     Range{GlowVoltsOn, GlowVoltsOff},
						WaterPump:     true, Blower: true,
					}},
				},
			},
			StateHigh: {
				Next: StateLow,
				Stages: []Stage{
					{Name: "increasing power", Duration: 5 * time.Second, Ramp: &OutputProfile{
						FanSpeed:      Range{FanSpeedSmall, FanSpeedLarge},
						FuelPumpSpeed: Range{FuelPumpLow, FuelPumpHigh},
						WaterPump:     true,
					}},
					{Name: "monitoring temperature", Condition: WaterAbove(HighToLowThreshold), Ramp: &OutputProfile{
						FanSpeed:      Flat(FanSpeedLarge),
						FuelPumpSpeed: Flat(FuelPumpHigh),
						WaterPump:     true,
					}},
				},
			},
			StateLow: {
				Next: StateHigh,
				Stages: []Stage{
					{Name: "reducing power", Duration: 5 * time.Second, Ramp: &OutputProfile{
						FanSpeed:      Range{FanSpeedLarge, FanSpeedSmall},
						FuelPumpSpeed: Range{FuelPumpHigh, FuelPumpLow},
						WaterPump:     true,
					}},
					{Name: "monitoring temperature", Condition: WaterBelow(LowToHighThreshold), Ramp: &OutputProfile{
						FanSpeed:      Flat(FanSpeedSmall),
						FuelPumpSpeed: Flat(FuelPumpLow),
						WaterPump:     true,
					}},
				},
			},
			StateShutdown: {
				Next: StateIdle,
				Stages: []Stage{
					{Name: "initialising shutdown", Duration: 5 * time.Second, Ramp: &OutputProfile{
						FanSpeed:  Range{FanSpeedSmall, FanSpeedLarge},
						GlowVolts: Flat(GlowVoltsOn),
						Blower:    true,
					}},
					{Name: "finalising shutdown", Duration: 10 * time.Second, Ramp: &OutputProfile{
						FanSpeed: Range{FanSpeedLarge, FanSpeedOff},
					}},
				},
			},
		},
	}
}

// DefaultIgnitionConfig returns the timed ignition sequence.
func DefaultIgnitionConfig() IgnitionConfig {
	const window = 5 * time.Second
	return IgnitionConfig{
		Initial: StateIdle,
		Params: map[MacroState]StateParams{
			StateIdle: {},
			StateFanStart: {Runtime: window, OutputProfile: OutputProfile{
				FanSpeed: Range{30, 100},
			}},
			StateFuelPumpStart: {Runtime: window, OutputProfile: OutputProfile{
				FanSpeed:  Range{100, 150},
				GlowVolts: Range{75, 100},
			}},
			StateBurnerStart: {Runtime: window, OutputProfile: OutputProfile{
				FanSpeed:      Range{150, 200},
				GlowVolts:     Flat(100),
				FuelPumpSpeed: Range{20, 100},
				WaterPump:     true, Blower: true,
			}},
			StateBurnerRun: {Runtime: 2 * window, OutputProfile: OutputProfile{
				FanSpeed:      Flat(200),
				GlowVolts:     Range{100, 0},
				FuelPumpSpeed: Flat(100),
				WaterPump:     true, Blower: true,
			}},
		},
		Transitions: map[MacroState][]TransitionRule{
			StateIdle:          {{Guard: Always, Target: StateFanStart}},
			StateFanStart:      {{Guard: Always, Target: StateFuelPumpStart}},
			StateFuelPumpStart: {{Guard: Always, Target: StateBurnerStart}},
			StateBurnerStart: {
				{Guard: FlameAtLeast(FlameProvenThreshold), Target: StateBurnerRun},
				{Guard: FlameBelow(FlameProvenThreshold), Target: StateIdle},
			},
			StateBurnerRun: {{Guard: Always, Target: StateIdle}},
		},
	}
}
