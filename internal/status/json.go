package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/burner-controller/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string          `json:"event,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Mode           string          `json:"mode"`
	State          string          `json:"state"`
	Stage          string          `json:"stage,omitempty"`
	InStateMs      int64           `json:"in_state_ms"`
	CycleID        string          `json:"cycle_id,omitempty"`
	Outputs        OutputsJSON     `json:"outputs"`
	Inputs         InputsJSON      `json:"inputs"`
	LastTransition *TransitionJSON `json:"last_transition,omitempty"`
	Counts         CountsJSON      `json:"counts"`
	UptimeSeconds  int64           `json:"uptime_seconds"`
	StartTime      string          `json:"start_time"`
	Timestamp      string          `json:"timestamp"`
	MQTT           MQTTStatus      `json:"mqtt"`
	Config         ConfigJSON      `json:"config"`
}

// OutputsJSON is the JSON representation of hardware outputs.
type OutputsJSON struct {
	FanSpeed      float64 `json:"fan_speed"`
	GlowVolts     float64 `json:"glow_volts"`
	FuelPumpSpeed float64 `json:"fuel_pump_speed"`
	WaterPump     bool    `json:"water_pump"`
	Blower        bool    `json:"blower"`
}

// InputsJSON is the JSON representation of the last input snapshot. Absent
// readings are null.
type InputsJSON struct {
	Run              bool     `json:"run"`
	WaterTemp        *float64 `json:"water_temp"`
	FlameTemperature *float64 `json:"flame_temperature"`
}

// TransitionJSON is the JSON representation of a transition event.
type TransitionJSON struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// CountsJSON holds running totals.
type CountsJSON struct {
	Transitions int `json:"transitions"`
	Cycles      int `json:"cycles"`
	GuardErrors int `json:"guard_errors"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	Profile     string `json:"profile,omitempty"`
	TickMs      int64  `json:"tick_ms"`
	TelemetryMs int64  `json:"telemetry_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Simulate    bool   `json:"simulate"`
	GPIO        bool   `json:"gpio"`
}

func reading(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Outputs converts hardware outputs to their JSON form.
func Outputs(o logic.HardwareOutputs) OutputsJSON {
	return OutputsJSON{
		FanSpeed:      o.FanSpeed,
		GlowVolts:     o.GlowVolts,
		FuelPumpSpeed: o.FuelPumpSpeed,
		WaterPump:     o.WaterPumpOn,
		Blower:        o.BlowerOn,
	}
}

// Inputs converts an input snapshot to its JSON form.
func Inputs(s logic.Snapshot) InputsJSON {
	return InputsJSON{
		Run:              s.Controls.Run,
		WaterTemp:        reading(s.Controls.WaterTemp),
		FlameTemperature: reading(s.Sensors.FlameTemperature),
	}
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}
	inner := StatusInner{
		Mode:      snap.Config.Mode,
		State:     state,
		Stage:     snap.Stage,
		InStateMs: snap.InState().Milliseconds(),
		CycleID:   snap.CycleID,
		Outputs:   Outputs(snap.Outputs),
		Inputs:    Inputs(snap.Inputs),
		Counts: CountsJSON{
			Transitions: snap.Transitions,
			Cycles:      snap.Cycles,
			GuardErrors: snap.GuardErrors,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Profile:     snap.Config.Profile,
			TickMs:      snap.Config.TickMs,
			TelemetryMs: snap.Config.TelemetryMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Simulate:    snap.Config.Simulate,
			GPIO:        snap.Config.GPIO,
		},
	}
	if ev := snap.LastTransition; ev != nil {
		inner.LastTransition = &TransitionJSON{
			From:      string(ev.From),
			To:        string(ev.To),
			Reason:    string(ev.Reason),
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
