// Package metrics exposes controller activity as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/burner-controller/internal/logic"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "burner_ticks_total",
		Help: "Total number of engine ticks",
	})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burner_transitions_total",
		Help: "Macro-state transitions by source, target and reason",
	}, []string{"from", "to", "reason"})

	stagesEnteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burner_stages_entered_total",
		Help: "Stage entries by macro-state and stage name",
	}, []string{"state", "stage"})

	guardErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burner_guard_errors_total",
		Help: "Guard evaluation failures by macro-state",
	}, []string{"state"})

	currentState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "burner_state",
		Help: "1 for the active macro-state, 0 for every other state",
	}, []string{"state"})

	outputValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "burner_output",
		Help: "Current hardware output values",
	}, []string{"output"}) // output=fan_speed|glow_volts|fuel_pump_speed|water_pump|blower

	mqttConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "burner_mqtt_connected",
		Help: "Whether the MQTT publisher is connected (1) or not (0)",
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burner_commands_total",
		Help: "Operator commands by source and outcome",
	}, []string{"source", "outcome"}) // source=console|mqtt, outcome=applied|rejected
)

var states = []logic.MacroState{
	logic.StateIdle, logic.StateStart, logic.StateHigh, logic.StateLow, logic.StateShutdown,
	logic.StateFanStart, logic.StateFuelPumpStart, logic.StateBurnerStart, logic.StateBurnerRun,
}

// RecordStep updates tick, transition, stage, state and output metrics from
// one engine step.
func RecordStep(step logic.Step) {
	ticksTotal.Inc()
	if ev := step.Transition; ev != nil {
		transitionsTotal.WithLabelValues(string(ev.From), string(ev.To), string(ev.Reason)).Inc()
	}
	if step.StageEntered != "" {
		stagesEnteredTotal.WithLabelValues(string(step.State), step.StageEntered).Inc()
	}
	for _, s := range states {
		v := 0.0
		if s == step.State {
			v = 1
		}
		currentState.WithLabelValues(string(s)).Set(v)
	}
	out := step.Outputs
	outputValue.WithLabelValues("fan_speed").Set(out.FanSpeed)
	outputValue.WithLabelValues("glow_volts").Set(out.GlowVolts)
	outputValue.WithLabelValues("fuel_pump_speed").Set(out.FuelPumpSpeed)
	outputValue.WithLabelValues("water_pump").Set(boolValue(out.WaterPumpOn))
	outputValue.WithLabelValues("blower").Set(boolValue(out.BlowerOn))
}

// RecordGuardError counts a failed guard evaluation in state.
func RecordGuardError(state logic.MacroState) {
	guardErrorsTotal.WithLabelValues(string(state)).Inc()
}

// SetMQTTConnected records the publisher's connectivity.
func SetMQTTConnected(connected bool) {
	mqttConnected.Set(boolValue(connected))
}

// RecordCommand counts an operator command.
func RecordCommand(source string, applied bool) {
	outcome := "applied"
	if !applied {
		outcome = "rejected"
	}
	commandsTotal.WithLabelValues(source, outcome).Inc()
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
