package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/burner-controller/internal/logic"
)

func TestRecordStep(t *testing.T) {
	before := testutil.ToFloat64(transitionsTotal.WithLabelValues("HIGH", "LOW", "sequence_complete"))
	ticks := testutil.ToFloat64(ticksTotal)

	RecordStep(logic.Step{
		State:   logic.StateLow,
		Outputs: logic.HardwareOutputs{FanSpeed: 200, WaterPumpOn: true},
		Transition: &logic.TransitionEvent{
			From: logic.StateHigh, To: logic.StateLow,
			Timestamp: time.Now(), Reason: logic.ReasonSequenceComplete,
		},
		StageEntered: "reducing power",
	})

	if got := testutil.ToFloat64(transitionsTotal.WithLabelValues("HIGH", "LOW", "sequence_complete")); got != before+1 {
		t.Errorf("transitions: got %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(ticksTotal); got != ticks+1 {
		t.Errorf("ticks: got %v, want %v", got, ticks+1)
	}
	if got := testutil.ToFloat64(currentState.WithLabelValues("LOW")); got != 1 {
		t.Errorf("state LOW: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(currentState.WithLabelValues("HIGH")); got != 0 {
		t.Errorf("state HIGH: got %v, want 0", got)
	}
	if got := testutil.ToFloat64(outputValue.WithLabelValues("fan_speed")); got != 200 {
		t.Errorf("fan_speed: got %v", got)
	}
	if got := testutil.ToFloat64(outputValue.WithLabelValues("water_pump")); got != 1 {
		t.Errorf("water_pump: got %v", got)
	}
	if got := testutil.ToFloat64(stagesEnteredTotal.WithLabelValues("LOW", "reducing power")); got < 1 {
		t.Errorf("stage entries: got %v", got)
	}
}

func TestCountersExposed(t *testing.T) {
	RecordGuardError(logic.StateBurnerStart)
	RecordCommand("console", false)
	SetMQTTConnected(true)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`burner_guard_errors_total{state="BURNER_START"}`,
		`burner_commands_total{outcome="rejected",source="console"}`,
		`burner_mqtt_connected 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
