package web

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/burner-controller/internal/clock"
	"github.com/sweeney/burner-controller/internal/logic"
	"github.com/sweeney/burner-controller/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := status.Config{
		Mode:        "staged",
		TickMs:      250,
		TelemetryMs: 1000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":8080",
		Simulate:    true,
	}
	tr := status.NewTracker(clk, logic.StateIdle, cfg)
	ts := httptest.NewServer(New(":0", tr).Handler())
	t.Cleanup(ts.Close)
	return ts, tr, clk
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func startHigh(tr *status.Tracker, clk *clock.Fake) {
	clk.Advance(10 * time.Second)
	tr.Update(logic.Step{
		State:   logic.StateHigh,
		Outputs: logic.HardwareOutputs{FanSpeed: 125, FuelPumpSpeed: 445, WaterPumpOn: true},
		Transition: &logic.TransitionEvent{
			From: logic.StateStart, To: logic.StateHigh, Timestamp: clk.Now(), Reason: logic.ReasonSequenceComplete,
		},
	}, logic.Snapshot{
		Controls: logic.ControlSignals{Run: true, WaterTemp: 58},
		Sensors:  logic.SensorReadings{FlameTemperature: math.NaN()},
	}, "increasing power")
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, clk := newTestServer(t)
	startHigh(tr, clk)
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.State != "HIGH" || sj.Status.Stage != "increasing power" {
		t.Errorf("state/stage: got %q/%q", sj.Status.State, sj.Status.Stage)
	}
	if sj.Status.Outputs.FanSpeed != 125 || !sj.Status.Outputs.WaterPump {
		t.Errorf("outputs: %+v", sj.Status.Outputs)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected mqtt connected")
	}
	if sj.Status.UptimeSeconds != 10 {
		t.Errorf("uptime: got %d, want 10", sj.Status.UptimeSeconds)
	}
}

func TestHTMLEndpoints(t *testing.T) {
	ts, tr, clk := newTestServer(t)
	startHigh(tr, clk)

	for _, path := range []string{"/", "/index.html"} {
		resp, body := get(t, ts.URL+path)
		if resp.StatusCode != 200 {
			t.Errorf("%s: status %d", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: Content-Type %q", path, ct)
		}
		for _, want := range []string{
			"Burner Controller (staged)",
			`<td id="state" class="state">HIGH</td>`,
			`<td id="stage">increasing power</td>`,
			"58.0 °C",
			"no reading",
			"START &rarr; HIGH (sequence_complete)",
			"tcp://192.168.1.200:1883",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("%s: body missing %q", path, want)
			}
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected default Go collectors in /metrics output")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, clk := newTestServer(t)
	_, body := get(t, ts.URL+"/index.json")
	if !strings.Contains(body, `"state": "IDLE"`) {
		t.Errorf("expected IDLE before any tick: %s", body)
	}

	startHigh(tr, clk)
	_, body = get(t, ts.URL+"/index.json")
	if !strings.Contains(body, `"state": "HIGH"`) {
		t.Errorf("expected HIGH after update: %s", body)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	tr := status.NewTracker(clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), logic.StateIdle, status.Config{})
	h := New(":0", tr).Handler()

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/index.json", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	for i := 0; i < RequestsPerMinute; i++ {
		if code := do("192.0.2.10:4000"); code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, code)
		}
	}
	if code := do("192.0.2.10:4001"); code != http.StatusTooManyRequests {
		t.Errorf("over limit: got %d, want 429", code)
	}
	if code := do("192.0.2.11:4000"); code != http.StatusOK {
		t.Errorf("other client: got %d, want 200", code)
	}
}
