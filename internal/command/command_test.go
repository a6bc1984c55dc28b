package command

import (
	"errors"
	"testing"

	"github.com/sweeney/burner-controller/internal/signals"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"R", Command{Kind: KindRun}},
		{" r ", Command{Kind: KindRun}},
		{"S", Command{Kind: KindStop}},
		{"W60", Command{Kind: KindWaterTemp, Value: 60}},
		{"w 66.5", Command{Kind: KindWaterTemp, Value: 66.5}},
		{"F220", Command{Kind: KindFlameTemp, Value: 220}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, line := range []string{"", "X", "W", "Wabc", "RUN", "FNaN", "W+Inf"} {
		if _, err := Parse(line); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q): expected ErrInvalid, got %v", line, err)
		}
	}
}

func TestApply(t *testing.T) {
	store := signals.NewStore()
	for _, line := range []string{"R", "W70", "F205"} {
		c, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		c.Apply(store)
	}
	snap := store.Snapshot()
	if !snap.Controls.Run || snap.Controls.WaterTemp != 70 || snap.Sensors.FlameTemperature != 205 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	Command{Kind: KindStop}.Apply(store)
	if store.Snapshot().Controls.Run {
		t.Error("expected run=false after STOP")
	}
}

func TestString(t *testing.T) {
	if got := (Command{Kind: KindWaterTemp, Value: 60}).String(); got != "WATER_TEMP=60.0" {
		t.Errorf("got %q", got)
	}
	if got := (Command{Kind: KindRun}).String(); got != "RUN" {
		t.Errorf("got %q", got)
	}
}

func TestDecode(t *testing.T) {
	cmds, err := Decode([]byte(`{"run":true,"water_temp":{"value":61.5},"flame_temp":{"raw":128}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Command{
		{Kind: KindRun},
		{Kind: KindWaterTemp, Value: 61.5},
		{Kind: KindFlameTemp, Value: 300},
	}
	if len(cmds) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(cmds))
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("command %d: got %+v, want %+v", i, cmds[i], want[i])
		}
	}

	cmds, err = Decode([]byte(`{"run":false}`))
	if err != nil || len(cmds) != 1 || cmds[0].Kind != KindStop {
		t.Errorf("run=false: got %+v, %v", cmds, err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`{}`,
		`{"water_temp":{}}`,
		`{"flame_temp":{"value":1,"raw":2}}`,
	} {
		if _, err := Decode([]byte(payload)); !errors.Is(err, ErrInvalid) {
			t.Errorf("Decode(%s): expected ErrInvalid, got %v", payload, err)
		}
	}
}
