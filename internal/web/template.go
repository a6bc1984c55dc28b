package web

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/sweeney/burner-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"duration": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"reading": func(v float64, unit string) string {
		if math.IsNaN(v) {
			return "no reading"
		}
		return fmt.Sprintf("%.1f %s", v, unit)
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Burner Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.state { font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.warn { color: orange; }
</style>
</head>
<body>
<h1>Burner Controller ({{.Config.Mode}})</h1>

<h2>State</h2>
<table>
<tr><th>State</th><td id="state" class="state">{{stateOrUnknown (printf "%s" .State)}}</td></tr>
{{if .Stage}}<tr><th>Stage</th><td id="stage">{{.Stage}}</td></tr>{{end}}
<tr><th>In state</th><td>{{duration .InState}}</td></tr>
<tr><th>Cycle</th><td>{{if .CycleID}}{{.CycleID}}{{else}}idle{{end}}</td></tr>
{{with .LastTransition}}<tr><th>Last transition</th><td>{{.From}} &rarr; {{.To}} ({{.Reason}})</td></tr>{{end}}
</table>

<h2>Outputs</h2>
<table>
<tr><th>Fan speed</th><td>{{printf "%.1f" .Outputs.FanSpeed}}</td></tr>
<tr><th>Glow plug</th><td>{{printf "%.1f" .Outputs.GlowVolts}} V</td></tr>
<tr><th>Fuel pump</th><td>{{printf "%.1f" .Outputs.FuelPumpSpeed}}</td></tr>
<tr><th>Water pump</th><td class="{{if .Outputs.WaterPumpOn}}on{{else}}off{{end}}">{{onOff .Outputs.WaterPumpOn}}</td></tr>
<tr><th>Blower</th><td class="{{if .Outputs.BlowerOn}}on{{else}}off{{end}}">{{onOff .Outputs.BlowerOn}}</td></tr>
</table>

<h2>Inputs</h2>
<table>
<tr><th>Run</th><td class="{{if .Inputs.Controls.Run}}on{{else}}off{{end}}">{{onOff .Inputs.Controls.Run}}</td></tr>
<tr><th>Water</th><td>{{reading .Inputs.Controls.WaterTemp "°C"}}</td></tr>
<tr><th>Flame</th><td>{{reading .Inputs.Sensors.FlameTemperature "°C"}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Transitions</th><td>{{.Transitions}}</td></tr>
<tr><th>Cycles</th><td>{{.Cycles}}</td></tr>
<tr><th>Guard errors</th><td{{if .GuardErrors}} class="warn" title="{{.LastGuardError}}"{{end}}>{{.GuardErrors}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{duration .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Profile</th><td>{{if .Config.Profile}}{{.Config.Profile}}{{else}}built-in{{end}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Telemetry</th><td>{{.Config.TelemetryMs}}ms</td></tr>
<tr><th>Inputs from</th><td>{{if .Config.Simulate}}simulator{{else}}operator{{end}}{{if .Config.GPIO}} + GPIO{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Uptime and InState are methods; the template needs plain fields.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		InState time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		InState:  snap.InState(),
	}
	indexTmpl.Execute(w, data)
}
