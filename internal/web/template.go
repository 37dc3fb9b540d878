package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/wps-button/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
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
<title>WPS Button</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>WPS Button<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>State</h2>
<table>
<tr><th>Button</th><td id="button">{{if .Board.ButtonDown}}PRESSED{{else}}RELEASED{{end}}</td></tr>
<tr><th>Long press</th><td id="long-press">{{if .Board.LongPress}}yes{{else}}no{{end}}</td></tr>
<tr><th>Pairing</th><td id="pairing" class="{{if eq (printf "%s" .Board.Pairing) "ACTIVE"}}on{{else}}off{{end}}">{{stateOrUnknown (printf "%s" .Board.Pairing)}}</td></tr>
<tr><th>Attempt</th><td id="attempt">{{.Board.Attempt}}</td></tr>
<tr><th>Indicator</th><td id="indicator" class="{{if .Board.Indicator}}on{{else}}off{{end}}">{{onOff .Board.Indicator}}</td></tr>
</table>

{{with .LastCompletion}}<h2>Last Completion</h2>
<table>
<tr><th>Result</th><td>{{.Type}} ({{.Status}})</td></tr>
<tr><th>Attempt</th><td>{{.Attempt}}</td></tr>
<tr><th>At</th><td>{{.At.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
</table>{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Gestures</th><td id="count-gestures">{{.Counts.Gestures}}</td></tr>
<tr><th>Started</th><td id="count-started">{{.Counts.Started}}</td></tr>
<tr><th>Enable failed</th><td>{{.Counts.EnableFailed}}</td></tr>
<tr><th>Start failed</th><td>{{.Counts.StartFailed}}</td></tr>
<tr><th>Disabled</th><td>{{.Counts.Disabled}}</td></tr>
<tr><th>Succeeded</th><td id="count-succeeded">{{.Counts.Succeeded}}</td></tr>
<tr><th>Failed</th><td id="count-failed">{{.Counts.Failed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Hold</th><td>{{.Config.HoldMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Radio</th><td>{{.Config.Radio}}</td></tr>
<tr><th>Pins</th><td>button {{.Config.PinButton}}, LED {{.Config.PinLED}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var els = {
    button: document.getElementById("button"),
    longPress: document.getElementById("long-press"),
    pairing: document.getElementById("pairing"),
    attempt: document.getElementById("attempt"),
    indicator: document.getElementById("indicator"),
    gestures: document.getElementById("count-gestures"),
    started: document.getElementById("count-started"),
    succeeded: document.getElementById("count-succeeded"),
    failed: document.getElementById("count-failed")
  };

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        els.button.textContent = s.button.down ? "PRESSED" : "RELEASED";
        els.longPress.textContent = s.button.long_press ? "yes" : "no";
        els.pairing.textContent = s.pairing.state;
        els.pairing.className = s.pairing.state === "ACTIVE" ? "on" : "off";
        els.attempt.textContent = s.pairing.attempt || "";
        els.indicator.textContent = s.indicator ? "ON" : "OFF";
        els.indicator.className = s.indicator ? "on" : "off";
        els.gestures.textContent = s.event_counts.gestures;
        els.started.textContent = s.event_counts.started;
        els.succeeded.textContent = s.event_counts.succeeded;
        els.failed.textContent = s.event_counts.failed;
      } catch (e) {}
    };
  }

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
