package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/whack-a-mole/internal/logger"
	"github.com/sweeney/whack-a-mole/internal/status"
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
	"inc": func(i int) int { return i + 1 },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Whack-a-Mole</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.leds span { display: inline-block; width: 1.6em; height: 1.6em; line-height: 1.6em; text-align: center; border-radius: 50%; margin-right: 6px; background: #ddd; }
.leds span.lit { background: #e33; color: white; font-weight: bold; }
.playing { color: green; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
pre { background: #f6f6f6; padding: 0.5em; min-height: 4em; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Whack-a-Mole{{if .Live}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Game</h2>
<table>
<tr><th>Status</th><td id="game-status" class="{{if eq (printf "%s" .Game.Status) "PLAYING"}}playing{{else}}idle{{end}}">{{.Game.Status}}</td></tr>
<tr><th>Level</th><td id="game-level">{{if .Game.Level}}{{.Game.Level}}{{else}}-{{end}}</td></tr>
<tr><th>Score</th><td id="game-score">{{.Game.Score}}</td></tr>
<tr><th>Moles</th><td class="leds">{{range $i, $on := .Game.LEDs}}<span id="led-{{inc $i}}"{{if $on}} class="lit"{{end}}>{{inc $i}}</span>{{end}}</td></tr>
</table>

<h2>Session</h2>
<table>
<tr><th>Games started</th><td>{{.Game.Stats.GamesStarted}}</td></tr>
<tr><th>Finished / stopped</th><td>{{.Game.Stats.GamesFinished}} / {{.Game.Stats.GamesStopped}}</td></tr>
<tr><th>Hits / misses</th><td>{{.Game.Stats.Hits}} / {{.Game.Stats.Misses}}</td></tr>
<tr><th>Moles spawned</th><td>{{.Game.Stats.MolesSpawned}}</td></tr>
<tr><th>Best score</th><td>{{.Game.Stats.BestScore}}</td></tr>
<tr><th>Last score</th><td>{{.Game.Stats.LastScore}}</td></tr>
</table>

<h2>Transcript</h2>
<pre id="transcript">{{range .Recent}}{{.}}{{end}}</pre>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Seed</th><td>{{if .Config.Seed}}{{.Config.Seed}}{{else}}clock{{end}}</td></tr>
<tr><th>Pins</th><td>{{.Config.Chip}} play={{.Config.PlayPins}} stop={{.Config.StopPin}} led={{.Config.LEDPins}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
{{if .Live}}
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var statusEl = document.getElementById("game-status");
  var levelEl = document.getElementById("game-level");
  var scoreEl = document.getElementById("game-score");
  var transcript = document.getElementById("transcript");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setLit(leds) {
    for (var i = 1; i <= 4; i++) {
      document.getElementById("led-" + i).className = leds.indexOf(i) >= 0 ? "lit" : "";
    }
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
        var m = JSON.parse(ev.data).mole;
        transcript.textContent = (transcript.textContent + m.text).split("\n").slice(-24).join("\n");
        scoreEl.textContent = m.score;
        switch (m.event) {
        case "IDLE":
          statusEl.textContent = "IDLE"; statusEl.className = "idle";
          levelEl.textContent = "-"; setLit([]);
          break;
        case "STARTED":
          statusEl.textContent = "PLAYING"; statusEl.className = "playing";
          levelEl.textContent = m.level;
          break;
        case "LEVEL":
          levelEl.textContent = m.level;
          break;
        case "POPPED":
        case "HIT":
          setLit(m.leds || []);
          break;
        case "FINISHED":
        case "STOPPED":
          setLit([]);
          break;
        }
      } catch (e) {}
    };
  }
  connect();
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, live bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Live   bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Live:     live,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		logger.Warn("render status page", "err", err)
	}
}
