package httpadapter

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
)

// Plot area for the marker map, in SVG units.
const (
	plotWidth  = 700
	plotHeight = 500
)

var toneHex = map[domain.RiskColor]string{
	domain.RiskRed:    "#dc2626",
	domain.RiskOrange: "#ea580c",
	domain.RiskYellow: "#ca8a04",
	domain.RiskGreen:  "#16a34a",
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"hex": func(c domain.RiskColor) string { return toneHex[c] },
	"x":   projectX,
	"y":   projectY,
	"w":   func() int { return plotWidth },
	"h":   func() int { return plotHeight },
}).Parse(dashboardHTML))

// projectX maps a longitude within the synthesis box onto the plot width.
func projectX(c domain.Coordinate) string {
	minLng := domain.CenterLng - domain.LngSpread/2
	return fmt.Sprintf("%.1f", (c.Lng-minLng)/domain.LngSpread*plotWidth)
}

// projectY maps a latitude within the synthesis box onto the plot height,
// north up.
func projectY(c domain.Coordinate) string {
	maxLat := domain.CenterLat + domain.LatSpread/2
	return fmt.Sprintf("%.1f", (maxLat-c.Lat)/domain.LatSpread*plotHeight)
}

func renderDashboard(view domain.DashboardView) ([]byte, error) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute dashboard template: %w", err)
	}
	return buf.Bytes(), nil
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Grid Outage Risk</title>
</head>
<body>
<header>
  <h1>Grid Outage Risk</h1>
  <span id="status" data-status="{{.Status}}">{{.StatusLabel}}</span>
  {{with .ModelVersion}}<span id="model-version">model {{.}}</span>{{end}}
  <button id="storm" data-storm="{{.StormMode}}">{{.StormAction}}</button>
</header>

<section id="summary">
  <div>Total feeders <strong>{{.Summary.TotalFeeders}}</strong></div>
  <div>High risk <strong>{{.Summary.HighRisk}}</strong></div>
  <div>Critical <strong>{{.Summary.Critical}}</strong></div>
</section>

<main>
  <aside id="feeders">
  {{if .Loading}}<p>Loading...</p>
  {{else if .EmptyMessage}}<p>{{.EmptyMessage}}</p>
  {{else}}
    <ul>
    {{range .Feeders}}
      <li>
        <span class="feeder-id">{{.FeederID}}</span>
        <span class="badge" style="color: {{hex .SeverityTone}}">{{.Severity}}</span>
        <span class="probability">{{.Probability}}</span>
        <span class="etr">{{.Restoration}}</span>
      </li>
    {{end}}
    </ul>
  {{end}}
  </aside>

  <svg id="map" viewBox="0 0 {{w}} {{h}}" data-center-lat="{{.Map.Center.Lat}}" data-center-lng="{{.Map.Center.Lng}}" data-zoom="{{.Map.Zoom}}">
  {{range .Markers}}
    <circle cx="{{x .Coordinate}}" cy="{{y .Coordinate}}" r="6" fill="{{hex .Color}}">
      <title>{{.Popup.Title}}
Risk: {{.Popup.RiskScore}}
Wind: {{.Popup.Wind}}
Status: {{.Popup.Status}}
ETR: {{.Popup.Restoration}}</title>
    </circle>
  {{end}}
  </svg>
</main>

<script>
  const stormButton = document.getElementById("storm");
  stormButton.addEventListener("click", () => {
    fetch("/api/storm", {method: "POST"}).then(() => location.reload());
  });
  const proto = location.protocol === "https:" ? "wss://" : "ws://";
  const socket = new WebSocket(proto + location.host + "/ws");
  let first = true;
  socket.onmessage = () => {
    if (first) { first = false; return; }
    location.reload();
  };
</script>
</body>
</html>
`
