package sensor

import "strings"

// Metric describes one measured quantity and the band the simulator draws from.
type Metric struct {
	Key   string // CSV column name
	Label string // e.g. "Temperature"
	Unit  string // e.g. "°C"
	Min   float64
	Max   float64
	get   func(Reading) float64
}

// Value extracts this metric from a reading.
func (m Metric) Value(r Reading) float64 {
	return m.get(r)
}

// Title returns the label with its unit, e.g. "Temperature (°C)".
func (m Metric) Title() string {
	return m.Label + " (" + m.Unit + ")"
}

var (
	Temperature = Metric{
		Key: "temperature", Label: "Temperature", Unit: "°C", Min: 28.0, Max: 32.0,
		get: func(r Reading) float64 { return r.Temperature },
	}
	Humidity = Metric{
		Key: "humidity", Label: "Humidity", Unit: "%", Min: 70.0, Max: 95.0,
		get: func(r Reading) float64 { return r.Humidity },
	}
	Airflow = Metric{
		Key: "airflow", Label: "Airflow", Unit: "m/s", Min: 0.6, Max: 2.4,
		get: func(r Reading) float64 { return r.Airflow },
	}
)

// Metrics lists the measured quantities in display and column order.
var Metrics = []Metric{Temperature, Humidity, Airflow}

// MetricByKey finds a metric by its column name (case-insensitive).
func MetricByKey(key string) (Metric, bool) {
	lower := strings.ToLower(strings.TrimSpace(key))
	for _, m := range Metrics {
		if m.Key == lower {
			return m, true
		}
	}
	return Metric{}, false
}
