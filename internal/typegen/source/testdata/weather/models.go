package weather

import "time"

type WeatherForecast struct {
	Date         time.Time `json:"date"`
	TemperatureC int       `json:"temperatureC"`
	Summary      *string   `json:"summary,omitempty"`
	Tags         []string  `json:"tags"`
	Raw          []byte    `json:"raw"`
	Internal     string    `json:"-"`
	hidden       int
	Meta
}

type Meta struct {
	Source string
}
