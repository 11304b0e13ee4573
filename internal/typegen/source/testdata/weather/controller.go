package weather

import "errors"

const forecastRoute = "GetWeatherForecast"

// WeatherForecastController serves forecasts.
//
//fluxgen:route "[controller]"
type WeatherForecastController struct{}

//fluxgen:get forecastRoute
func (c *WeatherForecastController) GetForecast() ([]WeatherForecast, error) {
	return nil, errors.New("not implemented")
}

//fluxgen:get
func (c *WeatherForecastController) Latest() (*WeatherForecast, error) {
	return nil, nil
}

//fluxgen:post
func (c *WeatherForecastController) Create(f WeatherForecast) error {
	return nil
}

func (c *WeatherForecastController) helper() int { return 0 }

const apiPrefix = "api"

type (
	// StatusController reports service status.
	//fluxgen:route apiPrefix + "/[controller]"
	StatusController struct{}
)

//fluxgen:get "ping"
func (StatusController) Ping() string { return "pong" }

//fluxgen:get "count"
func (StatusController) Count() (Count, error) { return 0, nil }

//fluxgen:get "nothing"
func (StatusController) Nothing() {}

// Count is reported as a number.
type Count int64
