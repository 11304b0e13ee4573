package other

// WeatherForecast shares its name with the weather package model.
type WeatherForecast struct {
	Celsius float64
}
