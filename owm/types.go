package owm

const BaseUrl = "https://api.openweathermap.org/data/2.5"

// Payload shapes for the OpenWeatherMap /weather and /forecast endpoints.
// Blocks the provider omits when it has no data (wind, rain, sometimes
// main fields on partial outages) are pointers so absence survives
// decoding instead of turning into a zero reading.

type currentPayload struct {
	Dt      int64  `json:"dt"`
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Rain *struct {
		OneHour   *float64 `json:"1h"`
		ThreeHour *float64 `json:"3h"`
	} `json:"rain"`
	Snow *struct {
		OneHour   *float64 `json:"1h"`
		ThreeHour *float64 `json:"3h"`
	} `json:"snow"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type forecastPayload struct {
	List []struct {
		Dt      int64 `json:"dt"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}
