package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/owm"
)

// Fetches and prints current weather for the configured cities,
// useful for checking the API key and city names.
func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if cnfg.Extract.ApiKey == "" {
		cnfg.Extract.ApiKey = os.Getenv("OPENWEATHERMAP_API_KEY")
	}

	client := owm.New(cnfg.Extract.ApiKey, cnfg.Extract.BaseUrl, cnfg.Extract.GetTimeout())

	for _, city := range cnfg.CityList() {
		obs, err := client.CurrentWeather(context.Background(), city)
		if err != nil {
			fmt.Printf("%s: error: %v\n", city.Name, err)
			continue
		}
		fmt.Printf("%s: %.1f°C, humidity %.0f%%, wind %.1f m/s, %s\n",
			obs.City.Name,
			obs.Temperature.ValueOrDefault(0),
			obs.Humidity.ValueOrDefault(0),
			obs.WindSpeed.ValueOrDefault(0),
			obs.Condition)
	}
}
