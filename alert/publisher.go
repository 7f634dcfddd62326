package alert

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/types"
)

const publishTimeout = 5 * time.Second

// Publisher pushes extreme-weather events to an MQTT broker, one JSON
// message per event on "<prefix>/<city-slug>". Alerting is best effort:
// a failed publish is logged and dropped, the pipeline run is already
// committed by the time events reach the broker.
type Publisher struct {
	mqttClient  mqtt.Client
	logger      *slog.Logger
	topicPrefix string
}

type eventMessage struct {
	City          string  `json:"city"`
	Date          string  `json:"date"`
	EventType     string  `json:"event_type"`
	MetricValue   float64 `json:"metric_value"`
	ThresholdUsed float64 `json:"threshold_used"`
	Description   string  `json:"description"`
}

func NewPublisher(cnfg config.AppConfigAlert) *Publisher {
	logger := slog.Default().With("module", "alert")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.Port))
	opts.SetClientID("weather-data-pipeline")
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("alert broker connected")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("alert broker connection lost", slog.Any("error", err))
	}

	mqttLog := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLog, slog.LevelWarn)

	return &Publisher{
		mqttClient:  mqtt.NewClient(opts),
		logger:      logger,
		topicPrefix: cnfg.GetTopicPrefix(),
	}
}

func (p *Publisher) Connect() error {
	token := p.mqttClient.Connect()
	if ok := token.WaitTimeout(publishTimeout); !ok {
		return fmt.Errorf("timeout connecting to alert broker")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to alert broker: %w", err)
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.mqttClient.Disconnect(250)
}

// PublishEvents sends every event and reports how many actually went out.
func (p *Publisher) PublishEvents(events []database.ExtremeWeatherEventRow) int {
	published := 0
	for _, event := range events {
		msg := eventMessage{
			City:          event.City,
			Date:          event.Date.String(),
			EventType:     event.EventType,
			MetricValue:   event.MetricValue,
			ThresholdUsed: event.ThresholdUsed,
			Description:   event.Description,
		}

		payload, err := json.Marshal(msg)
		if err != nil {
			p.logger.Error("failed to marshal alert", slog.Any("error", err))
			continue
		}

		topic := fmt.Sprintf("%s/%s", p.topicPrefix, types.City{Name: event.City}.Slug())
		token := p.mqttClient.Publish(topic, 1, false, payload)
		if ok := token.WaitTimeout(publishTimeout); !ok {
			p.logger.Warn("timeout publishing alert", slog.String("topic", topic))
			continue
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("failed to publish alert", slog.String("topic", topic), slog.Any("error", err))
			continue
		}
		published++
	}

	return published
}
