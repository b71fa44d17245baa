package ingest

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/ecosort/smartbin/internal/config"
)

// NewClientOptions builds paho options for the device channel. onConnect runs
// on every (re)connect; with clean sessions the broker forgets subscriptions,
// so handlers must be re-registered there.
func NewClientOptions(cfg config.MQTT, log *zap.Logger, onConnect func(mqtt.Client)) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetConnectTimeout(4 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		log.Info("connected to mqtt broker", zap.String("broker", cfg.BrokerURL()))
		if onConnect != nil {
			onConnect(c)
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	}
	return opts
}
