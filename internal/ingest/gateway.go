// Package ingest consumes device events from the MQTT channel and drives the
// detection-to-reward pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/ecosort/smartbin/internal/dedupe"
	"github.com/ecosort/smartbin/internal/metrics"
	"github.com/ecosort/smartbin/internal/model"
	"github.com/ecosort/smartbin/internal/session"
	"github.com/ecosort/smartbin/internal/stats"
	"github.com/ecosort/smartbin/internal/waste"
	"github.com/ecosort/smartbin/internal/ws"
)

// Topics published by the bin firmware.
const (
	TopicDetection = "smartbin/detection"
	TopicBinStatus = "smartbin/bin_status"
	TopicSystem    = "smartbin/system"
	TopicAlerts    = "smartbin/alerts"
)

// Awarder is the slice of the ledger the gateway needs.
type Awarder interface {
	Award(ctx context.Context, userID uuid.UUID, category model.Category) (model.Balance, error)
}

// Emitter pushes events to connected observers.
type Emitter interface {
	Emit(event string, data any)
}

// DetectionSink records resolved detection summaries. May be nil.
type DetectionSink interface {
	Append(ctx context.Context, wasteType model.Category, confidence float64, destination string) error
}

// Gateway validates inbound payloads and drives stats, category resolution,
// the session slot, the ledger, and the broadcast fan-out, one event at a
// time per topic. A bad event or a failed award never stops the pipeline.
type Gateway struct {
	log      *zap.Logger
	stats    *stats.Aggregator
	sessions *session.Registry
	ledger   Awarder
	emitter  Emitter
	dedupe   dedupe.Deduper
	sink     DetectionSink
}

// New constructs a gateway. sink may be nil to disable detection logging.
func New(log *zap.Logger, agg *stats.Aggregator, sessions *session.Registry, ledger Awarder, emitter Emitter, ddp dedupe.Deduper, sink DetectionSink) *Gateway {
	if ddp == nil {
		ddp = dedupe.Noop{}
	}
	return &Gateway{
		log:      log,
		stats:    agg,
		sessions: sessions,
		ledger:   ledger,
		emitter:  emitter,
		dedupe:   ddp,
		sink:     sink,
	}
}

// Subscribe registers the gateway's handlers on a connected MQTT client.
// Handlers run synchronously, so per-topic arrival order is preserved.
func (g *Gateway) Subscribe(ctx context.Context, cli mqtt.Client) error {
	subs := map[string]mqtt.MessageHandler{
		TopicDetection: func(_ mqtt.Client, msg mqtt.Message) {
			g.HandleDetection(ctx, msg.Payload())
		},
		TopicBinStatus: func(_ mqtt.Client, msg mqtt.Message) {
			g.HandlePassthrough(ws.EventBinStatus, msg.Payload())
		},
		TopicSystem: func(_ mqtt.Client, msg mqtt.Message) {
			g.HandlePassthrough(ws.EventSystemStatus, msg.Payload())
		},
		TopicAlerts: func(_ mqtt.Client, msg mqtt.Message) {
			g.HandlePassthrough(ws.EventAlert, msg.Payload())
		},
	}
	for topic, handler := range subs {
		if tok := cli.Subscribe(topic, 1, handler); tok.Wait() && tok.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, tok.Error())
		}
		g.log.Info("subscribed", zap.String("topic", topic))
	}
	return nil
}

// HandleDetection processes one detection payload end to end.
func (g *Gateway) HandleDetection(ctx context.Context, payload []byte) {
	ev, err := parseDetection(payload)
	if err != nil {
		metrics.MalformedPayloadsTotal.Inc()
		g.log.Warn("dropping malformed detection payload", zap.Error(err))
		return
	}
	metrics.DetectionsTotal.Inc()

	// Stats and the raw broadcast happen for every valid event, credited or not.
	g.stats.Record(*ev)
	g.emitter.Emit(ws.EventDetectionUpdate, json.RawMessage(payload))

	category := waste.Resolve(ev)
	if g.sink != nil {
		if err := g.sink.Append(ctx, category, overallConfidence(ev), ev.Destination); err != nil {
			g.log.Warn("detection log append failed", zap.Error(err))
		}
	}

	userID, ok := g.sessions.Active()
	if !ok {
		return
	}
	if !category.Eligible() || ev.Rejected(waste.MinConfidence) {
		return
	}

	if ev.EventID != "" {
		seen, err := g.dedupe.Seen(ctx, ev.EventID)
		switch {
		case err != nil:
			// Fail open: a broken dedupe store must not stop awards.
			g.log.Warn("dedupe check failed", zap.String("event_id", ev.EventID), zap.Error(err))
		case seen:
			metrics.DuplicateEventsTotal.Inc()
			g.log.Info("skipping redelivered detection", zap.String("event_id", ev.EventID))
			return
		}
	}

	bal, err := g.ledger.Award(ctx, userID, category)
	if err != nil {
		g.log.Error("award failed",
			zap.Stringer("user_id", userID),
			zap.String("waste_type", string(category)),
			zap.Error(err),
		)
		// Give the claimed event ID back so a broker redelivery can retry
		// the award instead of being suppressed for the whole window.
		if ev.EventID != "" {
			if fErr := g.dedupe.Forget(ctx, ev.EventID); fErr != nil {
				g.log.Warn("dedupe release failed", zap.String("event_id", ev.EventID), zap.Error(fErr))
			}
		}
		return
	}
	metrics.AwardsTotal.Inc()
	metrics.CreditsAwardedTotal.Add(float64(category.Points()))
	g.log.Info("credited disposal",
		zap.Stringer("user_id", userID),
		zap.String("waste_type", string(category)),
		zap.Int64("points", category.Points()),
	)
	g.emitter.Emit(ws.EventCreditUpdate, model.CreditUpdate{
		UserID:    userID.String(),
		WasteType: string(category),
		Credits:   bal.Credits,
	})
}

// HandlePassthrough re-broadcasts a non-detection payload unmodified.
func (g *Gateway) HandlePassthrough(event string, payload []byte) {
	if !json.Valid(payload) {
		metrics.MalformedPayloadsTotal.Inc()
		g.log.Warn("dropping malformed payload", zap.String("event", event))
		return
	}
	g.emitter.Emit(event, json.RawMessage(payload))
}

// parseDetection validates a raw payload into a typed event. Missing optional
// fields get the device defaults; anything structurally wrong is an error.
func parseDetection(payload []byte) (*model.DetectionEvent, error) {
	var ev model.DetectionEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	if ev.Count < 0 {
		return nil, errors.New("negative object count")
	}
	if ev.Objects == nil {
		ev.Objects = []model.DetectedObject{}
	}
	if ev.Destination == "" {
		ev.Destination = "none"
	}
	return &ev, nil
}

// overallConfidence prefers the event-level confidence and falls back to the
// highest per-object confidence.
func overallConfidence(ev *model.DetectionEvent) float64 {
	if ev.Confidence != nil {
		return *ev.Confidence
	}
	var max float64
	for _, obj := range ev.Objects {
		if obj.Confidence > max {
			max = obj.Confidence
		}
	}
	return max
}
