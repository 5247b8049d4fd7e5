package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/state"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventProductUpserted = "ProductUpserted"
	EventProductDeleted  = "ProductDeleted"
	EventOrderUpdated    = "OrderUpdated"
)

// Consumer is satisfied by *broker.KafkaConsumer.
type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Dispatcher interface {
	Dispatch(a state.Action) error
}

// CatalogListener folds remote catalog and order changes into the state
// store while the app is running.
type CatalogListener struct {
	consumer Consumer
	store    Dispatcher
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewCatalogListener(consumer Consumer, store Dispatcher, logger logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		consumer: consumer,
		store:    store,
		logger:   logger.With(zap.String("component", "catalog_listener")),
		backoff:  time.Second,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting catalog listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping catalog listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(msg.Value)
		}
	}
}

type Event struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type deletedPayload struct {
	ID string `json:"id"`
}

func (l *CatalogListener) processMessage(value []byte) {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	action, err := toAction(event)
	if err != nil {
		l.logger.Error("Failed to decode event payload",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		return
	}
	if action == nil {
		l.logger.Debug("Ignoring event", zap.String("event_type", event.EventType))
		return
	}

	if err := l.store.Dispatch(action); err != nil {
		l.logger.Error("Failed to apply event",
			zap.String("event_id", event.EventID),
			zap.String("action", state.Name(action)),
			zap.Error(err),
		)
	}
}

// toAction maps an event to its state action. Unknown event types map to
// nil.
func toAction(event Event) (state.Action, error) {
	switch event.EventType {
	case EventProductUpserted:
		var p model.Product
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errMissingID
		}
		p.Normalize()
		return state.UpsertProduct{Item: p}, nil
	case EventProductDeleted:
		var d deletedPayload
		if err := json.Unmarshal(event.Payload, &d); err != nil {
			return nil, err
		}
		if d.ID == "" {
			return nil, errMissingID
		}
		return state.RemoveProduct{ID: d.ID}, nil
	case EventOrderUpdated:
		var o model.Order
		if err := json.Unmarshal(event.Payload, &o); err != nil {
			return nil, err
		}
		if o.ID == "" {
			return nil, errMissingID
		}
		return state.UpsertOrder{Item: o}, nil
	}
	return nil, nil
}
