package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Collaborator names an opaque remote integration.
type Collaborator string

const (
	Payment   Collaborator = "payment"
	Shipping  Collaborator = "shipping"
	Analytics Collaborator = "analytics"
)

func (c Collaborator) valid() bool {
	return c == Payment || c == Shipping || c == Analytics
}

const integrationsPath = "/api/integrations"

// queuedEvent is an analytics payload held locally until the remote is
// reachable again.
type queuedEvent struct {
	ID       string          `json:"id"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queuedAt"`
}

// Collaborate forwards payload to a collaborator and returns its opaque
// answer. Only analytics is queued locally when the remote is down; payment
// and shipping surface the transport failure.
func (g *Gateway) Collaborate(ctx context.Context, name Collaborator, payload json.RawMessage) (Result[json.RawMessage], error) {
	if !name.valid() {
		return Result[json.RawMessage]{}, &Error{Kind: KindInvalid, Op: "Collaborate", Message: "unknown collaborator " + string(name)}
	}
	if !json.Valid(payload) {
		return Result[json.RawMessage]{}, &Error{Kind: KindInvalid, Op: "Collaborate", Message: "payload is not valid JSON"}
	}

	c := call[json.RawMessage]{
		op:   "Collaborate",
		auth: true,
		remote: func(ctx context.Context, token string) (json.RawMessage, *Pagination, error) {
			data, err := g.remote.do(ctx, "Collaborate", request{
				method: http.MethodPost,
				path:   integrationsPath + "/" + url.PathEscape(string(name)),
				body:   payload,
				token:  token,
			})
			return data, nil, err
		},
	}
	if name == Analytics {
		c.local = func(ctx context.Context) (json.RawMessage, *Pagination, error) {
			ev := queuedEvent{ID: g.newID(), Payload: payload, QueuedAt: g.now()}
			raw, err := json.Marshal(ev)
			if err != nil {
				return nil, nil, localErr("Collaborate", err)
			}
			if err := g.local.Put(ctx, analyticsCollection, ev.ID, raw); err != nil {
				return nil, nil, localErr("Collaborate", err)
			}
			return raw, nil, nil
		}
	}
	return execute(ctx, g, c)
}

// QueuedAnalytics returns the analytics events waiting in the local store.
func (g *Gateway) QueuedAnalytics(ctx context.Context) ([]json.RawMessage, error) {
	docs, err := g.local.All(ctx, analyticsCollection)
	if err != nil {
		return nil, localErr("QueuedAnalytics", err)
	}
	return docs, nil
}

// FlushAnalytics replays queued analytics events in order, removing each one
// the remote accepts. It stops at the first failure and reports how many
// were sent.
func (g *Gateway) FlushAnalytics(ctx context.Context) (int, error) {
	docs, err := g.local.All(ctx, analyticsCollection)
	if err != nil {
		return 0, localErr("FlushAnalytics", err)
	}

	tok, err := g.authorize(ctx, "FlushAnalytics")
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, doc := range docs {
		var ev queuedEvent
		if err := json.Unmarshal(doc, &ev); err != nil || len(ev.Payload) == 0 {
			g.logger.Warn("dropping unreadable queued analytics event", zap.String("event_id", ev.ID), zap.Error(err))
			if ev.ID != "" {
				if err := g.local.Delete(ctx, analyticsCollection, ev.ID); err != nil {
					return sent, localErr("FlushAnalytics", err)
				}
			}
			continue
		}
		_, err := g.remote.do(ctx, "FlushAnalytics", request{
			method: http.MethodPost,
			path:   integrationsPath + "/" + string(Analytics),
			body:   ev.Payload,
			token:  tok,
		})
		if err != nil {
			if KindOf(err) == KindUnauthorized {
				g.dropSession(ctx, "FlushAnalytics", tok)
			}
			return sent, err
		}
		if err := g.local.Delete(ctx, analyticsCollection, ev.ID); err != nil {
			return sent, localErr("FlushAnalytics", err)
		}
		sent++
	}
	return sent, nil
}
