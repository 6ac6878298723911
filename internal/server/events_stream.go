package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/sentinel/internal/events"
)

// streamedEventTypes is every EventType a connected client receives on
// /ws/solve-events. Error events and remote-quota-exhaustion notices are
// included alongside the stage-boundary ones so a dashboard can surface
// both progress and failure without a second connection.
var streamedEventTypes = []events.EventType{
	events.SolveStarted,
	events.SolveStageCompleted,
	events.SolveCompleted,
	events.SolveFailed,
	events.RemoteQuotaExhausted,
}

// eventsStreamHandler upgrades /ws/solve-events to a websocket and relays
// every solve-lifecycle event emitted after the connection opens.
type eventsStreamHandler struct {
	events *events.Manager
	log    zerolog.Logger
}

func newEventsStreamHandler(eventMgr *events.Manager, log zerolog.Logger) *eventsStreamHandler {
	return &eventsStreamHandler{events: eventMgr, log: log.With().Str("component", "events_stream").Logger()}
}

// eventQueueDepth bounds how many events can be buffered for one slow
// client before enqueueEvent starts dropping the oldest.
const eventQueueDepth = 32

func (h *eventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		http.Error(w, "event stream not configured", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closing")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	queue := make(chan *events.Event, eventQueueDepth)
	subs := make([]events.Subscription, 0, len(streamedEventTypes))
	for _, eventType := range streamedEventTypes {
		subs = append(subs, h.events.Subscribe(eventType, func(e *events.Event) {
			h.enqueueEvent(queue, e)
		}))
	}
	defer func() {
		for _, sub := range subs {
			h.events.Unsubscribe(sub)
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case e := <-queue:
			writeCtx, writeCancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, e)
			writeCancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed, closing stream")
				return
			}
		}
	}
}

// enqueueEvent pushes e onto queue, dropping the oldest queued event when
// full rather than blocking the event bus's dispatch goroutine.
func (h *eventsStreamHandler) enqueueEvent(queue chan *events.Event, e *events.Event) {
	select {
	case queue <- e:
	default:
		select {
		case <-queue:
		default:
		}
		select {
		case queue <- e:
		default:
		}
	}
}
