package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	redisstore "github.com/gosuda/vigil/internal/store/redis"
)

// Hub bridges the reconcile event channel in Redis onto WebSocket
// connections. Dashboards subscribe here instead of polling the status
// endpoint.
type Hub struct {
	pubsub *redisstore.Client
}

func NewHub(pubsub *redisstore.Client) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeReconcile streams reconcile pass summaries to the client. One Redis
// subscription per connection; the subscription dies with the request
// context.
func (h *Hub) ServeReconcile(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, redisstore.ChannelReconcile)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
