package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	pkgredis "github.com/echo88/core/internal/pkg/redis"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespaceRealtime = "/realtime"
	redisChanEvents   = "e88:gateway:events"

	// event names pushed to clients
	eventConnect    = "GATEWAY_CONNECT"
	eventAuthFailed = "AUTH_FAILED"
)

// TokenValidator resolves a handshake token to a user id.
type TokenValidator func(token string) (userID string, err error)

// Message is the envelope used by hub pushes and Redis fan-out. Origin
// carries the publishing instance id so subscribers can drop their own
// messages after the local delivery.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
	Origin  string      `json:"origin,omitempty"`
}

type clientMeta struct {
	sid    string
	userID string
}

// Hub manages the realtime namespace. Each authenticated socket joins the
// room user:<id>; pushes address rooms, with Redis pub/sub carrying events
// across instances.
type Hub struct {
	mu         sync.RWMutex
	instanceID string
	sidUser    map[string]string
	userConns  map[string]int

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	rc        *pkgredis.Client
	logger    *zap.Logger
	sio       *socketio.Server
	validator TokenValidator
}

func NewHub(rc *pkgredis.Client, logger *zap.Logger, validator TokenValidator) *Hub {
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		instanceID: uuid.New().String(),
		sidUser:    make(map[string]string),
		userConns:  make(map[string]int),
		broadcast:  make(chan Message, 256),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		rc:         rc,
		logger:     logger,
		sio:        sio,
		validator:  validator,
	}
	h.registerNamespace()
	return h
}

// Run starts the hub loop and the Redis subscriber.
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.sidUser[c.sid] = c.userID
			h.userConns[c.userID]++
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if userID, ok := h.sidUser[c.sid]; ok {
				delete(h.sidUser, c.sid)
				if h.userConns[userID] > 0 {
					h.userConns[userID]--
				}
				if h.userConns[userID] == 0 {
					delete(h.userConns, userID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			msg.Origin = h.instanceID
			h.deliver(msg)
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := h.rc.Publish(ctx, redisChanEvents, string(data)); err != nil {
				h.logger.Warn("gateway publish failed", zap.Error(err))
			}
		}
	}
}

// PushToUser sends an event to every connection of one user.
func (h *Hub) PushToUser(userID, event string, payload interface{}) {
	h.broadcast <- Message{Event: event, Payload: payload, Room: UserRoom(userID)}
}

// UserRoom names the per-user delivery room.
func UserRoom(userID string) string {
	return "user:" + userID
}

// IsOnline reports whether the user has at least one live connection on
// this instance.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userConns[userID] > 0
}

// ClientCount returns the number of connected sockets on this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sidUser)
}

func (h *Hub) deliver(msg Message) {
	ns := h.sio.Of(namespaceRealtime, nil)
	envelope := map[string]interface{}{"type": msg.Event, "data": msg.Payload}
	if msg.Room == "" {
		ns.Emit("message", envelope)
		return
	}
	ns.To(socketio.Room(msg.Room)).Emit("message", envelope)
}

// fromSelf reports whether the message was published by this instance.
func (h *Hub) fromSelf(msg Message) bool {
	return msg.Origin == h.instanceID
}

// subscribeRedis applies pushes published by other server instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				continue
			}
			if h.fromSelf(msg) {
				// already delivered locally before publishing
				continue
			}
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerNamespace() {
	ns := h.sio.Of(namespaceRealtime, nil)
	_ = ns.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}

		token := extractToken(client)
		userID, err := h.validate(token)
		if err != nil {
			_ = client.Emit("message", map[string]interface{}{"type": eventAuthFailed, "data": "auth failed"})
			client.Disconnect(true)
			return
		}

		sid := string(client.Id())
		client.Join(socketio.Room(UserRoom(userID)))
		h.register <- clientMeta{sid: sid, userID: userID}
		_ = client.Emit("message", map[string]interface{}{"type": eventConnect, "data": "connected"})

		_ = client.On("disconnect", func(_ ...any) {
			h.unregister <- clientMeta{sid: sid, userID: userID}
		})
	})
}

func (h *Hub) validate(token string) (string, error) {
	return h.validator(token)
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if token := firstValueFromMultiMap(handshake.Query, "token"); token != "" {
		return normalizeToken(token)
	}
	if token := firstValueFromMultiMap(handshake.Headers, "authorization"); token != "" {
		return normalizeToken(token)
	}
	return ""
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	if len(values) == 0 {
		return ""
	}
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		v := strings.TrimSpace(list[0])
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// RegisterRoutes mounts socket.io and a stats endpoint.
func RegisterRoutes(rg *gin.RouterGroup, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	rg.Any("/socket.io", handler)
	rg.Any("/socket.io/*any", handler)

	rg.GET("/gateway/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connections": hub.ClientCount(),
		})
	})
}

// Handler returns the socket.io HTTP handler.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}
