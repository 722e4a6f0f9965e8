package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
)

// Hub difunde los cambios del banco a todos los editores conectados
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
}

// SnapshotFunc devuelve el mensaje inicial de un cliente nuevo
type SnapshotFunc func() ([]byte, error)

type registration struct {
	conn     *websocket.Conn
	snapshot SnapshotFunc
}

// Message sobre que se envía por el socket
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run atiende registros y difusiones hasta que ctx se cancela
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case reg := <-h.register:
			if !h.sendSnapshot(reg) {
				reg.conn.Close()
				continue
			}
			h.mutex.Lock()
			h.clients[reg.conn] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Info().Int("total", total).Msg("Cliente WebSocket conectado")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			log.Info().Int("total", total).Msg("Cliente WebSocket desconectado")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Warn().Err(err).Msg("Error enviando mensaje WebSocket")
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// sendSnapshot escribe el estado inicial. Corre dentro de Run, así que lo
// que se difunda después llega al cliente detrás del snapshot.
func (h *Hub) sendSnapshot(reg registration) bool {
	if reg.snapshot == nil {
		return true
	}
	initial, err := reg.snapshot()
	if err != nil {
		log.Warn().Err(err).Msg("Error obteniendo estado inicial")
		return false
	}
	if err := reg.conn.WriteMessage(websocket.TextMessage, initial); err != nil {
		log.Warn().Err(err).Msg("Error enviando estado inicial")
		return false
	}
	return true
}

// Done se cierra cuando Run termina
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount número de clientes conectados
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Register agrega un cliente. snapshot, si no es nil, se evalúa al atender
// el registro y su resultado se envía antes que cualquier difusión posterior.
// Si falla el cliente se cierra.
func (h *Hub) Register(conn *websocket.Conn, snapshot SnapshotFunc) {
	select {
	case h.register <- registration{conn: conn, snapshot: snapshot}:
	case <-h.done:
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastMessage serializa y encola un mensaje para todos los clientes.
// Si el hub ya terminó el mensaje se descarta.
func (h *Hub) BroadcastMessage(msgType string, data interface{}) {
	msgData, err := Encode(msgType, data)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("Error serializando mensaje")
		return
	}

	select {
	case h.broadcast <- msgData:
	case <-h.done:
	}
}

// Encode arma el JSON de un Message
func Encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Data: data})
}
