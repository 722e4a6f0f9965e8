package handlers

import (
	"github.com/backsoul/question-bank/pkg/services"
	websocketHub "github.com/backsoul/question-bank/pkg/websocket"
	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// LiveHandler envía la secuencia de preguntas a los editores cada vez que cambia
type LiveHandler struct {
	questionService *services.QuestionService
	hub             *websocketHub.Hub
	upgrader        websocket.FastHTTPUpgrader
}

func NewLiveHandler(questionService *services.QuestionService, hub *websocketHub.Hub, allowedOrigin string) *LiveHandler {
	return &LiveHandler{
		questionService: questionService,
		hub:             hub,
		upgrader: websocket.FastHTTPUpgrader{
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return string(ctx.Request.Header.Peek("Origin")) == allowedOrigin
			},
		},
	}
}

// HandleWebSocket maneja GET /ws
func (h *LiveHandler) HandleWebSocket(ctx *fasthttp.RequestCtx) {
	err := h.upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		defer ws.Close()

		h.hub.Register(ws, h.snapshot)
		defer h.hub.Unregister(ws)

		// Los mensajes del cliente se ignoran; solo detectan el cierre
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				log.Debug().Err(err).Msg("Conexión WebSocket cerrada")
				return
			}
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Error actualizando a WebSocket")
	}
}

// snapshot codifica el banco actual como primer mensaje del cliente
func (h *LiveHandler) snapshot() ([]byte, error) {
	rctx, cancel := requestContext()
	defer cancel()

	qs, err := h.questionService.GetAllQuestions(rctx)
	if err != nil {
		return nil, err
	}
	return websocketHub.Encode(services.QuestionsChangedMessage, qs)
}
