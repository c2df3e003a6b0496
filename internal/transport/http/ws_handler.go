package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

type WSHandler struct {
	service    *app.RoomService
	upgrader   websocket.Upgrader
	sendBuffer int
	log        logrus.FieldLogger
}

func NewWSHandler(service *app.RoomService, sendBuffer int, logger logrus.FieldLogger) *WSHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
		log:        logger.WithField("component", "ws"),
	}
}

// ServeWS upgrades /ws/{quiz_id} and runs the room protocol for that connection until it
// closes, the room ends, or the room turns out not to exist.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "quiz_id")
	log := h.log.WithField("room_id", roomID)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}

	conn := newWSConn(ws, h.sendBuffer, log)
	go conn.writeLoop()
	defer func() {
		conn.Close()
		<-conn.done
	}()

	if err := h.service.Connect(roomID, conn); err != nil {
		conn.Send(domain.ErrorReply(err))
		return
	}
	defer h.service.Disconnect(roomID, conn)

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.WithError(err).Debug("ws read failed")
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		action, err := domain.DecodeAction(data)
		if err != nil {
			conn.Send(domain.ErrorReply(err))
			continue
		}
		if err := h.service.Handle(r.Context(), roomID, conn, action); err != nil {
			conn.Send(domain.ErrorReply(err))
			if errors.Is(err, domain.ErrRoomNotFound) {
				return
			}
		}
	}
}
