package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/connectsphere/backend/internal/middleware"
	"github.com/connectsphere/backend/internal/realtime"
	"github.com/connectsphere/backend/internal/repositories"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades realtime connections and runs their read loops
type WSHandler struct {
	hub             *realtime.Hub
	groupRepository repositories.GroupRepository
	jwtSecret       string
	log             *logrus.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *realtime.Hub, groupRepo repositories.GroupRepository, jwtSecret string, log *logrus.Logger) *WSHandler {
	return &WSHandler{hub: hub, groupRepository: groupRepo, jwtSecret: jwtSecret, log: log}
}

// Serve authenticates via the token query parameter, upgrades the
// connection, joins the user's own room and processes client frames
// until disconnect.
func (h *WSHandler) Serve(c echo.Context) error {
	claims, err := middleware.ParseToken(c.QueryParam("token"), h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	session := h.hub.Register(conn)
	h.hub.Join(session, userID.Hex())

	done := make(chan struct{})
	go h.pingLoop(session, done)

	h.readLoop(c, session, userID)

	close(done)
	h.hub.Unregister(session)
	return nil
}

func (h *WSHandler) readLoop(c echo.Context, session *realtime.Session, userID primitive.ObjectID) {
	conn := session.Conn()
	conn.SetReadLimit(realtime.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(realtime.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(realtime.PongWait))
	})

	for {
		var frame realtime.Event
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Debug("websocket closed unexpectedly")
			}
			return
		}

		switch frame.Event {
		case "join":
			h.handleJoin(c, session, userID, frame)
		case "private_message":
			h.handlePrivateMessage(session, userID, frame)
		case "group_message":
			h.handleGroupMessage(session, userID, frame)
		default:
			session.WriteJSON(realtime.Event{Event: "error", Message: "unknown event"})
		}
	}
}

// handleJoin adds the session to a group room after a membership check.
func (h *WSHandler) handleJoin(c echo.Context, session *realtime.Session, userID primitive.ObjectID, frame realtime.Event) {
	groupID, err := primitive.ObjectIDFromHex(frame.Room)
	if err != nil {
		session.WriteJSON(realtime.Event{Event: "error", Message: "invalid room"})
		return
	}
	group, err := h.groupRepository.GetGroupByID(c.Request().Context(), groupID)
	if err != nil || !group.IsMember(userID) {
		session.WriteJSON(realtime.Event{Event: "error", Message: "not a member of this group"})
		return
	}
	h.hub.Join(session, groupID.Hex())
	session.WriteJSON(realtime.Event{Event: "joined", Room: groupID.Hex()})
}

func (h *WSHandler) handlePrivateMessage(session *realtime.Session, userID primitive.ObjectID, frame realtime.Event) {
	receiverID, err := primitive.ObjectIDFromHex(frame.Receiver)
	if err != nil {
		session.WriteJSON(realtime.Event{Event: "error", Message: "invalid receiver"})
		return
	}
	h.hub.Broadcast(receiverID.Hex(), realtime.Event{
		Event:    "private_message",
		Sender:   userID.Hex(),
		Receiver: receiverID.Hex(),
		Content:  frame.Content,
	})
}

func (h *WSHandler) handleGroupMessage(session *realtime.Session, userID primitive.ObjectID, frame realtime.Event) {
	groupID, err := primitive.ObjectIDFromHex(frame.Group)
	if err != nil {
		session.WriteJSON(realtime.Event{Event: "error", Message: "invalid group"})
		return
	}
	if !session.Joined(groupID.Hex()) {
		session.WriteJSON(realtime.Event{Event: "error", Message: "join the group room first"})
		return
	}
	h.hub.Broadcast(groupID.Hex(), realtime.Event{
		Event:   "group_message",
		Sender:  userID.Hex(),
		Group:   groupID.Hex(),
		Content: frame.Content,
	})
}

func (h *WSHandler) pingLoop(session *realtime.Session, done <-chan struct{}) {
	ticker := time.NewTicker(realtime.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := session.Ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
