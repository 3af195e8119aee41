package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pelusa-v/pelusa-chat/internal/chat"
	"github.com/pelusa-v/pelusa-chat/internal/store"
)

// ChatHandler serves the chat REST API and the WebSocket endpoint.
type ChatHandler struct {
	manager      *chat.ChatManager
	rooms        *store.Rooms
	history      *store.History
	db           *gorm.DB
	logger       zerolog.Logger
	historyLimit int
	sendBuffer   int
}

type Deps struct {
	Manager      *chat.ChatManager
	Rooms        *store.Rooms
	History      *store.History
	DB           *gorm.DB
	Logger       zerolog.Logger
	HistoryLimit int
	SendBuffer   int
}

func NewChatHandler(d Deps) *ChatHandler {
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = 100
	}
	if d.SendBuffer <= 0 {
		d.SendBuffer = 16
	}
	return &ChatHandler{
		manager:      d.Manager,
		rooms:        d.Rooms,
		history:      d.History,
		db:           d.DB,
		logger:       d.Logger.With().Str("component", "http").Logger(),
		historyLimit: d.HistoryLimit,
		sendBuffer:   d.SendBuffer,
	}
}

type createRoomRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	CreatedBy string `json:"createdBy"`
}

// WebSocketUpgrade GET /ws, rejects plain HTTP requests.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ServeWS GET /ws
func (h *ChatHandler) ServeWS(conn *websocket.Conn) {
	client := chat.NewClient(uuid.NewString(), conn, h.sendBuffer)
	h.manager.Register(client)
	go client.WritePump()
	client.ReadPump(h.manager)
}

// RoomsHandler GET /api/chat/rooms
func (h *ChatHandler) RoomsHandler(c *fiber.Ctx) error {
	rooms, err := h.rooms.List(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list rooms")
		return fiber.ErrInternalServerError
	}
	return c.JSON(rooms)
}

// CreateRoomHandler POST /api/chat/rooms
func (h *ChatHandler) CreateRoomHandler(c *fiber.Ctx) error {
	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if chat.IsPrivateRoom(name) {
		return fiber.NewError(fiber.StatusBadRequest, "name is reserved for private channels")
	}
	class, ok := store.ParseAccessClass(req.Type)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "unknown room type")
	}

	room, err := h.rooms.Create(c.UserContext(), name, class, req.CreatedBy)
	if err != nil {
		if errors.Is(err, store.ErrRoomExists) {
			return fiber.NewError(fiber.StatusBadRequest, "Room already exists")
		}
		h.logger.Error().Err(err).Str("room", name).Msg("failed to create room")
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// DeleteRoomHandler DELETE /api/chat/rooms/:id
func (h *ChatHandler) DeleteRoomHandler(c *fiber.Ctx) error {
	if err := h.rooms.Delete(c.UserContext(), c.Params("id")); err != nil {
		h.logger.Error().Err(err).Str("room_id", c.Params("id")).Msg("failed to delete room")
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"message": "Room deleted"})
}

// HistoryHandler GET /api/chat/history/:room
func (h *ChatHandler) HistoryHandler(c *fiber.Ctx) error {
	room, err := url.PathUnescape(c.Params("room"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid room name")
	}
	msgs, err := h.history.Recent(c.UserContext(), room, h.historyLimit)
	if err != nil {
		h.logger.Error().Err(err).Str("room", room).Msg("failed to load history")
		return fiber.ErrInternalServerError
	}
	return c.JSON(msgs)
}

// PrivateRoomsHandler GET /api/chat/pms/:displayName
func (h *ChatHandler) PrivateRoomsHandler(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("displayName"))
	if err != nil || strings.TrimSpace(name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid display name")
	}
	candidates, err := h.history.DistinctRooms(c.UserContext(), "PM: ", name)
	if err != nil {
		h.logger.Error().Err(err).Str("user", name).Msg("failed to list private channels")
		return fiber.ErrInternalServerError
	}

	// substring matches also catch longer names ("al" in "alice")
	rooms := make([]string, 0, len(candidates))
	for _, room := range candidates {
		if chat.IsParticipant(room, name) {
			rooms = append(rooms, room)
		}
	}
	return c.JSON(rooms)
}

// ActiveUsersHandler GET /api/users
func (h *ChatHandler) ActiveUsersHandler(c *fiber.Ctx) error {
	return c.JSON(h.manager.ActiveUsers())
}

// HealthHandler GET /health
func (h *ChatHandler) HealthHandler(c *fiber.Ctx) error {
	if err := store.Ping(c.UserContext(), h.db); err != nil {
		h.logger.Error().Err(err).Msg("database ping failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":      "unavailable",
			"connections": h.manager.ConnectionCount(),
		})
	}
	return c.JSON(fiber.Map{
		"status":      "ok",
		"connections": h.manager.ConnectionCount(),
	})
}
