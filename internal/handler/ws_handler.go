package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/internal/service"
	"github.com/vibely-app/vibely/internal/ws"
	"github.com/vibely-app/vibely/pkg/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, validate origin
	},
}

// Client-originated event names. Server-originated ones live in model/events.go
const (
	wsEventSendMessage = "send_message"
	wsEventMarkRead    = "mark_read"
	wsEventTyping      = "typing"
	wsEventStopTyping  = "stop_typing"
)

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub         *ws.Hub
	msgService  *service.MessageService
	convService *service.ConversationService
	readService *service.ReadService
	jwtManager  *auth.JWTManager
}

func NewWSHandler(hub *ws.Hub, msgService *service.MessageService, convService *service.ConversationService, readService *service.ReadService, jwtManager *auth.JWTManager) *WSHandler {
	return &WSHandler{
		hub:         hub,
		msgService:  msgService,
		convService: convService,
		readService: readService,
		jwtManager:  jwtManager,
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and manages the connection
// Client connects with: ws://host/ws?token=<jwt_token>
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// Authenticate via query parameter (WebSocket can't use Authorization header)
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	identity, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	// Upgrade HTTP to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// Create client and register with hub
	client := ws.NewClient(h.hub, conn, identity.UserID, identity.Username)
	h.hub.Register(client)

	log.Printf("✅ WS Connected: UserID=%s Username=%s", identity.UserID, identity.Username)

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump(h.handleWSEvent)
}

// handleWSEvent processes incoming WebSocket events from clients
func (h *WSHandler) handleWSEvent(client *ws.Client, event model.Event) {
	log.Printf("📩 WS Received from %s (%s): %s", client.Name, client.UserID, event.Name)

	switch event.Name {
	case wsEventSendMessage:
		h.handleSendMessage(client, event)

	case wsEventMarkRead:
		h.handleMarkRead(client, event)

	case wsEventTyping, wsEventStopTyping:
		h.handleTyping(client, event)

	default:
		log.Printf("Unknown WebSocket event: %s", event.Name)
	}
}

// handleSendMessage posts a message received over the socket. The services
// publish the resulting events, so nothing is broadcast here.
func (h *WSHandler) handleSendMessage(client *ws.Client, event model.Event) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payload struct {
		ConversationID uuid.UUID  `json:"conversation_id"`
		Content        string     `json:"content"`
		Images         []string   `json:"images"`
		ReplyToID      *uuid.UUID `json:"reply_to_id"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		log.Printf("Error parsing send_message payload: %v", err)
		return
	}

	_, err := h.msgService.Send(client.UserID, payload.ConversationID, model.SendMessageRequest{
		Content:   payload.Content,
		Images:    payload.Images,
		ReplyToID: payload.ReplyToID,
	})
	if err != nil {
		log.Printf("Error saving message: %v", err)
	}
}

// handleMarkRead processes read receipts sent over the socket
func (h *WSHandler) handleMarkRead(client *ws.Client, event model.Event) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payload struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return
	}

	if err := h.readService.MarkRead(client.UserID, payload.ConversationID); err != nil {
		log.Printf("Error marking messages read: %v", err)
	}
}

// handleTyping relays typing indicators to the other active participants.
// These are ephemeral and never touch the database.
func (h *WSHandler) handleTyping(client *ws.Client, event model.Event) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payload struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return
	}

	memberIDs, err := h.convService.ActiveMemberIDs(payload.ConversationID)
	if err != nil {
		return
	}

	for _, memberID := range memberIDs {
		if memberID != client.UserID {
			h.hub.Publish(memberID, event.Name, map[string]interface{}{
				"conversation_id": payload.ConversationID,
				"user_id":         client.UserID,
				"name":            client.Name,
			})
		}
	}
}
