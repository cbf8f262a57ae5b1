package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/config"
	"github.com/biruk-77/bysell-backend-sub000/internal/auth"
	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/service"
	"github.com/biruk-77/bysell-backend-sub000/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = (chatPongWait * 9) / 10
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsRequest is the envelope for every client->server chat event.
type wsRequest struct {
	Type        string `json:"type"`
	OtherUserID uint   `json:"other_user_id"`
	ReceiverID  uint   `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	Status      string `json:"status"`
}

// respond queues a frame for one session; drops it if the session is saturated.
func respond(client *ws.Client, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	client.Enqueue(data)
}

func ackError(client *ws.Client, event string, err error) {
	msg := "request failed"
	switch {
	case errors.Is(err, service.ErrSelfTarget),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrBadMessageType),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrNotConnected),
		errors.Is(err, service.ErrNotSender):
		msg = err.Error()
	default:
		log.Printf("[ws] %s failed: %v", event, err)
	}
	respond(client, map[string]interface{}{
		"type":    event + "_ack",
		"success": false,
		"message": msg,
	})
}

// UpgradeChatWS upgrades to WebSocket for chat; auth token comes in the query
// string since browsers cannot set headers on a websocket handshake.
//
// Typing indicators swept server-side after their timeout do NOT produce a
// stop event; clients must age out indicators they have not heard a stop for.
func UpgradeChatWS(
	cfg *config.JWTConfig,
	hub *ws.Hub,
	chatSvc *service.ChatService,
	connRepo *repository.ConnectionRepository,
	presenceRepo *repository.PresenceRepository,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		userID := claims.UserID
		socketID := uuid.NewString()
		client := &ws.Client{
			UserID:   userID,
			SocketID: socketID,
			Send:     make(chan []byte, 256),
		}
		sessions := hub.Register(client)
		respond(client, map[string]interface{}{
			"type":      "connected",
			"socket_id": socketID,
			"channel":   ws.UserChannel(userID),
		})
		if err := presenceRepo.MarkOnline(userID, socketID, time.Now()); err != nil {
			log.Printf("[ws] mark online user=%d: %v", userID, err)
		}
		if sessions == 1 {
			hub.BroadcastAllExcept(userID, map[string]interface{}{
				"type":      domain.EventUserOnline,
				"user_id":   userID,
				"timestamp": time.Now(),
			})
		}
		defer func() {
			client.Close()
			if hub.SessionCount(userID) == 0 {
				if err := presenceRepo.MarkOffline(userID, time.Now()); err != nil {
					log.Printf("[ws] mark offline user=%d: %v", userID, err)
				}
				hub.BroadcastAllExcept(userID, map[string]interface{}{
					"type":      domain.EventUserOffline,
					"user_id":   userID,
					"timestamp": time.Now(),
				})
			}
		}()

		conn.SetReadDeadline(time.Now().Add(chatPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(chatPongWait))
			// a live socket counts as activity for the staleness sweep
			if err := presenceRepo.Touch(userID, time.Now()); err != nil {
				log.Printf("[ws] touch user=%d: %v", userID, err)
			}
			return nil
		})
		go func() {
			ticker := time.NewTicker(chatPingPeriod)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-client.Send:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var req wsRequest
			if json.Unmarshal(raw, &req) != nil {
				respond(client, map[string]interface{}{
					"type": "error", "success": false, "message": "malformed frame",
				})
				continue
			}
			handleChatEvent(hub, chatSvc, connRepo, presenceRepo, client, &req)
		}
	}
}

func handleChatEvent(
	hub *ws.Hub,
	chatSvc *service.ChatService,
	connRepo *repository.ConnectionRepository,
	presenceRepo *repository.PresenceRepository,
	client *ws.Client,
	req *wsRequest,
) {
	userID := client.UserID
	switch req.Type {
	case "join_conversation":
		if req.OtherUserID == 0 {
			ackError(client, req.Type, service.ErrUserNotFound)
			return
		}
		if req.OtherUserID == userID {
			ackError(client, req.Type, service.ErrSelfTarget)
			return
		}
		connected, err := connRepo.AreConnected(userID, req.OtherUserID)
		if err != nil {
			ackError(client, req.Type, err)
			return
		}
		if !connected {
			ackError(client, req.Type, service.ErrNotConnected)
			return
		}
		room := ws.RoomName(userID, req.OtherUserID)
		hub.JoinRoom(room, client)
		respond(client, map[string]interface{}{
			"type":      "join_conversation_ack",
			"success":   true,
			"room_name": room,
		})

	case "leave_conversation":
		if req.OtherUserID == 0 || req.OtherUserID == userID {
			return
		}
		hub.LeaveRoom(ws.RoomName(userID, req.OtherUserID), client)

	case "send_message":
		m, err := chatSvc.Send(userID, req.ReceiverID, req.Content, req.MessageType)
		if err != nil {
			ackError(client, req.Type, err)
			return
		}
		respond(client, map[string]interface{}{
			"type":    "send_message_ack",
			"success": true,
			"message_data": map[string]interface{}{
				"message_id":   m.ID,
				"receiver_id":  m.ReceiverID,
				"content":      m.Content,
				"message_type": m.MessageType,
				"created_at":   m.CreatedAt,
			},
		})

	case "start_typing":
		if err := chatSvc.StartTyping(userID, req.ReceiverID); err != nil {
			ackError(client, req.Type, err)
		}

	case "stop_typing":
		if err := chatSvc.StopTyping(userID, req.ReceiverID); err != nil {
			ackError(client, req.Type, err)
		}

	case "mark_messages_read":
		count, err := chatSvc.MarkRead(userID, req.OtherUserID)
		if err != nil {
			ackError(client, req.Type, err)
			return
		}
		respond(client, map[string]interface{}{
			"type":    "mark_messages_read_ack",
			"success": true,
			"count":   count,
		})

	case "update_status":
		if !domain.ValidPresenceStatus(req.Status) {
			respond(client, map[string]interface{}{
				"type": "update_status_ack", "success": false, "message": "invalid status",
			})
			return
		}
		if err := presenceRepo.SetStatus(userID, req.Status, time.Now()); err != nil {
			ackError(client, req.Type, err)
			return
		}
		hub.BroadcastAll(map[string]interface{}{
			"type":    domain.EventUserStatusChanged,
			"user_id": userID,
			"status":  req.Status,
		})
		respond(client, map[string]interface{}{
			"type": "update_status_ack", "success": true,
		})

	default:
		respond(client, map[string]interface{}{
			"type": "error", "success": false, "message": "unknown event type",
		})
	}
}
