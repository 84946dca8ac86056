package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/thereayou/vibelink/internal/handlers/dto"
	"github.com/thereayou/vibelink/internal/services"
	ws "github.com/thereayou/vibelink/internal/websocket"
)

// EventHandler обрабатывает события, пришедшие по WebSocket.
// Кадр с неизвестным типом или без обязательных полей отбрасывается;
// ошибка обработки уходит клиенту, но соединение не рвется.
type EventHandler struct {
	messages *services.MessageService
	hub      *ws.Hub
}

func NewEventHandler(messages *services.MessageService, hub *ws.Hub) *EventHandler {
	return &EventHandler{messages: messages, hub: hub}
}

func (h *EventHandler) HandleEvent(client *ws.Client, event *ws.Event) error {
	switch event.Type {
	case ws.TypeDirectMessage:
		return h.handleDirectMessage(client, event)

	case ws.TypeGroupMessage:
		return h.handleGroupMessage(client, event)

	case ws.TypeTyping:
		return h.handleTyping(client, event)

	default:
		log.Printf("Unknown event type from client %s: %s", client.ID, event.Type)
		return ws.ErrInvalidEvent
	}
}

func (h *EventHandler) handleDirectMessage(client *ws.Client, event *ws.Event) error {
	if event.ReceiverID == nil {
		return ws.ErrInvalidEvent
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return ws.ErrInvalidEvent
	}

	// Отправитель - всегда владелец соединения, что бы ни написал клиент
	_, err := h.messages.SendDirect(context.Background(), client.UserID, *event.ReceiverID, payload.Content)
	return err
}

func (h *EventHandler) handleGroupMessage(client *ws.Client, event *ws.Event) error {
	if event.GroupID == nil {
		return ws.ErrInvalidEvent
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return ws.ErrInvalidEvent
	}

	_, err := h.messages.SendGroup(context.Background(), client.UserID, *event.GroupID, payload.Content)
	return err
}

func (h *EventHandler) handleTyping(client *ws.Client, event *ws.Event) error {
	if event.ReceiverID == nil {
		return ws.ErrInvalidEvent
	}

	var payload dto.TypingPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return ws.ErrInvalidEvent
	}

	h.hub.RelayTypingSignal(client.UserID, *event.ReceiverID, payload.IsTyping)
	return nil
}
