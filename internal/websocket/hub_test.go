package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGroupSource - членства в группах для хаба без базы
type fakeGroupSource struct {
	byUser map[uuid.UUID][]uint
}

func (s *fakeGroupSource) GetUserGroupIDs(userID uuid.UUID) ([]uint, error) {
	return s.byUser[userID], nil
}

func (s *fakeGroupSource) IsGroupMember(groupID uint, userID uuid.UUID) (bool, error) {
	for _, id := range s.byUser[userID] {
		if id == groupID {
			return true, nil
		}
	}
	return false, nil
}

func startHub(t *testing.T, groups GroupSource) *Hub {
	t.Helper()
	hub := NewHub(groups)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func connectClient(t *testing.T, hub *Hub, userID uuid.UUID, queueSize int) *Client {
	t.Helper()
	client := &Client{
		ID:     uuid.New(),
		UserID: userID,
		Send:   make(chan []byte, queueSize),
		Hub:    hub,
	}
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.IsUserOnline(userID)
	}, time.Second, 5*time.Millisecond)

	// Conn у клиента нет, поэтому соединение снимается до остановки хаба
	t.Cleanup(func() {
		hub.Unregister(client)
		require.Eventually(t, func() bool {
			return len(hub.registry.channelsOf(client.ID)) == 0
		}, time.Second, 5*time.Millisecond)
	})
	return client
}

func readFrame(t *testing.T, client *Client) *Event {
	t.Helper()
	select {
	case raw := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return &event
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestHubDeliverToUser(t *testing.T) {
	hub := startHub(t, &fakeGroupSource{})
	userID := uuid.New()

	// Два соединения одного пользователя - обе вкладки получают событие
	first := connectClient(t, hub, userID, 16)
	second := connectClient(t, hub, userID, 16)
	stranger := connectClient(t, hub, uuid.New(), 16)

	hub.DeliverToUser(userID, EventReceiveMessage, map[string]interface{}{"content": "hi"})

	for _, client := range []*Client{first, second} {
		event := readFrame(t, client)
		assert.Equal(t, EventReceiveMessage, event.Type)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, "hi", payload["content"])
	}
	assert.Empty(t, stranger.Send)
}

func TestHubDeliverToGroup(t *testing.T) {
	member, outsider := uuid.New(), uuid.New()
	hub := startHub(t, &fakeGroupSource{byUser: map[uuid.UUID][]uint{
		member: {7},
	}})

	memberConn := connectClient(t, hub, member, 16)
	outsiderConn := connectClient(t, hub, outsider, 16)

	hub.DeliverToGroup(7, EventReceiveGroupMessage, map[string]interface{}{"content": "team"})

	event := readFrame(t, memberConn)
	assert.Equal(t, EventReceiveGroupMessage, event.Type)
	assert.Empty(t, outsiderConn.Send)
}

func TestHubOfflineDeliveryIsNoop(t *testing.T) {
	hub := startHub(t, &fakeGroupSource{})

	// Ни одного подписчика - раздача молча завершается
	hub.DeliverToUser(uuid.New(), EventReceiveMessage, map[string]interface{}{"content": "hi"})
	hub.DeliverToGroup(1, EventReceiveGroupMessage, nil)
}

func TestHubSlowClientDoesNotBlockOthers(t *testing.T) {
	hub := startHub(t, &fakeGroupSource{})
	userID := uuid.New()

	slow := connectClient(t, hub, userID, 1)
	slow.Send <- []byte("stuck") // очередь забита
	healthy := connectClient(t, hub, userID, 16)

	done := make(chan struct{})
	go func() {
		hub.DeliverToUser(userID, EventReceiveMessage, map[string]interface{}{"content": "hi"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delivery blocked on a full client queue")
	}

	event := readFrame(t, healthy)
	assert.Equal(t, EventReceiveMessage, event.Type)

	// Медленному ничего не докинули поверх забитой очереди
	assert.Len(t, slow.Send, 1)
}

func TestHubJoinGroup(t *testing.T) {
	member, outsider := uuid.New(), uuid.New()
	hub := startHub(t, &fakeGroupSource{byUser: map[uuid.UUID][]uint{
		member: {9},
	}})

	t.Run("member joins and receives group events", func(t *testing.T) {
		// Пользователь подключился до добавления в группу: автоподписки
		// нет, join_group догоняет членство без переподключения
		conn := connectClient(t, hub, member, 16)
		hub.registry.Unsubscribe(conn.ID, GroupChannel(9))

		require.NoError(t, hub.JoinGroup(conn, 9))

		hub.DeliverToGroup(9, EventReceiveGroupMessage, nil)
		event := readFrame(t, conn)
		assert.Equal(t, EventReceiveGroupMessage, event.Type)
	})

	t.Run("membership is re-checked", func(t *testing.T) {
		conn := connectClient(t, hub, outsider, 16)

		err := hub.JoinGroup(conn, 9)
		assert.ErrorIs(t, err, ErrNotGroupMember)
		assert.Empty(t, conn.Send)
	})
}

func TestHubTypingRelay(t *testing.T) {
	hub := startHub(t, &fakeGroupSource{})
	sender, receiver := uuid.New(), uuid.New()
	conn := connectClient(t, hub, receiver, 16)

	hub.RelayTypingSignal(sender, receiver, true)

	event := readFrame(t, conn)
	assert.Equal(t, EventReceiveTyping, event.Type)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, sender.String(), payload["senderId"])
	assert.Equal(t, true, payload["isTyping"])
}

func TestHubRegisterAfterStop(t *testing.T) {
	hub := NewHub(&fakeGroupSource{})
	go hub.Run()
	hub.Stop()

	client := &Client{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Send:   make(chan []byte, 1),
		Hub:    hub,
	}

	// Соединение рвется уже после остановки хаба: цикл Run мертв,
	// и без ctx обе операции повисли бы на небуферизованном канале
	done := make(chan struct{})
	go func() {
		hub.Register(client)
		hub.Unregister(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after hub stop")
	}
}

func TestHubOnlineUsers(t *testing.T) {
	hub := startHub(t, &fakeGroupSource{})
	userID := uuid.New()

	assert.False(t, hub.IsUserOnline(userID))

	// Два соединения считаются одним пользователем
	connectClient(t, hub, userID, 16)
	connectClient(t, hub, userID, 16)

	assert.True(t, hub.IsUserOnline(userID))
	assert.Len(t, hub.OnlineUsers(), 1)
}
