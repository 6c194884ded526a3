package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(id, schoolCode string, admin bool) *Client {
	role := models.RoleTeacher
	if admin {
		role = models.RoleAdmin
	}
	return &Client{
		ID:        id,
		SessionID: uuid.New(),
		Actor:     models.Actor{UserID: uuid.New(), Role: role, SchoolCode: schoolCode},
		Send:      make(chan []byte, 256),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.endSession)
}

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1", "SCH1", false)
	hub.Register(client)

	// Wait for registration to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	_, exists := hub.clients[client.ID]
	hub.mu.RUnlock()

	assert.True(t, exists)
}

func TestHub_UnregisterClient_ClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1", "SCH1", false)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	_, ok := <-client.Send
	assert.False(t, ok)

	hub.mu.RLock()
	_, exists := hub.clients[client.ID]
	hub.mu.RUnlock()
	assert.False(t, exists)
}

func TestHub_PublishNews_ToSameSchool(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1", "SCH1", false)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	item := models.NewsItem{ID: uuid.New(), Title: "Sports day", SchoolCode: "SCH1", Version: 2}
	hub.PublishNews("news_updated", item, "")

	select {
	case msg := <-client.Send:
		var event struct {
			Type string          `json:"type"`
			Data models.NewsItem `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, "news_updated", event.Type)
		assert.Equal(t, item.ID, event.Data.ID)
		assert.Equal(t, 2, event.Data.Version)

	case <-time.After(100 * time.Millisecond):
		t.Fatal("did not receive message")
	}
}

func TestHub_PublishNews_Scoping(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	same := newClient("same", "SCH1", false)
	other := newClient("other", "SCH2", false)
	admin := newClient("admin", "HQ", true)
	blank := newClient("blank", "", false)

	for _, c := range []*Client{same, other, admin, blank} {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	hub.PublishNews("news_created", models.NewsItem{ID: uuid.New(), SchoolCode: "SCH1"}, "")

	receivedCount := 0
	for _, c := range []*Client{same, admin} {
		select {
		case <-c.Send:
			receivedCount++
		case <-time.After(50 * time.Millisecond):
		}
	}
	assert.Equal(t, 2, receivedCount)

	for _, c := range []*Client{other, blank} {
		select {
		case <-c.Send:
			t.Fatalf("%s should not receive message", c.ID)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestHub_PublishNews_FullBufferDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1", "SCH1", false)
	client.Send = make(chan []byte, 1)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	client.Send <- []byte("fill")

	hub.PublishNews("news_created", models.NewsItem{SchoolCode: "SCH1"}, "")
	time.Sleep(10 * time.Millisecond)

	<-client.Send

	select {
	case <-client.Send:
		t.Fatal("should not receive dropped message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CloseSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := newClient("tab-1", "SCH1", false)
	second := newClient("tab-2", "SCH1", false)
	second.SessionID = first.SessionID
	unrelated := newClient("tab-3", "SCH1", false)

	for _, c := range []*Client{first, second, unrelated} {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	hub.CloseSession(first.SessionID)
	time.Sleep(10 * time.Millisecond)

	_, ok := <-first.Send
	assert.False(t, ok)
	_, ok = <-second.Send
	assert.False(t, ok)

	hub.mu.RLock()
	_, exists := hub.clients[unrelated.ID]
	hub.mu.RUnlock()
	assert.True(t, exists)
}

func TestHub_UnregisterAfterCloseSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1", "SCH1", false)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.CloseSession(client.SessionID)
	time.Sleep(10 * time.Millisecond)

	// Should not panic on double close
	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)
}

func TestHub_PublishNews_MovedItemReachesBothSchools(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	oldSchool := newClient("old", "SCH1", false)
	newSchool := newClient("new", "SCH2", false)
	unrelated := newClient("unrelated", "SCH3", false)

	for _, c := range []*Client{oldSchool, newSchool, unrelated} {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	hub.PublishNews("news_updated", models.NewsItem{ID: uuid.New(), SchoolCode: "SCH2"}, "SCH1")

	for _, c := range []*Client{oldSchool, newSchool} {
		select {
		case msg := <-c.Send:
			assert.Contains(t, string(msg), "news_updated")
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("%s did not receive the move", c.ID)
		}
	}

	select {
	case <-unrelated.Send:
		t.Fatal("unrelated school should not receive message")
	case <-time.After(50 * time.Millisecond):
	}
}
