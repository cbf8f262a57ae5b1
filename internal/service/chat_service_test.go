package service

import (
	"errors"
	"testing"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/internal/domain"
	"github.com/biruk-77/bysell-backend-sub000/internal/models"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/ws"

	"gorm.io/gorm"
)

type fakeMessages struct {
	nextID   uint
	rows     map[uint]*models.Message
	readHits int64
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{rows: make(map[uint]*models.Message)}
}

func (f *fakeMessages) Create(m *models.Message) error {
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	cp := *m
	f.rows[m.ID] = &cp
	return nil
}

func (f *fakeMessages) GetByID(id uint) (*models.Message, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessages) Delete(id uint) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeMessages) between(userA, userB uint) []models.Message {
	var out []models.Message
	for _, m := range f.rows {
		if (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, *m)
		}
	}
	// newest first, as the real repository orders
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ID > out[i].ID {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func (f *fakeMessages) ListBetween(userA, userB uint, limit, offset int) ([]models.Message, error) {
	all := f.between(userA, userB)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeMessages) ListBefore(userA, userB, beforeID uint, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.between(userA, userB) {
		if m.ID < beforeID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessages) MarkConversationRead(senderID, receiverID uint, at time.Time) (int64, error) {
	var n int64
	for _, m := range f.rows {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			t := at
			m.ReadAt = &t
			n++
		}
	}
	f.readHits++
	return n, nil
}

func (f *fakeMessages) ListConversations(userID uint) ([]repository.ConversationSummary, error) {
	return nil, nil
}

type fakeUsers struct {
	users map[uint]*models.User
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type fakeConnections struct {
	pairs map[string]bool
}

func (f *fakeConnections) connect(a, b uint) {
	f.pairs[ws.RoomName(a, b)] = true
}

func (f *fakeConnections) AreConnected(userA, userB uint) (bool, error) {
	return f.pairs[ws.RoomName(userA, userB)], nil
}

type fakePresence struct {
	typingTo map[uint]uint
	clearErr error
}

func (f *fakePresence) SetTyping(userID, targetID uint, at time.Time) error {
	f.typingTo[userID] = targetID
	return nil
}

func (f *fakePresence) ClearTyping(userID uint) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.typingTo, userID)
	return nil
}

type sentFrame struct {
	room       string
	exceptUser uint
	userID     uint
	payload    map[string]interface{}
}

type fakeHub struct {
	roomFrames       []sentFrame
	roomExceptFrames []sentFrame
	userFrames       []sentFrame
}

func asMap(payload interface{}) map[string]interface{} {
	m, _ := payload.(map[string]interface{})
	return m
}

func (f *fakeHub) BroadcastToRoom(room string, payload interface{}) {
	f.roomFrames = append(f.roomFrames, sentFrame{room: room, payload: asMap(payload)})
}

func (f *fakeHub) BroadcastToRoomExcept(room string, exceptUserID uint, payload interface{}) {
	f.roomExceptFrames = append(f.roomExceptFrames, sentFrame{room: room, exceptUser: exceptUserID, payload: asMap(payload)})
}

func (f *fakeHub) BroadcastToUser(userID uint, payload interface{}) {
	f.userFrames = append(f.userFrames, sentFrame{userID: userID, payload: asMap(payload)})
}

func newChatFixture() (*ChatService, *fakeMessages, *fakePresence, *fakeHub) {
	messages := newFakeMessages()
	users := &fakeUsers{users: map[uint]*models.User{
		1: {ID: 1, Username: "amina", DisplayName: "Amina"},
		2: {ID: 2, Username: "bekele"},
		3: {ID: 3, Username: "chaltu"},
	}}
	conns := &fakeConnections{pairs: map[string]bool{}}
	conns.connect(1, 2)
	presence := &fakePresence{typingTo: map[uint]uint{}}
	hub := &fakeHub{}
	return NewChatService(messages, users, conns, presence, hub), messages, presence, hub
}

func TestSendPersistsAndBroadcasts(t *testing.T) {
	svc, messages, _, hub := newChatFixture()

	m, err := svc.Send(1, 2, "hello", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("message should have been persisted with an ID")
	}
	if m.MessageType != domain.MessageTypeText {
		t.Fatalf("empty type should default to text, got %q", m.MessageType)
	}
	if _, err := messages.GetByID(m.ID); err != nil {
		t.Fatalf("persisted message not found: %v", err)
	}

	if len(hub.roomFrames) != 1 {
		t.Fatalf("room frames = %d, want 1", len(hub.roomFrames))
	}
	frame := hub.roomFrames[0]
	if frame.room != ws.RoomName(1, 2) {
		t.Fatalf("broadcast room = %q, want %q", frame.room, ws.RoomName(1, 2))
	}
	if frame.payload["type"] != domain.EventNewMessage {
		t.Fatalf("event type = %v, want %q", frame.payload["type"], domain.EventNewMessage)
	}
	if frame.payload["sender_name"] != "Amina" {
		t.Fatalf("sender_name = %v, want display name", frame.payload["sender_name"])
	}

	// the receiver's personal channel is also hit, for sessions outside the room
	if len(hub.userFrames) != 1 || hub.userFrames[0].userID != 2 {
		t.Fatalf("personal channel frames = %+v, want one to user 2", hub.userFrames)
	}
}

func TestSendValidation(t *testing.T) {
	svc, _, _, _ := newChatFixture()

	cases := []struct {
		name     string
		sender   uint
		receiver uint
		content  string
		msgType  string
		want     error
	}{
		{"self target", 1, 1, "hi", "", ErrSelfTarget},
		{"empty content", 1, 2, "   ", "", ErrEmptyContent},
		{"bad type", 1, 2, "hi", "video", ErrBadMessageType},
		{"unknown receiver", 1, 99, "hi", "", ErrUserNotFound},
		{"not connected", 1, 3, "hi", "", ErrNotConnected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Send(tc.sender, tc.receiver, tc.content, tc.msgType); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSendClearsTypingIndicator(t *testing.T) {
	svc, _, presence, _ := newChatFixture()
	if err := svc.StartTyping(1, 2); err != nil {
		t.Fatalf("StartTyping: %v", err)
	}
	if _, ok := presence.typingTo[1]; !ok {
		t.Fatal("typing state should be recorded")
	}
	if _, err := svc.Send(1, 2, "done typing", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, ok := presence.typingTo[1]; ok {
		t.Fatal("sending should clear the sender's typing state")
	}
}

func TestSendSurvivesClearTypingFailure(t *testing.T) {
	svc, _, presence, _ := newChatFixture()
	presence.clearErr = errors.New("db down")
	if _, err := svc.Send(1, 2, "hi", ""); err != nil {
		t.Fatalf("Send should succeed despite typing clear failure, got %v", err)
	}
}

func TestMarkReadFlipsAndNotifies(t *testing.T) {
	svc, messages, _, hub := newChatFixture()
	m1, _ := svc.Send(1, 2, "first", "")
	m2, _ := svc.Send(1, 2, "second", "")

	count, err := svc.MarkRead(2, 1)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	for _, id := range []uint{m1.ID, m2.ID} {
		row, _ := messages.GetByID(id)
		if !row.IsRead || row.ReadAt == nil {
			t.Fatalf("message %d should be read with a timestamp", id)
		}
	}

	var readEvents int
	for _, f := range hub.userFrames {
		if f.payload["type"] == domain.EventMessagesRead {
			readEvents++
			if f.userID != 1 {
				t.Fatalf("read event went to user %d, want the sender 1", f.userID)
			}
			if f.payload["read_by"] != uint(2) {
				t.Fatalf("read_by = %v, want 2", f.payload["read_by"])
			}
		}
	}
	if readEvents != 1 {
		t.Fatalf("read events = %d, want 1", readEvents)
	}
}

func TestMarkReadEmitsEvenWhenNothingChanged(t *testing.T) {
	svc, _, _, hub := newChatFixture()
	count, err := svc.MarkRead(2, 1)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
	if len(hub.userFrames) != 1 || hub.userFrames[0].payload["type"] != domain.EventMessagesRead {
		t.Fatal("the read event fires even when zero rows changed")
	}
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	svc, messages, _, hub := newChatFixture()
	m, _ := svc.Send(1, 2, "oops", "")

	if err := svc.DeleteMessage(2, m.ID); !errors.Is(err, ErrNotSender) {
		t.Fatalf("receiver delete err = %v, want ErrNotSender", err)
	}
	if err := svc.DeleteMessage(1, m.ID); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if _, err := messages.GetByID(m.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatal("message should be gone")
	}
	if err := svc.DeleteMessage(1, 999); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("missing message err = %v, want ErrMessageNotFound", err)
	}

	var found bool
	for _, f := range hub.roomFrames {
		if f.payload["type"] == domain.EventMessageDeleted && f.payload["message_id"] == m.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("the room should be told which message was deleted")
	}
}

func TestGetConversationOldestFirst(t *testing.T) {
	svc, _, _, _ := newChatFixture()
	svc.Send(1, 2, "one", "")
	svc.Send(2, 1, "two", "")
	svc.Send(1, 2, "three", "")

	list, err := svc.GetConversation(1, 2, 50, 0, 0)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	want := []string{"one", "two", "three"}
	for i, m := range list {
		if m.Content != want[i] {
			t.Fatalf("position %d = %q, want %q (oldest first)", i, m.Content, want[i])
		}
	}
}

func TestGetConversationBeforeCursorWinsOverOffset(t *testing.T) {
	svc, _, _, _ := newChatFixture()
	var ids []uint
	for _, c := range []string{"a", "b", "c", "d"} {
		m, _ := svc.Send(1, 2, c, "")
		ids = append(ids, m.ID)
	}

	list, err := svc.GetConversation(1, 2, 10, 3, ids[2])
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want the 2 messages before the cursor", len(list))
	}
	if list[0].Content != "a" || list[1].Content != "b" {
		t.Fatalf("got %q,%q, want a,b", list[0].Content, list[1].Content)
	}
}

func TestGetConversationLimitClamp(t *testing.T) {
	svc, _, _, _ := newChatFixture()
	if _, err := svc.GetConversation(1, 1, 10, 0, 0); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("self conversation err = %v, want ErrSelfTarget", err)
	}
	// out-of-range limits fall back to the default without erroring
	if _, err := svc.GetConversation(1, 2, -5, 0, 0); err != nil {
		t.Fatalf("negative limit: %v", err)
	}
	if _, err := svc.GetConversation(1, 2, 5000, 0, 0); err != nil {
		t.Fatalf("oversized limit: %v", err)
	}
}

func TestTypingBroadcastSkipsTypist(t *testing.T) {
	svc, _, presence, hub := newChatFixture()

	if err := svc.StartTyping(1, 1); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("typing at self err = %v, want ErrSelfTarget", err)
	}
	if err := svc.StartTyping(1, 2); err != nil {
		t.Fatalf("StartTyping: %v", err)
	}
	if got := presence.typingTo[1]; got != 2 {
		t.Fatalf("typing target = %d, want 2", got)
	}
	if err := svc.StopTyping(1, 2); err != nil {
		t.Fatalf("StopTyping: %v", err)
	}
	if _, ok := presence.typingTo[1]; ok {
		t.Fatal("stop should clear the typing state")
	}

	if len(hub.roomExceptFrames) != 2 {
		t.Fatalf("room-except frames = %d, want start and stop", len(hub.roomExceptFrames))
	}
	room := ws.RoomName(1, 2)
	for i, wantTyping := range []bool{true, false} {
		f := hub.roomExceptFrames[i]
		if f.room != room {
			t.Fatalf("frame %d room = %q, want %q", i, f.room, room)
		}
		if f.exceptUser != 1 {
			t.Fatalf("frame %d should skip the typist's sessions", i)
		}
		if f.payload["type"] != domain.EventUserTyping {
			t.Fatalf("frame %d type = %v, want %q", i, f.payload["type"], domain.EventUserTyping)
		}
		if f.payload["is_typing"] != wantTyping {
			t.Fatalf("frame %d is_typing = %v, want %v", i, f.payload["is_typing"], wantTyping)
		}
	}
}
