package service

import (
	"context"
	"sync"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// gatewayCall records one outbound gateway operation.
type gatewayCall struct {
	op        string
	chatID    int64
	srcChatID int64
	messageID int
	text      string
	data      []byte
}

type mockGateway struct {
	mu        sync.Mutex
	calls     []gatewayCall
	fileBytes []byte
	nextMsgID int
}

func (m *mockGateway) record(call gatewayCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockGateway) SendText(ctx context.Context, chatID int64, text string) error {
	m.record(gatewayCall{op: "text", chatID: chatID, text: text})
	return nil
}

func (m *mockGateway) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	m.record(gatewayCall{op: "markdown", chatID: chatID, text: text})
	return nil
}

func (m *mockGateway) SendPhoto(ctx context.Context, chatID int64, data []byte, caption string) (int, error) {
	m.record(gatewayCall{op: "photo", chatID: chatID, data: data, text: caption})
	m.nextMsgID++
	return m.nextMsgID, nil
}

func (m *mockGateway) Forward(ctx context.Context, dstChatID, srcChatID int64, messageID int) (*repo.RelayedItem, error) {
	m.record(gatewayCall{op: "forward", chatID: dstChatID, srcChatID: srcChatID, messageID: messageID})
	m.nextMsgID++
	return &repo.RelayedItem{MessageID: m.nextMsgID, FileID: "file-1"}, nil
}

func (m *mockGateway) Delete(ctx context.Context, chatID int64, messageID int) error {
	m.record(gatewayCall{op: "delete", chatID: chatID, messageID: messageID})
	return nil
}

func (m *mockGateway) FileBytes(ctx context.Context, fileID string) ([]byte, error) {
	return m.fileBytes, nil
}

func (m *mockGateway) MemberRole(ctx context.Context, chatID, userID int64) (domain.Role, error) {
	return domain.RoleMember, nil
}

func (m *mockGateway) ChatMetadata(ctx context.Context, chatID int64) (string, string, error) {
	return "Test Group", "", nil
}

func (m *mockGateway) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.calls))
	for i, call := range m.calls {
		names[i] = call.op
	}
	return names
}

type mockSettings struct {
	mu     sync.Mutex
	values map[string]string
	asset  []byte
}

func newMockSettings() *mockSettings {
	return &mockSettings{values: make(map[string]string)}
}

func (m *mockSettings) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *mockSettings) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockSettings) SaveWatermark(ctx context.Context, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asset = data
	return "rev", nil
}

func (m *mockSettings) LoadWatermark(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asset, nil
}

func (m *mockSettings) Close() error { return nil }

type mockLedger struct {
	mu        sync.Mutex
	deleted   int64
	cutoff    time.Time
	topByChat map[int64][]*domain.ContestRecord
}

func (m *mockLedger) InsertEvent(ctx context.Context, event *domain.FeedbackEvent) error {
	return nil
}

func (m *mockLedger) RecentEvents(ctx context.Context, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	return nil, nil
}

func (m *mockLedger) RecentEventsByUser(ctx context.Context, userID, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	return nil, nil
}

func (m *mockLedger) IncrementContest(ctx context.Context, sub domain.Submitter, chatID int64, day string, delta int) error {
	return nil
}

func (m *mockLedger) TopContest(ctx context.Context, chatID int64, day string, limit int) ([]*domain.ContestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topByChat[chatID], nil
}

func (m *mockLedger) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoff = cutoff
	return m.deleted, nil
}

func (m *mockLedger) ClearEvents(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockLedger) Close() error { return nil }

type mockGroups struct {
	mu        sync.Mutex
	groups    []int64
	reminders map[int64]string
}

func (m *mockGroups) AuthorizeGroup(ctx context.Context, chatID int64, title string) error {
	return nil
}

func (m *mockGroups) IsGroupAuthorized(ctx context.Context, chatID int64) (bool, error) {
	return true, nil
}

func (m *mockGroups) ListGroups(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groups, nil
}

func (m *mockGroups) AuthorizeUser(ctx context.Context, userID int64) error { return nil }

func (m *mockGroups) IsUserAuthorized(ctx context.Context, userID int64) (bool, error) {
	return false, nil
}

func (m *mockGroups) SetReminder(ctx context.Context, chatID int64, text string) error {
	return nil
}

func (m *mockGroups) Reminders(ctx context.Context) (map[int64]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reminders, nil
}

func (m *mockGroups) Close() error { return nil }
