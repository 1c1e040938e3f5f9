package server

import (
	"context"
	"sync"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/biz/usecase"
)

type mockGateway struct {
	mu        sync.Mutex
	texts     []string
	textChats []int64
	role      domain.Role
	fileBytes []byte
}

func (m *mockGateway) SendText(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	m.textChats = append(m.textChats, chatID)
	return nil
}

func (m *mockGateway) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	return m.SendText(ctx, chatID, text)
}

func (m *mockGateway) SendPhoto(ctx context.Context, chatID int64, data []byte, caption string) (int, error) {
	return 1, nil
}

func (m *mockGateway) Forward(ctx context.Context, dstChatID, srcChatID int64, messageID int) (*repo.RelayedItem, error) {
	return &repo.RelayedItem{MessageID: 1, FileID: "file"}, nil
}

func (m *mockGateway) Delete(ctx context.Context, chatID int64, messageID int) error { return nil }

func (m *mockGateway) FileBytes(ctx context.Context, fileID string) ([]byte, error) {
	return m.fileBytes, nil
}

func (m *mockGateway) MemberRole(ctx context.Context, chatID, userID int64) (domain.Role, error) {
	return m.role, nil
}

func (m *mockGateway) ChatMetadata(ctx context.Context, chatID int64) (string, string, error) {
	return "Test Group", "testgroup", nil
}

func (m *mockGateway) textCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

func (m *mockGateway) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type mockGroups struct {
	mu              sync.Mutex
	groupAuthorized bool
	addedGroups     map[int64]string
	authorizedUsers map[int64]bool
	reminders       map[int64]string
}

func newMockGroups(authorized bool) *mockGroups {
	return &mockGroups{
		groupAuthorized: authorized,
		addedGroups:     make(map[int64]string),
		authorizedUsers: make(map[int64]bool),
		reminders:       make(map[int64]string),
	}
}

func (m *mockGroups) AuthorizeGroup(ctx context.Context, chatID int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addedGroups[chatID] = title
	return nil
}

func (m *mockGroups) IsGroupAuthorized(ctx context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupAuthorized, nil
}

func (m *mockGroups) ListGroups(ctx context.Context) ([]int64, error) { return nil, nil }

func (m *mockGroups) AuthorizeUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorizedUsers[userID] = true
	return nil
}

func (m *mockGroups) IsUserAuthorized(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authorizedUsers[userID], nil
}

func (m *mockGroups) SetReminder(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[chatID] = text
	return nil
}

func (m *mockGroups) Reminders(ctx context.Context) (map[int64]string, error) {
	return m.reminders, nil
}

func (m *mockGroups) Close() error { return nil }

type mockLedger struct {
	mu      sync.Mutex
	events  []*domain.FeedbackEvent
	recent  []*domain.FeedbackEvent
	cleared int64
}

func (m *mockLedger) InsertEvent(ctx context.Context, event *domain.FeedbackEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockLedger) RecentEvents(ctx context.Context, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	return m.recent, nil
}

func (m *mockLedger) RecentEventsByUser(ctx context.Context, userID, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	var out []*domain.FeedbackEvent
	for _, event := range m.recent {
		if event.Submitter.ID == userID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (m *mockLedger) IncrementContest(ctx context.Context, sub domain.Submitter, chatID int64, day string, delta int) error {
	return nil
}

func (m *mockLedger) TopContest(ctx context.Context, chatID int64, day string, limit int) ([]*domain.ContestRecord, error) {
	return nil, nil
}

func (m *mockLedger) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockLedger) ClearEvents(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.cleared
	m.events = nil
	return n, nil
}

func (m *mockLedger) Close() error { return nil }

func (m *mockLedger) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
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

type mockForwarder struct {
	mu   sync.Mutex
	jobs []*usecase.ForwardJob
}

func (m *mockForwarder) Forward(ctx context.Context, job *usecase.ForwardJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockForwarder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// fakeScheduler fires tasks synchronously up to a virtual horizon.
type fakeTask struct {
	delay time.Duration
	fn    func()
}

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []fakeTask
}

func (f *fakeScheduler) After(d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, fakeTask{delay: d, fn: fn})
}

func (f *fakeScheduler) Every(d time.Duration, fn func())    {}
func (f *fakeScheduler) DailyAt(hour, minute int, fn func()) {}

func (f *fakeScheduler) run(upTo time.Duration) {
	for {
		f.mu.Lock()
		var next func()
		for i, task := range f.tasks {
			if task.delay <= upTo {
				next = task.fn
				f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		if next == nil {
			return
		}
		next()
	}
}
