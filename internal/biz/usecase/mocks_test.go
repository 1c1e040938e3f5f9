package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// Shared mock implementations of the repo interfaces.

type mockLedger struct {
	mu       sync.Mutex
	events   []*domain.FeedbackEvent
	contest  map[string]int // "user/chat/day" -> count
	topItems []*domain.ContestRecord
}

func newMockLedger() *mockLedger {
	return &mockLedger{contest: make(map[string]int)}
}

func contestKey(userID, chatID int64, day string) string {
	return fmt.Sprintf("%s/%d/%d", day, userID, chatID)
}

func (m *mockLedger) InsertEvent(ctx context.Context, event *domain.FeedbackEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockLedger) RecentEvents(ctx context.Context, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.FeedbackEvent
	for _, e := range m.events {
		if e.Origin.ChatID == chatID && !e.AcceptedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockLedger) RecentEventsByUser(ctx context.Context, userID, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.FeedbackEvent
	for _, e := range m.events {
		if e.Submitter.ID == userID && e.Origin.ChatID == chatID && !e.AcceptedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockLedger) IncrementContest(ctx context.Context, sub domain.Submitter, chatID int64, day string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contest[contestKey(sub.ID, chatID, day)] += delta
	return nil
}

func (m *mockLedger) TopContest(ctx context.Context, chatID int64, day string, limit int) ([]*domain.ContestRecord, error) {
	return m.topItems, nil
}

func (m *mockLedger) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockLedger) ClearEvents(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.events))
	m.events = nil
	return n, nil
}

func (m *mockLedger) Close() error { return nil }

func (m *mockLedger) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockLedger) contestCount(userID, chatID int64, day string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contest[contestKey(userID, chatID, day)]
}

type mockGateway struct {
	mu    sync.Mutex
	texts []string
	role  domain.Role
}

func (m *mockGateway) SendText(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockGateway) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	return m.SendText(ctx, chatID, text)
}

func (m *mockGateway) SendPhoto(ctx context.Context, chatID int64, data []byte, caption string) (int, error) {
	return 1, nil
}

func (m *mockGateway) Forward(ctx context.Context, dstChatID, srcChatID int64, messageID int) (*repo.RelayedItem, error) {
	return &repo.RelayedItem{MessageID: messageID, FileID: "file"}, nil
}

func (m *mockGateway) Delete(ctx context.Context, chatID int64, messageID int) error { return nil }

func (m *mockGateway) FileBytes(ctx context.Context, fileID string) ([]byte, error) {
	return nil, nil
}

func (m *mockGateway) MemberRole(ctx context.Context, chatID, userID int64) (domain.Role, error) {
	return m.role, nil
}

func (m *mockGateway) ChatMetadata(ctx context.Context, chatID int64) (string, string, error) {
	return "Test Group", "", nil
}

func (m *mockGateway) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

type mockForwarder struct {
	mu   sync.Mutex
	jobs []*ForwardJob
}

func (m *mockForwarder) Forward(ctx context.Context, job *ForwardJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockForwarder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// fakeScheduler collects callbacks so tests control when timers fire.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []fakeTask
}

type fakeTask struct {
	delay time.Duration
	fn    func()
}

func (s *fakeScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, fakeTask{delay: d, fn: fn})
}

func (s *fakeScheduler) Every(d time.Duration, fn func())    {}
func (s *fakeScheduler) DailyAt(hour, minute int, fn func()) {}

// run fires every pending callback whose delay is at most upTo, including
// ones scheduled while running. Longer timers (eviction) stay pending.
func (s *fakeScheduler) run(upTo time.Duration) {
	for {
		s.mu.Lock()
		idx := -1
		for i, task := range s.tasks {
			if task.delay <= upTo {
				idx = i
				break
			}
		}
		if idx < 0 {
			s.mu.Unlock()
			return
		}
		fn := s.tasks[idx].fn
		s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
		s.mu.Unlock()
		fn()
	}
}

type mockGroups struct {
	mu        sync.Mutex
	groups    map[int64]bool
	users     map[int64]bool
	reminders map[int64]string
}

func newMockGroups() *mockGroups {
	return &mockGroups{
		groups:    make(map[int64]bool),
		users:     make(map[int64]bool),
		reminders: make(map[int64]string),
	}
}

func (m *mockGroups) AuthorizeGroup(ctx context.Context, chatID int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[chatID] = true
	return nil
}

func (m *mockGroups) IsGroupAuthorized(ctx context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groups[chatID], nil
}

func (m *mockGroups) ListGroups(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for id := range m.groups {
		out = append(out, id)
	}
	return out, nil
}

func (m *mockGroups) AuthorizeUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = true
	return nil
}

func (m *mockGroups) IsUserAuthorized(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID], nil
}

func (m *mockGroups) SetReminder(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[chatID] = text
	return nil
}

func (m *mockGroups) Reminders(ctx context.Context) (map[int64]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]string, len(m.reminders))
	for k, v := range m.reminders {
		out[k] = v
	}
	return out, nil
}

func (m *mockGroups) Close() error { return nil }
