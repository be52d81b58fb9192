package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/model"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockProgressionRepo struct {
	getFunc    func(ctx context.Context, userID string) (*model.UserProgression, error)
	commitFunc func(ctx context.Context, c *model.ProgressionCommit) error
	listFunc   func(ctx context.Context) ([]*model.UserProgression, error)
}

func (m *mockProgressionRepo) Get(ctx context.Context, userID string) (*model.UserProgression, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockProgressionRepo) Commit(ctx context.Context, c *model.ProgressionCommit) error {
	if m.commitFunc != nil {
		return m.commitFunc(ctx, c)
	}
	return nil
}

func (m *mockProgressionRepo) List(ctx context.Context) ([]*model.UserProgression, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

type mockActivityRepo struct {
	historyFunc   func(ctx context.Context, userID string) (*model.ActivityHistory, error)
	ledgerFunc    func(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error)
	historiesFunc func(ctx context.Context) (map[string]*model.ActivityHistory, error)
}

func (m *mockActivityRepo) History(ctx context.Context, userID string) (*model.ActivityHistory, error) {
	if m.historyFunc != nil {
		return m.historyFunc(ctx, userID)
	}
	return &model.ActivityHistory{UserID: userID}, nil
}

func (m *mockActivityRepo) Ledger(ctx context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error) {
	if m.ledgerFunc != nil {
		return m.ledgerFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockActivityRepo) Histories(ctx context.Context) (map[string]*model.ActivityHistory, error) {
	if m.historiesFunc != nil {
		return m.historiesFunc(ctx)
	}
	return map[string]*model.ActivityHistory{}, nil
}

type mockChallengeRepo struct {
	createFunc        func(ctx context.Context, ch *model.PersonalChallenge) error
	getByIDFunc       func(ctx context.Context, id string) (*model.PersonalChallenge, error)
	listActiveFunc    func(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error)
	listByOwnerFunc   func(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error)
	listExpirableFunc func(ctx context.Context, now time.Time) ([]model.PersonalChallenge, error)
	markExpiredFunc   func(ctx context.Context, id string) error
}

func (m *mockChallengeRepo) Create(ctx context.Context, ch *model.PersonalChallenge) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, ch)
	}
	return nil
}

func (m *mockChallengeRepo) GetByID(ctx context.Context, id string) (*model.PersonalChallenge, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockChallengeRepo) ListActiveByOwner(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockChallengeRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.PersonalChallenge, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockChallengeRepo) ListExpirable(ctx context.Context, now time.Time) ([]model.PersonalChallenge, error) {
	if m.listExpirableFunc != nil {
		return m.listExpirableFunc(ctx, now)
	}
	return nil, nil
}

func (m *mockChallengeRepo) MarkExpired(ctx context.Context, id string) error {
	if m.markExpiredFunc != nil {
		return m.markExpiredFunc(ctx, id)
	}
	return nil
}

type mockCustomBadgeRepo struct {
	createFunc func(ctx context.Context, b *model.Badge) error
	listFunc   func(ctx context.Context) ([]model.Badge, error)
}

func (m *mockCustomBadgeRepo) CreateCustomBadge(ctx context.Context, b *model.Badge) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	return nil
}

func (m *mockCustomBadgeRepo) ListCustomBadges(ctx context.Context) ([]model.Badge, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

// ============================================================================
// In-memory store
// ============================================================================

// memStore applies commits the way the SurrealDB repositories do: version
// checked, record ids unique
type memStore struct {
	mu           sync.Mutex
	progressions map[string]*model.UserProgression
	histories    map[string]*model.ActivityHistory
	challenges   map[string]model.PersonalChallenge
	awards       map[string]bool
	awardLog     []model.BadgeAward
	commits      int
	// beforeCommit runs ahead of each Commit, outside the store lock
	beforeCommit func()
}

func newMemStore() *memStore {
	return &memStore{
		progressions: make(map[string]*model.UserProgression),
		histories:    make(map[string]*model.ActivityHistory),
		challenges:   make(map[string]model.PersonalChallenge),
		awards:       make(map[string]bool),
	}
}

func (s *memStore) Get(_ context.Context, userID string) (*model.UserProgression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progressions[userID]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (s *memStore) List(_ context.Context) ([]*model.UserProgression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.UserProgression, 0, len(s.progressions))
	for _, p := range s.progressions {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *memStore) Commit(_ context.Context, c *model.ProgressionCommit) error {
	if s.beforeCommit != nil {
		s.beforeCommit()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := c.Progression.UserID
	var current int64
	if p, ok := s.progressions[userID]; ok {
		current = p.Version
	}
	if current != c.ExpectedVersion {
		return fmt.Errorf("%w: stored %d", database.ErrConflict, current)
	}
	for _, a := range c.Delta.BadgeAwards {
		if s.awards[a.UserID+"/"+a.BadgeID] {
			return database.ErrDuplicate
		}
	}
	for _, ch := range c.Challenges {
		if stored, ok := s.challenges[ch.ID]; ok && stored.Status != model.ChallengeActive {
			return fmt.Errorf("%w: challenge %s is %s", database.ErrConflict, ch.ID, stored.Status)
		}
	}

	s.commits++
	s.progressions[userID] = c.Progression.Clone()
	for _, a := range c.Delta.BadgeAwards {
		s.awards[a.UserID+"/"+a.BadgeID] = true
		s.awardLog = append(s.awardLog, a)
	}

	h := s.historyLocked(userID)
	h.Participations = append(h.Participations, c.Recorded.Participations...)
	h.Recognitions = append(h.Recognitions, c.Recorded.Recognitions...)
	h.Feedback = append(h.Feedback, c.Recorded.Feedback...)
	h.Completions = append(h.Completions, c.Recorded.Completions...)
	h.Contributions = append(h.Contributions, c.Recorded.Contributions...)
	h.Ledger = append(h.Ledger, c.Delta.Ledger...)
	h.Redemptions = append(h.Redemptions, c.Delta.Redemptions...)

	for _, ch := range c.Challenges {
		s.challenges[ch.ID] = ch
	}
	return nil
}

func (s *memStore) AwardsByUser(_ context.Context, userID string) ([]model.BadgeAward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BadgeAward
	for _, a := range s.awardLog {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) historyLocked(userID string) *model.ActivityHistory {
	h, ok := s.histories[userID]
	if !ok {
		h = &model.ActivityHistory{UserID: userID}
		s.histories[userID] = h
	}
	return h
}

func copyHistory(h *model.ActivityHistory) *model.ActivityHistory {
	c := *h
	c.Participations = append([]model.Participation(nil), h.Participations...)
	c.Recognitions = append([]model.Recognition(nil), h.Recognitions...)
	c.Feedback = append([]model.Feedback(nil), h.Feedback...)
	c.Completions = append([]model.ChallengeCompletion(nil), h.Completions...)
	c.Contributions = append([]model.Contribution(nil), h.Contributions...)
	c.Ledger = append([]model.PointsLedgerEntry(nil), h.Ledger...)
	c.Redemptions = append([]model.Redemption(nil), h.Redemptions...)
	return &c
}

func (s *memStore) History(_ context.Context, userID string) (*model.ActivityHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyHistory(s.historyLocked(userID)), nil
}

func (s *memStore) Histories(_ context.Context) (map[string]*model.ActivityHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*model.ActivityHistory, len(s.histories))
	for id, h := range s.histories {
		out[id] = copyHistory(h)
	}
	return out, nil
}

func (s *memStore) Ledger(_ context.Context, userID string, limit, offset int) ([]model.PointsLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := s.historyLocked(userID).Ledger
	out := make([]model.PointsLedgerEntry, 0, limit)
	for i := len(ledger) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, ledger[i])
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, ch *model.PersonalChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[ch.ID]; ok {
		return database.ErrDuplicate
	}
	s.challenges[ch.ID] = *ch
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*model.PersonalChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.challenges[id]; ok {
		return &ch, nil
	}
	return nil, nil
}

func (s *memStore) listChallenges(keep func(model.PersonalChallenge) bool) []model.PersonalChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PersonalChallenge
	for _, ch := range s.challenges {
		if keep(ch) {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListActiveByOwner(_ context.Context, ownerID string) ([]model.PersonalChallenge, error) {
	return s.listChallenges(func(ch model.PersonalChallenge) bool {
		return ch.OwnerID == ownerID && ch.Status == model.ChallengeActive
	}), nil
}

func (s *memStore) ListByOwner(_ context.Context, ownerID string) ([]model.PersonalChallenge, error) {
	return s.listChallenges(func(ch model.PersonalChallenge) bool { return ch.OwnerID == ownerID }), nil
}

func (s *memStore) ListExpirable(_ context.Context, now time.Time) ([]model.PersonalChallenge, error) {
	return s.listChallenges(func(ch model.PersonalChallenge) bool {
		return ch.Status == model.ChallengeActive && ch.EndDate.Before(now)
	}), nil
}

func (s *memStore) MarkExpired(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.challenges[id]; ok && ch.Status == model.ChallengeActive {
		ch.Status = model.ChallengeExpired
		s.challenges[id] = ch
	}
	return nil
}

// memTeams stores team challenges in memory
type memTeams struct {
	mu    sync.Mutex
	items map[string]model.TeamChallenge
}

func newMemTeams() *memTeams {
	return &memTeams{items: make(map[string]model.TeamChallenge)}
}

func (m *memTeams) Create(_ context.Context, ch *model.TeamChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[ch.ID]; ok {
		return database.ErrDuplicate
	}
	m.items[ch.ID] = *ch
	return nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (*model.TeamChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.items[id]; ok {
		return &ch, nil
	}
	return nil, nil
}

func (m *memTeams) ListByMember(_ context.Context, userID string) ([]model.TeamChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TeamChallenge
	for _, ch := range m.items {
		if ch.HasMember(userID) {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ============================================================================
// Helpers
// ============================================================================

var t0 = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC) // a Tuesday

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	var n atomic.Int64
	eng, err := engine.New(engine.Config{
		NewID: func() string { return fmt.Sprintf("id-%d", n.Add(1)) },
	})
	require.NoError(t, err)
	return eng
}

func newTestCatalog(t *testing.T) *CatalogService {
	t.Helper()
	return NewCatalogService(CatalogServiceConfig{Engine: newTestEngine(t)})
}

func newStoreService(t *testing.T, store *memStore) *ProgressionService {
	t.Helper()
	return NewProgressionService(ProgressionServiceConfig{
		Progressions: store,
		Activity:     store,
		Challenges:   store,
		Teams:        newMemTeams(),
		Awards:       store,
		Catalog:      newTestCatalog(t),
		Now:          func() time.Time { return t0 },
	})
}

func attendance(id, userID string, at time.Time) model.ActivityEvent {
	return model.ActivityEvent{
		ID:         id,
		UserID:     userID,
		Type:       model.EventAttendance,
		OccurredAt: at,
		SourceID:   "meetup-" + id,
	}
}

func sumLedger(entries []model.PointsLedgerEntry) (credits, debits int64) {
	for _, e := range entries {
		if e.Delta >= 0 {
			credits += e.Delta
		} else {
			debits -= e.Delta
		}
	}
	return credits, debits
}
