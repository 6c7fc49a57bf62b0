package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pazargate/internal/config"
	"pazargate/internal/models"
	"pazargate/pkg/logger"
)

// In-memory store fakes shared across the service tests. They mimic
// the repository semantics closely enough to exercise the invariants:
// clones on read, single active session per phone, idempotent end.

func testLogger() *logger.Logger {
	return logger.New("error")
}

func testRouterConfig() config.RouterConfig {
	return config.RouterConfig{
		CancelKeywords:     []string{"iptal", "vazgeç", "kapat", "çık", "cancel", "stop"},
		DeleteTriggers:     []string{"sil", "silebilir", "silmek", "silme", "kaldır"},
		OwnListingTriggers: []string{"ilanlarım", "ilanlarımı", "bana ait"},
		AllListingTriggers: []string{"tüm ilanlar", "tüm ilanları", "kime ait"},
		UpdateTriggers:     []string{"değiştir", "güncelle", "düzenle"},
		ConfirmTriggers:    []string{"onayla", "yayınla", "tamam", "evet", "paylaş", "onaylıyorum"},
		SellTriggers:       []string{"satıyorum", "satmak", "satayım", "ilan ver"},
		BuyTriggers:        []string{"almak", "alıcı", "arıyorum", "var mı", "bul", "uygun", "ucuz"},
	}
}

type fakeSecurityStore struct {
	mu       sync.Mutex
	records  map[string]*models.PinRecord
	attempts []*models.PinAttempt
	failSave error
}

func newFakeSecurityStore() *fakeSecurityStore {
	return &fakeSecurityStore{records: make(map[string]*models.PinRecord)}
}

func (s *fakeSecurityStore) GetByPhone(_ context.Context, phone string) (*models.PinRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[phone]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeSecurityStore) Upsert(_ context.Context, record *models.PinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	cp := *record
	s.records[record.Phone] = &cp
	return nil
}

func (s *fakeSecurityStore) Save(_ context.Context, record *models.PinRecord) error {
	if s.failSave != nil {
		return s.failSave
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.Phone] = &cp
	return nil
}

func (s *fakeSecurityStore) DeleteOrphans(_ context.Context, phone string, keepUserID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[phone]; ok && r.UserID != keepUserID {
		delete(s.records, phone)
	}
	return nil
}

func (s *fakeSecurityStore) AppendAttempt(_ context.Context, attempt *models.PinAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*models.Session)}
}

func (s *fakeSessionStore) GetActive(_ context.Context, phone string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.Phone == phone && sess.IsActive {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeSessionStore) Open(_ context.Context, userID uuid.UUID, phone string, ttl time.Duration) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, sess := range s.sessions {
		if sess.Phone == phone && sess.IsActive {
			sess.End(models.EndReasonManual, now)
		}
	}
	session := &models.Session{
		ID:           uuid.New(),
		UserID:       userID,
		Phone:        phone,
		Token:        uuid.NewString(),
		IsActive:     true,
		SessionType:  models.SessionTypeTimed,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		LastActivity: now,
	}
	s.sessions[session.ID] = session
	cp := *session
	return &cp, nil
}

func (s *fakeSessionStore) Touch(_ context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok && sess.IsActive {
		sess.LastActivity = now
	}
	return nil
}

func (s *fakeSessionStore) End(_ context.Context, id uuid.UUID, reason models.EndReason, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.End(reason, now)
	}
	return nil
}

func (s *fakeSessionStore) SweepExpired(_ context.Context, now time.Time) ([]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept []*models.Session
	for _, sess := range s.sessions {
		if sess.IsActive && sess.IsExpired(now) {
			sess.End(models.EndReasonTimeout, now)
			cp := *sess
			swept = append(swept, &cp)
		}
	}
	return swept, nil
}

func (s *fakeSessionStore) get(id uuid.UUID) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		cp := *sess
		return &cp
	}
	return nil
}

func (s *fakeSessionStore) activeCount(phone string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.Phone == phone && sess.IsActive {
			n++
		}
	}
	return n
}

type fakeSafetyStore struct {
	mu    sync.Mutex
	flags []*models.ImageSafetyFlag
}

func (s *fakeSafetyStore) Insert(_ context.Context, flag *models.ImageSafetyFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flag.ID == uuid.Nil {
		flag.ID = uuid.New()
	}
	s.flags = append(s.flags, flag)
	return nil
}

type fakeDraftStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*models.Draft
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{drafts: make(map[uuid.UUID]*models.Draft)}
}

func (s *fakeDraftStore) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[userID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeDraftStore) Upsert(_ context.Context, draft *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	cp := *draft
	s.drafts[draft.UserID] = &cp
	return nil
}

func (s *fakeDraftStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
	return nil
}

type fakeListingWriter struct {
	mu         sync.Mutex
	listings   []*models.Listing
	failInsert error
}

func (s *fakeListingWriter) Insert(_ context.Context, listing *models.Listing) error {
	if s.failInsert != nil {
		return s.failInsert
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	cp := *listing
	s.listings = append(s.listings, &cp)
	return nil
}

func (s *fakeListingWriter) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Listing
	for _, l := range s.listings {
		if l.UserID == userID && l.Status == "active" {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeListingWriter) Delete(_ context.Context, id, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listings {
		if l.ID == id && l.UserID == userID {
			s.listings = append(s.listings[:i], s.listings[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeProfileStore struct {
	profiles map[string]*models.Profile
}

func (s *fakeProfileStore) GetByPhone(_ context.Context, phone string) (*models.Profile, error) {
	if p, ok := s.profiles[phone]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}
