package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pazargate/internal/cache"
	"pazargate/internal/config"
	"pazargate/internal/models"
)

type controllerFixture struct {
	controller *Controller
	security   *fakeSecurityStore
	sessions   *fakeSessionStore
	sessionMgr *SessionManager
	safety     *fakeSafetyStore
	drafts     *fakeDraftStore
	listings   *fakeListingWriter
	states     *cache.MemoryStore
	userID     uuid.UUID
}

func newControllerFixture(t *testing.T, agentURL string) *controllerFixture {
	t.Helper()

	f := &controllerFixture{
		security: newFakeSecurityStore(),
		sessions: newFakeSessionStore(),
		safety:   &fakeSafetyStore{},
		drafts:   newFakeDraftStore(),
		listings: &fakeListingWriter{},
		states:   cache.NewMemoryStore(),
		userID:   uuid.New(),
	}

	log := testLogger()
	pins := NewPinAuthService(f.security, pinConfig(), log)
	sessions := NewSessionManager(f.sessions, sessionConfig(), log)
	f.sessionMgr = sessions
	gate := NewSafetyGate(f.safety, config.SafetyConfig{Timeout: time.Second}, log)
	router := NewIntentRouter(testRouterConfig())
	fsm := NewDraftFSM(f.drafts, f.listings, log)
	agent := NewAgentClient(config.AgentConfig{BackendURL: agentURL, Timeout: 2 * time.Second}, log)
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{}}

	require.NoError(t, pins.Register(context.Background(), f.userID, f.userID, testPhone, testPin))

	f.controller = NewController(
		pins, sessions, gate, router, fsm, agent,
		profiles, f.states, nil,
		config.TurnConfig{Deadline: 5 * time.Second},
		log,
	)
	return f
}

func (f *controllerFixture) turn(text string) *TurnReply {
	return f.controller.Handle(context.Background(), &Turn{
		Phone:     testPhone,
		Text:      text,
		Transport: "whatsapp",
	})
}

func (f *controllerFixture) login(t *testing.T) *TurnReply {
	t.Helper()
	reply := f.turn(testPin)
	require.NotEmpty(t, reply.SessionToken, "login should open a session")
	return reply
}

func TestTurnWithoutSessionPromptsForPin(t *testing.T) {
	f := newControllerFixture(t, "")

	reply := f.turn("Merhaba")
	assert.Equal(t, "🔒 Güvenlik için 4 haneli PIN kodunuzu girin", reply.ReplyText)
	assert.Empty(t, reply.SessionToken)
}

func TestPinLoginOpensSession(t *testing.T) {
	f := newControllerFixture(t, "")

	reply := f.turn(testPin)
	assert.True(t, reply.Success)
	assert.Contains(t, reply.ReplyText, "Giriş başarılı")
	assert.Contains(t, reply.ReplyText, "10 dakika")
	assert.NotEmpty(t, reply.SessionToken)
	assert.Equal(t, 1, f.sessions.activeCount(testPhone))
}

func TestWrongPinCountsDown(t *testing.T) {
	f := newControllerFixture(t, "")

	reply := f.turn("0000")
	assert.Contains(t, reply.ReplyText, "PIN hatalı")
	assert.Contains(t, reply.ReplyText, "2 deneme")

	reply = f.turn("0000")
	assert.Contains(t, reply.ReplyText, "1 deneme")

	reply = f.turn("0000")
	assert.Contains(t, reply.ReplyText, "Çok fazla hatalı deneme")

	// The correct PIN stays rejected while the lock holds
	reply = f.turn(testPin)
	assert.Contains(t, reply.ReplyText, "Çok fazla hatalı deneme")
	assert.Empty(t, reply.SessionToken)
}

func TestUnregisteredPhone(t *testing.T) {
	f := newControllerFixture(t, "")

	reply := f.controller.Handle(context.Background(), &Turn{
		Phone:     "+905559999999",
		Text:      "1234",
		Transport: "whatsapp",
	})
	assert.Contains(t, reply.ReplyText, "kayıtlı PIN bulunamadı")
}

func TestCancelWithoutDraftEndsSession(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("iptal")
	assert.Equal(t, "✅ İşlem iptal edildi. Oturumunuz kapatıldı.", reply.ReplyText)
	assert.Equal(t, models.EndReasonUserCancelled, reply.EndReason)
	assert.Equal(t, 0, f.sessions.activeCount(testPhone))

	// The next turn is unauthenticated again
	reply = f.turn("Merhaba")
	assert.Equal(t, "🔒 Güvenlik için 4 haneli PIN kodunuzu girin", reply.ReplyText)
}

func TestCancelWithDraftKeepsSession(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("Arabamı satmak istiyorum. Marka: Toyota, Model: Corolla, Fiyat: 500.000 TL")
	require.Equal(t, models.IntentCreateListing, reply.Intent)

	reply = f.turn("iptal")
	assert.Equal(t, "✅ İlan taslağı iptal edildi.", reply.ReplyText)
	assert.Empty(t, reply.EndReason)
	assert.Equal(t, 1, f.sessions.activeCount(testPhone), "cancelling a draft keeps the session")
}

func TestCancelNamingListingGoesToDeleteFlow(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	require.NoError(t, f.listings.Insert(context.Background(),
		&models.Listing{UserID: f.userID, Title: "Eski Bisiklet", Price: 2000, Status: "active"}))

	// "iptal" next to an ilan-prefixed token is a delete request, not a
	// session cancel
	reply := f.turn("ilanı iptal et ve sil")
	assert.Equal(t, models.IntentDeleteListing, reply.Intent)
	assert.Contains(t, reply.ReplyText, "emin misiniz")
	assert.Empty(t, reply.EndReason)
	assert.Equal(t, 1, f.sessions.activeCount(testPhone), "session survives a listing delete request")
}

func TestAttributePairTurnStartsDraft(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("Marka: Toyota, Model: Corolla, Fiyat: 500.000 TL")
	assert.Equal(t, models.IntentCreateListing, reply.Intent)
	assert.Contains(t, reply.ReplyText, "Toyota Corolla")

	draft, err := f.drafts.GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, int64(500_000), draft.ListingData.Price)
}

func TestSessionTimeoutDropsDraft(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("Bisikletimi satmak istiyorum")
	require.Equal(t, models.IntentCreateListing, reply.Intent)

	draft, err := f.drafts.GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotNil(t, draft)

	// Eleven minutes later the lazy timeout in the session lookup fires
	f.sessionMgr.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	reply = f.turn("devam edelim")
	assert.Equal(t, "🔒 Güvenlik için 4 haneli PIN kodunuzu girin", reply.ReplyText)

	draft, err = f.drafts.GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Nil(t, draft, "timeout drops the draft like an explicit cancel")

	state, err := f.states.Get(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Nil(t, state, "timeout clears the conversation state")
}

func TestListingFlowEndToEnd(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("Arabamı satmak istiyorum. Marka: Toyota, Model: Corolla, Fiyat: 500.000 TL")
	assert.Equal(t, models.IntentCreateListing, reply.Intent)
	assert.Contains(t, reply.ReplyText, "İlan önizlemesi")
	assert.Contains(t, reply.ReplyText, "Toyota Corolla")
	assert.Contains(t, reply.ReplyText, "500000 TL")

	reply = f.turn("onayla")
	assert.Equal(t, models.IntentPublishListing, reply.Intent)
	assert.Contains(t, reply.ReplyText, "İlanınız yayında")
	assert.NotEmpty(t, reply.ListingID)

	require.Len(t, f.listings.listings, 1)
	assert.Equal(t, f.userID, f.listings.listings[0].UserID)
}

func TestListingFlowAsksForMissingFields(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("Bisikletimi satmak istiyorum")
	assert.Equal(t, models.IntentCreateListing, reply.Intent)
	assert.Contains(t, reply.ReplyText, "eksik")
	assert.Contains(t, reply.ReplyText, "fiyat")
}

func TestDeleteFlowWithConfirmation(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	require.NoError(t, f.listings.Insert(context.Background(),
		&models.Listing{UserID: f.userID, Title: "Eski Bisiklet", Price: 2000, Status: "active"}))

	reply := f.turn("eski bisiklet ilanımı sil")
	assert.Equal(t, models.IntentDeleteListing, reply.Intent)
	assert.Contains(t, reply.ReplyText, "emin misiniz")

	reply = f.turn("evet")
	assert.Equal(t, "🗑️ İlanınız silindi.", reply.ReplyText)

	remaining, err := f.listings.ListByUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteDeclinedFallsThrough(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	require.NoError(t, f.listings.Insert(context.Background(),
		&models.Listing{UserID: f.userID, Title: "Eski Bisiklet", Price: 2000, Status: "active"}))

	reply := f.turn("eski bisiklet ilanımı sil")
	require.Contains(t, reply.ReplyText, "emin misiniz")

	// A non-confirmation drops the pending delete; the listing stays
	f.turn("hayır kalsın")

	remaining, err := f.listings.ListByUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteWithNoListings(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("ilanımı sil")
	assert.Equal(t, "Yayında ilanınız bulunmuyor.", reply.ReplyText)
}

func TestBlockedImageShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifierResponse{
			Safe:       false,
			FlagType:   "weapon",
			Confidence: "high",
			Message:    "silah tespit edildi",
		})
	}))
	defer srv.Close()

	f := newControllerFixture(t, "")
	f.controller.safety = NewSafetyGate(f.safety, config.SafetyConfig{
		ClassifierURL: srv.URL,
		Timeout:       time.Second,
	}, testLogger())
	f.login(t)

	reply := f.controller.Handle(context.Background(), &Turn{
		Phone:     testPhone,
		Text:      "bunu satıyorum",
		ImageRefs: []string{"img-1"},
		Transport: "whatsapp",
	})
	assert.False(t, reply.Success)
	assert.Contains(t, reply.ReplyText, "silah tespit edildi")
	require.Len(t, f.safety.flags, 1)
	assert.Equal(t, models.FlagStatusPending, f.safety.flags[0].Status)

	// The safety block did not consume the session
	assert.Equal(t, 1, f.sessions.activeCount(testPhone))
}

func TestSafeVerdictProductFlowsIntoDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifierResponse{
			Safe:         true,
			AllowListing: true,
			Product:      map[string]interface{}{"name": "bisiklet", "condition": "used"},
		})
	}))
	defer srv.Close()

	f := newControllerFixture(t, "")
	f.controller.safety = NewSafetyGate(f.safety, config.SafetyConfig{
		ClassifierURL: srv.URL,
		Timeout:       time.Second,
	}, testLogger())
	f.login(t)

	reply := f.controller.Handle(context.Background(), &Turn{
		Phone:     testPhone,
		Text:      "Bisikletimi satmak istiyorum",
		ImageRefs: []string{"img-1"},
		Transport: "whatsapp",
	})
	require.Equal(t, models.IntentCreateListing, reply.Intent)

	draft, err := f.drafts.GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotNil(t, draft)
	require.NotNil(t, draft.VisionProduct)
	assert.Equal(t, "bisiklet", draft.VisionProduct["name"])
}

func TestSafeVerdictProductForwardedToAgent(t *testing.T) {
	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifierResponse{
			Safe:         true,
			AllowListing: true,
			Product:      map[string]interface{}{"name": "kulaklık"},
		})
	}))
	defer classifier.Close()

	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AgentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "kulaklık", req.Vision["name"])

		json.NewEncoder(w).Encode(AgentResponse{Response: "Güzel ürün!", Intent: "chat", Success: true})
	}))
	defer agent.Close()

	f := newControllerFixture(t, agent.URL)
	f.controller.safety = NewSafetyGate(f.safety, config.SafetyConfig{
		ClassifierURL: classifier.URL,
		Timeout:       time.Second,
	}, testLogger())
	f.login(t)

	reply := f.controller.Handle(context.Background(), &Turn{
		Phone:     testPhone,
		Text:      "Bu nasıl görünüyor",
		ImageRefs: []string{"img-1"},
		Transport: "whatsapp",
	})
	assert.Equal(t, "Güzel ürün!", reply.ReplyText)
}

func TestAgentForwardAndCompletion(t *testing.T) {
	done := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AgentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.AuthContext.Authenticated)
		assert.Equal(t, testPhone, req.Phone)

		json.NewEncoder(w).Encode(AgentResponse{
			Response:          "Siparişiniz tamamlandı!",
			Intent:            "order",
			Success:           true,
			OperationComplete: &done,
		})
	}))
	defer srv.Close()

	f := newControllerFixture(t, srv.URL)
	f.login(t)

	reply := f.turn("siparişimi tamamla")
	assert.Equal(t, "Siparişiniz tamamlandı!", reply.ReplyText)
	assert.Equal(t, models.EndReasonOperationCompleted, reply.EndReason)
	assert.Equal(t, 0, f.sessions.activeCount(testPhone), "completion ends the session")
}

func TestAgentUnavailable(t *testing.T) {
	f := newControllerFixture(t, "")
	f.login(t)

	reply := f.turn("Merhaba nasılsın")
	assert.Equal(t, models.IntentSmallTalk, reply.Intent)
	assert.Contains(t, reply.ReplyText, "Şu anda yanıt veremiyorum")
	assert.Equal(t, 1, f.sessions.activeCount(testPhone), "agent outage never ends the session")
}

func TestSessionTokenEchoedOnAuthenticatedTurns(t *testing.T) {
	f := newControllerFixture(t, "")
	login := f.login(t)

	reply := f.turn("ilanımı sil")
	assert.Equal(t, login.SessionToken, reply.SessionToken)
}
