package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/infrastructure/storage"
	"StoryCurator/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	articles  *storage.MemoryArticles
	decisions *storage.MemoryDecisions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	articles := storage.NewMemoryArticles()
	decisions := storage.NewMemoryDecisions()
	curationDB := storage.NewMemoryCuration()

	governance := usecase.NewGovernance(usecase.GovernanceDeps{Decisions: decisions, Articles: articles})
	capture := usecase.NewCaptureQueue(usecase.CaptureDeps{
		Queue:     storage.NewMemoryQueue(),
		Articles:  articles,
		Validator: governance,
		Options:   usecase.DefaultCaptureOptions(),
	})
	curation := usecase.NewCuration(usecase.CurationDeps{
		Rules:     curationDB,
		Log:       curationDB,
		Decisions: decisions,
		Articles:  articles,
		Options:   usecase.DefaultCurationOptions(),
	})

	router := NewRouter(Deps{
		Capture:       capture,
		Governance:    governance,
		Curation:      curation,
		Conversations: usecase.NewConversations(usecase.ConversationDeps{Capture: capture}),
		Social:        usecase.NewSocial(usecase.SocialDeps{Articles: articles}),
		Articles:      articles,
	})
	return &testServer{router: router, articles: articles, decisions: decisions}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthReportsDisabledChat(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "healthy" || body["ivor"] != "disabled" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/health", nil)
	rec := s.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "storycurator_http_requests_total") {
		t.Fatalf("metrics missing request counter: %d", rec.Code)
	}
}

func TestConversationFlowThroughQueue(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/conversations", map[string]any{
		"conversation": domain.Conversation{
			Message:  "I just got housing through the community cooperative in Manchester!",
			Response: "That's wonderful! Community projects like this cooperative show mutual aid in action.",
			Service:  "ivor",
		},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue status = %d body %s", rec.Code, rec.Body.String())
	}
	queued := decode[usecase.EnqueueResult](t, rec)

	status := decode[domain.QueueStatusReport](t, s.do(t, http.MethodGet, "/api/queue/status", nil))
	if status.Pending != 1 {
		t.Fatalf("expected one pending entry: %+v", status)
	}

	batch := decode[usecase.BatchResult](t, s.do(t, http.MethodPost, "/api/queue/process", nil))
	if batch.Deferred != 1 {
		t.Fatalf("entry without consent should be deferred: %+v", batch)
	}

	rec = s.do(t, http.MethodPost, "/api/queue/"+queued.QueueID+"/consent", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("consent status = %d", rec.Code)
	}
	consented := decode[map[string]any](t, rec)
	if consented["id"] != queued.QueueID || consented["userConsent"] != true || consented["status"] != "pending" {
		t.Fatalf("unexpected consent payload: %s", rec.Body.String())
	}
	batch = decode[usecase.BatchResult](t, s.do(t, http.MethodPost, "/api/queue/process", nil))
	if batch.Captured != 1 {
		t.Fatalf("expected capture after consent: %+v", batch)
	}

	if rec := s.do(t, http.MethodPost, "/api/queue/missing/consent", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing entry status = %d", rec.Code)
	}
}

func TestEnqueueRejectsEmptyConversation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/conversations", map[string]any{"conversation": map[string]string{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestValidationAndVoting(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	article, err := s.articles.Create(ctx, domain.Article{Title: "A quiet afternoon", Content: "Short piece."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := s.do(t, http.MethodPost, "/api/stories/"+article.ID+"/validation", map[string]string{"submittedBy": "editor"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("validation status = %d body %s", rec.Code, rec.Body.String())
	}
	decision := decode[domain.Decision](t, rec)
	if decision.Status != domain.DecisionVoting {
		t.Fatalf("expected open vote: %+v", decision)
	}

	votePath := "/api/decisions/" + decision.ID + "/votes"
	if rec := s.do(t, http.MethodPost, votePath, map[string]string{"userId": "u1", "vote": "for"}); rec.Code != http.StatusCreated {
		t.Fatalf("vote status = %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, votePath, map[string]string{"userId": "u1", "vote": "against"})
	if rec.Code != http.StatusOK || decode[map[string]bool](t, rec)["recorded"] {
		t.Fatalf("duplicate vote should not be recorded: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodPost, votePath, map[string]string{"userId": "u2", "vote": "maybe"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid vote status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/decisions/missing/votes", map[string]string{"userId": "u3", "vote": "for"}); rec.Code != http.StatusNotFound {
		t.Fatalf("missing decision status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/stories/"+article.ID+"/validation", map[string]string{"submissionType": "carrier-pigeon"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown submission type status = %d", rec.Code)
	}

	dash := decode[domain.GovernanceDashboard](t, s.do(t, http.MethodGet, "/api/governance/dashboard", nil))
	if len(dash.ActiveDecisions) != 1 || dash.TotalVoters != 1 {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}
}

func TestCurationSessionEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/curation/sessions", map[string]any{"name": "manual"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	session := decode[domain.CurationSession](t, rec)
	if session.Name != "manual" || session.Outcome != "No stories available" {
		t.Fatalf("unexpected session: %+v", session)
	}

	metrics := decode[domain.CurationMetrics](t, s.do(t, http.MethodGet, "/api/curation/metrics?timeframe=day", nil))
	if metrics.TotalSessions != 1 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestArticlesEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	published, _ := s.articles.Create(ctx, domain.Article{Title: "Published", Content: "x", Status: domain.ArticlePublished, Featured: true})
	s.articles.Create(ctx, domain.Article{Title: "Draft", Content: "y"})

	page := decode[domain.ArticlePage](t, s.do(t, http.MethodGet, "/api/articles?status=published&featured=true", nil))
	if len(page.Articles) != 1 || page.Articles[0].ID != published.ID {
		t.Fatalf("unexpected page: %+v", page)
	}
	if rec := s.do(t, http.MethodGet, "/api/articles?featured=maybe", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad featured flag status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/articles/"+published.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/articles/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing article status = %d", rec.Code)
	}
}

func TestUnconfiguredBackendsReturnServiceUnavailable(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if rec := s.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hello"}); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("chat status = %d", rec.Code)
	}
	body := map[string]any{
		"content":   domain.ShareContent{ID: "story-1"},
		"platforms": []string{"instagram"},
	}
	if rec := s.do(t, http.MethodPost, "/api/social/amplify", body); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("amplify status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/chat", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty chat status = %d", rec.Code)
	}
}

func TestTrendingFallsBackWithoutStories(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/social/trending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[struct {
		Content []domain.ShareContent `json:"content"`
		Total   int                   `json:"total"`
	}](t, rec)
	if body.Total != 2 || body.Content[0].ID != "fallback-1" {
		t.Fatalf("unexpected trending: %+v", body)
	}
}
