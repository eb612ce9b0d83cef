package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appcognitive "mnemo-backend/application/cognitive"
	"mnemo-backend/application/retrieval"
	"mnemo-backend/application/services"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/domain/graph"
	domainmemory "mnemo-backend/domain/memory"
	memstore "mnemo-backend/infrastructure/persistence/memory"
	"mnemo-backend/infrastructure/search"
	"mnemo-backend/interfaces/http/rest"
	"mnemo-backend/interfaces/http/rest/handlers"
	"mnemo-backend/pkg/auth"
	"mnemo-backend/pkg/common"
	"mnemo-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "router-test-secret-32-characters!!"
	testIssuer = "mnemo"
)

type staticPresets struct{}

func (staticPresets) Default() retrieval.Configuration  { return retrieval.DefaultConfiguration() }
func (staticPresets) Personal() retrieval.Configuration { return retrieval.PersonalFocusConfiguration() }

type testAPI struct {
	server *httptest.Server
	store  *memstore.Store
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.NewStore()
	domain := domaincfg.DefaultDomainConfig()

	engine := retrieval.NewEngine(
		store.ShortTermMemories(),
		store.LongTermMemories(),
		store.EpisodicMemories(),
		store.Notes(),
		store.Entities(),
		store.Relationships(),
		domain,
		logger,
	)
	adapter := appcognitive.NewAdapter(
		store.Entities(),
		store.Relationships(),
		store.CognitiveNodes(),
		search.NewTermSearcher(store.CognitiveNodes()),
		nil,
		domain,
		logger,
	)
	ingestion := services.NewIngestionService(engine, adapter, store.Entities(), logger)
	graphSvc := services.NewGraphService(store.Entities(), store.Relationships(), adapter, logger)

	validator, err := auth.NewValidator(testSecret, testIssuer)
	require.NoError(t, err)
	generator, err := auth.NewGenerator(testSecret, testIssuer, time.Hour)
	require.NoError(t, err)
	token, err := generator.GenerateToken("user-1", "user@example.com", nil)
	require.NoError(t, err)

	metrics := observability.NewMetrics("MnemoTest", nil, logger)
	router := rest.NewRouter(
		handlers.NewRetrievalHandler(engine, ingestion, staticPresets{}, metrics, logger),
		handlers.NewSyncHandler(ingestion, metrics, logger),
		handlers.NewEntityHandler(store.Entities(), graphSvc, domain, logger),
		handlers.NewGraphHandler(store.Relationships(), graphSvc, domain, logger),
		validator,
		false,
		logger,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testAPI{server: server, store: store, token: token}
}

func (a *testAPI) request(t *testing.T, method, path string, body interface{}, authorized bool) (*http.Response, common.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope common.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestRouter_HealthEndpointsAreOpen(t *testing.T) {
	api := newTestAPI(t)

	resp, envelope := api.request(t, http.MethodGet, "/health", nil, false)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)
}

func TestRouter_RejectsUnauthenticatedRequests(t *testing.T) {
	api := newTestAPI(t)

	resp, envelope := api.request(t, http.MethodPost, "/api/v1/retrieve",
		map[string]string{"query": "boston"}, false)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, envelope.Success)
}

func TestRouter_RetrieveRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	memory := domainmemory.NewShortTermMemory("booked boston flights this morning")
	require.NoError(t, api.store.ShortTermMemories().Save(ctx, memory))

	resp, envelope := api.request(t, http.MethodPost, "/api/v1/retrieve",
		map[string]string{"query": "boston flights"}, true)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var mc retrieval.MemoryContext
	require.NoError(t, json.Unmarshal(raw, &mc))

	assert.Equal(t, "boston flights", mc.Query)
	require.Len(t, mc.ShortTerm, 1)
	assert.Equal(t, memory.ID, mc.ShortTerm[0].ID)
}

func TestRouter_RetrieveRejectsEmptyQuery(t *testing.T) {
	api := newTestAPI(t)

	resp, envelope := api.request(t, http.MethodPost, "/api/v1/retrieve",
		map[string]string{"query": ""}, true)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION", envelope.Error.Code)
}

func TestRouter_FullSyncEndpoint(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	entity, err := graph.NewEntity("Boston", graph.EntityLocation)
	require.NoError(t, err)
	require.NoError(t, api.store.Entities().Save(ctx, entity))

	resp, envelope := api.request(t, http.MethodPost, "/api/v1/sync/full", nil, true)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)

	synced, err := api.store.Entities().GetByID(ctx, entity.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, synced.CognitiveNodeID)
}

func TestRouter_EntityNotFound(t *testing.T) {
	api := newTestAPI(t)

	resp, envelope := api.request(t, http.MethodGet, "/api/v1/entities/missing", nil, true)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestRouter_GraphPath(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	a, err := graph.NewEntity("a", graph.EntityThing)
	require.NoError(t, err)
	b, err := graph.NewEntity("b", graph.EntityThing)
	require.NoError(t, err)
	require.NoError(t, api.store.Entities().Save(ctx, a))
	require.NoError(t, api.store.Entities().Save(ctx, b))

	rel, err := graph.NewRelationship(a.ID, graph.PredicateRelatedTo, b.ID)
	require.NoError(t, err)
	require.NoError(t, api.store.Relationships().Save(ctx, rel))

	resp, envelope := api.request(t, http.MethodGet,
		"/api/v1/graph/path?from="+a.ID+"&to="+b.ID, nil, true)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var payload struct {
		Path      []string `json:"path"`
		Connected bool     `json:"connected"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.True(t, payload.Connected)
	assert.Equal(t, []string{a.ID, b.ID}, payload.Path)
}
