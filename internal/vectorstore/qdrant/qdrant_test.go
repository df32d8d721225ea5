package qdrant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
	apiKey string
}

func fakeQdrant(t *testing.T, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, apiKey: r.Header.Get("api-key")}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		calls = append(calls, rec)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestStorage_InitAndUpsert(t *testing.T) {
	srv, calls := fakeQdrant(t, `{"status":"ok"}`)
	s := NewStorage(Config{URL: srv.URL, APIKey: "k", Collection: "docs"})

	require.NoError(t, s.Init(3))
	require.NoError(t, s.Upsert(
		[]domain.Chunk{{DocumentID: "d", ChunkID: "d:0", Source: "a.txt", Text: "hello"}},
		[][]float64{{1, 0, 0}},
	))

	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodPut, (*calls)[0].method)
	assert.Equal(t, "/collections/docs", (*calls)[0].path)
	assert.Equal(t, "k", (*calls)[0].apiKey)

	points := (*calls)[1].body["points"].([]any)
	require.Len(t, points, 1)
	assert.Equal(t, PointID("d:0"), points[0].(map[string]any)["id"])
}

func TestStorage_Search(t *testing.T) {
	srv, _ := fakeQdrant(t, `{"result":[{"score":0.9,"payload":{"document_id":"d","chunk_id":"d:1","source":"a.txt","index":1,"text":"hi"}}]}`)
	s := NewStorage(Config{URL: srv.URL})

	res, err := s.Search([]float64{1}, 3)

	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "d:1", res[0].Chunk.ChunkID)
	assert.Equal(t, "a.txt", res[0].Chunk.Source)
	assert.Equal(t, 1, res[0].Chunk.Index)
	assert.Equal(t, 0.9, res[0].Score)
}

func TestStorage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	assert.Error(t, NewStorage(Config{URL: srv.URL}).Init(4))
}

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, PointID("x:1"), PointID("x:1"))
	assert.NotEqual(t, PointID("x:1"), PointID("x:2"))
}
