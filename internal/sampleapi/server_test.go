package sampleapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestThoughtsLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewSeededStore())

	w := do(t, r, http.MethodGet, "/thoughts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Thoughts []map[string]any `json:"thoughts"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Thoughts, 2)
	require.Equal(t, "Create new HATEOAS impl,", list.Thoughts[0]["description"])
	require.Nil(t, list.Thoughts[0]["topic"])
	require.Equal(t, map[string]any{"title": "Misc"}, list.Thoughts[1]["topic"])
	require.Equal(t, false, list.Thoughts[1]["placesAvailable"])

	w = do(t, r, http.MethodPost, "/thoughts", `{"description":"walk","places":["park"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = do(t, r, http.MethodGet, "/thoughts/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, created.ID, got["thoughtId"])
	require.Equal(t, "walk", got["description"])
	require.Equal(t, true, got["placesAvailable"])

	w = do(t, r, http.MethodDelete, "/thoughts/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1", w.Body.String())

	w = do(t, r, http.MethodDelete, "/thoughts/"+created.ID, "")
	require.Equal(t, "0", w.Body.String())

	w = do(t, r, http.MethodGet, "/thoughts/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestBadRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewStore())

	require.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/thoughts/not-a-uuid", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/thoughts", `{"description":`).Code)
	require.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/topics/Nope", "").Code)
}

func TestTopicAndDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewSeededStore())

	w := do(t, r, http.MethodGet, "/topics/Misc", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"title":"Misc"}`, w.Body.String())

	w = do(t, r, http.MethodGet, DocumentPath, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, Document(), w.Body.Bytes())
	require.Contains(t, w.Body.String(), `"title": "WebApi"`)
}

func TestStore_SetTopicUnknown(t *testing.T) {
	s := NewStore()
	th := s.Add(NewThought{})
	require.False(t, s.SetTopic(th.ThoughtID, "missing"))
	require.Nil(t, th.Description)
	s.AddTopic(Topic{})
	_, ok := s.Topic("")
	require.False(t, ok)
}
