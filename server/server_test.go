//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/synthetic-agora/agora/envelope"
	"github.com/synthetic-agora/agora/platform"
	"github.com/synthetic-agora/agora/runtime"
)

func newTestServer(t *testing.T, usernames ...string) *httptest.Server {
	t.Helper()
	db, err := platform.Open(platform.InMemoryDSN)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, name := range usernames {
			if resp := platform.CreateUserAccount(tx, name, ""); !resp.Succeeded() {
				t.Fatalf("create user %s: %s", name, resp.Message)
			}
		}
		return nil
	})
	require.NoError(t, err)

	srv := New(runtime.New(db), Options{Addr: ":0"})
	ts := httptest.NewServer(srv.httpSrv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) *envelope.Response {
	t.Helper()
	defer resp.Body.Close()
	var out envelope.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out
}

func TestInvokeEndpoint(t *testing.T) {
	ts := newTestServer(t, "alice")

	resp := postJSON(t, ts.URL+"/v1/invoke", map[string]any{
		"agent": "alice",
		"tool":  "create_post",
		"parameters": map[string]any{
			"title":   "First",
			"content": "hello",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	out := decodeEnvelope(t, resp)
	assert.True(t, out.Success)
	assert.Contains(t, out.Message, "Post created successfully")
}

func TestInvokeEndpointMalformedCall(t *testing.T) {
	ts := newTestServer(t, "alice")

	// The envelope reports the failure; HTTP stays 200.
	resp := postJSON(t, ts.URL+"/v1/invoke", map[string]any{
		"agent":      "alice",
		"parameters": map[string]any{},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeEnvelope(t, resp)
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "missing 'tool'")
}

func TestInvokeEndpointBadJSON(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/v1/invoke", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBatchEndpoint(t *testing.T) {
	ts := newTestServer(t, "alice")

	resp := postJSON(t, ts.URL+"/v1/batch", map[string]any{
		"agents": []string{"alice", "alice"},
		"calls": []map[string]any{
			{"tool": "create_post", "parameters": map[string]any{"title": "One", "content": "x"}},
			{"tool": "like_post", "parameters": map[string]any{"title": "One"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var out struct {
		Responses []envelope.Response `json:"responses"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Responses, 2)
	assert.True(t, out.Responses[0].Success)
	assert.True(t, out.Responses[1].Success)
}

func TestBatchEndpointMixedAgents(t *testing.T) {
	ts := newTestServer(t, "alice", "bob")

	resp := postJSON(t, ts.URL+"/v1/batch", map[string]any{
		"agents": []string{"alice", "bob"},
		"calls": []map[string]any{
			{"tool": "create_post", "parameters": map[string]any{"title": "One", "content": "x"}},
			{"tool": "like_post", "parameters": map[string]any{"title": "One"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var out struct {
		Responses []envelope.Response `json:"responses"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Responses, 2)
	assert.True(t, out.Responses[0].Success)
	// The second call runs as bob, whose history has never seen the
	// title.
	assert.False(t, out.Responses[1].Success)
}

func TestToolsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Tools)

	names := make([]string, 0, len(out.Tools))
	for _, tl := range out.Tools {
		names = append(names, tl.Name)
	}
	assert.Contains(t, names, "create_post")
	assert.Contains(t, names, "like_post")
}

func TestContextAndHistoryEndpoints(t *testing.T) {
	ts := newTestServer(t, "alice")

	postJSON(t, ts.URL+"/v1/invoke", map[string]any{
		"agent": "alice",
		"tool":  "create_post",
		"parameters": map[string]any{
			"title":   "First",
			"content": "hello",
		},
	}).Body.Close()

	resp, err := http.Get(ts.URL + "/v1/agents/alice/context")
	require.NoError(t, err)
	var ctx struct {
		ActionCount int `json:"action_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ctx))
	resp.Body.Close()
	assert.Equal(t, 1, ctx.ActionCount)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/agents/alice/history", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/agents/alice/context")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ctx))
	resp.Body.Close()
	assert.Zero(t, ctx.ActionCount)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
