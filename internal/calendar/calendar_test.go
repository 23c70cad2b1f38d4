package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-02-15", r.URL.Query().Get("timeMin"))
		assert.Equal(t, "2026-02-21", r.URL.Query().Get("timeMax"))
		_, _ = w.Write([]byte(`{"events":[
			{"id":"e1","title":"Standup","start":"2026-02-16T09:00:00","end":"2026-02-16T09:15:00"},
			{"id":"e2","title":"Planning","start":"2026-02-17T13:00:00","end":"2026-02-17T14:00:00"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	events, err := c.Events(context.Background(), "tok123",
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, "2026-02-17T13:00:00", events[1].Start)
}

func TestEvents_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Events(context.Background(), "stale",
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEvents_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Events(context.Background(), "tok",
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream exploded")
}
