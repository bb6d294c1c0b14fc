package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calendarPayload = `[
	{"title":"ECB Rate Decision","country":"EUR","date":"2022-08-24T12:15:00-04:00","impact":"High","forecast":"0.50%","previous":"0.00%"},
	{"title":"Unemployment Claims","country":"USD","date":"2022-08-24T12:15:00-04:00","impact":"Medium","forecast":"250K","previous":"245K"},
	{"title":"Crude Oil Inventories","country":"USD","date":"2022-08-25T10:30:00-04:00","impact":"Low","forecast":"","previous":""},
	{"title":"","country":"","date":""}
]`

func TestGetMarketNewsGroupsAndCaches(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(calendarPayload))
	}))
	defer server.Close()

	svc := NewNewsService(server.URL, 5*time.Second, time.Minute)

	days, err := svc.GetMarketNews()
	require.NoError(t, err)
	require.Len(t, days, 2)

	first := days[0]
	assert.Equal(t, "2022-08-24", first.Date)
	require.Len(t, first.Slots, 1)
	require.Len(t, first.Slots[0].Entries, 2)
	assert.Equal(t, "ECB Rate Decision", first.Slots[0].Entries[0].Content)
	assert.Equal(t, "SEVERE", first.Slots[0].Entries[0].Severity)
	assert.Equal(t, "MODERATE", first.Slots[0].Entries[1].Severity)

	second := days[1]
	assert.Equal(t, "2022-08-25", second.Date)
	require.Len(t, second.Slots, 1)
	assert.Equal(t, "LOW", second.Slots[0].Entries[0].Severity)

	// Second call is served from cache.
	_, err = svc.GetMarketNews()
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestGetMarketNewsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewNewsService(server.URL, 5*time.Second, time.Minute)
	_, err := svc.GetMarketNews()
	assert.Error(t, err)
}

func TestGroupNewsByDaySortsSlots(t *testing.T) {
	entries := []calendarEntryResponse{
		{Title: "Later", Country: "USD", Date: "2022-08-24T15:00:00Z", Impact: "Low"},
		{Title: "Earlier", Country: "USD", Date: "2022-08-24T08:30:00Z", Impact: "Low"},
	}

	days := groupNewsByDay(entries)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 2)
	assert.Equal(t, "08:30", days[0].Slots[0].Time)
	assert.Equal(t, "15:00", days[0].Slots[1].Time)
}
