package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_AddAndListEvents(t *testing.T) {
	s := NewStore()

	s.AddEvent("chat-1", "Api", "request", "hello", "")
	s.AddEvent("chat-1", "Agent", "tool_call", "get_stat", "12ms")

	evs, ok := s.Events("chat-1")
	require.True(t, ok)
	require.Len(t, evs, 2)
	require.Equal(t, "request", evs[0].Kind)
	require.Equal(t, "tool_call", evs[1].Kind)
	require.Equal(t, "12ms", evs[1].Duration)
}

func TestStore_EventsUnknownChat(t *testing.T) {
	s := NewStore()

	evs, ok := s.Events("nope")
	require.False(t, ok)
	require.Nil(t, evs)
}

func TestStore_EventsReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddEvent("chat-1", "Api", "request", "hello", "")

	evs, _ := s.Events("chat-1")
	evs[0].Message = "mutated"

	again, _ := s.Events("chat-1")
	if again[0].Message != "hello" {
		t.Fatalf("internal state mutated through returned slice: %q", again[0].Message)
	}
}

func TestHandleIndex_ListsChats(t *testing.T) {
	s := NewStore()
	s.AddEvent("chat-a", "Api", "request", "first question", "")
	s.AddEvent("chat-b", "Api", "request", "second question", "")

	w := httptest.NewRecorder()
	s.HandleIndex(w, httptest.NewRequest(http.MethodGet, "/ui", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "chat-a")
	require.Contains(t, body, "chat-b")
	require.Contains(t, body, "second question")
}

func TestHandleTask_ShowsTimeline(t *testing.T) {
	s := NewStore()
	s.AddEvent("chat-a", "Agent", "tool_call", "predict_customer", "")

	w := httptest.NewRecorder()
	s.HandleTask(w, httptest.NewRequest(http.MethodGet, "/ui/task?id=chat-a", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "predict_customer")
}

func TestHandleTask_UnknownChatIs404(t *testing.T) {
	s := NewStore()

	w := httptest.NewRecorder()
	s.HandleTask(w, httptest.NewRequest(http.MethodGet, "/ui/task?id=missing", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "chat not found"))
}

func TestHandleTask_NoIDRedirects(t *testing.T) {
	s := NewStore()

	w := httptest.NewRecorder()
	s.HandleTask(w, httptest.NewRequest(http.MethodGet, "/ui/task", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/ui", w.Header().Get("Location"))
}
