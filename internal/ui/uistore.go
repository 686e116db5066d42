package ui

import (
	"html/template"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Event is one step of a chat's action trail.
type Event struct {
	Time      time.Time
	Component string
	Kind      string
	Message   string
	Duration  string
}

// Store keeps the per-chat event trail shown at /ui.
type Store struct {
	mu    sync.RWMutex
	chats map[string][]Event
}

func NewStore() *Store {
	return &Store{
		chats: make(map[string][]Event),
	}
}

// AddEvent records an event for a chat.
func (s *Store) AddEvent(chatID, component, kind, msg, duration string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := Event{
		Time:      time.Now(),
		Component: component,
		Kind:      kind,
		Message:   msg,
		Duration:  duration,
	}
	s.chats[chatID] = append(s.chats[chatID], ev)
}

// Events returns a copy of one chat's trail, oldest first.
func (s *Store) Events(chatID string) ([]Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs, ok := s.chats[chatID]
	if !ok {
		return nil, false
	}
	cp := make([]Event, len(evs))
	copy(cp, evs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })
	return cp, true
}

func (s *Store) snapshot() map[string][]Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Event, len(s.chats))
	for k, v := range s.chats {
		cp := make([]Event, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

var indexTpl = template.Must(template.New("index").Parse(`<!doctype html>
<html><head><title>cso chats</title></head><body>
<h1>Chats</h1>
<table border="1" cellpadding="4">
<tr><th>ID</th><th>Last event</th><th>Events</th></tr>
{{range .}}<tr>
<td><a href="/ui/task?id={{.ID}}">{{.ID}}</a></td>
<td>{{.LastEvent.Kind}}: {{.LastEvent.Message}}</td>
<td>{{.Count}}</td>
</tr>{{end}}
</table>
</body></html>`))

var taskTpl = template.Must(template.New("task").Parse(`<!doctype html>
<html><head><title>chat {{.ID}}</title></head><body>
<h1>Chat {{.ID}}</h1>
<table border="1" cellpadding="4">
<tr><th>Time</th><th>Component</th><th>Kind</th><th>Message</th></tr>
{{range .Events}}<tr>
<td>{{.Time.Format "15:04:05.000"}}</td>
<td>{{.Component}}</td>
<td>{{.Kind}}</td>
<td>{{.Message}}</td>
</tr>{{end}}
</table>
</body></html>`))

// HandleIndex lists the chats with their most recent event.
func (s *Store) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.snapshot()

	type row struct {
		ID        string
		LastEvent Event
		Count     int
	}

	rows := make([]row, 0, len(data))
	for id, evs := range data {
		if len(evs) == 0 {
			continue
		}
		rows = append(rows, row{
			ID:        id,
			LastEvent: evs[len(evs)-1],
			Count:     len(evs),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LastEvent.Time.After(rows[j].LastEvent.Time)
	})

	if err := indexTpl.Execute(w, rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleTask shows the full timeline of one chat.
func (s *Store) HandleTask(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Redirect(w, r, "/ui", http.StatusFound)
		return
	}

	events, ok := s.Events(id)
	if !ok {
		http.Error(w, "chat not found", http.StatusNotFound)
		return
	}

	if err := taskTpl.Execute(w, struct {
		ID     string
		Events []Event
	}{
		ID:     id,
		Events: events,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
