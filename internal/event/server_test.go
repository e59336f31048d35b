package event

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/questdesk/questdesk/internal/eventbus"
)

func TestStreamDeliversEvents(t *testing.T) {
	bus := eventbus.New()
	srv := NewServer(bus)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleStream(rec, req)
		close(done)
	}()

	// Let the handler subscribe before publishing.
	time.Sleep(100 * time.Millisecond)
	bus.PublishNew(eventbus.TypeQuestionClaimed, "C01Q01", map[string]string{"agent_id": "codex-cli"})
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after context cancel")
	}

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: question.claimed")
	assert.Contains(t, body, `"resource_id":"C01Q01"`)

	lines := strings.Split(body, "\n")
	var hasData bool
	for _, line := range lines {
		if strings.HasPrefix(line, "data: ") {
			hasData = true
		}
	}
	assert.True(t, hasData, "stream must carry data lines")
}
