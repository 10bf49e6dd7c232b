package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kavikulu/shadowmine/internal/domain"
	"github.com/kavikulu/shadowmine/pkg/pattern"
)

type stubVerdictReader struct {
	records []domain.VerdictEventRecord
	err     error
}

func (s *stubVerdictReader) EventsAfter(index uint64) ([]domain.VerdictEventRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.VerdictEventRecord
	for _, record := range s.records {
		if record.Index > index {
			out = append(out, record)
		}
	}
	return out, nil
}

func testRecord(index uint64, sequence string) domain.VerdictEventRecord {
	verdict := pattern.Result{
		Kind:           pattern.KindPhiRatio,
		Score:          2.5,
		Significant:    true,
		Interpretation: pattern.InterpretationHigh,
	}
	event := domain.NewVerdictEvent(time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), "run", sequence, verdict)
	return domain.VerdictEventRecord{Index: index, Event: event}
}

func TestServer_Index(t *testing.T) {
	srv := NewServer(zap.NewNop(), "127.0.0.1:0", &stubVerdictReader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "index should respond OK")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", "index should serve HTML")
	assert.Contains(t, rec.Body.String(), "sequence verdicts", "dashboard page should be served")
}

func TestServer_VerdictStream(t *testing.T) {
	store := &stubVerdictReader{records: []domain.VerdictEventRecord{
		testRecord(1, "decay"),
		testRecord(2, "noise"),
	}}
	srv := NewServer(zap.NewNop(), "127.0.0.1:0", store)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/verdicts/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleVerdictStream(rec, req)

	body := rec.Body.String()
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"), "stream should use the SSE content type")
	assert.Equal(t, 2, strings.Count(body, "event: verdict\n"), "both stored verdicts should be streamed")
	assert.Contains(t, body, `"sequence":"decay"`, "first verdict should carry its sequence name")
	assert.Contains(t, body, `"sequence":"noise"`, "second verdict should carry its sequence name")
	assert.Less(t, strings.Index(body, "decay"), strings.Index(body, "noise"), "verdicts should be streamed in log order")
	assert.True(t, rec.Flushed, "stream should flush after each event")
}

func TestServer_VerdictStreamWithoutStore(t *testing.T) {
	srv := NewServer(zap.NewNop(), "127.0.0.1:0", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/verdicts/stream", nil)
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code, "stream without a store should be unavailable")
}

func TestServer_VerdictStreamInitialLoadError(t *testing.T) {
	store := &stubVerdictReader{err: errors.New("corrupt log")}
	srv := NewServer(zap.NewNop(), "127.0.0.1:0", store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/verdicts/stream", nil)

	srv.handleVerdictStream(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code, "a failing store should abort the stream")
}

func TestServer_StartShutdown(t *testing.T) {
	srv := NewServer(zap.NewNop(), "127.0.0.1:0", &stubVerdictReader{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "server should shut down cleanly on context cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}
