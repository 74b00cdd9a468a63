package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loykin/proctor/internal/history"
)

func TestOpenSearchSink_Send(t *testing.T) {
	var receivedBody []byte
	var receivedPath string
	var receivedMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedMethod = r.Method
		receivedPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		receivedBody = body

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"test","_index":"test-index","result":"created"}`))
	}))
	defer server.Close()

	sink := New(server.URL, "test-index")

	code := -1
	event := history.Event{
		Type:       history.EventSelfHeal,
		OccurredAt: time.Now().UTC(),
		Name:       "test-process",
		PID:        12345,
		ReturnCode: &code,
	}

	if err := sink.Send(context.Background(), event); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}

	if receivedMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", receivedMethod)
	}
	if receivedPath != "/test-index/_doc" {
		t.Errorf("expected path /test-index/_doc, got %s", receivedPath)
	}

	var decoded history.Event
	if err := json.Unmarshal(receivedBody, &decoded); err != nil {
		t.Fatalf("Failed to decode posted document: %v", err)
	}
	if decoded.Name != "test-process" || decoded.PID != 12345 {
		t.Errorf("unexpected document contents: %+v", decoded)
	}
	if decoded.ReturnCode == nil || *decoded.ReturnCode != -1 {
		t.Errorf("expected returncode -1 in document, got %v", decoded.ReturnCode)
	}
}

func TestOpenSearchSink_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "mapping rejected", http.StatusBadRequest)
	}))
	defer server.Close()

	sink := New(server.URL, "test-index")

	event := history.Event{
		Type:       history.EventSignal,
		OccurredAt: time.Now().UTC(),
		Name:       "test-process",
		PID:        1,
	}
	if err := sink.Send(context.Background(), event); err == nil {
		t.Error("expected error for non-2xx response, got nil")
	}
}

func TestOpenSearchSink_BaseURLTrimming(t *testing.T) {
	sink := New("http://localhost:9200///", "idx")
	if sink.baseURL != "http://localhost:9200" {
		t.Errorf("expected trailing slashes trimmed, got %q", sink.baseURL)
	}
}
