package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/resilience"
)

func TestIngestRequestRoundTrip(t *testing.T) {
	in := domain.IngestRequest{
		DocumentID: "doc-1",
		Title:      "wheat.pdf",
		MimeType:   "application/pdf",
		StorageKey: "doc-1_wheat.pdf",
		UploadedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	payload, err := encodeRequest(in)
	if err != nil {
		t.Fatalf("encodeRequest() error = %v", err)
	}
	out, err := decodeRequest(payload)
	if err != nil {
		t.Fatalf("decodeRequest() error = %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestEncodeRequestRequiresIdentity(t *testing.T) {
	_, err := encodeRequest(domain.IngestRequest{Title: "x"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDecodeRequestRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "doc-1", `{"document_id":"d"}`} {
		if _, err := decodeRequest([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestClassifyPublishError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "canceled", err: context.Canceled},
		{name: "no servers", err: nats.ErrNoServers, retryable: true, record: true},
		{name: "timeout", err: nats.ErrTimeout, retryable: true, record: true},
		{name: "payload", err: nats.ErrMaxPayload, record: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyPublishError(tt.err)
			if got.Retryable != tt.retryable || got.RecordFailure != tt.record {
				t.Fatalf("classifyPublishError(%v) = %+v", tt.err, got)
			}
		})
	}
}

func TestPublishErrorsMarkedTemporary(t *testing.T) {
	if err := resilience.MarkTemporary("nats.publish", nats.ErrNoServers, classifyPublishError); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	plain := errors.New("bad subject")
	if err := resilience.MarkTemporary("nats.publish", plain, classifyPublishError); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected non-temporary error")
	}
}
