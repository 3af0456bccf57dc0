package events

import (
	"strings"
	"testing"
)

func TestNewKafkaPublisherRequiresBrokersAndTopics(t *testing.T) {
	t.Parallel()

	if _, err := NewKafkaPublisher(nil, map[string]string{"listing.submitted": "listings.submissions"}); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, nil); err == nil {
		t.Fatalf("expected error without a topic map")
	}
}

func TestKafkaMessageCarriesTopicKeyAndOrigin(t *testing.T) {
	t.Parallel()

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, map[string]string{
		"listing.submitted": "listings.submissions",
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	msg, err := p.message("listing.submitted", []byte(`{"listing_id":"x"}`), "key-1")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if msg.Topic != "listings.submissions" {
		t.Fatalf("unexpected topic %q", msg.Topic)
	}
	if string(msg.Key) != "key-1" {
		t.Fatalf("unexpected partition key %q", msg.Key)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event_type"] != "listing.submitted" || headers["origin"] != "listing-intake-service" {
		t.Fatalf("unexpected headers: %v", headers)
	}
}

func TestKafkaMessageRejectsUnmappedEventType(t *testing.T) {
	t.Parallel()

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, map[string]string{
		"listing.submitted": "listings.submissions",
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if _, err := p.message("listing.renamed", nil, "key-1"); err == nil || !strings.Contains(err.Error(), "no topic mapped") {
		t.Fatalf("expected unmapped event type error, got %v", err)
	}
}
