package protocol

import (
	"math"
	"testing"
	"time"
)

func validMessage() *ReadingMessage {
	return &ReadingMessage{
		QueryID:    "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		CityName:   "London",
		Country:    "GB",
		Lat:        51.5074,
		Lon:        -0.1278,
		PM25:       35.4,
		PM10:       42.1,
		MeasuredAt: time.Date(2026, 7, 2, 6, 0, 0, 0, time.UTC),
		ServedAt:   time.Date(2026, 7, 2, 6, 0, 5, 0, time.UTC),
	}
}

func TestReadingMessage_EncodeDecode(t *testing.T) {
	msg := validMessage()

	data, err := EncodeReadingMessage(msg)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeReadingMessage(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.CityName != "London" || decoded.PM25 != 35.4 {
		t.Errorf("Round trip lost fields: %+v", decoded)
	}
	if !decoded.MeasuredAt.Equal(msg.MeasuredAt) {
		t.Errorf("Expected measured_at %v, got %v", msg.MeasuredAt, decoded.MeasuredAt)
	}
}

func TestReadingMessage_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ReadingMessage)
	}{
		{"missing query id", func(m *ReadingMessage) { m.QueryID = "" }},
		{"missing city", func(m *ReadingMessage) { m.CityName = "" }},
		{"missing country", func(m *ReadingMessage) { m.Country = "" }},
		{"zero timestamp", func(m *ReadingMessage) { m.MeasuredAt = time.Time{} }},
		{"NaN pm2.5", func(m *ReadingMessage) { m.PM25 = math.NaN() }},
	}

	for _, c := range cases {
		msg := validMessage()
		c.mutate(msg)
		if err := msg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}

	if err := validMessage().Validate(); err != nil {
		t.Errorf("Valid message rejected: %v", err)
	}
}

func TestReadingMessage_CityKey(t *testing.T) {
	msg := validMessage()
	if got := msg.CityKey(); got != "london||gb" {
		t.Errorf("CityKey = %q", got)
	}

	msg.State = "Ontario"
	msg.Country = "CA"
	if got := msg.CityKey(); got != "london|ontario|ca" {
		t.Errorf("CityKey = %q", got)
	}
}

func TestDecodeReadingMessage_Invalid(t *testing.T) {
	if _, err := DecodeReadingMessage([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
	if _, err := DecodeReadingMessage([]byte(`{"city_name":"London"}`)); err == nil {
		t.Error("Expected validation error for incomplete message")
	}
}
