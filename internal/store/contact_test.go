package store

import (
	"testing"

	"github.com/txfleet/txcore/internal/models"
)

func TestNormalizeContactInfo_LegacyEmailString(t *testing.T) {
	got := normalizeContactInfo("alice@example.com")
	want := models.ContactInfo{Email: "alice@example.com"}
	if got != want {
		t.Errorf("normalizeContactInfo(legacy) = %+v, want %+v", got, want)
	}
}

func TestNormalizeContactInfo_JSONObject(t *testing.T) {
	got := normalizeContactInfo(`{"technician":"Bob","phone":"555-1234","email":"bob@example.com"}`)
	want := models.ContactInfo{Technician: "Bob", Phone: "555-1234", Email: "bob@example.com"}
	if got != want {
		t.Errorf("normalizeContactInfo(json) = %+v, want %+v", got, want)
	}
}

func TestNormalizeContactInfo_AlreadyObjectRoundTrips(t *testing.T) {
	c := models.ContactInfo{Technician: "Carol", Email: "carol@example.com"}
	serialized := marshalContactInfo(c)
	got := normalizeContactInfo(serialized)
	if got != c {
		t.Errorf("round-trip = %+v, want %+v", got, c)
	}
}

func TestNormalizeContactInfo_Empty(t *testing.T) {
	got := normalizeContactInfo("")
	if got != (models.ContactInfo{}) {
		t.Errorf("normalizeContactInfo(empty) = %+v, want zero value", got)
	}
}
