package core

import (
	"errors"
	"strings"
	"testing"
)

func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestTypedIDs(t *testing.T) {
	if NewResultID().String() == "" {
		t.Error("Expected non-empty result ID")
	}
	if NewReportID().String() == "" {
		t.Error("Expected non-empty report ID")
	}
}

func TestValidationErrorWrapping(t *testing.T) {
	err := NewValidationError("education", ErrUnknownNode, "not in graph")

	if !errors.Is(err, ErrUnknownNode) {
		t.Error("Expected validation error to wrap its sentinel")
	}
	if !IsValidationError(err) {
		t.Error("Expected IsValidationError to match")
	}
	if IsValidationError(errors.New("plain")) {
		t.Error("Plain errors must not match IsValidationError")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	withDetail := NewValidationError("x", ErrNotBinary, "found value 2")
	if msg := withDetail.Error(); !strings.Contains(msg, "found value 2") {
		t.Errorf("Expected detail in message, got %q", msg)
	}

	bare := NewValidationError("x", ErrNotBinary, "")
	if msg := bare.Error(); !strings.Contains(msg, "x") {
		t.Errorf("Expected field name in message, got %q", msg)
	}
}

func TestFitErrorWrapsSentinel(t *testing.T) {
	err := NewFitError("adjusted regression", errors.New("singular"))
	if !errors.Is(err, ErrFitFailed) {
		t.Error("Expected fit error to wrap ErrFitFailed")
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := Now()
	if ts.IsZero() {
		t.Error("Now() must not be zero")
	}

	data, err := ts.MarshalJSON()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Timestamp
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Time().Equal(ts.Time()) {
		t.Errorf("Round trip changed timestamp: %v != %v", back, ts)
	}
}
