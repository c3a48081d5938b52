package archive

import (
	"strings"
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2025, time.August, 29, 14, 47, 0, 0, time.UTC)

	name := ObjectName("receipts", at, "image/png")
	if !strings.HasPrefix(name, "receipts/2025/08/") {
		t.Errorf("unexpected prefix: %s", name)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("unexpected extension: %s", name)
	}
	if other := ObjectName("receipts", at, "image/png"); other == name {
		t.Errorf("expected unique names, got %s twice", name)
	}
	if got := ObjectName("r", at, ""); !strings.HasSuffix(got, ".jpg") {
		t.Errorf("default extension: got %s", got)
	}
}
