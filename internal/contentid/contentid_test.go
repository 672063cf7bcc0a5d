package contentid_test

import (
	"bytes"
	"strings"
	"testing"

	"mediabin/internal/contentid"
)

func TestDeriveIsDeterministic(t *testing.T) {
	content := []byte("the same bytes every time")

	first, err := contentid.Derive(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	second, err := contentid.Derive(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if first != second {
		t.Fatalf("identical content produced %q and %q", first, second)
	}
	if first != contentid.DeriveBytes(content) {
		t.Fatal("DeriveBytes disagrees with Derive")
	}
}

func TestDeriveDistinguishesContent(t *testing.T) {
	a := contentid.DeriveBytes([]byte("content a"))
	b := contentid.DeriveBytes([]byte("content b"))
	if a == b {
		t.Fatalf("different content produced the same identifier %q", a)
	}
}

func TestIdentifierShape(t *testing.T) {
	id := contentid.DeriveBytes([]byte{0xff, 0xfe, 0xfd, 0x00, 0x01, 0x02, 0x03, 0xfb})
	if len(id) != contentid.Length {
		t.Fatalf("expected %d characters, got %d (%q)", contentid.Length, len(id), id)
	}
	if strings.ContainsAny(id, "+/") {
		t.Fatalf("identifier %q is not URL-safe", id)
	}
}
