package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, props ViewerProps) string {
	t.Helper()

	var buf bytes.Buffer
	if err := Viewer(props).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestViewer_WithUser(t *testing.T) {
	html := render(t, ViewerProps{UserID: "u1", LeaderboardSize: 10})

	for _, want := range []string{
		`data-user-id="u1"`,
		`data-leaderboard-size="10"`,
		`id="pet-blob"`,
		`id="leaderboard"`,
		`/ws?userId=`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}

func TestViewer_WithoutUser(t *testing.T) {
	html := render(t, ViewerProps{})

	if strings.Contains(html, `id="pet-blob"`) {
		t.Error("Expected no pet without a user")
	}
	if !strings.Contains(html, "?userId=") {
		t.Error("Expected a hint to pick a user")
	}
}

func TestViewer_EscapesUser(t *testing.T) {
	html := render(t, ViewerProps{UserID: `"><script>alert(1)</script>`})

	if strings.Contains(html, "<script>alert(1)") {
		t.Error("Expected user id to be escaped")
	}
}

func TestViewer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := Viewer(ViewerProps{UserID: "u1"}).Render(ctx, &buf); err == nil {
		t.Error("Expected render to stop on a cancelled context")
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %d bytes", buf.Len())
	}
}
