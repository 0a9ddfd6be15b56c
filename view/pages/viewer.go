// Package pages renders the HTML served by the server.
package pages

//go:generate templ generate

// ViewerProps configures the live viewer page
type ViewerProps struct {
	// UserID preselects whose pet is shown; empty shows only the leaderboard
	UserID          string
	LeaderboardSize int
}
