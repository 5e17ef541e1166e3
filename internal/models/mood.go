package models

type MoodType string

const (
	MoodVeryHappy MoodType = "very_happy"
	MoodHappy     MoodType = "happy"
	MoodNeutral   MoodType = "neutral"
	MoodSad       MoodType = "sad"
	MoodVerySad   MoodType = "very_sad"
)

// MoodEntry is one check-in per user per calendar date (YYYY-MM-DD).
type MoodEntry struct {
	ID     string   `json:"id"`
	UserID string   `json:"user_id"`
	Mood   MoodType `json:"mood"`
	Note   string   `json:"note,omitempty"`
	Date   string   `json:"date"`
	Synced bool     `json:"synced"`
}
