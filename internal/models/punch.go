package models

import "time"

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// GeoLocation is the coordinate fix captured alongside a punch.
// Accuracy is the reported error radius in meters.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Address   string  `json:"address,omitempty"`
}

// PunchRecord is a single attendance punch stored locally. Hash is a
// one-way fingerprint of the photo, coordinates and capture time, kept
// for audit and dedup. Synced flips to true once the backend confirmed
// delivery; it never goes back.
type PunchRecord struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Type      PunchType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Location  GeoLocation `json:"location"`
	Photo     string      `json:"photo"`
	Hash      string      `json:"hash"`
	Synced    bool        `json:"synced"`
}

// InOutEntry is a timeline row derived from punch history.
type InOutEntry struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Type      PunchType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Location  GeoLocation `json:"location"`
}
