package models

import (
	"time"
)

// Location represents a geographical location with associated metadata
type Location struct {
	ClientID  string    `json:"client_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Source    string    `json:"source"` // "device", "cache" or "network"
}
