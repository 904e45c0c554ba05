package store

import "time"

// Setting is one key/value row of site configuration.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailSettings is the singleton SMTP configuration row.
type EmailSettings struct {
	Enabled       bool
	SMTPHost      string
	SMTPPort      int64
	Username      string
	Password      string
	FromAddress   string
	FromName      string
	NotifyAddress string
	UpdatedAt     time.Time
}

// TrackingCode is an analytics snippet injected into the site.
type TrackingCode struct {
	ID        int64
	Name      string
	Provider  string
	Code      string
	Placement string
	Active    bool
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact is a lead captured by the contact form.
type Contact struct {
	ID         int64
	Reference  string
	Name       string
	Email      string
	Company    string
	Phone      string
	Service    string
	Budget     string
	Message    string
	Status     string
	Notes      string
	Browser    string
	OS         string
	DeviceType string
	Country    string
	IP         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Event is one event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON object
	CreatedAt time.Time
}
