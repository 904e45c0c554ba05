package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategorySource   = "source"
	EventCategoryContact  = "contact"
	EventCategorySettings = "settings"
	EventCategoryAuth     = "auth"
	EventCategoryCache    = "cache"
	EventCategoryMail     = "mail"
	EventCategorySystem   = "system"
)
