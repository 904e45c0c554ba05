// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Contact lead statuses
const (
	ContactStatusNew       = "new"
	ContactStatusContacted = "contacted"
	ContactStatusQualified = "qualified"
	ContactStatusClosed    = "closed"
)

// ContactStatuses returns all valid contact statuses in workflow order.
func ContactStatuses() []string {
	return []string{
		ContactStatusNew,
		ContactStatusContacted,
		ContactStatusQualified,
		ContactStatusClosed,
	}
}

// IsValidContactStatus checks if a contact status is valid.
func IsValidContactStatus(status string) bool {
	for _, s := range ContactStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Device types derived from the visitor user agent.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)
