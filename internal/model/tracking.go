// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Tracking code providers
const (
	ProviderGoogleAnalytics  = "google_analytics"
	ProviderGoogleTagManager = "google_tag_manager"
	ProviderMetaPixel        = "meta_pixel"
	ProviderCustom           = "custom"
)

// Tracking code placements within the rendered document.
const (
	PlacementHead      = "head"
	PlacementBodyStart = "body_start"
	PlacementBodyEnd   = "body_end"
)

// TrackingProviders returns all supported tracking providers.
func TrackingProviders() []string {
	return []string{ProviderGoogleAnalytics, ProviderGoogleTagManager, ProviderMetaPixel, ProviderCustom}
}

// TrackingPlacements returns all supported placements.
func TrackingPlacements() []string {
	return []string{PlacementHead, PlacementBodyStart, PlacementBodyEnd}
}

// IsValidPlacement checks if a placement is supported.
func IsValidPlacement(placement string) bool {
	for _, p := range TrackingPlacements() {
		if p == placement {
			return true
		}
	}
	return false
}
