// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/wpbridge/internal/model"
)

// sanitizer scrubs post HTML for deployments that do not trust the source.
type sanitizer struct {
	body  *bluemonday.Policy
	title *bluemonday.Policy
}

func newSanitizer() *sanitizer {
	body := bluemonday.UGCPolicy()
	body.AddTargetBlankToFullyQualifiedLinks(true)
	return &sanitizer{body: body, title: bluemonday.StrictPolicy()}
}

func (s *sanitizer) post(p *model.Post) {
	p.Title = s.title.Sanitize(p.Title)
	p.Excerpt = s.body.Sanitize(p.Excerpt)
	p.Content = s.body.Sanitize(p.Content)
}
