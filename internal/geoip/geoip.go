// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves visitor countries from a MaxMind GeoLite2-Country
// database. A missing database disables lookups instead of failing.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/wpbridge/internal/util"
)

// Local is returned for loopback and private addresses.
const Local = "LOCAL"

// Lookup handles IP to country lookup.
type Lookup struct {
	mu       sync.RWMutex
	db       *maxminddb.Reader
	path     string
	modTime  time.Time
	loadedAt time.Time
}

type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the database at path. An empty path yields a disabled Lookup
// and no error. A load failure also yields a usable, disabled Lookup.
func Open(path string) (*Lookup, error) {
	g := &Lookup{path: path}
	if path == "" {
		return g, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g, g.load()
}

// load (re)opens the database when the file changed. Caller holds g.mu.
func (g *Lookup) load() error {
	info, err := os.Stat(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("GeoIP database not found: %s", g.path)
		}
		return fmt.Errorf("GeoIP database stat: %w", err)
	}

	if g.db != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	db, err := maxminddb.Open(g.path)
	if err != nil {
		return fmt.Errorf("opening GeoIP database: %w", err)
	}

	if g.db != nil {
		_ = g.db.Close()
	}
	g.db = db
	g.modTime = info.ModTime()
	g.loadedAt = time.Now()
	return nil
}

// Reload picks up a replaced database file. The old database stays in use
// when the new one cannot be opened.
func (g *Lookup) Reload() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.path == "" {
		return false, nil
	}
	before := g.loadedAt
	err := g.load()
	return g.loadedAt != before, err
}

// Country returns the ISO country code for ip, Local for private and
// loopback addresses, or "" when unknown.
func (g *Lookup) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if util.IsPrivateIP(parsed) {
		return Local
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.db == nil {
		return ""
	}

	var record geoRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (g *Lookup) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Close closes the database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
