// Package geoip picks a default catalog region for a client address.
package geoip

import (
	"log/slog"
	"net"

	"github.com/oschwald/maxminddb-golang"
	"github.com/thomasarchive/archive/internal/languages"
)

type Resolver struct {
	db *maxminddb.Reader
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// New opens a MaxMind country database. An empty path or an unreadable file
// yields a resolver that never matches.
func New(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	db, err := maxminddb.Open(dbPath)
	if err != nil {
		slog.Warn("geoip: failed to open database, region lookup disabled", "path", dbPath, "error", err)
		return &Resolver{}, nil
	}
	slog.Info("geoip: loaded database", "path", dbPath, "type", db.Metadata.DatabaseType)
	return &Resolver{db: db}, nil
}

func (r *Resolver) Enabled() bool {
	return r != nil && r.db != nil
}

// Country returns the ISO country code for ip, or "".
func (r *Resolver) Country(ipStr string) string {
	if !r.Enabled() || ipStr == "" {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	var rec countryRecord
	if err := r.db.Lookup(ip, &rec); err != nil {
		slog.Debug("geoip: lookup failed", "ip", ipStr, "error", err)
		return ""
	}
	return rec.Country.ISOCode
}

// Region maps ip to a site region, or "" when the country is unknown.
func (r *Resolver) Region(ipStr string) string {
	country := r.Country(ipStr)
	if country == "" {
		return ""
	}
	return languages.ForCountry(country)
}

func (r *Resolver) Close() error {
	if r.Enabled() {
		return r.db.Close()
	}
	return nil
}
