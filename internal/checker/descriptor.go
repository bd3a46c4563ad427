package checker

import (
	"strconv"
	"strings"
	"time"
)

// FieldMap names the keys read from the raw metadata payload, so a single
// client build can point at differently-shaped deployment APIs.
type FieldMap struct {
	Version       string
	DownloadURL   string
	Changelog     string
	IsForceUpdate string
	PublishDate   string
	FileSize      string
	Checksum      string
}

// DefaultFieldMap is the recognized key set when the caller supplies none.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Version:       "version",
		DownloadURL:   "downloadUrl",
		Changelog:     "changelog",
		IsForceUpdate: "isForceUpdate",
		PublishDate:   "publishDate",
		FileSize:      "fileSize",
		Checksum:      "md5",
	}
}

func (f FieldMap) withDefaults() FieldMap {
	d := DefaultFieldMap()
	if f.Version == "" {
		f.Version = d.Version
	}
	if f.DownloadURL == "" {
		f.DownloadURL = d.DownloadURL
	}
	if f.Changelog == "" {
		f.Changelog = d.Changelog
	}
	if f.IsForceUpdate == "" {
		f.IsForceUpdate = d.IsForceUpdate
	}
	if f.PublishDate == "" {
		f.PublishDate = d.PublishDate
	}
	if f.FileSize == "" {
		f.FileSize = d.FileSize
	}
	if f.Checksum == "" {
		f.Checksum = d.Checksum
	}
	return f
}

func (f FieldMap) recognized() map[string]bool {
	return map[string]bool{
		f.Version: true, f.DownloadURL: true, f.Changelog: true,
		f.IsForceUpdate: true, f.PublishDate: true, f.FileSize: true,
		f.Checksum: true,
	}
}

// Descriptor is the normalized "an update exists" result. NewVersion and
// DownloadURL are always present but may be empty when the payload omitted
// them; absence is not an error here.
type Descriptor struct {
	NewVersion    string
	DownloadURL   string
	Changelog     string
	IsForceUpdate bool
	PublishDate   *time.Time
	FileSize      int64 // 0 when absent
	Checksum      string
	// Extra holds every payload field not mapped above, verbatim. It is nil,
	// not empty, when there are none.
	Extra map[string]any
}

// ParseDescriptor maps a raw metadata object into a Descriptor using the
// given key names. Coercions are tolerant: malformed optional fields are
// dropped rather than raised.
func ParseDescriptor(raw map[string]any, fields FieldMap) *Descriptor {
	fields = fields.withDefaults()
	d := &Descriptor{
		NewVersion:    stringField(raw, fields.Version),
		DownloadURL:   stringField(raw, fields.DownloadURL),
		Changelog:     stringField(raw, fields.Changelog),
		IsForceUpdate: boolField(raw, fields.IsForceUpdate),
		PublishDate:   dateField(raw, fields.PublishDate),
		FileSize:      sizeField(raw, fields.FileSize),
		Checksum:      stringField(raw, fields.Checksum),
	}
	known := fields.recognized()
	for key, value := range raw {
		if known[key] {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]any)
		}
		d.Extra[key] = value
	}
	return d
}

func stringField(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}

// boolField accepts a real bool or the strings "true"/"false" in any case.
func boolField(raw map[string]any, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// dateField accepts ISO-8601 strings or epoch milliseconds; anything else is
// silently dropped.
func dateField(raw map[string]any, key string) *time.Time {
	switch v := raw[key].(type) {
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
	case float64:
		t := time.UnixMilli(int64(v))
		return &t
	case int64:
		t := time.UnixMilli(v)
		return &t
	}
	return nil
}

// sizeField accepts an integer or a numeric string; anything else becomes 0.
func sizeField(raw map[string]any, key string) int64 {
	switch v := raw[key].(type) {
	case float64:
		if v > 0 {
			return int64(v)
		}
	case int64:
		if v > 0 {
			return v
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
