package config

import (
	"io"
	"time"
)

// Config is the read-only view of portal settings used by every module.
//
// Implementations must be safe for concurrent reads while a reload is in
// progress, and missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	// GetSecond, GetMinute and GetHour read an integer and scale it to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration

	// GetBinary reads a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray reads "<a>,<b>,..." or a YAML list. Empty elements are dropped.
	GetArray(key string) []string

	// GetMap reads "<k1>:<v1>,<k2>:<v2>" or a YAML mapping.
	GetMap(key string) map[string]string

	// OnChange registers fn to run after the backing file is reloaded.
	OnChange(fn func())
}
