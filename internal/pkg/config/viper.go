package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g.
// IAMPORTAL_BACKEND_BASE_URL overrides backend.base_url.
const EnvPrefix = "IAMPORTAL"

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper

	mu        sync.RWMutex
	listeners []func()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper loads the file at pathFile, applies environment overrides and
// watches the file for changes. The format is inferred from the extension.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(pathFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filepath.Base(pathFile), err)
	}

	vc := &Viper{v: v}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
		vc.notify()
	})
	v.WatchConfig()

	return vc, nil
}

// NewViperFromBytes loads configuration from memory. configType is any
// format viper understands ("yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// OnChange registers fn to run after every reload.
func (vc *Viper) OnChange(fn func()) {
	vc.mu.Lock()
	vc.listeners = append(vc.listeners, fn)
	vc.mu.Unlock()
}

func (vc *Viper) notify() {
	vc.mu.RLock()
	fns := append([]func(){}, vc.listeners...)
	vc.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func (vc *Viper) GetBool(key string) bool            { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string        { return vc.v.GetString(key) }
func (vc *Viper) GetInt(key string) int              { return vc.v.GetInt(key) }
func (vc *Viper) GetInt64(key string) int64          { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint(key string) uint            { return vc.v.GetUint(key) }
func (vc *Viper) GetUint16(key string) uint16        { return vc.v.GetUint16(key) }
func (vc *Viper) GetFloat64(key string) float64      { return vc.v.GetFloat64(key) }
func (vc *Viper) GetSecond(key string) time.Duration { return vc.scaled(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.scaled(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration   { return vc.scaled(key, time.Hour) }

func (vc *Viper) scaled(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * unit
}

// GetBinary returns the value for key decoded from base64, or nil.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray accepts both a YAML sequence and a comma separated string.
func (vc *Viper) GetArray(key string) []string {
	var raw []string
	if val, ok := vc.v.Get(key).([]any); ok {
		for _, item := range val {
			raw = append(raw, fmt.Sprint(item))
		}
	} else {
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// GetMap accepts both a YAML mapping and a "k:v,k:v" string.
func (vc *Viper) GetMap(key string) map[string]string {
	if sm := vc.v.GetStringMapString(key); len(sm) > 0 {
		return sm
	}

	m := make(map[string]string)
	for _, pair := range strings.Split(vc.v.GetString(key), ",") {
		k, val, ok := strings.Cut(pair, ":")
		if ok && strings.TrimSpace(k) != "" {
			m[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
	}
	return m
}

// Close implements io.Closer. Viper holds no resources that need releasing.
func (vc *Viper) Close() error {
	return nil
}
