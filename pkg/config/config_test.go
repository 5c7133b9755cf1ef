package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "token", cfg.JWT.CookieName)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Contains(t, cfg.Storage.AllowedMIMEs, "image/png")
	assert.False(t, cfg.Imports.OverwriteConfirmed)
	assert.True(t, cfg.Announcements.NormalizeHeaders)
	assert.Equal(t, 50, cfg.Announcements.DefaultPageSize)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_DRIVER", "S3")
	v.Set("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com/")
	v.Set("JWT_EXPIRATION", "not-a-duration")
	v.Set("IMPORT_MAX_FILE_SIZE", -1)
	v.Set("S3_PREFIX", "/portal/")
	cfg := fromViper(v)

	assert.Equal(t, StorageDriverS3, cfg.Storage.Driver)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, int64(5*1024*1024), cfg.Imports.MaxFileSizeBytes)
	assert.Equal(t, "portal", cfg.Storage.S3.Prefix)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
