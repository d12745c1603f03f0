package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.SessionTokenTTL)
	assert.Equal(t, time.Minute, c.ContinuationTokenTTL)
	assert.Equal(t, 10, c.TutorialFiles)
	assert.Equal(t, "csv.zlib", c.FileExtension)
	assert.Equal(t, StorageLocal, c.StorageBackend)
	assert.Equal(t, "slog", c.LogBackend)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) { c.NrUsers, c.MaxFileID = 4, 42 }},
		{name: "no users", mutate: func(c *Config) { c.NrUsers = 0 }, wantErr: "nr_users"},
		{name: "tiny pool", mutate: func(c *Config) { c.MaxFileID = 0 }, wantErr: "at least 2"},
		{name: "odd pool", mutate: func(c *Config) { c.MaxFileID = 41 }, wantErr: "even"},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret_key"},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "ftp" }, wantErr: "unknown storage backend"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.StorageBackend = StorageS3 }, wantErr: "s3_bucket"},
		{name: "s3 with bucket", mutate: func(c *Config) { c.StorageBackend, c.S3Bucket = StorageS3, "lightcurves" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseFlags(t *testing.T) {
	c := defaults()
	err := parseFlags(c, []string{
		"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-n", "4", "-m", "42",
		"-data", "/srv/data", "-storage", "s3", "-b", "bucket", "-t", "2m",
		"-unrelated", "x",
	})
	require.NoError(t, err)

	want := defaults()
	want.HTTPAddr = "127.0.0.1:9090"
	want.DatabaseDSN = "db"
	want.SecretKey = "secret"
	want.NrUsers = 4
	want.MaxFileID = 42
	want.DataDir = "/srv/data"
	want.StorageBackend = StorageS3
	want.S3Bucket = "bucket"
	want.ContinuationTokenTTL = 2 * time.Minute

	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseFlags_BadValue(t *testing.T) {
	c := defaults()
	require.Error(t, parseFlags(c, []string{"-n", "many"}))
}

func TestParseEnv(t *testing.T) {
	env := map[string]string{
		"ADDRESS":                ":9999",
		"NR_USERS":               "12",
		"MAX_FILE_ID":            "240",
		"CONTINUATION_TOKEN_TTL": "90s",
		"SECURE_COOKIES":         "true",
		"S3_PREFIX":              "lc/",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	c := defaults()
	require.NoError(t, parseEnv(c, lookup))

	assert.Equal(t, ":9999", c.HTTPAddr)
	assert.Equal(t, 12, c.NrUsers)
	assert.Equal(t, 240, c.MaxFileID)
	assert.Equal(t, 90*time.Second, c.ContinuationTokenTTL)
	assert.True(t, c.SecureCookies)
	assert.Equal(t, "lc/", c.S3Prefix)
	assert.Equal(t, "secretKey", c.SecretKey, "unset variables keep their value")
}

func TestParseEnv_Invalid(t *testing.T) {
	for _, kv := range [][2]string{
		{"NR_USERS", "four"},
		{"SESSION_TOKEN_TTL", "forever"},
		{"SECURE_COOKIES", "maybe"},
	} {
		t.Run(kv[0], func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == kv[0] {
					return kv[1], true
				}
				return "", false
			}
			err := parseEnv(defaults(), lookup)
			require.Error(t, err)
			assert.Contains(t, err.Error(), kv[0])
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"http_addr": "www.example:9000",
		"nr_users": 4,
		"max_file_id": 42,
		"continuation_token_ttl": "3m",
		"session_token_ttl": 3600000000000,
		"secure_cookies": true
	}`), 0o600))

	yamlPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(
		"http_addr: www.example:9000\n"+
			"nr_users: 4\n"+
			"max_file_id: 42\n"+
			"continuation_token_ttl: 3m\n"+
			"session_token_ttl: 1h\n"+
			"secure_cookies: true\n"), 0o600))

	for _, path := range []string{jsonPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			c := defaults()
			require.NoError(t, parseFile(c, path))

			assert.Equal(t, "www.example:9000", c.HTTPAddr)
			assert.Equal(t, 4, c.NrUsers)
			assert.Equal(t, 42, c.MaxFileID)
			assert.Equal(t, 3*time.Minute, c.ContinuationTokenTTL)
			assert.Equal(t, time.Hour, c.SessionTokenTTL)
			assert.True(t, c.SecureCookies)
			assert.Equal(t, "secretKey", c.SecretKey, "absent keys keep their value")
		})
	}
}

func TestParseFile_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

	require.Error(t, parseFile(defaults(), bad))
	require.Error(t, parseFile(defaults(), filepath.Join(dir, "missing.yaml")))
	require.NoError(t, parseFile(defaults(), ""))
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nr_users": 4, "max_file_id": 42, "http_addr": ":7000"}`), 0o600))

	t.Setenv("MAX_FILE_ID", "40")

	c, err := Load([]string{"-c", path, "-a", ":7001"})
	require.NoError(t, err)

	assert.Equal(t, 4, c.NrUsers, "file overrides defaults")
	assert.Equal(t, 40, c.MaxFileID, "env overrides file")
	assert.Equal(t, ":7001", c.HTTPAddr, "flags override everything")
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load([]string{"-m", "41"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
