package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/transitwatch/internal/flagx"
	"github.com/dmitrijs2005/transitwatch/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of the configuration. Zero values leave the
// corresponding Config field untouched.
type fileConfig struct {
	HTTPAddr             string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN          string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey            string         `json:"secret_key" yaml:"secret_key"`
	SessionTokenTTL      timex.Duration `json:"session_token_ttl" yaml:"session_token_ttl"`
	ContinuationTokenTTL timex.Duration `json:"continuation_token_ttl" yaml:"continuation_token_ttl"`
	SecureCookies        *bool          `json:"secure_cookies" yaml:"secure_cookies"`
	NrUsers              int            `json:"nr_users" yaml:"nr_users"`
	MaxFileID            int            `json:"max_file_id" yaml:"max_file_id"`
	DataDir              string         `json:"data_dir" yaml:"data_dir"`
	TutorialDir          string         `json:"tutorial_dir" yaml:"tutorial_dir"`
	TutorialFiles        int            `json:"tutorial_files" yaml:"tutorial_files"`
	FileExtension        string         `json:"file_extension" yaml:"file_extension"`
	StorageBackend       string         `json:"storage_backend" yaml:"storage_backend"`
	S3RootUser           string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region             string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3Prefix             string         `json:"s3_prefix" yaml:"s3_prefix"`
	LogBackend           string         `json:"log_backend" yaml:"log_backend"`
	LogFormat            string         `json:"log_format" yaml:"log_format"`
	LogLevel             string         `json:"log_level" yaml:"log_level"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

func configFile(args []string) string {
	return flagx.ConfigFileFlag(args)
}

// parseFile overlays values from a JSON or YAML file, chosen by extension.
// An empty path is a no-op.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &fileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	if fc.SessionTokenTTL.Duration > 0 {
		cfg.SessionTokenTTL = fc.SessionTokenTTL.Duration
	}
	if fc.ContinuationTokenTTL.Duration > 0 {
		cfg.ContinuationTokenTTL = fc.ContinuationTokenTTL.Duration
	}
	if fc.SecureCookies != nil {
		cfg.SecureCookies = *fc.SecureCookies
	}
	setInt(&cfg.NrUsers, fc.NrUsers)
	setInt(&cfg.MaxFileID, fc.MaxFileID)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.TutorialDir, fc.TutorialDir)
	setInt(&cfg.TutorialFiles, fc.TutorialFiles)
	setString(&cfg.FileExtension, fc.FileExtension)
	setString(&cfg.StorageBackend, fc.StorageBackend)
	setString(&cfg.S3RootUser, fc.S3RootUser)
	setString(&cfg.S3RootPassword, fc.S3RootPassword)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.S3Prefix, fc.S3Prefix)
	setString(&cfg.LogBackend, fc.LogBackend)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.ShutdownTimeout.Duration > 0 {
		cfg.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
