package qconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/quatton/qsite/pkg/qerr"
)

// Env carries the backend endpoints and secrets that never live in qsite.yaml.
type Env struct {
	S3Endpoint  string `envconfig:"QSITE_S3_ENDPOINT"`
	S3AccessKey string `envconfig:"QSITE_S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"QSITE_S3_SECRET_KEY"`
	S3Region    string `envconfig:"QSITE_S3_REGION"`
	S3UseSSL    bool   `envconfig:"QSITE_S3_USE_SSL" default:"true"`

	RedisAddr     string        `envconfig:"QSITE_REDIS_ADDR"`
	RedisPassword string        `envconfig:"QSITE_REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"QSITE_REDIS_DB" default:"0"`
	LockTTL       time.Duration `envconfig:"QSITE_LOCK_TTL" default:"30m"`

	PulumiBackendURL string `envconfig:"PULUMI_BACKEND_URL"`
}

// LoadEnv reads .env (when present) and then the process environment.
// Variables already set in the process win over the file.
func LoadEnv(dotenv string) (*Env, error) {
	if dotenv == "" {
		dotenv = ".env"
	}
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, qerr.WithSubject(qerr.CodeConfigInvalid, dotenv, fmt.Errorf("loading env file: %w", err))
		}
	}

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, qerr.New(qerr.CodeConfigInvalid, fmt.Errorf("failed to load environment variables: %w", err))
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Validate collects every problem into one config_invalid error.
func (e *Env) Validate() error {
	var errs []error

	if (e.S3AccessKey == "") != (e.S3SecretKey == "") {
		errs = append(errs, errors.New("QSITE_S3_ACCESS_KEY and QSITE_S3_SECRET_KEY must be set together"))
	}
	if strings.Contains(e.S3Endpoint, "://") {
		errs = append(errs, errors.New("QSITE_S3_ENDPOINT must be host[:port] without a scheme"))
	}
	if e.RedisDB < 0 {
		errs = append(errs, errors.New("QSITE_REDIS_DB must not be negative"))
	}
	if e.LockTTL <= 0 {
		errs = append(errs, errors.New("QSITE_LOCK_TTL must be positive"))
	}

	if len(errs) == 0 {
		return nil
	}
	return qerr.New(qerr.CodeConfigInvalid, fmt.Errorf("environment validation failed: %w", errors.Join(errs...)))
}

// HasS3 reports whether a direct sync target is configured.
func (e *Env) HasS3() bool {
	return e.S3Endpoint != "" && e.S3AccessKey != ""
}

// HasLock reports whether a shared lock store is configured.
func (e *Env) HasLock() bool {
	return e.RedisAddr != ""
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (e *Env) Print(fmtr func(string, ...any)) {
	fmtr("Environment:\n")
	if e.HasS3() {
		fmtr("  S3: %s (ssl=%t, region=%s)\n", e.S3Endpoint, e.S3UseSSL, e.S3Region)
		fmtr("    Access Key: %s\n", MaskSecret(e.S3AccessKey))
		fmtr("    Secret Key: %s\n", MaskSecret(e.S3SecretKey))
	} else {
		fmtr("  S3: disabled\n")
	}
	if e.HasLock() {
		fmtr("  Lock: %s/%d (ttl=%s)\n", e.RedisAddr, e.RedisDB, e.LockTTL)
	} else {
		fmtr("  Lock: disabled\n")
	}
	if e.PulumiBackendURL != "" {
		fmtr("  Pulumi backend: %s\n", e.PulumiBackendURL)
	}
}
