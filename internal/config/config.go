package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config is built once from the environment at startup and passed down. The
// four CI_* variables are provided by GitLab itself when running inside a
// pipeline; the GITLAB_JOBS_LOGS_DOWNLOADER_* variables tune the tool.
type Config struct {
	ProjectID  string `envconfig:"CI_PROJECT_ID"`
	PipelineID string `envconfig:"CI_PIPELINE_ID"`
	APIURL     string `envconfig:"CI_API_V4_URL"`
	APIToken   string `envconfig:"CI_API_TOKEN"`

	LogLevel          string `envconfig:"GITLAB_JOBS_LOGS_DOWNLOADER_LOGLEVEL" default:"info"`
	Directory         string `envconfig:"GITLAB_JOBS_LOGS_DOWNLOADER_DIRECTORY" default:"/tmp"`
	FilenameDelimiter string `envconfig:"GITLAB_JOBS_LOGS_DOWNLOADER_FILENAME_DELIMITER" default:"#"`

	JobCheckIntervalSeconds  int `envconfig:"GITLAB_JOBS_LOGS_DOWNLOADER_JOB_CHECK_INTERVAL_SECONDS" default:"10"`
	RunningJobTimeoutSeconds int `envconfig:"GITLAB_JOBS_LOGS_DOWNLOADER_RUNNING_JOB_TIMEOUT_SECONDS" default:"60"`
	EndJobTimeoutSeconds     int `envconfig:"GITLAB_JOBS_LOGS_DOWNLOADER_END_JOB_TIMEOUT_SECONDS" default:"120"`

	Timezone string `envconfig:"TZ" default:"Europe/Paris"`

	level    zap.AtomicLevel
	location *time.Location
}

// Load reads the configuration from the environment. A malformed integer in
// any of the *_SECONDS variables is reported here, before any network call.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the mandatory variables and resolves the log level and
// timezone. Any failure is a fatal configuration error.
func (c *Config) Validate() error {
	mandatory := []struct {
		name  string
		value string
	}{
		{"CI_PROJECT_ID", c.ProjectID},
		{"CI_PIPELINE_ID", c.PipelineID},
		{"CI_API_V4_URL", c.APIURL},
		{"CI_API_TOKEN", c.APIToken},
	}
	for _, v := range mandatory {
		if v.value == "" {
			return errors.Errorf("%s environment variable must be set", v.name)
		}
	}

	lvl, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return errors.Wrapf(err, "invalid timezone %q", c.Timezone)
	}

	c.level = lvl
	c.location = loc
	return nil
}

// Level returns the log level resolved by Validate.
func (c *Config) Level() zap.AtomicLevel {
	return c.level
}

// Location returns the timezone resolved by Validate.
func (c *Config) Location() *time.Location {
	return c.location
}

func (c *Config) JobCheckInterval() time.Duration {
	return time.Duration(c.JobCheckIntervalSeconds) * time.Second
}

func (c *Config) RunningJobTimeout() time.Duration {
	return time.Duration(c.RunningJobTimeoutSeconds) * time.Second
}

func (c *Config) EndJobTimeout() time.Duration {
	return time.Duration(c.EndJobTimeoutSeconds) * time.Second
}

// String renders the configuration for startup logging. The API token is
// never included.
func (c *Config) String() string {
	return fmt.Sprintf(
		"CI_PROJECT_ID=%s CI_PIPELINE_ID=%s CI_API_V4_URL=%s directory=%s delimiter=%q check-interval=%s running-timeout=%s end-timeout=%s tz=%s",
		c.ProjectID, c.PipelineID, c.APIURL, c.Directory, c.FilenameDelimiter,
		c.JobCheckInterval(), c.RunningJobTimeout(), c.EndJobTimeout(), c.Timezone,
	)
}
