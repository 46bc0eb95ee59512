package config

import (
	"errors"
	"fmt"
	"io/fs"

	pkgerrors "jdk25tracker/internal/errors"
	"jdk25tracker/internal/flags"
	"jdk25tracker/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional configuration file looked up in the working
// directory, without extension.
const FileName = "jdk25tracker"

// EnvFiles are loaded before the environment is read. Earlier files win,
// and neither overrides variables already set in the process.
var EnvFiles = []string{".env.local", ".env"}

// binding ties a config key to its environment variables and the flag that
// overrides both.
type binding struct {
	key  string
	flag string
	env  []string
	set  func(c *Config, v *viper.Viper, key string)
}

var bindings = []binding{
	{"sheets.spreadsheet", flags.FlagSpreadsheet, []string{"SPREADSHEET_ID", "JDK25_SPREADSHEET_ID"},
		func(c *Config, v *viper.Viper, k string) { c.Sheets.Spreadsheet = v.GetString(k) }},
	{"sheets.credentials", flags.FlagCredentials, []string{"GOOGLE_APPLICATION_CREDENTIALS"},
		func(c *Config, v *viper.Viper, k string) { c.Sheets.Credentials = v.GetString(k) }},
	{"sheets.write_pause", flags.FlagWritePause, []string{"SHEETS_WRITE_PAUSE"},
		func(c *Config, v *viper.Viper, k string) { c.Sheets.WritePause = v.GetDuration(k) }},
	{"sheets.attempts", flags.FlagRetries, []string{"SHEETS_RETRIES"},
		func(c *Config, v *viper.Viper, k string) { c.Sheets.Attempts = v.GetInt(k) }},
	{"reports.dir", flags.FlagReportsDir, []string{"REPORTS_DIR"},
		func(c *Config, v *viper.Viper, k string) { c.Reports.Dir = v.GetString(k) }},
	{"reports.history", flags.FlagHistory, nil,
		func(c *Config, v *viper.Viper, k string) { c.Reports.History = v.GetString(k) }},
	{"reports.plugins", flags.FlagPlugins, []string{"PLUGINS_JSON"},
		func(c *Config, v *viper.Viper, k string) { c.Reports.Plugins = v.GetString(k) }},
	{"reports.update_center", flags.FlagUpdateCenter, []string{"UPDATE_CENTER_URL"},
		func(c *Config, v *viper.Viper, k string) { c.Reports.UpdateCenter = v.GetString(k) }},
	{"github.token", flags.FlagToken, []string{"GITHUB_TOKEN"},
		func(c *Config, v *viper.Viper, k string) { c.GitHub.Token = v.GetString(k) }},
	{"github.base_url", flags.FlagGitHubURL, []string{"GITHUB_API_URL"},
		func(c *Config, v *viper.Viper, k string) { c.GitHub.BaseURL = v.GetString(k) }},
	{"runtime.concurrency", flags.FlagConcurrency, []string{"JDK25_CONCURRENCY"},
		func(c *Config, v *viper.Viper, k string) { c.Runtime.Concurrency = v.GetInt(k) }},
	{"runtime.timeout", flags.FlagTimeout, nil,
		func(c *Config, v *viper.Viper, k string) { c.Runtime.Timeout = v.GetDuration(k) }},
	{"runtime.log_format", flags.FlagLogFormat, []string{"LOG_FORMAT"},
		func(c *Config, v *viper.Viper, k string) { c.Runtime.LogFormat = v.GetString(k) }},
}

// Load fills c from .env files, the optional configuration file and the
// environment. Settings whose flag was given on the command line (changed
// reports that) are left alone, so flags win over environment, which wins
// over the file. file names an explicit configuration file; empty looks
// for jdk25tracker.yaml in the working directory.
func Load(c *Config, file string, changed func(flag string) bool) error {
	for _, err := range loadEnvFiles(EnvFiles) {
		logging.Default().Warn().Err(err).Msg("Ignoring unreadable env file")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return pkgerrors.NewConfigError("config", fmt.Sprintf("cannot read %s", describe(file)), err)
		}
	}

	for _, b := range bindings {
		if len(b.env) > 0 {
			if err := v.BindEnv(append([]string{b.key}, b.env...)...); err != nil {
				return fmt.Errorf("bind %s: %w", b.key, err)
			}
		}
		if changed != nil && changed(b.flag) {
			continue
		}
		if v.IsSet(b.key) {
			b.set(c, v, b.key)
		}
	}
	return nil
}

// loadEnvFiles loads each file into the environment. Missing files are
// skipped; any other failure is returned so the caller can report it.
func loadEnvFiles(files []string) []error {
	var errs []error
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	return errs
}

func describe(file string) string {
	if file == "" {
		return FileName + ".yaml"
	}
	return file
}
