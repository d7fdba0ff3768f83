// Package config loads settings from defaults, an optional config file,
// an optional .env file and SYLLACAL_* environment variables, in rising
// order of precedence.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/tgienger/syllacal/internal/calendar"
	"github.com/tgienger/syllacal/internal/notify"
)

// EnvPrefix is prepended to every environment variable
const EnvPrefix = "SYLLACAL"

// Config is the resolved application configuration
type Config struct {
	APIURL     string
	Token      string
	DataDir    string
	Debug      bool
	DisplayCap int
	View       calendar.View

	// ViewSet is true when view came from the config file or environment
	// rather than the default
	ViewSet bool

	UndoWindow   time.Duration
	UpcomingDays int

	DevAPI DevAPI
}

// DevAPI configures the development backend
type DevAPI struct {
	Addr     string
	Secret   string
	Seed     bool
	FailRate float64
	TokenTTL time.Duration
}

// New returns a viper instance with every default registered
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("api_url", "http://localhost:8000")
	v.SetDefault("token", "")
	v.SetDefault("data_dir", "")
	v.SetDefault("debug", false)
	v.SetDefault("display_cap", calendar.DefaultDisplayCap)
	v.SetDefault("view", calendar.ViewMonth.String())
	v.SetDefault("undo_window", notify.UndoTTL)
	v.SetDefault("upcoming_days", 7)

	v.SetDefault("devapi.addr", ":8000")
	v.SetDefault("devapi.secret", "dev-secret")
	v.SetDefault("devapi.seed", true)
	v.SetDefault("devapi.fail_rate", 0.0)
	v.SetDefault("devapi.token_ttl", 30*24*time.Hour)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration. dotenv names an optional .env file;
// empty means ".env" in the working directory. A missing file is ignored.
func Load(dotenv string) (*Config, error) {
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := loadDotEnv(dotenv); err != nil {
		return nil, err
	}

	v := New()
	dir, err := DataDir(v.GetString("data_dir"))
	if err != nil {
		return nil, err
	}

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	return From(v, dir)
}

// From builds a Config from an already populated viper instance
func From(v *viper.Viper, dataDir string) (*Config, error) {
	view, ok := calendar.ParseView(v.GetString("view"))
	if !ok {
		return nil, errors.Errorf("config: unknown view %q", v.GetString("view"))
	}
	displayCap := v.GetInt("display_cap")
	if displayCap < 1 {
		return nil, errors.Errorf("config: display_cap must be at least 1, got %d", displayCap)
	}
	rate := v.GetFloat64("devapi.fail_rate")
	if rate < 0 || rate > 1 {
		return nil, errors.Errorf("config: devapi.fail_rate must be between 0 and 1, got %v", rate)
	}

	return &Config{
		APIURL:       strings.TrimRight(v.GetString("api_url"), "/"),
		Token:        v.GetString("token"),
		DataDir:      dataDir,
		Debug:        v.GetBool("debug"),
		DisplayCap:   displayCap,
		View:         view,
		ViewSet:      viewSet(v),
		UndoWindow:   v.GetDuration("undo_window"),
		UpcomingDays: v.GetInt("upcoming_days"),
		DevAPI: DevAPI{
			Addr:     v.GetString("devapi.addr"),
			Secret:   v.GetString("devapi.secret"),
			Seed:     v.GetBool("devapi.seed"),
			FailRate: rate,
			TokenTTL: v.GetDuration("devapi.token_ttl"),
		},
	}, nil
}

func viewSet(v *viper.Viper) bool {
	if v.InConfig("view") {
		return true
	}
	_, ok := os.LookupEnv(EnvPrefix + "_VIEW")
	return ok
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	log.Printf("config: loaded %s", path)
	return nil
}

// DataDir resolves and creates the data directory. An empty override uses
// $XDG_DATA_HOME/syllacal, falling back to ~/.local/share/syllacal.
func DataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", errors.Wrap(err, "locate home directory")
			}
			base = filepath.Join(home, ".local", "share")
		}
		dir = filepath.Join(base, "syllacal")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	return dir, nil
}
