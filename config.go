package zensegur

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultMongoURI   = "mongodb://localhost:27017"
	DefaultDatabase   = "myDatabase"
	DefaultCollection = "recipes"
)

type TelemetryConfig struct {
	ProjectName string
	Endpoint    string
	ApiKey      string
}

type Config struct {
	MongoURI       string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
	StepTimeout    time.Duration
	NotFound       NotFoundPolicy
	LogLevel       string
	Port           string
	RateLimit      int
	Telemetry      TelemetryConfig
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("recipes", pflag.ContinueOnError)
	fs.String("mongo-uri", DefaultMongoURI, "MongoDB connection string")
	fs.String("database", DefaultDatabase, "database name")
	fs.String("collection", DefaultCollection, "collection name")
	fs.Duration("connect-timeout", 10*time.Second, "time allowed to connect and ping")
	fs.Duration("step-timeout", 30*time.Second, "time allowed for each workflow step")
	fs.String("not-found", string(NotFoundFatal), "what a find miss does: fatal or continue")
	fs.String("log-level", "info", "log level")
	fs.String("port", "8081", "http port for serve")
	return fs
}

// VIPER
func initializeViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("mongo.uri", DefaultMongoURI)
	v.SetDefault("mongo.database", DefaultDatabase)
	v.SetDefault("mongo.collection", DefaultCollection)
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("workflow.step_timeout", 30*time.Second)
	v.SetDefault("workflow.not_found", string(NotFoundFatal))
	v.SetDefault("log.level", "info")
	v.SetDefault("http.port", "8081")
	v.SetDefault("http.rate_limit", 20)
	v.SetDefault("telemetry.project", "zensegur-recipes")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if env := os.Getenv("env"); env != "" {
		v.AddConfigPath("./configs")
		v.SetConfigType("json")
		v.SetConfigName(env)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", env, err)
		}
	}

	binds := map[string]string{
		"mongo.uri":             "mongo-uri",
		"mongo.database":        "database",
		"mongo.collection":      "collection",
		"mongo.connect_timeout": "connect-timeout",
		"workflow.step_timeout": "step-timeout",
		"workflow.not_found":    "not-found",
		"log.level":             "log-level",
		"http.port":             "port",
	}
	for key, flag := range binds {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// LoadConfig resolves flags over environment over ./configs/<env>.json over defaults.
func LoadConfig(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v, err := initializeViper(fs)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MongoURI:       v.GetString("mongo.uri"),
		Database:       v.GetString("mongo.database"),
		Collection:     v.GetString("mongo.collection"),
		ConnectTimeout: v.GetDuration("mongo.connect_timeout"),
		StepTimeout:    v.GetDuration("workflow.step_timeout"),
		NotFound:       NotFoundPolicy(v.GetString("workflow.not_found")),
		LogLevel:       v.GetString("log.level"),
		Port:           v.GetString("http.port"),
		RateLimit:      v.GetInt("http.rate_limit"),
		Telemetry: TelemetryConfig{
			ProjectName: v.GetString("telemetry.project"),
			Endpoint:    v.GetString("telemetry.endpoint"),
			ApiKey:      v.GetString("telemetry.apikey"),
		},
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("mongo uri is required"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.Collection == "" {
		errs = append(errs, errors.New("collection is required"))
	}
	if !c.NotFound.valid() {
		errs = append(errs, fmt.Errorf("unknown not-found policy %q", c.NotFound))
	}
	return errors.Join(errs...)
}
