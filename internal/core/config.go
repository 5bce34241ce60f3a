package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable, e.g. AWARDBOOK_DATA_DIR.
const EnvPrefix = "AWARDBOOK"

// Config is the resolved runtime configuration.
type Config struct {
	Env            string        `mapstructure:"env" validate:"required"`
	StorageDriver  StorageDriver `mapstructure:"storage_driver" validate:"oneof=dir memory sqlite postgres"`
	DataDir        string        `mapstructure:"data_dir"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	PostgresDSN    string        `mapstructure:"postgres_dsn" validate:"required_if=StorageDriver postgres"`
	BlobDriver     string        `mapstructure:"blob_driver" validate:"oneof=fs s3 memory"`
	BlobRoot       string        `mapstructure:"blob_root"`
	S3Bucket       string        `mapstructure:"s3_bucket" validate:"required_if=BlobDriver s3"`
	S3Region       string        `mapstructure:"s3_region"`
	S3Endpoint     string        `mapstructure:"s3_endpoint"`
	S3PathStyle    bool          `mapstructure:"s3_path_style"`
	TableSuffix    string        `mapstructure:"table_suffix"`
	PasswordScheme string        `mapstructure:"password_scheme" validate:"oneof=pbkdf2 bcrypt"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn error off"`
	MetricsFile    string        `mapstructure:"metrics_file"`
	TraceFile      string        `mapstructure:"trace_file"`
}

var configDefaults = map[string]any{
	"env":             "dev",
	"storage_driver":  string(StorageDir),
	"data_dir":        "data/tables",
	"sqlite_path":     "data/awardbook.db",
	"postgres_dsn":    "",
	"blob_driver":     "fs",
	"blob_root":       ".",
	"s3_bucket":       "",
	"s3_region":       "us-east-1",
	"s3_endpoint":     "",
	"s3_path_style":   false,
	"table_suffix":    "",
	"password_scheme": "pbkdf2",
	"log_level":       "info",
	"metrics_file":    "",
	"trace_file":      "",
}

// LoadConfig resolves configuration from, in order of precedence, the
// AWARDBOOK_* environment, dotenv files under dir (config/.env.<env> then
// .env) and built-in defaults. An empty env means "dev"; an empty dir
// means the working directory.
func LoadConfig(env, dir string) (Config, error) {
	if env == "" {
		env = os.Getenv(EnvPrefix + "_ENV")
	}
	if env == "" {
		env = "dev"
	}
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	v.SetDefault("env", strings.ToLower(env))

	// Applied lowest precedence first.
	dotenvs := []string{
		filepath.Join(dir, ".env"),
		filepath.Join(dir, "config", ".env."+strings.ToLower(env)),
	}
	for _, path := range dotenvs {
		if err := applyDotenv(v, path); err != nil {
			return Config{}, err
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Config{}, fmt.Errorf("invalid config %s=%v (%s %s)", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
		}
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyDotenv uses the AWARDBOOK_* entries of a dotenv file as defaults,
// leaving the process environment untouched. A missing file is ignored.
func applyDotenv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	prefix := EnvPrefix + "_"
	for key, value := range values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, prefix))
		if _, known := configDefaults[name]; known {
			v.SetDefault(name, value)
		}
	}
	return nil
}
