package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const envPrefix = "STOREFRONT_"

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// DBConfig database configuration; Type is postgres or sqlite
type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server configuration
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Secret        string `yaml:"secret"`
	SecureCookie  bool   `yaml:"secure_cookie"`
	SessionMaxAge int    `yaml:"session_max_age"`
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
	AdminEmail    string `yaml:"admin_email"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// StorageConfig uploaded media configuration
type StorageConfig struct {
	MediaDir     string `yaml:"media_dir"`
	MediaURL     string `yaml:"media_url"`
	MaxUploadMiB int    `yaml:"max_upload_mib"`
}

// MailConfig SMTP settings for order emails, disabled by default
type MailConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Passwd  string `yaml:"passwd"`
	From    string `yaml:"from"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Logger   LogConfig     `yaml:"logger"`
	Storage  StorageConfig `yaml:"storage"`
	Mail     MailConfig    `yaml:"mail"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// GetMediaDir returns the absolute media root, relative paths are resolved under workdir
func (c *AppConfig) GetMediaDir() string {
	if filepath.IsAbs(c.Storage.MediaDir) {
		return c.Storage.MediaDir
	}
	return path.Join(c.System.Workdir, c.Storage.MediaDir)
}

func (c *AppConfig) initDirs() {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir(), c.GetMediaDir()} {
		_ = os.MkdirAll(dir, 0o755)
	}
}

// DefaultWebSecret signs session cookies when web.secret is not configured
const DefaultWebSecret = "9b6de5cc-0731-4bf1-8a2e-diamondaura"

// UsesDefaultSecret reports whether session cookies are signed with the built-in key
func (c *AppConfig) UsesDefaultSecret() bool {
	return c.Web.Secret == "" || c.Web.Secret == DefaultWebSecret
}

// DefaultAppConfig returns the built-in configuration used when no file is given
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "Storefront",
			Location: "Asia/Kolkata",
			Workdir:  "/var/storefront",
			Debug:    false,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8000,
			Secret:        DefaultWebSecret,
			SessionMaxAge: 86400 * 7,
			AdminUser:     "admin",
			AdminPassword: "diamondaura",
			AdminEmail:    "admin@diamondaura.local",
		},
		Database: DBConfig{
			Type:     "postgres",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "storefront",
			User:     "postgres",
			Passwd:   "postgres",
			MaxConn:  20,
			IdleConn: 5,
		},
		Logger: LogConfig{
			Mode:       "development",
			FileEnable: false,
			Filename:   "/var/storefront/logs/storefront.log",
		},
		Storage: StorageConfig{
			MediaDir:     "media",
			MediaURL:     "/media",
			MaxUploadMiB: 16,
		},
		Mail: MailConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    587,
			From:    "Diamond Aura <noreply@diamondaura.local>",
		},
	}
}

// LoadConfig reads cfile when it exists, then applies STOREFRONT_* environment overrides
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	setEnvValue("SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("WEB_PORT", &cfg.Web.Port)
	setEnvValue("WEB_SECRET", &cfg.Web.Secret)
	setEnvBoolValue("WEB_SECURE_COOKIE", &cfg.Web.SecureCookie)
	setEnvValue("WEB_ADMIN_USER", &cfg.Web.AdminUser)
	setEnvValue("WEB_ADMIN_PASSWORD", &cfg.Web.AdminPassword)

	setEnvValue("DB_TYPE", &cfg.Database.Type)
	setEnvValue("DB_HOST", &cfg.Database.Host)
	setEnvIntValue("DB_PORT", &cfg.Database.Port)
	setEnvValue("DB_NAME", &cfg.Database.Name)
	setEnvValue("DB_USER", &cfg.Database.User)
	setEnvValue("DB_PASSWD", &cfg.Database.Passwd)
	setEnvBoolValue("DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("LOGGER_FILENAME", &cfg.Logger.Filename)

	setEnvValue("STORAGE_MEDIA_DIR", &cfg.Storage.MediaDir)
	setEnvIntValue("STORAGE_MAX_UPLOAD_MIB", &cfg.Storage.MaxUploadMiB)

	setEnvBoolValue("MAIL_ENABLED", &cfg.Mail.Enabled)
	setEnvValue("MAIL_HOST", &cfg.Mail.Host)
	setEnvIntValue("MAIL_PORT", &cfg.Mail.Port)
	setEnvValue("MAIL_USER", &cfg.Mail.User)
	setEnvValue("MAIL_PASSWD", &cfg.Mail.Passwd)
	setEnvValue("MAIL_FROM", &cfg.Mail.From)

	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
	cfg.initDirs()
	return cfg, nil
}

func setEnvValue(name string, val *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			*val = b
		}
	}
}

func setEnvIntValue(name string, val *int) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}
