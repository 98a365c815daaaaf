package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"socialhub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Storage     Storage     `json:"storage"`
	OAuth       OAuth       `json:"oauth"`
	Upload      Upload      `json:"upload"`
	Janitor     Janitor     `json:"janitor"`
}

type App struct {
	Port           int      `json:"port"`
	SecretKey      string   `json:"secretKey"`
	TokenTTLHours  int      `json:"tokenTTLHours"`
	TLSEnabled     bool     `json:"tlsEnabled"`
	TLSCertFile    string   `json:"tlsCertFile"`
	TLSKeyFile     string   `json:"tlsKeyFile"`
	FrontendURL    string   `json:"frontendURL"`
	BackendURL     string   `json:"backendURL"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

type Database struct {
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	MySql  Db     `json:"mysql"`
	Mongo  Db     `json:"mongo"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

type Storage struct {
	TempDir         string `json:"tempDir"`
	TokenDir        string `json:"tokenDir"`
	MaxFileSizeMB   int64  `json:"maxFileSizeMB"`
	CredentialStore string `json:"credentialStore"` // db | file | s3
	EncryptionKey   string `json:"encryptionKey"`
	S3              S3     `json:"s3"`
}

type S3 struct {
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

// OAuth holds the service's own platform app credentials. YouTube app
// credentials come from each user's uploaded client secrets file.
type OAuth struct {
	TikTok    OAuthClient `json:"tiktok"`
	Instagram OAuthClient `json:"instagram"`
	YouTube   OAuthClient `json:"youtube"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

type Upload struct {
	InstagramPollIntervalSeconds int `json:"instagramPollIntervalSeconds"`
	InstagramPollTimeoutSeconds  int `json:"instagramPollTimeoutSeconds"`
	ControlTimeoutSeconds        int `json:"controlTimeoutSeconds"`
	MediaTimeoutSeconds          int `json:"mediaTimeoutSeconds"`
}

type Janitor struct {
	Schedule          string `json:"schedule"`
	TempMaxAgeMinutes int    `json:"tempMaxAgeMinutes"`
}

var C Config

func init() {
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initStorage(&C)
	initOAuth(&C)
	initDefaults(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	setFromEnv(&C.Database.Vendor, "DB_VENDOR")
	setFromEnv(&C.Database.Psql.Name, "DB_NAME")
	setFromEnv(&C.Database.Psql.Host, "DB_HOST")
	setFromEnv(&C.Database.Psql.Port, "DB_PORT")
	setFromEnv(&C.Database.Psql.User, "DB_USER")
	setFromEnv(&C.Database.Psql.Password, "DB_PASSWORD")

	setFromEnv(&C.Database.Mssql.Name, "MSSQL_DB")
	setFromEnv(&C.Database.Mssql.Host, "MSSQL_HOST")
	setFromEnv(&C.Database.Mssql.Port, "MSSQL_PORT")
	setFromEnv(&C.Database.Mssql.User, "MSSQL_USER")
	setFromEnv(&C.Database.Mssql.Password, "MSSQL_PASSWORD")

	setFromEnv(&C.Database.MySql.Name, "MYSQL_DB")
	setFromEnv(&C.Database.MySql.Host, "MYSQL_HOST")
	setFromEnv(&C.Database.MySql.Port, "MYSQL_PORT")
	setFromEnv(&C.Database.MySql.User, "MYSQL_USER")
	setFromEnv(&C.Database.MySql.Password, "MYSQL_PASSWORD")

	setFromEnv(&C.Database.Mongo.Host, "MONGO_HOST")
	setFromEnv(&C.Database.Mongo.Port, "MONGO_PORT")
	setFromEnv(&C.Database.Mongo.User, "MONGO_USER")
	setFromEnv(&C.Database.Mongo.Password, "MONGO_PASSWORD")
	setFromEnv(&C.Database.Mongo.Name, "MONGO_DB")

	setFromEnv(&C.RedisClient.Host, "REDIS_HOST")
	setFromEnv(&C.RedisClient.Port, "REDIS_PORT")
	setFromEnv(&C.RedisClient.Username, "REDIS_USERNAME")
	setFromEnv(&C.RedisClient.Password, "REDIS_PASSWORD")
	setFromEnv(&C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID")
	setFromEnv(&C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE")
}

func initApp(C *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			C.App.Port = port
		}
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		C.App.TLSEnabled = v == "true"
	}
	setFromEnv(&C.App.SecretKey, "SECRET_KEY")
	setFromEnv(&C.App.FrontendURL, "FRONTEND_URL")
	setFromEnv(&C.App.BackendURL, "BACKEND_URL")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		C.App.AllowedOrigins = strings.Split(v, ",")
	}
}

func initStorage(C *Config) {
	setFromEnv(&C.Storage.TempDir, "TEMP_DIR")
	setFromEnv(&C.Storage.TokenDir, "TOKEN_DIR")
	setFromEnv(&C.Storage.CredentialStore, "CREDENTIAL_STORE")
	setFromEnv(&C.Storage.EncryptionKey, "ENCRYPTION_KEY")
	setFromEnv(&C.Storage.S3.Bucket, "S3_BUCKET")
	setFromEnv(&C.Storage.S3.Region, "AWS_REGION")
	setFromEnv(&C.Storage.S3.Endpoint, "S3_ENDPOINT")
	setFromEnv(&C.Storage.S3.AccessKey, "S3_ACCESS_KEY")
	setFromEnv(&C.Storage.S3.SecretKey, "S3_SECRET_KEY")
	if v := os.Getenv("MAX_FILE_SIZE_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			C.Storage.MaxFileSizeMB = n
		}
	}
}

func initOAuth(C *Config) {
	setFromEnv(&C.OAuth.TikTok.ClientID, "TIKTOK_CLIENT_KEY")
	setFromEnv(&C.OAuth.TikTok.ClientSecret, "TIKTOK_CLIENT_SECRET")
	setFromEnv(&C.OAuth.TikTok.RedirectURI, "TIKTOK_REDIRECT_URI")
	setFromEnv(&C.OAuth.Instagram.ClientID, "INSTAGRAM_CLIENT_ID")
	setFromEnv(&C.OAuth.Instagram.ClientSecret, "INSTAGRAM_CLIENT_SECRET")
	setFromEnv(&C.OAuth.Instagram.RedirectURI, "INSTAGRAM_REDIRECT_URI")
	setFromEnv(&C.OAuth.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URI")
}

func initDefaults(C *Config) {
	if C.App.Port == 0 {
		C.App.Port = 8000
	}
	if C.App.TokenTTLHours == 0 {
		C.App.TokenTTLHours = 24 * 7
	}
	if C.App.FrontendURL == "" {
		C.App.FrontendURL = "http://localhost:5173"
	}
	if C.App.BackendURL == "" {
		C.App.BackendURL = fmt.Sprintf("http://localhost:%d", C.App.Port)
	}
	if C.App.TLSEnabled && !hasHTTPS(C.App.BackendURL) {
		C.App.BackendURL = toHTTPS(C.App.BackendURL)
	}
	if len(C.App.AllowedOrigins) == 0 {
		C.App.AllowedOrigins = []string{C.App.FrontendURL}
	}
	if C.Storage.TempDir == "" {
		C.Storage.TempDir = "temp_videos"
	}
	if C.Storage.TokenDir == "" {
		C.Storage.TokenDir = "tokens"
	}
	if C.Storage.MaxFileSizeMB == 0 {
		C.Storage.MaxFileSizeMB = 500
	}
	if C.Storage.CredentialStore == "" {
		C.Storage.CredentialStore = "db"
	}
	if C.Storage.S3.Prefix == "" {
		C.Storage.S3.Prefix = "tokens/"
	}
	if C.Pubsub.Topic == "" {
		C.Pubsub.Topic = "video-uploads"
	}
	if C.ServiceBus.Queue == "" {
		C.ServiceBus.Queue = "video-uploads"
	}
	if C.Upload.InstagramPollIntervalSeconds == 0 {
		C.Upload.InstagramPollIntervalSeconds = 5
	}
	if C.Upload.InstagramPollTimeoutSeconds == 0 {
		C.Upload.InstagramPollTimeoutSeconds = 300
	}
	if C.Upload.ControlTimeoutSeconds == 0 {
		C.Upload.ControlTimeoutSeconds = 30
	}
	if C.Upload.MediaTimeoutSeconds == 0 {
		C.Upload.MediaTimeoutSeconds = 600
	}
	if C.Janitor.Schedule == "" {
		C.Janitor.Schedule = "@every 15m"
	}
	if C.Janitor.TempMaxAgeMinutes == 0 {
		C.Janitor.TempMaxAgeMinutes = 360
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func hasHTTPS(u string) bool {
	return strings.HasPrefix(u, "https://")
}

func toHTTPS(u string) string {
	return "https://" + strings.TrimPrefix(u, "http://")
}
