package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

type Config struct {
	Minio    *MinIOCfg
	Http     *HTTPConfig
	Grpc     *GRPCConfig
	Db       *PGDBCfg
	Redis    *RedisCfg
	Kafka    *KafkaCfg
	Catalog  *CatalogCfg
	Identity *IdentityCfg
	Session  *SessionCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет с изображениями товаров
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	PublicBaseURL     string // Префикс публичных ссылок на изображения
	MaxImageSize      int64
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	SwaggerURL   string
}

type GRPCConfig struct {
	Port          string
	NetworkMode   string
	InternalToken string // без токена GetCartCount недоступен
}

type PGDBCfg struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MigrationsURL string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	CartKey     string        // префикс ключа корзины, к нему добавляется id сессии
	CartTTL     time.Duration // 0 означает без срока жизни
	CountTopic  string        // префикс канала pub/sub со счётчиком корзины
}

// CatalogCfg описывает источники каталога.
type CatalogCfg struct {
	Collection    string
	FallbackURL   string // вторичный HTTP JSON источник
	SourceTimeout time.Duration
}

// IdentityCfg: параметры внешнего сервиса аутентификации.
type IdentityCfg struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type SessionCfg struct {
	CookieName       string
	ActivityInterval time.Duration
	LoginPath        string
	SlotWriteRetries int
	MaxIdle          time.Duration // сессии без обращений дольше MaxIdle забываются
	MaxSessions      int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Infof(".env file not found, using environment variables")
		} else {
			log.Warnf("failed to load .env file: %v", err)
		}
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	identity, err := loadIdentityCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	session, err := loadSessionCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:    minio,
		Http:     http,
		Grpc:     loadGRPCConfig(),
		Db:       db,
		Redis:    redis,
		Kafka:    kafka,
		Catalog:  catalog,
		Identity: identity,
		Session:  session,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "catalog-changes"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           strings.Split(brokerStr, ","),
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL       = false
		defaultEndpoint     = "minio:9000"
		defaultBucket       = "product-images"
		defaultMaxImageSize = 2 << 20
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	endpoint := getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint)
	bucket := getEnvOrDefault("BUCKET_NAME", defaultBucket)

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &MinIOCfg{
		MinioEndpoint:     endpoint,
		BucketName:        bucket,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PublicBaseURL:     getEnvOrDefault("MINIO_PUBLIC_URL", fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)),
		MaxImageSize:      defaultMaxImageSize,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		SwaggerURL:   getEnvOrDefault("SWAGGER_URL", "http://localhost:"+port+"/swagger/doc.json"),
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:          getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode:   getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
		InternalToken: getEnv("GRPC_INTERNAL_TOKEN"),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost          = "localhost"
		defaultPort          = "5432"
		defaultSSLMode       = "disable"
		defaultMigrationsURL = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:          getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:          getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:          user,
		Password:      password,
		DBName:        dbName,
		SSLMode:       getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsURL: getEnvOrDefault("MIGRATIONS_URL", defaultMigrationsURL),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultCartKey      = "oma_cart"
		defaultCountTopic   = "cart_count"
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	cartTTL, err := parseDurationEnv("CART_TTL", 0)
	if err != nil {
		log.Errorf(err, "invalid CART_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		CartKey:     getEnvOrDefault("CART_KEY", defaultCartKey),
		CartTTL:     cartTTL,
		CountTopic:  getEnvOrDefault("CART_COUNT_TOPIC", defaultCountTopic),
	}, nil
}

func loadCatalogCfg(log logger.Logger) (*CatalogCfg, error) {
	const (
		defaultCollection    = "products"
		defaultFallbackURL   = "http://localhost/api/products.php"
		defaultSourceTimeout = 5 * time.Second
	)

	timeout, err := parseDurationEnv("CATALOG_SOURCE_TIMEOUT", defaultSourceTimeout)
	if err != nil {
		log.Errorf(err, "invalid CATALOG_SOURCE_TIMEOUT")
		return nil, err
	}

	return &CatalogCfg{
		Collection:    getEnvOrDefault("CATALOG_COLLECTION", defaultCollection),
		FallbackURL:   getEnvOrDefault("CATALOG_FALLBACK_URL", defaultFallbackURL),
		SourceTimeout: timeout,
	}, nil
}

func loadIdentityCfg(log logger.Logger) (*IdentityCfg, error) {
	const (
		defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"
		defaultTimeout = 10 * time.Second
	)

	apiKey := getEnv("IDENTITY_API_KEY")
	if apiKey == "" {
		err := fmt.Errorf("IDENTITY_API_KEY is required")
		log.Errorf(err, "missing IDENTITY_API_KEY")
		return nil, err
	}

	timeout, err := parseDurationEnv("IDENTITY_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid IDENTITY_TIMEOUT")
		return nil, err
	}

	return &IdentityCfg{
		BaseURL: getEnvOrDefault("IDENTITY_BASE_URL", defaultBaseURL),
		APIKey:  apiKey,
		Timeout: timeout,
	}, nil
}

func loadSessionCfg(log logger.Logger) (*SessionCfg, error) {
	const (
		defaultCookieName       = "sid"
		defaultActivityInterval = 2 * time.Minute
		defaultLoginPath        = "/login.html"
		defaultSlotWriteRetries = 3
		defaultMaxIdle          = 24 * time.Hour
		defaultMaxSessions      = 100_000
	)

	interval, err := parseDurationEnv("SESSION_ACTIVITY_INTERVAL", defaultActivityInterval)
	if err != nil {
		log.Errorf(err, "invalid SESSION_ACTIVITY_INTERVAL")
		return nil, err
	}

	retries, err := parseIntEnv("CART_WRITE_RETRIES", defaultSlotWriteRetries)
	if err != nil {
		log.Errorf(err, "invalid CART_WRITE_RETRIES")
		return nil, err
	}

	maxIdle, err := parseDurationEnv("SESSION_MAX_IDLE", defaultMaxIdle)
	if err != nil {
		log.Errorf(err, "invalid SESSION_MAX_IDLE")
		return nil, err
	}

	maxSessions, err := parseIntEnv("SESSION_MAX_COUNT", defaultMaxSessions)
	if err != nil {
		log.Errorf(err, "invalid SESSION_MAX_COUNT")
		return nil, err
	}

	return &SessionCfg{
		CookieName:       getEnvOrDefault("SESSION_COOKIE", defaultCookieName),
		ActivityInterval: interval,
		LoginPath:        getEnvOrDefault("LOGIN_PATH", defaultLoginPath),
		SlotWriteRetries: retries,
		MaxIdle:          maxIdle,
		MaxSessions:      maxSessions,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.Wrap(key, ErrIncorrectEnvVariable)
	}

	return intValue, nil
}

var ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
