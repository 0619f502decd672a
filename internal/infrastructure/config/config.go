package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Store     StoreConfig
	Tables    TablesConfig
	Columns   ColumnsConfig
	Units     UnitsConfig
	Reconcile ReconcileConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	RequestTimeout   time.Duration // Deadline applied to every reconciliation request
	MaxHeaderBytes   int
	MaxBodySize      int64 // Upper bound for uploaded sales files
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig controls caching of master data reads
type CacheConfig struct {
	Driver string        // memory, redis, none
	TTL    time.Duration // Staleness window for stock and mapping reads
}

// StoreConfig selects where the stock and mapping tables live
type StoreConfig struct {
	Driver   string // sheets, xlsx, database
	Sheets   SheetsConfig
	Workbook WorkbookConfig
	Database DatabaseConfig
}

// SheetsConfig holds Google Sheets settings
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	Endpoint        string // Overrides the API endpoint, empty for Google
}

// WorkbookConfig holds local .xlsx settings
type WorkbookConfig struct {
	Path string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// TablesConfig names the master data tables
type TablesConfig struct {
	Stock   string
	Mapping string
}

// ColumnsConfig holds the header names of every table the service reads
type ColumnsConfig struct {
	Stock   StockColumns
	Mapping MappingColumns
	Sales   SalesColumns
}

// StockColumns are the headers of the stock table
type StockColumns struct {
	AdminCode       string
	Description     string
	UnitAdmin       string
	UnitBranch      string
	AverageWeight   string
	CurrentQuantity string
}

// MappingColumns are the headers of the product mapping table
type MappingColumns struct {
	SaleLabel string
	AdminCode string
}

// SalesColumns are the headers of the sales CSV
type SalesColumns struct {
	ProductLabel string
	Quantity     string
}

// UnitsConfig lists the unit tags recognised as count and as weight
type UnitsConfig struct {
	Count  []string
	Weight []string
}

// ReconcileConfig holds engine settings
type ReconcileConfig struct {
	AuditPrecision int
	LockTTL        time.Duration // How long a writing run holds the stock table lock
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
}

// Load reads config.toml from the working directory (or /etc/stockrecon) and
// the environment.
// Priority (highest to lowest):
// 1. Environment variables with STOCK_ prefix (e.g., STOCK_STORE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/stockrecon")
	return load(v)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("reconcile.audit_precision", 2)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Cache: CacheConfig{
			Driver: v.GetString("cache.driver"),
			TTL:    v.GetDuration("cache.ttl"),
		},
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
			Sheets: SheetsConfig{
				SpreadsheetID:   v.GetString("store.sheets.spreadsheet_id"),
				CredentialsFile: v.GetString("store.sheets.credentials_file"),
				Endpoint:        v.GetString("store.sheets.endpoint"),
			},
			Workbook: WorkbookConfig{
				Path: v.GetString("store.workbook.path"),
			},
			Database: DatabaseConfig{
				Host:            v.GetString("store.database.host"),
				Port:            v.GetInt("store.database.port"),
				User:            v.GetString("store.database.user"),
				Password:        v.GetString("store.database.password"),
				DBName:          v.GetString("store.database.dbname"),
				SSLMode:         v.GetString("store.database.sslmode"),
				MaxOpenConns:    v.GetInt("store.database.max_open_conns"),
				MaxIdleConns:    v.GetInt("store.database.max_idle_conns"),
				ConnMaxLifetime: v.GetInt("store.database.conn_max_lifetime"),
			},
		},
		Tables: TablesConfig{
			Stock:   v.GetString("tables.stock"),
			Mapping: v.GetString("tables.mapping"),
		},
		Columns: ColumnsConfig{
			Stock: StockColumns{
				AdminCode:       v.GetString("columns.stock.admin_code"),
				Description:     v.GetString("columns.stock.description"),
				UnitAdmin:       v.GetString("columns.stock.unit_admin"),
				UnitBranch:      v.GetString("columns.stock.unit_branch"),
				AverageWeight:   v.GetString("columns.stock.average_weight"),
				CurrentQuantity: v.GetString("columns.stock.current_quantity"),
			},
			Mapping: MappingColumns{
				SaleLabel: v.GetString("columns.mapping.sale_label"),
				AdminCode: v.GetString("columns.mapping.admin_code"),
			},
			Sales: SalesColumns{
				ProductLabel: v.GetString("columns.sales.product_label"),
				Quantity:     v.GetString("columns.sales.quantity"),
			},
		},
		Units: UnitsConfig{
			Count:  v.GetStringSlice("units.count"),
			Weight: v.GetStringSlice("units.weight"),
		},
		Reconcile: ReconcileConfig{
			AuditPrecision: v.GetInt("reconcile.audit_precision"),
			LockTTL:        v.GetDuration("reconcile.lock_ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stockrecon"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 45 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20
	}
	// No CORS origin default: cross-origin calls stay disabled until configured
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "stockrecon:table:"
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sheets"
	}
	db := &cfg.Store.Database
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.User == "" {
		db.User = "postgres"
	}
	if db.DBName == "" {
		db.DBName = "stockrecon"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = 10
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = 2
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = 60
	}

	if cfg.Tables.Stock == "" {
		cfg.Tables.Stock = "stock"
	}
	if cfg.Tables.Mapping == "" {
		cfg.Tables.Mapping = "mapeo_productos"
	}

	sc := &cfg.Columns.Stock
	if sc.AdminCode == "" {
		sc.AdminCode = "cod_admin"
	}
	if sc.Description == "" {
		sc.Description = "descripcion"
	}
	if sc.UnitAdmin == "" {
		sc.UnitAdmin = "um_adm"
	}
	if sc.UnitBranch == "" {
		sc.UnitBranch = "um_suc"
	}
	if sc.AverageWeight == "" {
		sc.AverageWeight = "peso_prom"
	}
	if sc.CurrentQuantity == "" {
		sc.CurrentQuantity = "stock_actual"
	}
	if cfg.Columns.Mapping.SaleLabel == "" {
		cfg.Columns.Mapping.SaleLabel = "producto_venta"
	}
	if cfg.Columns.Mapping.AdminCode == "" {
		cfg.Columns.Mapping.AdminCode = "cod_admin"
	}
	if cfg.Columns.Sales.ProductLabel == "" {
		cfg.Columns.Sales.ProductLabel = "producto"
	}
	if cfg.Columns.Sales.Quantity == "" {
		cfg.Columns.Sales.Quantity = "cantidad"
	}

	if len(cfg.Units.Count) == 0 {
		cfg.Units.Count = []string{"Unidad", "Unidades", "Un", "U"}
	}
	if len(cfg.Units.Weight) == 0 {
		cfg.Units.Weight = []string{"Kilos", "Kilo", "Kg"}
	}

	if cfg.Reconcile.LockTTL == 0 {
		cfg.Reconcile.LockTTL = 2 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

func (c *Config) validate() error {
	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.driver must be one of memory, redis, none; got %q", c.Cache.Driver)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	switch c.Store.Driver {
	case "sheets":
		if c.Store.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("store.sheets.spreadsheet_id is required when store.driver is sheets")
		}
	case "xlsx":
		if c.Store.Workbook.Path == "" {
			return fmt.Errorf("store.workbook.path is required when store.driver is xlsx")
		}
	case "database":
		if c.Store.Database.MaxIdleConns > c.Store.Database.MaxOpenConns {
			return fmt.Errorf("store.database.max_idle_conns (%d) cannot exceed store.database.max_open_conns (%d)",
				c.Store.Database.MaxIdleConns, c.Store.Database.MaxOpenConns)
		}
	default:
		return fmt.Errorf("store.driver must be one of sheets, xlsx, database; got %q", c.Store.Driver)
	}

	if c.Tables.Stock == c.Tables.Mapping {
		return fmt.Errorf("tables.stock and tables.mapping must differ")
	}
	if c.Reconcile.AuditPrecision < 0 || c.Reconcile.AuditPrecision > 8 {
		return fmt.Errorf("reconcile.audit_precision must be between 0 and 8, got %d", c.Reconcile.AuditPrecision)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if c.Store.Driver == "database" && c.Store.Database.SSLMode == "disable" {
			return fmt.Errorf("store.database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("http.cors_allow_origins cannot be '*' in production")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}
	return nil
}
