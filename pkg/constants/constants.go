// Package constants provides shared constants for the tender-optimizer application.
package constants

// Weight defaults mirror the dashboard sliders (cost 70%, performance 30%).
const (
	// DefaultCostWeight is the default importance of normalized cost
	DefaultCostWeight = 0.7

	// DefaultPerformanceWeight is the default importance of normalized performance
	DefaultPerformanceWeight = 0.3

	// FallbackWeight is applied to both signals when both weights are zero
	FallbackWeight = 0.5
)

// Solver backend constants
const (
	// BackendGroupScan solves each lane-week independently by linear scan
	BackendGroupScan = "groupscan"

	// BackendSimplex solves the LP relaxation of the assignment program
	BackendSimplex = "simplex"

	// DefaultBackend is used when no backend is configured
	DefaultBackend = BackendGroupScan

	// SelectionThreshold is the indicator value above which an offer counts as selected
	SelectionThreshold = 0.5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. TENDER_OPTIMIZER_COSTWEIGHT
	EnvPrefix = "TENDER"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for shipment CSVs (8 MB)
	DefaultMaxUploadSizeBytes int64 = 8 * 1024 * 1024

	// DefaultRateLimit is the default number of optimize requests per second
	DefaultRateLimit = 5.0

	// DefaultRateBurst is the default request burst size
	DefaultRateBurst = 10

	// DefaultRunListLimit bounds the run history returned by the API
	DefaultRunListLimit = 50
)

// Cache and storage defaults
const (
	// CacheBackendMemory keeps memoized solutions in process
	CacheBackendMemory = "memory"

	// CacheBackendRedis keeps memoized solutions in Redis
	CacheBackendRedis = "redis"

	// DefaultCacheEntries bounds the in-memory cache
	DefaultCacheEntries = 128

	// StoreBackendMemory keeps run history in process
	StoreBackendMemory = "memory"

	// StoreBackendPostgres keeps run history in PostgreSQL
	StoreBackendPostgres = "postgres"

	// DefaultRunsTable is the PostgreSQL table holding run history
	DefaultRunsTable = "optimization_runs"

	// DefaultEventRoutingKey is the routing key for run-completed events
	DefaultEventRoutingKey = "tender.run.completed"
)

// Validation constants
const (
	// ScoreTolerance is the tolerance for objective comparisons
	ScoreTolerance = 1e-9

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100
)
