package config

// GlobalConfigFile is the protocol config as written on disk. Amounts and
// percents stay strings until conversion so no precision is lost.
type GlobalConfigFile struct {
	Bech32Prefix         string `toml:"bech32_prefix"`
	FairBurn             string `toml:"fair_burn"`
	FairBurnFeePercent   string `toml:"fair_burn_fee_percent"`
	MaxRoyaltyFeePercent string `toml:"max_royalty_fee_percent"`
	MaxSwapFeePercent    string `toml:"max_swap_fee_percent"`

	InfinityFactory string `toml:"infinity_factory"`
	InfinityIndex   string `toml:"infinity_index"`
	InfinityRouter  string `toml:"infinity_router"`
	RoyaltyRegistry string `toml:"royalty_registry"`
	Marketplace     string `toml:"marketplace"`

	// hex encoded
	PairCodeChecksum string `toml:"pair_code_checksum"`

	PairCreationFee CoinFile      `toml:"pair_creation_fee"`
	MinPrices       []CoinFile    `toml:"min_prices"`
	Royalties       []RoyaltyFile `toml:"royalties"`
}

type CoinFile struct {
	Denom  string `toml:"denom"`
	Amount string `toml:"amount"`
}

type RoyaltyFile struct {
	Collection string `toml:"collection"`
	Recipient  string `toml:"recipient"`
	Share      string `toml:"share"`
}

// ServerConfig configures the HTTP server and its telemetry.
type ServerConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`

	// Ledger storage, in memory when empty
	DataDir string `toml:"data_dir" mapstructure:"data_dir"`
}
