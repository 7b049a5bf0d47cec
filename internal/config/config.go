// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Dex       DexConfig       `mapstructure:"dex"`
	Sandwich       SandwichConfig       `mapstructure:"sandwich"`
	Liquidation    LiquidationConfig    `mapstructure:"liquidation"`
	MicroArbitrage MicroArbitrageConfig `mapstructure:"micro_arbitrage"`
	Triangular     TriangularConfig     `mapstructure:"triangular"`
	Opportunity    OpportunityConfig    `mapstructure:"opportunity"`
	Bundle         BundleConfig         `mapstructure:"bundle"`
	Relay          RelayConfig          `mapstructure:"relay"`
	Execution      ExecutionConfig      `mapstructure:"execution"`
	Strategy       StrategyConfig       `mapstructure:"strategy"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	// APIMode selects the mock subsystem ("mock") or real upstreams
	// ("real") for every relay/exchange/simulator client across the
	// codebase that has a mock variant.
	APIMode string `mapstructure:"api_mode"`
}

// IsMockMode reports whether the mock subsystem is active.
func (c AppConfig) IsMockMode() bool {
	return c.APIMode != "real"
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// BinanceConfig holds Binance API configuration.
type BinanceConfig struct {
	WebSocketURL string        `mapstructure:"websocket_url"` // wss://stream.binance.com:9443 or wss://stream.binance.us:9443 for US
	Symbols      []string      `mapstructure:"symbols"`
	DepthSpeedMs int           `mapstructure:"depth_speed_ms"`
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
}

// UniswapConfig holds Uniswap V3 contract addresses.
type UniswapConfig struct {
	QuoterAddress  string `mapstructure:"quoter_address"`
	RouterAddress  string `mapstructure:"router_address"`
	FactoryAddress string `mapstructure:"factory_address"`
	DefaultFeeTier int    `mapstructure:"default_fee_tier"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *UniswapConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// RouterAddressHex returns the router address as common.Address.
func (c *UniswapConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *UniswapConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// ArbitrageConfig holds arbitrage detection configuration.
type ArbitrageConfig struct {
	Pairs        []string  `mapstructure:"pairs"`
	TradeSizes   []float64 `mapstructure:"trade_sizes"`
	MinProfitBps float64   `mapstructure:"min_profit_bps"`
	MinProfitUSD float64   `mapstructure:"min_profit_usd"`
	TUIMode      bool      `mapstructure:"-"` // Set at runtime, not from config file
}

// TradeSizesDecimal returns trade sizes as decimal.Decimal slice.
func (c *ArbitrageConfig) TradeSizesDecimal() []decimal.Decimal {
	result := make([]decimal.Decimal, len(c.TradeSizes))
	for i, s := range c.TradeSizes {
		result[i] = decimal.NewFromFloat(s)
	}
	return result
}

// MinProfitBpsDecimal returns min profit bps as decimal.Decimal.
func (c *ArbitrageConfig) MinProfitBpsDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitBps)
}

// MinProfitUSDDecimal returns min profit USD as decimal.Decimal.
func (c *ArbitrageConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// OracleConfig holds C3 price aggregator configuration.
type OracleConfig struct {
	Strategy          string            `mapstructure:"strategy"`            // median|mean|weighted-mean|mode|most-reliable|most-recent
	MaxDeviationPct    float64           `mapstructure:"max_deviation_pct"`
	MinSources         int               `mapstructure:"min_sources"`
	CacheTTL           time.Duration     `mapstructure:"cache_ttl"`
	PerOracleTimeout   time.Duration     `mapstructure:"per_oracle_timeout"`
	ChainlinkFeeds     map[string]string `mapstructure:"chainlink_feeds"` // token address -> feed address
	ChainlinkETHFeed   string            `mapstructure:"chainlink_eth_feed"`
	TWAPPools          map[string]string `mapstructure:"twap_pools"` // token address -> Uniswap V3 pool address
	ChainlinkWeight    float64           `mapstructure:"chainlink_weight"`
	UniswapTWAPWeight  float64           `mapstructure:"uniswap_twap_weight"`
	BinanceWeight      float64           `mapstructure:"binance_weight"`
	UniswapSpotWeight  float64           `mapstructure:"uniswap_spot_weight"`
	TWAPWindow         time.Duration     `mapstructure:"twap_window"`
}

// DexConfig holds C4 DEX adapter layer configuration: native router
// addresses beyond the V3 quoter/router already in UniswapConfig, and the
// off-chain aggregator endpoints/credentials.
type DexConfig struct {
	SushiswapRouterAddress  string  `mapstructure:"sushiswap_router_address"`
	SushiswapFactoryAddress string  `mapstructure:"sushiswap_factory_address"`
	DefaultSlippageBps      int     `mapstructure:"default_slippage_bps"`
	ZeroExAPIKey            string  `mapstructure:"zeroex_api_key"`
	ZeroExRequestsPerMinute int     `mapstructure:"zeroex_requests_per_minute"`
	OneInchAPIKey           string  `mapstructure:"oneinch_api_key"`
	OneInchChainID          int     `mapstructure:"oneinch_chain_id"`
	OneInchRouterAddress    string  `mapstructure:"oneinch_router_address"`
	OneInchRequestsPerMinute int    `mapstructure:"oneinch_requests_per_minute"`
	DefaultSelectionStrategy string `mapstructure:"default_selection_strategy"` // best_quote|native_first|aggregator_first|hybrid|fixed
}

// SushiswapRouterAddressHex returns the configured SushiSwap router address.
func (c *DexConfig) SushiswapRouterAddressHex() common.Address {
	return common.HexToAddress(c.SushiswapRouterAddress)
}

// SushiswapFactoryAddressHex returns the configured SushiSwap factory address.
func (c *DexConfig) SushiswapFactoryAddressHex() common.Address {
	return common.HexToAddress(c.SushiswapFactoryAddress)
}

// OneInchRouterAddressHex returns 1inch's AggregationRouter address, the
// allowance target for built swap calldata.
func (c *DexConfig) OneInchRouterAddressHex() common.Address {
	return common.HexToAddress(c.OneInchRouterAddress)
}

// SandwichConfig holds C5.1 sandwich detector configuration.
type SandwichConfig struct {
	ExecutorAddress  string  `mapstructure:"executor_address"` // flash-loan receiver contract that executes frontrun/backrun
	MinProfitETH     float64 `mapstructure:"min_profit_eth"`
	MinProfitPct     float64 `mapstructure:"min_profit_pct"`
	MinSuccessProbability float64 `mapstructure:"min_success_probability"`
	PoolCacheTTL     time.Duration `mapstructure:"pool_cache_ttl"`
}

// ExecutorAddressHex returns the configured executor contract address.
func (c *SandwichConfig) ExecutorAddressHex() common.Address {
	return common.HexToAddress(c.ExecutorAddress)
}

// LiquidationConfig holds C5.2 liquidation detector configuration.
type LiquidationConfig struct {
	Source             string        `mapstructure:"source"` // "onchain" or "indexer"
	AavePoolAddress    string        `mapstructure:"aave_pool_address"`
	Watchlist          []string      `mapstructure:"watchlist"`
	IndexerEndpoint    string        `mapstructure:"indexer_endpoint"`
	ScanInterval       time.Duration `mapstructure:"scan_interval"`
	CloseFactor        float64       `mapstructure:"close_factor"`
	LiquidationBonusPct float64      `mapstructure:"liquidation_bonus_pct"`
	MinDebtToCoverUSD  float64       `mapstructure:"min_debt_to_cover_usd"`
}

// AavePoolAddressHex returns the configured Aave V3 Pool address.
func (c *LiquidationConfig) AavePoolAddressHex() common.Address {
	return common.HexToAddress(c.AavePoolAddress)
}

// WatchlistAddresses converts the configured watch list to common.Address.
func (c *LiquidationConfig) WatchlistAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(c.Watchlist))
	for _, a := range c.Watchlist {
		addrs = append(addrs, common.HexToAddress(a))
	}
	return addrs
}

// MicroArbitrageConfig holds C5.3 micro-arbitrage detector configuration.
type MicroArbitrageConfig struct {
	Symbols         []string      `mapstructure:"symbols"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	MinProfitPct    float64       `mapstructure:"min_profit_pct"`
	OpportunityRate float64       `mapstructure:"opportunity_rate"`
	MinAmountUSD    float64       `mapstructure:"min_amount_usd"`
	MaxAmountUSD    float64       `mapstructure:"max_amount_usd"`
}

// TriangularPathEntry is one configured (A,B,C) triangular arbitrage
// path, addresses and amount as plain strings so this package stays free
// of a business-layer dependency; the triangular module parses them.
type TriangularPathEntry struct {
	AssetA        string `mapstructure:"asset_a"`
	AssetB        string `mapstructure:"asset_b"`
	AssetC        string `mapstructure:"asset_c"`
	BaseAmountWei string `mapstructure:"base_amount_wei"`
}

// TriangularConfig holds C5.4 triangular arbitrage detector configuration.
type TriangularConfig struct {
	Paths               []TriangularPathEntry `mapstructure:"paths"`
	ScanInterval        time.Duration         `mapstructure:"scan_interval"`
	SlippageBps         int                   `mapstructure:"slippage_bps"`
	MinProfitPct        float64               `mapstructure:"min_profit_pct"`
	FlashLoanPremiumBps int                   `mapstructure:"flash_loan_premium_bps"`
	GasLimit            uint64                `mapstructure:"gas_limit"`
	VolatilityPct       float64               `mapstructure:"volatility_pct"`
}

// AssetAddresses parses one path entry's hex addresses.
func (e TriangularPathEntry) AssetAddresses() (a, b, c common.Address) {
	return common.HexToAddress(e.AssetA), common.HexToAddress(e.AssetB), common.HexToAddress(e.AssetC)
}

// OpportunityConfig holds C6 opportunity manager configuration.
type OpportunityConfig struct {
	MinProfitThresholdETH float64     `mapstructure:"min_profit_threshold_eth"`
	Redis                 RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the connection settings for the opportunity queue's
// cross-process stats mirror.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// BundleConfig holds C7 bundle builder and simulator configuration.
type BundleConfig struct {
	DeadlineSeconds         int     `mapstructure:"deadline_seconds"`
	MaxGasPriceGwei         float64 `mapstructure:"max_gas_price_gwei"`
	UseFlashLoanSandwich    bool    `mapstructure:"use_flashloan_sandwich"`
	UseFlashLoanLiquidation bool    `mapstructure:"use_flashloan_liquidation"`
	FlashLoanPoolAddress    string  `mapstructure:"flash_loan_pool_address"`
	FlashLoanReceiverAddress string `mapstructure:"flash_loan_receiver_address"`
	SandwichGasLimit        uint64  `mapstructure:"sandwich_gas_limit"`
	LiquidationGasLimit     uint64  `mapstructure:"liquidation_gas_limit"`
	Simulator               SimulatorConfig `mapstructure:"simulator"`
	// KafkaBrokers, when non-empty, turns on publishing a bundle-lifecycle
	// event to KafkaTopic after every build-and-simulate call.
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

// FlashLoanPoolAddressHex returns the configured Aave pool address the
// flash-loan-initiating transaction targets.
func (c *BundleConfig) FlashLoanPoolAddressHex() common.Address {
	return common.HexToAddress(c.FlashLoanPoolAddress)
}

// FlashLoanReceiverAddressHex returns the configured flash-loan receiver
// contract address, the recipient of flashLoanSimple's callback.
func (c *BundleConfig) FlashLoanReceiverAddressHex() common.Address {
	return common.HexToAddress(c.FlashLoanReceiverAddress)
}

// SimulatorConfig selects and tunes the bundle simulator backend.
type SimulatorConfig struct {
	RelayURL        string  `mapstructure:"relay_url"`
	RelayAPIKey     string  `mapstructure:"relay_api_key"`
	MockSuccessRate float64 `mapstructure:"mock_success_rate"`
	MockGasPriceWei int64   `mapstructure:"mock_gas_price_wei"`
}

// RelayConfig holds C8 relay submission and status-polling configuration.
// Shares the bundle-lifecycle Kafka topic with BundleConfig.
type RelayConfig struct {
	SubmitURL            string  `mapstructure:"submit_url"`
	SubmitAPIKey         string  `mapstructure:"submit_api_key"`
	OperatorPrivateKey   string  `mapstructure:"operator_private_key"`
	RequestsPerMinute    int     `mapstructure:"requests_per_minute"`
	PollIntervalSeconds  int     `mapstructure:"poll_interval_seconds"`
	MockSubmitSuccessRate float64 `mapstructure:"mock_submit_success_rate"`
}

// ExecutionConfig holds C9 order execution engine tuning: concurrency
// cap, timing, risk thresholds, and the CEX venues to trade against in
// real mode.
type ExecutionConfig struct {
	MaxConcurrentTrades      int     `mapstructure:"max_concurrent_trades"`
	ExecutionDeadlineSeconds int     `mapstructure:"execution_deadline_seconds"`
	FillPollIntervalMs       int     `mapstructure:"fill_poll_interval_ms"`
	MaxLatencyMs             float64 `mapstructure:"max_latency_ms"`
	HighRiskNotionalUSD      float64 `mapstructure:"high_risk_notional_usd"`
	CriticalRiskNotionalUSD  float64 `mapstructure:"critical_risk_notional_usd"`
	MockFillRate             float64 `mapstructure:"mock_fill_rate"`

	CEXExchanges []CEXExchangeConfig `mapstructure:"cex_exchanges"`
	DEXSymbols   []DEXSymbolConfig   `mapstructure:"dex_symbols"`
}

// CEXExchangeConfig names one real-mode CEX trading venue.
type CEXExchangeConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// DEXSymbolConfig maps a micro-arbitrage symbol to the on-chain token
// pair the dexexchange adapter swaps between when that symbol's buy or
// sell leg names a DEX venue.
type DEXSymbolConfig struct {
	Symbol      string `mapstructure:"symbol"`
	BaseSymbol  string `mapstructure:"base_symbol"`
	QuoteSymbol string `mapstructure:"quote_symbol"`
}

// StrategyConfig holds C10 orchestrator tuning: how often it drains each
// strategy's opportunity queue, how long it waits for a submitted
// bundle to settle, and the admin API's listen port.
type StrategyConfig struct {
	AdminPort                int `mapstructure:"admin_port"`
	DequeueIntervalMs        int `mapstructure:"dequeue_interval_ms"`
	SubmissionTimeoutSeconds int `mapstructure:"submission_timeout_seconds"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.websocket_url", "ARB_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "ARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Binance
	v.BindEnv("binance.websocket_url", "ARB_BINANCE_WS_URL", "BINANCE_WS_URL")
	v.BindEnv("binance.symbols", "ARB_BINANCE_SYMBOLS", "BINANCE_SYMBOLS")

	// Uniswap
	v.BindEnv("uniswap.quoter_address", "ARB_UNISWAP_QUOTER", "UNISWAP_QUOTER")
	v.BindEnv("uniswap.router_address", "ARB_UNISWAP_ROUTER", "UNISWAP_ROUTER")
	v.BindEnv("uniswap.factory_address", "ARB_UNISWAP_FACTORY", "UNISWAP_FACTORY")

	// Arbitrage
	v.BindEnv("arbitrage.pairs", "ARB_PAIRS")
	v.BindEnv("arbitrage.min_profit_bps", "ARB_MIN_PROFIT_BPS")
	v.BindEnv("arbitrage.min_profit_usd", "ARB_MIN_PROFIT_USD")

	// Oracle
	v.BindEnv("oracle.strategy", "ARB_ORACLE_STRATEGY", "ORACLE_STRATEGY")
	v.BindEnv("oracle.max_deviation_pct", "ARB_ORACLE_MAX_DEVIATION_PCT")
	v.BindEnv("oracle.min_sources", "ARB_ORACLE_MIN_SOURCES")

	// Dex
	v.BindEnv("dex.zeroex_api_key", "ARB_ZEROEX_API_KEY", "ZEROEX_API_KEY")
	v.BindEnv("dex.oneinch_api_key", "ARB_ONEINCH_API_KEY", "ONEINCH_API_KEY")
	v.BindEnv("dex.default_selection_strategy", "ARB_DEX_SELECTION_STRATEGY")

	// Sandwich
	v.BindEnv("sandwich.executor_address", "ARB_SANDWICH_EXECUTOR", "SANDWICH_EXECUTOR_ADDRESS")
	v.BindEnv("sandwich.min_profit_eth", "ARB_SANDWICH_MIN_PROFIT_ETH")

	// Liquidation
	v.BindEnv("liquidation.source", "ARB_LIQUIDATION_SOURCE", "LIQUIDATION_MODE")
	v.BindEnv("liquidation.aave_pool_address", "ARB_AAVE_POOL_ADDRESS")
	v.BindEnv("liquidation.indexer_endpoint", "ARB_LIQUIDATION_INDEXER_URL")

	// Micro-arbitrage
	v.BindEnv("micro_arbitrage.symbols", "ARB_MICROARB_SYMBOLS")
	v.BindEnv("micro_arbitrage.min_profit_pct", "ARB_MICROARB_MIN_PROFIT_PCT")

	// Triangular arbitrage
	v.BindEnv("triangular.scan_interval", "ARB_TRIANGULAR_SCAN_INTERVAL")
	v.BindEnv("triangular.min_profit_pct", "ARB_TRIANGULAR_MIN_PROFIT_PCT")

	// Opportunity manager
	v.BindEnv("opportunity.min_profit_threshold_eth", "ARB_OPPORTUNITY_MIN_PROFIT_ETH")
	v.BindEnv("opportunity.redis.enabled", "ARB_OPPORTUNITY_REDIS_ENABLED")
	v.BindEnv("opportunity.redis.addr", "ARB_OPPORTUNITY_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("opportunity.redis.password", "ARB_OPPORTUNITY_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Bundle builder & simulator
	v.BindEnv("bundle.flash_loan_pool_address", "ARB_FLASHLOAN_POOL_ADDRESS")
	v.BindEnv("bundle.flash_loan_receiver_address", "ARB_FLASHLOAN_RECEIVER_ADDRESS")
	v.BindEnv("bundle.simulator.relay_url", "ARB_RELAY_SIMULATE_URL")
	v.BindEnv("bundle.simulator.relay_api_key", "ARB_RELAY_API_KEY")
	v.BindEnv("bundle.kafka_brokers", "ARB_BUNDLE_KAFKA_BROKERS", "KAFKA_BROKERS")
	v.BindEnv("bundle.kafka_topic", "ARB_BUNDLE_KAFKA_TOPIC")

	// Relay (C8 submission)
	v.BindEnv("relay.submit_url", "ARB_RELAY_SUBMIT_URL")
	v.BindEnv("relay.submit_api_key", "ARB_RELAY_SUBMIT_API_KEY")
	v.BindEnv("relay.operator_private_key", "ARB_RELAY_OPERATOR_PRIVATE_KEY", "RELAY_OPERATOR_PRIVATE_KEY")
	v.BindEnv("relay.requests_per_minute", "ARB_RELAY_REQUESTS_PER_MINUTE")
	v.BindEnv("relay.poll_interval_seconds", "ARB_RELAY_POLL_INTERVAL_SECONDS")
	v.BindEnv("relay.mock_submit_success_rate", "ARB_RELAY_MOCK_SUBMIT_SUCCESS_RATE")

	// Execution (C9 order execution engine)
	v.BindEnv("execution.max_concurrent_trades", "ARB_EXECUTION_MAX_CONCURRENT_TRADES")
	v.BindEnv("execution.execution_deadline_seconds", "ARB_EXECUTION_DEADLINE_SECONDS")
	v.BindEnv("execution.fill_poll_interval_ms", "ARB_EXECUTION_FILL_POLL_INTERVAL_MS")
	v.BindEnv("execution.max_latency_ms", "ARB_EXECUTION_MAX_LATENCY_MS")
	v.BindEnv("execution.high_risk_notional_usd", "ARB_EXECUTION_HIGH_RISK_NOTIONAL_USD")
	v.BindEnv("execution.critical_risk_notional_usd", "ARB_EXECUTION_CRITICAL_RISK_NOTIONAL_USD")
	v.BindEnv("execution.mock_fill_rate", "ARB_EXECUTION_MOCK_FILL_RATE")

	// Strategy orchestrator (C10)
	v.BindEnv("strategy.admin_port", "ARB_STRATEGY_ADMIN_PORT")
	v.BindEnv("strategy.dequeue_interval_ms", "ARB_STRATEGY_DEQUEUE_INTERVAL_MS")
	v.BindEnv("strategy.submission_timeout_seconds", "ARB_STRATEGY_SUBMISSION_TIMEOUT_SECONDS")

	// App-wide mock/real toggle
	v.BindEnv("app.api_mode", "ARB_API_MODE", "API_MODE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "arbitrage-bot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.max_reconnects", 0) // infinite
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")

	// Binance defaults
	v.SetDefault("binance.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("binance.symbols", []string{"ETHUSDC"})
	v.SetDefault("binance.depth_speed_ms", 100)
	v.SetDefault("binance.stale_timeout", "5s")

	// Uniswap V3 Mainnet defaults
	v.SetDefault("uniswap.quoter_address", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	v.SetDefault("uniswap.router_address", "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45")
	v.SetDefault("uniswap.factory_address", "0x1F98431c8aD98523631AE4a59f267346ea31F984")
	v.SetDefault("uniswap.default_fee_tier", 3000) // 0.3%

	// Arbitrage defaults
	v.SetDefault("arbitrage.pairs", []string{"ETH-USDC"})
	v.SetDefault("arbitrage.trade_sizes", []float64{0.1, 0.5, 1.0})
	v.SetDefault("arbitrage.min_profit_bps", 10)
	v.SetDefault("arbitrage.min_profit_usd", 5)

	// Oracle defaults
	v.SetDefault("oracle.strategy", "median")
	v.SetDefault("oracle.max_deviation_pct", 5.0)
	v.SetDefault("oracle.min_sources", 2)
	v.SetDefault("oracle.cache_ttl", "60s")
	v.SetDefault("oracle.per_oracle_timeout", "2s")
	v.SetDefault("oracle.chainlink_weight", 1.5)
	v.SetDefault("oracle.uniswap_twap_weight", 1.0)
	v.SetDefault("oracle.binance_weight", 1.2)
	v.SetDefault("oracle.uniswap_spot_weight", 0.8)
	v.SetDefault("oracle.twap_window", "600s")

	// Dex defaults
	v.SetDefault("dex.sushiswap_router_address", "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F")
	v.SetDefault("dex.sushiswap_factory_address", "0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac")
	v.SetDefault("dex.default_slippage_bps", 50) // 0.5%
	v.SetDefault("dex.zeroex_requests_per_minute", 60)
	v.SetDefault("dex.oneinch_chain_id", 1)
	v.SetDefault("dex.oneinch_router_address", "0x1111111254EEB25477B68fb85Ed929f73A960582")
	v.SetDefault("dex.oneinch_requests_per_minute", 60)
	v.SetDefault("dex.default_selection_strategy", "best_quote")

	// Sandwich defaults
	v.SetDefault("sandwich.min_profit_eth", 0.01)
	v.SetDefault("sandwich.min_profit_pct", 0.001)
	v.SetDefault("sandwich.min_success_probability", 0.4)
	v.SetDefault("sandwich.pool_cache_ttl", "3s")

	// Liquidation defaults
	v.SetDefault("liquidation.source", "onchain")
	v.SetDefault("liquidation.scan_interval", "12s")
	v.SetDefault("liquidation.close_factor", 0.5)
	v.SetDefault("liquidation.liquidation_bonus_pct", 5.0)
	v.SetDefault("liquidation.min_debt_to_cover_usd", 10.0)

	// Micro-arbitrage defaults
	v.SetDefault("micro_arbitrage.symbols", []string{"ETH/USDC", "BTC/USDC"})
	v.SetDefault("micro_arbitrage.scan_interval", "5s")
	v.SetDefault("micro_arbitrage.min_profit_pct", 0.05)
	v.SetDefault("micro_arbitrage.opportunity_rate", 0.3)
	v.SetDefault("micro_arbitrage.min_amount_usd", 100.0)
	v.SetDefault("micro_arbitrage.max_amount_usd", 5000.0)

	// Triangular arbitrage (paths left empty; must be configured per deployment)
	v.SetDefault("triangular.scan_interval", "15s")
	v.SetDefault("triangular.slippage_bps", 50)
	v.SetDefault("triangular.min_profit_pct", 0.5)
	v.SetDefault("triangular.flash_loan_premium_bps", 9)
	v.SetDefault("triangular.gas_limit", 500000)
	v.SetDefault("triangular.volatility_pct", 2.0)

	// Opportunity manager
	v.SetDefault("opportunity.min_profit_threshold_eth", 0.05)
	v.SetDefault("opportunity.redis.enabled", false)
	v.SetDefault("opportunity.redis.addr", "localhost:6379")
	v.SetDefault("opportunity.redis.db", 0)
	v.SetDefault("opportunity.redis.key_prefix", "mev-searcher:opportunity")

	// Bundle builder & simulator defaults
	v.SetDefault("bundle.deadline_seconds", 120)
	v.SetDefault("bundle.max_gas_price_gwei", 200.0)
	v.SetDefault("bundle.use_flashloan_sandwich", false)
	v.SetDefault("bundle.use_flashloan_liquidation", true)
	v.SetDefault("bundle.sandwich_gas_limit", 600000)
	v.SetDefault("bundle.liquidation_gas_limit", 800000)
	v.SetDefault("bundle.simulator.mock_success_rate", 0.8)
	v.SetDefault("bundle.simulator.mock_gas_price_wei", 30_000_000_000)
	v.SetDefault("bundle.kafka_brokers", []string{})
	v.SetDefault("bundle.kafka_topic", "bundles.events")

	v.SetDefault("relay.requests_per_minute", 60)
	v.SetDefault("relay.poll_interval_seconds", 2)
	v.SetDefault("relay.mock_submit_success_rate", 0.9)

	v.SetDefault("execution.max_concurrent_trades", 5)
	v.SetDefault("execution.execution_deadline_seconds", 10)
	v.SetDefault("execution.fill_poll_interval_ms", 100)
	v.SetDefault("execution.max_latency_ms", 500.0)
	v.SetDefault("execution.high_risk_notional_usd", 1_000.0)
	v.SetDefault("execution.critical_risk_notional_usd", 10_000.0)
	v.SetDefault("execution.mock_fill_rate", 0.85)

	v.SetDefault("strategy.admin_port", 8081)
	v.SetDefault("strategy.dequeue_interval_ms", 200)
	v.SetDefault("strategy.submission_timeout_seconds", 30)

	// App-wide mock/real toggle
	v.SetDefault("app.api_mode", "mock")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbitrage-bot")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.WebSocketURL == "" {
		return fmt.Errorf("ethereum.websocket_url is required")
	}
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Uniswap.QuoterAddress) {
		return fmt.Errorf("invalid uniswap.quoter_address: %s", c.Uniswap.QuoterAddress)
	}
	if !common.IsHexAddress(c.Uniswap.RouterAddress) {
		return fmt.Errorf("invalid uniswap.router_address: %s", c.Uniswap.RouterAddress)
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}
	return nil
}
