package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Apify     ApifyConfig     `yaml:"apify" mapstructure:"apify"`
	Resy      ResyConfig      `yaml:"resy" mapstructure:"resy"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SerperConfig holds Serper API settings.
type SerperConfig struct {
	Key       string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key       string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxPages  int     `yaml:"max_pages" mapstructure:"max_pages"`
}

// ApifyConfig holds Apify credentials and actor ids.
type ApifyConfig struct {
	Token            string `yaml:"api_token" mapstructure:"api_token"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	ProfileActor     string `yaml:"profile_actor" mapstructure:"profile_actor"`
	ReelsActor       string `yaml:"reels_actor" mapstructure:"reels_actor"`
	PostsActor       string `yaml:"posts_actor" mapstructure:"posts_actor"`
	OpenTableActor   string `yaml:"opentable_actor" mapstructure:"opentable_actor"`
	BatchSize        int    `yaml:"batch_size" mapstructure:"batch_size"`
	OpenTableBatch   int    `yaml:"opentable_batch_size" mapstructure:"opentable_batch_size"`
	ResultsPerUser   int    `yaml:"results_per_user" mapstructure:"results_per_user"`
	PollTimeoutSecs  int    `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	MaxConcurrentRun int    `yaml:"max_concurrent_runs" mapstructure:"max_concurrent_runs"`
}

// ResyConfig holds Resy API credentials.
type ResyConfig struct {
	Key       string `yaml:"api_key" mapstructure:"api_key"`
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
}

// CategoryConfig is one search category: the queries issued for it and the
// business type its hits are tagged with.
type CategoryConfig struct {
	Name         string   `yaml:"name" mapstructure:"name"`
	BusinessType string   `yaml:"business_type" mapstructure:"business_type"`
	Queries      []string `yaml:"queries" mapstructure:"queries"`
}

// QualityFloorConfig is the minimum review count and rating for one business type.
type QualityFloorConfig struct {
	MinReviews int     `yaml:"min_reviews" mapstructure:"min_reviews"`
	MinRating  float64 `yaml:"min_rating" mapstructure:"min_rating"`
}

// DiscoveryConfig configures search fan-out and disqualification filters.
type DiscoveryConfig struct {
	Provider       string                        `yaml:"provider" mapstructure:"provider"`
	Cities         []string                      `yaml:"cities" mapstructure:"cities"`
	Categories     []CategoryConfig              `yaml:"categories" mapstructure:"categories"`
	ChainKeywords  []string                      `yaml:"chain_keywords" mapstructure:"chain_keywords"`
	LiquorKeywords []string                      `yaml:"liquor_keywords" mapstructure:"liquor_keywords"`
	QualityFloors  map[string]QualityFloorConfig `yaml:"quality_floors" mapstructure:"quality_floors"`
	DefaultFloor   QualityFloorConfig            `yaml:"default_floor" mapstructure:"default_floor"`
	Workers        int                           `yaml:"workers" mapstructure:"workers"`
}

// EnrichConfig configures enrichment stages.
type EnrichConfig struct {
	Stages              []string `yaml:"stages" mapstructure:"stages"`
	WebsiteWorkers      int      `yaml:"website_workers" mapstructure:"website_workers"`
	SearchWorkers       int      `yaml:"search_workers" mapstructure:"search_workers"`
	SocialWorkers       int      `yaml:"social_workers" mapstructure:"social_workers"`
	ReviewWorkers       int      `yaml:"review_workers" mapstructure:"review_workers"`
	AvailabilityWorkers int      `yaml:"availability_workers" mapstructure:"availability_workers"`
	HomepageTimeoutSecs int      `yaml:"homepage_timeout_secs" mapstructure:"homepage_timeout_secs"`
	SubpageTimeoutSecs  int      `yaml:"subpage_timeout_secs" mapstructure:"subpage_timeout_secs"`
	BlockThreshold      int      `yaml:"block_threshold" mapstructure:"block_threshold"`
	BlockCooldownSecs   int      `yaml:"block_cooldown_secs" mapstructure:"block_cooldown_secs"`
	SearchResults       int      `yaml:"search_results" mapstructure:"search_results"`
	ReviewsPerPlace     int      `yaml:"reviews_per_place" mapstructure:"reviews_per_place"`
	PressDomains        []string `yaml:"press_domains" mapstructure:"press_domains"`
	ReservationKeywords []string `yaml:"reservation_keywords" mapstructure:"reservation_keywords"`
	CheckOffsetsDays    []int    `yaml:"check_offsets_days" mapstructure:"check_offsets_days"`
	PartySize           int      `yaml:"party_size" mapstructure:"party_size"`
	ReservationTime     string   `yaml:"reservation_time" mapstructure:"reservation_time"`
}

// ScoringConfig configures the scoring engine.
type ScoringConfig struct {
	ProfilePath string   `yaml:"profile_path" mapstructure:"profile_path"`
	TopTiers    []string `yaml:"top_tiers" mapstructure:"top_tiers"`
}

// OutputConfig configures snapshot and export locations.
type OutputConfig struct {
	Dir  string `yaml:"dir" mapstructure:"dir"`
	XLSX bool   `yaml:"xlsx" mapstructure:"xlsx"`
}

// MetricsConfig configures the Prometheus textfile export and run alerts.
type MetricsConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	TextfilePath         string  `yaml:"textfile_path" mapstructure:"textfile_path"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	MinProcessed         int     `yaml:"min_processed" mapstructure:"min_processed"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file, and environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed credential names kept for existing .env files.
	_ = v.BindEnv("serper.api_key", "LEADS_SERPER_API_KEY", "SERPER_API_KEY")
	_ = v.BindEnv("google.api_key", "LEADS_GOOGLE_API_KEY", "GOOGLE_PLACES_API_KEY")
	_ = v.BindEnv("apify.api_token", "LEADS_APIFY_API_TOKEN", "APIFY_API_TOKEN")
	_ = v.BindEnv("resy.api_key", "LEADS_RESY_API_KEY", "RESY_API_KEY")
	_ = v.BindEnv("resy.auth_token", "LEADS_RESY_AUTH_TOKEN", "RESY_AUTH_TOKEN")

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.rate_limit", 5)
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("google.max_pages", 1)
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.profile_actor", "apify/instagram-profile-scraper")
	v.SetDefault("apify.reels_actor", "apify/instagram-reel-scraper")
	v.SetDefault("apify.posts_actor", "apify/instagram-post-scraper")
	v.SetDefault("apify.opentable_actor", "shahidirfan/opentable-scraper")
	v.SetDefault("apify.batch_size", 30)
	v.SetDefault("apify.opentable_batch_size", 20)
	v.SetDefault("apify.results_per_user", 12)
	v.SetDefault("apify.poll_timeout_secs", 600)
	v.SetDefault("apify.max_concurrent_runs", 2)
	v.SetDefault("resy.base_url", "https://api.resy.com/4")
	v.SetDefault("discovery.provider", "serper")
	v.SetDefault("discovery.workers", 5)
	v.SetDefault("discovery.cities", DefaultCities)
	v.SetDefault("discovery.categories", DefaultCategories)
	v.SetDefault("discovery.chain_keywords", DefaultChainKeywords)
	v.SetDefault("discovery.liquor_keywords", DefaultLiquorKeywords)
	// Leaf keys so a file or env override of one field keeps the others.
	for bt, f := range defaultQualityFloors {
		v.SetDefault("discovery.quality_floors."+bt+".min_reviews", f.MinReviews)
		v.SetDefault("discovery.quality_floors."+bt+".min_rating", f.MinRating)
	}
	v.SetDefault("discovery.default_floor.min_reviews", 20)
	v.SetDefault("discovery.default_floor.min_rating", 4.0)
	v.SetDefault("enrich.stages", DefaultStages)
	v.SetDefault("enrich.website_workers", 10)
	v.SetDefault("enrich.search_workers", 5)
	v.SetDefault("enrich.social_workers", 5)
	v.SetDefault("enrich.review_workers", 5)
	v.SetDefault("enrich.availability_workers", 5)
	v.SetDefault("enrich.homepage_timeout_secs", 10)
	v.SetDefault("enrich.subpage_timeout_secs", 8)
	v.SetDefault("enrich.block_threshold", 5)
	v.SetDefault("enrich.block_cooldown_secs", 120)
	v.SetDefault("enrich.search_results", 10)
	v.SetDefault("enrich.reviews_per_place", 10)
	v.SetDefault("enrich.press_domains", DefaultPressDomains)
	v.SetDefault("enrich.reservation_keywords", DefaultReservationKeywords)
	v.SetDefault("enrich.check_offsets_days", []int{1, 3, 7})
	v.SetDefault("enrich.party_size", 2)
	v.SetDefault("enrich.reservation_time", "19:00")
	v.SetDefault("scoring.top_tiers", []string{"A", "B"})
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.xlsx", true)
	v.SetDefault("metrics.textfile_path", "output/lead_scoring.prom")
	v.SetDefault("metrics.failure_rate_threshold", 0.5)
	v.SetDefault("metrics.min_processed", 10)
}

var defaultQualityFloors = map[string]QualityFloorConfig{
	"restaurant": {MinReviews: 50, MinRating: 4.2},
	"butcher":    {MinReviews: 20, MinRating: 4.0},
	"wine_store": {MinReviews: 20, MinRating: 4.0},
}

// Validate checks the configuration for the given mode: "discover", "enrich",
// "score", or "run". Missing enrichment credentials are not errors; those
// stages are skipped at runtime.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "discover", "run":
		errs = append(errs, c.validateDiscovery()...)
		errs = append(errs, c.validateEnrich()...)
	case "enrich":
		errs = append(errs, c.validateEnrich()...)
	case "score":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Output.Dir == "" {
		errs = append(errs, "output.dir is required")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateDiscovery() []string {
	var errs []string
	switch c.Discovery.Provider {
	case "serper":
		if c.Serper.Key == "" {
			errs = append(errs, "serper.api_key is required")
		}
	case "google":
		if c.Google.Key == "" {
			errs = append(errs, "google.api_key is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("discovery.provider %q must be serper or google", c.Discovery.Provider))
	}
	if len(c.Discovery.Cities) == 0 {
		errs = append(errs, "discovery.cities must not be empty")
	}
	if len(c.Discovery.Categories) == 0 {
		errs = append(errs, "discovery.categories must not be empty")
	}
	for _, cat := range c.Discovery.Categories {
		switch cat.BusinessType {
		case "restaurant", "butcher", "wine_store":
		default:
			errs = append(errs, fmt.Sprintf("discovery.categories[%s].business_type %q is invalid", cat.Name, cat.BusinessType))
		}
	}
	for bt, f := range c.Discovery.QualityFloors {
		if f.MinReviews < 0 || f.MinRating < 0 || f.MinRating > 5 {
			errs = append(errs, fmt.Sprintf("discovery.quality_floors.%s out of range", bt))
		}
	}
	return errs
}

func (c *Config) validateEnrich() []string {
	var errs []string
	pools := map[string]int{
		"enrich.website_workers":      c.Enrich.WebsiteWorkers,
		"enrich.search_workers":       c.Enrich.SearchWorkers,
		"enrich.social_workers":       c.Enrich.SocialWorkers,
		"enrich.review_workers":       c.Enrich.ReviewWorkers,
		"enrich.availability_workers": c.Enrich.AvailabilityWorkers,
	}
	for _, name := range []string{
		"enrich.website_workers", "enrich.search_workers", "enrich.social_workers",
		"enrich.review_workers", "enrich.availability_workers",
	} {
		if n := pools[name]; n < 1 || n > 50 {
			errs = append(errs, name+" must be between 1 and 50")
		}
	}
	if c.Apify.BatchSize < 1 || c.Apify.BatchSize > 30 {
		errs = append(errs, "apify.batch_size must be between 1 and 30")
	}
	return errs
}

// RequiredCredentials lists the credential keys an enrichment stage uses.
// A stage with several keys runs partially when only some are set.
func RequiredCredentials(stage string) []string {
	switch stage {
	case "instagram", "reels", "posts":
		return []string{"apify.api_token"}
	case "press", "reviews":
		return []string{"serper.api_key"}
	case "availability":
		return []string{"apify.api_token", "resy.api_key"}
	default:
		return nil
	}
}

// MissingCredentials lists the credential keys an enrichment stage needs
// that are not set.
func (c *Config) MissingCredentials(stage string) []string {
	set := map[string]bool{
		"apify.api_token": c.Apify.Token != "",
		"serper.api_key":  c.Serper.Key != "",
		"resy.api_key":    c.Resy.Key != "",
	}
	var missing []string
	for _, key := range RequiredCredentials(stage) {
		if !set[key] {
			missing = append(missing, key)
		}
	}
	return missing
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
