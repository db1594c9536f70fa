package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Credits  CreditsConfig
	Gateway  GatewayConfig
	AI       AIConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	credits, err := loadCreditsConfig()
	if err != nil {
		return nil, err
	}

	gateway, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Database: database,
		Auth:     auth,
		Credits:  credits,
		Gateway:  gateway,
		AI:       ai,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// DatabaseConfig selects the gorm dialector and its DSN.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite"))
	switch driver {
	case "sqlite", "postgres":
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_DRIVER value: %q", driver)
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if driver == "postgres" && dsn == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_DSN is required for postgres")
	}
	if dsn == "" {
		dsn = "file:rizzmate.db?_foreign_keys=on"
	}

	return DatabaseConfig{Driver: driver, DSN: dsn}, nil
}

// AuthConfig 描述 JWT 校验所需的身份提供方信息。
type AuthConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// Disabled 时所有请求都按访客处理，仅用于本地调试。
	Disabled bool
}

// Enabled reports whether bearer tokens can be verified.
func (c AuthConfig) Enabled() bool {
	return !c.Disabled && c.Issuer != "" && c.JWKSURL != ""
}

func loadAuthConfig() (AuthConfig, error) {
	disabled, err := parseBoolEnv("AUTH_DISABLED", false)
	if err != nil {
		return AuthConfig{}, err
	}

	issuer := strings.TrimRight(strings.TrimSpace(os.Getenv("AUTH_ISSUER")), "/")
	jwksURL := strings.TrimSpace(os.Getenv("AUTH_JWKS_URL"))
	if jwksURL == "" && issuer != "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}

	return AuthConfig{
		Issuer:   issuer,
		Audience: strings.TrimSpace(os.Getenv("AUTH_AUDIENCE")),
		JWKSURL:  jwksURL,
		Disabled: disabled,
	}, nil
}

// CreditsConfig holds the provisioning policy for guests and accounts.
type CreditsConfig struct {
	GuestDefault   int
	AccountDefault int
	AdminDefault   int
	// AdminEmail 首次登录时被授予管理员权限的邮箱，为空则不自动授予。
	AdminEmail string
}

func loadCreditsConfig() (CreditsConfig, error) {
	guest, err := parseNonNegativeIntEnv("GUEST_DEFAULT_CREDITS", 5)
	if err != nil {
		return CreditsConfig{}, err
	}
	account, err := parseNonNegativeIntEnv("ACCOUNT_DEFAULT_CREDITS", 100)
	if err != nil {
		return CreditsConfig{}, err
	}
	admin, err := parseNonNegativeIntEnv("ADMIN_DEFAULT_CREDITS", 1000)
	if err != nil {
		return CreditsConfig{}, err
	}

	return CreditsConfig{
		GuestDefault:   guest,
		AccountDefault: account,
		AdminDefault:   admin,
		AdminEmail:     strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")),
	}, nil
}

// GatewayConfig 描述 AI 网关：既包括回复生成时调用的网关地址，也包括网关自身使用的上游提供方。
type GatewayConfig struct {
	// URL of the gateway the reply generator calls. Empty means in-process.
	URL      string
	Timeout  time.Duration
	Provider string
	// EndpointEnabled 开启 /functions/v1/openrouter-chat；该接口不计费，默认关闭。
	EndpointEnabled bool

	OpenRouterAPIKey      string
	OpenRouterBaseURL     string
	OpenRouterModel       string
	OpenRouterVisionModel string
	Referer               string
	Title                 string

	Temperature float32
	MaxTokens   int
}

func loadGatewayConfig() (GatewayConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("GATEWAY_PROVIDER", "openrouter"))
	if provider != "openrouter" && provider != "ark" {
		return GatewayConfig{}, fmt.Errorf("invalid GATEWAY_PROVIDER value: %q", provider)
	}

	timeoutSeconds, err := parseNonNegativeIntEnv("GATEWAY_TIMEOUT_SECONDS", 60)
	if err != nil {
		return GatewayConfig{}, err
	}

	temperature := float32(0.7)
	if override, err := parseOptionalFloat32Env("GATEWAY_TEMPERATURE"); err != nil {
		return GatewayConfig{}, err
	} else if override != nil {
		temperature = *override
	}
	if temperature < 0 || temperature > 2 {
		return GatewayConfig{}, fmt.Errorf("GATEWAY_TEMPERATURE must be between 0 and 2, got %v", temperature)
	}

	maxTokens, err := parseNonNegativeIntEnv("GATEWAY_MAX_TOKENS", 1000)
	if err != nil {
		return GatewayConfig{}, err
	}
	if maxTokens == 0 {
		return GatewayConfig{}, fmt.Errorf("GATEWAY_MAX_TOKENS must be positive")
	}

	endpointEnabled, err := parseBoolEnv("GATEWAY_ENDPOINT_ENABLED", false)
	if err != nil {
		return GatewayConfig{}, err
	}

	return GatewayConfig{
		URL:                   strings.TrimSpace(os.Getenv("GATEWAY_URL")),
		Timeout:               time.Duration(timeoutSeconds) * time.Second,
		Provider:              provider,
		EndpointEnabled:       endpointEnabled,
		OpenRouterAPIKey:      strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		OpenRouterBaseURL:     getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:       getEnvOrDefault("OPENROUTER_MODEL", "meta-llama/llama-3.3-70b-instruct:free"),
		OpenRouterVisionModel: strings.TrimSpace(os.Getenv("OPENROUTER_VISION_MODEL")),
		Referer:               getEnvOrDefault("OPENROUTER_REFERER", "https://rizzmate.app"),
		Title:                 getEnvOrDefault("OPENROUTER_TITLE", "RizzMate"),
		Temperature:           temperature,
		MaxTokens:             maxTokens,
	}, nil
}

// AIConfig 描述 Ark 大模型相关配置，GATEWAY_PROVIDER=ark 时使用。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseNonNegativeIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *val)
	}
	return *val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
