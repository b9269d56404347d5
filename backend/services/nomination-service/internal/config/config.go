package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
)

// Config holds all application configuration, including secrets, flags, etc.
type Config struct {
	OrganizationName       string
	AppName                string
	Env                    string
	AppPort                string
	AppUrl                 string
	DBUrl                  string
	SendGridAPIKey         string
	VerificationCodeLength int
	VerificationCodeExpiry time.Duration
	UsedCodeGracePeriod    time.Duration
	NotificationTimeout    time.Duration
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxAttempts      int
	OutboxBaseBackoff      time.Duration
	OutboxStuckAfter       time.Duration

	// Static flags fetched once from LaunchDarkly
	LDFlag_SendgridFromEmail         string
	LDFlag_SendgridSandboxMode       bool
	LDFlag_ValidateEmailWithSendGrid bool
	LDFlag_ShortCodeTTL              bool
	LDFlag_CORSHighSecurity          bool
	LDFlag_SeedDbWithTestData        bool
}

// Constants for time-based configuration defaults.
const (
	OrganizationName                = utils.OrganizationName
	DefaultAppName                  = "nomination-service"
	DefaultAppPort                  = "8080"
	VerificationCodeLength          = 6
	DefaultVerificationCodeExpiry   = 10 * time.Minute
	TestShortVerificationCodeExpiry = 3 * time.Second
	DefaultUsedCodeGracePeriod      = 15 * time.Minute
	DefaultNotificationTimeout      = 10 * time.Second
	DefaultOutboxPollInterval       = 10 * time.Second
	DefaultOutboxBatchSize          = 10
	DefaultOutboxMaxAttempts        = 5
	DefaultOutboxBaseBackoff        = time.Minute
	DefaultOutboxStuckAfter         = 5 * time.Minute
	DefaultSendgridFromEmail        = "no-reply@faprna.org"
	LDConnectionTimeout             = 5 * time.Second
)

// Global compile-time overrides.
var (
	AppName             string
	LDServerContextKey  string
	LDServerContextKind string
)

// ldFlags is the static flag snapshot taken at startup.
type ldFlags struct {
	SendgridFromEmail         string
	SendgridSandboxMode       bool
	ValidateEmailWithSendGrid bool
	ShortCodeTTL              bool
	CORSHighSecurity          bool
	SeedDbWithTestData        bool
}

func defaultFlags() ldFlags {
	return ldFlags{SendgridFromEmail: DefaultSendgridFromEmail}
}

// LoadConfig reads .env and the environment, pulls secrets from Bitwarden
// when BWS_ACCESS_TOKEN is set, snapshots LaunchDarkly flags and returns a
// *Config. Missing required values are fatal.
func LoadConfig() *Config {
	//----------------------------------------------------------------------
	// ldflags fall back to local-run defaults.
	//----------------------------------------------------------------------
	if AppName == "" {
		AppName = DefaultAppName
	}
	if LDServerContextKind == "" {
		LDServerContextKind = "service"
	}
	if LDServerContextKey == "" {
		LDServerContextKey = AppName
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	//----------------------------------------------------------------------
	// Load .env (local dev only). Real env vars win.
	//----------------------------------------------------------------------
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		utils.Logger.WithError(err).Warn("Failed to parse .env file")
	}

	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		appPort = DefaultAppPort
	}

	utils.Logger.Debugf("App can be accessed at: %s", appUrl)

	//----------------------------------------------------------------------
	// Secrets: Bitwarden project <AppName>-<ENV>, else plain env vars.
	//----------------------------------------------------------------------
	secrets := map[string]string{
		"DB_URL":           os.Getenv("DB_URL"),
		"SENDGRID_API_KEY": os.Getenv("SENDGRID_API_KEY"),
		"LD_SDK_KEY":       os.Getenv("LD_SDK_KEY"),
	}
	if os.Getenv("BWS_ACCESS_TOKEN") != "" {
		projectName := fmt.Sprintf("%s-%s", AppName, env)
		keys := make([]string, 0, len(secrets))
		for k := range secrets {
			keys = append(keys, k)
		}
		fetched, err := utils.FetchBWSSecrets(projectName, keys...)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to fetch app-specific secrets from Bitwarden")
		}
		for k, v := range fetched {
			if v != "" {
				secrets[k] = v
			}
		}
	}

	dbUrl := secrets["DB_URL"]
	if dbUrl == "" {
		utils.Logger.Fatal("DB_URL not found in secrets or environment")
	}
	sendGridAPIKey := secrets["SENDGRID_API_KEY"]
	if sendGridAPIKey == "" {
		utils.Logger.Fatal("SENDGRID_API_KEY not found in secrets or environment")
	}

	flags := loadFlags(secrets["LD_SDK_KEY"])

	verificationCodeExpiry := DefaultVerificationCodeExpiry
	if flags.ShortCodeTTL {
		verificationCodeExpiry = TestShortVerificationCodeExpiry
	}

	//----------------------------------------------------------------------
	// Build and return the configuration object.
	//----------------------------------------------------------------------
	return &Config{
		OrganizationName:                 OrganizationName,
		AppName:                          AppName,
		Env:                              env,
		AppPort:                          appPort,
		AppUrl:                           appUrl,
		DBUrl:                            dbUrl,
		SendGridAPIKey:                   sendGridAPIKey,
		VerificationCodeLength:           VerificationCodeLength,
		VerificationCodeExpiry:           verificationCodeExpiry,
		UsedCodeGracePeriod:              DefaultUsedCodeGracePeriod,
		NotificationTimeout:              DefaultNotificationTimeout,
		OutboxPollInterval:               DefaultOutboxPollInterval,
		OutboxBatchSize:                  DefaultOutboxBatchSize,
		OutboxMaxAttempts:                DefaultOutboxMaxAttempts,
		OutboxBaseBackoff:                DefaultOutboxBaseBackoff,
		OutboxStuckAfter:                 DefaultOutboxStuckAfter,
		LDFlag_SendgridFromEmail:         flags.SendgridFromEmail,
		LDFlag_SendgridSandboxMode:       flags.SendgridSandboxMode,
		LDFlag_ValidateEmailWithSendGrid: flags.ValidateEmailWithSendGrid,
		LDFlag_ShortCodeTTL:              flags.ShortCodeTTL,
		LDFlag_CORSHighSecurity:          flags.CORSHighSecurity,
		LDFlag_SeedDbWithTestData:        flags.SeedDbWithTestData,
	}
}

// loadFlags fetches the static flags once. Without an SDK key the defaults
// are used so the service can run locally.
func loadFlags(sdkKey string) ldFlags {
	flags := defaultFlags()
	if sdkKey == "" {
		utils.Logger.Warn("LD_SDK_KEY is empty; using default feature flags")
		return flags
	}

	//----------------------------------------------------------------------
	// Initialize the LaunchDarkly client with the LD_SDK_KEY.
	//----------------------------------------------------------------------
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}

	context := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	fromEmail, err := ldClient.StringVariation("sendgrid_from_email", context, DefaultSendgridFromEmail)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_from_email flag")
	}
	if fromEmail == "" {
		utils.Logger.Fatal("sendgrid_from_email flag is empty")
	}
	flags.SendgridFromEmail = fromEmail

	boolFlags := []struct {
		key string
		dst *bool
	}{
		{"sendgrid_sandbox_mode", &flags.SendgridSandboxMode},
		{"validate_email_with_sendgrid", &flags.ValidateEmailWithSendGrid},
		{"short_code_ttl", &flags.ShortCodeTTL},
		{"cors_high_security", &flags.CORSHighSecurity},
		{"seed_db_with_test_data", &flags.SeedDbWithTestData},
	}
	for _, f := range boolFlags {
		v, err := ldClient.BoolVariation(f.key, context, false)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", f.key)
		}
		*f.dst = v
		utils.Logger.Debugf("%s flag: %t", f.key, v)
	}
	return flags
}
