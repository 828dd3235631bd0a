package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/erlorenz/bc-go/pkg/bcclient"
	"github.com/erlorenz/bc-go/pkg/retry"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const defaultEnvironment = "production"

// Settings represents the CLI configuration.
type Settings struct {
	TenantID     string        `json:"tenant_id"               yaml:"tenant_id"`
	Environment  string        `json:"environment"             yaml:"environment"`
	CompanyID    string        `json:"company_id"              yaml:"company_id"`
	ClientID     string        `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string        `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	Token        string        `json:"token,omitempty"         yaml:"token,omitempty"`
	BaseURL      string        `json:"base_url,omitempty"      yaml:"base_url,omitempty"`
	APIPath      string        `json:"api_path,omitempty"      yaml:"api_path,omitempty"`
	AuthorityURL string        `json:"authority_url,omitempty" yaml:"authority_url,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"       yaml:"timeout,omitempty"`
	Retries      uint          `json:"retries"                 yaml:"retries"`
	Output       string        `json:"output"                  yaml:"output"`
	Verbose      bool          `json:"verbose"                 yaml:"verbose"`
}

// settingKeys lists the keys accepted by "config set".
var settingKeys = []string{
	"tenant_id", "environment", "company_id", "client_id", "client_secret", "token",
	"base_url", "api_path", "authority_url", "timeout", "retries", "output",
}

// AddGlobalFlags registers the persistent flags shared by every command and
// binds them to viper keys.
func AddGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()

	flags.StringP("config", "c", "", "config file (default is $HOME/.bc/config.yml)")
	flags.String("tenant", "", "Entra ID tenant id or domain")
	flags.StringP("environment", "e", "", "environment name (default production)")
	flags.String("company", "", "company id")
	flags.String("client-id", "", "application (client) id")
	flags.String("client-secret", "", "application client secret")
	flags.StringP("token", "t", "", "pre-acquired access token")
	flags.String("base-url", "", "service root override")
	flags.String("api-path", "", "API route (default api/v2.0)")
	flags.Duration("timeout", 0, "per-request timeout (default 30s)")
	flags.Uint("retries", constants.DefaultRetryMax, "maximum attempts for retryable failures, 0 means a single attempt")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")

	bindings := map[string]string{
		"config":        "config",
		"tenant_id":     "tenant",
		"environment":   "environment",
		"company_id":    "company",
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"token":         "token",
		"base_url":      "base-url",
		"api_path":      "api-path",
		"timeout":       "timeout",
		"retries":       "retries",
		"output":        "output",
		"verbose":       "verbose",
	}

	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func loadSettings() *Settings {
	settings := &Settings{
		TenantID:     viper.GetString("tenant_id"),
		Environment:  viper.GetString("environment"),
		CompanyID:    viper.GetString("company_id"),
		ClientID:     viper.GetString("client_id"),
		ClientSecret: viper.GetString("client_secret"),
		Token:        viper.GetString("token"),
		BaseURL:      viper.GetString("base_url"),
		APIPath:      viper.GetString("api_path"),
		AuthorityURL: viper.GetString("authority_url"),
		Timeout:      viper.GetDuration("timeout"),
		Retries:      viper.GetUint("retries"),
		Output:       viper.GetString("output"),
		Verbose:      viper.GetBool("verbose"),
	}

	if settings.Environment == "" {
		settings.Environment = defaultEnvironment
	}

	if settings.Output == "" {
		settings.Output = constants.FormatTable
	}

	return settings
}

func setupLogger(out io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// session is a configured client plus the retry policy wrapped around every
// call the CLI makes.
type session struct {
	client   bc.Client
	retry    retry.Config
	settings *Settings
}

func newSession(cmd *cobra.Command) (*session, error) {
	settings := loadSettings()
	logger := bc.NewZerologLogger(setupLogger(cmd.ErrOrStderr(), settings.Verbose))

	config, err := buildClientConfig(settings)
	if err != nil {
		return nil, err
	}

	config.Logger = logger
	config.Debug = settings.Verbose

	client, err := bcclient.New(cmd.Context(), config)
	if err != nil {
		return nil, err
	}

	retryConfig := retry.DefaultConfig()
	retryConfig.Refresher = bcclient.TokenRefresher(client)
	retryConfig.Logger = logger

	retryConfig.MaxTries = max(settings.Retries, 1)

	return &session{client: client, retry: retryConfig, settings: settings}, nil
}

func buildClientConfig(settings *Settings) (*bc.Config, error) {
	if settings.TenantID == "" {
		return nil, constants.ErrNoTenantConfigured
	}

	if settings.CompanyID == "" {
		return nil, constants.ErrNoCompanyConfigured
	}

	config := &bc.Config{
		TenantID:     settings.TenantID,
		Environment:  settings.Environment,
		CompanyID:    settings.CompanyID,
		BaseURL:      settings.BaseURL,
		APIPath:      settings.APIPath,
		AuthorityURL: settings.AuthorityURL,
		Timeout:      settings.Timeout,
	}

	switch {
	case settings.Token != "":
		config.AccessToken = settings.Token
	case settings.ClientID != "":
		secret := settings.ClientSecret
		if secret == "" {
			prompted, err := promptSecret()
			if err != nil {
				return nil, err
			}

			secret = prompted
		}

		config.ClientID = settings.ClientID
		config.ClientSecret = secret
	default:
		return nil, constants.ErrNoCredentials
	}

	return config, nil
}

func promptSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", constants.ErrNotATerminal
	}

	fmt.Fprint(os.Stderr, "Client secret: ")

	secret, err := term.ReadPassword(fd)

	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read client secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and edit the CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := loadSettings()
			masked := *settings
			masked.ClientSecret = mask(masked.ClientSecret)
			masked.Token = mask(masked.Token)

			return writeOutput(cmd.OutOrStdout(), settings.Output, masked, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("Tenant", masked.TenantID)
				_ = table.Append("Environment", masked.Environment)
				_ = table.Append("Company", masked.CompanyID)
				_ = table.Append("Client ID", masked.ClientID)
				_ = table.Append("Client Secret", masked.ClientSecret)
				_ = table.Append("Token", masked.Token)
				_ = table.Append("Base URL", masked.BaseURL)
				_ = table.Append("API Path", masked.APIPath)
				_ = table.Append("Retries", fmt.Sprint(masked.Retries))
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Persist a configuration value to the config file. Keys: " + strings.Join(settingKeys, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if !isSettingKey(key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			file, err := configFilePath()
			if err != nil {
				return err
			}

			if err := setConfigValue(file, key, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, file)

			return nil
		},
	}
}

func isSettingKey(key string) bool {
	for _, candidate := range settingKeys {
		if candidate == key {
			return true
		}
	}

	return false
}

func configFilePath() (string, error) {
	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".bc", "config.yml"), nil
}

// setConfigValue updates one key in the YAML file at path, keeping the rest.
func setConfigValue(path, key, value string) error {
	values := map[string]interface{}{}

	// #nosec G304 -- path is the CLI's own config file
	data, err := os.ReadFile(path)

	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if values == nil {
		values = map[string]interface{}{}
	}

	values[key] = value

	out, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, out, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return Masked
}
