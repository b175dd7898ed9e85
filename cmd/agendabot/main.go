package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agendabot/agendabot/internal/api"
	"github.com/agendabot/agendabot/internal/botapi"
	"github.com/agendabot/agendabot/internal/conversation"
	"github.com/agendabot/agendabot/internal/flow"
	"github.com/agendabot/agendabot/internal/genai"
	"github.com/agendabot/agendabot/internal/intent"
	"github.com/agendabot/agendabot/internal/lockfile"
	"github.com/agendabot/agendabot/internal/messaging"
	"github.com/agendabot/agendabot/internal/polish"
	"github.com/agendabot/agendabot/internal/scheduler"
	"github.com/agendabot/agendabot/internal/store"
	"github.com/agendabot/agendabot/internal/tone"
	"github.com/agendabot/agendabot/internal/twiliowhatsapp"
	"github.com/agendabot/agendabot/internal/util"
	"github.com/agendabot/agendabot/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for agendabot state data
	DefaultStateDir = "/var/lib/agendabot"
	// DefaultDBFileName is the default SQLite database filename for the
	// WhatsApp session store
	DefaultDBFileName = "whatsmeow.db"
	// pruneSchedule is how often expired unknown-intent counters are dropped
	pruneSchedule = "*/10 * * * *"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	if err := run(flags); err != nil {
		slog.Error("agendabot failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("agendabot exited successfully")
}

// Config holds environment configuration
type Config struct {
	WhatsAppDSN  string
	DatabaseURL  string
	StateDir     string
	OpenAIKey    string
	BackendURL   string
	BackendToken string
	APIAddr      string
	VerifyToken  string
	Channel      string
	ToneTags     string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput     *string
	numeric      *bool
	stateDir     *string
	dbDSN        *string
	openaiKey    *string
	backendURL   *string
	backendToken *string
	apiAddr      *string
	verifyToken  *string
	channel      *string
	toneTags     *string
}

// initializeLogger sets up structured logging; AGENDABOT_DEBUG=true enables
// debug output
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("AGENDABOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		WhatsAppDSN:  os.Getenv("WHATSAPP_DB_DSN"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StateDir:     os.Getenv("AGENDABOT_STATE_DIR"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		BackendURL:   os.Getenv("BACKEND_API_URL"),
		BackendToken: os.Getenv("BACKEND_API_TOKEN"),
		APIAddr:      os.Getenv("API_ADDR"),
		VerifyToken:  os.Getenv("WEBHOOK_VERIFY_TOKEN"),
		Channel:      os.Getenv("AGENDABOT_CHANNEL"),
		ToneTags:     os.Getenv("AGENDABOT_TONE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No AGENDABOT_STATE_DIR set, using default", "stateDir", config.StateDir)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = config.DatabaseURL
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlitePath", config.WhatsAppDSN)
	}
	if config.Channel == "" {
		config.Channel = "whatsapp"
	}

	slog.Debug("environment variables loaded",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"AGENDABOT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"BACKEND_API_URL", config.BackendURL,
		"BACKEND_API_TOKEN_SET", config.BackendToken != "",
		"API_ADDR", config.APIAddr,
		"AGENDABOT_CHANNEL", config.Channel,
		"AGENDABOT_TONE", config.ToneTags)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:     flag.String("qr-output", "", "path to write login QR code"),
		numeric:      flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for agendabot data (overrides $AGENDABOT_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.WhatsAppDSN, "database DSN for the WhatsApp session store (overrides $WHATSAPP_DB_DSN or $DATABASE_URL)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		backendURL:   flag.String("backend-url", config.BackendURL, "base URL of the business backend API (overrides $BACKEND_API_URL)"),
		backendToken: flag.String("backend-token", config.BackendToken, "x-api-token for the business backend (overrides $BACKEND_API_TOKEN)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "webhook API server address (overrides $API_ADDR)"),
		verifyToken:  flag.String("verify-token", config.VerifyToken, "webhook verification token (overrides $WEBHOOK_VERIFY_TOKEN)"),
		channel:      flag.String("channel", config.Channel, "message channel: whatsapp or twilio (overrides $AGENDABOT_CHANNEL)"),
		toneTags:     flag.String("tone", config.ToneTags, "comma-separated polisher style tags (overrides $AGENDABOT_TONE)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"backendURL", *flags.backendURL,
		"apiAddr", *flags.apiAddr,
		"channel", *flags.channel)

	// Follow an overridden state directory when the DSN was derived from it.
	if *flags.dbDSN == config.WhatsAppDSN && config.WhatsAppDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "newStateDir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, 0755); err != nil {
		return err
	}
	if store.IsFileDSN(*flags.dbDSN) {
		dbDir := store.FileDir(*flags.dbDSN)
		slog.Debug("Creating directory for file-based database", "dbDir", dbDir)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// run wires the modules together and serves until interrupted.
func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flags.backendURL == "" {
		slog.Warn("No backend URL configured, backend calls will fail until --backend-url is set")
	}
	backend := botapi.NewClient(*flags.backendURL, botapi.WithToken(*flags.backendToken))

	genaiClient := buildGenAIClient(ctx, flags)
	var embedder intent.Embedder
	if genaiClient != nil {
		embedder = genaiClient
	}
	detector := intent.NewDetector(ctx, embedder)
	enhancer, err := buildEnhancer(flags, genaiClient)
	if err != nil {
		return err
	}

	registry := flow.NewRegistry(
		flow.NewAppointment(backend),
		flow.NewRegistration(backend),
		flow.NewCheckAppointments(backend),
		flow.NewFAQ(),
		flow.NewSupport(),
		flow.NewEndConversation(),
	)
	router := conversation.NewRouter(backend, registry, detector)
	manager := conversation.NewManager(backend, router, enhancer)

	msgService, err := buildMessagingService(flags)
	if err != nil {
		return err
	}
	if err := msgService.Start(ctx); err != nil {
		return err
	}
	defer msgService.Stop()

	dispatcher := messaging.NewDispatcher(msgService, manager)
	go dispatcher.Run(ctx)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(pruneSchedule, func() {
		if pruned := router.PruneUnknownEntries(); pruned > 0 {
			slog.Debug("Pruned expired unknown-intent counters", "count", pruned)
		}
	}); err != nil {
		return err
	}

	server := api.NewServer(manager, msgService, buildAPIOptions(flags)...)
	slog.Info("Bootstrapping agendabot", "channel", *flags.channel, "apiAddr", *flags.apiAddr)
	return server.Run(ctx)
}

// buildGenAIClient creates the OpenAI client and probes it once, or returns
// nil when no key is set or the service does not answer. The bot stays
// functional without it: keyword intents, unpolished text.
func buildGenAIClient(ctx context.Context, flags Flags) *genai.Client {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Warn("GenAI unavailable, continuing without it", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		slog.Warn("GenAI did not answer probe, continuing without it", "error", err)
		return nil
	}
	return client
}

// buildEnhancer assembles the outgoing-text polisher.
func buildEnhancer(flags Flags, genaiClient *genai.Client) (polish.Enhancer, error) {
	if genaiClient == nil {
		return polish.Noop{}, nil
	}
	tags, err := tone.Normalize(splitTags(*flags.toneTags))
	if err != nil {
		return nil, err
	}
	if guide := tone.BuildGuide(tags); guide != "" {
		return polish.NewGenAI(genaiClient, polish.WithStyleGuide(guide)), nil
	}
	return polish.NewGenAI(genaiClient), nil
}

// buildMessagingService selects the channel transport.
func buildMessagingService(flags Flags) (messaging.Service, error) {
	if *flags.channel == "twilio" {
		sender, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, err
		}
		return messaging.NewTwilioService(sender), nil
	}
	waClient, err := whatsapp.NewClient(buildWhatsAppOptions(flags)...)
	if err != nil {
		return nil, err
	}
	return messaging.NewWhatsAppService(waClient), nil
}

// buildWhatsAppOptions constructs WhatsApp configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.dbDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.dbDSN))
	}
	return waOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	token := *flags.verifyToken
	if token == "" {
		token = util.GenerateRandomAlphaNumeric(24)
		slog.Info("No webhook verify token configured, generated one", "verifyToken", token)
	}
	apiOpts = append(apiOpts, api.WithVerifyToken(token))
	return apiOpts
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
