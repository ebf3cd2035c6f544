package main

import (
	"fmt"
	"os"
	"time"

	"github.com/DavidGamba/go-getoptions"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bazario/marketplace-api/api"
	"github.com/bazario/marketplace-api/common"
	"github.com/bazario/marketplace-api/db"
	"github.com/bazario/marketplace-api/messaging"
	"github.com/bazario/marketplace-api/notify"
	"github.com/bazario/marketplace-api/push"
	"github.com/bazario/marketplace-api/realtime"
)

// commandLineOptionValues represents the values of the command-line options that were passed on the command line when
// this service was invoked.
type commandLineOptionValues struct {
	Config string
}

func parseCommandLine() *commandLineOptionValues {
	optionValues := &commandLineOptionValues{}
	opt := getoptions.New()

	// Default option values.
	defaultConfigPath := "/etc/marketplace/marketplace.yml"

	// Define the command-line options.
	opt.Bool("help", false, opt.Alias("h", "?"))
	opt.StringVar(&optionValues.Config, "config", defaultConfigPath,
		opt.Alias("c"),
		opt.Description("the path to the configuration file"))

	// Parse the command line, handling requests for help and usage errors.
	_, err := opt.Parse(os.Args[1:])
	if opt.Called("help") {
		fmt.Fprintf(os.Stderr, opt.Help())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		fmt.Fprintf(os.Stderr, opt.Help(getoptions.HelpSynopsis))
		os.Exit(1)
	}

	return optionValues
}

// initConfig reads in the configuration file, applying defaults and environment
// variable overrides.
func initConfig(configPath string) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigFile(configPath)
	cfg.SetEnvPrefix("marketplace")
	cfg.AutomaticEnv()

	// Default configuration values.
	cfg.SetDefault("http.listen", ":8080")
	cfg.SetDefault("db.driver", "postgres")
	cfg.SetDefault("amqp.exchange.name", "marketplace")
	cfg.SetDefault("amqp.exchange.type", "topic")
	cfg.SetDefault("auth.reset_base_url", "http://localhost:5173")
	cfg.SetDefault("auth.reset_rate_window", 2*time.Minute)
	cfg.SetDefault("push.timeout", 10*time.Second)

	if err := cfg.ReadInConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	// Parse the command-line.
	optionValues := parseCommandLine()

	// Initialize logging.
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("service", "marketplace-api")

	// Read in the configuration file.
	cfg, err := initConfig(optionValues.Config)
	if err != nil {
		log.Fatal(err)
	}

	// Establish the database connection.
	database, err := db.InitDatabase(cfg.GetString("db.driver"), cfg.GetString("db.uri"))
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()
	store := db.NewStore(database)

	// Connect to the AMQP broker if one is configured. Without a broker, realtime
	// delivery is skipped and password reset emails can't be sent.
	var messagingClient *messaging.Client
	if amqpURI := cfg.GetString("amqp.uri"); amqpURI != "" {
		amqpSettings := &common.AMQPSettings{
			URI:          amqpURI,
			ExchangeName: cfg.GetString("amqp.exchange.name"),
			ExchangeType: cfg.GetString("amqp.exchange.type"),
		}
		messagingClient, err = messaging.NewClient(amqpSettings)
		if err != nil {
			log.Fatal(err)
		}
		defer messagingClient.Close()
	} else {
		log.Warn("no AMQP broker configured; realtime delivery and email requests are disabled")
	}

	// Create the push notifier if a gateway key is configured.
	var pushNotifier *push.Notifier
	if serverKey := cfg.GetString("push.server_key"); serverKey != "" {
		pushNotifier, err = push.NewNotifier(serverKey, cfg.GetDuration("push.timeout"))
		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Warn("no push gateway key configured; push delivery is disabled")
		pushNotifier = push.NewNotifierWithSender(nil)
	}

	// Create the realtime publisher and the notification orchestrator.
	realtimePublisher := realtime.NewPublisher(nil)
	var mailer api.Mailer
	if messagingClient != nil {
		realtimePublisher = realtime.NewPublisher(messagingClient)
		mailer = messagingClient
	}
	notifier := notify.New(store, pushNotifier, realtimePublisher, log)

	// Create and run the HTTP API server.
	settings := &api.Settings{
		ListenAddr:      cfg.GetString("http.listen"),
		JWTSecret:       cfg.GetString("auth.jwt_secret"),
		ResetBaseURL:    cfg.GetString("auth.reset_base_url"),
		ResetRateWindow: cfg.GetDuration("auth.reset_rate_window"),
	}
	server := api.NewServer(settings, store, notifier, mailer, log)
	log.Infof("listening on %s", settings.ListenAddr)
	if err := server.Run(); err != nil {
		log.Fatal(err)
	}
}
