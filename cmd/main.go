package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"portfolio-dashboard-bot/config"
	"portfolio-dashboard-bot/internal/alert"
	"portfolio-dashboard-bot/internal/commands"
	"portfolio-dashboard-bot/internal/database"
	"portfolio-dashboard-bot/internal/news"
	"portfolio-dashboard-bot/internal/notify"
	"portfolio-dashboard-bot/internal/price"
	"portfolio-dashboard-bot/internal/session"
	"portfolio-dashboard-bot/internal/telegram"
	"portfolio-dashboard-bot/internal/types"
	"portfolio-dashboard-bot/internal/valuation"
	"portfolio-dashboard-bot/internal/watchlist"
	"portfolio-dashboard-bot/lib/translation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

type BotMetrics struct {
	CommandsProcessed  prometheus.Counter
	MessagesHandled    prometheus.Counter
	AlertsTriggered    prometheus.Counter
	ProviderFailures   prometheus.Counter
	ActiveSessions     prometheus.GaugeFunc
	ChannelsCount      prometheus.Gauge
	ChannelNames       *prometheus.CounterVec
	ChannelsSet        map[int64]string
	MessagesPerChannel *prometheus.CounterVec
	Mutex              sync.Mutex
}

var (
	metrics  *BotMetrics
	sessions = session.NewStore()
)

func init() {
	config.InitConfig()
	setupLogging()
	metrics = NewBotMetrics(sessions)
}

func NewBotMetrics(store *session.Store) *BotMetrics {
	metrics := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "telegram_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "telegram_bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "alerts",
			Name:      "triggered",
			Help:      "The total number of price alerts that fired",
		}),
		ProviderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "market_data",
			Name:      "failures",
			Help:      "The total number of failed market data requests",
		}),
		ActiveSessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "portfolio",
			Subsystem: "telegram_bot",
			Name:      "active_sessions",
			Help:      "The number of in-memory user sessions",
		}, func() float64 { return float64(store.Len()) }),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portfolio",
			Subsystem: "telegram_bot",
			Name:      "channels_count",
			Help:      "The current number of unique chats the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio",
				Subsystem: "telegram_bot",
				Name:      "channel_names",
				Help:      "Tracks chats the bot has interacted with",
			},
			[]string{"chat_id", "chat_name"},
		),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio",
				Subsystem: "telegram_bot",
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per chat",
			},
			[]string{"chat_id", "chat_name"},
		),
		ChannelsSet: make(map[int64]string),
	}

	prometheus.MustRegister(metrics.CommandsProcessed)
	prometheus.MustRegister(metrics.MessagesHandled)
	prometheus.MustRegister(metrics.AlertsTriggered)
	prometheus.MustRegister(metrics.ProviderFailures)
	prometheus.MustRegister(metrics.ActiveSessions)
	prometheus.MustRegister(metrics.ChannelsCount)
	prometheus.MustRegister(metrics.ChannelNames)
	prometheus.MustRegister(metrics.MessagesPerChannel)

	return metrics
}

func main() {
	translation.Configure("locales", config.GetString("lang"))

	err := database.InitDB(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	LoadMetricsFromDB()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := price.NewYahoo(price.YahooConfig{
		RequestsPerSec: config.GetFloat("quote_rps"),
		OnFailure: func(ticker string, err error) {
			metrics.ProviderFailures.Inc()
		},
	})

	evaluatorOpts := []alert.EvaluatorOption{
		alert.WithTriggerHook(func(sa types.SentAlert) {
			metrics.AlertsTriggered.Inc()
			log.Infof("alert fired: %s %s %s at %s", sa.Ticker, sa.Direction, sa.TargetPrice, sa.PriceAtTrigger)
		}),
	}
	if config.EmailEnabled() {
		evaluatorOpts = append(evaluatorOpts, alert.WithNotifier(notify.NewEmail(notify.EmailConfig{
			Host:     config.GetString("smtp_host"),
			Port:     config.GetInt("smtp_port"),
			Username: config.GetString("email_user"),
			Password: config.GetString("email_pass"),
		})))
	} else {
		log.Warn("EMAIL_USER/EMAIL_PASS not set, alerts are only shown in chat")
	}
	evaluator := alert.NewEvaluator(provider, evaluatorOpts...)

	dashboard := commands.NewDashboard(commands.Config{
		Provider:     provider,
		Sessions:     sessions,
		Engine:       valuation.NewEngine(provider),
		Evaluator:    evaluator,
		Watchlist:    watchlist.NewCalculator(provider, time.Now),
		News:         news.NewSummarizer(news.NewClient(config.GetString("news_api_key")), news.NewVader(), config.NewsEnabled()),
		EmailEnabled: config.EmailEnabled(),
	})

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, dashboard)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	alert.NewService(evaluator, sessions.Targets, bot.NotifyFired, config.GetDuration("alert_interval")).Start(ctx)

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	go handleUpdates(ctx, bot, updates)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			SaveMetricsToDB()
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
		SaveMetricsToDB()
		database.CloseDB()
		log.Info("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting portfolio dashboard bot...")
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil {
			log.Debug("Received non-message update")
			continue
		}

		if !update.Message.IsCommand() && (len(update.Message.Text) == 0 || update.Message.Text[0] != '$') {
			continue
		}

		metrics.MessagesHandled.Inc()

		chatID := update.Message.Chat.ID
		chatName := update.Message.Chat.Title
		if chatName == "" {
			chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
		}

		updateChannelsSet(chatID, chatName)

		metrics.MessagesPerChannel.WithLabelValues(
			fmt.Sprintf("%d", chatID), chatName,
		).Inc()

		handleCommand(ctx, bot, update)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	reply := bot.HandleUpdate(ctx, update)
	err := bot.SendReply(update.Message.Chat.ID, update.Message.MessageID, reply)

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
	}
}

func updateChannelsSet(chatID int64, chatName string) {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	if _, exists := metrics.ChannelsSet[chatID]; !exists {
		metrics.ChannelsSet[chatID] = chatName
		metrics.ChannelsCount.Set(float64(len(metrics.ChannelsSet)))

		metrics.ChannelNames.WithLabelValues(fmt.Sprintf("%d", chatID), chatName).Inc()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func LoadMetricsFromDB() {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	// Load non-labeled metrics
	commandsProcessed, _ := database.GetMetric("commands_processed")
	messagesHandled, _ := database.GetMetric("messages_handled")
	alertsTriggered, _ := database.GetMetric("alerts_triggered")
	providerFailures, _ := database.GetMetric("provider_failures")
	channelsCount, _ := database.GetMetric("channels_count")

	metrics.CommandsProcessed.Add(commandsProcessed)
	metrics.MessagesHandled.Add(messagesHandled)
	metrics.AlertsTriggered.Add(alertsTriggered)
	metrics.ProviderFailures.Add(providerFailures)
	metrics.ChannelsCount.Set(channelsCount)

	// Load labeled metrics
	loadLabeledMetrics("channel_names", func(chatIDStr, chatName string, _ float64) {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Warnf("Failed to parse chatID %s: %v", chatIDStr, err)
			return
		}
		metrics.ChannelNames.WithLabelValues(chatIDStr, chatName).Add(1)
		metrics.ChannelsSet[chatID] = chatName
	})

	loadLabeledMetrics("messages_per_channel", func(chatID, chatName string, value float64) {
		metrics.MessagesPerChannel.WithLabelValues(chatID, chatName).Add(value)
	})

	log.Info("Metrics loaded from database.")
}

func loadLabeledMetrics(metricName string, callback func(labelKey, labelValue string, value float64)) {
	metricsWithLabels, err := database.GetMetricsWithLabels(metricName)
	if err != nil {
		log.Warnf("Failed to load %s: %v", metricName, err)
		return
	}
	for labelKey, labelValues := range metricsWithLabels {
		for labelValue, value := range labelValues {
			callback(labelKey, labelValue, value)
		}
	}
}

func SaveMetricsToDB() {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	// Save non-labeled metrics
	saveMetric("commands_processed", GetMetricValue(metrics.CommandsProcessed))
	saveMetric("messages_handled", GetMetricValue(metrics.MessagesHandled))
	saveMetric("alerts_triggered", GetMetricValue(metrics.AlertsTriggered))
	saveMetric("provider_failures", GetMetricValue(metrics.ProviderFailures))
	saveMetric("channels_count", float64(len(metrics.ChannelsSet)))

	// Save labeled metrics: channel_names
	for chatID, chatName := range metrics.ChannelsSet {
		if err := database.SaveMetricWithLabels("channel_names", fmt.Sprintf("%d", chatID), chatName, float64(chatID)); err != nil {
			log.Warn(err)
		}
	}

	// Save labeled metrics: messages_per_channel
	metricChan := make(chan prometheus.Metric, 1)
	go func() {
		metrics.MessagesPerChannel.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Warnf("Failed to read MessagesPerChannel metric: %v", err)
			continue
		}
		var chatID, chatName string
		for _, label := range metricProto.Label {
			if label.GetName() == "chat_id" {
				chatID = label.GetValue()
			}
			if label.GetName() == "chat_name" {
				chatName = label.GetValue()
			}
		}
		if err := database.SaveMetricWithLabels("messages_per_channel", chatID, chatName, metricProto.Counter.GetValue()); err != nil {
			log.Warn(err)
		}
	}

	log.Debug("Metrics saved to database.")
}

func saveMetric(name string, value float64) {
	if err := database.SaveMetric(name, value); err != nil {
		log.Warn(err)
	}
}

func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Warnf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
