package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/auxroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	pollInterval = configVar[int]{
		envKey:       "SERVER_POLL_INTERVAL_MS",
		flagKey:      "poll-interval-ms",
		defaultValue: 1000,
	}
	reconcileInterval = configVar[int]{
		envKey:       "SERVER_RECONCILE_INTERVAL_MS",
		flagKey:      "reconcile-interval-ms",
		defaultValue: 3000,
	}
	seekTolerance = configVar[int]{
		envKey:       "SERVER_SEEK_TOLERANCE_MS",
		flagKey:      "seek-tolerance-ms",
		defaultValue: 2000,
	}
	errorThreshold = configVar[int]{
		envKey:       "SERVER_ERROR_THRESHOLD",
		flagKey:      "error-threshold",
		defaultValue: 5,
	}
	playbackTTL = configVar[int]{
		envKey:       "SERVER_PLAYBACK_TTL_SEC",
		flagKey:      "playback-ttl-sec",
		defaultValue: 30,
	}
	sendTimeout = configVar[int]{
		envKey:       "SERVER_SEND_TIMEOUT_MS",
		flagKey:      "send-timeout-ms",
		defaultValue: 5000,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	spotifyApiUrl = configVar[string]{
		envKey:       "SPOTIFY_API_URL",
		flagKey:      "spotify-api-url",
		defaultValue: "https://api.spotify.com",
	}
	spotifyAccountsUrl = configVar[string]{
		envKey:       "SPOTIFY_ACCOUNTS_URL",
		flagKey:      "spotify-accounts-url",
		defaultValue: "https://accounts.spotify.com",
	}
	spotifyClientId = configVar[string]{
		envKey:       "SPOTIFY_CLIENT_ID",
		flagKey:      "spotify-client-id",
		defaultValue: "",
	}
	spotifyClientSecret = configVar[string]{
		envKey:       "SPOTIFY_CLIENT_SECRET",
		flagKey:      "spotify-client-secret",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(pollInterval.flagKey, pollInterval.defaultValue, "Upstream poll interval per room, ms")
	pflag.Int(reconcileInterval.flagKey, reconcileInterval.defaultValue, "Active-room reconciliation interval, ms")
	pflag.Int(seekTolerance.flagKey, seekTolerance.defaultValue, "Position drift tolerance before a change is published, ms")
	pflag.Int(errorThreshold.flagKey, errorThreshold.defaultValue, "Consecutive upstream errors before a room is deactivated")
	pflag.Int(playbackTTL.flagKey, playbackTTL.defaultValue, "Stored playback state expiry, seconds")
	pflag.Int(sendTimeout.flagKey, sendTimeout.defaultValue, "Per-connection send timeout, ms")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.String(spotifyApiUrl.flagKey, spotifyApiUrl.defaultValue, "Spotify API base url")
	pflag.String(spotifyAccountsUrl.flagKey, spotifyAccountsUrl.defaultValue, "Spotify accounts base url")
	pflag.String(spotifyClientId.flagKey, spotifyClientId.defaultValue, "Spotify client id")
	pflag.String(spotifyClientSecret.flagKey, spotifyClientSecret.defaultValue, "Spotify client secret")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(pollInterval.flagKey, pollInterval.envKey)
	viper.BindEnv(reconcileInterval.flagKey, reconcileInterval.envKey)
	viper.BindEnv(seekTolerance.flagKey, seekTolerance.envKey)
	viper.BindEnv(errorThreshold.flagKey, errorThreshold.envKey)
	viper.BindEnv(playbackTTL.flagKey, playbackTTL.envKey)
	viper.BindEnv(sendTimeout.flagKey, sendTimeout.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(spotifyApiUrl.flagKey, spotifyApiUrl.envKey)
	viper.BindEnv(spotifyAccountsUrl.flagKey, spotifyAccountsUrl.envKey)
	viper.BindEnv(spotifyClientId.flagKey, spotifyClientId.envKey)
	viper.BindEnv(spotifyClientSecret.flagKey, spotifyClientSecret.envKey)

	return &app.AppConfig{
		Host:                viper.GetString(host.flagKey),
		Port:                viper.GetInt(port.flagKey),
		LogLevel:            viper.GetString(logLevel.flagKey),
		PollIntervalMs:      viper.GetInt(pollInterval.flagKey),
		ReconcileIntervalMs: viper.GetInt(reconcileInterval.flagKey),
		SeekToleranceMs:     viper.GetInt(seekTolerance.flagKey),
		ErrorThreshold:      viper.GetInt(errorThreshold.flagKey),
		PlaybackTTLSec:      viper.GetInt(playbackTTL.flagKey),
		SendTimeoutMs:       viper.GetInt(sendTimeout.flagKey),
		RedisHost:           viper.GetString(redisHost.flagKey),
		RedisPort:           viper.GetInt(redisPort.flagKey),
		RedisPassword:       viper.GetString(redisPassword.flagKey),
		SpotifyApiUrl:       viper.GetString(spotifyApiUrl.flagKey),
		SpotifyAccountsUrl:  viper.GetString(spotifyAccountsUrl.flagKey),
		SpotifyClientId:     viper.GetString(spotifyClientId.flagKey),
		SpotifyClientSecret: viper.GetString(spotifyClientSecret.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
