package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dopamind/internal/audio"
	"github.com/verte-zerg/dopamind/internal/canvas"
	"github.com/verte-zerg/dopamind/internal/challenge"
	"github.com/verte-zerg/dopamind/internal/config"
	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/games"
	"github.com/verte-zerg/dopamind/internal/genai"
	"github.com/verte-zerg/dopamind/internal/hub"
	"github.com/verte-zerg/dopamind/internal/logging"
	"github.com/verte-zerg/dopamind/internal/model"
	"github.com/verte-zerg/dopamind/internal/play"
	"github.com/verte-zerg/dopamind/internal/sink"
	"github.com/verte-zerg/dopamind/internal/stats"
	"github.com/verte-zerg/dopamind/internal/store"
)

const (
	effectsVolume  = 0.5
	startupTimeout = 5 * time.Second
)

type settings struct {
	fps             int
	theme           string
	themeFromUser   bool
	idleAnimation   bool
	effects         bool
	ambient         *bool
	track           *string
	saveOnManualEnd bool
	persistNegative bool
	logLevel        zerolog.Level
	timeout         time.Duration
	endpoint        string
	model           string
	imageModel      string
	apiKeyEnv       string
	queueURL        string
	region          string
}

// app holds everything a command needs once flags, config and secrets are resolved.
type app struct {
	settings   settings
	log        zerolog.Logger
	logFile    io.Closer
	store      *store.Store
	catalog    *games.Catalog
	audio      audio.Player
	ai         *genai.Client
	challenges *challenge.Service
	queue      sink.SQSAPI
}

func openApp(cmd *cobra.Command, interactive bool) (*app, error) {
	if err := config.LoadEnv(config.DefaultEnvPath()); err != nil {
		return nil, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	set, err := resolveSettings(cmd, fileCfg)
	if err != nil {
		return nil, err
	}

	a := &app{settings: set}
	if interactive {
		log, f, err := logging.OpenFile(config.DefaultLogPath(), set.logLevel)
		if err != nil {
			return nil, err
		}
		a.log, a.logFile = log, f
	} else {
		a.log = logging.Console(os.Stderr, set.logLevel)
	}

	a.catalog, err = games.Load()
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.catalog.Override(fileCfg.Games); err != nil {
		a.Close()
		return nil, err
	}

	a.store, err = store.Open(config.DefaultDBPath())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	a.ai = genai.New(genai.Config{
		Endpoint:   set.endpoint,
		Model:      set.model,
		ImageModel: set.imageModel,
		APIKey:     config.LookupSecret(set.apiKeyEnv),
		Timeout:    set.timeout,
	})
	var ai challenge.AI
	if a.ai.Configured() {
		ai = a.ai
	} else {
		a.log.Debug().Str("env", set.apiKeyEnv).Msg("no api key, using local challenges")
	}
	a.challenges = challenge.NewService(a.store, ai, a.catalog, set.timeout, a.log)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if set.queueURL != "" {
		client, err := sink.NewSQSClient(ctx, set.region)
		if err != nil {
			a.log.Warn().Err(err).Msg("remote score queue disabled")
		} else {
			a.queue = client
		}
	}
	a.audio = a.openAudio(ctx, interactive)
	return a, nil
}

// openAudio prefers the speaker and degrades to a silent player.
func (a *app) openAudio(ctx context.Context, interactive bool) audio.Player {
	st, err := audio.LoadState(ctx, a.store)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to load ambient state")
	}
	if a.settings.ambient != nil {
		st.On = *a.settings.ambient
	}
	if a.settings.track != nil {
		st.Track = *a.settings.track
	}
	if !interactive {
		return audio.NewNop(st)
	}
	sp, err := audio.NewSpeaker(audio.Options{Effects: a.settings.effects, Volume: effectsVolume, State: st})
	if err != nil {
		a.log.Warn().Err(err).Msg("audio unavailable, continuing silently")
		return audio.NewNop(st)
	}
	return sp
}

func (a *app) Close() {
	if a.audio != nil {
		a.audio.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close db")
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// theme picks the flag or config theme, then the one saved by the hub, then the default.
func (a *app) theme(ctx context.Context) play.Theme {
	if a.settings.themeFromUser {
		return play.ThemeByName(a.settings.theme)
	}
	if name, ok, err := a.store.GetKV(ctx, hub.ThemeKey); err == nil && ok && play.ValidTheme(name) {
		return play.ThemeByName(name)
	}
	return play.ThemeByName(a.settings.theme)
}

func (a *app) playDeps() play.Deps {
	deps := play.Deps{
		FPS: a.settings.fps,
		Options: games.Options{
			IdleAnimation:     a.settings.idleAnimation,
			SubmitOnManualEnd: a.settings.saveOnManualEnd,
		},
		TransformTimeout: a.settings.timeout,
		Rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if a.ai.Configured() {
		deps.AI = a.ai
	}
	return deps
}

// sinkFor returns the sink crediting profileID: the local store, plus the queue when one is
// configured.
func (a *app) sinkFor(profileID string, notify func(sink.Update)) engine.Sink {
	local := sink.NewLocal(a.store, profileID, sink.LocalOptions{
		PersistNegative: a.settings.persistNegative,
		Logger:          a.log,
		Notify:          notify,
	})
	if a.queue == nil {
		return local
	}
	return sink.Fanout{local, sink.NewSQS(a.queue, a.settings.queueURL, profileID, a.settings.persistNegative, a.log)}
}

func (a *app) challengeInput(ctx context.Context, profileID string) challenge.Input {
	in := challenge.Input{ProfileID: profileID}
	if profileID == "" {
		return in
	}
	plays, err := a.store.ListPlays(ctx, model.PlayFilter{ProfileID: profileID, Last: 50})
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to load play history")
		return in
	}
	in.History = stats.HistorySummary(plays, a.catalog.Titles(), 10)
	in.Plays = stats.PlaysPerGame(plays)
	return in
}

func (a *app) savedDoodle(ctx context.Context) (*canvas.Canvas, error) {
	c, err := canvas.New(play.PaintWidth, play.PaintHeight)
	if err != nil {
		return nil, err
	}
	if err := c.Restore(ctx, a.store); err != nil {
		return nil, fmt.Errorf("failed to load doodle: %w", err)
	}
	if c.Empty() {
		return nil, fmt.Errorf("no saved doodle (draw one with: dopamind play pixel-paint)")
	}
	return c, nil
}

func resolveSettings(cmd *cobra.Command, fileCfg config.FileConfig) (settings, error) {
	applyIntConfig(cmd, "fps", &settingFPS, fileCfg.Display.FPS)
	applyStringConfig(cmd, "theme", &settingTheme, fileCfg.Display.Theme)
	applyBoolConfig(cmd, "idle-animation", &settingIdleAnimation, fileCfg.Display.IdleAnimation)
	applyBoolConfig(cmd, "effects", &settingEffects, fileCfg.Audio.Effects)
	applyBoolConfig(cmd, "save-on-manual-end", &settingSaveOnManualEnd, fileCfg.Scoring.SaveOnManualEnd)
	applyBoolConfig(cmd, "persist-negative", &settingPersistNegative, fileCfg.Scoring.PersistNegative)
	applyStringConfig(cmd, "log-level", &settingLogLevel, fileCfg.Log.Level)
	if err := applyDurationConfig(cmd, "ai-timeout", &settingTimeout, fileCfg.Challenge.Timeout); err != nil {
		return settings{}, err
	}

	set := settings{
		fps:             settingFPS,
		theme:           strings.ToLower(strings.TrimSpace(settingTheme)),
		themeFromUser:   cmd.Flags().Changed("theme") || fileCfg.Display.Theme != nil,
		idleAnimation:   settingIdleAnimation,
		effects:         settingEffects,
		ambient:         fileCfg.Audio.Ambient,
		track:           fileCfg.Audio.Track,
		saveOnManualEnd: settingSaveOnManualEnd,
		persistNegative: settingPersistNegative,
		timeout:         settingTimeout,
		endpoint:        stringOr(fileCfg.Challenge.Endpoint, genai.DefaultEndpoint),
		model:           stringOr(fileCfg.Challenge.Model, genai.DefaultModel),
		imageModel:      stringOr(fileCfg.Challenge.ImageModel, genai.DefaultImageModel),
		apiKeyEnv:       stringOr(fileCfg.Challenge.APIKeyEnv, defaultAPIKeyEnv),
		queueURL:        stringOr(fileCfg.Sink.SQSQueueURL, ""),
		region:          stringOr(fileCfg.Sink.AWSRegion, defaultAWSRegion),
	}
	level, err := logging.ParseLevel(settingLogLevel)
	if err != nil {
		return settings{}, err
	}
	set.logLevel = level
	if err := validateSettings(set); err != nil {
		return settings{}, err
	}
	return set, nil
}

func validateSettings(s settings) error {
	if s.fps < 5 || s.fps > 120 {
		return fmt.Errorf("--fps must be between 5 and 120")
	}
	if !play.ValidTheme(s.theme) {
		return fmt.Errorf("--theme must be dark or light")
	}
	if s.timeout <= 0 {
		return fmt.Errorf("--ai-timeout must be > 0")
	}
	if s.track != nil && !validTrack(*s.track) {
		return fmt.Errorf("audio.track must be one of %s", strings.Join(audio.Tracks, ", "))
	}
	return nil
}

func validTrack(name string) bool {
	for _, t := range audio.Tracks {
		if t == name {
			return true
		}
	}
	return false
}

func stringOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return strings.TrimSpace(*value)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return fmt.Errorf("challenge.timeout must be a duration like 20s")
	}
	*target = d
	return nil
}
