// Package main provides the CLI entrypoint for dopamind.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dopamind/internal/canvas"
	"github.com/verte-zerg/dopamind/internal/config"
	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/genai"
	"github.com/verte-zerg/dopamind/internal/hub"
	"github.com/verte-zerg/dopamind/internal/model"
	"github.com/verte-zerg/dopamind/internal/play"
	"github.com/verte-zerg/dopamind/internal/sink"
	"github.com/verte-zerg/dopamind/internal/stats"
)

const (
	defaultFPS         = 30
	defaultTheme       = "dark"
	defaultLogLevel    = "info"
	defaultAPIKeyEnv   = "GEMINI_API_KEY"
	defaultAWSRegion   = "us-east-1"
	defaultExportScale = 8
	defaultHistory     = 20
	closeTimeout       = 5 * time.Second
)

var (
	settingFPS             int
	settingTheme           string
	settingIdleAnimation   bool
	settingEffects         bool
	settingSaveOnManualEnd bool
	settingPersistNegative bool
	settingLogLevel        string
	settingTimeout         time.Duration

	statsGame  string
	statsSince string
	statsLast  int

	loginName  string
	loginEmail string

	challengeRefresh bool

	paintOut   string
	paintScale int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dopamind",
		Short:         "Terminal microgame hub",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runHubCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&settingFPS, "fps", defaultFPS, "frames per second (5-120)")
	flags.StringVar(&settingTheme, "theme", defaultTheme, "colour theme: dark or light")
	flags.BoolVar(&settingIdleAnimation, "idle-animation", true, "animate bubbles before a game starts")
	flags.BoolVar(&settingEffects, "effects", true, "play sound effects")
	flags.BoolVar(&settingSaveOnManualEnd, "save-on-manual-end", true, "save scores of games ended early")
	flags.BoolVar(&settingPersistNegative, "persist-negative", false, "save negative score deltas")
	flags.StringVar(&settingLogLevel, "log-level", defaultLogLevel, "log level: debug, info, warn, error, off")
	flags.DurationVar(&settingTimeout, "ai-timeout", genai.DefaultTimeout, "timeout for AI requests")

	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newGamesCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newChallengeCmd())
	rootCmd.AddCommand(newPaintCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runHubCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	profile, _, err := hub.Active(ctx, a.store)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to read active profile")
	}

	var program *tea.Program
	notify := func(u sink.Update) {
		if program != nil {
			program.Send(hub.ResultMsg{Update: u})
		}
	}
	h := hub.New(hub.Deps{
		Store:      a.store,
		Catalog:    a.catalog,
		Challenges: a.challenges,
		Audio:      a.audio,
		Log:        a.log,
		Theme:      a.theme(ctx),
		Play:       a.playDeps(),
		SinkFor: func(profileID string) engine.Sink {
			return a.sinkFor(profileID, notify)
		},
		Profile: profile,
	})
	program = tea.NewProgram(h, tea.WithAltScreen(), tea.WithMouseAllMotion())
	a.log.Info().Str("profile", profile.ID).Msg("hub started")
	_, runErr := program.Run()

	closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()
	if err := h.Close(closeCtx); err != nil {
		a.log.Warn().Err(err).Msg("pending results were not saved")
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <game-id>",
		Short: "Play a single game",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlayCmd,
	}
}

func runPlayCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	g, ok := a.catalog.Find(args[0])
	if !ok {
		return fmt.Errorf("unknown game %q (see: dopamind games)", args[0])
	}
	ctx := context.Background()
	profile, _, err := hub.Active(ctx, a.store)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to read active profile")
	}

	s := a.sinkFor(profile.ID, func(u sink.Update) {
		if u.Err == nil && u.Profile.ID != "" {
			a.log.Info().Str("game", u.Result.GameID).Int("score", u.Profile.Score).Msg("result saved")
		}
	})
	deps := a.playDeps()
	deps.Theme = a.theme(ctx)
	deps.Audio = a.audio
	deps.Log = a.log
	deps.Sink = s
	deps.KV = a.store
	deps.Standalone = true
	screen, err := play.New(g, deps)
	if err != nil {
		return fmt.Errorf("failed to open game: %w", err)
	}

	program := tea.NewProgram(screen, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, runErr := program.Run()
	screen.Close()
	if c, ok := s.(sink.Closer); ok {
		closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			a.log.Warn().Err(err).Msg("pending results were not saved")
		}
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

func newGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List available games",
		Args:  cobra.NoArgs,
		RunE:  runGamesCmd,
	}
}

func runGamesCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	for _, g := range a.catalog.All() {
		if _, err := fmt.Fprintf(out, "%-16s %-16s %s\n", g.ID, g.Title, g.Description); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the active profile",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}

	login := &cobra.Command{
		Use:   "login",
		Short: "Log in with a display name and email",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
	login.Flags().StringVar(&loginName, "name", "", "display name")
	login.Flags().StringVar(&loginEmail, "email", "", "email address")
	_ = login.MarkFlagRequired("name")
	_ = login.MarkFlagRequired("email")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Log out and play as guest",
		Args:  cobra.NoArgs,
		RunE:  runLogoutCmd,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles on this machine",
		Args:  cobra.NoArgs,
		RunE:  runProfileListCmd,
	}

	cmd.AddCommand(login, logout, list)
	return cmd
}

func runProfileCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	p, ok, err := hub.Active(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to read active profile: %w", err)
	}
	out := cmd.OutOrStdout()
	if !ok {
		_, err := fmt.Fprintln(out, "Not logged in. Run: dopamind profile login --name <name> --email <email>")
		return err
	}
	plays, err := a.store.ListPlays(ctx, model.PlayFilter{ProfileID: p.ID})
	if err != nil {
		return fmt.Errorf("failed to load plays: %w", err)
	}
	if _, err := fmt.Fprintf(out, "Email: %s\n", p.Email); err != nil {
		return err
	}
	return stats.RenderSummary(out, p, plays, time.Now())
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := hub.Login(context.Background(), a.store, loginName, loginEmail)
	if err != nil {
		return err
	}
	a.log.Info().Str("profile", p.ID).Msg("logged in")
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (score %d, xp %d)\n", p.DisplayName, p.Score, p.XP)
	return err
}

func runLogoutCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := hub.Logout(context.Background(), a.store); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return err
}

func runProfileListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	profiles, err := a.store.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	active, _, err := hub.Active(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to read active profile: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(out, "No profiles yet.")
		return err
	}
	for _, p := range profiles {
		marker := " "
		if p.ID == active.ID {
			marker = "*"
		}
		if _, err := fmt.Fprintf(out, "%s %-20s %-28s score %d  xp %d\n", marker, p.DisplayName, p.Email, p.Score, p.XP); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show play statistics for the active profile",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsGame, "game", "", "game id filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N plays")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if statsGame != "" {
		if _, ok := a.catalog.Find(statsGame); !ok {
			return fmt.Errorf("unknown game %q (see: dopamind games)", statsGame)
		}
	}
	ctx := context.Background()
	p, ok, err := hub.Active(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to read active profile: %w", err)
	}
	if !ok {
		return fmt.Errorf("not logged in (run: dopamind profile login)")
	}
	report, err := stats.BuildReport(ctx, a.store, model.PlayFilter{
		ProfileID: p.ID,
		GameID:    statsGame,
		Since:     sinceTime,
		Last:      statsLast,
	})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	out := cmd.OutOrStdout()
	titles := a.catalog.Titles()
	if err := stats.RenderSummary(out, report.Profile, report.Plays, time.Now()); err != nil {
		return err
	}
	if err := stats.RenderGameTable(out, report.Games, titles); err != nil {
		return err
	}
	if err := stats.RenderHistory(out, report.Plays, titles, defaultHistory); err != nil {
		return err
	}
	return stats.RenderScoreChart(out, "Scores", stats.Scores(report.Plays), 0, 0, false)
}

func newChallengeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Show today's challenge",
		Args:  cobra.NoArgs,
		RunE:  runChallengeCmd,
	}
	cmd.Flags().BoolVar(&challengeRefresh, "refresh", false, "ask for a new challenge")
	return cmd
}

func runChallengeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	p, _, err := hub.Active(ctx, a.store)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to read active profile")
	}
	in := a.challengeInput(ctx, p.ID)
	var ch model.Challenge
	if challengeRefresh {
		ch = a.challenges.Refresh(ctx, in)
	} else {
		ch = a.challenges.Today(ctx, in)
	}
	lines := []string{ch.Text}
	if ch.SuggestedGame != "" {
		lines = append(lines, "Suggested game: "+ch.SuggestedGame)
	}
	lines = append(lines, fmt.Sprintf("Source: %s  Date: %s", ch.Source, ch.Date))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
	return err
}

func newPaintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paint",
		Short: "Work with the saved Pixel Paint doodle",
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the saved doodle as a PNG",
		Args:  cobra.NoArgs,
		RunE:  runPaintExportCmd,
	}
	export.Flags().StringVar(&paintOut, "out", "doodle.png", "output file")
	export.Flags().IntVar(&paintScale, "scale", defaultExportScale, "pixels per cell (1-64)")

	transform := &cobra.Command{
		Use:   "transform",
		Short: "Turn the saved doodle into pixel art with the AI service",
		Args:  cobra.NoArgs,
		RunE:  runPaintTransformCmd,
	}
	transform.Flags().StringVar(&paintOut, "out", "pixel-art.png", "output file")

	cmd.AddCommand(export, transform)
	return cmd
}

func runPaintExportCmd(cmd *cobra.Command, _ []string) error {
	if paintScale < 1 || paintScale > 64 {
		return fmt.Errorf("--scale must be between 1 and 64")
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.savedDoodle(context.Background())
	if err != nil {
		return err
	}
	data, err := c.EncodePNG(paintScale)
	if err != nil {
		return fmt.Errorf("failed to encode doodle: %w", err)
	}
	if err := writeFileAtomic(paintOut, data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", paintOut)
	return err
}

func runPaintTransformCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.ai.Configured() {
		return fmt.Errorf("no API key configured (set %s in %s)", a.settings.apiKeyEnv, config.DefaultEnvPath())
	}
	ctx := context.Background()
	c, err := a.savedDoodle(ctx)
	if err != nil {
		return err
	}
	uri, err := c.EncodeDataURI()
	if err != nil {
		return fmt.Errorf("failed to encode doodle: %w", err)
	}
	logErrln("Transforming doodle...")
	tctx, cancel := context.WithTimeout(ctx, a.settings.timeout)
	defer cancel()
	art, err := a.ai.TransformDoodle(tctx, uri)
	if err != nil {
		if errors.Is(err, genai.ErrNoImage) {
			return fmt.Errorf("the AI service returned no image, try again")
		}
		return fmt.Errorf("failed to transform doodle: %w", err)
	}
	_, data, err := canvas.SplitDataURI(art)
	if err != nil {
		return fmt.Errorf("failed to decode pixel art: %w", err)
	}
	if err := writeFileAtomic(paintOut, data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", paintOut)
	return err
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# dopamind configuration
# Uncomment a value to enable it. CLI flags override config values.

[display]
# fps = %d                     # Frames per second (5-120)
# idle-animation = true        # Animate bubbles before a game starts
# theme = %q               # dark or light

[audio]
# effects = true               # Pop and chime sounds
# ambient = false              # Start with the ambient track on
# track = "Ocean Waves"        # Ocean Waves or Lo-fi Loop

[scoring]
# save-on-manual-end = true    # Save scores of games ended early
# persist-negative = false     # Save negative score deltas

[challenge]
# endpoint = %q
# model = %q
# image-model = %q
# timeout = %q
# api-key-env = %q   # Variable read from the environment or %s

[sink]
# sqs-queue-url = ""           # Also publish results to this queue
# aws-region = %q

[log]
# level = %q                 # debug, info, warn, error, off

# Per-game overrides for arcade games:
# [games.bubble-popper]
# duration = "45s"
# max-entities = 20
# [games.calm-orbs]
# lives = 5
# hazard-ratio = 0.3
`,
		defaultFPS,
		defaultTheme,
		genai.DefaultEndpoint,
		genai.DefaultModel,
		genai.DefaultImageModel,
		genai.DefaultTimeout.String(),
		defaultAPIKeyEnv,
		config.DefaultEnvPath(),
		defaultAWSRegion,
		defaultLogLevel,
	)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".dopamind-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
