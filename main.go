// Command sanctuary plans routes through ordered houses on a weighted grid
// and replays them while a roster of saints clears each house.
//
// Subcommands:
//  1. "run" plans and replays a scenario, printing the final board and timings
//  2. "plan" computes the route only
//  3. "mcp" serves the simulator as MCP tools over stdio
//  4. "validate" checks scenario files
//  5. "configs" lists the scenarios found in the config directory
//
// Flags control the config directory, replay cadence, debug logging and
// log format. A .env file in the working directory is loaded first.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/sanctuary/game/config"
	"github.com/wricardo/mcp-training/sanctuary/game/engine"
	"github.com/wricardo/mcp-training/sanctuary/game/service"
	"github.com/wricardo/mcp-training/sanctuary/game/session"
	"github.com/wricardo/mcp-training/sanctuary/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sanctuary Route Simulator"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// newApp builds the command tree; output of every subcommand goes to out
func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "sanctuary",
		Usage:   AppName,
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing scenario configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.DurationFlag{
				Name:    "tick",
				Usage:   "replay cadence; zero uses each scenario's tick_interval_ms",
				Sources: cli.EnvVars("SANCTUARY_TICK"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("SANCTUARY_DEBUG"),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "log format: text or json",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "plan a scenario and replay it",
				ArgsUsage: "[config]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "replay",
						Usage: "tick the replay in the background at the scenario cadence instead of instantly",
					},
				},
				Action: runAction,
			},
			{
				Name:      "plan",
				Usage:     "compute the route of a scenario without replaying it",
				ArgsUsage: "[config]",
				Action:    planAction,
			},
			{
				Name:  "mcp",
				Usage: "serve the simulator as MCP tools over stdio",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "session-ttl",
						Value:   24 * time.Hour,
						Usage:   "remove sessions idle for longer than this",
						Sources: cli.EnvVars("SANCTUARY_SESSION_TTL"),
					},
					&cli.DurationFlag{
						Name:  "cleanup-interval",
						Value: time.Hour,
						Usage: "how often idle sessions are checked",
					},
				},
				Action: mcpAction,
			},
			{
				Name:      "validate",
				Usage:     "validate scenario files",
				ArgsUsage: "<file>...",
				Action:    validateAction,
			},
			{
				Name:   "configs",
				Usage:  "list available scenarios",
				Action: configsAction,
			},
		},
	}
}

// setupLogging configures logrus from the root flags. Logs go to stderr so
// stdout stays clean for the MCP transport.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.InfoLevel)
	if cmd.Bool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	}

	switch strings.ToLower(cmd.String("log-format")) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return ctx, fmt.Errorf("unknown log format %q", cmd.String("log-format"))
	}
	return ctx, nil
}

// services bundles the managers behind the game service
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
}

// initializeServices wires the config manager, session manager and service
func initializeServices(configDir string, tick time.Duration) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager(session.WithTickInterval(tick))
	return &services{
		game:     service.NewGameService(sessionManager, configManager),
		sessions: sessionManager,
		configs:  configManager,
	}, nil
}

func servicesFor(cmd *cli.Command) (*services, error) {
	return initializeServices(cmd.String("config-dir"), cmd.Duration("tick"))
}

// sessionCleanupRoutine removes sessions idle for longer than maxAge every
// interval until ctx ends. A non-positive duration disables it.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				logrus.WithField("removed", removed).Info("cleaned up expired sessions")
			}
		}
	}
}

// configReloadRoutine drops the scenario cache whenever reload fires, so
// edited files are read again on the next session.
func configReloadRoutine(ctx context.Context, reload <-chan os.Signal, manager *config.Manager) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-reload:
			if err := manager.RefreshCache(); err != nil {
				logrus.WithError(err).Warn("failed to reload scenarios")
				continue
			}
			logrus.Info("scenarios reloaded")
		}
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	s, err := servicesFor(cmd)
	if err != nil {
		return err
	}
	defer s.sessions.Shutdown()
	svc := s.game

	info, err := svc.CreateSession(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	logger := logrus.WithFields(logrus.Fields{"session": info.ID, "config": info.ConfigName})
	logger.Info("session started")

	replay := cmd.Bool("replay")
	result, err := svc.ComputeRoute(ctx, info.ID, service.RunOptions{Instant: !replay})
	if err != nil {
		return err
	}

	state := result.State
	if replay {
		logger.WithField("length", result.Length).Info("replaying route")
		if state, err = svc.AwaitReplay(ctx, info.ID); err != nil {
			return err
		}
	}

	history, err := svc.GetHistory(ctx, info.ID, service.HistoryOptions{Limit: 100, Order: "asc"})
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	printBoard(out, state)
	fmt.Fprintf(out, "\nRoute: %d cells, %g terrain minutes\n", result.Length, result.PlannedMinutes)
	printEngagements(out, history.Steps)
	printSummary(out, state)

	if state.Status == engine.StatusFailed {
		return fmt.Errorf("run failed: %s", state.Failure)
	}
	return nil
}

func planAction(ctx context.Context, cmd *cli.Command) error {
	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	scenario := configManager.GetDefault()
	if name := cmd.Args().First(); name != "" {
		if scenario, err = configManager.LoadConfig(name); err != nil {
			return err
		}
	}

	sim, err := engine.NewSimulation(scenario)
	if err != nil {
		return err
	}
	route, err := sim.ComputeRoute()
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	printBoard(out, sim.Snapshot())
	fmt.Fprintf(out, "\nRoute: %d cells, %g terrain minutes\n", len(route), route.Cost(sim.Grid()))
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	s, err := servicesFor(cmd)
	if err != nil {
		return err
	}
	defer s.sessions.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sessionCleanupRoutine(ctx, s.sessions, cmd.Duration("cleanup-interval"), cmd.Duration("session-ttl"))

	// SIGHUP re-reads scenario files without dropping sessions
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)
	go configReloadRoutine(ctx, reload, s.configs)

	return mcp.NewServer(s.game).ServeStdio()
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("no scenario files given")
	}

	out := cmd.Root().Writer
	failed := 0
	for _, file := range files {
		scenario, err := config.ValidateFile(file)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %s (%dx%d, %d houses, %d saints)\n",
			file, scenario.Name, len(scenario.Layout[0]), len(scenario.Layout),
			len(scenario.Waypoints), len(scenario.Actors))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenario files are invalid", failed, len(files))
	}
	return nil
}

func configsAction(ctx context.Context, cmd *cli.Command) error {
	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}
	configs, err := configManager.ListConfigs()
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	for _, c := range configs {
		fmt.Fprintf(out, "%-12s %-20s %dx%d, %d houses, %d saints\n",
			c.ConfigID, c.Name, c.Width, c.Height, c.Waypoints, c.Actors)
	}
	return nil
}

func printBoard(out io.Writer, state *engine.State) {
	fmt.Fprintf(out, "%s (%s)\n", state.Name, state.Status)
	for _, line := range engine.RenderRows(state.Grid) {
		fmt.Fprintln(out, line)
	}
}

func printEngagements(out io.Writer, steps []engine.StepRecord) {
	for _, rec := range steps {
		if rec.Waypoint == "" {
			continue
		}
		if rec.Engagement == nil {
			fmt.Fprintf(out, "  %-12s not cleared\n", rec.Waypoint)
			continue
		}
		fmt.Fprintf(out, "  %-12s %s (%.2f min)\n",
			rec.Waypoint, strings.Join(rec.Engagement.Selected, ", "), rec.Engagement.Duration)
	}
}

func printSummary(out io.Writer, state *engine.State) {
	fmt.Fprintf(out, "Status: %s\n", strings.ToUpper(string(state.Status)))
	fmt.Fprintf(out, "Total: %d minutes\n", state.RoundedMinutes)
	if state.Failure != "" {
		fmt.Fprintf(out, "Failure: %s\n", state.Failure)
	}
	fmt.Fprintf(out, "Roster: %s\n", state.RosterRisk)
}
