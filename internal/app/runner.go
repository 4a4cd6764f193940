package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/cache"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/config"
	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/execution"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/httpx"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/out"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/policy"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/schema"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/tokenlist"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/userstate"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/version"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner   *Runner
	flags    config.GlobalFlags
	settings config.Settings
	root     *cobra.Command
	logger   log.Logger

	cache       *cache.Store
	actionStore *execution.Store
	stateStore  *userstate.Store
	lists       *tokenlist.Manager

	lastCommand  string
	lastWarnings []string
	lastSources  []model.SourceStatus
	lastPartial  bool
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r, logger: log.Root()}
	root := state.newRootCommand()
	state.root = root
	state.resetCommandDiagnostics()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	err = normalizeRunError(err)
	defer state.close()
	if err == nil {
		return 0
	}

	state.renderError("", err, state.lastWarnings, state.lastSources, state.lastPartial)
	return clierr.ExitCode(err)
}

func (s *runtimeState) close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.actionStore != nil {
		_ = s.actionStore.Close()
	}
	if s.stateStore != nil {
		_ = s.stateStore.Close()
	}
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Headless CronaSwap interface: token search, wrap/unwrap and settings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings
			s.logger = setupLogging(s.runner.stderr, settings.LogLevel)

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
				return err
			}
			s.logger.Debug("Running command", "command", path, "output", settings.OutputMode)

			if settings.CacheEnabled && shouldOpenCache(path) && s.cache == nil {
				cacheStore, err := cache.Open(settings.CachePath, settings.CacheLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open cache", err)
				}
				s.cache = cacheStore
			}
			if shouldOpenActionStore(path) {
				if err := s.ensureActionStore(); err != nil {
					return err
				}
			}
			if shouldOpenStateStore(path) {
				if err := s.ensureStateStore(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated, dotted paths allowed)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.Strict, "strict", false, "Fail when any token list is unavailable")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Upstream request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per upstream request")
	cmd.PersistentFlags().StringVar(&s.flags.MaxStale, "max-stale", "", "Maximum stale fallback window after TTL expiry")
	cmd.PersistentFlags().BoolVar(&s.flags.NoStale, "no-stale", false, "Reject stale cache entries")
	cmd.PersistentFlags().BoolVar(&s.flags.NoCache, "no-cache", false, "Disable cache reads and writes")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&s.flags.EnvFile, "env-file", "", "Path to a .env file (default ./.env when present)")
	cmd.PersistentFlags().StringVar(&s.flags.LogLevel, "log-level", "", "Log level on stderr (trace|debug|info|warn|error|crit)")

	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newTokensCommand())
	cmd.AddCommand(s.newWrapCommand())
	cmd.AddCommand(s.newTxCommand())
	cmd.AddCommand(s.newNetworksCommand())
	cmd.AddCommand(s.newSettingsCommand())
	cmd.AddCommand(s.newTradeCommand())
	cmd.AddCommand(s.newLinksCommand())
	cmd.AddCommand(s.newWalletCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Build(s.root, strings.Join(args, " "))
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	return cmd
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, cacheStatus model.CacheStatus, sources []model.SourceStatus, partial bool) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Error:    nil,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Sources:   sources,
			Cache:     cacheStatus,
			Partial:   partial,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(commandPath string, err error, warnings []string, sources []model.SourceStatus, partial bool) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	code := clierr.ExitCode(err)
	typ := clierr.TypeName(clierr.CodeInternal)
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		typ = clierr.TypeName(cErr.Code)
		message = cErr.Message
		if cErr.Cause != nil {
			message = fmt.Sprintf("%s: %v", cErr.Message, cErr.Cause)
		}
	}
	s.logger.Debug("Command failed", "command", commandPath, "code", code, "err", err)

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    []any{},
		Error: &model.ErrorBody{
			Code:    code,
			Type:    typ,
			Message: message,
		},
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Sources:   sources,
			Cache:     cacheMetaBypass(),
			Partial:   partial,
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func (s *runtimeState) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.settings.Timeout)
}

func (s *runtimeState) httpClient() *httpx.Client {
	return httpx.New(s.settings.Timeout, s.settings.Retries).WithLogger(s.logger)
}

// tokenLists lazily builds the token list manager. The cache may be nil when
// caching is disabled.
func (s *runtimeState) tokenLists() *tokenlist.Manager {
	if s.lists == nil {
		s.lists = tokenlist.NewManager(s.httpClient(), s.cache, tokenlist.Options{
			Active:   s.settings.ActiveLists,
			Inactive: s.settings.InactiveLists,
			MaxStale: s.settings.MaxStale,
			NoStale:  s.settings.NoStale,
		}, s.logger)
	}
	return s.lists
}

func (s *runtimeState) ensureActionStore() error {
	if s.actionStore != nil {
		return nil
	}
	store, err := execution.OpenStore(s.settings.ActionStorePath, s.settings.ActionLockPath)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "open action store", err)
	}
	s.actionStore = store
	return nil
}

func (s *runtimeState) ensureStateStore() error {
	if s.stateStore != nil {
		return nil
	}
	store, err := userstate.Open(s.settings.StatePath, s.settings.StateLockPath)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "open state store", err)
	}
	s.stateStore = store
	return nil
}

func newRequestID() string {
	return uuid.NewString()
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		norm := strings.ToLower(strings.TrimSpace(part))
		if norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func statusFromErr(err error) string {
	if err == nil {
		return "ok"
	}
	if cErr, ok := clierr.As(err); ok {
		switch cErr.Code {
		case clierr.CodeAuth:
			return "auth_error"
		case clierr.CodeRateLimited:
			return "rate_limited"
		case clierr.CodeUnavailable:
			return "unavailable"
		default:
			return "error"
		}
	}
	return "error"
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass"}
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// shouldOpenCache reports whether a command reads token lists.
func shouldOpenCache(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case "tokens search", "tokens import", "tokens lists":
		return true
	default:
		return false
	}
}

func shouldOpenActionStore(commandPath string) bool {
	path := normalizeCommandPath(commandPath)
	return path == "wrap run" || strings.HasPrefix(path, "tx ")
}

func shouldOpenStateStore(commandPath string) bool {
	path := normalizeCommandPath(commandPath)
	switch {
	case strings.HasPrefix(path, "tokens "), strings.HasPrefix(path, "settings "):
		return path != "tokens lists"
	case path == "trade impact":
		return true
	default:
		return false
	}
}

func normalizeCommandPath(commandPath string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(commandPath))), " ")
}

func (s *runtimeState) resetCommandDiagnostics() {
	s.lastWarnings = nil
	s.lastSources = nil
	s.lastPartial = false
}

func (s *runtimeState) captureCommandDiagnostics(warnings []string, sources []model.SourceStatus, partial bool) {
	if len(warnings) == 0 {
		s.lastWarnings = nil
	} else {
		s.lastWarnings = append([]string(nil), warnings...)
	}
	if len(sources) == 0 {
		s.lastSources = nil
	} else {
		s.lastSources = append([]model.SourceStatus(nil), sources...)
	}
	s.lastPartial = partial
}
