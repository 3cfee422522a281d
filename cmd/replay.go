package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"presence-sync/core/config"
	"presence-sync/core/database"
	"presence-sync/core/journal"
	"presence-sync/core/logger"
	"presence-sync/core/presence"
	"presence-sync/core/storage"
	"presence-sync/core/trace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the replay command
	replayFromStorage  bool
	replayJournal      bool
	replayResetJournal bool
	replayTopic        string
	yesConfirm         bool
)

// replayCmd replays a recorded trace through a fresh reconciler.
var replayCmd = &cobra.Command{
	Use:   "replay <trace>",
	Short: "Replay a recorded presence trace",
	Long: `Replay delivers every step of a recorded trace (YAML or JSON) to a fresh
reconciler, logs each roster change and prints the final roster as JSON.

Examples:
  # Replay a local trace
  replay traces/lobby.yaml

  # Replay a trace stored in the configured bucket
  replay lobby/reconnect.yaml --from-storage

  # Record changes into the journal database, clearing the topic first
  replay traces/lobby.yaml --journal --reset-journal --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayFromStorage, "from-storage", false, "Read the trace from the configured storage bucket")
	replayCmd.Flags().BoolVar(&replayJournal, "journal", false, "Record changes into the journal database")
	replayCmd.Flags().BoolVar(&replayResetJournal, "reset-journal", false, "Delete the topic's journal entries before replaying (requires --journal)")
	replayCmd.Flags().StringVar(&replayTopic, "topic", "", "Override the topic recorded in the trace")
	replayCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()
	zap.ReplaceGlobals(l)

	tr, err := loadTrace(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	topic := resolveTopic(replayTopic, tr.Topic, args[0])

	var recorder *journal.Recorder
	if replayJournal {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		recorder = journal.NewRecorder(db, l.Named("journal"))
		if err := prepareJournal(ctx, recorder, cfg.Database.AutoMigrate); err != nil {
			return err
		}

		if replayResetJournal {
			if !confirmDestructiveAction() {
				l.Warn("Operation cancelled by user. No changes were made.")
				return nil
			}
			removed, err := recorder.Purge(ctx, topic)
			if err != nil {
				return err
			}
			l.Info("Journal cleared", zap.String("topic", topic), zap.Int64("removed", removed))
		}
	} else if replayResetJournal {
		return fmt.Errorf("--reset-journal requires --journal")
	}

	_, err = executeReplay(ctx, tr, topic, cfg.Presence, recorder, l, cmd.OutOrStdout())
	return err
}

// loadTrace reads the trace named by arg from disk or, with --from-storage, from the bucket.
func loadTrace(ctx context.Context, cfg *config.Config, arg string) (*trace.Trace, error) {
	if !replayFromStorage {
		return trace.Load(arg)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	return trace.LoadObject(ctx, client, cfg.Storage.Bucket, arg)
}

// resolveTopic prefers the flag, then the trace's own topic, then the file name.
func resolveTopic(flag, recorded, arg string) string {
	switch {
	case flag != "":
		return flag
	case recorded != "":
		return recorded
	default:
		return strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
	}
}

// executeReplay replays tr, logs and optionally journals every change, and writes the
// final roster to out as indented JSON.
func executeReplay(ctx context.Context, tr *trace.Trace, topic string, cfg presence.Config, recorder *journal.Recorder, l *zap.Logger, out io.Writer) (*trace.Result, error) {
	tl := logger.WithTopic(l, topic)

	var record presence.ChangeFunc
	if recorder != nil {
		record = recorder.Observer(ctx, topic)
	}

	tl.Info("Replaying trace", zap.Int("steps", len(tr.Steps)))
	res, err := trace.Replay(tr, cfg, func(key string, oldPresence, newPresence *presence.Presence) {
		c := presence.Change{Key: key, Old: oldPresence, New: newPresence}
		tl.Debug("Presence changed",
			zap.String("key", key),
			zap.String("kind", journal.KindOf(c)),
			zap.Strings("old_refs", oldPresence.Refs()),
			zap.Strings("new_refs", newPresence.Refs()),
		)
		if record != nil {
			record(key, oldPresence, newPresence)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replay trace: %w", err)
	}

	printReplayReport(tl, res)

	data, err := json.MarshalIndent(res.State, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster: %w", err)
	}
	if _, err := fmt.Fprintln(out, string(data)); err != nil {
		return nil, err
	}
	return res, nil
}

// printReplayReport logs a summary of the replay and a sample of its changes.
func printReplayReport(l *zap.Logger, res *trace.Result) {
	kinds := map[string]int{}
	for _, c := range res.Changes {
		kinds[journal.KindOf(c)]++
	}

	l.Info("Replay report",
		zap.Int("keys", res.State.Len()),
		zap.Int("changes", len(res.Changes)),
		zap.Int("joins", kinds[journal.KindJoin]),
		zap.Int("leaves", kinds[journal.KindLeave]),
		zap.Int("updates", kinds[journal.KindUpdate]),
		zap.Int("syncs", res.Syncs),
	)

	if res.Pending > 0 {
		l.Warn("Trace ended while awaiting a snapshot", zap.Int("pending_diffs", res.Pending))
	}

	maxShow := min(5, len(res.Changes))
	for _, c := range res.Changes[:maxShow] {
		l.Info("Sample change",
			zap.String("key", c.Key),
			zap.String("kind", journal.KindOf(c)),
			zap.Strings("new_refs", c.New.Refs()),
		)
	}
	if len(res.Changes) > maxShow {
		l.Info("Additional changes not shown", zap.Int("count", len(res.Changes)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
