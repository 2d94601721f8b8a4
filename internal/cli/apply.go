package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdantio/carbonledger/internal/domain"
	"github.com/verdantio/carbonledger/internal/engine"
	"github.com/verdantio/carbonledger/internal/store"
)

var errNoSnapshot = errors.New("at least one of --previous and --current is required")

// newApplyCmd builds the command that feeds one consumption change
// event through the engine: the previous and current snapshots as JSON
// files, either of which may be omitted for creates and deletes.
func newApplyCmd() *cobra.Command {
	var (
		previousPath string
		currentPath  string
		userID       string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a consumption change event",
		Long:  "Apply persists the current consumption snapshot (or removes it on delete) and runs the accounting engine as the change trigger would.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			prev, err := readConsumption(previousPath)
			if err != nil {
				return err
			}
			curr, err := readConsumption(currentPath)
			if err != nil {
				return err
			}
			if prev == nil && curr == nil {
				return errNoSnapshot
			}

			if userID == "" {
				if curr != nil {
					userID = curr.UserID
				} else {
					userID = prev.UserID
				}
			}
			consumptionID := ""
			if curr != nil {
				consumptionID = curr.ID
			} else {
				consumptionID = prev.ID
			}

			st, eng, err := openEngine()
			if err != nil {
				return err
			}
			defer st.Close()

			// Mirror the document change the event describes before
			// invoking the engine on it.
			if curr != nil {
				if err := st.PutConsumption(ctx, curr); err != nil {
					return err
				}
			} else if err := st.DeleteConsumption(ctx, prev.ID); err != nil {
				return err
			}

			if err := eng.HandleChange(ctx, prev, curr, userID, consumptionID); err != nil {
				return err
			}
			logger.Info().
				Str("user_id", userID).
				Str("consumption_id", consumptionID).
				Msg("change applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&previousPath, "previous", "", "JSON file with the consumption snapshot before the change")
	cmd.Flags().StringVar(&currentPath, "current", "", "JSON file with the consumption snapshot after the change")
	cmd.Flags().StringVar(&userID, "user", "", "owning user id (defaults to the snapshot's userId)")
	return cmd
}

func readConsumption(path string) (*domain.Consumption, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var c domain.Consumption
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return &c, nil
}

// openEngine opens the configured store and builds an engine over it.
func openEngine() (*store.Store, *engine.Engine, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(st, engine.Options{
		ConsumptionVersion: cfg.Engine.ConsumptionVersion,
		SummaryVersion:     cfg.Engine.SummaryVersion,
		FallbackCountry:    cfg.Engine.FallbackCountry,
		FreshnessWindow:    time.Duration(cfg.Engine.FreshnessWindowDays) * 24 * time.Hour,
		RebuildConcurrency: cfg.Engine.RebuildConcurrency,
	})
	return st, eng, nil
}
