package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verdantio/carbonledger/internal/domain"
	"github.com/verdantio/carbonledger/internal/store"
)

// seedFile is the YAML reference data document: country metric
// snapshots, label threshold tables, and users.
type seedFile struct {
	CountryMetrics  []domain.CountryMetric  `yaml:"countryMetrics"`
	LabelStructures []domain.LabelStructure `yaml:"labelStructures"`
	Users           []domain.User           `yaml:"users"`
}

// newSeedCmd builds the command that loads reference data into the
// store.
func newSeedCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load country metrics, label structures, and users from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading seed file %s: %w", path, err)
			}
			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("parsing seed file %s: %w", path, err)
			}

			st, err := store.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, m := range seed.CountryMetrics {
				if err := st.PutCountryMetric(ctx, m); err != nil {
					return err
				}
			}
			for _, ls := range seed.LabelStructures {
				if err := st.PutLabelStructure(ctx, ls); err != nil {
					return err
				}
			}
			for _, u := range seed.Users {
				if err := st.PutUser(ctx, u); err != nil {
					return err
				}
			}

			logger.Info().
				Int("country_metrics", len(seed.CountryMetrics)).
				Int("label_structures", len(seed.LabelStructures)).
				Int("users", len(seed.Users)).
				Msg("reference data seeded")
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "YAML seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
