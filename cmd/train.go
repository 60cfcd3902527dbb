package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/facegate/internal/training"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the recognition model",
	Long: `Train the LBPH model from the stored face samples and atomically replace
the model artifact. With --user only that user's samples are used and the
resulting model recognizes only that user.

Examples:
  # Train on every user
  facegate train

  # Train on a single user
  facegate train --user 7`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Int("user", 0, "Train only on this user's samples")
	trainCmd.Flags().Bool("json", false, "Output as JSON")
}

// TrainOutput is the JSON report of a training run
type TrainOutput struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SampleCount int    `json:"sample_count"`
	Skipped     int    `json:"skipped"`
	Generation  int    `json:"generation"`
}

func runTrain(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	userID := optionalUser(cmd)

	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var progress training.Progress
	if !jsonOutput {
		var bar *progressbar.ProgressBar
		progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Extracting faces"),
					progressbar.OptionShowCount(),
					progressbar.OptionShowIts(),
					progressbar.OptionSetItsString("samples"),
					progressbar.OptionShowElapsedTimeOnFinish(),
					progressbar.OptionFullWidth(),
				)
			}
			_ = bar.Set(done)
		}
	}

	res, err := a.service.Train(ctx, userID, progress)
	if err != nil {
		if jsonOutput {
			_ = printJSON(TrainOutput{Message: err.Error()})
		}
		return fmt.Errorf("training failed: %w", err)
	}

	if jsonOutput {
		return printJSON(TrainOutput{
			Success:     true,
			Message:     res.Message(),
			SampleCount: res.SampleCount,
			Skipped:     res.Skipped,
			Generation:  res.Model.Generation,
		})
	}

	fmt.Println()
	fmt.Println(res.Message())
	if res.Skipped > 0 {
		fmt.Printf("Skipped %d unreadable samples\n", res.Skipped)
	}
	fmt.Printf("Model generation %d written to %s\n", res.Model.Generation, a.models.Path())
	return nil
}
