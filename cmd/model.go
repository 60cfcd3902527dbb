package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Show the status of the trained model",
	RunE:  runModel,
}

func init() {
	rootCmd.AddCommand(modelCmd)

	modelCmd.Flags().Bool("json", false, "Output as JSON")
}

func runModel(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.service.ModelStatus()
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return printJSON(info)
	}

	fmt.Printf("Path:       %s\n", a.models.Path())
	fmt.Printf("Generation: %d\n", info.Generation)
	if !info.TrainedAt.IsZero() {
		fmt.Printf("Trained:    %s\n", info.TrainedAt.Local().Format(time.DateTime))
	}
	fmt.Printf("Samples:    %d\n", info.SampleCount)
	fmt.Printf("Users:      %d\n", len(info.Labels))
	if info.UserID != nil {
		fmt.Printf("Scoped to:  user %d\n", *info.UserID)
	}
	return nil
}
