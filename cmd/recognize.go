package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Identify the largest face in an image file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	img, err := vision.Decode(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.service.Recognize(ctx, img)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	if jsonOutput {
		return printJSON(map[string]any{
			"success":    true,
			"user_id":    res.UserID,
			"confidence": res.Confidence,
			"distance":   res.Distance,
			"faces":      res.Faces,
			"user_info":  res.Record,
		})
	}

	fmt.Printf("User:       %d\n", res.UserID)
	fmt.Printf("Confidence: %.2f%%\n", res.Confidence)
	fmt.Printf("Faces:      %d (matched %v)\n", res.Faces, res.Face)
	if res.Record != nil {
		fmt.Printf("Name:       %s\n", res.Record.DisplayName())
		fmt.Printf("Email:      %s\n", deref(res.Record.Email))
	}
	return nil
}
