package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/facegate/internal/coordinator"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/vision"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture <image>...",
	Short: "Add face samples for a user from image files",
	Long: `Detect faces in the given image files and store them as samples for a user.
Sequence indices continue after the user's highest stored index unless --start
is given. Profile flags are stored in the metadata database when the first
sequence index (1) is captured.

Examples:
  # Register a new user from three photos
  facegate capture --user 7 --email a@example.com --name "Anna Nováková" a.jpg b.jpg c.jpg

  # Replace the samples of sequence 2
  facegate capture --user 7 --start 2 retake.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int("user", 0, "User ID (required)")
	captureCmd.Flags().Int("start", 0, "First sequence index (0 = continue after the last stored one)")
	captureCmd.Flags().String("email", "", "Profile email")
	captureCmd.Flags().String("name", "", "Profile full name")
	captureCmd.Flags().String("role", "", "Profile role")
	captureCmd.Flags().Bool("json", false, "Output as JSON")
	_ = captureCmd.MarkFlagRequired("user")
}

// CaptureFileResult is one line of the capture report
type CaptureFileResult struct {
	File       string `json:"file"`
	Sequence   int    `json:"sequence"`
	FacesSaved int    `json:"faces_saved"`
	Error      string `json:"error,omitempty"`
}

func runCapture(cmd *cobra.Command, args []string) error {
	userID := mustGetInt(cmd, "user")
	jsonOutput := mustGetBool(cmd, "json")
	profile := &database.Profile{
		Email:    mustGetString(cmd, "email"),
		FullName: mustGetString(cmd, "name"),
		Role:     mustGetString(cmd, "role"),
	}

	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	seq := mustGetInt(cmd, "start")
	if seq <= 0 {
		if seq, err = a.store.NextSequence(userID); err != nil {
			return fmt.Errorf("failed to determine next sequence: %w", err)
		}
	}

	results := make([]CaptureFileResult, 0, len(args))
	var saved int
	for _, path := range args {
		res := captureFile(ctx, a.service, userID, seq, path, profile)
		if res.Error == "" {
			saved += res.FacesSaved
			seq++
		}
		results = append(results, res)
		if !jsonOutput {
			if res.Error != "" {
				fmt.Printf("  %s: %s\n", path, res.Error)
			} else {
				fmt.Printf("  %s: sequence %d, %d face(s) saved\n", path, res.Sequence, res.FacesSaved)
			}
		}
	}

	if jsonOutput {
		return printJSON(results)
	}
	fmt.Printf("Saved %d face images for user %d\n", saved, userID)
	return nil
}

func captureFile(ctx context.Context, svc *coordinator.Service, userID, seq int, path string, profile *database.Profile) CaptureFileResult {
	res := CaptureFileResult{File: path, Sequence: seq}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	img, err := vision.Decode(data)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := svc.Capture(ctx, coordinator.CaptureRequest{
		UserID:   userID,
		Image:    img,
		Sequence: seq,
		Profile:  profile,
	})
	if errors.Is(err, vision.ErrNoFaceDetected) {
		res.Error = "no face detected"
		return res
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.FacesSaved = out.FacesSaved()
	return res
}
