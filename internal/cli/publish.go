package cli

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/apresai/persona/internal/storage"
)

var flagPublishBaseURL string

var publishCmd = &cobra.Command{
	Use:   "publish <persona-file>",
	Short: "Upload an existing persona file to S3",
	Long:  "Upload a persona file written by generate to the bucket named by --s3-bucket or S3_BUCKET. The username is taken from the <username>_persona.txt file name.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&flagPublishBaseURL, "base-url", "", "Public base URL for published files (overrides PERSONA_PUBLIC_BASE_URL)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	path := args[0]

	username, ok := strings.CutSuffix(filepath.Base(path), "_persona.txt")
	if !ok || username == "" {
		return fmt.Errorf("%s is not a persona file (expected <username>_persona.txt)", path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.S3Bucket == "" {
		return fmt.Errorf("no bucket configured: pass --s3-bucket or set S3_BUCKET")
	}
	if flagPublishBaseURL != "" {
		cfg.PublicBaseURL = flagPublishBaseURL
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read persona: %w", err)
	}

	pub, err := storage.NewS3(cmd.Context(), cfg.AWSRegion, cfg.S3Bucket, cfg.PublicBaseURL)
	if err != nil {
		return err
	}
	runID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	key, url, err := pub.Publish(cmd.Context(), runID, username, body)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n  Published %s\n", key)
	fmt.Fprintf(out, "  URL: %s\n", url)
	return nil
}
