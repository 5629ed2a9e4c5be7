package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/apresai/persona/internal/persona"
	"github.com/apresai/persona/internal/stats"
)

var flagStatsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats <reddit-url|username>",
	Short: "Print activity statistics without calling a generation model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&flagStatsJSON, "json", false, "Print the full statistics bundle as JSON")
}

var (
	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7D56F4")).
				MarginBottom(1)

	summaryLabelStyle = lipgloss.NewStyle().
				Width(22).
				Align(lipgloss.Right).
				Foreground(lipgloss.Color("#888888"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575"))

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 2)
)

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	username, err := resolveUsername(args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ds, err := newSource(ctx, cfg, discardLogger()).Fetch(ctx, username)
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		return err
	}
	b := stats.Compute(ds, stats.Options{Location: loc})

	out := cmd.OutOrStdout()
	if flagStatsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	fmt.Fprintln(out, renderSummary(username, b))
	return nil
}

// renderSummary draws the headline statistics as a bordered table.
func renderSummary(username string, b *stats.Bundle) string {
	ratio := fmt.Sprintf("%.2f", float64(b.PostToCommentRatio))
	if b.PostToCommentRatio.IsInf() {
		ratio = "posts only"
	}

	rows := [][2]string{
		{"Posts", fmt.Sprint(b.TotalPosts)},
		{"Comments", fmt.Sprint(b.TotalComments)},
		{"Activity level", persona.ClassifyActivity(b.TotalActivity)},
		{"Post/comment ratio", ratio},
		{"Top subreddits", strings.Join(b.TopSubredditNames(5), ", ")},
		{"Likely timezone", b.Timezone},
		{"Avg post score", fmt.Sprintf("%.2f", b.Engagement.AvgPostScore)},
		{"Avg comment score", fmt.Sprintf("%.2f", b.Engagement.AvgCommentScore)},
		{"Vocabulary diversity", fmt.Sprintf("%.2f", b.Language.VocabularyDiversity)},
		{"Engagement style", b.CommunicationPatterns.EngagementPreference},
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		value := r[1]
		if value == "" {
			value = "-"
		}
		lines[i] = lipgloss.JoinHorizontal(lipgloss.Top,
			summaryLabelStyle.Render(r[0]), "  ", summaryValueStyle.Render(value))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		summaryTitleStyle.Render("u/"+username),
		strings.Join(lines, "\n"))
	return summaryBoxStyle.Render(body)
}
