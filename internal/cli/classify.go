package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/classify"
	"github.com/Grasinga/TimeTracker/internal/config"
	"github.com/Grasinga/TimeTracker/internal/model"
	"github.com/Grasinga/TimeTracker/internal/report"
	"github.com/Grasinga/TimeTracker/internal/slackfeed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Show how a message would be read as a clock",
		Long: "Classify one message as a clock-in, clock-out or invalid clock. Text can be a positional arg " +
			"or piped via stdin. Mentions are taken from <@U123> markup unless given with --mention.",
		Run: runClassify,
	}

	cmd.Flags().StringSliceP("mention", "m", nil, "Mentioned person ids, in order (overrides markup)")
	cmd.Flags().StringP("author", "a", "", "Author id")

	RootCmd.AddCommand(cmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	mentions, _ := cmd.Flags().GetStringSlice("mention")
	author, _ := cmd.Flags().GetString("author")

	// Get text: positional arg first, then check stdin
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}
	clock, err := classifyText(cfg, text, mentions, author, time.Now())
	if err != nil {
		exitErr("classify", err)
	}

	if formatFlag == "json" {
		printJSON(clock)
		return
	}
	if !clock.Valid() {
		fmt.Printf("invalid: %s\n", clock.Reason())
		return
	}
	fmt.Printf("%s %s at %s\n", clock.PersonID, clock.Kind, report.FormatHours(clock.Value))
}

// classifyText reads text as one chat message. Mentions default to the
// <@U123> markup found in text.
func classifyText(c *config.Config, text string, mentions []string, author string, at time.Time) (model.Clock, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Clock{}, errors.New("text is required (positional arg or stdin)")
	}
	if len(mentions) == 0 {
		mentions = slackfeed.Mentions(text)
	}
	return classify.New(c.InWords, c.OutWords).Classify(model.ChatMessage{
		AuthorID:  author,
		Mentions:  mentions,
		Text:      text,
		Timestamp: at,
	}), nil
}
