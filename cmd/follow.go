// File: cmd/follow.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/catalog"
	"github.com/xkilldash9x/viewlens/internal/inspector"
	"github.com/xkilldash9x/viewlens/internal/observability"
)

// followEvent is printed, one JSON object per line, for every snapshot read.
type followEvent struct {
	Line       int                     `json:"line"`
	Caption    string                  `json:"caption"`
	Elements   int                     `json:"elements"`
	Cached     bool                    `json:"cached"`
	Warning    string                  `json:"warning,omitempty"`
	Categories []schemas.CategoryCount `json:"categories,omitempty"`
}

func newFollowCmd() *cobra.Command {
	var (
		follow    bool
		reopen    bool
		poll      bool
		fromStart bool
	)
	cmd := &cobra.Command{
		Use:   "follow <stream-file>",
		Short: "Watch a file of snapshots, one per line, and summarize each as it arrives",
		Long: `Tail a file that receives one serialized snapshot per line (for example a
capture loop appending "uiautomator dump /dev/tty" output). Every line replaces
the current element set; ids from previous lines are never carried over.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			whence := io.SeekEnd
			if fromStart {
				whence = io.SeekStart
			}
			t, err := tail.TailFile(args[0], tail.Config{
				Follow:    follow,
				ReOpen:    follow && reopen,
				Poll:      poll,
				MustExist: true,
				Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
				Logger:    tail.DiscardingLogger,
			})
			if err != nil {
				return fmt.Errorf("failed to tail snapshot stream: %w", err)
			}
			defer func() {
				_ = t.Stop()
				t.Cleanup()
			}()

			return followLoop(cmd, s, t)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", true, "keep waiting for new lines at end of file")
	cmd.Flags().BoolVar(&reopen, "reopen", true, "reopen the file when it is rotated or recreated")
	cmd.Flags().BoolVar(&poll, "poll", false, "poll for changes instead of using inotify")
	cmd.Flags().BoolVar(&fromStart, "from-start", true, "read lines already in the file")
	return cmd
}

func followLoop(cmd *cobra.Command, s *inspector.Session, t *tail.Tail) error {
	ctx := cmd.Context()
	logger := observability.GetLogger().Named("follow")
	out := cmd.OutOrStdout()
	n := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping snapshot stream.")
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				logger.Warn("Error reading snapshot stream", zap.Error(line.Err))
				continue
			}
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			n++

			res := s.Load(ctx, text)
			ev := followEvent{
				Line:     n,
				Caption:  res.Caption.Caption(),
				Elements: res.Count,
				Cached:   res.Cached,
			}
			if res.Warning != nil {
				ev.Warning = res.Warning.Error()
			}
			for _, c := range s.View(catalog.Query{}).Categories {
				if c.Count > 0 {
					ev.Categories = append(ev.Categories, c)
				}
			}
			data, err := jsonAPI.Marshal(ev)
			if err != nil {
				return fmt.Errorf("failed to encode event: %w", err)
			}
			if _, err := fmt.Fprintln(out, string(data)); err != nil {
				return err
			}
		}
	}
}
