package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/infra/logger"
	"github.com/jgreely/genaistuff/internal/infra/wallpaper"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var interval time.Duration
	var sorted bool
	var displays []int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "wallflip [directories...]",
		Short: "wallflip — rotate wallpapers across displays at a fixed interval",
		Long: `Rotates wallpapers from one or more directories: the first directory
feeds display 1, the second display 2, and so on, reusing the last
directory for any remaining displays. Directories are watched for
changes and their playlists reloaded.

Does not work if the desktop is already set to rotate pictures on its
own.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(logger.Config{Debug: verbose})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			managed := displays
			if len(managed) == 0 {
				count, err := wallpaper.ProfilerCounter{}.DisplayCount(ctx)
				if err != nil {
					return err
				}
				for i := 0; i < count; i++ {
					managed = append(managed, i)
				}
			} else {
				for i, d := range managed {
					if d < 1 {
						return fmt.Errorf("display numbers are 1-based, got %d", d)
					}
					managed[i] = d - 1
				}
			}

			opts := []wallpaper.Option{
				wallpaper.WithInterval(interval),
				wallpaper.WithLogger(logger.L()),
			}
			if sorted {
				opts = append(opts, wallpaper.WithSorted())
			}
			rot, err := wallpaper.New(wallpaper.OSASetter{}, args, managed, opts...)
			if err != nil {
				return err
			}

			if err := rot.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Second, "delay between wallpaper changes")
	cmd.Flags().BoolVarP(&sorted, "sort", "s", false, "rotate in name order instead of shuffling")
	cmd.Flags().IntSliceVarP(&displays, "display", "d", nil, "only affect these displays (1-based, repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each wallpaper change")
	return cmd
}
