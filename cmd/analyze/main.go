// Analyze renders time-domain and spectrum plots of stored capture files.
// Without file arguments it uses the newest capture in the archive directory.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RMahshie/scopecap/internal/capturefile"
	"github.com/RMahshie/scopecap/internal/config"
	"github.com/RMahshie/scopecap/internal/plotting"
	"github.com/RMahshie/scopecap/internal/processing"
	"github.com/RMahshie/scopecap/pkg/models"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	dir          string
	signalDir    string
	fftDir       string
	maxFrequency float64
	maxAmplitude float64
	jobs         int
}

type renderFunc func(svc processing.ProcessingService, ctx context.Context, c *models.Capture) (string, error)

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "analyze",
		Short:        "Render plots of oscilloscope captures",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", cfg.Archive.Dir, "directory searched for the newest capture when no file is given")
	root.PersistentFlags().StringVar(&opts.signalDir, "signal-dir", cfg.Analysis.SignalDir, "output directory for time-domain plots")
	root.PersistentFlags().StringVar(&opts.fftDir, "fft-dir", cfg.Analysis.FFTDir, "output directory for spectrum plots")
	root.PersistentFlags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "number of files rendered in parallel")

	signalCmd := &cobra.Command{
		Use:   "signal [file.parquet...]",
		Short: "Plot voltage against time for every channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.Context(), opts, args, processing.ProcessingService.RenderSignal)
		},
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [file.parquet...]",
		Short: "Plot the magnitude spectrum of every channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.Context(), opts, args, processing.ProcessingService.RenderSpectrum)
		},
	}
	spectrumCmd.Flags().Float64Var(&opts.maxFrequency, "max-frequency", cfg.Analysis.MaxFrequency, "upper bound of the frequency axis in Hz (0 = autoscale)")
	spectrumCmd.Flags().Float64Var(&opts.maxAmplitude, "max-amplitude", cfg.Analysis.MaxAmplitude, "upper bound of the amplitude axis in mV (0 = autoscale)")

	root.AddCommand(signalCmd, spectrumCmd)
	return root
}

func render(ctx context.Context, opts *options, files []string, fn renderFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(files) == 0 {
		latest, err := capturefile.Latest(opts.dir)
		if err != nil {
			return err
		}
		files = []string{latest}
	}

	svc := processing.NewProcessingService(nil, nil, processing.Config{
		SignalDir: opts.signalDir,
		FFTDir:    opts.fftDir,
		Window: plotting.Window{
			MaxFrequency: opts.maxFrequency,
			MaxAmplitude: opts.maxAmplitude,
		},
		Figure: plotting.DefaultFigure,
	})

	grp, ctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		grp.SetLimit(opts.jobs)
	}
	for _, file := range files {
		file := file
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := capturefile.ReadFile(file)
			if err != nil {
				return err
			}
			out, err := fn(svc, ctx, c)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			log.Info().Str("capture", file).Str("plot", out).Msg("Plot rendered")
			return nil
		})
	}
	return grp.Wait()
}
