// Command fenrirbench is an external CLI/benchmark harness for the
// matching core. It replays a synthetic order stream through an
// engine.Engine and reports throughput.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ordercore/internal/engine"
	"ordercore/internal/harness"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("fenrirbench: fatal")
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "fenrirbench",
		Short: "Replay a synthetic order stream through the matching engine core",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		orders         int
		seed           int64
		center         float64
		band           float64
		pricePrecision int32
		makerFeeRate   float64
		takerFeeRate   float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a synthetic order stream and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg := engine.Config{
				StepSize:       decimal.Zero,
				PricePrecision: pricePrecision,
				MakerFeeRate:   decimal.NewFromFloat(makerFeeRate),
				TakerFeeRate:   decimal.NewFromFloat(takerFeeRate),
			}
			eng := engine.New(cfg)
			feed := harness.NewFeed(seed, decimal.NewFromFloat(center), decimal.NewFromFloat(band), pricePrecision)
			bench := harness.NewBench(eng, feed)

			report := bench.Run(ctx, orders)
			fmt.Fprintf(os.Stdout, "submitted=%d trades=%d elapsed=%s\n",
				report.OrdersSubmitted, report.TradesEmitted, report.Elapsed)
			for code, count := range report.ResultCounts {
				fmt.Fprintf(os.Stdout, "  %s: %d\n", code, count)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&orders, "orders", 100000, "number of synthetic orders to submit")
	cmd.Flags().Int64Var(&seed, "seed", 1, "synthetic feed RNG seed")
	cmd.Flags().Float64Var(&center, "center", 100, "central price the synthetic feed oscillates around")
	cmd.Flags().Float64Var(&band, "band", 5, "half-width of the synthetic feed's price oscillation")
	cmd.Flags().Int32Var(&pricePrecision, "price-precision", 2, "decimal places for price rounding/keying")
	cmd.Flags().Float64Var(&makerFeeRate, "maker-fee-rate", 0.001, "maker fee rate")
	cmd.Flags().Float64Var(&takerFeeRate, "taker-fee-rate", 0.002, "taker fee rate")
	return cmd
}
