// Command relay converts a legacy two-file network definition into a
// single-file interchange model and verifies the round trip.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relay-ml/relay/internal/tensor"
	"github.com/relay-ml/relay/pipeline"
)

var (
	initNetPath    string
	predictNetPath string
	outputPath     string
	inputName      string
	inputShape     []int
	tolerance      float64
	verbose        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "relay converts legacy net definition pairs to interchange models",
		Long: `relay loads a legacy (init net, predict net) file pair, runs a baseline
prediction on a zero-filled input, exports the pair as a single validated
interchange model, re-imports that model and confirms both runners produce
the same outputs.`,
		RunE: convert,
	}

	rootCmd.Flags().StringVar(&initNetPath, "init-net", "", "Path to the serialized init net (weights)")
	rootCmd.Flags().StringVar(&predictNetPath, "predict-net", "", "Path to the serialized predict net (architecture)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "model.onnx", "Path to write the interchange model to")
	rootCmd.Flags().StringVar(&inputName, "input-name", "", "Input to probe (defaults to the net's only input)")
	rootCmd.Flags().IntSliceVar(&inputShape, "input-shape", []int{1, 3, 224, 224}, "Shape of the zero-filled probe input")
	rootCmd.Flags().Float64Var(&tolerance, "tolerance", pipeline.DefaultTolerance, "Maximum allowed per-element output difference")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = rootCmd.MarkFlagRequired("init-net")
	_ = rootCmd.MarkFlagRequired("predict-net")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func convert(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	result, err := pipeline.Run(pipeline.Config{
		InitNetPath:    initNetPath,
		PredictNetPath: predictNetPath,
		OutputPath:     outputPath,
		InputName:      inputName,
		InputShape:     tensor.Shape(inputShape),
		Tolerance:      tolerance,
	}, logger.Sugar())
	if err != nil {
		logger.Sugar().Errorw("conversion failed", "error", err)
		return err
	}

	fmt.Printf("wrote %s: top-1 class %d (score %g), max abs diff %g\n",
		outputPath, result.RoundTripIndex, result.RoundTripValue, result.MaxAbsDiff)
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
