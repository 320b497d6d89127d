package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/traffic-sim/sim"
	_ "github.com/inference-sim/traffic-sim/sim/kinematics"
	"github.com/inference-sim/traffic-sim/sim/trace"
)

var (
	// CLI flags for the simulation run
	configPath string  // Network description file (YAML or JSON)
	numTicks   int     // Number of ticks to simulate
	tickLength float64 // Simulated seconds per tick
	seed       int64   // Seed for driving-behavior variation
	kernelName string  // Kinematics kernel
	parallel   bool    // Update routes concurrently
	logLevel   string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "traffic-sim",
	Short: "Discrete-time road traffic simulator",
}

// runOptions carries the flag values of a simulation run.
type runOptions struct {
	ConfigPath string
	Ticks      int
	DT         float64
	Seed       int64
	Kernel     string
	Parallel   bool
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the traffic simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		opts := runOptions{
			ConfigPath: configPath,
			Ticks:      numTicks,
			DT:         tickLength,
			Seed:       seed,
			Kernel:     kernelName,
			Parallel:   parallel,
		}
		if err := runSimulation(opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// validateCmd loads a network description and reports skipped entries
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a network description without running it",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		skipped, err := validateNetwork(configPath, os.Stdout)
		if err != nil {
			logrus.Fatalf("Invalid network description: %v", err)
		}
		if skipped > 0 {
			os.Exit(1)
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runSimulation builds the network, runs it and writes the summary to out.
// An interrupted run still prints the summary of the completed ticks.
func runSimulation(opts runOptions, out io.Writer) error {
	if !sim.IsValidKernel(opts.Kernel) {
		return fmt.Errorf("unknown kernel %q; valid: %s, %s", opts.Kernel, sim.KernelReference, sim.KernelVectorized)
	}
	desc, err := loadDescription(opts.ConfigPath)
	if err != nil {
		return err
	}

	cfg := sim.NetworkConfig{
		Kernel:   sim.NewKernel(opts.Kernel, sim.DefaultKinematicsParams()),
		Seed:     opts.Seed,
		Parallel: opts.Parallel,
	}
	s, problems := sim.NewSimulatorFromDescription(desc, cfg)
	if len(problems) > 0 {
		logrus.Warnf("%d network description entries were skipped", len(problems))
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupt:
			s.Stop()
		case <-done:
		}
	}()

	runErr := s.Run(opts.Ticks, opts.DT)
	if runErr != nil && !errors.Is(runErr, sim.ErrInterrupted) {
		return runErr
	}
	if runErr != nil {
		logrus.Warnf("%v", runErr)
	}

	fmt.Fprintf(out, "Run %s (%s kernel)\n", s.RunID(), s.Network().Kernel().Name())
	trace.Summarize(s.Trace()).Print(out)
	return nil
}

// validateNetwork loads and builds the description at path and reports what
// would be skipped. It returns the number of skipped entries.
func validateNetwork(path string, out io.Writer) (int, error) {
	desc, err := loadDescription(path)
	if err != nil {
		return 0, err
	}
	net, problems := desc.Build(sim.NetworkConfig{})
	for _, p := range problems {
		fmt.Fprintf(out, "skipped: %v\n", p)
	}
	fmt.Fprintf(out, "%d routes, %d vehicles, %d skipped entries\n",
		len(net.Routes()), net.TotalVehicleCount(), len(problems))
	return len(problems), nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Network description file (YAML or JSON); the built-in demo network when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().IntVar(&numTicks, "ticks", 60, "Number of ticks to simulate")
	runCmd.Flags().Float64Var(&tickLength, "dt", 60, "Simulated seconds per tick")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for driving-behavior variation")
	runCmd.Flags().StringVar(&kernelName, "kernel", sim.KernelReference, "Kinematics kernel (reference, vectorized)")
	runCmd.Flags().BoolVar(&parallel, "parallel", false, "Update routes concurrently")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
