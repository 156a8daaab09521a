// File: internal/cli/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package cli defines the Cobra commands of poolbench.

package cli

import (
	goflag "flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var version = "dev" // set via ldflags at build time

// NewRootCommand builds the command tree. out receives command output.
func NewRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "poolbench",
		Short: "Compare hioload-pool execution strategies",
		Long: `poolbench pushes the same workload through each thread pool strategy
and reports submission time, completion time and per-worker job counts.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(out)

	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	root.AddCommand(newRunCommand())
	root.AddCommand(newStrategiesCommand())
	root.AddCommand(newConfigCommand())
	return root
}

// Execute runs the root command. Called from main.
func Execute() {
	defer klog.Flush()
	if err := NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		klog.Flush()
		os.Exit(1)
	}
}
