// Package main provides the placementctl CLI entry point.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/orneryd/ensembleplacement/pkg/config"
	"github.com/orneryd/ensembleplacement/pkg/placement"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "placementctl",
		Short: "placementctl - ad-hoc driver for the ensemble placement core",
		Long: `placementctl exercises the ensemble placement core against a
manually supplied cluster view, for operators diagnosing placement
decisions without a running storage cluster.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("placementctl v%s\n", version)
		},
	})

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Build a new ensemble from a cluster description",
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().StringSlice("writable", nil, "comma-separated writable node addresses")
	ensembleCmd.Flags().StringSlice("readonly", nil, "comma-separated read-only node addresses")
	ensembleCmd.Flags().Int("e", 3, "ensemble size")
	ensembleCmd.Flags().Int("w", 2, "write quorum size")
	ensembleCmd.Flags().Int("a", 2, "ack quorum size")
	ensembleCmd.Flags().String("local", "", "local node address")
	rootCmd.AddCommand(ensembleCmd)

	replaceCmd := &cobra.Command{
		Use:   "replace",
		Short: "Find a replacement for a bookie in an existing ensemble",
		RunE:  runReplace,
	}
	replaceCmd.Flags().StringSlice("writable", nil, "comma-separated writable node addresses")
	replaceCmd.Flags().StringSlice("readonly", nil, "comma-separated read-only node addresses")
	replaceCmd.Flags().StringSlice("ensemble", nil, "comma-separated current ensemble addresses, in order")
	replaceCmd.Flags().String("victim", "", "address to replace")
	replaceCmd.Flags().Int("w", 2, "write quorum size")
	replaceCmd.Flags().Int("a", 2, "ack quorum size")
	rootCmd.AddCommand(replaceCmd)

	reorderCmd := &cobra.Command{
		Use:   "reorder",
		Short: "Reorder an ensemble for a read",
		RunE:  runReorder,
	}
	reorderCmd.Flags().StringSlice("writable", nil, "comma-separated writable node addresses")
	reorderCmd.Flags().StringSlice("readonly", nil, "comma-separated read-only node addresses")
	reorderCmd.Flags().StringSlice("ensemble", nil, "comma-separated ensemble addresses, in order")
	reorderCmd.Flags().IntSlice("write-set", nil, "comma-separated indices into --ensemble to reorder; defaults to the whole ensemble")
	reorderCmd.Flags().String("local", "", "local node address")
	reorderCmd.Flags().Bool("lac", false, "reorder for a read-last-add-confirmed probe instead of a data read")
	rootCmd.AddCommand(reorderCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newCore wires a Core over a no-op resolver: placementctl never resolves
// addresses through DNS, it only reports how the selectors behave given
// the default-rack fallback.
func newCore(local string) (*placement.Core, error) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core, err := placement.NewCore(cfg, nil, nil, local, nil)
	if err != nil {
		return nil, err
	}
	core.SetReporter(placement.NewLogReporter())
	return core, core.Initialize()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	writable, _ := cmd.Flags().GetStringSlice("writable")
	readonly, _ := cmd.Flags().GetStringSlice("readonly")
	e, _ := cmd.Flags().GetInt("e")
	w, _ := cmd.Flags().GetInt("w")
	a, _ := cmd.Flags().GetInt("a")
	local, _ := cmd.Flags().GetString("local")

	core, err := newCore(local)
	if err != nil {
		return err
	}
	defer core.Uninitialize()

	if err := core.OnClusterChanged(writable, readonly); err != nil {
		return err
	}

	requestID := uuid.New().String()
	ensemble, err := core.NewEnsemble(e, w, a, nil)
	if err != nil {
		return fmt.Errorf("request %s: %w", requestID, err)
	}

	fmt.Printf("request %s: ensemble = %s\n", requestID, strings.Join(ensemble, ", "))
	return nil
}

func runReplace(cmd *cobra.Command, args []string) error {
	writable, _ := cmd.Flags().GetStringSlice("writable")
	readonly, _ := cmd.Flags().GetStringSlice("readonly")
	ensemble, _ := cmd.Flags().GetStringSlice("ensemble")
	victim, _ := cmd.Flags().GetString("victim")
	w, _ := cmd.Flags().GetInt("w")
	a, _ := cmd.Flags().GetInt("a")

	core, err := newCore("")
	if err != nil {
		return err
	}
	defer core.Uninitialize()

	if err := core.OnClusterChanged(writable, readonly); err != nil {
		return err
	}

	requestID := uuid.New().String()
	replacement, err := core.ReplaceBookie(ensemble, victim, len(ensemble), w, a, nil)
	if err != nil {
		return fmt.Errorf("request %s: %w", requestID, err)
	}

	fmt.Printf("request %s: replacement for %s = %s\n", requestID, victim, replacement)
	return nil
}

func runReorder(cmd *cobra.Command, args []string) error {
	writable, _ := cmd.Flags().GetStringSlice("writable")
	readonly, _ := cmd.Flags().GetStringSlice("readonly")
	ensemble, _ := cmd.Flags().GetStringSlice("ensemble")
	writeSet, _ := cmd.Flags().GetIntSlice("write-set")
	local, _ := cmd.Flags().GetString("local")
	lac, _ := cmd.Flags().GetBool("lac")

	if len(writeSet) == 0 {
		writeSet = make([]int, len(ensemble))
		for i := range ensemble {
			writeSet[i] = i
		}
	}

	core, err := newCore(local)
	if err != nil {
		return err
	}
	defer core.Uninitialize()

	if err := core.OnClusterChanged(writable, readonly); err != nil {
		return err
	}

	requestID := uuid.New().String()
	var reordered []int
	if lac {
		reordered, err = core.ReorderReadLACSequence(ensemble, writeSet)
	} else {
		reordered, err = core.ReorderReadSequence(ensemble, writeSet)
	}
	if err != nil {
		return fmt.Errorf("request %s: %w", requestID, err)
	}

	addrs := make([]string, len(reordered))
	for i, idx := range reordered {
		addrs[i] = ensemble[idx]
	}
	fmt.Printf("request %s: reordered = %s\n", requestID, strings.Join(addrs, ", "))
	return nil
}
