// Command layoutctl applies floor plan layouts kept as YAML files and prints
// rack occupancy.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xelth-com/facilitymap/internal/layoutfile"
)

var (
	serverURL string
	token     string
	dryRun    bool
	file      string
	planID    string
	floorID   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "layoutctl",
		Short:        "Facility map layout tool",
		Long:         `Apply declarative floor plan layouts and inspect rack occupancy`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("FACILITYMAP_URL", "http://localhost:3210"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("FACILITYMAP_TOKEN"), "Access token")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile a floor plan with a layout file",
		RunE:  runApply,
	}
	applyCmd.Flags().StringVarP(&file, "file", "f", "", "Layout file")
	applyCmd.Flags().StringVar(&planID, "plan", "", "Floor plan id (overrides floorPlan in the file)")
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without applying it")
	_ = applyCmd.MarkFlagRequired("file")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print a floor plan and its rack occupancy",
		RunE:  runGet,
	}
	getCmd.Flags().StringVar(&planID, "plan", "", "Floor plan id")
	getCmd.Flags().StringVar(&floorID, "floor", "", "Floor id")

	rootCmd.AddCommand(applyCmd, getCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runApply(cmd *cobra.Command, args []string) error {
	out := newPrinter(dryRun)

	doc, err := layoutfile.LoadFile(file)
	if err != nil {
		out.Error("Failed to load layout", err)
		return err
	}
	id := planID
	if id == "" {
		id = doc.FloorPlan
	}
	if id == "" {
		err := errors.New("no floor plan id: set floorPlan in the file or pass --plan")
		out.Error("Nothing to apply", err)
		return err
	}
	in, err := doc.BulkInput()
	if err != nil {
		out.Error("Invalid layout", err)
		return err
	}

	c := NewClient(serverURL, token)
	current, err := c.FloorPlan(id)
	if err != nil {
		out.Error("Failed to fetch floor plan %s", err, id)
		return err
	}

	d := diff(current, in)
	if d.empty() {
		out.Success("Floor plan %s is up to date", current.Name)
		return nil
	}
	out.Plan(d)
	if dryRun {
		return nil
	}

	fp, err := c.BulkUpdate(id, in)
	if err != nil {
		out.Error("Failed to apply layout", err)
		return err
	}
	out.Success("Applied %s to %s: %d elements, %d racks", file, fp.Name, len(fp.Elements), len(fp.Racks))
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	out := newPrinter(false)
	if (planID == "") == (floorID == "") {
		err := errors.New("exactly one of --plan or --floor is required")
		out.Error("Invalid arguments", err)
		return err
	}

	c := NewClient(serverURL, token)
	fetch := func() (string, error) {
		if planID != "" {
			fp, err := c.FloorPlan(planID)
			if err != nil {
				return planID, err
			}
			out.FloorPlan(fp)
			return planID, nil
		}
		fp, err := c.FloorPlanOfFloor(floorID)
		if err != nil {
			return floorID, err
		}
		out.FloorPlan(fp)
		return floorID, nil
	}
	if id, err := fetch(); err != nil {
		out.Error("Failed to fetch floor plan for %s", err, id)
		return fmt.Errorf("get %s: %w", id, err)
	}
	return nil
}
