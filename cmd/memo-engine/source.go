// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/memo-engine/internal/research"
	"github.com/pdiddy/memo-engine/internal/store"
	"github.com/pdiddy/memo-engine/pkg/types"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage gathered company data (gather, import, list, show)",
	Long: `Source manages the raw company data memos are generated from. Gather runs
web research against the Perplexity API; import loads pre-gathered data from
a YAML or JSON file. Stored sources are immutable.`,
}

// --- gather subcommand ---

var sourceGatherCmd = &cobra.Command{
	Use:   "gather",
	Short: "Research a company and store the results as a source record",
	Long: `Gather runs every research and statistics category for a company and
stores the combined results. Individual category failures are recorded in
the source record without failing the gather. CRM data can be merged in
from a YAML or JSON file via --crm.`,
	RunE: runSourceGather,
}

func runSourceGather(cmd *cobra.Command, args []string) error {
	companyName, _ := cmd.Flags().GetString("company")
	if companyName == "" {
		return fmt.Errorf("provide a company name via --company")
	}
	companyID, _ := cmd.Flags().GetString("company-id")
	crmFile, _ := cmd.Flags().GetString("crm")

	var crm map[string]any
	if crmFile != "" {
		var err error
		crm, err = loadCRMFile(crmFile)
		if err != nil {
			return err
		}
	}

	cfg := pipelineConfig(cmd)

	client, err := research.NewClient(cfg.Research)
	if err != nil {
		return err
	}

	rec, err := research.NewGatherer(client).Gather(context.Background(), companyName, companyID, crm, os.Stdout)
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.CreateSource(context.Background(), rec)
	if err != nil {
		return err
	}

	fmt.Printf("Stored source %d for %s\n", id, companyName)
	if !rec.HasResearch() {
		fmt.Println("Warning: no research categories succeeded; memo generation will fail for this source")
	}
	return nil
}

// loadCRMFile reads a CRM field map from a YAML or JSON file.
func loadCRMFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CRM file: %w", err)
	}

	var crm map[string]any
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &crm)
	} else {
		err = yaml.Unmarshal(data, &crm)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing CRM file %s: %w", path, err)
	}
	return crm, nil
}

// --- import subcommand ---

var sourceImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a pre-gathered source record from a YAML or JSON file",
	Long: `Import loads a complete source record (company name, CRM data, research
and statistics categories) from a file and stores it. Useful for data
gathered outside this tool or for replaying fixtures.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourceImport,
}

func runSourceImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading source file: %w", err)
	}

	var rec types.SourceRecord
	if strings.HasSuffix(args[0], ".json") {
		err = json.Unmarshal(data, &rec)
	} else {
		err = yaml.Unmarshal(data, &rec)
	}
	if err != nil {
		return fmt.Errorf("parsing source file %s: %w", args[0], err)
	}
	if rec.CompanyName == "" {
		return fmt.Errorf("source file %s has no company_name", args[0])
	}

	cfg := pipelineConfig(cmd)
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.CreateSource(context.Background(), &rec)
	if err != nil {
		return err
	}

	fmt.Printf("Imported source %d for %s\n", id, rec.CompanyName)
	return nil
}

// --- list subcommand ---

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored source records",
	RunE:  runSourceList,
}

func runSourceList(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListSources(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No sources stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %-30s  %-10s  %-10s  %s\n",
		"ID", "Company", "Research", "Stats", "Created")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, rec := range records {
		name := rec.CompanyName
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-6d  %-30s  %-10d  %-10d  %s\n",
			rec.ID, name, successCount(rec.Research), successCount(rec.Statistics),
			rec.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// successCount counts categories whose search succeeded.
func successCount(categories map[string]types.ResearchResult) int {
	n := 0
	for _, r := range categories {
		if r.SearchSuccessful {
			n++
		}
	}
	return n
}

// --- show subcommand ---

var sourceShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored source record",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceShow,
}

func runSourceShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid source ID %q", args[0])
	}

	cfg := pipelineConfig(cmd)
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.GetSource(context.Background(), id)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Source %d: %s\n", rec.ID, rec.CompanyName)
	if rec.CompanyID != "" {
		fmt.Printf("CRM ID: %s\n", rec.CompanyID)
	}
	fmt.Printf("Gathered: %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
	printCategorySummary("Research", rec.Research)
	printCategorySummary("Statistics", rec.Statistics)
	return nil
}

func printCategorySummary(label string, categories map[string]types.ResearchResult) {
	if len(categories) == 0 {
		return
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%s:\n", label)
	for _, name := range names {
		r := categories[name]
		if r.SearchSuccessful {
			fmt.Printf("  %-28s ok (%d citations, %d chars)\n", name, len(r.Citations), len(r.Content))
		} else {
			fmt.Printf("  %-28s failed: %s\n", name, r.Error)
		}
	}
}

func init() {
	sourceGatherCmd.Flags().String("company", "", "company name to research")
	sourceGatherCmd.Flags().String("company-id", "", "CRM identifier for the company")
	sourceGatherCmd.Flags().String("crm", "", "YAML or JSON file with CRM fields to merge")

	sourceShowCmd.Flags().Bool("json", false, "output the full record as JSON")

	sourceCmd.AddCommand(sourceGatherCmd)
	sourceCmd.AddCommand(sourceImportCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceShowCmd)

	rootCmd.AddCommand(sourceCmd)
}
