// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/memo-engine/internal/memo"
	"github.com/pdiddy/memo-engine/internal/openai"
	"github.com/pdiddy/memo-engine/internal/rag"
	"github.com/pdiddy/memo-engine/internal/store"
	"github.com/pdiddy/memo-engine/pkg/types"
)

var memoCmd = &cobra.Command{
	Use:   "memo",
	Short: "Generate and compile investment committee memos",
	Long: `Memo runs the generation pipeline against a stored source record:
build or load the company's embedding index, generate every memo section
with retrieved context, unify citations into one global numbering, and
compile the final document.`,
}

// --- generate subcommand ---

var memoGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full memo generation pipeline for a source",
	Long: `Generate creates a memo request for the given source, generates all
sections, unifies citations, and writes the compiled memo to the output
directory. Section failures are recorded and reported; the run continues
past them.`,
	RunE: runMemoGenerate,
}

func runMemoGenerate(cmd *cobra.Command, args []string) error {
	sourceID, _ := cmd.Flags().GetInt64("source")
	if sourceID == 0 {
		return fmt.Errorf("provide a source ID via --source")
	}

	cfg := pipelineConfig(cmd)

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := openai.NewEmbeddingClient(cfg.Embedding)
	if err != nil {
		return err
	}
	textgen, err := openai.NewChatClient(cfg.Generation.AIConfig)
	if err != nil {
		return err
	}
	catalog, err := memo.LoadPrompts(cfg.Generation.PromptsFile)
	if err != nil {
		return err
	}

	builder := rag.NewBuilder(st, embedder, cfg.Embedding.BatchSize)
	retriever := rag.NewRetriever(embedder, cfg.Generation.TopK)
	generator := memo.NewGenerator(st, builder, retriever, textgen, catalog)

	ctx := context.Background()
	result, err := generator.Run(ctx, sourceID, os.Stdout)
	if err != nil {
		return err
	}
	if result.Status == types.RunFailed {
		return fmt.Errorf("memo run %d failed: %s", result.RequestID, result.Error)
	}

	path, err := writeCompiledMemo(ctx, st, result.RequestID, cfg.Generation.OutputDir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// writeCompiledMemo compiles a request and writes it to
// outputDir/memo-<request-id>.md.
func writeCompiledMemo(ctx context.Context, st *store.Store, requestID int64, outputDir string) (string, error) {
	document, err := memo.CompileMemo(ctx, st, requestID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("memo-%d.md", requestID))
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("writing memo: %w", err)
	}
	return path, nil
}

// --- compile subcommand ---

var memoCompileCmd = &cobra.Command{
	Use:   "compile [request-id]",
	Short: "Recompile the memo document for an existing request",
	Long: `Compile re-assembles the final memo from the stored sections of a
request. Compilation is read-only and idempotent, so it can be re-run at
any time, including after partial generation runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runMemoCompile,
}

func runMemoCompile(cmd *cobra.Command, args []string) error {
	requestID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request ID %q", args[0])
	}

	cfg := pipelineConfig(cmd)
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if _, err := st.GetMemoRequest(ctx, requestID); err != nil {
		return err
	}

	stdout, _ := cmd.Flags().GetBool("stdout")
	if stdout {
		document, err := memo.CompileMemo(ctx, st, requestID)
		if err != nil {
			return err
		}
		fmt.Println(document)
		return nil
	}

	path, err := writeCompiledMemo(ctx, st, requestID, cfg.Generation.OutputDir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// --- sections subcommand ---

var memoSectionsCmd = &cobra.Command{
	Use:   "sections [request-id]",
	Short: "Show section statuses for a memo request",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoSections,
}

func runMemoSections(cmd *cobra.Command, args []string) error {
	requestID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request ID %q", args[0])
	}

	cfg := pipelineConfig(cmd)
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	req, err := st.GetMemoRequest(ctx, requestID)
	if err != nil {
		return err
	}
	sections, err := st.SectionsByRequest(ctx, requestID)
	if err != nil {
		return err
	}

	fmt.Printf("Request %d: %s (%s)\n", req.ID, req.CompanyName, req.Status)
	if req.ErrorLog != "" {
		fmt.Printf("Error: %s\n", req.ErrorLog)
	}
	if len(sections) == 0 {
		fmt.Println("No sections.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n%-32s  %-10s  %-8s  %s\n", "Section", "Status", "Sources", "Detail")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, sec := range sections {
		detail := fmt.Sprintf("%d chars", len(sec.Content))
		if sec.Status == types.SectionFailed {
			detail = sec.ErrorLog
		}
		fmt.Fprintf(os.Stdout, "%-32s  %-10s  %-8d  %s\n",
			sec.Name, sec.Status, len(sec.Sources), detail)
	}
	return nil
}

func init() {
	memoGenerateCmd.Flags().Int64("source", 0, "source record ID to generate from")

	memoCompileCmd.Flags().Bool("stdout", false, "print the compiled memo instead of writing a file")

	memoCmd.AddCommand(memoGenerateCmd)
	memoCmd.AddCommand(memoCompileCmd)
	memoCmd.AddCommand(memoSectionsCmd)

	rootCmd.AddCommand(memoCmd)
}
