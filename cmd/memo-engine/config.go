// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/memo-engine/pkg/types"
)

const defaultUserAgent = "memo-engine/0.1"

// pipelineConfig assembles stage configuration from the config file, the
// environment, and loaded secrets. API keys resolve config values first,
// then the .secrets/ directory.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = "data"
	}

	cfg := types.PipelineConfig{
		Research: types.ResearchConfig{
			AIConfig: types.AIConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:   viper.GetDuration("research.timeout"),
					UserAgent: defaultUserAgent,
				},
				APIKey:     secretDefault("perplexity-api-key", viper.GetString("research.api_key")),
				BaseURL:    viper.GetString("research.base_url"),
				MaxRetries: viper.GetInt("research.max_retries"),
			},
		},
		Embedding: types.EmbeddingConfig{
			AIConfig: types.AIConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:   viper.GetDuration("embedding.timeout"),
					UserAgent: defaultUserAgent,
				},
				Model:      viper.GetString("embedding.model"),
				APIKey:     secretDefault("openai-api-key", viper.GetString("embedding.api_key")),
				BaseURL:    viper.GetString("embedding.base_url"),
				MaxRetries: viper.GetInt("embedding.max_retries"),
			},
			Dimensions: viper.GetInt("embedding.dimensions"),
			BatchSize:  viper.GetInt("embedding.batch_size"),
		},
		Generation: types.GenerationConfig{
			AIConfig: types.AIConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:   viper.GetDuration("generation.timeout"),
					UserAgent: defaultUserAgent,
				},
				Model:      viper.GetString("generation.model"),
				APIKey:     secretDefault("openai-api-key", viper.GetString("generation.api_key")),
				BaseURL:    viper.GetString("generation.base_url"),
				MaxRetries: viper.GetInt("generation.max_retries"),
			},
			TopK:        viper.GetInt("generation.top_k"),
			PromptsFile: viper.GetString("generation.prompts_file"),
			OutputDir:   viper.GetString("generation.output_dir"),
		},
		Store: types.StoreConfig{
			DataDir: dataDir,
		},
	}

	if cfg.Generation.OutputDir == "" {
		cfg.Generation.OutputDir = "output/memos"
	}

	return cfg
}
