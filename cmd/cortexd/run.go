package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/cortexlab/cortexlab/pkg/cmd"
	"github.com/cortexlab/cortexlab/pkg/config"
	"github.com/cortexlab/cortexlab/pkg/log"
	"github.com/cortexlab/cortexlab/pkg/models"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Create a run, execute it and stream its events",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "kind",
				Usage:    "Pipeline kind (discovery, deep_dive, paper)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "project",
				Usage:   "Project the run belongs to",
				Value:   "default",
				Sources: cli.EnvVars("CORTEXLAB_PROJECT"),
			},
			&cli.StringFlag{
				Name:  "query",
				Usage: "Research topic (discovery)",
			},
			&cli.StringFlag{
				Name:  "direction-id",
				Usage: "Chosen direction ID (deep_dive, paper)",
			},
			&cli.StringFlag{
				Name:  "direction",
				Usage: "Chosen direction title (deep_dive, paper)",
			},
			&cli.StringFlag{
				Name:  "revision-instructions",
				Usage: "Editing instructions or a venue style name (paper)",
			},
			&cli.StringSliceFlag{
				Name:  "experiment-file",
				Usage: "Uploaded experiment result file to include (paper, repeatable)",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cortexd")

	cfg, err := config.FromEnvWith(command.String("database-url"), command.String("redis-url"))
	if err != nil {
		return err
	}

	engine, err := cmd.NewEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := engine.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close engine", "error", err)
		}
	}()

	kind := models.PipelineKind(command.String("kind"))

	run, err := engine.Manager.Start(ctx, command.String("project"), kind, buildRunConfig(command))
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Run started", "run_id", run.ID, "kind", kind)

	engine.Manager.Wait()

	if err := printEvents(ctx, engine, run.ID); err != nil {
		return err
	}

	final, err := engine.Persistence.RunByID(ctx, run.ID)
	if err != nil {
		return err
	}

	if final.Status == models.RunStatusFailed {
		return fmt.Errorf("run %s failed: %s", final.ID, final.ErrorMessage)
	}

	return nil
}

// buildRunConfig maps CLI flags onto the pipeline's configuration shape. The
// catalog validates the result, so missing flags surface as schema errors.
func buildRunConfig(command *cli.Command) models.RunConfig {
	runConfig := models.RunConfig{}

	if query := command.String("query"); query != "" {
		runConfig["topic"] = query
	}

	if title := command.String("direction"); title != "" {
		direction := map[string]any{"title": title}
		if id := command.String("direction-id"); id != "" {
			direction["id"] = id
		}

		runConfig["direction"] = direction
	}

	if instructions := command.String("revision-instructions"); instructions != "" {
		runConfig["revision_instructions"] = instructions
	}

	if files := command.StringSlice("experiment-file"); len(files) > 0 {
		runConfig["experiment_files"] = files
	}

	return runConfig
}

func printEvents(ctx context.Context, engine *cmd.Engine, runID string) error {
	events, err := engine.Manager.StreamEvents(ctx, runID, 0)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)

	for _, event := range events {
		if err := encoder.Encode(event); err != nil {
			return err
		}
	}

	return nil
}
