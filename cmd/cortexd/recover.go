package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/cortexlab/cortexlab/pkg/cmd"
	"github.com/cortexlab/cortexlab/pkg/config"
	"github.com/cortexlab/cortexlab/pkg/log"
)

func recoverCommand() *cli.Command {
	return &cli.Command{
		Name:   "recover",
		Usage:  "Fail runs left pending or running by a previous process",
		Action: recoverAction,
	}
}

func recoverAction(ctx context.Context, command *cli.Command) error {
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

	recovered, err := engine.Manager.RecoverStaleRuns(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Failed %d orphaned run(s)\n", recovered)

	return nil
}
