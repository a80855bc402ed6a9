package main

import (
	"github.com/scott-cotton/cli"
)

const version = "v0.1.0-dev"

const usageText = `tsgraph - inspect TorchScript archives

Archives are read from local files or from gs://bucket/object.

Examples:
  tsgraph show model.pt
  tsgraph show -attrs gs://models/resnet18.pt
  tsgraph tensor model.pt features.0 weight
  tsgraph ops`

// Root returns the root command for tsgraph.
func Root() *cli.Command {
	return cli.NewCommand("tsgraph").
		WithSynopsis("tsgraph command [opts] [args]").
		WithDescription(usageText).
		WithSubs(
			ShowCommand(),
			TensorCommand(),
			OpsCommand(),
			VersionCommand(),
		)
}

// ShowCommand returns the show subcommand.
func ShowCommand() *cli.Command {
	cfg := &showConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "show").
		WithAliases("s").
		WithSynopsis("show [opts] <archive>...").
		WithDescription("print the graph of each archive").
		WithOpts(opts...).
		WithRun(cfg.run)
}

// TensorCommand returns the tensor subcommand.
func TensorCommand() *cli.Command {
	cfg := &tensorConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "tensor").
		WithAliases("t").
		WithSynopsis("tensor [opts] <archive> <node> <input>").
		WithDescription("print the initializer bound to a node input").
		WithOpts(opts...).
		WithRun(cfg.run)
}

// OpsCommand returns the ops subcommand.
func OpsCommand() *cli.Command {
	cfg := &opsConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "ops").
		WithSynopsis("ops [opts]").
		WithDescription("list the operators recorded by the tracer").
		WithOpts(opts...).
		WithRun(cfg.run)
}

// VersionCommand returns the version subcommand.
func VersionCommand() *cli.Command {
	cfg := &versionConfig{}
	return cli.NewCommandAt(&cfg.Command, "version").
		WithSynopsis("version").
		WithDescription("print the tsgraph version").
		WithRun(cfg.run)
}
