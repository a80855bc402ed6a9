package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/scott-cotton/cli"

	"github.com/born-ml/torchscript"
)

type opsConfig struct {
	*cli.Command

	Config string `cli:"name=config aliases=c desc='YAML configuration file'"`
}

func (cfg *opsConfig) run(cc *cli.Context, args []string) error {
	_, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	settings, err := loadSettings(cfg.Config)
	if err != nil {
		return err
	}
	opts, err := settings.loadOptions()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	for _, op := range torchscript.ListSupportedOps() {
		category := ""
		if s := opts.Metadata.Schema(strings.TrimPrefix(op, "torch.")); s != nil {
			category = s.Category
		}
		fmt.Fprintf(tw, "%s\t%s\n", op, category)
	}
	return tw.Flush()
}

type versionConfig struct {
	*cli.Command
}

func (cfg *versionConfig) run(cc *cli.Context, args []string) error {
	if _, err := cfg.Parse(cc, args); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cc.Out, "tsgraph %s\n", version)
	return err
}
