package main

import (
	"context"
	"fmt"
	"io"

	"github.com/scott-cotton/cli"
	"k8s.io/klog/v2"

	"github.com/born-ml/torchscript"
)

type tensorConfig struct {
	*cli.Command

	Config string `cli:"name=config aliases=c desc='YAML configuration file'"`
	Limit  int    `cli:"name=limit aliases=n desc='maximum number of elements to print'"`
}

func (cfg *tensorConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("%w: usage: tsgraph tensor <archive> <node> <input>", cli.ErrUsage)
	}
	settings, err := loadSettings(cfg.Config)
	if err != nil {
		return err
	}
	if cfg.Limit > 0 {
		settings.Limit = cfg.Limit
	}
	opts, err := settings.loadOptions()
	if err != nil {
		return err
	}

	ctx := klog.NewContext(context.Background(), opts.Logger)
	model, err := openModel(ctx, args[0], opts)
	if err != nil {
		return err
	}
	t, err := findInitializer(model, args[1], args[2])
	if err != nil {
		return err
	}
	return printTensor(cc.Out, t, settings.Limit)
}

// findInitializer returns the tensor bound to input of the node named node.
func findInitializer(model *torchscript.Model, node, input string) (*torchscript.Tensor, error) {
	for _, g := range model.Graphs() {
		for _, n := range g.Nodes {
			if n.Name != node {
				continue
			}
			for _, in := range n.Inputs {
				if in.Name != input {
					continue
				}
				for _, a := range in.Arguments {
					if a.Initializer != nil {
						return a.Initializer, nil
					}
				}
				return nil, fmt.Errorf("input %q of node %q has no initializer", input, node)
			}
			return nil, fmt.Errorf("node %q has no input %q", node, input)
		}
	}
	return nil, fmt.Errorf("no node named %q", node)
}

func printTensor(w io.Writer, t *torchscript.Tensor, limit int) error {
	fmt.Fprintf(w, "%s %s\n", t.Name(), t.Type())
	if state := t.State(); state != "" {
		_, err := fmt.Fprintln(w, state)
		return err
	}
	_, err := fmt.Fprintln(w, t.Format(limit))
	return err
}
