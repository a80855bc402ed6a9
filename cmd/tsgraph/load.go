package main

import (
	"context"
	"fmt"

	"github.com/born-ml/torchscript"
	"github.com/born-ml/torchscript/internal/blobs"
)

func openModel(ctx context.Context, location string, opts torchscript.LoadOptions) (*torchscript.Model, error) {
	loc, err := blobs.ParseLocation(location)
	if err != nil {
		return nil, err
	}
	data, err := blobs.Read(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", loc, err)
	}
	return torchscript.OpenBytes(loc.Base(), data, opts)
}
