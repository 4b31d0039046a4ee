package heatgrid

import (
	"context"
	"io/fs"
	"path"
	"strings"
)

// Load loads a grid from filename in fsys. Files with a .tif or .tiff
// extension are loaded as GeoTIFFs, all others as CSV.
func Load(ctx context.Context, fsys fs.FS, filename string, options ...CSVOption) (*Grid, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".tif", ".tiff":
		return LoadGeoTIFF(ctx, fsys, filename)
	default:
		return LoadCSV(ctx, fsys, filename, options...)
	}
}
