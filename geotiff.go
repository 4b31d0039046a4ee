package heatgrid

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"golang.org/x/image/tiff/lzw"

	"github.com/twpayne/go-heatgrid/internal/ctxlog"
)

const noDataBits = 0xff7fffff

var (
	errShortRead = errors.New("short read")
	noData       = math.Float32frombits(noDataBits)
)

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth                uint16    `tiff:"field,tag=256"`
	ImageLength               uint16    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

type readAtReadSeeker interface {
	io.ReaderAt
	io.ReadSeeker
}

// A geoTIFFReader reads the tiles of a single band float32 GeoTIFF.
type geoTIFFReader struct {
	r                         io.ReaderAt
	imageWidth                int
	imageLength               int
	tileWidth                 int
	tileLength                int
	tilesAcross               int
	tilesDown                 int
	tileOffsets               []uint64
	tileByteCounts            []uint64
	tileSampleCount           int
	tileByteCountUncompressed int
	srid                      int
}

// LoadGeoTIFF loads a grid from the GeoTIFF file filename in fsys. Only
// single band, tiled, LZW-compressed, float32 files are supported. No data
// samples are represented by NaNs.
func LoadGeoTIFF(ctx context.Context, fsys fs.FS, filename string) (*Grid, error) {
	g, err := loadGeoTIFF(ctx, fsys, filename)
	if err != nil {
		gridLoadFailures.WithLabelValues("geotiff").Inc()
		return nil, err
	}
	gridsLoaded.WithLabelValues("geotiff").Inc()
	return g, nil
}

func loadGeoTIFF(ctx context.Context, fsys fs.FS, filename string) (*Grid, error) {
	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rs, ok := file.(readAtReadSeeker)
	if !ok {
		return nil, fmt.Errorf("%s: %w", filename, errors.ErrUnsupported)
	}

	f, err := newGeoTIFFReader(rs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	values := make([]float64, f.imageWidth*f.imageLength)
	for r := range f.tilesDown {
		for c := range f.tilesAcross {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tileSamples, err := f.getTileSamples(TileCoord{C: c, R: r})
			if err != nil {
				return nil, fmt.Errorf("%s: tile %d,%d: %w", filename, c, r, err)
			}
			f.copyTileSamples(values, TileCoord{C: c, R: r}, tileSamples)
		}
	}

	ctxlog.FromContext(ctx).Debug("loaded grid",
		"filename", filename,
		"rows", f.imageLength,
		"cols", f.imageWidth,
		"srid", f.srid,
	)

	g, err := NewGrid(f.imageLength, f.imageWidth, values)
	if err != nil {
		return nil, err
	}
	g.srid = f.srid
	return g, nil
}

func newGeoTIFFReader(r readAtReadSeeker) (*geoTIFFReader, error) {
	tiffTIFF, err := tiff.Parse(r, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}

	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, err
	}

	if ifd.BitsPerSample != 32 ||
		ifd.Compression != 5 ||
		ifd.PhotometricInterpretation != 1 ||
		ifd.SamplesPerPixel != 1 ||
		ifd.PlanarConfiguration != 1 ||
		ifd.Predictor != 1 ||
		ifd.SampleFormat != 3 ||
		ifd.TileWidth == 0 || ifd.TileLength == 0 {
		return nil, errors.ErrUnsupported
	}

	f := &geoTIFFReader{
		r:           r,
		imageWidth:  int(ifd.ImageWidth),
		imageLength: int(ifd.ImageLength),
		tileWidth:   int(ifd.TileWidth),
		tileLength:  int(ifd.TileLength),
	}
	f.tilesAcross = (f.imageWidth + f.tileWidth - 1) / f.tileWidth
	f.tilesDown = (f.imageLength + f.tileLength - 1) / f.tileLength
	tilesPerImage := f.tilesAcross * f.tilesDown
	if len(ifd.TileByteCounts) != tilesPerImage || len(ifd.TileOffsets) != tilesPerImage {
		return nil, errors.New("incorrect number of tile byte counts or offsets")
	}
	f.tileOffsets = ifd.TileOffsets
	f.tileByteCounts = ifd.TileByteCounts
	f.tileSampleCount = f.tileWidth * f.tileLength
	f.tileByteCountUncompressed = f.tileSampleCount * int(ifd.BitsPerSample) / 8

	if len(ifd.GeoKeyDirectoryTag) != 0 {
		parsedGeoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
		if err != nil {
			return nil, err
		}
		f.srid = parsedGeoKeys.SRID()
	}

	return f, nil
}

// getCompressedTileData returns the compressed tile data for the tile at
// tileCoord.
func (f *geoTIFFReader) getCompressedTileData(tileCoord TileCoord) ([]byte, error) {
	tileIndex := tileCoord.C + f.tilesAcross*tileCoord.R
	tileByteCount := f.tileByteCounts[tileIndex]
	tileOffset := f.tileOffsets[tileIndex]
	compressedData := make([]byte, tileByteCount)
	switch n, err := f.r.ReadAt(compressedData, int64(tileOffset)); {
	case n == int(tileByteCount):
		return compressedData, nil
	case err != nil:
		return nil, err
	default:
		return nil, errShortRead
	}
}

// decompressTileData decompresses the tile data in compressedData.
func (f *geoTIFFReader) decompressTileData(compressedData []byte) ([]byte, error) {
	tileData := make([]byte, f.tileByteCountUncompressed)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	defer r.Close()
	if _, err := io.ReadFull(r, tileData); err != nil {
		return nil, err
	}
	return tileData, nil
}

// decodeTileData decodes tileData.
func (f *geoTIFFReader) decodeTileData(tileData []byte) []float32 {
	tileSamples := make([]float32, f.tileSampleCount)
	for i := range f.tileSampleCount {
		b := binary.LittleEndian.Uint32(tileData[i*4 : (i+1)*4])
		tileSamples[i] = math.Float32frombits(b)
	}
	return tileSamples
}

// getTileSamples returns the tile samples at tileCoord.
func (f *geoTIFFReader) getTileSamples(tileCoord TileCoord) ([]float32, error) {
	compressedTileData, err := f.getCompressedTileData(tileCoord)
	if err != nil {
		return nil, err
	}
	tileData, err := f.decompressTileData(compressedTileData)
	if err != nil {
		return nil, err
	}
	return f.decodeTileData(tileData), nil
}

// copyTileSamples copies the samples of the tile at tileCoord into values,
// discarding the padding of tiles at the right and bottom edges.
func (f *geoTIFFReader) copyTileSamples(values []float64, tileCoord TileCoord, tileSamples []float32) {
	x0 := tileCoord.C * f.tileWidth
	y0 := tileCoord.R * f.tileLength
	for ty := range min(f.tileLength, f.imageLength-y0) {
		for tx := range min(f.tileWidth, f.imageWidth-x0) {
			sample := tileSamples[tx+ty*f.tileWidth]
			value := float64(sample)
			if sample == noData {
				value = math.NaN()
			}
			values[(y0+ty)*f.imageWidth+x0+tx] = value
		}
	}
}
