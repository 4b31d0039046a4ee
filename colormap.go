package heatgrid

import (
	"fmt"
	"image/color"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultColorMapName is the name of the default color map.
const DefaultColorMapName = "viridis"

var (
	colorTableCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heatgrid_color_table_cache_hits_total",
		Help: "The total number of hits on the color table cache",
	})
	colorTableCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heatgrid_color_table_cache_misses_total",
		Help: "The total number of misses on the color table cache",
	})
)

// viridisControls are samples of the viridis color map at equal intervals.
// Their luminance increases monotonically.
var viridisControls = []color.Color{
	color.NRGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	color.NRGBA{R: 0x48, G: 0x28, B: 0x78, A: 0xff},
	color.NRGBA{R: 0x3e, G: 0x49, B: 0x89, A: 0xff},
	color.NRGBA{R: 0x31, G: 0x68, B: 0x8e, A: 0xff},
	color.NRGBA{R: 0x26, G: 0x82, B: 0x8e, A: 0xff},
	color.NRGBA{R: 0x1f, G: 0x9e, B: 0x89, A: 0xff},
	color.NRGBA{R: 0x35, G: 0xb7, B: 0x79, A: 0xff},
	color.NRGBA{R: 0x6e, G: 0xce, B: 0x58, A: 0xff},
	color.NRGBA{R: 0xb5, G: 0xde, B: 0x2b, A: 0xff},
	color.NRGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// colorMapFuncs returns new color maps by name.
var colorMapFuncs = map[string]func() (palette.ColorMap, error){
	"viridis": func() (palette.ColorMap, error) {
		return moreland.NewLuminance(viridisControls)
	},
	"kindlmann": func() (palette.ColorMap, error) {
		return moreland.Kindlmann(), nil
	},
	"extended-kindlmann": func() (palette.ColorMap, error) {
		return moreland.ExtendedKindlmann(), nil
	},
	"blackbody": func() (palette.ColorMap, error) {
		return moreland.BlackBody(), nil
	},
	"extended-blackbody": func() (palette.ColorMap, error) {
		return moreland.ExtendedBlackBody(), nil
	},
	"smooth-blue-red": func() (palette.ColorMap, error) {
		return moreland.SmoothBlueRed(), nil
	},
}

// ColorMapNames returns the names of the available color maps.
func ColorMapNames() []string {
	names := make([]string, 0, len(colorMapFuncs))
	for name := range colorMapFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewColorMap returns the color map called name over the range [0, 1].
func NewColorMap(name string) (palette.ColorMap, error) {
	colorMapFunc, ok := colorMapFuncs[name]
	if !ok {
		return nil, fmt.Errorf("%s: unknown color map", name)
	}
	colorMap, err := colorMapFunc()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	colorMap.SetMax(1)
	colorMap.SetMin(0)
	colorMap.SetAlpha(1)
	if divergingColorMap, ok := colorMap.(palette.DivergingColorMap); ok {
		divergingColorMap.SetConvergePoint(0.5)
	}
	return colorMap, nil
}

type colorTableKey struct {
	name string
	size int
}

// A ColorTable is a color map sampled at equal intervals over [0, 1].
type ColorTable []color.NRGBA

// NewColorTable returns a new ColorTable with size entries sampled from
// colorMap, which must span [0, 1].
func NewColorTable(colorMap palette.ColorMap, size int) (ColorTable, error) {
	if size < 2 {
		return nil, fmt.Errorf("%d: invalid color table size", size)
	}
	colorTable := make(ColorTable, size)
	for i := range colorTable {
		c, err := colorMap.At(float64(i) / float64(size-1))
		if err != nil {
			return nil, err
		}
		colorTable[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return colorTable, nil
}

// At returns the color for the normalized value v. Values outside [0, 1] are
// clamped. v must not be NaN.
func (t ColorTable) At(v float64) color.NRGBA {
	i := int(min(max(v, 0), 1) * float64(len(t)))
	return t[min(i, len(t)-1)]
}

// A colorTableCache is a cache of color tables.
type colorTableCache struct {
	mutex sync.Mutex
	cache *lru.Cache[colorTableKey, ColorTable]
}

var defaultColorTableCache = mustNewColorTableCache(16)

func mustNewColorTableCache(size int) *colorTableCache {
	cache, err := lru.New[colorTableKey, ColorTable](size)
	if err != nil {
		panic(err)
	}
	return &colorTableCache{
		cache: cache,
	}
}

// get returns the color table for the color map called name with size
// entries, using the cache if possible.
func (c *colorTableCache) get(name string, size int) (ColorTable, error) {
	key := colorTableKey{
		name: name,
		size: size,
	}

	if colorTable, ok := c.cache.Get(key); ok {
		colorTableCacheHits.Inc()
		return colorTable, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if colorTable, ok := c.cache.Get(key); ok {
		colorTableCacheHits.Inc()
		return colorTable, nil
	}

	colorTableCacheMisses.Inc()

	colorMap, err := NewColorMap(name)
	if err != nil {
		return nil, err
	}
	colorTable, err := NewColorTable(colorMap, size)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, colorTable)

	return colorTable, nil
}
