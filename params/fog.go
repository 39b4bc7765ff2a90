package params

import "image/color"

// MaxHistorySize bounds the undo log.
const MaxHistorySize = 20

type CompositorConfig struct {
	// RasterBits is log2 of the raster edge length; 9 gives 512x512 rasters.
	RasterBits int
	// FogOpacity is the alpha of unvisited pixels.
	FogOpacity uint8
	// FogColor is painted under the fog alpha mask when rasters are encoded as PNG.
	FogColor color.NRGBA
}

func DefaultCompositorConfig() CompositorConfig {
	return CompositorConfig{
		RasterBits: 9,
		FogOpacity: 0xCC,
		FogColor:   color.NRGBA{R: 0x1A, G: 0x1A, B: 0x2E, A: 0xFF},
	}
}

type RasterCacheConfig struct {
	// MaxEntries bounds the number of cached display tiles.
	MaxEntries int
	// MaxWeight bounds the summed weight of cached rasters, in bytes.
	MaxWeight int
	// SentinelWeight is charged for an all-fog entry, which holds no pixels.
	SentinelWeight int
}

func DefaultRasterCacheConfig() RasterCacheConfig {
	return RasterCacheConfig{
		MaxEntries:     1024,
		MaxWeight:      128 << 20,
		SentinelWeight: 64,
	}
}

type HistoryConfig struct {
	MaxSize int
}

func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{MaxSize: MaxHistorySize}
}

type TrackConfig struct {
	// SearchRadius is the half-width, in pixels, of the square window
	// searched for a track's next point.
	SearchRadius int
	// MaxPoints caps the length of a single track.
	MaxPoints int
}

func DefaultTrackConfig() TrackConfig {
	return TrackConfig{
		SearchRadius: 100,
		MaxPoints:    2000,
	}
}
