package common

// SlippyZoomLevelT is a slippy map zoom level.
type SlippyZoomLevelT int

// Zoom levels the fog grid is built on.
const (
	// SlippyZoomLevel0 is the whole world in one tile.
	SlippyZoomLevel0 SlippyZoomLevelT = 0
	// SlippyZoomLevel9 holds storage tiles, about a metropolitan area each.
	SlippyZoomLevel9 SlippyZoomLevelT = 9
	// SlippyZoomLevel16 holds blocks, about a street each.
	SlippyZoomLevel16 SlippyZoomLevelT = 16
	// SlippyZoomLevel22 is the fog pixel resolution, about 4cm at the equator.
	SlippyZoomLevel22 SlippyZoomLevelT = 22
)

// SlippyZoomLevelMin and SlippyZoomLevelMax bound every zoom
// the fog grid can address; the max is the pixel zoom.
const (
	SlippyZoomLevelMin = SlippyZoomLevel0
	SlippyZoomLevelMax = SlippyZoomLevel22
)

// ClampZoom clamps z into [SlippyZoomLevelMin, SlippyZoomLevelMax].
// Out of range zooms would otherwise overflow the shift arithmetic
// and silently address the wrong tile.
func ClampZoom(z int) int {
	if z < int(SlippyZoomLevelMin) {
		return int(SlippyZoomLevelMin)
	}
	if z > int(SlippyZoomLevelMax) {
		return int(SlippyZoomLevelMax)
	}
	return z
}

func (z SlippyZoomLevelT) Clamp() SlippyZoomLevelT {
	return SlippyZoomLevelT(ClampZoom(int(z)))
}
