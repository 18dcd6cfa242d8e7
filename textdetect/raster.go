package textdetect

import (
	"bytes"
	"image/png"

	"github.com/wudi/gopnik/pageview"
)

func encodeRasterPNG(pv pageview.PageView) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, pv.Raster); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
