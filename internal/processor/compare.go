package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/openlands/preservemap/internal/geo"
)

const (
	panelSize    = 640
	panelGap     = 8
	tileSize     = 256
	outlineWidth = 2
)

var (
	beforeColor = color.RGBA{R: 220, A: 255}
	afterColor  = color.RGBA{G: 160, A: 255}
	missingTile = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// renderComparisons writes one before/after image per preserve for visual
// QA. Failures are per-feature and never stop the batch.
func (p *Pipeline) renderComparisons(raw, processed *geojson.FeatureCollection) {
	outDir := filepath.Join(p.opts.OutputDir, comparisonDir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Error().Err(err).Str("path", outDir).Msg("Failed to create comparison directory")
		return
	}

	for i, f := range raw.Features {
		if i >= len(processed.Features) {
			break
		}
		name := featureName(f)

		img, err := p.renderComparison(f.Geometry, processed.Features[i].Geometry)
		if err != nil {
			log.Warn().Err(err).Str("preserve", name).Msg("Could not render comparison image")
			continue
		}

		path := filepath.Join(outDir, geo.Slug(name)+"."+p.opts.ImageFormat)
		if err := saveImage(path, img, p.opts.ImageFormat); err != nil {
			log.Warn().Err(err).Str("preserve", name).Msg("Could not save comparison image")
			continue
		}

		log.Debug().Str("path", path).Msg("Comparison image saved")
	}

	log.Info().Str("dir", outDir).Msg("Comparison images generated")
}

// renderComparison renders the original outline on the left panel and the
// processed outline on the right, both over the same basemap extent.
func (p *Pipeline) renderComparison(before, after orb.Geometry) (image.Image, error) {
	bound := paddedBound(before.Bound())
	zoom := p.fitZoom(bound)

	x0, yBottom := geo.TileFraction(bound.Min[0], bound.Min[1], zoom)
	x1, yTop := geo.TileFraction(bound.Max[0], bound.Max[1], zoom)
	x0, y0, x1, y1 := squareExtent(x0, yTop, x1, yBottom)

	left, err := p.renderPanel(before, x0, y0, x1, y1, zoom, beforeColor)
	if err != nil {
		return nil, err
	}
	right, err := p.renderPanel(after, x0, y0, x1, y1, zoom, afterColor)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, panelSize*2+panelGap, panelSize))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, panelSize, panelSize), left, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(panelSize+panelGap, 0, panelSize*2+panelGap, panelSize), right, image.Point{}, draw.Src)

	return out, nil
}

// renderPanel draws one geometry outline over the basemap extent given in
// fractional tile coordinates.
func (p *Pipeline) renderPanel(g orb.Geometry, x0, y0, x1, y1 float64, zoom int, col color.RGBA) (*image.RGBA, error) {
	tx0, ty0 := int(math.Floor(x0)), int(math.Floor(y0))
	tx1, ty1 := int(math.Floor(x1)), int(math.Floor(y1))

	mosaic := p.fetchBasemap(zoom, tx0, ty0, tx1, ty1)

	crop := image.Rect(
		int((x0-float64(tx0))*tileSize), int((y0-float64(ty0))*tileSize),
		int((x1-float64(tx0))*tileSize), int((y1-float64(ty0))*tileSize),
	)

	panel := image.NewRGBA(image.Rect(0, 0, panelSize, panelSize))
	xdraw.CatmullRom.Scale(panel, panel.Bounds(), mosaic, crop, draw.Src, nil)

	toPx := func(pt orb.Point) (float64, float64) {
		fx, fy := geo.TileFraction(pt[0], pt[1], zoom)
		return (fx - x0) / (x1 - x0) * panelSize, (fy - y0) / (y1 - y0) * panelSize
	}
	drawOutline(panel, g, toPx, col)

	return panel, nil
}

// fetchBasemap assembles tiles into a mosaic. Tiles that fail to load
// stay as the neutral backdrop.
func (p *Pipeline) fetchBasemap(zoom, tx0, ty0, tx1, ty1 int) *image.RGBA {
	mosaic := image.NewRGBA(image.Rect(0, 0, (tx1-tx0+1)*tileSize, (ty1-ty0+1)*tileSize))
	draw.Draw(mosaic, mosaic.Bounds(), image.NewUniform(missingTile), image.Point{}, draw.Src)

	n := 1 << zoom
	for tx := tx0; tx <= tx1; tx++ {
		for ty := ty0; ty <= ty1; ty++ {
			if tx < 0 || ty < 0 || tx >= n || ty >= n {
				continue
			}

			img, err := p.fetchTile(zoom, tx, ty)
			if err != nil {
				log.Trace().Err(err).Int("z", zoom).Int("x", tx).Int("y", ty).Msg("Failed to fetch basemap tile")
				continue
			}

			rect := image.Rect((tx-tx0)*tileSize, (ty-ty0)*tileSize, (tx-tx0+1)*tileSize, (ty-ty0+1)*tileSize)
			xdraw.ApproxBiLinear.Scale(mosaic, rect, img, img.Bounds(), draw.Src, nil)
		}
	}

	return mosaic
}

func (p *Pipeline) fetchTile(z, x, y int) (image.Image, error) {
	req, err := http.NewRequest(http.MethodGet, tileURL(p.cfg.Basemap.URL, z, x, y), nil)
	if err != nil {
		return nil, err
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return img, nil
}

func tileURL(tpl string, z, x, y int) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(x))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(y))
	return s
}

// fitZoom picks the smallest zoom whose tile extent covers a panel, so
// the basemap is scaled down rather than up.
func (p *Pipeline) fitZoom(bound orb.Bound) int {
	maxZoom := p.cfg.Basemap.MaxZoom
	if maxZoom <= 0 {
		maxZoom = 17
	}

	for z := 0; z < maxZoom; z++ {
		x0, yBottom := geo.TileFraction(bound.Min[0], bound.Min[1], z)
		x1, yTop := geo.TileFraction(bound.Max[0], bound.Max[1], z)
		if math.Max(x1-x0, yBottom-yTop)*tileSize >= panelSize {
			return z
		}
	}

	return maxZoom
}

// paddedBound adds a margin around the preserve so the outline does not
// touch the panel edges.
func paddedBound(b orb.Bound) orb.Bound {
	pad := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]) * 0.1
	if pad < 0.001 {
		pad = 0.001
	}
	return geo.Expand(b, pad)
}

// squareExtent pads the shorter axis so the rendered area is square in
// projected space and the panel keeps the map's aspect ratio.
func squareExtent(x0, y0, x1, y1 float64) (float64, float64, float64, float64) {
	w, h := x1-x0, y1-y0
	if w > h {
		pad := (w - h) / 2
		y0 -= pad
		y1 += pad
	} else {
		pad := (h - w) / 2
		x0 -= pad
		x1 += pad
	}

	if x1-x0 < 1e-9 {
		x0 -= 0.5
		x1 += 0.5
		y0 -= 0.5
		y1 += 0.5
	}

	return x0, y0, x1, y1
}

func drawOutline(img *image.RGBA, g orb.Geometry, toPx func(orb.Point) (float64, float64), col color.RGBA) {
	switch g := g.(type) {
	case orb.Ring:
		drawPath(img, []orb.Point(g), toPx, col)
	case orb.LineString:
		drawPath(img, []orb.Point(g), toPx, col)
	case orb.MultiLineString:
		for _, ls := range g {
			drawPath(img, []orb.Point(ls), toPx, col)
		}
	case orb.Polygon:
		for _, ring := range g {
			drawPath(img, []orb.Point(ring), toPx, col)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			drawOutline(img, poly, toPx, col)
		}
	case orb.Collection:
		for _, member := range g {
			drawOutline(img, member, toPx, col)
		}
	}
}

func drawPath(img *image.RGBA, pts []orb.Point, toPx func(orb.Point) (float64, float64), col color.RGBA) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := toPx(pts[i-1])
		x1, y1 := toPx(pts[i])
		drawSegment(img, x0, y0, x1, y1, col)
	}
}

func drawSegment(img *image.RGBA, x0, y0, x1, y1 float64, col color.RGBA) {
	steps := int(math.Hypot(x1-x0, y1-y0)) + 1

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := int(x0 + (x1-x0)*t)
		py := int(y0 + (y1-y0)*t)

		for dx := 0; dx < outlineWidth; dx++ {
			for dy := 0; dy < outlineWidth; dy++ {
				if (image.Point{X: px + dx, Y: py + dy}).In(img.Bounds()) {
					img.SetRGBA(px+dx, py+dy, col)
				}
			}
		}
	}
}

func saveImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if format == "webp" {
		return webp.Encode(f, img, &webp.Options{Lossless: false, Quality: 85})
	}
	return png.Encode(f, img)
}
