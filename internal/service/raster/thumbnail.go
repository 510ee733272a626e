package raster

import (
	"StrokeRecorder/internal/model"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultSurfaceSize   = 200
	DefaultThumbnailSize = 80
	DefaultStrokeWidth   = 5.0
)

// areaKernel — прямоугольное ядро: при уменьшении каждый пиксель миниатюры
// усредняет покрываемую им область исходной поверхности.
var areaKernel = &xdraw.Kernel{Support: 0.5, At: func(float64) float64 { return 1 }}

// Renderer рисует штрихи символа в миниатюру фиксированного размера.
type Renderer struct {
	SurfaceWidth  int     // ширина поверхности захвата, px
	SurfaceHeight int     // высота поверхности захвата, px
	ThumbnailSize int     // сторона квадратной миниатюры, px
	StrokeWidth   float64 // толщина линии на поверхности захвата
}

// NewRenderer возвращает рендерер с размерами по умолчанию (200×200 → 80×80, линия 5px).
func NewRenderer() Renderer {
	return Renderer{
		SurfaceWidth:  DefaultSurfaceSize,
		SurfaceHeight: DefaultSurfaceSize,
		ThumbnailSize: DefaultThumbnailSize,
		StrokeWidth:   DefaultStrokeWidth,
	}
}

// Thumbnail рисует каждый штрих ломаной с круглыми концами и стыками на черновой поверхности
// исходного размера и уменьшает её до ThumbnailSize×ThumbnailSize. Фон прозрачный, чернила чёрные.
func (r Renderer) Thumbnail(strokes []model.Stroke) (*image.RGBA, error) {
	if r.SurfaceWidth <= 0 || r.SurfaceHeight <= 0 || r.ThumbnailSize <= 0 {
		return nil, fmt.Errorf("raster: invalid sizes surface=%dx%d thumbnail=%d", r.SurfaceWidth, r.SurfaceHeight, r.ThumbnailSize)
	}

	dc := gg.NewContext(r.SurfaceWidth, r.SurfaceHeight)
	defer dc.Close()

	dc.SetColor(color.Black)
	dc.SetLineWidth(r.StrokeWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		dc.MoveTo(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("raster: stroke %d: %w", s.Index, err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("raster: flush: %w", err)
	}

	src := dc.Image()
	thumb := image.NewRGBA(image.Rect(0, 0, r.ThumbnailSize, r.ThumbnailSize))
	areaKernel.Scale(thumb, thumb.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return thumb, nil
}
