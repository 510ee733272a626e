package raster

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// DefaultColumns — число миниатюр в строке итогового изображения.
const DefaultColumns = 10

var (
	ErrNoThumbnails   = errors.New("raster: no thumbnails to composite")
	ErrInvalidColumns = errors.New("raster: column count must be positive")
)

// GridSize возвращает размеры сетки для n миниатюр стороной size в columns колонок.
func GridSize(n, size, columns int) (width, height int) {
	if n <= 0 || size <= 0 || columns <= 0 {
		return 0, 0
	}
	rows := (n + columns - 1) / columns
	return size * min(n, columns), size * rows
}

// CellOrigin возвращает левый верхний угол ячейки миниатюры i.
func CellOrigin(i, size, columns int) image.Point {
	return image.Pt((i%columns)*size, (i/columns)*size)
}

// Grid раскладывает миниатюры построчно на белом фоне. Размер ячейки берётся
// по ширине первой миниатюры.
func Grid(thumbs []image.Image, columns int) (*image.RGBA, error) {
	if len(thumbs) == 0 {
		return nil, ErrNoThumbnails
	}
	if columns <= 0 {
		return nil, ErrInvalidColumns
	}
	size := thumbs[0].Bounds().Dx()
	w, h := GridSize(len(thumbs), size, columns)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	for i, th := range thumbs {
		origin := CellOrigin(i, size, columns)
		b := th.Bounds()
		cell := image.Rectangle{Min: origin, Max: origin.Add(b.Size())}
		xdraw.Draw(dst, cell, th, b.Min, xdraw.Over)
	}
	return dst, nil
}

// EncodePNG пишет изображение в PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
