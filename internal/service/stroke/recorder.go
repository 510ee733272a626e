package stroke

import (
	"StrokeRecorder/internal/model"
	"errors"
)

// MinPoints — минимальное число точек валидного штриха. Касание без движения штрихом не считается.
const MinPoints = 2

// ErrStrokeOpen возвращается при попытке начать штрих, пока открыт предыдущий.
var ErrStrokeOpen = errors.New("stroke: another stroke is already open")

// Recorder накапливает точки одного жеста от нажатия до отпускания.
// Не потокобезопасен: вызывающий сериализует события.
type Recorder struct {
	open    bool
	current model.Stroke
}

func NewRecorder() *Recorder { return &Recorder{} }

// Begin открывает новый штрих с первой точкой (t=0).
// Открытый штрих не перезаписывается: второй указатель получает ErrStrokeOpen.
func (r *Recorder) Begin(x, y, at float64) error {
	if r.open {
		return ErrStrokeOpen
	}
	r.open = true
	r.current = model.Stroke{
		StartTime: at,
		Points:    []model.Point{{T: 0, X: x, Y: y}},
	}
	return nil
}

// Extend добавляет промежуточную точку. Без открытого штриха — ничего не делает.
func (r *Recorder) Extend(x, y, at float64) {
	if !r.open {
		return
	}
	t := at - r.current.StartTime
	// время внутри штриха не убывает, даже если устройство прислало выборку не по порядку
	if last := r.current.Points[len(r.current.Points)-1].T; t < last {
		t = last
	}
	r.current.Points = append(r.current.Points, model.Point{T: t, X: x, Y: y})
}

// End закрывает штрих. Второе значение false, если штриха не было
// или он отброшен как вырожденный (меньше MinPoints точек).
func (r *Recorder) End(at float64) (model.Stroke, bool) {
	if !r.open {
		return model.Stroke{}, false
	}
	s := r.current
	r.open = false
	r.current = model.Stroke{}

	s.EndTime = max(at, s.StartTime)
	if len(s.Points) < MinPoints {
		return model.Stroke{}, false
	}
	return s, true
}

// Open сообщает, открыт ли сейчас штрих.
func (r *Recorder) Open() bool { return r.open }

// Abort сбрасывает открытый штрих без результата.
func (r *Recorder) Abort() {
	r.open = false
	r.current = model.Stroke{}
}
