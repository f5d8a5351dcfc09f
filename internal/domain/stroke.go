package domain

// StrokeKind tells the client how to render a stroke point
type StrokeKind string

const (
	StrokeStart StrokeKind = "start"
	StrokeMove  StrokeKind = "move"
	StrokeEnd   StrokeKind = "end"
	StrokeFill  StrokeKind = "fill"
)

// Stroke is a single drawing event on the shared canvas. Coordinates are
// normalized to the 0..1 range so clients with different canvas sizes agree.
type Stroke struct {
	Kind  StrokeKind `json:"kind" validate:"required,oneof=start move end fill"`
	X     float64    `json:"x" validate:"gte=0,lte=1"`
	Y     float64    `json:"y" validate:"gte=0,lte=1"`
	Color string     `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Size  float64    `json:"size,omitempty" validate:"omitempty,gt=0,lte=100"`
	Erase bool       `json:"erase,omitempty"`
}
