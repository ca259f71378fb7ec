package app

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"sync"

	"relicscan/internal/pipeline"
)

// Overlay receives each cycle's result for display. origin is the screen
// position of the captured frame; the frame size is in the result.
type Overlay interface {
	Show(res *pipeline.Result, origin image.Point) error
}

// TableOverlay prints one entry per slot: the item name, then its platinum
// and ducat values with an arrow on the best pick.
type TableOverlay struct {
	mu  sync.Mutex
	Out io.Writer
}

// Show writes the table.
func (o *TableOverlay) Show(res *pipeline.Result, _ image.Point) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(res.Slots) == 0 {
		_, err := fmt.Fprintln(o.Out, "No rewards found")
		return err
	}
	for i := range res.Slots {
		s := &res.Slots[i]
		if s.Item == nil {
			if _, err := fmt.Fprintf(o.Out, "%s\n\tUnknown\n", pipeline.UnknownItem); err != nil {
				return err
			}
			continue
		}
		marker := ""
		if i == res.Best {
			marker = "<----"
		}
		if _, err := fmt.Fprintf(o.Out, "%s\n\t%g\t%g\t%s\n", s.Item.Name, s.Item.Platinum, float64(s.Item.Ducats)/10, marker); err != nil {
			return err
		}
	}
	return nil
}

// overlaySlot is the JSON hand-off for one slot, in screen coordinates.
type overlaySlot struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Text     string  `json:"text"`
	Name     string  `json:"name,omitempty"`
	Platinum float64 `json:"platinum"`
	Ducats   int     `json:"ducats"`
	Value    float64 `json:"value"`
	Best     bool    `json:"best,omitempty"`
}

type overlayMessage struct {
	Cycle  string        `json:"cycle"`
	Theme  string        `json:"theme"`
	X      int           `json:"x"`
	Y      int           `json:"y"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Slots  []overlaySlot `json:"slots"`
}

// JSONOverlay writes one JSON object per cycle, one per line, for an
// external overlay renderer.
type JSONOverlay struct {
	mu  sync.Mutex
	Out io.Writer
}

// Show encodes the result.
func (o *JSONOverlay) Show(res *pipeline.Result, origin image.Point) error {
	msg := overlayMessage{
		Cycle:  res.CycleID.String(),
		Theme:  res.Theme.String(),
		X:      origin.X,
		Y:      origin.Y,
		Width:  res.Width,
		Height: res.Height,
		Slots:  make([]overlaySlot, len(res.Slots)),
	}
	for i := range res.Slots {
		s := &res.Slots[i]
		b := s.Part.Bounds
		out := overlaySlot{
			X:      origin.X + b.X,
			Y:      origin.Y + b.Y,
			Width:  b.Width,
			Height: b.Height,
			Text:   s.Part.Text,
			Value:  s.Value,
			Best:   i == res.Best,
		}
		if s.Item != nil {
			out.Name = s.Item.Name
			out.Platinum = s.Item.Platinum
			out.Ducats = s.Item.Ducats
		}
		msg.Slots[i] = out
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return json.NewEncoder(o.Out).Encode(msg)
}
