package replay

import (
	"fmt"
	"strings"

	"github.com/gogpu/replaycheck/capture"
)

// DrawFlags classifies a Drawcall.
type DrawFlags uint32

const (
	FlagSetMarker DrawFlags = 1 << iota
	FlagPushMarker
	FlagDrawcall
	FlagPresent
)

// String lists the set flags separated by '|'.
func (f DrawFlags) String() string {
	names := []string{"SetMarker", "PushMarker", "Drawcall", "Present"}
	var parts []string
	for i, n := range names {
		if f&(1<<uint(i)) != 0 {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return "NoFlags"
	}
	return strings.Join(parts, "|")
}

// Drawcall is a node of the frame's action tree.
//
// Markers, draws and presents produce drawcalls; state-setting commands do
// not. Push marker regions become parents of the drawcalls inside them.
// Next and Previous link every drawcall in tree pre-order, so the Next of a
// marker is the first action recorded after it.
type Drawcall struct {
	EventID uint32
	Name    string
	Flags   DrawFlags

	// NumVertices and NumInstances are set for draws.
	NumVertices  uint32
	NumInstances uint32

	Parent   *Drawcall
	Children []*Drawcall
	Previous *Drawcall
	Next     *Drawcall
}

func (d *Drawcall) String() string {
	return fmt.Sprintf("EID %d: %s", d.EventID, d.Name)
}

// buildDrawcalls turns the frame commands of c into a drawcall tree and
// returns its roots.
func buildDrawcalls(c *capture.Capture) []*Drawcall {
	var (
		roots []*Drawcall
		stack []*Drawcall
		prev  *Drawcall
	)

	add := func(d *Drawcall) {
		if n := len(stack); n > 0 {
			d.Parent = stack[n-1]
			d.Parent.Children = append(d.Parent.Children, d)
		} else {
			roots = append(roots, d)
		}
		if prev != nil {
			prev.Next = d
			d.Previous = prev
		}
		prev = d
	}

	for i, cmd := range c.Commands() {
		// #nosec G115 -- bounded by EventCount
		eid := uint32(i + 1)
		switch cmd := cmd.(type) {
		case capture.SetMarkerCommand:
			add(&Drawcall{EventID: eid, Name: cmd.Label, Flags: FlagSetMarker})
		case capture.PushMarkerCommand:
			d := &Drawcall{EventID: eid, Name: cmd.Label, Flags: FlagPushMarker}
			add(d)
			stack = append(stack, d)
		case capture.PopMarkerCommand:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case capture.DrawCommand:
			// #nosec G115 -- vertex counts come from a uint32 API field
			nv := uint32(len(cmd.Vertices))
			add(&Drawcall{
				EventID:      eid,
				Name:         fmt.Sprintf("%s(%d, %d)", cmd.Type().APIName(), nv, cmd.InstanceCount),
				Flags:        FlagDrawcall,
				NumVertices:  nv,
				NumInstances: cmd.InstanceCount,
			})
		case capture.PresentCommand:
			add(&Drawcall{EventID: eid, Name: cmd.Type().APIName() + "()", Flags: FlagPresent})
		}
	}
	return roots
}

// flatten returns the drawcalls reachable from roots in pre-order.
func flatten(roots []*Drawcall) []*Drawcall {
	if len(roots) == 0 {
		return nil
	}
	var out []*Drawcall
	for d := roots[0]; d != nil; d = d.Next {
		out = append(out, d)
	}
	return out
}
