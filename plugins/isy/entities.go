package isy

import (
	"context"
	"fmt"
	"time"

	"isyhub/internal/xmldict"
)

// Entity wrappers hold one normalized record and forward commands to the
// controller. They carry no state of their own; re-fetch for fresh data.

// Device is a single Insteon/Z-Wave node.
type Device struct {
	client *Client
	rec    *xmldict.Node
}

func (d *Device) Address() string       { return d.rec.Get("address").Text() }
func (d *Device) Name() string          { return d.rec.Get("name").ScalarText() }
func (d *Device) Record() *xmldict.Node { return d.rec }

// State returns the device's ST property record, or nil when the device
// reports none.
func (d *Device) State() *xmldict.Node {
	return propertyByID(d.rec, "ST")
}

// On turns the device fully on.
func (d *Device) On(ctx context.Context) error {
	return d.client.NodeCommand(ctx, d.Address(), "DON")
}

// OnLevel turns the device on at a brightness percentage. The controller
// speaks 0-255; percentages are scaled the way its own console does.
func (d *Device) OnLevel(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("level %d out of range 0-100", percent)
	}
	return d.client.NodeCommand(ctx, d.Address(), "DON", fmt.Sprintf("%d", percent*255/100))
}

// Off turns the device off.
func (d *Device) Off(ctx context.Context) error {
	return d.client.NodeCommand(ctx, d.Address(), "DOF")
}

// Scene is a group of devices; the controller accepts the same on/off
// commands at a group address.
type Scene struct {
	client *Client
	rec    *xmldict.Node
}

func (s *Scene) Address() string       { return s.rec.Get("address").Text() }
func (s *Scene) Name() string          { return s.rec.Get("name").ScalarText() }
func (s *Scene) Record() *xmldict.Node { return s.rec }

// Members returns the scene's link records.
func (s *Scene) Members() []*xmldict.Node {
	members := s.rec.Get("members")
	if members == nil || members.Kind != xmldict.KindList {
		return nil
	}
	return members.List
}

func (s *Scene) On(ctx context.Context) error {
	return s.client.NodeCommand(ctx, s.Address(), "DON")
}

func (s *Scene) Off(ctx context.Context) error {
	return s.client.NodeCommand(ctx, s.Address(), "DOF")
}

// Program is a controller-resident program.
type Program struct {
	client *Client
	rec    *xmldict.Node
}

func (p *Program) ID() string            { return p.rec.Get("id").Text() }
func (p *Program) Name() string          { return p.rec.Get("name").ScalarText() }
func (p *Program) Record() *xmldict.Node { return p.rec }

func (p *Program) Enabled() bool {
	v := p.rec.Get("enabled")
	return v != nil && v.Kind == xmldict.KindBool && v.Bool
}

func (p *Program) Status() bool {
	v := p.rec.Get("status")
	return v != nil && v.Kind == xmldict.KindBool && v.Bool
}

// LastRunTime returns the last run timestamp; ok is false when the
// program has never run.
func (p *Program) LastRunTime() (time.Time, bool) {
	v := p.rec.Get("lastRunTime")
	if v == nil || v.Kind != xmldict.KindTime {
		return time.Time{}, false
	}
	return v.Time, true
}

// Run triggers the program's whole body.
func (p *Program) Run(ctx context.Context) error {
	return p.client.ProgramCommand(ctx, p.ID(), "run")
}

// RunThen runs only the then branch.
func (p *Program) RunThen(ctx context.Context) error {
	return p.client.ProgramCommand(ctx, p.ID(), "runThen")
}

// RunElse runs only the else branch.
func (p *Program) RunElse(ctx context.Context) error {
	return p.client.ProgramCommand(ctx, p.ID(), "runElse")
}

// propertyByID scans a node record's properties for one with the given
// id.
func propertyByID(rec *xmldict.Node, id string) *xmldict.Node {
	props := rec.Get("properties")
	if props == nil || props.Kind != xmldict.KindList {
		return nil
	}
	for _, prop := range props.List {
		if prop.Get("id").Text() == id {
			return prop
		}
	}
	return nil
}
