package vehicle

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
)

type fakeVehicle struct {
	att      Attitude
	pos, vel r3.Vec
	sent     []Command
	sinkErr  error
}

func (f *fakeVehicle) Attitude() Attitude { return f.att }
func (f *fakeVehicle) Position() r3.Vec   { return f.pos }
func (f *fakeVehicle) Velocity() r3.Vec   { return f.vel }

func (f *fakeVehicle) Actuate(cmd Command) error {
	f.sent = append(f.sent, cmd)
	return f.sinkErr
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newBound(t *testing.T, veh *fakeVehicle, target TargetSource) *NonLinearControl {
	t.Helper()
	ctrl, err := aflc.New(aflc.DefaultGains())
	if err != nil {
		t.Fatal(err)
	}
	n, err := NewNonLinearControl(ctrl, Bindings{Orientation: veh, Motion: veh, Target: target, Sink: veh}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Init(); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestNewNonLinearControl_Unbound(t *testing.T) {
	ctrl, err := aflc.New(aflc.DefaultGains())
	if err != nil {
		t.Fatal(err)
	}
	veh := &fakeVehicle{}
	tests := []struct {
		name string
		b    Bindings
	}{
		{"no orientation", Bindings{Motion: veh, Target: WaypointTarget{}, Sink: veh}},
		{"no motion", Bindings{Orientation: veh, Target: WaypointTarget{}, Sink: veh}},
		{"no target", Bindings{Orientation: veh, Motion: veh, Sink: veh}},
		{"no sink", Bindings{Orientation: veh, Motion: veh, Target: WaypointTarget{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewNonLinearControl(ctrl, tt.b, nil); !errors.Is(err, ErrUnbound) {
				t.Errorf("expected ErrUnbound, got %v", err)
			}
		})
	}
	if _, err := NewNonLinearControl(nil, Bindings{}, nil); !errors.Is(err, ErrUnbound) {
		t.Errorf("nil controller: expected ErrUnbound, got %v", err)
	}
}

func TestNonLinearControl_InitRelaxesOnCurrentPose(t *testing.T) {
	veh := &fakeVehicle{
		att: Attitude{Yaw: 0.7},
		pos: r3.Vec{X: 3, Y: -1, Z: -2},
	}
	n := newBound(t, veh, HeadingHoldTarget{Position: veh.pos, Orientation: veh})

	if got, want := n.Controller().RefPosition(), (dynamo.Vec4{3, -1, -2, 0.7}); got != want {
		t.Errorf("reference seeded at %v, want %v", got, want)
	}

	for i := 0; i < 20; i++ {
		if err := n.Step(); err != nil {
			t.Fatal(err)
		}
	}
	cmd := n.Command()
	const tol = 1e-9
	if math.Abs(cmd.Forward) > tol || math.Abs(cmd.Lateral) > tol || math.Abs(cmd.Yaw) > tol || math.Abs(cmd.Throttle-0.5) > tol {
		t.Errorf("vehicle at rest on target commanded %+v", cmd)
	}
	if len(veh.sent) != 20 {
		t.Errorf("sink received %d commands, want 20", len(veh.sent))
	}
}

func TestNonLinearControl_BodyVelocity(t *testing.T) {
	veh := &fakeVehicle{
		att: Attitude{Yaw: math.Pi / 2, Gyro: r3.Vec{Z: 0.1}},
		vel: r3.Vec{Y: 1},
	}
	n := newBound(t, veh, WaypointTarget{})
	n.UpdateState()

	in := n.Input()
	if math.Abs(in.Nu[dynamo.Surge]-1) > 1e-12 || math.Abs(in.Nu[dynamo.Sway]) > 1e-12 {
		t.Errorf("moving along +y while facing +y should be pure surge, got ν = %v", in.Nu)
	}
	if in.Nu[dynamo.Yaw] != 0.1 || in.DEta[dynamo.Yaw] != 0.1 {
		t.Errorf("yaw rate: ν_r = %v, ψ̇ = %v, want 0.1", in.Nu[dynamo.Yaw], in.DEta[dynamo.Yaw])
	}
}

func TestNonLinearControl_GimbalLockHoldsYawRate(t *testing.T) {
	veh := &fakeVehicle{att: Attitude{Gyro: r3.Vec{Z: 0.2}}}
	n := newBound(t, veh, WaypointTarget{})
	n.UpdateState()

	veh.att = Attitude{Pitch: math.Pi / 2, Gyro: r3.Vec{Z: 5}}
	n.UpdateState()

	if got := n.Input().DEta[dynamo.Yaw]; got != 0.2 {
		t.Errorf("ψ̇ = %v, want held 0.2", got)
	}
	if n.Stats().HeldYawRates != 1 {
		t.Errorf("HeldYawRates = %d, want 1", n.Stats().HeldYawRates)
	}
}

func TestNonLinearControl_FailedTickHoldsOutput(t *testing.T) {
	veh := &fakeVehicle{}
	n := newBound(t, veh, WaypointTarget{Position: r3.Vec{X: 2}})
	for i := 0; i < 10; i++ {
		if err := n.Step(); err != nil {
			t.Fatal(err)
		}
	}
	held := n.Command()

	veh.att.Yaw = math.NaN()
	err := n.Step()
	if !errors.Is(err, aflc.ErrSingularTransform) {
		t.Fatalf("expected ErrSingularTransform, got %v", err)
	}
	if n.Command() != held {
		t.Errorf("command changed on failed tick: %+v -> %+v", held, n.Command())
	}
	if last := veh.sent[len(veh.sent)-1]; last != held {
		t.Errorf("sink did not receive the held command")
	}
	if s := n.Stats(); s.HeldOutputs != 1 || s.Ticks != 11 {
		t.Errorf("stats = %+v", s)
	}
}

func TestNonLinearControl_SinkError(t *testing.T) {
	boom := errors.New("bus off")
	veh := &fakeVehicle{sinkErr: boom}
	n := newBound(t, veh, WaypointTarget{})
	if err := n.Step(); !errors.Is(err, boom) {
		t.Errorf("expected sink error, got %v", err)
	}
}

func TestNonLinearControl_RunStopsOnCancel(t *testing.T) {
	veh := &fakeVehicle{}
	n := newBound(t, veh, WaypointTarget{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := n.Run(ctx, time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v", err)
	}
	if len(veh.sent) == 0 {
		t.Error("Run never stepped")
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name string
		tau  dynamo.Vec4
		want Command
	}{
		{"zero", dynamo.Vec4{}, Command{Throttle: 0.5}},
		{"full", dynamo.Vec4{50, -50, 50, -25}, Command{Forward: 1, Lateral: -1, Throttle: 1, Yaw: -0.5}},
		{"clipped", dynamo.Vec4{100, 0, -100, 0}, Command{Forward: 1, Throttle: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scale(tt.tau, 50)
			if got != tt.want {
				t.Errorf("Scale(%v) = %+v, want %+v", tt.tau, got, tt.want)
			}
			if got.Pitch != 0 || got.Roll != 0 {
				t.Error("pitch and roll must stay zero")
			}
		})
	}

	tau := dynamo.Vec4{12.5, -3, 7, 40}
	if back := Unscale(Scale(tau, 50), 50); back.Sub(tau).Norm() > 1e-12 {
		t.Errorf("Unscale(Scale(%v)) = %v", tau, back)
	}
}
