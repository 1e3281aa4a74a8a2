// Package actuator publishes normalized vehicle commands on a CAN bus.
//
// Each command is split over two frames. Channels are signed 16-bit
// little-endian integers scaled by 10000:
//
//	BaseID    (8 bytes): forward, lateral, throttle, yaw
//	BaseID+1  (4 bytes): pitch, roll
package actuator

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/san-kum/aflc/internal/vehicle"
)

// Resolution is the channel value represented by one integer step.
const Resolution = 1.0 / 10000

// DefaultBaseID is the CAN identifier of the primary command frame.
const DefaultBaseID uint32 = 0x300

var ErrFrame = errors.New("actuator: malformed command frame")

// FrameTransmitter sends one frame. *socketcan.Transmitter satisfies it.
type FrameTransmitter interface {
	TransmitFrame(ctx context.Context, frame can.Frame) error
}

func quantize(v float64) int16 {
	q := math.Round(v / Resolution)
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, q)))
}

func putChannel(f *can.Frame, slot int, v float64) {
	binary.LittleEndian.PutUint16(f.Data[2*slot:], uint16(quantize(v)))
}

func channel(f can.Frame, slot int) float64 {
	return float64(int16(binary.LittleEndian.Uint16(f.Data[2*slot:]))) * Resolution
}

// EncodeCommand packs cmd into the primary and attitude frames.
func EncodeCommand(cmd vehicle.Command, baseID uint32) [2]can.Frame {
	primary := can.Frame{ID: baseID, Length: 8}
	putChannel(&primary, 0, cmd.Forward)
	putChannel(&primary, 1, cmd.Lateral)
	putChannel(&primary, 2, cmd.Throttle)
	putChannel(&primary, 3, cmd.Yaw)

	attitude := can.Frame{ID: baseID + 1, Length: 4}
	putChannel(&attitude, 0, cmd.Pitch)
	putChannel(&attitude, 1, cmd.Roll)

	return [2]can.Frame{primary, attitude}
}

// DecodeCommand is the inverse of EncodeCommand up to Resolution.
func DecodeCommand(frames [2]can.Frame, baseID uint32) (vehicle.Command, error) {
	primary, attitude := frames[0], frames[1]
	if primary.ID != baseID || primary.Length != 8 {
		return vehicle.Command{}, fmt.Errorf("%w: primary frame id 0x%X length %d", ErrFrame, primary.ID, primary.Length)
	}
	if attitude.ID != baseID+1 || attitude.Length != 4 {
		return vehicle.Command{}, fmt.Errorf("%w: attitude frame id 0x%X length %d", ErrFrame, attitude.ID, attitude.Length)
	}
	return vehicle.Command{
		Forward:  channel(primary, 0),
		Lateral:  channel(primary, 1),
		Throttle: channel(primary, 2),
		Yaw:      channel(primary, 3),
		Pitch:    channel(attitude, 0),
		Roll:     channel(attitude, 1),
	}, nil
}

// CANSink implements vehicle.ActuatorSink over a FrameTransmitter.
type CANSink struct {
	ctx     context.Context
	tx      FrameTransmitter
	conn    net.Conn
	baseID  uint32
	timeout time.Duration
}

// NewCANSink sends on tx until ctx is done. Each Actuate call is bounded by
// timeout when it is positive.
func NewCANSink(ctx context.Context, tx FrameTransmitter, baseID uint32, timeout time.Duration) *CANSink {
	return &CANSink{ctx: ctx, tx: tx, baseID: baseID, timeout: timeout}
}

// Dial opens a SocketCAN interface such as "can0" or "vcan0".
func Dial(ctx context.Context, iface string, baseID uint32) (*CANSink, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	s := NewCANSink(ctx, socketcan.NewTransmitter(conn), baseID, 10*time.Millisecond)
	s.conn = conn
	return s, nil
}

func (s *CANSink) Actuate(cmd vehicle.Command) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	for _, f := range EncodeCommand(cmd, s.baseID) {
		if err := s.tx.TransmitFrame(ctx, f); err != nil {
			return fmt.Errorf("transmit 0x%X: %w", f.ID, err)
		}
	}
	return nil
}

func (s *CANSink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
