package storage

import (
	"fmt"
	"strconv"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
	"github.com/san-kum/aflc/internal/sim"
)

var axes = [aflc.DOF]string{"x", "y", "z", "yaw"}

func vecColumns(prefix string) []string {
	cols := make([]string, aflc.DOF)
	for i, a := range axes {
		cols[i] = prefix + a
	}
	return cols
}

func header() []string {
	cols := []string{"t"}
	cols = append(cols, vecColumns("eta_")...)
	cols = append(cols, vecColumns("ref_")...)
	cols = append(cols, vecColumns("target_")...)
	cols = append(cols, vecColumns("u_")...)
	cols = append(cols, vecColumns("s_")...)
	for i := 0; i < aflc.NumParams; i++ {
		cols = append(cols, fmt.Sprintf("theta_%d", i))
	}
	return append(cols, "saturated", "held", "cmd_forward", "cmd_lateral", "cmd_throttle", "cmd_yaw")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func encodeSample(s sim.Sample) []string {
	row := []string{formatFloat(s.T)}
	for _, v := range []dynamo.Vec4{s.Eta, s.Ref, s.Target, s.U, s.S} {
		for _, x := range v {
			row = append(row, formatFloat(x))
		}
	}
	for _, x := range s.Theta {
		row = append(row, formatFloat(x))
	}

	// saturated is a bitmask over axes
	mask := 0
	for i, sat := range s.Saturated {
		if sat {
			mask |= 1 << i
		}
	}
	held := "0"
	if s.Held {
		held = "1"
	}
	return append(row,
		strconv.Itoa(mask),
		held,
		formatFloat(s.Command.Forward),
		formatFloat(s.Command.Lateral),
		formatFloat(s.Command.Throttle),
		formatFloat(s.Command.Yaw),
	)
}

type rowReader struct {
	index map[string]int
	rec   []string
	err   error
}

func (r *rowReader) float(col string) float64 {
	if r.err != nil {
		return 0
	}
	i, ok := r.index[col]
	if !ok || i >= len(r.rec) {
		r.err = fmt.Errorf("missing column %q", col)
		return 0
	}
	v, err := strconv.ParseFloat(r.rec[i], 64)
	if err != nil {
		r.err = fmt.Errorf("column %q: %w", col, err)
	}
	return v
}

func (r *rowReader) vec(prefix string) dynamo.Vec4 {
	var v dynamo.Vec4
	for i, col := range vecColumns(prefix) {
		v[i] = r.float(col)
	}
	return v
}

func decodeSample(index map[string]int, rec []string) (sim.Sample, error) {
	r := &rowReader{index: index, rec: rec}

	s := sim.Sample{
		T:      r.float("t"),
		Eta:    r.vec("eta_"),
		Ref:    r.vec("ref_"),
		Target: r.vec("target_"),
		U:      r.vec("u_"),
		S:      r.vec("s_"),
	}
	for i := range s.Theta {
		s.Theta[i] = r.float(fmt.Sprintf("theta_%d", i))
	}

	mask := int(r.float("saturated"))
	for i := range s.Saturated {
		s.Saturated[i] = mask&(1<<i) != 0
	}
	s.Held = r.float("held") != 0

	s.Command.Forward = r.float("cmd_forward")
	s.Command.Lateral = r.float("cmd_lateral")
	s.Command.Throttle = r.float("cmd_throttle")
	s.Command.Yaw = r.float("cmd_yaw")
	return s, r.err
}
