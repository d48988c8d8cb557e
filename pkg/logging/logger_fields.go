package logging

import (
	"math"
	"strconv"
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 records a float. Non-finite values are written as strings
// ("+Inf", "NaN") because JSON has no encoding for them.
func Float64(key string, value float64) Field {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return Field{Key: key, Value: strconv.FormatFloat(value, 'g', -1, 64)}
	}
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain helpers

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Session(id string) Field {
	return String("session_id", id)
}

func State(s string) Field {
	return String("state", s)
}

func Iteration(n int) Field {
	return Int("iteration", n)
}

// NodeIndex records a node index under key (e.g. "start", "node_a").
func NodeIndex(key string, idx int) Field {
	return Int(key, idx)
}

func Cost(c float64) Field {
	return Float64("cost", c)
}

// Route records a node-index path. The slice is copied.
func Route(path []int) Field {
	cp := make([]int, len(path))
	copy(cp, path)
	return Field{Key: "path", Value: cp}
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
