package utils

import (
	"fmt"
	"runtime"
)

// MemUsage summarises the heap for verbose progress output.
func MemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	toMiB := func(b uint64) float64 { return float64(b) / (1 << 20) }
	return fmt.Sprintf("heap %.1f MiB, total allocated %.1f MiB, sys %.1f MiB, %d GC cycles",
		toMiB(m.HeapAlloc), toMiB(m.TotalAlloc), toMiB(m.Sys), m.NumGC)
}
