package metrics

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var startedAt = time.Now()

// SysHealth represents real-time system metrics.
type SysHealth struct {
	Alloc        string
	TotalAlloc   string
	Sys          string
	NumGC        uint32
	Goroutines   int
	DataDiskSize string
	Uptime       string
}

// GetSysHealth collects real-time health data.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		Alloc:        humanize.IBytes(m.Alloc),
		TotalAlloc:   humanize.IBytes(m.TotalAlloc),
		Sys:          humanize.IBytes(m.Sys),
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: humanize.IBytes(dirSize(dataPath)),
		Uptime:       strings.TrimSpace(humanize.RelTime(startedAt, time.Now(), "", "")),
	}
}

func dirSize(path string) uint64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return uint64(size)
}
