package api

import (
	"os"
	"runtime"
	"time"

	"github.com/annel0/voxelworld/internal/app"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats — состояние процесса сервера
type ProcessStats struct {
	Uptime      string  `json:"uptime"`
	UptimeSec   int64   `json:"uptime_seconds"`
	CPUPercent  float64 `json:"cpu_percent"`
	RSSMB       float64 `json:"rss_mb"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
}

// WorldStats — сводка по резидентному миру
type WorldStats struct {
	Chunks    int            `json:"chunks"`
	Pending   int            `json:"pending"` // чанки, ждущие отложенной генерации
	Instances int            `json:"instances"`
	ByBlock   map[string]int `json:"by_block"`
}

// Stats — ответ GET /api/stats
type Stats struct {
	Process    ProcessStats `json:"process"`
	World      WorldStats   `json:"world"`
	ServerTime int64        `json:"server_time"`
}

// statsCollector собирает статистику процесса через gopsutil и мира через сессию
type statsCollector struct {
	started time.Time
	proc    *process.Process // nil, если gopsutil не видит процесс
	now     func() time.Time
}

func newStatsCollector() *statsCollector {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &statsCollector{started: time.Now(), proc: proc, now: time.Now}
}

func (sc *statsCollector) collect(chunks []app.ChunkInfo) Stats {
	now := sc.now()
	return Stats{
		Process:    sc.process(now),
		World:      summarizeChunks(chunks),
		ServerTime: now.Unix(),
	}
}

func (sc *statsCollector) process(now time.Time) ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := now.Sub(sc.started).Truncate(time.Second)
	ps := ProcessStats{
		Uptime:      uptime.String(),
		UptimeSec:   int64(uptime.Seconds()),
		HeapAllocMB: float64(m.HeapAlloc) / 1024 / 1024,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}

	if sc.proc == nil {
		return ps
	}
	// Ошибки gopsutil не фатальны: поле остаётся нулевым
	if cpu, err := sc.proc.CPUPercent(); err == nil {
		ps.CPUPercent = cpu
	}
	if mem, err := sc.proc.MemoryInfo(); err == nil && mem != nil {
		ps.RSSMB = float64(mem.RSS) / 1024 / 1024
	}
	return ps
}

func summarizeChunks(chunks []app.ChunkInfo) WorldStats {
	ws := WorldStats{Chunks: len(chunks), ByBlock: make(map[string]int)}
	for _, ch := range chunks {
		if !ch.Loaded {
			ws.Pending++
		}
		for name, n := range ch.Instances {
			ws.ByBlock[name] += n
			ws.Instances += n
		}
	}
	return ws
}
