package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorldMetrics — Prometheus-метрики жизненного цикла чанков, правок и физики.
// Все методы безопасны для nil-получателя: мир без метрик просто их не пишет.
//
// Метрики:
// * voxel_chunks_resident — gauge
// * voxel_chunks_generated_total — counter
// * voxel_chunk_generation_seconds — histogram
// * voxel_generation_queue_depth — gauge
// * voxel_block_edits_total{op} — counter
// * voxel_block_edits_rejected_total{op} — counter
// * voxel_collisions_total — counter
type WorldMetrics struct {
	chunksResident  prometheus.Gauge
	chunksGenerated prometheus.Counter
	generationTime  prometheus.Histogram
	queueDepth      prometheus.Gauge
	edits           *prometheus.CounterVec
	editsRejected   *prometheus.CounterVec
	collisions      prometheus.Counter
}

// NewWorldMetrics создаёт метрики и регистрирует их в reg.
// nil reg означает глобальный регистр Prometheus.
func NewWorldMetrics(reg prometheus.Registerer) *WorldMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &WorldMetrics{
		chunksResident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "chunks_resident",
			Help:      "Количество чанков, находящихся в памяти.",
		}),
		chunksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_generated_total",
			Help:      "Общее число завершённых генераций чанков.",
		}),
		generationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Name:      "chunk_generation_seconds",
			Help:      "Длительность генерации одного чанка.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "generation_queue_depth",
			Help:      "Отложенные задачи генерации, ожидающие выполнения.",
		}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "block_edits_total",
			Help:      "Применённые правки блоков.",
		}, []string{"op"}),
		editsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "block_edits_rejected_total",
			Help:      "Отклонённые правки (бедрок, незагруженный чанк, занятая ячейка).",
		}, []string{"op"}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "collisions_total",
			Help:      "Разрешённые столкновения актёра с блоками.",
		}),
	}

	reg.MustRegister(
		m.chunksResident,
		m.chunksGenerated,
		m.generationTime,
		m.queueDepth,
		m.edits,
		m.editsRejected,
		m.collisions,
	)
	return m
}

// SetResidentChunks обновляет число чанков в памяти
func (m *WorldMetrics) SetResidentChunks(n int) {
	if m == nil {
		return
	}
	m.chunksResident.Set(float64(n))
}

// ObserveGeneration фиксирует завершённую генерацию
func (m *WorldMetrics) ObserveGeneration(took time.Duration) {
	if m == nil {
		return
	}
	m.chunksGenerated.Inc()
	m.generationTime.Observe(took.Seconds())
}

// SetQueueDepth обновляет глубину очереди генерации
func (m *WorldMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Edit учитывает правку: applied=false — правка отклонена
func (m *WorldMetrics) Edit(op string, applied bool) {
	if m == nil {
		return
	}
	if applied {
		m.edits.WithLabelValues(op).Inc()
	} else {
		m.editsRejected.WithLabelValues(op).Inc()
	}
}

// AddCollisions учитывает разрешённые столкновения
func (m *WorldMetrics) AddCollisions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.collisions.Add(float64(n))
}
