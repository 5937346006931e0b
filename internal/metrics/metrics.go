package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/lemonwave/ir-bridge/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	BridgeRxCaptures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_rx_captures_total",
		Help: "Total waveform captures read from the bridge serial link.",
	})
	BridgeTxTransmits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_tx_transmits_total",
		Help: "Total forged waveforms written to the bridge serial link.",
	})
	ReplayTxTransmits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replay_tx_transmits_total",
		Help: "Total waveforms replayed from the command store.",
	})
	DecodeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decode_attempts_total",
		Help: "Total successful decodes by protocol tag.",
	}, []string{"tag"})
	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decode_failures_total",
		Help: "Total captures that matched no known format.",
	})
	ForgeInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forge_invocations_total",
		Help: "Total waveform synthesis calls by protocol.",
	}, []string{"tag"})
	TCPRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tcp_rx_frames_total",
		Help: "Total envelopes received from TCP clients.",
	})
	TCPTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tcp_tx_frames_total",
		Help: "Total envelopes sent to TCP clients.",
	})
	HubDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_dropped_frames_total",
		Help: "Total decode events dropped by hub due to slow clients.",
	})
	HubKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_kicked_clients_total",
		Help: "Total clients disconnected due to backpressure kick policy.",
	})
	HubRejectedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_rejected_clients_total",
		Help: "Total client connection attempts rejected (e.g., max-clients).",
	})
	HubActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_active_clients",
		Help: "Current number of active connected clients.",
	})
	HubBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_broadcast_fanout",
		Help: "Number of clients targeted in the most recent broadcast.",
	})
	HubQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_queue_depth_max",
		Help: "Observed max queued events among clients since last sample window.",
	})
	HubQueueDepthAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_queue_depth_avg",
		Help: "Approximate average queued events per client in last sample.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "malformed_frames_total",
		Help: "Total rejected malformed frames (bridge-wire length over limit or bad checksum, truncated TCP envelope).",
	})
	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrTCPRead      = "tcp_read"
	ErrTCPWrite     = "tcp_write"
	ErrHandshake    = "handshake"
	ErrSerialWrite  = "serial_write"
	ErrSerialRead   = "serial_read"
	ErrSerialTxOver = "serial_tx_overflow"
	ErrStoreRead    = "store_read"
	ErrStoreWrite   = "store_write"
)

// StartHTTP serves Prometheus metrics at /metrics on a fresh mux, plus a
// /ready endpoint driven by the registered readiness function.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process)
var (
	localBridgeRx   uint64
	localBridgeTx   uint64
	localReplayTx   uint64
	localDecodeOK   uint64
	localDecodeFail uint64
	localTCPRx      uint64
	localTCPTx      uint64
	localHubDrop    uint64
	localHubKick    uint64
	localHubReject  uint64
	localErrors     uint64
	localHubClients uint64
	localFanout     uint64
	localMalformed  uint64
	localQDMax      uint64
	localQDAvg      uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	BridgeRx      uint64
	BridgeTx      uint64
	ReplayTx      uint64
	DecodeOK      uint64
	DecodeFail    uint64
	TCPRx         uint64
	TCPTx         uint64
	HubDrops      uint64
	HubKicks      uint64
	HubRejects    uint64
	Errors        uint64 // sum across error labels
	HubClients    uint64
	Fanout        uint64
	Malformed     uint64
	QueueDepthMax uint64
	QueueDepthAvg uint64
}

func Snap() Snapshot {
	return Snapshot{
		BridgeRx:      atomic.LoadUint64(&localBridgeRx),
		BridgeTx:      atomic.LoadUint64(&localBridgeTx),
		ReplayTx:      atomic.LoadUint64(&localReplayTx),
		DecodeOK:      atomic.LoadUint64(&localDecodeOK),
		DecodeFail:    atomic.LoadUint64(&localDecodeFail),
		TCPRx:         atomic.LoadUint64(&localTCPRx),
		TCPTx:         atomic.LoadUint64(&localTCPTx),
		HubDrops:      atomic.LoadUint64(&localHubDrop),
		HubKicks:      atomic.LoadUint64(&localHubKick),
		HubRejects:    atomic.LoadUint64(&localHubReject),
		Errors:        atomic.LoadUint64(&localErrors),
		HubClients:    atomic.LoadUint64(&localHubClients),
		Fanout:        atomic.LoadUint64(&localFanout),
		Malformed:     atomic.LoadUint64(&localMalformed),
		QueueDepthMax: atomic.LoadUint64(&localQDMax),
		QueueDepthAvg: atomic.LoadUint64(&localQDAvg),
	}
}

// IncBridgeRx increments the bridge-serial capture-receive counters.
func IncBridgeRx() {
	BridgeRxCaptures.Inc()
	atomic.AddUint64(&localBridgeRx, 1)
}

// IncBridgeTx increments the bridge-serial transmit counters.
func IncBridgeTx() {
	BridgeTxTransmits.Inc()
	atomic.AddUint64(&localBridgeTx, 1)
}

// IncReplayTx increments the replay-backend transmit counters.
func IncReplayTx() {
	ReplayTxTransmits.Inc()
	atomic.AddUint64(&localReplayTx, 1)
}

// IncDecodeAttempt records a registry decode attempt, successful or not.
func IncDecodeAttempt(tag string, ok bool) {
	if !ok {
		DecodeFailures.Inc()
		atomic.AddUint64(&localDecodeFail, 1)
		return
	}
	DecodeAttempts.WithLabelValues(tag).Inc()
	atomic.AddUint64(&localDecodeOK, 1)
}

// IncForge records a waveform synthesis call for the given protocol tag.
func IncForge(tag string) { ForgeInvocations.WithLabelValues(tag).Inc() }

func IncTCPRx() {
	TCPRxFrames.Inc()
	atomic.AddUint64(&localTCPRx, 1)
}

func AddTCPTx(n int) {
	TCPTxFrames.Add(float64(n))
	atomic.AddUint64(&localTCPTx, uint64(n))
}

func IncHubDrop() {
	HubDroppedFrames.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

func IncHubKick() {
	HubKickedClients.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

func IncHubReject() {
	HubRejectedClients.Inc()
	atomic.AddUint64(&localHubReject, 1)
}

func SetHubClients(n int) {
	HubActiveClients.Set(float64(n))
	atomic.StoreUint64(&localHubClients, uint64(n))
}

func SetBroadcastFanout(n int) {
	HubBroadcastFanout.Set(float64(n))
	atomic.StoreUint64(&localFanout, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func IncMalformed() {
	MalformedFrames.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

// SetQueueDepth records a snapshot of max and avg queue depth.
func SetQueueDepth(max, avg int) {
	HubQueueDepthMax.Set(float64(max))
	HubQueueDepthAvg.Set(float64(avg))
	atomic.StoreUint64(&localQDMax, uint64(max))
	atomic.StoreUint64(&localQDAvg, uint64(avg))
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{
		ErrTCPRead, ErrTCPWrite, ErrHandshake,
		ErrSerialWrite, ErrSerialRead, ErrSerialTxOver,
		ErrStoreRead, ErrStoreWrite,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
