package input

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"szuro.net/zts/internal/config"
	"szuro.net/zts/internal/journal"
	"szuro.net/zts/internal/logger"
	"szuro.net/zts/pkg/alert"
)

const ALERTS_ENDPOINT = "/alerts"

// MAX_LINE is the longest NDJSON line accepted.
const MAX_LINE = 16 << 20

var (
	ndjsonLinesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zts_http_ndjson_lines_total",
			Help: "Total number of NDJSON lines received per endpoint",
		},
		[]string{"endpoint"},
	)

	ndjsonParseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zts_http_ndjson_parse_errors_total",
			Help: "Total number of NDJSON parse errors per endpoint",
		},
		[]string{"endpoint"},
	)
)

type HTTPInput struct {
	baseInput
	mu      sync.RWMutex
	stopped bool
}

func NewHTTPInput(ztsConf config.ZTSConf, j journal.Journal) (*HTTPInput, error) {
	hi := &HTTPInput{
		baseInput: newBaseInput(ztsConf, j),
	}
	return hi, nil
}

// Register adds the alert endpoint to mux.
func (hi *HTTPInput) Register(mux *http.ServeMux) {
	mux.HandleFunc(ALERTS_ENDPOINT, hi.handleAlerts)
	ndjsonLinesReceived.WithLabelValues(ALERTS_ENDPOINT).Add(0)
	ndjsonParseErrors.WithLabelValues(ALERTS_ENDPOINT).Add(0)
}

func (hi *HTTPInput) Start() {
	hi.baseInput.Start()
}

func (hi *HTTPInput) Stop() error {
	hi.mu.Lock()
	hi.stopped = true
	hi.mu.Unlock()
	return hi.baseInput.Stop()
}

func (hi *HTTPInput) IsReady() bool {
	return true // HTTP server is always ready after Start
}

func (hi *HTTPInput) handleAlerts(w http.ResponseWriter, r *http.Request) {
	hi.mu.RLock()
	defer hi.mu.RUnlock()
	if hi.stopped {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	hi.handleNDJSON(w, r, func(line []byte) {
		a, err := alert.Parse(line)
		if err != nil {
			logger.Error("Failed to parse alert line", slog.Any("error", err))
			ndjsonParseErrors.WithLabelValues(ALERTS_ENDPOINT).Inc()
			return
		}
		ndjsonLinesReceived.WithLabelValues(ALERTS_ENDPOINT).Inc()
		hi.subject.Funnel <- a
	})
}

// decodeBody wraps body according to Content-Encoding.
func decodeBody(encoding string, body io.Reader) (io.ReadCloser, int, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return io.NopCloser(body), 0, nil
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return gz, 0, nil
	case "deflate":
		zr, err := zlib.NewReader(body)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return zr, 0, nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return zr.IOReadCloser(), 0, nil
	default:
		return nil, http.StatusUnsupportedMediaType, errors.New("unsupported Content-Encoding " + encoding)
	}
}

// handleNDJSON handles decompression, NDJSON reading, and error responses for HTTPInput
func (hi *HTTPInput) handleNDJSON(w http.ResponseWriter, r *http.Request, handleLine func([]byte)) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	body, status, err := decodeBody(r.Header.Get("Content-Encoding"), r.Body)
	if err != nil {
		logger.Error("Failed to decode request body",
			slog.String("encoding", r.Header.Get("Content-Encoding")), slog.Any("error", err))
		w.WriteHeader(status)
		return
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), MAX_LINE)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		handleLine([]byte(line))
	}
	if err := scanner.Err(); err != nil {
		logger.Error("Error reading request body", slog.Any("error", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
