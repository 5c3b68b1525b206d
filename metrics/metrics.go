package metrics

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"
)

type RegionInfo struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type CopyInfo struct {
	Duration    time.Duration `json:"duration"`
	BandsCopied int           `json:"bands_copied"`
	RowsRead    int64         `json:"rows_read"`
	BytesCopied int64         `json:"bytes_copied"`
}

type SubsetInfo struct {
	ReqTime       string        `json:"req_time"`
	ReqDuration   time.Duration `json:"req_duration"`
	SourceProduct string        `json:"source_product"`
	TargetProduct string        `json:"target_product"`
	SourceWidth   int           `json:"source_width"`
	SourceHeight  int           `json:"source_height"`
	Region        *RegionInfo   `json:"region"`
	SubSamplingX  int           `json:"sub_sampling_x"`
	SubSamplingY  int           `json:"sub_sampling_y"`
	NodeNames     []string      `json:"node_names"`
	Copy          *CopyInfo     `json:"copy"`
	Warnings      []string      `json:"warnings"`
	Error         string        `json:"error,omitempty"`
}

// MetricsCollector accumulates the SubsetInfo of one request. All methods
// are safe on a nil collector and for concurrent use.
type MetricsCollector struct {
	Info   *SubsetInfo
	logger Logger
	mu     sync.Mutex
}

func NewMetricsCollector(logger Logger) *MetricsCollector {
	return &MetricsCollector{
		Info: &SubsetInfo{
			ReqTime: time.Now().Format(time.RFC3339),
			Copy:    &CopyInfo{},
		},
		logger: logger,
	}
}

// AddCopy accounts rows and bytes of one raster copy.
func (m *MetricsCollector) AddCopy(rows, bytes int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Info.Copy.RowsRead += rows
	m.Info.Copy.BytesCopied += bytes
}

func (m *MetricsCollector) AddBandCopied(d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Info.Copy.BandsCopied++
	m.Info.Copy.Duration += d
}

func (m *MetricsCollector) AddWarning(w string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Info.Warnings = append(m.Info.Warnings, w)
}

// Update runs fn with exclusive access to the record.
func (m *MetricsCollector) Update(fn func(info *SubsetInfo)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.Info)
}

// Snapshot returns a copy of the record that later updates do not touch.
func (m *MetricsCollector) Snapshot() *SubsetInfo {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	info := *m.Info
	copyInfo := *m.Info.Copy
	info.Copy = &copyInfo
	info.Warnings = append([]string(nil), m.Info.Warnings...)
	return &info
}

func (m *MetricsCollector) Log() {
	if m == nil || m.logger == nil {
		return
	}
	m.logger.Log(m.Snapshot())
}

func (i *SubsetInfo) ToJSON() (string, error) {
	i.normalise()

	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(i); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// normalise fills in empty collections so every record has the same shape.
func (i *SubsetInfo) normalise() {
	if i.Warnings == nil {
		i.Warnings = []string{}
	}
	if i.NodeNames == nil {
		i.NodeNames = []string{}
	}
	if i.Copy == nil {
		i.Copy = &CopyInfo{}
	}
	if i.Region == nil {
		i.Region = &RegionInfo{Width: i.SourceWidth, Height: i.SourceHeight}
	}
}
