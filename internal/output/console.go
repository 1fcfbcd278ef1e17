package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/health"
)

// LineEmitter writes newline-terminated records to an io.Writer. It backs
// both the console emitter and the serial emitter, which differ only in
// where the bytes go.
type LineEmitter struct {
	mu     sync.Mutex
	w      io.Writer
	fmt    formatter
	seq    uint32
	closer io.Closer
}

// NewConsole creates an emitter writing to w (typically os.Stdout).
func NewConsole(w io.Writer, format Format) *LineEmitter {
	return &LineEmitter{w: w, fmt: formatter{format: format}}
}

func (e *LineEmitter) writeLine(b []byte, err error) error {
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = fmt.Fprintf(e.w, "%s\n", b)
	return err
}

// EmitResult writes one result line, with its own output sequence number.
func (e *LineEmitter) EmitResult(res classify.Result, snap *health.Snapshot) error {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.mu.Unlock()
	return e.writeLine(e.fmt.result(seq, res, snap))
}

// EmitHealth writes one health report line.
func (e *LineEmitter) EmitHealth(snap health.Snapshot) error {
	return e.writeLine(e.fmt.health(snap))
}

// EmitHeartbeat writes one liveness line.
func (e *LineEmitter) EmitHeartbeat(uptime time.Duration) error {
	return e.writeLine(e.fmt.heartbeat(uptime))
}

// EmitError writes one error line.
func (e *LineEmitter) EmitError(code int, message string) error {
	return e.writeLine(e.fmt.error(code, message))
}

// EmitBanner writes the startup line.
func (e *LineEmitter) EmitBanner(info Info) error {
	return e.writeLine(e.fmt.banner(info))
}

// Close closes the underlying writer when it is closable.
func (e *LineEmitter) Close() error {
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}
