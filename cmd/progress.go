package cmd

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/warpdl/pomadbg/cmd/common"
	"github.com/warpdl/pomadbg/internal/scheduler"
)

// progressObserver advances a bar for every processed command.
type progressObserver struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newProgressObserver(out io.Writer, total int) *progressObserver {
	p := mpb.New(mpb.WithOutput(out), mpb.WithWidth(40))
	return &progressObserver{p: p, bar: common.InitCommandBar(p, total)}
}

func (o *progressObserver) CommandDone(_, _ int, _ scheduler.TimedCommand, _ bool) {
	o.bar.Increment()
}

// Wait flushes the bar. A session that stopped early leaves its bar
// aborted in place.
func (o *progressObserver) Wait() {
	if !o.bar.Completed() {
		o.bar.Abort(false)
	}
	o.p.Wait()
}

// logOutput is the console logger's writer. While a bar is shown it points
// at the *mpb.Progress so log lines are printed above the bar.
type logOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func (o *logOutput) Write(b []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(b)
}

// Set redirects further writes to w and returns the previous writer.
func (o *logOutput) Set(w io.Writer) io.Writer {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.w
	o.w = w
	return prev
}
