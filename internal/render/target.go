package render

import (
	"html/template"
	"io"
	"sync"
)

// Buffer：内存目标，记录最后一次状态与内容及写入次数
type Buffer struct {
	mu     sync.Mutex
	state  State
	html   template.HTML
	writes int
}

func (b *Buffer) Show(state State, html template.HTML) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state, b.html = state, html
	b.writes++
}

// Snapshot：返回最后一次写入的状态、内容与累计写入次数
func (b *Buffer) Snapshot() (State, template.HTML, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.html, b.writes
}

// WriterTarget：把每次输出追加写入 io.Writer（命令行使用）；OnlyFinal 为 true 时跳过加载态
type WriterTarget struct {
	W         io.Writer
	OnlyFinal bool
}

func (w WriterTarget) Show(state State, html template.HTML) {
	if w.OnlyFinal && state == Loading {
		return
	}
	_, _ = io.WriteString(w.W, string(html)+"\n")
}
