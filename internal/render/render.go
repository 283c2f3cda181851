// 包 render：欢迎卡片的状态机与 HTML 输出；只负责排版，文案由 welcome 包组装
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"ip-welcome/internal/metrics"
	"ip-welcome/internal/welcome"
)

// State：卡片状态
type State string

const (
	Hidden  State = "hidden"
	Loading State = "loading"
	Success State = "success"
	Error   State = "error"
)

// DefaultErrorMessage：未指定错误文案时的提示
const DefaultErrorMessage = "抱歉，无法获取位置信息"

// ErrIllegalTransition：状态迁移不在允许集合内
var ErrIllegalTransition = errors.New("illegal render transition")

var transitions = map[State][]State{
	Hidden:  {Loading},
	Loading: {Success, Error},
	Error:   {Loading},
}

// CanTransition：from → to 是否允许
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// 文档注释：渲染目标
// 背景：对应页面上的欢迎容器；服务端为每个请求准备一个缓冲目标，命令行直接写终端。
// 约束：Show 每次整体替换容器内容。
type Target interface {
	Show(state State, html template.HTML)
}

// 文档注释：卡片渲染器
// 背景：同一容器上的状态迁移串行执行；容器缺失（nil）时所有操作静默跳过，状态保持不变。
// 约束：非法迁移返回 ErrIllegalTransition，容器内容不变。
type Renderer struct {
	mu     sync.Mutex
	target Target
	state  State
}

func New(t Target) *Renderer { return &Renderer{target: t, state: Hidden} }

func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Loading：显示加载动画
func (r *Renderer) Loading() error {
	return r.move(Loading, func() (template.HTML, error) { return spinnerHTML, nil })
}

// Success：显示欢迎信息
func (r *Renderer) Success(m welcome.Message) error {
	return r.move(Success, func() (template.HTML, error) { return WelcomeHTML(m) })
}

// Error：显示错误与重试提示；msg 为空时使用默认文案
func (r *Renderer) Error(msg string) error {
	return r.move(Error, func() (template.HTML, error) { return ErrorHTML(msg) })
}

func (r *Renderer) move(to State, build func() (template.HTML, error)) error {
	if r.target == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !CanTransition(r.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.state, to)
	}
	h, err := build()
	if err != nil {
		return err
	}
	r.state = to
	r.target.Show(to, h)
	metrics.WelcomeStateTotal.WithLabelValues(string(to)).Inc()
	return nil
}

const spinnerHTML template.HTML = `<div class="loading-spinner"></div>`

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="text-align: center; line-height: 1.6;">
  欢迎来自 <b>{{.Place}}</b> 的小友💖<br>
  你当前距博主约 <b>{{.Distance}}</b>！<br>
  你的IP地址：<b class="ip-address">{{.IP}}</b><br>
  {{.TimeTip}}<br>
  Tip：<b>{{.Tip}}🍂</b>
</div>`))

	errorTmpl = template.Must(template.New("error").Parse(`<div class="error-message">
  <div class="error-icon">😕</div>
  <p>{{.}}</p>
  <p>请<span id="retry-button" style="cursor: pointer; color: var(--anzhiyu-main);">刷新</span>重试</p>
</div>`))
)

// WelcomeHTML：欢迎信息片段，字段均经 HTML 转义
func WelcomeHTML(m welcome.Message) (template.HTML, error) {
	var b bytes.Buffer
	if err := welcomeTmpl.Execute(&b, m); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}

// ErrorHTML：错误提示片段，带重试入口
func ErrorHTML(msg string) (template.HTML, error) {
	if msg == "" {
		msg = DefaultErrorMessage
	}
	var b bytes.Buffer
	if err := errorTmpl.Execute(&b, msg); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}
