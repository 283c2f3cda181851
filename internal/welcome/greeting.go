package welcome

import (
	"encoding/json"
	"errors"
	"os"
)

// OtherKey：各层级的兜底键
const OtherKey = "其他"

// DefaultTip：表缺失或为空时的通用问候
const DefaultTip = "欢迎来到我的博客！"

// 文档注释：问候语表节点
// 背景：国家 → 省份 → 城市的多级查找，每级既可直接给出文案，也可继续细分；用 JSON 配置时字符串或对象均可。
type Node struct {
	Text     string
	Children map[string]*Node
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = Node{Text: s}
		return nil
	}
	var m map[string]*Node
	if err := json.Unmarshal(b, &m); err != nil {
		return errors.New("greeting node must be string or object")
	}
	*n = Node{Children: m}
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Children == nil {
		return json.Marshal(n.Text)
	}
	return json.Marshal(n.Children)
}

func (n *Node) leaf() bool { return n != nil && n.Children == nil && n.Text != "" }

// Table：顶层按国家分组
type Table map[string]*Node

// DefaultTable：内置问候语表
func DefaultTable() Table {
	return Table{
		"中国": {Children: map[string]*Node{
			OtherKey: {Text: DefaultTip},
		}},
		OtherKey: {Text: "带我去你的国家逛逛吧"},
	}
}

// LoadTable：从 JSON 文件读取问候语表；路径为空时返回内置表
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Table
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return t, nil
}

// 文档注释：选择问候语
// 背景：国家 → 省份 → 城市逐级查找，缺失键回退到同级“其他”，再回退到上一级“其他”，最终回退到通用问候；国家下找不到省份节点时直接返回通用问候。
// 约束：任何输入都返回非空字符串。
func Select(t Table, country, province, city string) string {
	if country == "" || t == nil {
		return DefaultTip
	}
	top := t[OtherKey]
	fallback := func(ns ...*Node) string {
		for _, n := range ns {
			if n.leaf() {
				return n.Text
			}
			if n != nil && n.Children != nil {
				if o := n.Children[OtherKey]; o.leaf() {
					return o.Text
				}
			}
		}
		return DefaultTip
	}
	cn, ok := t[country]
	if !ok || cn == nil {
		return fallback(top)
	}
	if cn.leaf() {
		return cn.Text
	}
	pn := cn.Children[province]
	if pn == nil {
		pn = cn.Children[OtherKey]
	}
	// 国家已细分但既无该省也无“其他”：不落到顶层（面向外国访客的）问候
	if pn == nil {
		return DefaultTip
	}
	if pn.leaf() {
		return pn.Text
	}
	if pn.Children != nil {
		if c := pn.Children[city]; c.leaf() {
			return c.Text
		}
	}
	return fallback(pn, cn, top)
}

// 文档注释：按小时返回时段问候
func TimeGreeting(hour int) string {
	switch {
	case hour < 6:
		return "凌晨好🌙，注意休息哦~"
	case hour < 11:
		return "早上好🌤️，一日之计在于晨"
	case hour < 13:
		return "中午好☀️，记得午休喔~"
	case hour < 17:
		return "下午好🕞，饮茶先啦！"
	case hour < 19:
		return "傍晚好🌇，记得按时吃饭~"
	}
	return "晚上好🌙，夜生活嗨起来！"
}
