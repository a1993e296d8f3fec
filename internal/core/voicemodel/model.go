package voicemodel

import (
	"time"

	"github.com/samber/mo"
)

// Model は変換・TTS・ブレンドの対象となるボイスモデル
type Model struct {
	ID          string
	Name        string // title が無い場合は name
	Description string
	Tags        []string
	Type        string
	Language    string
	Gender      string
	Age         string
	Accent      string
	Style       string
	DemoURL     string
	ImageURL    string
	Usable      mo.Option[bool]
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName は表示用の名前を返す
func (m *Model) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return "Unnamed Model"
}

// Page はボイスモデル一覧の1ページ
type Page struct {
	Models []*Model
	Meta   Meta
}

// Meta はページネーション情報
type Meta struct {
	CurrentPage int
	LastPage    int
	Total       int
	PerPage     int
}

// HasNext は次のページがあるかどうかを返す
func (p *Page) HasNext() bool {
	return p.Meta.CurrentPage < p.Meta.LastPage
}
