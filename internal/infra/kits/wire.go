package kits

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jinford/kits-cli/internal/core/job"
	"github.com/jinford/kits-cli/internal/core/voicemodel"
	"github.com/samber/mo"
)

// flexString は文字列・数値どちらのJSON値も受け付ける
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// flexTime はRFC3339形式の時刻を受け付ける。解釈できない値はゼロ値になる。
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil || str == "" {
		*t = flexTime{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		*t = flexTime{}
		return nil
	}
	*t = flexTime(parsed)
	return nil
}

type jobDTO struct {
	ID         flexString        `json:"id"`
	Status     string            `json:"status"`
	Progress   *float64          `json:"progress"`
	Error      json.RawMessage   `json:"error"`
	OutputURL  string            `json:"outputUrl"`
	OutputURLs map[string]string `json:"outputUrls"`
	CreatedAt  flexTime          `json:"createdAt"`
	UpdatedAt  flexTime          `json:"updatedAt"`
}

func (d *jobDTO) toJob(kind job.Kind) *job.Job {
	j := &job.Job{
		ID:        strings.TrimSpace(string(d.ID)),
		Kind:      kind,
		Status:    job.NormalizeStatus(d.Status),
		Error:     rawText(d.Error),
		CreatedAt: time.Time(d.CreatedAt),
		UpdatedAt: time.Time(d.UpdatedAt),
		Output: job.Output{
			URL: d.OutputURL,
		},
	}
	if d.Progress != nil {
		j.Progress = mo.Some(int(*d.Progress))
	}

	parts := make(map[string]string, len(d.OutputURLs))
	for name, u := range d.OutputURLs {
		if u != "" {
			parts[name] = u
		}
	}
	if len(parts) > 0 {
		j.Output.Parts = parts
	}
	return j
}

// rawText はJSON値を表示用の文字列にする（文字列はそのまま、null は空）
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}

type metaDTO struct {
	CurrentPage int `json:"currentPage"`
	LastPage    int `json:"lastPage"`
	Total       int `json:"total"`
	PerPage     int `json:"perPage"`
}

type jobListDTO struct {
	Data []jobDTO `json:"data"`
	Meta metaDTO  `json:"meta"`
}

func (d *jobListDTO) toPage(kind job.Kind) *job.Page {
	page := &job.Page{
		Jobs: make([]*job.Job, 0, len(d.Data)),
		Meta: job.PageMeta{
			CurrentPage: d.Meta.CurrentPage,
			LastPage:    d.Meta.LastPage,
			Total:       d.Meta.Total,
			PerPage:     d.Meta.PerPage,
		},
	}
	for i := range d.Data {
		page.Jobs = append(page.Jobs, d.Data[i].toJob(kind))
	}
	return page
}

type modelDTO struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Type        string     `json:"type"`
	Language    string     `json:"language"`
	Gender      string     `json:"gender"`
	Age         flexString `json:"age"`
	Accent      string     `json:"accent"`
	Style       string     `json:"style"`
	DemoURL     string     `json:"demoUrl"`
	ImageURL    string     `json:"imageUrl"`
	IsUsable    *bool      `json:"isUsable"`
	CreatedAt   flexTime   `json:"createdAt"`
	UpdatedAt   flexTime   `json:"updatedAt"`
}

func (d *modelDTO) toModel() *voicemodel.Model {
	name := d.Title
	if name == "" {
		name = d.Name
	}

	m := &voicemodel.Model{
		ID:          string(d.ID),
		Name:        name,
		Description: d.Description,
		Tags:        d.Tags,
		Type:        d.Type,
		Language:    d.Language,
		Gender:      d.Gender,
		Age:         string(d.Age),
		Accent:      d.Accent,
		Style:       d.Style,
		DemoURL:     d.DemoURL,
		ImageURL:    d.ImageURL,
		CreatedAt:   time.Time(d.CreatedAt),
		UpdatedAt:   time.Time(d.UpdatedAt),
	}
	if d.IsUsable != nil {
		m.Usable = mo.Some(*d.IsUsable)
	}
	return m
}

type modelListDTO struct {
	Data []modelDTO `json:"data"`
	Meta metaDTO    `json:"meta"`
}

func (d *modelListDTO) toPage() *voicemodel.Page {
	page := &voicemodel.Page{
		Models: make([]*voicemodel.Model, 0, len(d.Data)),
		Meta: voicemodel.Meta{
			CurrentPage: d.Meta.CurrentPage,
			LastPage:    d.Meta.LastPage,
			Total:       d.Meta.Total,
			PerPage:     d.Meta.PerPage,
		},
	}
	for i := range d.Data {
		page.Models = append(page.Models, d.Data[i].toModel())
	}
	return page
}

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}
