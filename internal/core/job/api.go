package job

import "context"

// API はジョブAPIとの通信インターフェース
type API interface {
	CreateJob(ctx context.Context, kind Kind, form *Form) (*Job, error)
	GetJob(ctx context.Context, kind Kind, id string) (*Job, error)
	ListJobs(ctx context.Context, kind Kind, page, limit int) (*Page, error)
}

// StatusFetcher はポーリングに必要な最小インターフェース
type StatusFetcher interface {
	GetJob(ctx context.Context, kind Kind, id string) (*Job, error)
}

// Downloader は成果物URLをローカルに保存するインターフェース
type Downloader interface {
	DownloadOne(ctx context.Context, url, destPath string) error
	DownloadMany(ctx context.Context, parts map[string]string, destDir string) ([]string, error)
}

// Field はフォームのテキストフィールド
type Field struct {
	Name  string
	Value string
}

// FilePart はフォームのファイルパート（ディスク上のパスを参照する）
type FilePart struct {
	Name string
	Path string
}

// Form は multipart/form-data に変換される送信内容。
// フィールドは追加順に送信される。
type Form struct {
	Fields []Field
	Files  []FilePart
}

// Add はテキストフィールドを追加する
func (f *Form) Add(name, value string) {
	f.Fields = append(f.Fields, Field{Name: name, Value: value})
}

// AddFile はファイルパートを追加する
func (f *Form) AddFile(name, path string) {
	f.Files = append(f.Files, FilePart{Name: name, Path: path})
}

// Value は指定フィールドの値を返す
func (f *Form) Value(name string) (string, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}
