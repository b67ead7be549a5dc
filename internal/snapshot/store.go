package snapshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"utsuru/internal/driver"
)

// Store は静止画をPNGファイルとして保存する
type Store struct {
	outputDir string

	mu sync.Mutex
}

// Snapshot は保存済みの静止画ファイル
type Snapshot struct {
	FilePath string    `json:"file_path"` // ファイルパス
	FileSize int64     `json:"file_size"` // ファイルサイズ（バイト）
	Taken    time.Time `json:"taken"`     // 撮影時刻
}

// NewStore は新しい Store を作成する
func NewStore(outputDir string) *Store {
	return &Store{outputDir: outputDir}
}

// Save はフレームをPNGとして保存し、保存先のパスを返す
func (s *Store) Save(frame driver.Frame) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(frame.Data) != frame.Width*frame.Height*4 {
		return "", fmt.Errorf("フレームサイズが不正: %dx%d に対して %d バイト",
			frame.Width, frame.Height, len(frame.Data))
	}

	// 出力ディレクトリを作成
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗: %w", err)
	}

	path := filepath.Join(s.outputDir, s.generateFilename(time.Now()))

	img := &image.RGBA{
		Pix:    frame.Data,
		Stride: frame.Width * 4,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ファイルの作成に失敗: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("PNGエンコードに失敗: %w", err)
	}

	return path, nil
}

// List は保存済みの静止画一覧を取得する
func (s *Store) List() ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshots []Snapshot

	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return snapshots, nil // ディレクトリが存在しない場合は空のリストを返す
		}
		return nil, fmt.Errorf("ディレクトリの読み取りに失敗: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".png" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			FilePath: filepath.Join(s.outputDir, entry.Name()),
			FileSize: info.Size(),
			Taken:    info.ModTime(),
		})
	}

	return snapshots, nil
}

// generateFilename は重複しないファイル名を生成する
func (s *Store) generateFilename(t time.Time) string {
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("snapshot_%s_%s.png", t.Format("2006-01-02_150405"), suffix)
}
