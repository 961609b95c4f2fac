package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey はストレージの外を指すキーに対するエラー
var ErrInvalidKey = errors.New("storage: invalid key")

// Object は保存済みファイルの情報
type Object struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Storage は生成したレポートファイルの保存・一覧・削除を抽象化するインターフェース。
type Storage interface {
	// Save はファイルを保存し、公開 URL を返す。
	// key はストレージ内の一意パス (例: "<project_id>/relatorio_<ts>.html")。
	Save(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)

	// List は prefix 配下のファイルをキー順に返す。
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete は key に対応するファイルを削除する。
	Delete(ctx context.Context, key string) error
}
