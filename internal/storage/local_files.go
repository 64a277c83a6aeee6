package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalFiles 将简历保存在本地目录中，文件引用为相对路径
type LocalFiles struct {
	root string
}

// NewLocalFiles 创建本地文件存储，目录不存在时自动创建
func NewLocalFiles(root string) (*LocalFiles, error) {
	if root == "" {
		return nil, fmt.Errorf("本地存储目录不能为空")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建目录 %s 失败: %w", root, err)
	}
	return &LocalFiles{root: root}, nil
}

// SaveResume 写入 resume/<id>/original<ext>
func (l *LocalFiles) SaveResume(ctx context.Context, applicationID, ext string, data []byte, contentType string) (string, error) {
	ref := ResumeObjectKey(applicationID, ext)
	path, err := l.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入简历文件失败: %w", err)
	}
	return ref, nil
}

// ReadFile 读取文件引用指向的内容
func (l *LocalFiles) ReadFile(ctx context.Context, ref string) ([]byte, error) {
	path, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取文件 %s 失败: %w", ref, err)
	}
	return data, nil
}

// resolve 拒绝逃逸出根目录的引用
func (l *LocalFiles) resolve(ref string) (string, error) {
	clean := filepath.Clean("/" + ref)
	path := filepath.Join(l.root, clean)
	if !strings.HasPrefix(path, filepath.Clean(l.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("非法的文件引用: %s", ref)
	}
	return path, nil
}
