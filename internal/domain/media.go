package domain

import (
	"path/filepath"
	"strings"
)

// 媒体类别：文件按自身扩展名归类，目录按内容归类（见 organize）。
const (
	CategoryImages = "images"
	CategoryVideos = "videos"
	CategoryOther  = "other"
)

// 扩展名集合来自导出数据的实际取值范围；刻意保持小而明确，不做 MIME 探测。
var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {}, ".gif": {}, ".webp": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".avi": {}, ".hevc": {}, ".mkv": {},
}

// IsImageExt 判断扩展名（含点，任意大小写）是否为图片。
func IsImageExt(ext string) bool {
	_, ok := imageExts[strings.ToLower(ext)]
	return ok
}

// IsVideoExt 判断扩展名（含点，任意大小写）是否为视频。
func IsVideoExt(ext string) bool {
	_, ok := videoExts[strings.ToLower(ext)]
	return ok
}

// IsImageName / IsVideoName 按文件名判断（取扩展名后判定）。
func IsImageName(name string) bool { return IsImageExt(filepath.Ext(name)) }

func IsVideoName(name string) bool { return IsVideoExt(filepath.Ext(name)) }
