package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/memorg/internal/domain"
)

func TestParseRunArgs(t *testing.T) {
	ra, err := parseRunArgs([]string{"/data/memories", "--html=ex.html", "--apply=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Path != "/data/memories" || ra.HTML != "ex.html" || !ra.HTMLSet {
		t.Fatalf("解析结果不符合预期：%+v", ra)
	}
	if ra.Apply || !ra.ApplySet {
		t.Fatalf("--apply=false 必须记录显式指定：%+v", ra)
	}

	if _, err := parseRunArgs([]string{"--html"}); err == nil {
		t.Fatalf("--html 缺值应报错")
	}
	if _, err := parseRunArgs([]string{"a", "b"}); err == nil {
		t.Fatalf("重复 path 应报错")
	}
	if _, err := parseRunArgs([]string{"--nope"}); err == nil {
		t.Fatalf("未知参数应报错")
	}
}

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	// 这个测试锁定对外契约：stdout 非 TTY 时只能输出一个 RunReport JSON（进度/配置必须走 stderr 或直接禁用）。
	root := t.TempDir()

	// 最小输入：一个待归档的散文件（dry-run 不需要网络）。
	if err := os.WriteFile(filepath.Join(root, "2023-05-01_10-00-00_image_1_merged.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/memorg", "run", root)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	// stdout 必须是单个 JSON。
	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if !rr.DryRun {
		t.Fatalf("未指定 --apply 必须是 dry-run")
	}
	// 进度/配置不应出现在 stdout。
	if strings.Contains(stdout.String(), "配置（生效）") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}

	// stderr 至少应包含最终摘要行。
	if !strings.Contains(stderr.String(), "完成：processed=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}
