package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "memorg.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("写配置失败：%v", err)
	}
	return p
}

func TestLoadEffective_CLIPathWithoutConfig(t *testing.T) {
	cwd := t.TempDir()
	root := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Path: root})
	if err != nil {
		t.Fatalf("CLI path 下配置文件可选，不期望错误：%v", err)
	}
	if eff.Path != filepath.Clean(root) {
		t.Fatalf("path 不符合预期：%q", eff.Path)
	}
	if eff.HTML != filepath.Join(root, DefaultHTMLName) {
		t.Fatalf("html 默认值不符合预期：%q", eff.HTML)
	}
	if eff.Apply {
		t.Fatalf("apply 默认必须是 false")
	}
}

func TestLoadEffective_NoArgsRequiresConfig(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("无参且无配置应报 config_not_found：%v", err)
	}

	writeConfig(t, cwd, `{"apply": true}`)
	_, err = LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingPath {
		t.Fatalf("配置缺 path 应报 config_missing_path：%v", err)
	}
}

func TestLoadEffective_ConfigDrivesRun(t *testing.T) {
	cwd := t.TempDir()
	root := t.TempDir()

	writeConfig(t, cwd, `{
  "path": "`+root+`",
  "html": "export/history.html",
  "apply": true,
  "proxy": {"url": "http://127.0.0.1:7890"}
}`)

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != filepath.Clean(root) || !eff.Apply {
		t.Fatalf("合并结果不符合预期：%+v", eff)
	}
	// config 里的相对 html 以 path 为基准。
	if eff.HTML != filepath.Join(root, "export", "history.html") {
		t.Fatalf("html 不符合预期：%q", eff.HTML)
	}
	if eff.ProxyURL != "http://127.0.0.1:7890" {
		t.Fatalf("proxy 不符合预期：%q", eff.ProxyURL)
	}
}

func TestLoadEffective_CLIOverridesConfig(t *testing.T) {
	cwd := t.TempDir()
	root := t.TempDir()

	writeConfig(t, filepath.Clean(root), `{"apply": true, "html": "a.html"}`)

	eff, err := LoadEffective(cwd, CLIArgs{
		Path:     root,
		HTML:     "b.html",
		HTMLSet:  true,
		Apply:    false,
		ApplySet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// --apply=false 必须能压住 config.apply=true。
	if eff.Apply {
		t.Fatalf("CLI apply 必须覆盖配置")
	}
	// CLI 里的相对 html 以 cwd 为基准。
	if eff.HTML != filepath.Join(cwd, "b.html") {
		t.Fatalf("html 不符合预期：%q", eff.HTML)
	}
}

func TestLoadEffective_InvalidJSON(t *testing.T) {
	cwd := t.TempDir()
	writeConfig(t, cwd, `{not json`)

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("坏 JSON 应报 config_invalid：%v", err)
	}
}
