package export

import (
	"strings"
	"testing"
)

const sampleHTML = `<html><body><table>
<tr><th>Date</th><th>Media Type</th><th>Download Link</th></tr>
<tr><td>2023-05-01 10:00:00 UTC</td><td>Image</td>
    <td><a href="#" onclick="downloadMemories('https://cdn.example.test/a.zip');">Download</a></td></tr>
<tr><td>2023-06-02 11:30:00 UTC</td><td>Video</td>
    <td><a href="https://cdn.example.test/b.mp4">Download</a></td></tr>
<tr><td>2023-07-03 12:00:00 UTC</td><td>Image</td>
    <td><a href="#">Download</a></td></tr>
<tr><td>broken row</td></tr>
<tr><td>2023-08-04 13:00:00 UTC</td><td>Image</td>
    <td>no anchor here</td></tr>
</table></body></html>`

func TestParse_RowsAndRefs(t *testing.T) {
	rows, err := Parse(strings.NewReader(sampleHTML))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	// 残缺行（只有 1 列）被丢弃，其余 4 行保留。
	if len(rows) != 4 {
		t.Fatalf("期望 4 行，实际 %d：%+v", len(rows), rows)
	}

	r1 := rows[0]
	if r1.Index != 1 || r1.DateText != "2023-05-01 10:00:00 UTC" || r1.MediaType != "Image" {
		t.Fatalf("第 1 行不符合预期：%+v", r1)
	}
	if r1.Ref != "https://cdn.example.test/a.zip" {
		t.Fatalf("onclick 引用提取失败：%q", r1.Ref)
	}

	// href 兜底。
	if rows[1].Ref != "https://cdn.example.test/b.mp4" {
		t.Fatalf("href 引用提取失败：%q", rows[1].Ref)
	}

	// href="#" 是占位符：无可用引用。
	if rows[2].Ref != "" {
		t.Fatalf("占位符 href 不应产出引用：%q", rows[2].Ref)
	}

	// 残缺行仍占行号：最后一行的 Index 应为 5（含被丢弃的第 4 行）。
	last := rows[3]
	if last.Index != 5 {
		t.Fatalf("行号必须按表格位置递增：got=%d want=5", last.Index)
	}
	if last.Ref != "" {
		t.Fatalf("无 anchor 的行不应产出引用：%q", last.Ref)
	}
}

func TestGuessExt_RefSuffixWins(t *testing.T) {
	// 标签说 video，但引用后缀是 .zip：后缀是强证据，必须赢。
	if got := GuessExt("Video", "https://x.test/a.zip"); got != ".zip" {
		t.Fatalf("期望 .zip，实际 %q", got)
	}
	if got := GuessExt("whatever", "https://x.test/a.JPG"); got != ".jpg" {
		t.Fatalf("后缀匹配应忽略大小写：%q", got)
	}
}

func TestGuessExt_LabelFallback(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Zip archive", ".zip"},
		{"Video", ".mp4"},
		{"Image", ".jpg"},
		{"PHOTO", ".jpg"},
		{"Snap", ".jpg"},
		{"unknown", ""},
	}
	for _, c := range cases {
		if got := GuessExt(c.label, "https://x.test/download?id=1"); got != c.want {
			t.Fatalf("标签 %q：期望 %q，实际 %q", c.label, c.want, got)
		}
	}
}

func TestSafeMediaType(t *testing.T) {
	if got := SafeMediaType("Front Camera Image"); got != "front_camera_image" {
		t.Fatalf("不符合预期：%q", got)
	}
	if got := SafeMediaType("  "); got != "media" {
		t.Fatalf("空标签应退为 media：%q", got)
	}
}
