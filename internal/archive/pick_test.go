package archive

import "testing"

func TestClassify_VideoPresenceWins(t *testing.T) {
	// 只要出现一个视频成员，整包就走 VIDEO 路径（图片再多也不例外）。
	if got := Classify([]string{"a.jpg", "b.mov", "c.png"}); got != KindVideo {
		t.Fatalf("期望 video，实际 %q", got)
	}
	if got := Classify([]string{"a.jpg", "b.png"}); got != KindImage {
		t.Fatalf("期望 image，实际 %q", got)
	}
	// 空包也判 IMAGE：后续因无 base 被跳过，而不是在分类阶段失败。
	if got := Classify(nil); got != KindImage {
		t.Fatalf("空包期望 image，实际 %q", got)
	}
}

func TestPickBaseOverlay_MediaNameWins(t *testing.T) {
	base, overlay, ok := PickBaseOverlay([]string{"overlay.png", "memory_MEDIA.jpg", "extra.jpg"})
	if !ok {
		t.Fatalf("期望选出 base")
	}
	if base != "memory_MEDIA.jpg" {
		t.Fatalf("名字含 media 的图片必须优先：%q", base)
	}
	if overlay != "overlay.png" {
		t.Fatalf("overlay 应是 base 之外的第一个 PNG：%q", overlay)
	}
}

func TestPickBaseOverlay_NonPNGPreferred(t *testing.T) {
	base, overlay, ok := PickBaseOverlay([]string{"sticker.png", "photo.jpg"})
	if !ok {
		t.Fatalf("期望选出 base")
	}
	if base != "photo.jpg" {
		t.Fatalf("无 media 名时应选第一个非 PNG：%q", base)
	}
	if overlay != "sticker.png" {
		t.Fatalf("overlay 不符合预期：%q", overlay)
	}
}

func TestPickBaseOverlay_AllPNGStillPicksBase(t *testing.T) {
	// 全是 PNG 也必须选出 base（落到“第一个图片”规则），不允许失败。
	base, overlay, ok := PickBaseOverlay([]string{"one.png", "two.png", "three.png"})
	if !ok {
		t.Fatalf("全 PNG 包也应选出 base")
	}
	if base != "one.png" {
		t.Fatalf("base 应是枚举顺序第一个：%q", base)
	}
	if overlay != "two.png" {
		t.Fatalf("overlay 应是 base 之外第一个 PNG：%q", overlay)
	}
}

func TestPickBaseOverlay_ExtraImagesDiscarded(t *testing.T) {
	// 多余的 overlay 候选被有意丢弃：只取第一个。
	_, overlay, ok := PickBaseOverlay([]string{"media.jpg", "o1.png", "o2.png", "o3.png"})
	if !ok {
		t.Fatalf("期望选出 base")
	}
	if overlay != "o1.png" {
		t.Fatalf("只应取第一个 overlay 候选：%q", overlay)
	}
}

func TestPickBaseOverlay_NoImages(t *testing.T) {
	if _, _, ok := PickBaseOverlay([]string{"readme.txt"}); ok {
		t.Fatalf("没有图片成员时 ok 必须为 false")
	}
	if _, _, ok := PickBaseOverlay(nil); ok {
		t.Fatalf("空成员列表 ok 必须为 false")
	}
}

func TestPickBaseOverlay_NoOverlayIsFine(t *testing.T) {
	base, overlay, ok := PickBaseOverlay([]string{"media.jpg"})
	if !ok || base != "media.jpg" {
		t.Fatalf("单图片包应选它为 base：%q ok=%v", base, ok)
	}
	if overlay != "" {
		t.Fatalf("没有 PNG 时 overlay 必须为空：%q", overlay)
	}
}
