package archive

import (
	"strings"

	"github.com/John-Robertt/memorg/internal/domain"
)

// base 的选择是启发式的，历史上容易写成分支面条。这里固化为“有序规则表，
// 第一条命中即生效”，让策略本身可测试、可扩展。
//
// 规则顺序（硬约束，不可重排）：
// 1) 名字含 "media"（不区分大小写）的图片——导出里的正片几乎都叫 *media*
// 2) 第一个非 PNG 图片——PNG 更可能是透明遮罩层，而不是正片
// 3) 枚举顺序的第一个图片——全是 PNG 时也必须选出一个 base，不允许失败
type baseRule struct {
	name string
	pick func(images []string) string
}

var baseRules = []baseRule{
	{
		name: "name-contains-media",
		pick: func(images []string) string {
			for _, n := range images {
				if strings.Contains(strings.ToLower(n), "media") {
					return n
				}
			}
			return ""
		},
	},
	{
		name: "first-non-png",
		pick: func(images []string) string {
			for _, n := range images {
				if !strings.HasSuffix(strings.ToLower(n), ".png") {
					return n
				}
			}
			return ""
		},
	},
	{
		name: "first-image",
		pick: func(images []string) string {
			if len(images) == 0 {
				return ""
			}
			return images[0]
		},
	},
}

// PickBaseOverlay 从成员名列表中选出 base 与 overlay。
//
// - base：按规则表顺序评估，第一条命中的生效；没有任何图片时 ok=false
// - overlay：base 之外的第一个 PNG；可以不存在（返回空串）
//
// 注意：图片成员多于两个时，多余的图片会被有意丢弃（只合成一层 overlay）。
// 这是导出数据的既定行为，不做“全部叠加”的猜测。
func PickBaseOverlay(names []string) (base, overlay string, ok bool) {
	images := make([]string, 0, len(names))
	for _, n := range names {
		if domain.IsImageName(n) {
			images = append(images, n)
		}
	}
	if len(images) == 0 {
		return "", "", false
	}

	for _, rule := range baseRules {
		if n := rule.pick(images); n != "" {
			base = n
			break
		}
	}
	if base == "" {
		return "", "", false
	}

	for _, n := range images {
		if n != base && strings.HasSuffix(strings.ToLower(n), ".png") {
			overlay = n
			break
		}
	}
	return base, overlay, true
}

// Classify 判定压缩包走哪条处理路径：出现任何视频成员即 VIDEO，否则 IMAGE。
// 零成员/零图片的包也会被判成 IMAGE——随后因找不到 base 而被跳过（不删包）。
func Classify(names []string) Kind {
	for _, n := range names {
		if domain.IsVideoName(n) {
			return KindVideo
		}
	}
	return KindImage
}
