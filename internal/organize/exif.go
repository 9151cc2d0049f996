package organize

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifDate 从图片的 EXIF 里取拍摄时间（DateTimeOriginal，退而求其次 DateTime）。
//
// 任何失败（打不开、无 EXIF、字段缺失）都只返回 ok=false，
// 由调用方落到下一条日期规则，这里不产生错误。
func exifDate(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
