package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	_ "image/gif" // 注册 GIF 解码器（导出里的图片格式不止 jpeg/png）
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器（遮罩层几乎总是 PNG）

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // 注册 WebP 解码器
)

// MergeToJPEG 把 overlay 以 alpha 合成的方式叠加到 base 上，输出 quality-95 JPEG。
//
// 约束：
// - 输出尺寸恒等于 base 的尺寸；overlay 尺寸不一致时重采样到 base 尺寸（绝不反向）
// - overlay 为空：结果就是 base 本身（仍重编码为 RGB JPEG）
// - 输出固定为 3 通道 JPEG（alpha 在编码时丢弃）
func MergeToJPEG(base, overlay []byte) ([]byte, error) {
	if len(base) == 0 {
		return nil, errors.New("base 图片为空")
	}

	baseImg, _, err := image.Decode(bytes.NewReader(base))
	if err != nil {
		return nil, err
	}

	bb := baseImg.Bounds()
	if bb.Dx() <= 0 || bb.Dy() <= 0 {
		return nil, errors.New("base 图片尺寸无效")
	}

	// 先把 base 展开为 RGBA 画布（原点归零，后续合成与编码都以它为准）。
	dst := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(dst, dst.Bounds(), baseImg, bb.Min, draw.Src)

	if len(overlay) > 0 {
		overlayImg, _, err := image.Decode(bytes.NewReader(overlay))
		if err != nil {
			return nil, err
		}
		ob := overlayImg.Bounds()
		if ob.Dx() <= 0 || ob.Dy() <= 0 {
			return nil, errors.New("overlay 图片尺寸无效")
		}

		if ob.Dx() == bb.Dx() && ob.Dy() == bb.Dy() {
			draw.Draw(dst, dst.Bounds(), overlayImg, ob.Min, draw.Over)
		} else {
			// 尺寸不一致：双线性重采样到 base 尺寸，边缩放边做 Over 合成。
			xdraw.BiLinear.Scale(dst, dst.Bounds(), overlayImg, ob, xdraw.Over, nil)
		}
	}

	var out bytes.Buffer
	// 质量：不需要太“讲究”，但要稳定可用；95 在体积与质量之间比较均衡。
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
