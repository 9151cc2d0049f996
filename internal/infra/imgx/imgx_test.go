package imgx

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}
	return buf.Bytes()
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestMergeToJPEG_OverlayResampledToBaseSize(t *testing.T) {
	// base 200x100 红色；overlay 50x25 全不透明蓝色（故意给不同尺寸）。
	base := encodeJPEG(t, solid(200, 100, color.RGBA{255, 0, 0, 255}))
	overlay := encodePNG(t, solid(50, 25, color.RGBA{0, 0, 255, 255}))

	out, err := MergeToJPEG(base, overlay)
	if err != nil {
		t.Fatalf("MergeToJPEG 失败：%v", err)
	}

	got, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode 输出失败：%v", err)
	}
	b := got.Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("输出尺寸必须等于 base：got=%dx%d want=200x100", b.Dx(), b.Dy())
	}

	// 不透明 overlay 已铺满：中心像素应接近蓝色（JPEG 有损，允许偏差）。
	c := color.RGBAModel.Convert(got.At(100, 50)).(color.RGBA)
	if c.B < 200 || c.R > 60 {
		t.Fatalf("合成结果不符合预期：中心像素=%v（期望接近蓝色）", c)
	}
}

func TestMergeToJPEG_SemiTransparentOverlay(t *testing.T) {
	// 白色 base + 半透明黑色 overlay（同尺寸）：结果应是中灰。
	base := encodeJPEG(t, solid(64, 64, color.RGBA{255, 255, 255, 255}))

	ov := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			ov.Set(x, y, color.NRGBA{0, 0, 0, 128})
		}
	}
	overlay := encodePNG(t, ov)

	out, err := MergeToJPEG(base, overlay)
	if err != nil {
		t.Fatalf("MergeToJPEG 失败：%v", err)
	}

	got, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode 输出失败：%v", err)
	}
	c := color.RGBAModel.Convert(got.At(32, 32)).(color.RGBA)
	// alpha=128 叠黑于白 ≈ 127；给 JPEG 量化留余量。
	if c.R < 100 || c.R > 155 {
		t.Fatalf("alpha 合成不符合预期：中心像素=%v（期望中灰）", c)
	}
}

func TestMergeToJPEG_NoOverlayReencodesBase(t *testing.T) {
	base := encodeJPEG(t, solid(80, 40, color.RGBA{0, 255, 0, 255}))

	out, err := MergeToJPEG(base, nil)
	if err != nil {
		t.Fatalf("MergeToJPEG 失败：%v", err)
	}
	got, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode 输出失败：%v", err)
	}
	b := got.Bounds()
	if b.Dx() != 80 || b.Dy() != 40 {
		t.Fatalf("输出尺寸不符合预期：got=%dx%d want=80x40", b.Dx(), b.Dy())
	}
	c := color.RGBAModel.Convert(got.At(40, 20)).(color.RGBA)
	if c.G < 200 {
		t.Fatalf("无 overlay 时应原样输出 base：中心像素=%v", c)
	}
}

func TestMergeToJPEG_EmptyBase(t *testing.T) {
	if _, err := MergeToJPEG(nil, nil); err == nil {
		t.Fatalf("期望空输入返回错误")
	}
}

func TestMergeToJPEG_BadOverlay(t *testing.T) {
	base := encodeJPEG(t, solid(8, 8, color.RGBA{255, 0, 0, 255}))
	if _, err := MergeToJPEG(base, []byte("not an image")); err == nil {
		t.Fatalf("期望坏 overlay 返回错误")
	}
}
