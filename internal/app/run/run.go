package run

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/memorg/internal/archive"
	"github.com/John-Robertt/memorg/internal/config"
	"github.com/John-Robertt/memorg/internal/domain"
	"github.com/John-Robertt/memorg/internal/export"
	"github.com/John-Robertt/memorg/internal/infra/cache"
	"github.com/John-Robertt/memorg/internal/infra/fsx"
	"github.com/John-Robertt/memorg/internal/infra/httpx"
	"github.com/John-Robertt/memorg/internal/organize"
	"github.com/John-Robertt/memorg/internal/scan"
	"github.com/John-Robertt/memorg/internal/stamp"
)

// Execute 顺序执行一次迁移 run（下载 → 解包 → 归档），返回对外稳定的 RunReport。
//
// 约束：
// - 三个阶段严格串行，阶段内条目也串行（确定性优先，吞吐不是目标）
// - 错误尽量“降级”为 item 级失败/跳过（单条失败不影响其他条目）；
//   只有归档阶段的移动失败是 run 级致命错误（半移动状态没有安全的继续方式）
func Execute(ctx context.Context, eff config.EffectiveConfig, clock domain.Clock, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Root:      eff.Path,
		HTML:      eff.HTML,
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 128),
	}
	fail := func(code, msg string) domain.RunReport {
		rr.Items = append(rr.Items, syntheticFailed(code, msg))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	client, err := httpx.NewDownloadClient(eff.ProxyURL)
	if err != nil {
		return fail(domain.ErrCodeConfigInvalid, fmt.Sprintf("proxy.url 无效：%v", err))
	}

	store := cache.New(eff.Path, !eff.Apply)

	// 阶段 1：下载。导出文档不存在不是错误——老输出目录里常常只剩压缩包和散文件。
	dlStarted := time.Now()
	rows, ok, err := parseExport(eff.HTML)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Sprintf("读取导出文档失败：%v", err))
	}
	if ok && eff.Apply {
		// 快照仅用于排障，写失败不值得让整个 run 失败。
		_ = store.WriteRows(rows)
	}
	for i, row := range rows {
		oneStarted := time.Now()
		res := downloadOne(ctx, eff, client, clock, row)
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, len(rows), res, time.Since(oneStarted))
		}
	}
	if obs != nil {
		obs.OnPhaseDone("download", map[string]any{
			"rows":    len(rows),
			"no_html": !ok,
		}, time.Since(dlStarted))
	}

	// 阶段 2：解包。
	rsStarted := time.Now()
	zips, err := scan.Archives(eff.Path)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Sprintf("扫描压缩包失败：%v", err))
	}
	for i, zp := range zips {
		oneStarted := time.Now()
		res := resolveOne(zp, eff.Apply)
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, len(zips), res, time.Since(oneStarted))
		}
	}
	if obs != nil {
		obs.OnPhaseDone("resolve", map[string]any{"archives": len(zips)}, time.Since(rsStarted))
	}

	// 阶段 3：归档。
	ogStarted := time.Now()
	entries, err := scan.TopLevel(eff.Path)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Sprintf("扫描根目录失败：%v", err))
	}
	entries = dropReserved(entries, eff)
	plans, err := organize.Plan(eff.Path, entries, clock)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Sprintf("归档规划失败：%v", err))
	}

	aborted := false
	for i, p := range plans {
		oneStarted := time.Now()
		res := organizeOne(p, eff.Apply, aborted)
		if res.Status == domain.StatusFailed && !aborted {
			// 半移动状态没有安全的继续方式：后续条目全部中止。
			aborted = true
		}
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, len(plans), res, time.Since(oneStarted))
		}
	}
	if obs != nil {
		obs.OnPhaseDone("organize", map[string]any{"moves": len(plans)}, time.Since(ogStarted))
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()

	if eff.Apply {
		// 报告落盘失败同样不值得推翻已经完成的工作；stdout 上仍有完整 JSON。
		_ = store.WriteReport(&rr)
	}
	return rr
}

// parseExport 读取并解析导出文档；文件不存在时 ok=false（阶段 1 整体跳过）。
func parseExport(htmlPath string) ([]domain.MetadataRow, bool, error) {
	f, err := os.Open(htmlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	rows, err := export.Parse(f)
	if err != nil {
		return nil, true, err
	}
	return rows, true, nil
}

// downloadOne 处理导出文档的一行：取引用、落盘、打时间戳、必要时识别并重写 zip。
func downloadOne(ctx context.Context, eff config.EffectiveConfig, client *http.Client, clock domain.Clock, row domain.MetadataRow) domain.ItemResult {
	item := domain.ItemResult{
		Stage:    domain.StageDownload,
		Row:      row.Index,
		Status:   domain.StatusProcessed, // 失败/跳过时覆盖
		Warnings: []string{},
		Files:    []domain.FileResult{},
	}

	ts, fallback := stamp.Resolve(row.DateText, clock)
	if fallback {
		item.Warnings = append(item.Warnings,
			fmt.Sprintf("时间戳 %q 无法解析，已用当前时间兜底（产物会落错归档目录，请事后手动校正）", row.DateText))
	}

	ext := export.GuessExt(row.MediaType, row.Ref)
	name := stamp.FormatName(ts) + "_" + export.SafeMediaType(row.MediaType) + "_" + strconv.Itoa(row.Index) + ext
	item.Name = name

	if strings.TrimSpace(row.Ref) == "" {
		item.Status = domain.StatusSkipped
		item.ErrorCode = domain.ErrCodeNoReference
		item.ErrorMsg = "该行没有可用的下载引用"
		return item
	}

	dest := filepath.Join(eff.Path, name)

	if !eff.Apply {
		item.Files = append(item.Files, domain.FileResult{
			Src:    row.Ref,
			Dst:    dest,
			Status: domain.FileStatusPlanned,
		})
		return item
	}

	data, err := httpx.Fetch(ctx, client, row.Ref)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeFetchFailed
		item.ErrorMsg = err.Error()
		item.Files = append(item.Files, domain.FileResult{Src: row.Ref, Dst: dest, Status: domain.FileStatusFailed})
		return item
	}

	// 原子替换：重跑同一行会收敛到同一产物，而不是累积副本。
	if err := fsx.WriteFileAtomicReplace(eff.Path, name, data); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = err.Error()
		item.Files = append(item.Files, domain.FileResult{Src: row.Ref, Dst: dest, Status: domain.FileStatusFailed})
		return item
	}
	if err := fsx.Chtimes(dest, ts); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = fmt.Sprintf("打时间戳失败：%v", err)
		item.Files = append(item.Files, domain.FileResult{Src: row.Ref, Dst: dest, Status: domain.FileStatusFailed})
		return item
	}

	// 内容嗅探：标签说是图片/视频但字节是 zip 的行时有发生，后缀跟着内容走。
	if !strings.EqualFold(ext, ".zip") && archive.IsZip(dest) {
		newName := strings.TrimSuffix(name, ext) + ".zip"
		newDest := filepath.Join(eff.Path, newName)
		if err := fsx.Rename(dest, newDest); err != nil {
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeIOFailed
			item.ErrorMsg = fmt.Sprintf("按内容改后缀失败：%v", err)
			item.Files = append(item.Files, domain.FileResult{Src: row.Ref, Dst: dest, Status: domain.FileStatusFailed})
			return item
		}
		name, dest = newName, newDest
		item.Name = name
	}

	if strings.EqualFold(filepath.Ext(name), ".zip") && archive.IsZip(dest) {
		// 成员改名失败只降级为警告：原包完好，解包阶段不依赖成员名。
		if err := archive.RewriteNames(dest, ts, row.Index); err != nil {
			item.Warnings = append(item.Warnings, fmt.Sprintf("压缩包成员改名失败（包保持原样）：%v", err))
		}
	}

	item.Files = append(item.Files, domain.FileResult{
		Src:    row.Ref,
		Dst:    dest,
		Status: domain.FileStatusWritten,
	})
	return item
}

// resolveOne 处理一个顶层压缩包：IMAGE 包合成、VIDEO 包解出；跳过与失败都不动原包。
func resolveOne(zp string, apply bool) domain.ItemResult {
	item := domain.ItemResult{
		Stage:    domain.StageResolve,
		Name:     filepath.Base(zp),
		Status:   domain.StatusProcessed,
		Warnings: []string{},
		Files:    []domain.FileResult{},
	}

	var (
		res archive.Result
		err error
	)
	if apply {
		res, err = archive.Resolve(zp)
	} else {
		res, err = archive.Plan(zp)
	}
	if err != nil {
		if se, ok := archive.AsSkip(err); ok {
			item.Status = domain.StatusSkipped
			item.ErrorCode = se.Code
			item.ErrorMsg = se.Reason
			return item
		}
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = err.Error()
		return item
	}

	outStatus := domain.FileStatusWritten
	if res.Kind == archive.KindVideo {
		outStatus = domain.FileStatusExtracted
	}
	if !apply {
		outStatus = domain.FileStatusPlanned
	}
	for _, out := range res.Outputs {
		item.Files = append(item.Files, domain.FileResult{Src: zp, Dst: out, Status: outStatus})
	}
	if res.Deleted {
		item.Files = append(item.Files, domain.FileResult{Src: zp, Status: domain.FileStatusDeleted})
	}
	return item
}

// organizeOne 执行（或仅报告）一次归档移动。
func organizeOne(p organize.MovePlan, apply, aborted bool) domain.ItemResult {
	item := domain.ItemResult{
		Stage:    domain.StageOrganize,
		Name:     filepath.Base(p.SrcAbs),
		Status:   domain.StatusProcessed,
		Warnings: []string{},
		Files:    []domain.FileResult{},
	}

	if aborted {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeMoveFailed
		item.ErrorMsg = "因前一条移动失败而中止，本条未执行"
		item.Files = append(item.Files, domain.FileResult{Src: p.SrcAbs, Dst: p.DstAbs, Status: domain.FileStatusFailed})
		return item
	}

	if !apply {
		item.Files = append(item.Files, domain.FileResult{Src: p.SrcAbs, Dst: p.DstAbs, Status: domain.FileStatusPlanned})
		return item
	}

	if err := organize.Apply([]organize.MovePlan{p}); err != nil {
		item.Status = domain.StatusFailed
		switch {
		case fsx.IsPathTypeConflict(err):
			item.ErrorCode = domain.ErrCodeTargetConflict
		default:
			item.ErrorCode = domain.ErrCodeMoveFailed
		}
		item.ErrorMsg = err.Error()
		item.Files = append(item.Files, domain.FileResult{Src: p.SrcAbs, Dst: p.DstAbs, Status: domain.FileStatusFailed})
		return item
	}

	item.Files = append(item.Files, domain.FileResult{Src: p.SrcAbs, Dst: p.DstAbs, Status: domain.FileStatusMoved})
	return item
}

// dropReserved 从归档候选里剔除工具自己的工作文件：
// 配置文件、cache 目录、导出文档本身（只要它就放在根目录下）。
func dropReserved(entries []scan.Entry, eff config.EffectiveConfig) []scan.Entry {
	htmlName := ""
	if filepath.Dir(eff.HTML) == eff.Path {
		htmlName = filepath.Base(eff.HTML)
	}

	out := entries[:0]
	for _, e := range entries {
		switch {
		case e.IsDir && e.Name == "cache":
			continue
		case !e.IsDir && e.Name == "memorg.json":
			continue
		case !e.IsDir && htmlName != "" && e.Name == htmlName:
			continue
		}
		out = append(out, e)
	}
	return out
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Stage:     "",
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
		Warnings:  []string{},
		Files:     []domain.FileResult{},
	}
}
