package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportDepartmentStats 部门统计表，范围与仪表盘一致
	ExportDepartmentStats(ctx context.Context, caller Caller) (*bytes.Buffer, string, error)
	// ExportAudit 单次审核报告：按准则分组列出评分，附问题清单
	ExportAudit(ctx context.Context, auditID string, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	dashboard *dashboardService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		repo:      repo,
		dashboard: &dashboardService{repo: repo, logger: logger},
		logger:    logger,
	}
}

var remarkStatusNames = map[string]string{
	model.RemarkStatusIdentified: "已发现",
	model.RemarkStatusAssigned:   "已指派",
	model.RemarkStatusResolved:   "已整改",
	model.RemarkStatusClosed:     "已关闭",
}

// ═══════════════════════════════════════════════════════════
// ExportDepartmentStats
// ═══════════════════════════════════════════════════════════
//
// 输出格式（单 Sheet「部门统计」）：
//   | 部门 | 类型 | 自查次数 | 自查平均分 | 审核次数 | 审核平均得分率(%) | 未关闭问题 |

func (s *exportService) ExportDepartmentStats(ctx context.Context, caller Caller) (*bytes.Buffer, string, error) {
	ids, empty, err := s.dashboard.departmentIDs(ctx, caller)
	if err != nil {
		return nil, "", err
	}
	var list []dto.DepartmentStatResponse
	if !empty {
		list, err = departmentStats(ctx, s.repo, s.logger, ids)
		if err != nil {
			return nil, "", err
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "部门统计"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle := newHeaderStyle(f)
	headers := []string{"部门", "类型", "自查次数", "自查平均分", "审核次数", "审核平均得分率(%)", "未关闭问题"}
	widths := []float64{24, 12, 10, 12, 10, 18, 12}
	for i, h := range headers {
		col := colName(i)
		f.SetColWidth(sheet, col, col, widths[i])
		f.SetCellValue(sheet, cell(col, 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	for i, r := range list {
		row := i + 2
		f.SetCellValue(sheet, cell("A", row), r.DepartmentName)
		f.SetCellValue(sheet, cell("B", row), r.DepartmentType)
		f.SetCellValue(sheet, cell("C", row), r.SelfCheckCount)
		f.SetCellValue(sheet, cell("D", row), floatOrDash(r.SelfCheckAverage))
		f.SetCellValue(sheet, cell("E", row), r.AuditCount)
		f.SetCellValue(sheet, cell("F", row), floatOrDash(r.AuditAverage))
		f.SetCellValue(sheet, cell("G", row), r.OpenRemarks)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("部门统计_%s.xlsx", time.Now().Format("20060102")), nil
}

// ═══════════════════════════════════════════════════════════
// ExportAudit
// ═══════════════════════════════════════════════════════════
//
// Sheet「审核报告」：
//   - 抬头：部门、审核员、日期、状态、总分 / 满分 / 得分率 / 等级
//   - 正文：按准则组分段，每条准则一行（未评分显示 "-"）
// Sheet「问题清单」：描述、状态、被指派人、期限、整改说明

func (s *exportService) ExportAudit(ctx context.Context, auditID string, caller Caller) (*bytes.Buffer, string, error) {
	audit, err := s.repo.Audit.GetDetail(ctx, auditID)
	if err != nil {
		return nil, "", notFound(s.logger, err, ErrAuditNotFound, "查询审核失败", zap.String("id", auditID))
	}
	if audit.AuditorID != caller.UserID {
		scope, err := resolveScope(ctx, s.repo, caller)
		if err != nil {
			s.logger.Error("计算数据范围失败", zap.Error(err))
			return nil, "", err
		}
		if !scope.allowsDepartment(audit.DepartmentID) {
			return nil, "", ErrDepartmentOutsideScope
		}
	}
	cl, err := s.repo.Checklist.GetIncludingDeleted(ctx, audit.ChecklistID)
	if err != nil {
		return nil, "", notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", audit.ChecklistID))
	}

	answers := make(map[string]model.AuditAnswer, len(audit.Answers))
	for _, a := range audit.Answers {
		answers[a.CriterionID] = a
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "审核报告"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	headerStyle := newHeaderStyle(f)
	groupStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})

	f.SetColWidth(sheet, "A", "A", 6)
	f.SetColWidth(sheet, "B", "B", 60)
	f.SetColWidth(sheet, "C", "C", 8)
	f.SetColWidth(sheet, "D", "D", 40)

	deptName, auditorName := audit.DepartmentID, audit.AuditorID
	if audit.Department != nil {
		deptName = audit.Department.Name
	}
	if audit.Auditor != nil {
		auditorName = audit.Auditor.FullName()
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("5S 审核报告 · %s", deptName))
	f.MergeCell(sheet, "A1", "D1")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	summary := [][2]interface{}{
		{"审核员", auditorName},
		{"审核日期", audit.AuditDate.Format(dateLayout)},
		{"检查清单", cl.Name},
		{"状态", audit.Status},
	}
	if audit.ScorePercent != nil {
		summary = append(summary,
			[2]interface{}{"总分", fmt.Sprintf("%.0f / %.0f", derefFloat(audit.TotalScore), derefFloat(audit.MaxScore))},
			[2]interface{}{"得分率(%)", *audit.ScorePercent},
			[2]interface{}{"等级", scoring.Grade(*audit.ScorePercent)},
		)
	}
	row := 2
	for _, kv := range summary {
		f.SetCellValue(sheet, cell("A", row), kv[0])
		f.MergeCell(sheet, cell("A", row), cell("B", row))
		f.SetCellValue(sheet, cell("C", row), kv[1])
		f.MergeCell(sheet, cell("C", row), cell("D", row))
		row++
	}

	row++
	for i, h := range []string{"序号", "准则", "评分", "备注"} {
		f.SetCellValue(sheet, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheet, cell("A", row), cell("D", row), headerStyle)
	row++

	for _, g := range cl.Groups {
		f.SetCellValue(sheet, cell("A", row), g.Name)
		f.MergeCell(sheet, cell("A", row), cell("D", row))
		f.SetCellStyle(sheet, cell("A", row), cell("D", row), groupStyle)
		row++
		for j, c := range g.Criteria {
			f.SetCellValue(sheet, cell("A", row), j+1)
			f.SetCellValue(sheet, cell("B", row), c.Description)
			if a, ok := answers[c.CriterionID]; ok {
				f.SetCellValue(sheet, cell("C", row), a.Score)
				f.SetCellValue(sheet, cell("D", row), a.Notes)
			} else {
				f.SetCellValue(sheet, cell("C", row), "-")
			}
			row++
		}
	}

	// 问题清单
	remarkSheet := "问题清单"
	f.NewSheet(remarkSheet)
	remarkHeaders := []string{"描述", "状态", "被指派人", "整改期限", "整改说明"}
	remarkWidths := []float64{50, 10, 16, 12, 40}
	for i, h := range remarkHeaders {
		col := colName(i)
		f.SetColWidth(remarkSheet, col, col, remarkWidths[i])
		f.SetCellValue(remarkSheet, cell(col, 1), h)
	}
	f.SetCellStyle(remarkSheet, "A1", cell(colName(len(remarkHeaders)-1), 1), headerStyle)
	for i, r := range audit.Remarks {
		rr := i + 2
		f.SetCellValue(remarkSheet, cell("A", rr), r.Description)
		f.SetCellValue(remarkSheet, cell("B", rr), remarkStatusNames[r.Status])
		if r.AssignedTo != nil {
			f.SetCellValue(remarkSheet, cell("C", rr), r.AssignedTo.FullName())
		}
		if r.DueDate != nil {
			f.SetCellValue(remarkSheet, cell("D", rr), r.DueDate.Format(dateLayout))
		}
		f.SetCellValue(remarkSheet, cell("E", rr), r.ResolutionNote)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	filename := fmt.Sprintf("审核报告_%s_%s.xlsx", deptName, audit.AuditDate.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func newHeaderStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	return style
}

func floatOrDash(v *float64) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// colName 0 起始列号转列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
