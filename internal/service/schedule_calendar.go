package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/maxfrank76/5s-system/internal/model"
)

// ── 审核计划日历 ──────────────────────────────────────────────
//
// 每个计划输出一个全天 VEVENT：
//   - UID 使用 schedule_id，客户端重复订阅时可去重
//   - SUMMARY 为「5S 审核 · 部门名」
//   - 进行中的计划标记为 CONFIRMED，其余为 TENTATIVE
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//5s-system//audit-schedule//ZH"

func buildScheduleCalendar(list []model.AuditSchedule, baseURL string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("5S 审核计划")

	stamp := time.Now().UTC()
	for i := range list {
		sched := &list[i]
		day := sched.ScheduledDate.Local()
		evt := cal.AddEvent(sched.ScheduleID + "@5s-system")
		evt.SetDtStampTime(stamp)
		evt.SetCreatedTime(sched.CreatedAt)
		evt.SetModifiedAt(sched.UpdatedAt)
		evt.SetAllDayStartAt(day)
		evt.SetAllDayEndAt(day.AddDate(0, 0, 1))
		evt.SetSummary(scheduleSummary(sched))
		evt.SetDescription(scheduleDescription(sched))
		if baseURL != "" {
			evt.SetURL(fmt.Sprintf("%s/api/v1/audit-schedules/%s", strings.TrimRight(baseURL, "/"), sched.ScheduleID))
		}
		if sched.Status == model.ScheduleStatusInProgress {
			evt.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			evt.SetStatus(ics.ObjectStatusTentative)
		}
	}
	return cal.Serialize()
}

func scheduleSummary(s *model.AuditSchedule) string {
	name := s.DepartmentID
	if s.Department != nil {
		name = s.Department.Name
	}
	return "5S 审核 · " + name
}

func scheduleDescription(s *model.AuditSchedule) string {
	var b strings.Builder
	b.WriteString("类型: ")
	if s.AuditType == model.AuditTypeUnscheduled {
		b.WriteString("临时审核")
	} else {
		b.WriteString("计划审核")
	}
	if s.Auditor != nil {
		b.WriteString("\n审核员: ")
		b.WriteString(s.Auditor.FullName())
	}
	if s.Notes != "" {
		b.WriteString("\n备注: ")
		b.WriteString(s.Notes)
	}
	return b.String()
}
