package service

import (
	"net/url"
	"time"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// ── model → dto 转换 ──

func toDepartmentBrief(d *model.Department) *dto.DepartmentResponse {
	if d == nil {
		return nil
	}
	return &dto.DepartmentResponse{
		ID:             d.DepartmentID,
		Name:           d.Name,
		DepartmentType: d.DepartmentType,
	}
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:          u.UserID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Position:    u.Position,
		Role:        u.Role,
		RoleDisplay: u.RoleDisplay(),
		Department:  toDepartmentBrief(u.Department),
		IsActive:    u.IsActive,
		LastLoginAt: formatTimePtr(u.LastLoginAt),
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

func toChecklistResponse(cl *model.Checklist, withStructure bool) *dto.ChecklistResponse {
	resp := &dto.ChecklistResponse{
		ID:             cl.ChecklistID,
		Name:           cl.Name,
		Description:    cl.Description,
		ChecklistType:  cl.ChecklistType,
		DepartmentType: cl.DepartmentType,
		IsActive:       cl.IsActive,
		CreatedAt:      formatTime(cl.CreatedAt),
	}
	for _, g := range cl.Groups {
		resp.CriteriaCount += len(g.Criteria)
		if !withStructure {
			continue
		}
		group := dto.GroupResponse{
			ID:         g.GroupID,
			Name:       g.Name,
			OrderIndex: g.OrderIndex,
			Criteria:   make([]dto.CriterionResponse, 0, len(g.Criteria)),
		}
		for _, c := range g.Criteria {
			group.Criteria = append(group.Criteria, toCriterionResponse(&c))
		}
		resp.Groups = append(resp.Groups, group)
	}
	return resp
}

func toCriterionResponse(c *model.Criterion) dto.CriterionResponse {
	return dto.CriterionResponse{
		ID:          c.CriterionID,
		GroupID:     c.GroupID,
		Description: c.Description,
		OrderIndex:  c.OrderIndex,
	}
}

func toSelfCheckResponse(sc *model.SelfCheck) *dto.SelfCheckResponse {
	resp := &dto.SelfCheckResponse{
		ID:           sc.SelfCheckID,
		UserID:       sc.UserID,
		DepartmentID: sc.DepartmentID,
		ChecklistID:  sc.ChecklistID,
		CheckDate:    formatTime(sc.CheckDate),
		CompletedAt:  formatTimePtr(sc.CompletedAt),
		TotalScore:   sc.TotalScore,
		IsCompleted:  sc.IsCompleted,
	}
	if sc.TotalScore != nil {
		resp.Grade = scoring.Grade(*sc.TotalScore)
	}
	if sc.User != nil {
		resp.UserName = sc.User.FullName()
	}
	if sc.Department != nil {
		resp.DepartmentName = sc.Department.Name
	}
	if sc.Checklist != nil {
		resp.ChecklistName = sc.Checklist.Name
	}
	for _, a := range sc.Answers {
		item := dto.AnswerResponse{
			ID:          a.AnswerID,
			CriterionID: a.CriterionID,
			Score:       a.Score,
			Notes:       a.Notes,
		}
		if a.Criterion != nil {
			item.CriterionDescription = a.Criterion.Description
		}
		resp.Answers = append(resp.Answers, item)
	}
	return resp
}

func toAuditResponse(a *model.Audit, baseURL string, now time.Time) *dto.AuditResponse {
	resp := &dto.AuditResponse{
		ID:           a.AuditID,
		AuditorID:    a.AuditorID,
		DepartmentID: a.DepartmentID,
		ChecklistID:  a.ChecklistID,
		ScheduleID:   a.ScheduleID,
		AuditType:    a.AuditType,
		Status:       a.Status,
		AuditDate:    formatTime(a.AuditDate),
		CompletedAt:  formatTimePtr(a.CompletedAt),
		TotalScore:   a.TotalScore,
		MaxScore:     a.MaxScore,
		ScorePercent: a.ScorePercent,
		Comments:     a.Comments,
	}
	if a.ScorePercent != nil {
		resp.Grade = scoring.Grade(*a.ScorePercent)
	}
	if a.Auditor != nil {
		resp.AuditorName = a.Auditor.FullName()
	}
	if a.Department != nil {
		resp.DepartmentName = a.Department.Name
	}
	if a.Checklist != nil {
		resp.ChecklistName = a.Checklist.Name
	}
	for _, ans := range a.Answers {
		item := dto.AnswerResponse{
			ID:          ans.AnswerID,
			CriterionID: ans.CriterionID,
			Score:       ans.Score,
			Notes:       ans.Notes,
		}
		if ans.Criterion != nil {
			item.CriterionDescription = ans.Criterion.Description
		}
		for i := range ans.Photos {
			item.Photos = append(item.Photos, *toPhotoResponse(&ans.Photos[i], baseURL))
		}
		resp.Answers = append(resp.Answers, item)
	}
	for i := range a.Remarks {
		resp.Remarks = append(resp.Remarks, *toRemarkResponse(&a.Remarks[i], baseURL, now))
	}
	return resp
}

func toRemarkResponse(r *model.Remark, baseURL string, now time.Time) *dto.RemarkResponse {
	resp := &dto.RemarkResponse{
		ID:             r.RemarkID,
		AuditID:        r.AuditID,
		DepartmentID:   r.DepartmentID,
		CriterionID:    r.CriterionID,
		Description:    r.Description,
		Status:         r.Status,
		CreatedByID:    r.CreatedByID,
		AssignedToID:   r.AssignedToID,
		DueDate:        formatDatePtr(r.DueDate),
		AssignedAt:     formatTimePtr(r.AssignedAt),
		ResolvedAt:     formatTimePtr(r.ResolvedAt),
		ClosedAt:       formatTimePtr(r.ClosedAt),
		ResolutionNote: r.ResolutionNote,
		IsOverdue:      r.IsOverdue(now),
		Version:        r.Version,
		CreatedAt:      formatTime(r.CreatedAt),
	}
	if r.Criterion != nil {
		resp.CriterionDescription = r.Criterion.Description
	}
	if r.Creator != nil {
		resp.CreatedByName = r.Creator.FullName()
	}
	if r.AssignedTo != nil {
		resp.AssignedToName = r.AssignedTo.FullName()
	}
	for i := range r.Photos {
		resp.Photos = append(resp.Photos, *toPhotoResponse(&r.Photos[i], baseURL))
	}
	return resp
}

func toPhotoResponse(p *model.Photo, baseURL string) *dto.PhotoResponse {
	return &dto.PhotoResponse{
		ID:          p.PhotoID,
		RemarkID:    p.RemarkID,
		AnswerID:    p.AnswerID,
		Filename:    p.Filename,
		FileSize:    p.FileSize,
		ContentType: p.ContentType,
		UploadedBy:  p.UploadedBy,
		URL:         baseURL + "/api/v1/photos/" + url.PathEscape(p.PhotoID),
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

func toAuditScheduleResponse(s *model.AuditSchedule) *dto.AuditScheduleResponse {
	resp := &dto.AuditScheduleResponse{
		ID:            s.ScheduleID,
		DepartmentID:  s.DepartmentID,
		AuditorID:     s.AuditorID,
		ChecklistID:   s.ChecklistID,
		ScheduledDate: s.ScheduledDate.Local().Format(dateLayout),
		AuditType:     s.AuditType,
		Status:        s.Status,
		Notes:         s.Notes,
		CreatedAt:     formatTime(s.CreatedAt),
	}
	if s.Department != nil {
		resp.DepartmentName = s.Department.Name
	}
	if s.Auditor != nil {
		resp.AuditorName = s.Auditor.FullName()
	}
	return resp
}
