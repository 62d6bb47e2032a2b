package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfrank76/5s-system/config"
	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/testutil"
)

// fileHeader 通过 multipart 编解码构造真实的 *multipart.FileHeader
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func newTestPhotoService(env *testEnv, dir string) PhotoService {
	return NewPhotoService(env.repo, config.UploadConfig{
		Dir:         dir,
		MaxSizeMB:   1,
		AllowedExts: []string{".png", ".jpg", ".jpeg", ".gif"},
	}, "http://localhost:8080", env.logger)
}

func TestPhotoUploadForRemark(t *testing.T) {
	f, remarks, audit := newRemarkFixture(t)
	ctx := context.Background()
	dir := t.TempDir()
	svc := newTestPhotoService(f.env, dir)

	remark, err := remarks.Create(ctx, audit.ID, &dto.CreateRemarkRequest{
		Description:  "货架标签脱落",
		AssignedToID: &f.worker.UserID,
	}, callerOf(f.auditor))
	require.NoError(t, err)

	content := []byte("\x89PNG fake image")
	photo, err := svc.UploadForRemark(ctx, remark.ID, fileHeader(t, "before.PNG", "image/png", content), callerOf(f.worker))
	require.NoError(t, err)
	assert.Equal(t, "before.PNG", photo.Filename)
	assert.Equal(t, int64(len(content)), photo.FileSize)
	assert.Equal(t, "image/png", photo.ContentType)
	require.NotNil(t, photo.RemarkID)
	assert.Equal(t, remark.ID, *photo.RemarkID)
	assert.Contains(t, photo.URL, photo.ID)

	file, err := svc.Open(ctx, photo.ID, callerOf(f.worker))
	require.NoError(t, err)
	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	got, err := remarks.GetByID(ctx, remark.ID, callerOf(f.auditor))
	require.NoError(t, err)
	assert.Len(t, got.Photos, 1)

	// 只有上传人或 admin 可以删除
	assert.ErrorIs(t, svc.Delete(ctx, photo.ID, callerOf(f.auditor)), ErrNoPermission)
	require.NoError(t, svc.Delete(ctx, photo.ID, callerOf(f.worker)))
	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = svc.Open(ctx, photo.ID, callerOf(f.worker))
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestPhotoUpload_Rejected(t *testing.T) {
	f, remarks, audit := newRemarkFixture(t)
	ctx := context.Background()
	dir := t.TempDir()
	svc := newTestPhotoService(f.env, dir)

	remark, err := remarks.Create(ctx, audit.ID, &dto.CreateRemarkRequest{Description: "x"}, callerOf(f.auditor))
	require.NoError(t, err)

	_, err = svc.UploadForRemark(ctx, remark.ID, fileHeader(t, "run.exe", "application/octet-stream", []byte("MZ")), callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrPhotoExtNotAllowed)

	big := bytes.Repeat([]byte{'a'}, 1<<20+1)
	_, err = svc.UploadForRemark(ctx, remark.ID, fileHeader(t, "big.jpg", "image/jpeg", big), callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrPhotoTooLarge)

	// 其他部门的 worker 无权上传
	outsider := testutil.CreateUser(t, f.env.db, "outsider", model.RoleWorker, nil)
	_, err = svc.UploadForRemark(ctx, remark.ID, fileHeader(t, "a.jpg", "image/jpeg", []byte("x")), callerOf(outsider))
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = svc.UploadForRemark(ctx, "00000000-0000-0000-0000-000000000000", fileHeader(t, "a.jpg", "image/jpeg", []byte("x")), callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrRemarkNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPhotoUploadForAnswer(t *testing.T) {
	f := newAuditFixture(t)
	ctx := context.Background()
	svc := newTestPhotoService(f.env, t.TempDir())
	audits := f.auditService()
	ids := testutil.CriterionIDs(f.checklist)

	audit, err := audits.Create(ctx, &dto.CreateAuditRequest{DepartmentID: f.dept.DepartmentID}, callerOf(f.auditor))
	require.NoError(t, err)
	saved, err := audits.SaveAnswers(ctx, audit.ID, &dto.SaveAuditAnswersRequest{Answers: answersFor(ids, 4)}, callerOf(f.auditor))
	require.NoError(t, err)
	answerID := saved.Answers[0].ID

	_, err = svc.UploadForAnswer(ctx, answerID, fileHeader(t, "a.jpg", "image/jpeg", []byte("x")), callerOf(f.manager))
	assert.ErrorIs(t, err, ErrNoPermission)

	photo, err := svc.UploadForAnswer(ctx, answerID, fileHeader(t, "a.jpg", "image/jpeg", []byte("x")), callerOf(f.auditor))
	require.NoError(t, err)
	require.NotNil(t, photo.AnswerID)
	assert.Equal(t, answerID, *photo.AnswerID)

	detail, err := audits.GetByID(ctx, audit.ID, callerOf(f.auditor))
	require.NoError(t, err)
	require.Len(t, detail.Answers, 1)
	assert.Len(t, detail.Answers[0].Photos, 1)

	_, err = svc.UploadForAnswer(ctx, "00000000-0000-0000-0000-000000000000", fileHeader(t, "a.jpg", "image/jpeg", []byte("x")), callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestPhotoOpen_Visibility(t *testing.T) {
	f, remarks, audit := newRemarkFixture(t)
	ctx := context.Background()
	svc := newTestPhotoService(f.env, t.TempDir())
	audits := f.auditService()
	ids := testutil.CriterionIDs(f.checklist)

	other := testutil.CreateDepartment(t, f.env.db, "成品仓", model.DepartmentTypeWarehouse, nil)
	outsider := testutil.CreateUser(t, f.env.db, "worker2", model.RoleWorker, &other.DepartmentID)
	otherManager := testutil.CreateUser(t, f.env.db, "manager2", model.RoleManager, &other.DepartmentID)
	colleague := testutil.CreateUser(t, f.env.db, "worker3", model.RoleWorker, &f.dept.DepartmentID)

	remark, err := remarks.Create(ctx, audit.ID, &dto.CreateRemarkRequest{
		Description:  "工具散落",
		AssignedToID: &f.worker.UserID,
	}, callerOf(f.auditor))
	require.NoError(t, err)
	remarkPhoto, err := svc.UploadForRemark(ctx, remark.ID, fileHeader(t, "r.jpg", "image/jpeg", []byte("r")), callerOf(f.worker))
	require.NoError(t, err)

	saved, err := audits.SaveAnswers(ctx, audit.ID, &dto.SaveAuditAnswersRequest{Answers: answersFor(ids, 3)}, callerOf(f.auditor))
	require.NoError(t, err)
	answerPhoto, err := svc.UploadForAnswer(ctx, saved.Answers[0].ID, fileHeader(t, "a.jpg", "image/jpeg", []byte("a")), callerOf(f.auditor))
	require.NoError(t, err)

	tests := []struct {
		name    string
		photoID string
		caller  Caller
		wantErr error
	}{
		{"问题照片-上传人", remarkPhoto.ID, callerOf(f.worker), nil},
		{"问题照片-创建人", remarkPhoto.ID, callerOf(f.auditor), nil},
		{"问题照片-本部门经理", remarkPhoto.ID, callerOf(f.manager), nil},
		{"问题照片-本部门其他工人", remarkPhoto.ID, callerOf(colleague), ErrNoPermission},
		{"问题照片-其他部门工人", remarkPhoto.ID, callerOf(outsider), ErrNoPermission},
		{"问题照片-其他部门经理", remarkPhoto.ID, callerOf(otherManager), ErrNoPermission},
		{"评分照片-审核员", answerPhoto.ID, callerOf(f.auditor), nil},
		{"评分照片-本部门经理", answerPhoto.ID, callerOf(f.manager), nil},
		{"评分照片-被审核部门工人", answerPhoto.ID, callerOf(f.worker), ErrNoPermission},
		{"评分照片-其他部门经理", answerPhoto.ID, callerOf(otherManager), ErrNoPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := svc.Open(ctx, tt.photoID, tt.caller)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, file)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, file.Path)
		})
	}
}
