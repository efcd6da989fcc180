package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hvac-crew/schedule/backend/internal/baseline"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/mailer"
	"github.com/hvac-crew/schedule/backend/internal/report"
	"github.com/hvac-crew/schedule/backend/internal/schedule"
	"github.com/hvac-crew/schedule/backend/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultNoteMaxLength = 2000
	defaultSendTimeout   = 20 * time.Second
)

// Store 是读取当前排班与设置所需的存储接口
type Store interface {
	GetBlob(ctx context.Context, namespace, key string) (*domain.Blob, error)
}

// Verifier 根据请求携带的凭证确认发送者身份
type Verifier interface {
	Verify(creds domain.Credentials) (string, error)
}

type Options struct {
	MaxChanges    int
	NoteMaxLength int
	SendTimeout   time.Duration
}

// Deps 中 Locker 与 Verifier 可以为 nil
type Deps struct {
	Store     Store
	Baselines *baseline.Manager
	Locker    baseline.Locker
	Transport mailer.Transport
	Verifier  Verifier
	Renderer  *report.Renderer
	Logger    *zap.Logger
}

type Service struct {
	store     Store
	baselines *baseline.Manager
	locker    baseline.Locker
	transport mailer.Transport
	verifier  Verifier
	renderer  *report.Renderer
	logger    *zap.Logger
	validate  *validator.Validate
	opts      Options

	now   func() time.Time
	newID func() string
}

func NewService(deps Deps, opts Options) *Service {
	if opts.NoteMaxLength <= 0 {
		opts.NoteMaxLength = defaultNoteMaxLength
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Service{
		store:     deps.Store,
		baselines: deps.Baselines,
		locker:    deps.Locker,
		transport: deps.Transport,
		verifier:  deps.Verifier,
		renderer:  deps.Renderer,
		logger:    deps.Logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Notify 计算当前排班相对上次成功通知的变更并发送邮件，发送成功后推进基线。
// 返回的 NotifyResult 在失败时同样有效，可直接作为响应体
func (s *Service) Notify(ctx context.Context, req domain.NotifyRequest) (domain.NotifyResult, error) {
	weekKey := strings.TrimSpace(req.WeekKey)
	recipients, err := s.validateRequest(weekKey, req)
	if err != nil {
		return failed(domain.NotifyResult{}, err)
	}

	result := domain.NotifyResult{NotificationID: s.newID()}
	logger := s.logger.With(zap.String("week", weekKey), zap.String("notification", result.NotificationID))

	actor := s.resolveActor(req, logger)

	current, err := s.loadCurrent(ctx, weekKey, req.Current, logger)
	if err != nil {
		return failed(result, err)
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, weekKey)
		switch {
		case err == nil:
			defer unlock()
		case errors.Is(err, baseline.ErrLockHeld):
			return failed(result, &Error{Kind: KindConflict, Message: "another update for this week is being sent", Err: err})
		default:
			logger.Warn("无法获取周锁，继续发送", zap.Error(err))
		}
	}

	resolution := s.baselines.Resolve(ctx, weekKey)
	result.FirstNotification = resolution.First

	// 首次通知以当前快照作为基线，不报告任何变更
	changes := schedule.ChangeSet{Changes: []schedule.Change{}}
	metaNote := ""
	if resolution.First {
		metaNote = report.BaselineInitialized
	} else {
		changes = schedule.Diff(resolution.Snapshot, current, s.opts.MaxChanges)
	}
	result.Changes = changes.Total()

	crews := s.loadCrewMap(ctx, logger).Merge(req.CrewNames)
	sentAt := s.now()

	rep, err := s.renderer.Render(report.Input{
		WeekKey:  weekKey,
		Actor:    actor,
		Note:     req.Note,
		Rows:     schedule.LabelAll(changes, crews),
		Omitted:  changes.Omitted,
		MetaNote: metaNote,
		SentAt:   sentAt,
	})
	if err != nil {
		return failed(result, &Error{Kind: KindInternal, Message: "failed to render report", Err: err})
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()
	if err := s.transport.Send(sendCtx, domain.Mail{
		ID:      result.NotificationID,
		To:      recipients,
		Subject: rep.Subject,
		HTML:    rep.HTML,
		Text:    rep.Text,
	}); err != nil {
		logger.Error("邮件发送失败，基线保持不变", zap.Error(err))
		return failed(result, &Error{Kind: KindDispatchFailed, Message: "email dispatch failed", Err: err})
	}
	result.OK = true
	result.Sent = len(recipients)

	// 邮件已经发出，基线提交失败只影响 baselineCommitted
	err = s.baselines.Commit(ctx, resolution, current, domain.BaselineMeta{Actor: actor, SentAt: sentAt})
	switch {
	case err == nil:
		result.BaselineCommitted = true
	case errors.Is(err, baseline.ErrEditConflict):
		logger.Warn("基线已被其他通知推进，本次不覆盖", zap.Error(err))
	default:
		logger.Warn("基线提交失败", zap.Error(err))
	}

	logger.Info("通知已发送",
		zap.String("actor", actor),
		zap.Int("recipients", result.Sent),
		zap.Int("changes", result.Changes),
		zap.Bool("first", result.FirstNotification),
		zap.Bool("baselineCommitted", result.BaselineCommitted),
	)
	return result, nil
}

// validateRequest 在访问任何外部依赖之前检查请求，返回去重后的收件人
func (s *Service) validateRequest(weekKey string, req domain.NotifyRequest) ([]string, error) {
	if weekKey == "" {
		return nil, badRequest("missing weekKey")
	}
	// 周键会写入基线存储并出现在邮件主题中，与排班接口使用同一规则
	if err := utils.ValidateWeekKey(weekKey); err != nil {
		return nil, &Error{Kind: KindBadRequest, Message: "invalid weekKey", Err: err}
	}

	seen := map[string]struct{}{}
	recipients := make([]string, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if err := s.validate.Var(r, "email"); err != nil {
			return nil, badRequest(fmt.Sprintf("invalid recipient %q", r))
		}
		key := strings.ToLower(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		recipients = append(recipients, r)
	}
	if len(recipients) == 0 {
		return nil, badRequest("missing recipients")
	}

	if len([]rune(req.Note)) > s.opts.NoteMaxLength {
		return nil, badRequest(fmt.Sprintf("note exceeds %d characters", s.opts.NoteMaxLength))
	}
	return recipients, nil
}

// resolveActor 只信任已验证的身份，客户端声称的名字仅记入日志
func (s *Service) resolveActor(req domain.NotifyRequest, logger *zap.Logger) string {
	if s.verifier == nil {
		return domain.UnknownActor
	}
	actor, err := s.verifier.Verify(req.Credentials)
	if err != nil || actor == "" {
		logger.Warn("无法确认发送者身份", zap.String("claimedActor", req.Actor), zap.Error(err))
		return domain.UnknownActor
	}
	return actor
}

func (s *Service) loadCurrent(ctx context.Context, weekKey string, current domain.Snapshot, logger *zap.Logger) (domain.Snapshot, error) {
	if current != nil {
		return current, nil
	}
	if s.store == nil {
		return nil, badRequest("nothing to diff: no current snapshot provided and no store configured")
	}

	blob, err := s.store.GetBlob(ctx, domain.NamespaceWeeks, weekKey)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("无法读取当前排班", zap.Error(err))
		}
		return nil, badRequest("nothing to diff: no current snapshot provided or stored")
	}
	if blob.Data == nil {
		return domain.Snapshot{}, nil
	}
	return blob.Data, nil
}

// loadCrewMap 读取设置中的班组名，读取失败时退化为 "Row N"
func (s *Service) loadCrewMap(ctx context.Context, logger *zap.Logger) schedule.CrewMap {
	if s.store == nil {
		return nil
	}
	blob, err := s.store.GetBlob(ctx, domain.NamespacePersistent, domain.PersistentSettingsKey)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Debug("无法读取班组设置", zap.Error(err))
		}
		return nil
	}
	return schedule.CrewMapFromSettings(blob.Data)
}

func failed(result domain.NotifyResult, err error) (domain.NotifyResult, error) {
	result.OK = false
	result.Error = err.Error()
	return result, err
}
