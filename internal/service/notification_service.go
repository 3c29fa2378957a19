package service

import (
	"context"
	"fmt"
	"html"
	"learnhire_backend/internal/config"
	"learnhire_backend/internal/model"
	"learnhire_backend/pkg/logger"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer 通过 SendGrid v3 API 发送邮件
type SendgridMailer struct {
	key  string
	from *sgmail.Email
}

func NewSendgridMailer(cfg config.MailConfig) *SendgridMailer {
	return &SendgridMailer{
		key:  cfg.SendgridAPIKey,
		from: sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

func (m *SendgridMailer) Send(ctx context.Context, to, toName, subject, text, html string) error {
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(toName, to), text, html)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer 未配置邮件服务时只记录日志
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, toName, subject, text, html string) error {
	logger.Log.Info("mail not sent (no provider configured)", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func NewMailer(cfg config.MailConfig) Mailer {
	if cfg.SendgridAPIKey == "" || cfg.FromEmail == "" {
		return LogMailer{}
	}
	return NewSendgridMailer(cfg)
}

type NotificationService struct {
	Mailer Mailer
}

func NewNotificationService(mailer Mailer) *NotificationService {
	return &NotificationService{Mailer: mailer}
}

// ApplicationStatusChanged 失败只记录日志，不影响主流程
func (s *NotificationService) ApplicationStatusChanged(ctx context.Context, applicant *model.User, job *model.Job, status model.ApplicationStatus) {
	if applicant.Email == "" {
		return
	}
	subject := fmt.Sprintf("Your application for %s was %s", job.Title, status)
	text := fmt.Sprintf("Hi %s,\n\nYour application for %s at %s is now %s.\n", applicant.Name, job.Title, job.Company, status)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your application for <strong>%s</strong> at %s is now <strong>%s</strong>.</p>",
		html.EscapeString(applicant.Name), html.EscapeString(job.Title), html.EscapeString(job.Company), status)

	if err := s.Mailer.Send(ctx, applicant.Email, applicant.Name, subject, text, body); err != nil {
		logger.Log.Warn("application status email failed",
			zap.String("applicant", applicant.ID.String()),
			zap.String("job", job.ID.Hex()),
			zap.Error(err))
	}
}
