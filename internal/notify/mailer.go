// Package notify 通过 SMTP 发送报告邮件。
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"recruit-agent-go/internal/config"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/skills"
	"recruit-agent-go/internal/types"

	"github.com/wneessen/go-mail"
)

// ErrNotConfigured 未配置SMTP服务器
var ErrNotConfigured = errors.New("smtp is not configured")

const sendTimeout = 30 * time.Second

// ReportMail 一封报告邮件
type ReportMail struct {
	To       []string
	Summary  types.ReportSummary
	Text     string // 纯文本报告，作为附件
	Filename string
}

// Mailer 报告邮件发送器
type Mailer interface {
	SendReport(ctx context.Context, mail ReportMail) error
}

// SMTPMailer 基于 go-mail 的实现
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer Host 为空时返回 ErrNotConfigured
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, ErrNotConfigured
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp.from 不能为空")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// SendReport 发送HTML报告邮件，附带纯文本报告
func (m *SMTPMailer) SendReport(ctx context.Context, rm ReportMail) error {
	msg, err := m.buildMessage(rm)
	if err != nil {
		return err
	}

	client, err := m.newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	startTime := time.Now()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("发送报告邮件失败: %w", err)
	}
	logger.Ctx(ctx).Info().
		Strs("to", rm.To).
		Str("job_id", rm.Summary.JobID).
		Dur("duration", time.Since(startTime)).
		Msg("报告邮件已发送")
	return nil
}

func (m *SMTPMailer) buildMessage(rm ReportMail) (*mail.Msg, error) {
	if len(rm.To) == 0 {
		return nil, fmt.Errorf("没有收件人")
	}

	htmlBody, err := RenderReportHTML(rm.Summary)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if m.cfg.FromName != "" {
		err = msg.FromFormat(m.cfg.FromName, m.cfg.From)
	} else {
		err = msg.From(m.cfg.From)
	}
	if err != nil {
		return nil, fmt.Errorf("设置发件人失败: %w", err)
	}
	if err := msg.To(rm.To...); err != nil {
		return nil, fmt.Errorf("设置收件人失败: %w", err)
	}
	msg.Subject(ReportSubject(rm.Summary.JobTitle))
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if rm.Text != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, rm.Text)
		filename := rm.Filename
		if filename == "" {
			filename = "report.txt"
		}
		if err := msg.AttachReader(filename, bytes.NewReader([]byte(rm.Text))); err != nil {
			return nil, fmt.Errorf("添加附件失败: %w", err)
		}
	}
	return msg, nil
}

func (m *SMTPMailer) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithTimeout(sendTimeout),
	}
	if m.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(m.cfg.Port))
	}
	if m.cfg.StartTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	return client, nil
}

// ReportSubject 报告邮件标题
func ReportSubject(jobTitle string) string {
	return "Recruitment Report: " + jobTitle
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"skills": skills.DisplayAll,
	"skill":  skills.Display,
}).Parse(reportHTML))

// RenderReportHTML 渲染报告邮件正文
func RenderReportHTML(summary types.ReportSummary) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, summary); err != nil {
		return "", fmt.Errorf("渲染报告邮件失败: %w", err)
	}
	return buf.String(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.header { background: #f8f9fa; padding: 20px; text-align: center; border-radius: 8px; }
.stats td { padding: 12px 20px; text-align: center; border: 1px solid #e9ecef; }
.number { font-size: 28px; font-weight: bold; }
.footer { margin-top: 30px; padding: 20px; background: #f8f9fa; border-radius: 8px; text-align: center; color: #6b7280; }
</style>
</head>
<body>
<div class="header">
  <h1 style="margin: 0;">Recruitment Report</h1>
  <p style="margin: 5px 0 0 0; color: #6b7280;">{{.JobTitle}}</p>
</div>
<table class="stats">
  <tr>
    <td>Total Applicants<div class="number" style="color: #3b82f6;">{{.TotalApplications}}</div></td>
    <td>Shortlisted<div class="number" style="color: #10b981;">{{.StatusBreakdown.Shortlisted}}</div></td>
    <td>Flagged<div class="number" style="color: #f59e0b;">{{.StatusBreakdown.Flagged}}</div></td>
    <td>Rejected<div class="number" style="color: #ef4444;">{{.StatusBreakdown.Rejected}}</div></td>
  </tr>
</table>
<p>Average score: {{printf "%.2f" .ScoreStatistics.Average}}/100</p>
{{- if .TopCandidates}}
<h2>Top Candidates</h2>
<ul>
{{- range .TopCandidates}}
  <li><strong>{{.Email}}</strong> <span style="color: #6b7280;">- Score: {{.Score}}/100</span>{{if .Skills}} ({{range $i, $s := skills .Skills}}{{if $i}}, {{end}}{{$s}}{{end}}){{end}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .SkillsAnalysis.TopSkills}}
<h2>Top Skills</h2>
<ul>
{{- range .SkillsAnalysis.TopSkills}}
  <li>{{skill .Skill}}: {{.Count}}</li>
{{- end}}
</ul>
{{- end}}
<div class="footer">
  <em>This report was generated automatically. Generated at {{.GeneratedAt}}.</em>
</div>
</body>
</html>
`
