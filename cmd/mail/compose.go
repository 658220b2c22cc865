package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// queuedMail 与 domain.MailMessage 对应，Data 按 Type 延迟解码
type queuedMail struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type mailKind struct {
	template string
	subject  string
	data     func() any
}

var mailKinds = map[string]mailKind{
	domain.MailTypeCreateUser: {
		template: "create_user.html",
		subject:  "资产管理系统 - 账户信息",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailTypeResetPassword: {
		template: "reset_password.html",
		subject:  "资产管理系统 - 重置密码",
		data:     func() any { return &domain.ResetPasswordMailData{} },
	},
}

// composeMail 根据队列中的消息构建邮件
func composeMail(from string, body []byte) (*mail.Msg, error) {
	var queued queuedMail
	if err := json.Unmarshal(body, &queued); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	kind, ok := mailKinds[queued.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %s", queued.Type)
	}

	data := kind.data()
	if err := json.Unmarshal(queued.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(queued.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	m.Subject(kind.subject)
	if err := m.SetBodyHTMLTemplate(templates.Lookup(kind.template), data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}

	return m, nil
}
