package main

import (
	"bytes"
	"encoding/json"
	"mime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

func queued(t *testing.T, msg domain.MailMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestComposeMail_ResetPassword(t *testing.T) {
	body := queued(t, domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "alice@example.com",
		Data: domain.ResetPasswordMailData{RealName: "爱丽丝", OTP: "123456", Expiration: 15},
	})

	m, err := composeMail("noreply@example.com", body)
	require.NoError(t, err)
	assert.Equal(t, []string{"<alice@example.com>"}, m.GetToString())

	// 主题以 MIME encoded-word 形式保存
	subject := m.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject[0])
	require.NoError(t, err)
	assert.Equal(t, "资产管理系统 - 重置密码", decoded)
}

func TestTemplatesRender(t *testing.T) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "reset_password.html", domain.ResetPasswordMailData{RealName: "爱丽丝", OTP: "654321", Expiration: 15})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "654321")
	assert.Contains(t, buf.String(), "15 分钟")

	buf.Reset()
	err = templates.ExecuteTemplate(&buf, "create_user.html", domain.CreateUserMailData{Username: "wangwei1"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "wangwei1，您好")
}

func TestComposeMail_Rejects(t *testing.T) {
	tests := map[string][]byte{
		"not json":     []byte("{"),
		"unknown type": queued(t, domain.MailMessage{Type: "change_email", To: "a@example.com"}),
		"bad address":  queued(t, domain.MailMessage{Type: domain.MailTypeCreateUser, To: "not an address", Data: domain.CreateUserMailData{Username: "x"}}),
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := composeMail("noreply@example.com", body)
			assert.Error(t, err)
		})
	}
}
