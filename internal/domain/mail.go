package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeCreateUser    = "create_user"
	MailTypeResetPassword = "reset_password"
)

type CreateUserMailData struct {
	RealName string `json:"realName"`
	Username string `json:"username"`
}

type ResetPasswordMailData struct {
	RealName   string `json:"realName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}
