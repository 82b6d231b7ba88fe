package service

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/store/model"
)

// EmailService dispatches verification mail over SMTP.
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseUrl  string
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:     cfg.Smtp.Host,
		port:     cfg.Smtp.Port,
		username: cfg.Smtp.Username,
		password: cfg.Smtp.Password,
		from:     cfg.Smtp.From,
		baseUrl:  cfg.Service.BaseUrl,
	}
}

func (s *EmailService) SendVerification(user *model.User, validFor time.Duration) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseUrl, user.EmailVerificationToken)
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Verify your email\r\n\r\n"+
		"Hi %s,\r\n\r\nPlease verify your email within %s:\r\n%s\r\n",
		s.from, user.Email, user.DisplayName, validFor.Round(time.Minute), link)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	return smtp.SendMail(addr, auth, s.from, []string{user.Email}, []byte(body))
}
