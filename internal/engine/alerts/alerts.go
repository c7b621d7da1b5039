package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"errdeck/internal/platform/models"
	"errdeck/internal/platform/storage"
)

// Service delivers alert notifications through the configured Slack
// webhook and SMTP integrations.
type Service struct {
	store  storage.Storage
	client *http.Client

	mu        sync.Mutex
	transport *smtpTransport

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(store storage.Storage) *Service {
	return &Service{
		store:    store,
		client:   &http.Client{Timeout: 10 * time.Second},
		sendMail: smtp.SendMail,
	}
}

type slackMessage struct {
	Username string `json:"username,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
	Text     string `json:"text"`
}

// TestSlackAlert posts a message to the stored webhook. Returns false
// without error when the integration is disabled.
func (s *Service) TestSlackAlert(ctx context.Context, message, title string) (bool, error) {
	item, err := s.store.GetConfig(ctx, storage.KeySlackIntegration)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, errors.New("slack integration is not configured")
	}

	var cfg models.SlackConfig
	if err := json.Unmarshal([]byte(item.Value), &cfg); err != nil {
		return false, err
	}
	if !cfg.Status {
		return false, nil
	}

	payload, err := json.Marshal(slackMessage{
		Username: cfg.Username,
		IconURL:  cfg.IconURL,
		Text:     title + "\n" + message,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewBuffer(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("slack webhook returned HTTP %d", resp.StatusCode)
	}
	return true, nil
}

// TestEmailAlert sends a message over SMTP to the stored recipients.
// Returns false without error when the integration is disabled.
func (s *Service) TestEmailAlert(ctx context.Context, message, title string) (bool, error) {
	item, err := s.store.GetConfig(ctx, storage.KeyEmailIntegration)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, errors.New("email integration is not configured")
	}

	var cfg models.EmailConfig
	if err := json.Unmarshal([]byte(item.Value), &cfg); err != nil {
		return false, err
	}
	if !cfg.Status {
		return false, nil
	}
	if len(cfg.Recipients) == 0 {
		return false, errors.New("email integration has no recipients")
	}

	t := s.emailTransport(cfg)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", cfg.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(cfg.Recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n\r\n", title)
	msg.WriteString(message)

	if err := s.sendMail(t.addr, t.auth, cfg.Sender, cfg.Recipients, msg.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

// ClearEmailTransport drops the cached SMTP transport so the next send
// picks up the stored integration settings.
func (s *Service) ClearEmailTransport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = nil
}

type smtpTransport struct {
	addr string
	auth smtp.Auth
}

func (s *Service) emailTransport(cfg models.EmailConfig) *smtpTransport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport != nil {
		return s.transport
	}

	t := &smtpTransport{addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))}
	if cfg.Username != "" {
		t.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	s.transport = t
	return t
}
