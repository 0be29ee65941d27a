package dep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"phishsim/config"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	brevo "github.com/getbrevo/brevo-go/lib"
	"golang.org/x/net/html"
)

var sendEmailUrl = "https://api.brevo.com/v3/smtp/email"

// maxSendElapsed caps one delivery attempt, retries included. A send that
// cannot complete within it is a failure for this tick; the next tick owns
// the retry.
const maxSendElapsed = 30 * time.Second

type brevoResp struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type Sender struct {
	Email string
	Name  string
}

type Receiver struct {
	Email string
	Name  string
}

type SendEmail struct {
	MessageID   uint64
	From        *Sender
	To          *Receiver
	Subject     string
	HtmlContent string
	TextContent string
}

type EmailService interface {
	SendEmail(ctx context.Context, sendEmail *SendEmail) error
	Close(ctx context.Context) error
}

type emailService struct {
	apiKey string
}

func NewEmailService(_ context.Context, cfg config.Brevo) (EmailService, error) {
	return &emailService{
		apiKey: cfg.APIKey,
	}, nil
}

func (s *emailService) SendEmail(ctx context.Context, sendEmail *SendEmail) error {
	textContent := sendEmail.TextContent
	if textContent == "" {
		textContent = HtmlToPlainText(sendEmail.HtmlContent)
	}

	body := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Email: sendEmail.From.Email,
			Name:  sendEmail.From.Name,
		},
		ReplyTo: &brevo.SendSmtpEmailReplyTo{
			Email: sendEmail.From.Email,
		},
		To:          []brevo.SendSmtpEmailTo{{Email: sendEmail.To.Email, Name: sendEmail.To.Name}},
		Subject:     sendEmail.Subject,
		HtmlContent: sendEmail.HtmlContent,
		TextContent: textContent,
		Tags:        []string{fmt.Sprint(sendEmail.MessageID)},
	}

	op := func() error {
		return s.postHttpRequest(ctx, sendEmailUrl, body)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxSendElapsed

	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (s *emailService) Close(_ context.Context) error {
	return nil
}

func (s *emailService) postHttpRequest(ctx context.Context, url string, body interface{}) error {
	js, err := json.Marshal(body)
	if err != nil {
		return backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(js))
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Add("accept", "application/json")
	req.Header.Add("content-type", "application/json")
	req.Header.Add("api-key", s.apiKey)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = res.Body.Close()
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	brevoResp := new(brevoResp)
	if err := json.Unmarshal(b, brevoResp); err != nil {
		return err
	}

	if brevoResp.Message != "" {
		// API-level rejections do not heal on retry within one attempt
		return backoff.Permanent(fmt.Errorf("encounter brevo error: %s, code: %s", brevoResp.Message, brevoResp.Code))
	}

	return nil
}

// HtmlToPlainText derives the plaintext alternative body from the HTML one.
func HtmlToPlainText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var (
		b    strings.Builder
		walk func(*html.Node)
	)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "br", "p", "div", "tr":
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(b.String())
}
